/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	model2 "github.com/mitrahub/mitra/api/model"
	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/model"
)

// GetAllPartners lists partners. Accepts field_op=value filters, sort/order and limit/offset.
func (a Api) GetAllPartners(c *gin.Context) {
	filters, errs := ParseFiltersFromContext(c, nil)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters", "code": apierror.ErrInvalidInput, "details": errs})
		return
	}
	limit, offset := ParsePagination(c)

	partners, err := a.mitra.ListPartners(c.Request.Context(), filters, ParseQueryOptions(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partners)
}

func (a Api) GetUnverifiedPartners(c *gin.Context) {
	a.partnersByVerification(c, model.PartnerUnverified)
}

func (a Api) GetVerifiedPartners(c *gin.Context) {
	a.partnersByVerification(c, model.PartnerVerified)
}

func (a Api) partnersByVerification(c *gin.Context, state model.VerificationStatus) {
	partners, err := a.mitra.ListPartnersByVerification(c.Request.Context(), state)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partners)
}

func (a Api) SearchPartners(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	partners, err := a.mitra.SearchPartners(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partners)
}

func (a Api) GetPartner(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id", "code": apierror.ErrInvalidInput})
		return
	}

	partner, err := a.mitra.GetPartner(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner)
}

func (a Api) VerifyPartner(c *gin.Context) {
	partner, err := a.mitra.VerifyPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner)
}

func (a Api) DeletePartner(c *gin.Context) {
	if err := a.mitra.DeletePartner(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Partner deleted successfully"})
}

// ManualCredit adds balance to a partner outside the top-up flow.
func (a Api) ManualCredit(c *gin.Context) {
	var req model2.ManualCredit
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateManualCredit(); err != nil {
		badRequest(c, err)
		return
	}

	credit, err := a.mitra.ManualCredit(c.Request.Context(), c.Param("id"), req.Amount.IntPart(), req.Reference, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, credit)
}

func (a Api) GetPartnerCredits(c *gin.Context) {
	limit, offset := ParsePagination(c)
	credits, err := a.mitra.ListCredits(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credits)
}
