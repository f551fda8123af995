package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/mitrahub/mitra/api/model"
	"github.com/mitrahub/mitra/internal/apierror"
)

func (a Api) GetAllTopUps(c *gin.Context) {
	filters, errs := ParseFiltersFromContext(c, nil)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters", "code": apierror.ErrInvalidInput, "details": errs})
		return
	}
	limit, offset := ParsePagination(c)

	topUps, err := a.mitra.ListTopUps(c.Request.Context(), filters, ParseQueryOptions(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topUps)
}

// GetPendingTopUps pages through pending requests with limit/offset, 100 per page at most.
func (a Api) GetPendingTopUps(c *gin.Context) {
	limit, offset := ParsePagination(c)
	topUps, err := a.mitra.ListPendingTopUps(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topUps)
}

func (a Api) GetTopUp(c *gin.Context) {
	topUp, err := a.mitra.GetTopUp(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topUp)
}

// ApproveTopUp settles a pending top-up. The body must repeat the partner and
// amount the admin saw, so a stale screen cannot credit the wrong figure.
func (a Api) ApproveTopUp(c *gin.Context) {
	var req model2.ApproveTopUp
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateApproveTopUp(); err != nil {
		badRequest(c, err)
		return
	}

	topUp, err := a.mitra.ApproveTopUp(c.Request.Context(), c.Param("id"), req.PartnerID, req.Amount.IntPart(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topUp)
}

func (a Api) RejectTopUp(c *gin.Context) {
	var req model2.RejectTopUp
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateRejectTopUp(); err != nil {
		badRequest(c, err)
		return
	}

	topUp, err := a.mitra.RejectTopUp(c.Request.Context(), c.Param("id"), req.Reason, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topUp)
}
