package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mitrahub/mitra/api/middleware"
	model2 "github.com/mitrahub/mitra/api/model"
	"github.com/mitrahub/mitra/internal/apierror"
)

func (a Api) Register(c *gin.Context) {
	allowed, err := a.mitra.CanRegister(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if !allowed {
		respondError(c, apierror.NewAPIError(apierror.ErrUnauthorized, "registration is closed", nil))
		return
	}

	var creds model2.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, err)
		return
	}
	if err := creds.ValidateCredentials(); err != nil {
		badRequest(c, err)
		return
	}

	admin, err := a.mitra.RegisterAdmin(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, admin)
}

func (a Api) Login(c *gin.Context) {
	var creds model2.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, err)
		return
	}
	if err := creds.ValidateCredentials(); err != nil {
		badRequest(c, err)
		return
	}

	session, err := a.mitra.Login(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) Logout(c *gin.Context) {
	if err := a.mitra.Logout(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (a Api) ChangePassword(c *gin.Context) {
	var req model2.ChangePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateChangePassword(); err != nil {
		badRequest(c, err)
		return
	}

	session, _ := middleware.CurrentSession(c)
	if err := a.mitra.ChangePassword(c.Request.Context(), session, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (a Api) CurrentSession(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, apierror.NewAPIError(apierror.ErrUnauthorized, "not logged in", nil))
		return
	}
	c.JSON(http.StatusOK, session)
}
