package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/mitrahub/mitra/api/model"
)

// GetChatMessages returns one partner's conversation, or every message when
// partner_id is omitted. Newest first.
func (a Api) GetChatMessages(c *gin.Context) {
	limit, offset := ParsePagination(c)
	messages, err := a.mitra.ListChatMessages(c.Request.Context(), c.Query("partner_id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (a Api) SendChatMessage(c *gin.Context) {
	var req model2.SendChatMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateSendChatMessage(); err != nil {
		badRequest(c, err)
		return
	}

	message, err := a.mitra.SendChatMessage(c.Request.Context(), req.ToID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}
