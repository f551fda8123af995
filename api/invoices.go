package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

func (a Api) GetInvoices(c *gin.Context) {
	limit, offset := ParsePagination(c)
	f := model.InvoiceFilter{
		PartnerID: c.Query("partner_id"),
		Limit:     limit,
		Offset:    offset,
	}
	if from := c.Query("from"); from != "" {
		ts, err := filter.ParseDateTime(from)
		if err != nil {
			badRequest(c, fmt.Errorf("from: %v", err))
			return
		}
		f.From = &ts
	}

	invoices, err := a.mitra.ListInvoices(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}
