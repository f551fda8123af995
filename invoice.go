package mitra

import (
	"context"

	"github.com/mitrahub/mitra/model"
)

// ListInvoices returns invoices with their partner, newest first.
func (m *Mitra) ListInvoices(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, error) {
	ctx, span := tracer.Start(ctx, "ListInvoices")
	defer span.End()

	f.Limit, f.Offset = model.PageWindow(f.Limit, f.Offset, defaultListLimit, maxListLimit)
	invoices, err := m.datasource.GetInvoices(ctx, f)
	if err != nil {
		return nil, logAndRecordError(span, "list invoices failed: ", err)
	}
	return invoices, nil
}
