package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const invoiceColumns = `i.invoice_id, i.order_id, i.partner_id, i.started_at, i.finished_at, i.total, i.created_at, p.name, p.email, p.whatsapp`

// GetInvoices lists invoices joined with their partner, newest first.
func (d Datasource) GetInvoices(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, error) {
	filters := &filter.QueryFilterSet{}
	if f.PartnerID != "" {
		filters.Add("partner_id", filter.OpEqual, f.PartnerID)
	}
	if f.From != nil {
		filters.Add("started_at", filter.OpGreaterThanOrEqual, *f.From)
	}

	result, err := filter.BuildWithOptions(filters, filter.TableInvoices, 1, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices i JOIN partners p ON p.partner_id = i.partner_id %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		invoiceColumns, result.Where(), result.OrderBy, result.NextArgPos, result.NextArgPos+1)

	rows, err := d.Conn.QueryContext(ctx, query, append(result.Args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, storeError(err, "list invoices", false)
	}
	defer func() { _ = rows.Close() }()

	invoices := []model.Invoice{}
	for rows.Next() {
		inv := model.Invoice{Partner: &model.PartnerSummary{}}
		var startedAt, finishedAt sql.NullTime
		err := rows.Scan(&inv.InvoiceID, &inv.OrderID, &inv.PartnerID, &startedAt, &finishedAt, &inv.Total, &inv.CreatedAt,
			&inv.Partner.Name, &inv.Partner.Email, &inv.Partner.WhatsApp)
		if err != nil {
			return nil, storeError(err, "scan invoice", false)
		}
		if startedAt.Valid {
			inv.StartedAt = &startedAt.Time
		}
		if finishedAt.Valid {
			inv.FinishedAt = &finishedAt.Time
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "list invoices", false)
	}
	return invoices, nil
}
