package database

import (
	"context"

	"github.com/mitrahub/mitra/model"
)

// GetDashboardStats computes every headline number in a single round trip.
func (d Datasource) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats := model.DashboardStats{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM partners),
			(SELECT COUNT(*) FROM partners WHERE verification_status = 'verified'),
			(SELECT COALESCE(SUM(balance), 0) FROM partners),
			(SELECT COUNT(*) FROM topups WHERE status = 'pending'),
			(SELECT COUNT(*) FROM invoices),
			(SELECT COALESCE(SUM(total), 0) FROM invoices)`,
	).Scan(&stats.TotalPartners, &stats.VerifiedPartners, &stats.TotalBalance,
		&stats.PendingTopUps, &stats.TotalInvoices, &stats.TotalInvoiceAmount)
	if err != nil {
		return nil, storeError(err, "dashboard stats", false)
	}
	return &stats, nil
}
