package model

// DashboardStats are the headline numbers on the admin dashboard.
type DashboardStats struct {
	TotalPartners      int64 `json:"total_partners"`
	VerifiedPartners   int64 `json:"verified_partners"`
	TotalBalance       int64 `json:"total_balance"`
	PendingTopUps      int64 `json:"pending_topups"`
	TotalInvoices      int64 `json:"total_invoices"`
	TotalInvoiceAmount int64 `json:"total_invoice_amount"`
}

// RecentActivity is the newest partners and top-ups.
type RecentActivity struct {
	Partners []Partner `json:"partners"`
	TopUps   []TopUp   `json:"topups"`
}
