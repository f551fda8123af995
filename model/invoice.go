package model

import "time"

type Invoice struct {
	InvoiceID  string          `json:"invoice_id"`
	OrderID    string          `json:"order_id"`
	PartnerID  string          `json:"partner_id"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Total      int64           `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	Partner    *PartnerSummary `json:"partner,omitempty"`
}

// InvoiceFilter narrows an invoice listing. Zero values mean no restriction.
type InvoiceFilter struct {
	PartnerID string     `json:"partner_id,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}
