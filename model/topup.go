package model

import (
	"errors"
	"time"
)

// TopUpStatus is the settlement state of a top-up request.
type TopUpStatus string

const (
	TopUpPending  TopUpStatus = "pending"
	TopUpApproved TopUpStatus = "approved"
	TopUpRejected TopUpStatus = "rejected"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TopUpStatus) Terminal() bool {
	return s == TopUpApproved || s == TopUpRejected
}

// CanTransition reports whether moving from s to next is a legal settlement.
func (s TopUpStatus) CanTransition(next TopUpStatus) bool {
	return s == TopUpPending && next.Terminal()
}

// TopUp is a partner's request to add funds to their balance.
type TopUp struct {
	TopUpID         string          `json:"topup_id"`
	PartnerID       string          `json:"partner_id"`
	Amount          int64           `json:"amount"`
	WhatsApp        string          `json:"whatsapp,omitempty"`
	Status          TopUpStatus     `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	SettledBy       string          `json:"settled_by,omitempty"`
	SettledAt       *time.Time      `json:"settled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Partner         *PartnerSummary `json:"partner,omitempty"`
}

// Settlement carries what the caller asserts about a pending top-up when
// approving it. TopUpID, PartnerID and Amount must all match the stored row.
type Settlement struct {
	TopUpID   string `json:"topup_id"`
	PartnerID string `json:"partner_id"`
	Amount    int64  `json:"amount"`
	Actor     string `json:"actor"`
}

func (s Settlement) Validate() error {
	if s.TopUpID == "" {
		return errors.New("topup id is required")
	}
	if s.PartnerID == "" {
		return errors.New("partner id is required")
	}
	if s.Amount <= 0 {
		return errors.New("amount must be a positive integer")
	}
	return nil
}

// CreditID returns the id of the credit row produced by approving the top-up.
func (s Settlement) CreditID() string {
	return "cr_" + s.TopUpID
}
