package model

import (
	"errors"
	"time"
)

// CreditSource says what caused a balance increment.
type CreditSource string

const (
	CreditSourceTopUp  CreditSource = "topup"
	CreditSourceManual CreditSource = "manual"
)

// Credit is one balance increment. Reference is unique across all credits and
// TopUpID is unique among top-up credits.
type Credit struct {
	CreditID      string       `json:"credit_id"`
	PartnerID     string       `json:"partner_id"`
	TopUpID       string       `json:"topup_id,omitempty"`
	Source        CreditSource `json:"source"`
	Amount        int64        `json:"amount"`
	Reference     string       `json:"reference"`
	BalanceBefore int64        `json:"balance_before"`
	BalanceAfter  int64        `json:"balance_after"`
	CreatedBy     string       `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ManualCredit is an administrator-initiated increment with no top-up behind it.
type ManualCredit struct {
	PartnerID string `json:"partner_id"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
	Actor     string `json:"actor"`
}

func (m *ManualCredit) Validate() error {
	if m.PartnerID == "" {
		return errors.New("partner id is required")
	}
	if m.Amount <= 0 {
		return errors.New("amount must be a positive integer")
	}
	return nil
}

// NewCredit fills the ledger row for an increment of amount on a partner whose
// balance after the increment is balanceAfter.
func NewCredit(id, partnerID string, source CreditSource, amount, balanceAfter int64, reference, actor string) *Credit {
	return &Credit{
		CreditID:      id,
		PartnerID:     partnerID,
		Source:        source,
		Amount:        amount,
		Reference:     reference,
		BalanceBefore: balanceAfter - amount,
		BalanceAfter:  balanceAfter,
		CreatedBy:     actor,
		CreatedAt:     nowUTC(),
	}
}
