/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"errors"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// rupiahAmount accepts whole, positive rupiah amounts that fit in an int64.
// JSON numbers and numeric strings are both accepted by decimal.Decimal.
func rupiahAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("invalid amount")
	}
	if !amount.IsPositive() {
		return errors.New("must be a positive amount")
	}
	if !amount.Equal(amount.Truncate(0)) {
		return errors.New("must be a whole rupiah amount")
	}
	if amount.GreaterThan(maxAmount) {
		return errors.New("is too large")
	}
	return nil
}

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

type ApproveTopUp struct {
	PartnerID string          `json:"partner_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (a *ApproveTopUp) ValidateApproveTopUp() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.PartnerID, validation.Required),
		validation.Field(&a.Amount, validation.By(rupiahAmount)),
	)
}

type RejectTopUp struct {
	Reason string `json:"reason"`
}

func (r *RejectTopUp) ValidateRejectTopUp() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.Length(0, 500)),
	)
}

// ManualCredit is the body of POST /partners/:id/credit. Reference is an
// optional idempotency key.
type ManualCredit struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

func (m *ManualCredit) ValidateManualCredit() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Amount, validation.By(rupiahAmount)),
		validation.Field(&m.Reference, validation.Length(0, 128)),
	)
}

type SendChatMessage struct {
	ToID    string `json:"to_id"`
	Message string `json:"message"`
}

func (s *SendChatMessage) ValidateSendChatMessage() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.ToID, validation.Required),
		validation.Field(&s.Message, notBlank),
	)
}
