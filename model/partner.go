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

import "time"

// VerificationStatus is the verification state of a partner account.
type VerificationStatus string

const (
	PartnerUnverified VerificationStatus = "unverified"
	PartnerVerified   VerificationStatus = "verified"
)

// Valid reports whether s is a known verification status.
func (s VerificationStatus) Valid() bool {
	return s == PartnerUnverified || s == PartnerVerified
}

// Partner is a mitra account. Balance is in whole rupiah and only ever changes
// through a credit written in the same transaction.
type Partner struct {
	PartnerID          string             `json:"partner_id"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	WhatsApp           string             `json:"whatsapp"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	Balance            int64              `json:"balance"`
	Version            int64              `json:"version"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (p *Partner) IsVerified() bool {
	return p.VerificationStatus == PartnerVerified
}

// PartnerSummary is the subset of partner fields joined onto top-ups and invoices.
type PartnerSummary struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}
