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

package filter

import "strings"

// Tables known to the builder. Column expressions carry the alias used by the
// queries in the database package.
const (
	TablePartners = "partners"
	TableTopUps   = "topups"
	TableInvoices = "invoices"
	TableChats    = "chats"
	TableCredits  = "credits"
)

type tableSpec struct {
	defaultSort string
	columns     map[string]string
}

var tables = map[string]tableSpec{
	TablePartners: {
		defaultSort: "created_at",
		columns: map[string]string{
			"partner_id":          "p.partner_id",
			"name":                "p.name",
			"email":               "p.email",
			"whatsapp":            "p.whatsapp",
			"verification_status": "p.verification_status",
			"balance":             "p.balance",
			"created_at":          "p.created_at",
			"updated_at":          "p.updated_at",
		},
	},
	TableTopUps: {
		defaultSort: "created_at",
		columns: map[string]string{
			"topup_id":     "t.topup_id",
			"partner_id":   "t.partner_id",
			"amount":       "t.amount",
			"status":       "t.status",
			"whatsapp":     "t.whatsapp",
			"created_at":   "t.created_at",
			"settled_at":   "t.settled_at",
			"settled_by":   "t.settled_by",
			"partner_name": "p.name",
		},
	},
	TableInvoices: {
		defaultSort: "created_at",
		columns: map[string]string{
			"invoice_id":   "i.invoice_id",
			"order_id":     "i.order_id",
			"partner_id":   "i.partner_id",
			"started_at":   "i.started_at",
			"finished_at":  "i.finished_at",
			"total":        "i.total",
			"created_at":   "i.created_at",
			"partner_name": "p.name",
		},
	},
	TableChats: {
		defaultSort: "sent_at",
		columns: map[string]string{
			"chat_id": "c.chat_id",
			"from_id": "c.from_id",
			"to_id":   "c.to_id",
			"sent_at": "c.sent_at",
		},
	},
	TableCredits: {
		defaultSort: "created_at",
		columns: map[string]string{
			"credit_id":  "cr.credit_id",
			"partner_id": "cr.partner_id",
			"topup_id":   "cr.topup_id",
			"source":     "cr.source",
			"amount":     "cr.amount",
			"reference":  "cr.reference",
			"created_by": "cr.created_by",
			"created_at": "cr.created_at",
		},
	},
}

// Column resolves a logical field to its SQL expression. The second result is
// false for unknown tables or fields.
func Column(table, field string) (string, bool) {
	spec, ok := tables[table]
	if !ok {
		return "", false
	}
	expr, ok := spec.columns[strings.ToLower(strings.TrimSpace(field))]
	return expr, ok
}

// Fields lists the filterable fields of a table.
func Fields(table string) []string {
	spec := tables[table]
	fields := make([]string, 0, len(spec.columns))
	for field := range spec.columns {
		fields = append(fields, field)
	}
	return fields
}

func defaultSortColumn(table string) string {
	spec := tables[table]
	return spec.columns[spec.defaultSort]
}
