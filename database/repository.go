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

package database

import (
	"context"

	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	partner   // Interface for partner-related operations
	topUp     // Interface for top-up requests and their settlement
	credit    // Interface for balance credits
	chat      // Interface for chat messages
	invoice   // Interface for invoices
	admin     // Interface for administrator credentials
	dashboard // Interface for aggregate dashboard queries
}

// partner defines methods for handling partner accounts.
type partner interface {
	GetPartnerByID(ctx context.Context, id string) (*model.Partner, error)
	GetAllPartners(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.Partner, error)
	SearchPartnersByName(ctx context.Context, terms []string, limit int) ([]model.Partner, error) // ILIKE prefilter, ranking is done by the caller
	VerifyPartner(ctx context.Context, id string) (*model.Partner, error)                         // Conditional unverified -> verified
	DeletePartner(ctx context.Context, id string) error
}

// topUp defines methods for handling top-up requests.
type topUp interface {
	GetTopUp(ctx context.Context, id string) (*model.TopUp, error)
	GetAllTopUps(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.TopUp, error)
	ApproveTopUp(ctx context.Context, settlement model.Settlement) (*model.TopUp, *model.Credit, error) // Marks approved and credits the partner in one transaction
	RejectTopUp(ctx context.Context, id, reason, actor string) (*model.TopUp, error)                   // Marks rejected if still pending
}

// credit defines methods for handling balance credits.
type credit interface {
	CreditPartner(ctx context.Context, credit model.ManualCredit) (*model.Credit, error)
	GetCredits(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.Credit, error)
}

// chat defines methods for handling chat messages.
type chat interface {
	GetChatMessages(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.ChatMessage, error)
	GetConversation(ctx context.Context, partnerID string, limit, offset int) ([]model.ChatMessage, error) // Newest page, ascending by sent_at
	CreateChatMessage(ctx context.Context, message model.ChatMessage) (*model.ChatMessage, error)
}

// invoice defines methods for handling invoices.
type invoice interface {
	GetInvoices(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, error)
}

// admin defines methods for handling administrator credentials.
type admin interface {
	CreateAdmin(ctx context.Context, admin model.AdminCredential) (*model.AdminCredential, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.AdminCredential, error)
	UpdateAdminPassword(ctx context.Context, username, passwordHash string) error
	CountAdmins(ctx context.Context) (int64, error)
}

// dashboard defines aggregate queries.
type dashboard interface {
	GetDashboardStats(ctx context.Context) (*model.DashboardStats, error)
}
