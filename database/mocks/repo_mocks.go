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
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

// MockDataSource is a mock implementation of the IDataSource interface.
// Nil results may be returned as untyped nil from Return.
type MockDataSource struct {
	mock.Mock
}

// Partner methods

func (m *MockDataSource) GetPartnerByID(ctx context.Context, id string) (*model.Partner, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Partner)
	return p, args.Error(1)
}

func (m *MockDataSource) GetAllPartners(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.Partner, error) {
	args := m.Called(ctx, filters, opts, limit, offset)
	p, _ := args.Get(0).([]model.Partner)
	return p, args.Error(1)
}

func (m *MockDataSource) SearchPartnersByName(ctx context.Context, terms []string, limit int) ([]model.Partner, error) {
	args := m.Called(ctx, terms, limit)
	p, _ := args.Get(0).([]model.Partner)
	return p, args.Error(1)
}

func (m *MockDataSource) VerifyPartner(ctx context.Context, id string) (*model.Partner, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Partner)
	return p, args.Error(1)
}

func (m *MockDataSource) DeletePartner(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Top-up methods

func (m *MockDataSource) GetTopUp(ctx context.Context, id string) (*model.TopUp, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.TopUp)
	return t, args.Error(1)
}

func (m *MockDataSource) GetAllTopUps(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.TopUp, error) {
	args := m.Called(ctx, filters, opts, limit, offset)
	t, _ := args.Get(0).([]model.TopUp)
	return t, args.Error(1)
}

func (m *MockDataSource) ApproveTopUp(ctx context.Context, settlement model.Settlement) (*model.TopUp, *model.Credit, error) {
	args := m.Called(ctx, settlement)
	t, _ := args.Get(0).(*model.TopUp)
	c, _ := args.Get(1).(*model.Credit)
	return t, c, args.Error(2)
}

func (m *MockDataSource) RejectTopUp(ctx context.Context, id, reason, actor string) (*model.TopUp, error) {
	args := m.Called(ctx, id, reason, actor)
	t, _ := args.Get(0).(*model.TopUp)
	return t, args.Error(1)
}

// Credit methods

func (m *MockDataSource) CreditPartner(ctx context.Context, credit model.ManualCredit) (*model.Credit, error) {
	args := m.Called(ctx, credit)
	c, _ := args.Get(0).(*model.Credit)
	return c, args.Error(1)
}

func (m *MockDataSource) GetCredits(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.Credit, error) {
	args := m.Called(ctx, filters, opts, limit, offset)
	c, _ := args.Get(0).([]model.Credit)
	return c, args.Error(1)
}

// Chat methods

func (m *MockDataSource) GetChatMessages(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, filters, opts, limit, offset)
	c, _ := args.Get(0).([]model.ChatMessage)
	return c, args.Error(1)
}

func (m *MockDataSource) GetConversation(ctx context.Context, partnerID string, limit, offset int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, partnerID, limit, offset)
	c, _ := args.Get(0).([]model.ChatMessage)
	return c, args.Error(1)
}

func (m *MockDataSource) CreateChatMessage(ctx context.Context, message model.ChatMessage) (*model.ChatMessage, error) {
	args := m.Called(ctx, message)
	c, _ := args.Get(0).(*model.ChatMessage)
	return c, args.Error(1)
}

// Invoice methods

func (m *MockDataSource) GetInvoices(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, error) {
	args := m.Called(ctx, f)
	i, _ := args.Get(0).([]model.Invoice)
	return i, args.Error(1)
}

// Admin methods

func (m *MockDataSource) CreateAdmin(ctx context.Context, admin model.AdminCredential) (*model.AdminCredential, error) {
	args := m.Called(ctx, admin)
	a, _ := args.Get(0).(*model.AdminCredential)
	return a, args.Error(1)
}

func (m *MockDataSource) GetAdminByUsername(ctx context.Context, username string) (*model.AdminCredential, error) {
	args := m.Called(ctx, username)
	a, _ := args.Get(0).(*model.AdminCredential)
	return a, args.Error(1)
}

func (m *MockDataSource) UpdateAdminPassword(ctx context.Context, username, passwordHash string) error {
	args := m.Called(ctx, username, passwordHash)
	return args.Error(0)
}

func (m *MockDataSource) CountAdmins(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Dashboard methods

func (m *MockDataSource) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*model.DashboardStats)
	return s, args.Error(1)
}
