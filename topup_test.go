package mitra

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitra/database/mocks"
	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

func TestListPendingTopUps(t *testing.T) {
	store := newMemStore()
	store.addPartner("mtr_1", "Budi", 0, model.PartnerVerified)
	store.addTopUp("tp_1", "mtr_1", 10000)
	store.addTopUp("tp_2", "mtr_1", 20000)
	m, _ := newTestMitra(t, store)
	ctx := context.Background()

	_, err := m.RejectTopUp(ctx, "tp_1", "", "root")
	require.NoError(t, err)

	pending, err := m.ListPendingTopUps(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "tp_2", pending[0].TopUpID)

	topUp, err := m.GetTopUp(ctx, "tp_1")
	require.NoError(t, err)
	assert.Equal(t, model.TopUpRejected, topUp.Status)

	_, err = m.GetTopUp(ctx, "tp_x")
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestListPendingTopUps_Pages(t *testing.T) {
	store := newMemStore()
	store.addPartner("mtr_1", "Budi", 0, model.PartnerVerified)
	for i := 1; i <= 5; i++ {
		store.addTopUp(fmt.Sprintf("tp_%d", i), "mtr_1", int64(i)*10000)
	}
	m, _ := newTestMitra(t, store)
	ctx := context.Background()

	seen := map[string]bool{}
	for offset := 0; offset < 6; offset += 2 {
		page, err := m.ListPendingTopUps(ctx, 2, offset)
		require.NoError(t, err)
		for _, tp := range page {
			assert.False(t, seen[tp.TopUpID], "top-up %s listed twice", tp.TopUpID)
			seen[tp.TopUpID] = true
		}
	}
	assert.Len(t, seen, 5)

	last, err := m.ListPendingTopUps(ctx, 2, 4)
	require.NoError(t, err)
	assert.Len(t, last, 1)
}

func TestListPendingTopUps_CapsPageSize(t *testing.T) {
	ds := new(mocks.MockDataSource)
	m, _ := newTestMitra(t, ds)

	ds.On("GetAllTopUps", mock.Anything, mock.MatchedBy(func(f *filter.QueryFilterSet) bool {
		return f.Len() == 1 && f.Filters[0].Field == "status"
	}), &filter.QueryOptions{SortBy: "created_at", SortOrder: filter.SortDesc}, maxListLimit, 300).
		Return([]model.TopUp{}, nil)

	_, err := m.ListPendingTopUps(context.Background(), 5000, 300)
	require.NoError(t, err)
	ds.AssertExpectations(t)
}

func TestListTopUps_PassesFilters(t *testing.T) {
	ds := new(mocks.MockDataSource)
	m, _ := newTestMitra(t, ds)

	filters := (&filter.QueryFilterSet{}).Add("amount", filter.OpGreaterThanOrEqual, int64(50000))
	ds.On("GetAllTopUps", mock.Anything, filters, (*filter.QueryOptions)(nil), defaultListLimit, 40).
		Return([]model.TopUp{{TopUpID: "tp_9", Amount: 75000}}, nil)

	topUps, err := m.ListTopUps(context.Background(), filters, nil, 0, 40)
	require.NoError(t, err)
	assert.Len(t, topUps, 1)
	ds.AssertExpectations(t)
}

func TestListInvoices(t *testing.T) {
	ds := new(mocks.MockDataSource)
	m, _ := newTestMitra(t, ds)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ds.On("GetInvoices", mock.Anything, model.InvoiceFilter{PartnerID: "mtr_1", From: &from, Limit: maxListLimit, Offset: 0}).
		Return([]model.Invoice{{InvoiceID: "inv_1", Total: 75000}}, nil)

	invoices, err := m.ListInvoices(context.Background(), model.InvoiceFilter{PartnerID: "mtr_1", From: &from, Limit: 1000, Offset: -1})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(75000), invoices[0].Total)
	ds.AssertExpectations(t)
}
