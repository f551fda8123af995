package mitra

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitra/database/mocks"
	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

func TestSearchTerms(t *testing.T) {
	assert.Equal(t, []string{"budi", "bud", "santoso", "san"}, searchTerms("budi santoso"))
	assert.Equal(t, []string{"ani"}, searchTerms("ani ani"))
}

func TestRankByName(t *testing.T) {
	partners := []model.Partner{
		{PartnerID: "mtr_1", Name: "Siti Rahma"},
		{PartnerID: "mtr_2", Name: "Budiman"},
		{PartnerID: "mtr_3", Name: "Budi Santoso"},
		{PartnerID: "mtr_4", Name: "Bido"},
	}

	ranked := rankByName("budi", partners)
	require.Len(t, ranked, 4)
	assert.Equal(t, "mtr_3", ranked[0].PartnerID)
	assert.Equal(t, "mtr_2", ranked[1].PartnerID)
	assert.Equal(t, "mtr_4", ranked[2].PartnerID)
	assert.Equal(t, "mtr_1", ranked[3].PartnerID)
}

func TestSearchPartners(t *testing.T) {
	ds := new(mocks.MockDataSource)
	m, _ := newTestMitra(t, ds)

	ds.On("SearchPartnersByName", mock.Anything, []string{"budy", "bud"}, searchCandidates).Return([]model.Partner{
		{PartnerID: "mtr_1", Name: "Budyanto"},
		{PartnerID: "mtr_2", Name: "Budy"},
	}, nil)

	partners, err := m.SearchPartners(context.Background(), "  Budy ", 1)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "mtr_2", partners[0].PartnerID)
	ds.AssertExpectations(t)

	_, err = m.SearchPartners(context.Background(), "   ", 10)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidInput))
}

func TestListPartnersByVerification(t *testing.T) {
	ds := new(mocks.MockDataSource)
	m, _ := newTestMitra(t, ds)

	unverified := (&filter.QueryFilterSet{}).Add("verification_status", filter.OpEqual, "unverified")
	verified := (&filter.QueryFilterSet{}).Add("verification_status", filter.OpEqual, "verified")
	ds.On("GetAllPartners", mock.Anything, unverified, &filter.QueryOptions{SortBy: "created_at", SortOrder: filter.SortDesc}, verificationLimit, 0).
		Return([]model.Partner{{PartnerID: "mtr_new", Name: gofakeit.Name()}}, nil)
	ds.On("GetAllPartners", mock.Anything, verified, &filter.QueryOptions{SortBy: "name", SortOrder: filter.SortAsc}, verificationLimit, 0).
		Return([]model.Partner{{PartnerID: "mtr_a", Name: "Ani"}, {PartnerID: "mtr_b", Name: "Budi"}}, nil)

	pending, err := m.ListPartnersByVerification(context.Background(), model.PartnerUnverified)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	picker, err := m.ListPartnersByVerification(context.Background(), model.PartnerVerified)
	require.NoError(t, err)
	assert.Len(t, picker, 2)

	_, err = m.ListPartnersByVerification(context.Background(), "banned")
	assert.True(t, apierror.Is(err, apierror.ErrInvalidInput))
	ds.AssertExpectations(t)
}

func TestListPartners_ClampsWindow(t *testing.T) {
	ds := new(mocks.MockDataSource)
	m, _ := newTestMitra(t, ds)

	ds.On("GetAllPartners", mock.Anything, (*filter.QueryFilterSet)(nil), (*filter.QueryOptions)(nil), maxListLimit, 0).
		Return([]model.Partner{}, nil)

	partners, err := m.ListPartners(context.Background(), nil, nil, 5000, -3)
	require.NoError(t, err)
	assert.Empty(t, partners)
	ds.AssertExpectations(t)
}

func TestVerifyPartner(t *testing.T) {
	store := newMemStore()
	store.addPartner("mtr_1", gofakeit.Name(), 0, model.PartnerUnverified)
	m, _ := newTestMitra(t, store)

	partner, err := m.VerifyPartner(context.Background(), "mtr_1")
	require.NoError(t, err)
	assert.True(t, partner.IsVerified())

	_, err = m.VerifyPartner(context.Background(), "mtr_1")
	assert.True(t, apierror.Is(err, apierror.ErrConflict))

	_, err = m.VerifyPartner(context.Background(), "mtr_x")
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestDeletePartner(t *testing.T) {
	store := newMemStore()
	store.addPartner("mtr_1", gofakeit.Name(), 0, model.PartnerVerified)
	store.addPartner("mtr_2", gofakeit.Name(), 0, model.PartnerVerified)
	store.addTopUp("tp_1", "mtr_2", 10000)
	m, _ := newTestMitra(t, store)

	require.NoError(t, m.DeletePartner(context.Background(), "mtr_1"))
	_, err := m.GetPartner(context.Background(), "mtr_1")
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))

	err = m.DeletePartner(context.Background(), "mtr_2")
	assert.True(t, apierror.Is(err, apierror.ErrConflict))

	err = m.DeletePartner(context.Background(), "mtr_1")
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestListCredits(t *testing.T) {
	store := newMemStore()
	store.addPartner("mtr_1", gofakeit.Name(), 0, model.PartnerVerified)
	store.addTopUp("tp_1", "mtr_1", 30000)
	m, _ := newTestMitra(t, store)

	_, err := m.ApproveTopUp(context.Background(), "tp_1", "mtr_1", 30000, "root")
	require.NoError(t, err)
	_, err = m.ManualCredit(context.Background(), "mtr_1", 5000, "bonus", "root")
	require.NoError(t, err)

	credits, err := m.ListCredits(context.Background(), "mtr_1", 0, 0)
	require.NoError(t, err)
	require.Len(t, credits, 2)
	assert.Equal(t, model.CreditSourceManual, credits[0].Source)
	assert.Equal(t, model.CreditSourceTopUp, credits[1].Source)
	assert.Equal(t, "tp_1", credits[1].TopUpID)

	_, err = m.ListCredits(context.Background(), "mtr_x", 0, 0)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}
