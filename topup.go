package mitra

import (
	"context"

	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

// ListTopUps returns top-up requests with their partner, newest first by default.
func (m *Mitra) ListTopUps(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.TopUp, error) {
	ctx, span := tracer.Start(ctx, "ListTopUps")
	defer span.End()

	limit, offset = model.PageWindow(limit, offset, defaultListLimit, maxListLimit)
	topUps, err := m.datasource.GetAllTopUps(ctx, filters, opts, limit, offset)
	if err != nil {
		return nil, logAndRecordError(span, "list top-ups failed: ", err)
	}
	return topUps, nil
}

// ListPendingTopUps returns one page of the requests still waiting for a
// decision, newest first. Callers page with offset until a short page.
func (m *Mitra) ListPendingTopUps(ctx context.Context, limit, offset int) ([]model.TopUp, error) {
	ctx, span := tracer.Start(ctx, "ListPendingTopUps")
	defer span.End()

	limit, offset = model.PageWindow(limit, offset, maxListLimit, maxListLimit)
	filters := (&filter.QueryFilterSet{}).Add("status", filter.OpEqual, string(model.TopUpPending))
	topUps, err := m.datasource.GetAllTopUps(ctx, filters, &filter.QueryOptions{SortBy: "created_at", SortOrder: filter.SortDesc}, limit, offset)
	if err != nil {
		return nil, logAndRecordError(span, "list pending top-ups failed: ", err)
	}
	return topUps, nil
}

func (m *Mitra) GetTopUp(ctx context.Context, id string) (*model.TopUp, error) {
	return m.datasource.GetTopUp(ctx, id)
}
