package mitra

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mitrahub/mitra/internal/cache"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const (
	dashboardStatsKey   = "dashboard:stats"
	dashboardStatsTTL   = 30 * time.Second
	defaultActivitySize = 3
)

// DashboardStats returns the headline numbers, served from cache when fresh.
func (m *Mitra) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	ctx, span := tracer.Start(ctx, "DashboardStats")
	defer span.End()

	var stats model.DashboardStats
	err := m.stats.Get(ctx, dashboardStatsKey, &stats)
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logrus.WithError(err).Warn("dashboard stats cache unavailable")
	}

	fresh, err := m.datasource.GetDashboardStats(ctx)
	if err != nil {
		return nil, logAndRecordError(span, "dashboard stats failed: ", err)
	}
	if err := m.stats.Set(ctx, dashboardStatsKey, fresh, dashboardStatsTTL); err != nil {
		logrus.WithError(err).Warn("failed to cache dashboard stats")
	}
	return fresh, nil
}

func (m *Mitra) invalidateDashboardStats(ctx context.Context) {
	if err := m.stats.Delete(ctx, dashboardStatsKey); err != nil {
		logrus.WithError(err).Warn("failed to invalidate dashboard stats")
	}
}

// RecentActivity returns the newest partners and top-ups.
func (m *Mitra) RecentActivity(ctx context.Context, limit int) (*model.RecentActivity, error) {
	ctx, span := tracer.Start(ctx, "RecentActivity")
	defer span.End()

	limit, _ = model.PageWindow(limit, 0, defaultActivitySize, maxListLimit)
	newest := &filter.QueryOptions{SortBy: "created_at", SortOrder: filter.SortDesc}

	partners, err := m.datasource.GetAllPartners(ctx, nil, newest, limit, 0)
	if err != nil {
		return nil, logAndRecordError(span, "recent partners failed: ", err)
	}
	topUps, err := m.datasource.GetAllTopUps(ctx, nil, newest, limit, 0)
	if err != nil {
		return nil, logAndRecordError(span, "recent top-ups failed: ", err)
	}
	return &model.RecentActivity{Partners: partners, TopUps: topUps}, nil
}
