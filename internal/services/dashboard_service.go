package services

import (
	"context"
	"encoding/json"
	"time"

	"skyroute-backend/internal/auth"
	"skyroute-backend/internal/cache"
	"skyroute-backend/internal/models"
	"skyroute-backend/internal/timeutil"
	"skyroute-backend/pkg/logger"
)

const (
	// LogisticLifetime is how long a logistic entry stays valid after creation
	LogisticLifetime = 48 * time.Hour
	// ExpiryWarning marks a logistic entry as expiring soon
	ExpiryWarning = 12 * time.Hour

	dashboardRecent   = 20
	dashboardCacheTTL = 60 * time.Second
)

// LogisticExpiry returns when a logistic entry expires.
func LogisticExpiry(e *models.Entry) time.Time {
	return e.CreatedAt.Add(LogisticLifetime)
}

type StatsStore interface {
	Stats(ctx context.Context, dayStart, expiringFrom, expiringTo time.Time) (*models.DashboardStats, error)
	List(ctx context.Context, f models.EntryFilter) ([]*models.Entry, error)
}

// StatsCache is satisfied by *cache.Client.
type StatsCache interface {
	GetCached(ctx context.Context, key string) ([]byte, bool)
	SetCached(ctx context.Context, key string, data []byte, ttl time.Duration)
	InvalidateKeys(ctx context.Context, keys ...string)
}

type DashboardService struct {
	store StatsStore
	cache StatsCache
	log   logger.Logger
	now   func() time.Time
}

func NewDashboardService(store StatsStore, c StatsCache, log logger.Logger) *DashboardService {
	return &DashboardService{store: store, cache: c, log: log, now: timeutil.Now}
}

// Get returns the counters and the most recent entries.
func (s *DashboardService) Get(ctx context.Context, sess *auth.Session) (*models.Dashboard, error) {
	if !sess.Valid() {
		return nil, unauthorized()
	}

	stats, err := s.stats(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.List(ctx, models.EntryFilter{Limit: dashboardRecent})
	if err != nil {
		return nil, storeError("failed to fetch recent entries", err)
	}

	return &models.Dashboard{Stats: *stats, Entries: recent}, nil
}

func (s *DashboardService) stats(ctx context.Context) (*models.DashboardStats, error) {
	if data, ok := s.cache.GetCached(ctx, cache.DashboardStatsKey); ok {
		var cached models.DashboardStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	now := s.now()
	stats, err := s.store.Stats(ctx,
		timeutil.StartOfDay(now),
		now.Add(-LogisticLifetime),
		now.Add(-(LogisticLifetime - ExpiryWarning)),
	)
	if err != nil {
		return nil, storeError("failed to compute dashboard stats", err)
	}

	if data, err := json.Marshal(stats); err == nil {
		s.cache.SetCached(ctx, cache.DashboardStatsKey, data, dashboardCacheTTL)
	}
	return stats, nil
}

// EntryChanged drops cached counters after a create or delete.
func (s *DashboardService) EntryChanged(ctx context.Context, event string, e *models.Entry) {
	s.cache.InvalidateKeys(ctx, cache.DashboardStatsKey)
	s.log.Debug("dashboard cache invalidated", "event", event, "entry_id", e.ID)
}
