package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HammerMeetNail/splitledger/internal/database"
	"github.com/HammerMeetNail/splitledger/internal/ledger"
	"github.com/HammerMeetNail/splitledger/internal/logging"
	"github.com/HammerMeetNail/splitledger/internal/metrics"
	"github.com/HammerMeetNail/splitledger/internal/models"
)

const (
	statsKeyPrefix  = database.StatsKeyPrefix
	DefaultStatsTTL = 10 * time.Minute
)

// StatsService computes a user's monthly statistics and keeps a short-lived
// copy in redis. The cache is derived data; any cache error falls back to
// computing from the store.
type StatsService struct {
	db    DBConn
	cache RedisClient
	ttl   time.Duration
	now   func() time.Time
}

func NewStatsService(db DBConn, cache RedisClient, ttl time.Duration) *StatsService {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsService{db: db, cache: cache, ttl: ttl, now: time.Now}
}

func statsKey(userID string, asOf time.Time) string {
	return statsKeyPrefix + userID + ":" + asOf.Format("2006-01")
}

func (s *StatsService) GetStats(ctx context.Context, userID string) (*models.Stats, error) {
	if _, err := getUser(ctx, s.db, "id", userID); err != nil {
		return nil, err
	}

	asOf := s.now().UTC()
	key := statsKey(userID, asOf)

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	expenses, err := loadExpenses(ctx, s.db, ownedOrParticipated(userID))
	if err != nil {
		return nil, fmt.Errorf("loading expenses for stats: %w", err)
	}
	stats := ledger.ComputeStats(userID, expenses, asOf)

	if s.cache != nil {
		payload, err := json.Marshal(stats)
		if err == nil {
			err = s.cache.Set(ctx, key, payload, s.ttl)
		}
		if err != nil {
			logging.Warn("Failed to cache stats", map[string]interface{}{"error": err.Error(), "user_id": userID})
		}
	}
	return &stats, nil
}

func (s *StatsService) fromCache(ctx context.Context, key string) (*models.Stats, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		metrics.RecordStatsCache(false)
		return nil, false
	}
	var stats models.Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		logging.Warn("Discarding unreadable cached stats", map[string]interface{}{"error": err.Error(), "key": key})
		metrics.RecordStatsCache(false)
		return nil, false
	}
	metrics.RecordStatsCache(true)
	return &stats, true
}

// Invalidate drops the current month's cached stats for each user.
func (s *StatsService) Invalidate(ctx context.Context, userIDs ...string) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}
	asOf := s.now().UTC()
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = statsKey(id, asOf)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logging.Warn("Failed to invalidate stats cache", map[string]interface{}{"error": err.Error(), "keys": keys})
	}
}
