package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ErrCacheMiss is returned when a key is absent or the cache is unavailable.
var ErrCacheMiss = errors.New("cache miss")

// CacheService fronts Redis for read-mostly payloads: standings, scorecards,
// auction pool listings. Redis is optional; every caller must tolerate
// ErrCacheMiss and fall through to the database. A circuit breaker stops
// hammering a dead Redis.
type CacheService struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

func NewCacheService(client *redis.Client, log *logrus.Logger) *CacheService {
	settings := gobreaker.Settings{
		Name:    "redis-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).
				Warn("Cache circuit breaker state change")
		},
	}
	return &CacheService{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// Set stores a JSON-encoded value. Failures are swallowed after logging;
// the cache is never load-bearing.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, key, data, expiration).Err()
	})
	if err != nil {
		s.log.WithError(err).WithField("key", key).Debug("Cache set failed")
	}
	return nil
}

// Get loads a key into dest. Returns ErrCacheMiss when absent, the breaker
// is open, or Redis is unreachable.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if s.client == nil {
		return ErrCacheMiss
	}
	result, err := s.breaker.Execute(func() (interface{}, error) {
		data, err := s.client.Get(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		if err != redis.Nil {
			s.log.WithError(err).WithField("key", key).Debug("Cache get failed")
		}
		return ErrCacheMiss
	}

	if err := json.Unmarshal([]byte(result.(string)), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// Delete drops keys, typically on the write path after a state change.
func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if s.client == nil || len(keys) == 0 {
		return nil
	}
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		s.log.WithError(err).Debug("Cache delete failed")
	}
	return nil
}

// Cache key builders

func StandingsCacheKey(careerID uint) string {
	return fmt.Sprintf("standings:%d", careerID)
}

func FixturesCacheKey(careerID uint) string {
	return fmt.Sprintf("fixtures:%d", careerID)
}

func AuctionPoolCacheKey(careerID uint) string {
	return fmt.Sprintf("auction_pool:%d", careerID)
}

func ScorecardCacheKey(matchID uint) string {
	return fmt.Sprintf("scorecard:%d", matchID)
}

func LeaderboardCacheKey(seasonID uint, kind string) string {
	return fmt.Sprintf("leaderboard:%d:%s", seasonID, kind)
}
