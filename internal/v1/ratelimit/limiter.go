// Package ratelimit guards the two places a hostile or misbehaving
// client can cheaply exhaust server resources: repeated login attempts
// from one address, and a flood of entity/player updates from one
// already-admitted player.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/duskward/relay/internal/v1/config"
	"github.com/duskward/relay/internal/v1/logging"
	"github.com/duskward/relay/internal/v1/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Limiter holds the two rate limiter instances the relay needs.
type Limiter struct {
	loginPerIP     *limiter.Limiter
	updatePerPlayer *limiter.Limiter
	store          limiter.Store
}

// New builds a Limiter backed by Redis when redisClient is non-nil, and
// by an in-process memory store otherwise (single-instance/dev mode).
func New(cfg *config.Config, redisClient *redis.Client) (*Limiter, error) {
	loginRate, err := limiter.NewRateFromFormatted(cfg.RateLimitLoginPerIP)
	if err != nil {
		return nil, fmt.Errorf("invalid login rate limit: %w", err)
	}
	updateRate, err := limiter.NewRateFromFormatted(cfg.RateLimitUpdatePerPlayer)
	if err != nil {
		return nil, fmt.Errorf("invalid update rate limit: %w", err)
	}

	var store limiter.Store
	if redisClient != nil {
		s, err := sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "relay:limiter:"})
		if err != nil {
			return nil, fmt.Errorf("create redis rate limit store: %w", err)
		}
		store = s
		logging.GetLogger().Info("rate limiter using Redis store")
	} else {
		store = memory.NewStore()
		logging.GetLogger().Warn("rate limiter using in-memory store (single instance only)")
	}

	return &Limiter{
		loginPerIP:      limiter.New(store, loginRate),
		updatePerPlayer: limiter.New(store, updateRate),
		store:           store,
	}, nil
}

// CheckLogin enforces the per-IP login attempt budget, ahead of
// admission evaluation. Fails open on store errors: availability wins
// over strictness for a budget this cheap to exhaust legitimately.
func (l *Limiter) CheckLogin(ctx context.Context, remoteAddr string) bool {
	lc, err := l.loginPerIP.Get(ctx, remoteAddr)
	if err != nil {
		logging.GetLogger().Sugar().Warnw("login rate limit store failed, allowing request", "error", err)
		return true
	}
	if lc.Reached {
		metrics.RateLimitExceeded.WithLabelValues("login").Inc()
		return false
	}
	metrics.RateLimitAllowed.WithLabelValues("login").Inc()
	return true
}

// CheckUpdate consumes one unit of playerKey's per-player update-flood
// budget and reports whether it was still within budget. The relay's
// inbound frame dispatch does not call it.
func (l *Limiter) CheckUpdate(ctx context.Context, playerKey string) bool {
	lc, err := l.updatePerPlayer.Get(ctx, playerKey)
	if err != nil {
		logging.GetLogger().Sugar().Warnw("update rate limit store failed, allowing request", "error", err)
		return true
	}
	if lc.Reached {
		metrics.RateLimitExceeded.WithLabelValues("update").Inc()
		return false
	}
	metrics.RateLimitAllowed.WithLabelValues("update").Inc()
	return true
}
