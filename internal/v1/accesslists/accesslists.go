// Package accesslists implements relay.AccessLists over Redis sets, so
// ban/whitelist/pre-list membership survives a restart and is shared
// across a horizontally-scaled deployment, the same role bus.Service
// plays for pub/sub.
package accesslists

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duskward/relay/internal/v1/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	bannedSetKey    = "relay:accesslist:banned"
	whitelistSetKey = "relay:accesslist:whitelist"
	preListSetKey   = "relay:accesslist:prelist"
)

// Service is a Redis-backed, circuit-broken relay.AccessLists
// implementation.
type Service struct {
	client           *redis.Client
	cb               *gobreaker.CircuitBreaker
	whitelistEnabled bool
}

// NewService connects to Redis and wraps every call in a circuit
// breaker, the same pattern bus.Service uses for pub/sub.
func NewService(addr, password string, whitelistEnabled bool) (*Service, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "accesslists",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			var stateVal float64
			switch to {
			case gobreaker.StateClosed:
				stateVal = 0
			case gobreaker.StateOpen:
				stateVal = 1
			case gobreaker.StateHalfOpen:
				stateVal = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("accesslists").Set(stateVal)
		},
	}

	slog.Info("accesslists connected to Redis", "addr", addr)
	return &Service{
		client:           rdb,
		cb:               gobreaker.NewCircuitBreaker(st),
		whitelistEnabled: whitelistEnabled,
	}, nil
}

// WhitelistEnabled reports the server's fixed whitelist-gating toggle.
func (s *Service) WhitelistEnabled() bool { return s.whitelistEnabled }

// IsBanned reports whether remoteAddr or authKey is present in the
// Redis ban set. A circuit-open or transient Redis error degrades to
// "not banned" rather than locking every player out.
func (s *Service) IsBanned(ctx context.Context, remoteAddr, authKey string) (bool, error) {
	for _, member := range []string{remoteAddr, authKey} {
		if member == "" {
			continue
		}
		ok, err := s.isMember(ctx, bannedSetKey, member)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// IsWhitelisted reports whether authKey is present in the whitelist set.
func (s *Service) IsWhitelisted(ctx context.Context, authKey string) (bool, error) {
	return s.isMember(ctx, whitelistSetKey, authKey)
}

// IsPreListed reports whether username is present in the pre-list set.
func (s *Service) IsPreListed(ctx context.Context, username string) (bool, error) {
	return s.isMember(ctx, preListSetKey, username)
}

// PromoteFromPreList moves authKey into the whitelist and removes
// username from the pre-list. Best-effort: a circuit-open Redis drops
// the promotion rather than failing the login it accompanies.
func (s *Service) PromoteFromPreList(ctx context.Context, username, authKey string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		pipe := s.client.TxPipeline()
		pipe.SAdd(ctx, whitelistSetKey, authKey)
		pipe.SRem(ctx, preListSetKey, username)
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	return s.degrade(ctx, "promote_from_prelist", err)
}

// Ban adds remoteAddrOrKey to the ban set, used by the admin surface's
// ban operation.
func (s *Service) Ban(ctx context.Context, remoteAddrOrKey string) error {
	return s.add(ctx, bannedSetKey, "ban", remoteAddrOrKey)
}

// Unban removes remoteAddrOrKey from the ban set.
func (s *Service) Unban(ctx context.Context, remoteAddrOrKey string) error {
	return s.remove(ctx, bannedSetKey, "unban", remoteAddrOrKey)
}

// Whitelist adds authKey to the whitelist set.
func (s *Service) Whitelist(ctx context.Context, authKey string) error {
	return s.add(ctx, whitelistSetKey, "whitelist", authKey)
}

// PreList adds username to the pre-list set, used by the admin
// surface's pre-authorize operation ahead of a player's first login.
func (s *Service) PreList(ctx context.Context, username string) error {
	return s.add(ctx, preListSetKey, "prelist", username)
}

func (s *Service) isMember(ctx context.Context, key, member string) (bool, error) {
	if member == "" {
		return false, nil
	}
	start := time.Now()
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.client.SIsMember(ctx, key, member).Result()
	})
	metrics.RedisOperationDuration.WithLabelValues("sismember").Observe(time.Since(start).Seconds())
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("accesslists").Inc()
			slog.Warn("accesslists circuit open, defaulting membership check to false", "key", key)
			return false, nil
		}
		metrics.RedisOperationsTotal.WithLabelValues("sismember", "error").Inc()
		return false, fmt.Errorf("accesslists: check membership in %s: %w", key, err)
	}
	metrics.RedisOperationsTotal.WithLabelValues("sismember", "ok").Inc()
	return res.(bool), nil
}

func (s *Service) add(ctx context.Context, key, op, member string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.SAdd(ctx, key, member).Err()
	})
	return s.degrade(ctx, op, err)
}

func (s *Service) remove(ctx context.Context, key, op, member string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.SRem(ctx, key, member).Err()
	})
	return s.degrade(ctx, op, err)
}

func (s *Service) degrade(ctx context.Context, op string, err error) error {
	if err == nil {
		metrics.RedisOperationsTotal.WithLabelValues(op, "ok").Inc()
		return nil
	}
	if err == gobreaker.ErrOpenState {
		metrics.CircuitBreakerFailures.WithLabelValues("accesslists").Inc()
		slog.Warn("accesslists circuit open, dropping write", "op", op)
		return nil
	}
	metrics.RedisOperationsTotal.WithLabelValues(op, "error").Inc()
	return fmt.Errorf("accesslists: %s: %w", op, err)
}

// Close releases the underlying Redis connection.
func (s *Service) Close() error {
	return s.client.Close()
}
