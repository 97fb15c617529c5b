// Package bus mirrors scene membership and entity-cache updates across
// relay processes over Redis pub/sub, so a horizontally scaled
// deployment can run multiple relay instances behind a load balancer
// without every player of a scene landing on the same process.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/duskward/relay/internal/v1/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Envelope is the wire container for a mirrored event moving between
// relay processes.
type Envelope struct {
	SceneID  string          `json:"sceneId"`
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
	SenderID string          `json:"senderId"`
}

// Service handles all interaction with the Redis cluster used for
// cross-process mirroring.
type Service struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// Client returns the underlying Redis client.
func (s *Service) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// NewService creates a Redis connection guarded by a circuit breaker.
func NewService(addr, password string) (*Service, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "redis",
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
			metrics.CircuitBreakerState.WithLabelValues("redis").Set(stateVal)
		},
	}

	slog.Info("connected to Redis pub/sub", "addr", addr)
	return &Service{client: rdb, cb: gobreaker.NewCircuitBreaker(st)}, nil
}

// Publish broadcasts an event to every other relay process mirroring
// this scene.
func (s *Service) Publish(ctx context.Context, sceneID, event string, payload any, senderID string) error {
	if s == nil || s.client == nil {
		return nil
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		innerBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal inner payload: %w", err)
		}

		env := Envelope{SceneID: sceneID, Event: event, Payload: innerBytes, SenderID: senderID}
		data, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("marshal envelope: %w", err)
		}

		channel := fmt.Sprintf("relay:scene:%s", sceneID)
		return nil, s.client.Publish(ctx, channel, data).Err()
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
			slog.Warn("redis circuit breaker open: dropping publish", "sceneId", sceneID)
			return nil
		}
		slog.Error("redis publish failed", "sceneId", sceneID, "error", err)
		return err
	}
	return nil
}

// Subscribe starts a background goroutine that delivers every mirrored
// event published on sceneID's channel to handler, until ctx is
// canceled. Events are not filtered by sender, so this process's own
// publishes are delivered too.
func (s *Service) Subscribe(ctx context.Context, sceneID string, wg *sync.WaitGroup, handler func(Envelope)) {
	if s == nil || s.client == nil {
		return
	}

	channel := fmt.Sprintf("relay:scene:%s", sceneID)
	pubsub := s.client.Subscribe(ctx, channel)

	if wg != nil {
		wg.Add(1)
	}
	go func() {
		defer pubsub.Close()
		if wg != nil {
			defer wg.Done()
		}

		slog.Info("subscribed to scene mirror channel", "channel", channel)
		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					slog.Warn("redis subscription channel closed", "channel", channel)
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					slog.Error("failed to unmarshal mirrored event", "error", err)
					continue
				}
				handler(env)
			}
		}
	}()
}

// Ping checks Redis connectivity.
func (s *Service) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis").Inc()
		}
		return err
	}
	return nil
}

// Close shuts down the Redis connection.
func (s *Service) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
