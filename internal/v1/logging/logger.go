// Package logging provides the relay's process-wide structured logger,
// built on zap, and the context keys used to thread correlation,
// player, and scene identifiers through log lines without plumbing
// them through every function signature.
package logging

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

type contextKey string

const (
	CorrelationIDKey contextKey = "correlation_id"
	PlayerIDKey      contextKey = "player_id"
	SceneIDKey       contextKey = "scene_id"
)

// Initialize builds the global logger. development selects a
// human-readable console encoder; production selects JSON.
func Initialize(development bool) {
	loggerOnce.Do(func() {
		var err error
		if development {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			logger = zap.NewNop()
		}
	})
}

// GetLogger returns the global logger, initializing a no-op logger if
// Initialize was never called.
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Adapter implements relay.Logger over the global zap logger,
// translating the generic ...any field list callers pass into zap's
// strongly typed fields.
type Adapter struct{}

func (Adapter) Info(ctx context.Context, msg string, fields ...any) {
	GetLogger().Info(msg, appendContextFields(ctx, fields)...)
}

func (Adapter) Warn(ctx context.Context, msg string, fields ...any) {
	GetLogger().Warn(msg, appendContextFields(ctx, fields)...)
}

func (Adapter) Error(ctx context.Context, msg string, fields ...any) {
	GetLogger().Error(msg, appendContextFields(ctx, fields)...)
}

// appendContextFields pulls correlation/player/scene ids out of ctx and
// turns the caller's key-value pairs (alternating string key, any
// value) into zap.Field values.
func appendContextFields(ctx context.Context, kvs []any) []zap.Field {
	fields := make([]zap.Field, 0, len(kvs)/2+4)
	fields = append(fields, zap.String("service", "relay"))

	if ctx != nil {
		if v, ok := ctx.Value(CorrelationIDKey).(string); ok && v != "" {
			fields = append(fields, zap.String("correlation_id", v))
		}
		if v, ok := ctx.Value(PlayerIDKey).(string); ok && v != "" {
			fields = append(fields, zap.String("player_id", v))
		}
		if v, ok := ctx.Value(SceneIDKey).(string); ok && v != "" {
			fields = append(fields, zap.String("scene_id", v))
		}
	}

	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, kvs[i+1]))
	}
	return fields
}
