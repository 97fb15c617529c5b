package ratelimit

import (
	"context"
	"testing"

	"github.com/duskward/relay/internal/v1/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, loginRate, updateRate string) *Limiter {
	cfg := &config.Config{
		RateLimitLoginPerIP:      loginRate,
		RateLimitUpdatePerPlayer: updateRate,
	}
	l, err := New(cfg, nil)
	require.NoError(t, err)
	return l
}

func TestCheckLoginAllowsWithinBudget(t *testing.T) {
	l := newTestLimiter(t, "2-M", "100-M")
	ctx := context.Background()

	assert.True(t, l.CheckLogin(ctx, "1.2.3.4"))
	assert.True(t, l.CheckLogin(ctx, "1.2.3.4"))
}

func TestCheckLoginRejectsOverBudget(t *testing.T) {
	l := newTestLimiter(t, "1-M", "100-M")
	ctx := context.Background()

	assert.True(t, l.CheckLogin(ctx, "1.2.3.4"))
	assert.False(t, l.CheckLogin(ctx, "1.2.3.4"))
}

func TestCheckLoginTracksEachIPIndependently(t *testing.T) {
	l := newTestLimiter(t, "1-M", "100-M")
	ctx := context.Background()

	assert.True(t, l.CheckLogin(ctx, "1.2.3.4"))
	assert.True(t, l.CheckLogin(ctx, "5.6.7.8"))
}

func TestCheckUpdateRejectsFloodFromOnePlayer(t *testing.T) {
	l := newTestLimiter(t, "100-M", "1-M")
	ctx := context.Background()

	assert.True(t, l.CheckUpdate(ctx, "player-1"))
	assert.False(t, l.CheckUpdate(ctx, "player-1"))
}
