package commandbus

import (
	"context"
	"testing"

	"github.com/duskward/relay/internal/v1/relay"
	"github.com/stretchr/testify/assert"
)

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	reg := New("/")
	var gotArgs string
	var gotSender relay.ChatSender
	reg.Register("kick", func(ctx context.Context, sender relay.ChatSender, args string) {
		gotSender = sender
		gotArgs = args
	})

	handled := reg.Dispatch(context.Background(), relay.ChatSender{ID: 1}, "/kick bob reason")

	assert.True(t, handled)
	assert.Equal(t, "bob reason", gotArgs)
	assert.Equal(t, relay.PlayerID(1), gotSender.ID)
}

func TestDispatchIsCaseInsensitive(t *testing.T) {
	reg := New("/")
	called := false
	reg.Register("Kick", func(ctx context.Context, sender relay.ChatSender, args string) { called = true })

	handled := reg.Dispatch(context.Background(), relay.ChatSender{}, "/KICK bob")
	assert.True(t, handled)
	assert.True(t, called)
}

func TestDispatchReturnsFalseForPlainChat(t *testing.T) {
	reg := New("/")
	reg.Register("kick", func(ctx context.Context, sender relay.ChatSender, args string) {})

	assert.False(t, reg.Dispatch(context.Background(), relay.ChatSender{}, "hello everyone"))
}

func TestDispatchReturnsFalseForUnknownCommand(t *testing.T) {
	reg := New("/")
	assert.False(t, reg.Dispatch(context.Background(), relay.ChatSender{}, "/unknown args"))
}
