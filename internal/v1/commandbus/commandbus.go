// Package commandbus implements relay.CommandBus as a name-keyed
// registry of chat command handlers, parsing the leading "/name"
// token out of a chat message and dispatching the remainder to
// whichever handler registered that name.
package commandbus

import (
	"context"
	"strings"
	"sync"

	"github.com/duskward/relay/internal/v1/relay"
)

// Handler executes one recognized command. args is the text following
// the command name, with surrounding whitespace trimmed.
type Handler func(ctx context.Context, sender relay.ChatSender, args string)

// Registry is a concurrency-safe name-to-Handler table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	prefix   string
}

// New returns an empty registry. prefix is the leading character that
// marks a chat message as a command attempt (conventionally "/").
func New(prefix string) *Registry {
	return &Registry{handlers: make(map[string]Handler), prefix: prefix}
}

// Register associates name (case-insensitive, without the prefix) with
// handler, overwriting any previous registration.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(name)] = handler
}

// Dispatch implements relay.CommandBus: text that doesn't start with
// the registry's prefix, or whose leading token matches no registered
// handler, is reported as unhandled so the caller falls through to a
// plain chat broadcast.
func (r *Registry) Dispatch(ctx context.Context, sender relay.ChatSender, text string) bool {
	if !strings.HasPrefix(text, r.prefix) {
		return false
	}
	body := strings.TrimPrefix(text, r.prefix)
	name, args, _ := strings.Cut(body, " ")

	r.mu.RLock()
	handler, ok := r.handlers[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	handler(ctx, sender, strings.TrimSpace(args))
	return true
}
