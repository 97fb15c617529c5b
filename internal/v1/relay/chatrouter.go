package relay

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
)

// MaxMessageLength bounds a single server-originated broadcast message.
const MaxMessageLength = 1000

// maxChatHistory caps the in-memory chat log.
const maxChatHistory = 200

// ChatSender describes the player who sent a ChatMessage frame to a
// CommandBus, carrying everything a command handler needs without
// exposing the full manager.
type ChatSender struct {
	ID           PlayerID
	IsAuthorized bool
	Outbox       UpdateBuilder
}

// CommandBus is the external collaborator that parses and dispatches
// chat commands. A minimal registry-based reference implementation
// lives in internal/v1/commandbus.
type CommandBus interface {
	// Dispatch attempts to handle text as a command from sender,
	// reporting whether it was recognized and handled.
	Dispatch(ctx context.Context, sender ChatSender, text string) (handled bool)
}

// ChatRouter routes inbound chat to the command dispatcher, the
// cancelable chat event bus, or a plain broadcast, validating outside
// the lock and mutating/broadcasting inside it.
type ChatRouter struct {
	mu        sync.Mutex
	sessions  *SessionTable
	transport Transport
	logger    Logger
	commands  CommandBus
	events    *ChatEventBus
	authorized AuthorizedKeys
	history   *list.List
}

// AuthorizedKeys reports whether an authKey carries elevated command
// privileges.
type AuthorizedKeys interface {
	IsAuthorized(ctx context.Context, authKey string) (bool, error)
}

// NewChatRouter wires the router to its collaborators. events may be
// nil, in which case no subscriber ever cancels a chat message.
func NewChatRouter(sessions *SessionTable, transport Transport, logger Logger, commands CommandBus, authorized AuthorizedKeys, events *ChatEventBus) *ChatRouter {
	if events == nil {
		events = NewChatEventBus(nil)
	}
	return &ChatRouter{
		sessions:   sessions,
		transport:  transport,
		logger:     logger,
		commands:   commands,
		authorized: authorized,
		events:     events,
		history:    list.New(),
	}
}

// HandleChatMessage runs the inbound chat path: command dispatch first,
// then a cancelable PlayerChatEvent, then a plain broadcast to every
// active record including the sender.
func (c *ChatRouter) HandleChatMessage(ctx context.Context, senderID PlayerID, text string) {
	sender := c.sessions.Get(senderID)
	if sender == nil {
		return
	}

	isAuthorized := false
	if c.authorized != nil {
		isAuthorized, _ = c.authorized.IsAuthorized(ctx, sender.AuthKey)
	}
	outbox := c.transport.OutboxFor(senderID)
	descriptor := ChatSender{ID: senderID, IsAuthorized: isAuthorized, Outbox: outbox}

	if c.commands != nil && c.commands.Dispatch(ctx, descriptor, text) {
		return
	}

	evt := &PlayerChatEvent{SenderID: senderID, Username: sender.Username, Text: text}
	if c.events.Emit(evt) {
		return
	}

	c.broadcast(fmt.Sprintf("%s: %s", sender.Username, text))
}

func (c *ChatRouter) broadcast(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.PushBack(line)
	if c.history.Len() > maxChatHistory {
		c.history.Remove(c.history.Front())
	}

	for _, rec := range c.sessions.Snapshot() {
		if ob := c.transport.OutboxFor(rec.ID); ob != nil {
			c.sendSplitOnNewline(ob, line)
		}
	}
}

// BroadcastMessage sends a server-originated message to every active
// record, rejecting an empty or oversized message.
func (c *ChatRouter) BroadcastMessage(message string) error {
	if message == "" {
		return fmt.Errorf("%w: message must not be empty", ErrInvalidArgument)
	}
	if len(message) > MaxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidArgument, MaxMessageLength)
	}
	c.broadcast(message)
	return nil
}

// SendToOne delivers message to a single client's outbox, split on
// literal newline into separate chat frames.
func (c *ChatRouter) SendToOne(id PlayerID, message string) {
	ob := c.transport.OutboxFor(id)
	if ob == nil {
		return
	}
	c.sendSplitOnNewline(ob, message)
}

func (c *ChatRouter) sendSplitOnNewline(ob UpdateBuilder, message string) {
	for _, line := range strings.Split(message, "\n") {
		ob.AddChatMessage(line)
	}
}

// SubscribeChatEvent registers a handler on the cancelable chat event
// bus.
func (c *ChatRouter) SubscribeChatEvent(fn func(*PlayerChatEvent)) ChatEventHandle {
	return c.events.Subscribe(fn)
}

// RecentHistory returns a copy of the capped chat log, oldest first.
func (c *ChatRouter) RecentHistory() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, c.history.Len())
	for e := c.history.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}
