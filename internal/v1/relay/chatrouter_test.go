package relay

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatRouter(t *testing.T) (*ChatRouter, *SessionTable, *fakeTransport) {
	t.Helper()
	sessions := NewSessionTable()
	transport := newFakeTransport()
	router := NewChatRouter(sessions, transport, nil, fakeCommandBus{}, nil, nil)
	return router, sessions, transport
}

func TestChatRouterBroadcastsToEveryActiveRecordIncludingSender(t *testing.T) {
	router, sessions, transport := newTestChatRouter(t)
	require.NoError(t, sessions.Insert(NewPlayerRecord(1, "a", "alice", "key-a")))
	require.NoError(t, sessions.Insert(NewPlayerRecord(2, "b", "bob", "key-b")))
	aliceOb := transport.connect(1)
	bobOb := transport.connect(2)

	router.HandleChatMessage(context.Background(), 1, "hello")

	assert.True(t, aliceOb.has("AddChatMessage"))
	assert.True(t, bobOb.has("AddChatMessage"))
}

func TestChatRouterCommandDispatchSkipsBroadcast(t *testing.T) {
	sessions := NewSessionTable()
	transport := newFakeTransport()
	commands := &recordingCommandBus{handle: true}
	router := NewChatRouter(sessions, transport, nil, commands, nil, nil)
	require.NoError(t, sessions.Insert(NewPlayerRecord(1, "a", "alice", "key-a")))
	ob := transport.connect(1)

	router.HandleChatMessage(context.Background(), 1, "/kick bob")

	assert.False(t, ob.has("AddChatMessage"))
	assert.Equal(t, 1, commands.calls)
}

func TestChatRouterEventCancelSuppressesBroadcast(t *testing.T) {
	sessions := NewSessionTable()
	transport := newFakeTransport()
	bus := NewChatEventBus(nil)
	bus.Subscribe(func(evt *PlayerChatEvent) { evt.Cancel = true })
	router := NewChatRouter(sessions, transport, nil, fakeCommandBus{}, nil, bus)
	require.NoError(t, sessions.Insert(NewPlayerRecord(1, "a", "alice", "key-a")))
	ob := transport.connect(1)

	router.HandleChatMessage(context.Background(), 1, "hello")

	assert.False(t, ob.has("AddChatMessage"))
}

func TestChatRouterSendToOneSplitsOnNewline(t *testing.T) {
	router, _, transport := newTestChatRouter(t)
	ob := transport.connect(1)

	router.SendToOne(1, "line one\nline two")

	require.Equal(t, 2, ob.count("AddChatMessage"))
}

func TestChatRouterBroadcastMessageRejectsOversized(t *testing.T) {
	router, _, _ := newTestChatRouter(t)
	err := router.BroadcastMessage(strings.Repeat("x", MaxMessageLength+1))
	assert.Error(t, err)
}

func TestChatRouterRecentHistoryIsCappedAndOrdered(t *testing.T) {
	router, sessions, transport := newTestChatRouter(t)
	require.NoError(t, sessions.Insert(NewPlayerRecord(1, "a", "alice", "key-a")))
	transport.connect(1)

	for i := 0; i < maxChatHistory+5; i++ {
		router.HandleChatMessage(context.Background(), 1, "msg")
	}

	history := router.RecentHistory()
	assert.Len(t, history, maxChatHistory)
}

type recordingCommandBus struct {
	handle bool
	calls  int
}

func (r *recordingCommandBus) Dispatch(ctx context.Context, sender ChatSender, text string) bool {
	r.calls++
	return r.handle
}
