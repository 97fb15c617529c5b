package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmissionEvaluateBannedIsRejectedFirst(t *testing.T) {
	sessions := NewSessionTable()
	lists := newFakeAccessLists()
	lists.banned["10.0.0.1"] = true
	admission := NewAdmissionController(sessions, lists, newFakeAddonRegistry(nil))

	resp := admission.Evaluate(context.Background(), 1, "10.0.0.1", LoginRequest{Username: "alice", AuthKey: "key"})
	assert.Equal(t, RejectBanned, resp.Status)
	assert.Equal(t, 0, sessions.Len())
}

func TestAdmissionEvaluateNotWhitelistedWithoutPreList(t *testing.T) {
	sessions := NewSessionTable()
	lists := newFakeAccessLists()
	lists.enabled = true
	admission := NewAdmissionController(sessions, lists, newFakeAddonRegistry(nil))

	resp := admission.Evaluate(context.Background(), 1, "10.0.0.1", LoginRequest{Username: "alice", AuthKey: "key"})
	assert.Equal(t, RejectNotWhiteListed, resp.Status)
}

func TestAdmissionEvaluatePromotesFromPreList(t *testing.T) {
	sessions := NewSessionTable()
	lists := newFakeAccessLists()
	lists.enabled = true
	lists.preList["alice"] = true
	admission := NewAdmissionController(sessions, lists, newFakeAddonRegistry(nil))

	resp := admission.Evaluate(context.Background(), 1, "10.0.0.1", LoginRequest{Username: "alice", AuthKey: "key"})
	require.Equal(t, RejectNone, resp.Status)
	assert.True(t, lists.whitelist["key"])
	assert.False(t, lists.preList["alice"])
}

func TestAdmissionEvaluateRejectsNonAlphanumericUsername(t *testing.T) {
	sessions := NewSessionTable()
	admission := NewAdmissionController(sessions, newFakeAccessLists(), newFakeAddonRegistry(nil))

	resp := admission.Evaluate(context.Background(), 1, "10.0.0.1", LoginRequest{Username: "al ice!", AuthKey: "key"})
	assert.Equal(t, RejectInvalidUsername, resp.Status)
}

func TestAdmissionEvaluateRejectsUsernameCollisionCaseInsensitive(t *testing.T) {
	sessions := NewSessionTable()
	require.NoError(t, sessions.Insert(NewPlayerRecord(1, "a", "Alice", "key-a")))
	admission := NewAdmissionController(sessions, newFakeAccessLists(), newFakeAddonRegistry(nil))

	resp := admission.Evaluate(context.Background(), 2, "10.0.0.2", LoginRequest{Username: "alice", AuthKey: "key-b"})
	assert.Equal(t, RejectInvalidUsername, resp.Status)
	assert.Equal(t, 1, sessions.Len())
}

func TestAdmissionEvaluateRejectsAddonMismatch(t *testing.T) {
	sessions := NewSessionTable()
	addons := newFakeAddonRegistry([]AddonVersion{{Identifier: "speedrun", Version: "1.0"}})
	admission := NewAdmissionController(sessions, newFakeAccessLists(), addons)

	resp := admission.Evaluate(context.Background(), 1, "10.0.0.1", LoginRequest{Username: "alice", AuthKey: "key"})
	assert.Equal(t, RejectInvalidAddons, resp.Status)
	assert.Equal(t, addons.set, resp.ServerAddonSet)
}

func TestAdmissionEvaluateAcceptsMatchingAddonSet(t *testing.T) {
	sessions := NewSessionTable()
	addons := newFakeAddonRegistry([]AddonVersion{{Identifier: "speedrun", Version: "1.0"}})
	admission := NewAdmissionController(sessions, newFakeAccessLists(), addons)

	resp := admission.Evaluate(context.Background(), 1, "10.0.0.1", LoginRequest{
		Username: "alice", AuthKey: "key",
		AddonSet: []AddonVersion{{Identifier: "speedrun", Version: "1.0"}},
	})
	require.Equal(t, RejectNone, resp.Status)
	assert.Equal(t, []int32{0}, resp.AddonOrder)
	assert.Equal(t, 1, sessions.Len())
}
