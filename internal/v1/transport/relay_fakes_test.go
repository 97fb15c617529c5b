package transport

import (
	"context"

	"github.com/duskward/relay/internal/v1/relay"
)

// fakeAccessLists is an always-allow relay.AccessLists, sufficient to
// exercise the Hub's wire-level login flow without a real Redis-backed
// accesslists.Service.
type fakeAccessLists struct{}

func (fakeAccessLists) IsBanned(context.Context, string, string) (bool, error)  { return false, nil }
func (fakeAccessLists) WhitelistEnabled() bool                                  { return false }
func (fakeAccessLists) IsWhitelisted(context.Context, string) (bool, error)     { return true, nil }
func (fakeAccessLists) IsPreListed(context.Context, string) (bool, error)       { return false, nil }
func (fakeAccessLists) PromoteFromPreList(context.Context, string, string) error { return nil }

// fakeAddonRegistry has an empty server addon set, matched by a client
// login that also sends no addons.
type fakeAddonRegistry struct{}

func (fakeAddonRegistry) ServerAddonSet() []relay.AddonVersion      { return nil }
func (fakeAddonRegistry) NumberOf(string) (int32, bool)             { return 0, false }

// fakeCommandBus never recognizes a command, so chat always falls
// through to a plain broadcast.
type fakeCommandBus struct{}

func (fakeCommandBus) Dispatch(context.Context, relay.ChatSender, string) bool { return false }

func newTestManager(transport relay.Transport) *relay.Manager {
	return relay.NewManager(transport, nil, fakeAccessLists{}, fakeAddonRegistry{}, fakeCommandBus{}, nil)
}
