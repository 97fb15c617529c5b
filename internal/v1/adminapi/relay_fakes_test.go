package adminapi

import (
	"context"

	"github.com/duskward/relay/internal/v1/relay"
)

type fakeAccessLists struct{}

func (fakeAccessLists) IsBanned(context.Context, string, string) (bool, error) { return false, nil }
func (fakeAccessLists) WhitelistEnabled() bool                                 { return false }
func (fakeAccessLists) IsWhitelisted(context.Context, string) (bool, error)    { return true, nil }
func (fakeAccessLists) IsPreListed(context.Context, string) (bool, error)      { return false, nil }
func (fakeAccessLists) PromoteFromPreList(context.Context, string, string) error {
	return nil
}

type fakeAddonRegistry struct{}

func (fakeAddonRegistry) ServerAddonSet() []relay.AddonVersion { return nil }
func (fakeAddonRegistry) NumberOf(string) (int32, bool)        { return 0, false }

type fakeCommandBus struct{}

func (fakeCommandBus) Dispatch(context.Context, relay.ChatSender, string) bool { return false }

// fakeTransport is just enough of relay.Transport for a Manager that
// never actually serves a real connection: its OutboxFor always
// returns nil, which is sufficient for List/Announce, the only
// manager paths adminapi exercises.
type fakeTransport struct{}

func (fakeTransport) OutboxFor(relay.PlayerID) relay.UpdateBuilder { return nil }
func (fakeTransport) SetDataForAllClients(func(relay.PlayerID, relay.UpdateBuilder)) {
}
func (fakeTransport) IsStarted() bool           { return true }
func (fakeTransport) StartListening(int) error  { return nil }
func (fakeTransport) Stop() error               { return nil }

func newTestManager() *relay.Manager {
	return relay.NewManager(fakeTransport{}, nil, fakeAccessLists{}, fakeAddonRegistry{}, fakeCommandBus{}, nil)
}
