package relay

import (
	"context"
	"sync"
)

// fakeTransport is an in-memory Transport used across this package's
// tests: every connected id gets a fakeOutbox that records every call
// instead of writing bytes to a socket.
type fakeTransport struct {
	mu      sync.Mutex
	outboxes map[PlayerID]*fakeOutbox
	started bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{outboxes: make(map[PlayerID]*fakeOutbox)}
}

func (f *fakeTransport) connect(id PlayerID) *fakeOutbox {
	f.mu.Lock()
	defer f.mu.Unlock()
	ob := &fakeOutbox{}
	f.outboxes[id] = ob
	return ob
}

func (f *fakeTransport) disconnect(id PlayerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.outboxes, id)
}

func (f *fakeTransport) StartListening(port int) error { f.started = true; return nil }
func (f *fakeTransport) Stop() error                    { f.started = false; return nil }
func (f *fakeTransport) IsStarted() bool                { return f.started }

func (f *fakeTransport) OutboxFor(id PlayerID) UpdateBuilder {
	f.mu.Lock()
	defer f.mu.Unlock()
	ob, ok := f.outboxes[id]
	if !ok {
		return nil
	}
	return ob
}

func (f *fakeTransport) SetDataForAllClients(fn func(id PlayerID, b UpdateBuilder)) {
	f.mu.Lock()
	ids := make([]PlayerID, 0, len(f.outboxes))
	for id := range f.outboxes {
		ids = append(ids, id)
	}
	f.mu.Unlock()
	for _, id := range ids {
		fn(id, f.OutboxFor(id))
	}
}

// recordedCall captures one UpdateBuilder method invocation for
// assertions.
type recordedCall struct {
	method string
	args   []any
}

// fakeOutbox records every call made to it; tests assert against the
// Calls slice instead of wiring up a real wire codec.
type fakeOutbox struct {
	mu    sync.Mutex
	Calls []recordedCall
}

func (o *fakeOutbox) record(method string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls = append(o.Calls, recordedCall{method: method, args: args})
}

func (o *fakeOutbox) has(method string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, c := range o.Calls {
		if c.method == method {
			return true
		}
	}
	return false
}

func (o *fakeOutbox) count(method string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, c := range o.Calls {
		if c.method == method {
			n++
		}
	}
	return n
}

func (o *fakeOutbox) SetHelloClientData(resp LoginResponse, sceneHost bool) {
	o.record("SetHelloClientData", resp, sceneHost)
}
func (o *fakeOutbox) AddPlayerConnectData(id PlayerID, username string) {
	o.record("AddPlayerConnectData", id, username)
}
func (o *fakeOutbox) AddPlayerDisconnectData(id PlayerID, username string, timeout bool) {
	o.record("AddPlayerDisconnectData", id, username, timeout)
}
func (o *fakeOutbox) AddPlayerEnterSceneData(id PlayerID) { o.record("AddPlayerEnterSceneData", id) }
func (o *fakeOutbox) AddPlayerLeaveSceneData(id PlayerID) { o.record("AddPlayerLeaveSceneData", id) }
func (o *fakeOutbox) AddPlayerAlreadyInSceneData(peers []PlayerID, spawns []EntitySpawnReplay, updates []EntityUpdateReplay, sceneHost bool) {
	o.record("AddPlayerAlreadyInSceneData", peers, spawns, updates, sceneHost)
}
func (o *fakeOutbox) AddPlayerDeathData(id PlayerID) { o.record("AddPlayerDeathData", id) }
func (o *fakeOutbox) AddPlayerTeamUpdateData(id PlayerID, team int32) {
	o.record("AddPlayerTeamUpdateData", id, team)
}
func (o *fakeOutbox) AddPlayerSkinUpdateData(id PlayerID, skinID int32) {
	o.record("AddPlayerSkinUpdateData", id, skinID)
}
func (o *fakeOutbox) AddChatMessage(text string) { o.record("AddChatMessage", text) }

func (o *fakeOutbox) UpdatePlayerPosition(id PlayerID, pos Vec2) {
	o.record("UpdatePlayerPosition", id, pos)
}
func (o *fakeOutbox) UpdatePlayerScale(id PlayerID, scale bool) {
	o.record("UpdatePlayerScale", id, scale)
}
func (o *fakeOutbox) UpdatePlayerMapIcon(id PlayerID, hasIcon bool) {
	o.record("UpdatePlayerMapIcon", id, hasIcon)
}
func (o *fakeOutbox) UpdatePlayerMapPosition(id PlayerID, pos MapPosition) {
	o.record("UpdatePlayerMapPosition", id, pos)
}
func (o *fakeOutbox) UpdatePlayerAnimation(id PlayerID, clipID, frame int32, effectInfo []byte) {
	o.record("UpdatePlayerAnimation", id, clipID, frame, effectInfo)
}

func (o *fakeOutbox) SetEntitySpawn(key EntityKey, spawningType, spawnedType int32) {
	o.record("SetEntitySpawn", key, spawningType, spawnedType)
}
func (o *fakeOutbox) UpdateEntityPosition(key EntityKey, pos Vec2) {
	o.record("UpdateEntityPosition", key, pos)
}
func (o *fakeOutbox) UpdateEntityScale(key EntityKey, scale Vec2) {
	o.record("UpdateEntityScale", key, scale)
}
func (o *fakeOutbox) UpdateEntityAnimation(key EntityKey, clipID int32, wrapMode int32) {
	o.record("UpdateEntityAnimation", key, clipID, wrapMode)
}
func (o *fakeOutbox) UpdateEntityIsActive(key EntityKey, active bool) {
	o.record("UpdateEntityIsActive", key, active)
}
func (o *fakeOutbox) AddEntityData(key EntityKey, entry GenericDataEntry) {
	o.record("AddEntityData", key, entry)
}
func (o *fakeOutbox) AddEntityHostFsmData(key EntityKey, fsmIndex int32, snapshot FsmSnapshot) {
	o.record("AddEntityHostFsmData", key, fsmIndex, snapshot)
}

func (o *fakeOutbox) SetSceneHostTransfer() { o.record("SetSceneHostTransfer") }
func (o *fakeOutbox) UpdateServerSettings(settings ServerSettings) {
	o.record("UpdateServerSettings", settings)
}
func (o *fakeOutbox) SetLoginResponse(resp LoginResponse) { o.record("SetLoginResponse", resp) }
func (o *fakeOutbox) SetDisconnect(reason DisconnectReason) {
	o.record("SetDisconnect", reason)
}

// fakeAccessLists is a permissive AccessLists with toggles for tests
// that need to exercise a specific reject path.
type fakeAccessLists struct {
	banned    map[string]bool
	whitelist map[string]bool
	preList   map[string]bool
	enabled   bool
}

func newFakeAccessLists() *fakeAccessLists {
	return &fakeAccessLists{
		banned:    make(map[string]bool),
		whitelist: make(map[string]bool),
		preList:   make(map[string]bool),
	}
}

func (f *fakeAccessLists) IsBanned(ctx context.Context, remoteAddr, authKey string) (bool, error) {
	return f.banned[remoteAddr] || f.banned[authKey], nil
}
func (f *fakeAccessLists) WhitelistEnabled() bool { return f.enabled }
func (f *fakeAccessLists) IsWhitelisted(ctx context.Context, authKey string) (bool, error) {
	return f.whitelist[authKey], nil
}
func (f *fakeAccessLists) IsPreListed(ctx context.Context, username string) (bool, error) {
	return f.preList[username], nil
}
func (f *fakeAccessLists) PromoteFromPreList(ctx context.Context, username, authKey string) error {
	delete(f.preList, username)
	f.whitelist[authKey] = true
	return nil
}

// fakeAddonRegistry always matches whatever set a test gives it.
type fakeAddonRegistry struct {
	set  []AddonVersion
	nums map[string]int32
}

func newFakeAddonRegistry(set []AddonVersion) *fakeAddonRegistry {
	nums := make(map[string]int32, len(set))
	for i, av := range set {
		nums[av.Identifier] = int32(i)
	}
	return &fakeAddonRegistry{set: set, nums: nums}
}

func (f *fakeAddonRegistry) ServerAddonSet() []AddonVersion { return f.set }
func (f *fakeAddonRegistry) NumberOf(identifier string) (int32, bool) {
	id, ok := f.nums[identifier]
	return id, ok
}

// fakeAuthorizedKeys treats a fixed set of keys as authorized.
type fakeAuthorizedKeys struct {
	keys map[string]bool
}

func (f *fakeAuthorizedKeys) IsAuthorized(ctx context.Context, authKey string) (bool, error) {
	return f.keys[authKey], nil
}

// fakeCommandBus never recognizes a command, so chat always falls
// through to the event bus / broadcast path in tests that don't care
// about command dispatch.
type fakeCommandBus struct{}

func (fakeCommandBus) Dispatch(ctx context.Context, sender ChatSender, text string) bool {
	return false
}
