package relay

import "context"

// Transport is the external capability the core consumes for wire I/O.
// The core never frames packets itself; a concrete implementation (see
// internal/v1/transport for the gorilla/websocket adapter) turns these
// calls into bytes on a socket.
type Transport interface {
	StartListening(port int) error
	Stop() error
	IsStarted() bool

	// OutboxFor returns the UpdateBuilder for id, or nil if no such
	// client is connected.
	OutboxFor(id PlayerID) UpdateBuilder

	// SetDataForAllClients invokes fn once per connected client's
	// outbox, used for server-settings push and shutdown fan-out.
	SetDataForAllClients(fn func(id PlayerID, b UpdateBuilder))
}

// UpdateBuilder is the wire vocabulary the core depends on. Every
// method is a non-blocking enqueue onto the next outbound frame for
// one client; a concrete Transport flushes the builder's accumulated
// state on its own schedule.
type UpdateBuilder interface {
	SetHelloClientData(resp LoginResponse, sceneHost bool)
	AddPlayerConnectData(id PlayerID, username string)
	AddPlayerDisconnectData(id PlayerID, username string, timeout bool)
	AddPlayerEnterSceneData(id PlayerID)
	AddPlayerLeaveSceneData(id PlayerID)
	AddPlayerAlreadyInSceneData(peers []PlayerID, spawns []EntitySpawnReplay, updates []EntityUpdateReplay, sceneHost bool)
	AddPlayerDeathData(id PlayerID)
	AddPlayerTeamUpdateData(id PlayerID, team int32)
	AddPlayerSkinUpdateData(id PlayerID, skinID int32)
	AddChatMessage(text string)

	UpdatePlayerPosition(id PlayerID, pos Vec2)
	UpdatePlayerScale(id PlayerID, scale bool)
	UpdatePlayerMapIcon(id PlayerID, hasIcon bool)
	UpdatePlayerMapPosition(id PlayerID, pos MapPosition)
	UpdatePlayerAnimation(id PlayerID, clipID, frame int32, effectInfo []byte)

	SetEntitySpawn(key EntityKey, spawningType, spawnedType int32)
	UpdateEntityPosition(key EntityKey, pos Vec2)
	UpdateEntityScale(key EntityKey, scale Vec2)
	UpdateEntityAnimation(key EntityKey, clipID int32, wrapMode int32)
	UpdateEntityIsActive(key EntityKey, active bool)
	AddEntityData(key EntityKey, entry GenericDataEntry)
	AddEntityHostFsmData(key EntityKey, fsmIndex int32, snapshot FsmSnapshot)

	SetSceneHostTransfer()
	UpdateServerSettings(settings ServerSettings)
	SetLoginResponse(resp LoginResponse)
	SetDisconnect(reason DisconnectReason)
}

// EntitySpawnReplay is one spawned entity offered to a player entering
// a scene.
type EntitySpawnReplay struct {
	Key          EntityKey
	SpawningType int32
	SpawnedType  int32
}

// EntityUpdateReplay replays the cached sub-fields of an EntityState to
// a player entering its scene; only present fields are emitted.
type EntityUpdateReplay struct {
	Key EntityKey

	HasPosition bool
	Position    Vec2
	HasScale    bool
	Scale       Vec2
	HasAnimID   bool
	AnimationID int32
	HasIsActive bool
	IsActive    bool

	GenericData []GenericDataEntry
	HostFsmData map[int32]FsmSnapshot
}

// Logger is the capability-injected logging sink used throughout the
// relay package. internal/v1/logging provides the production adapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...any)
	Warn(ctx context.Context, msg string, fields ...any)
	Error(ctx context.Context, msg string, fields ...any)
}
