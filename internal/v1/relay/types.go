package relay

import "github.com/duskward/relay/internal/v1/types"

// Local aliases onto internal/v1/types so the rest of this package can
// use the domain vocabulary (PlayerID, EntityKey, ...) without repeating
// the types. qualifier on every line; every aliased name still
// round-trips through the shared types package other components use.
type (
	PlayerID         = types.PlayerID
	SceneID          = types.SceneID
	EntityID         = types.EntityID
	EntityKey        = types.EntityKey
	Vec2             = types.Vec2
	Vec3             = types.Vec3
	MapPosition      = types.MapPosition
	AnimationClip    = types.AnimationClip
	PlayerRecord     = types.PlayerRecord
	GenericDataType  = types.GenericDataType
	GenericDataEntry = types.GenericDataEntry
	FsmSnapshot      = types.FsmSnapshot
	EntityState      = types.EntityState
	LoginRequest     = types.LoginRequest
	AddonVersion     = types.AddonVersion
	RejectCode       = types.RejectCode
	LoginResponse    = types.LoginResponse
	DisconnectReason = types.DisconnectReason
	ServerSettings   = types.ServerSettings
)

const (
	GenericDataRotation = types.GenericDataRotation
	GenericDataCollider = types.GenericDataCollider
	GenericDataOther    = types.GenericDataOther

	RejectNone            = types.RejectNone
	RejectBanned          = types.RejectBanned
	RejectNotWhiteListed  = types.RejectNotWhiteListed
	RejectInvalidUsername = types.RejectInvalidUsername
	RejectInvalidAddons   = types.RejectInvalidAddons

	DisconnectNone            = types.DisconnectNone
	DisconnectShutdown        = types.DisconnectShutdown
	DisconnectKicked          = types.DisconnectKicked
	DisconnectBanned          = types.DisconnectBanned
	DisconnectInvalidAddons   = types.DisconnectInvalidAddons
	DisconnectNotWhiteListed  = types.DisconnectNotWhiteListed
	DisconnectInvalidUsername = types.DisconnectInvalidUsername

	AnimationCanonicalSentinel = types.AnimationCanonicalSentinel
)

func NewPlayerRecord(id PlayerID, remoteAddr, username, authKey string) *PlayerRecord {
	return types.NewPlayerRecord(id, remoteAddr, username, authKey)
}

func NewEntityState() *EntityState {
	return types.NewEntityState()
}

func NewFsmSnapshot() FsmSnapshot {
	return types.NewFsmSnapshot()
}
