// Package types defines the shared domain model of the relay: player
// records, entity state, and the login/disconnect vocabulary exchanged
// with a Transport.
package types

import (
	"strings"
	"sync"
)

// PlayerID is server-assigned and unique for the lifetime of a session.
type PlayerID uint16

// SceneID names a region of the game world. The empty SceneID means
// "not in any scene yet / between scenes."
type SceneID string

// EntityID identifies a networked object within a single scene.
type EntityID uint16

// EntityKey is the full identity of a replicated entity. Two entities
// with the same EntityID in different scenes are distinct.
type EntityKey struct {
	Scene    SceneID
	EntityID EntityID
}

// Vec2 is a 2D vector; used for position and scale.
type Vec2 struct {
	X, Y float32
}

// MapPosition is a last-known world-map marker position.
type MapPosition struct {
	X, Y, Z float32
}

// AnimationCanonicalSentinel is the fixed boundary between canonical
// and effect clips: clipId values numerically below this update a
// player's or entity's animationId directly, while values at or above
// are effect/custom clips played without changing that field. The
// exact numeric value is game-specific, so it is exposed as a
// configurable constant rather than hard-coded game data.
const AnimationCanonicalSentinel = 1000

// AnimationClip is one entry in an ordered animation-event list carried
// by a PlayerUpdate{Animation} or EntityUpdate{Animation} frame.
type AnimationClip struct {
	ClipID     int32
	Frame      int32
	EffectInfo []byte
}

// PlayerRecord is owned by the session table: created on successful
// login, populated by the first Hello, mutated by update handlers, and
// destroyed on disconnect or timeout.
type PlayerRecord struct {
	mu sync.RWMutex

	ID            PlayerID
	RemoteAddress string
	Username      string
	AuthKey       string

	CurrentScene SceneID

	Position      Vec2
	Scale         bool
	AnimationID   int32
	Team          int32
	SkinID        int32
	MapPos        MapPosition
	HasMapIcon    bool
	IsSceneHost   bool
}

// NewPlayerRecord constructs a record in its post-login, pre-Hello
// state: reserved id, no scene, no pose.
func NewPlayerRecord(id PlayerID, remoteAddr, username, authKey string) *PlayerRecord {
	return &PlayerRecord{
		ID:            id,
		RemoteAddress: remoteAddr,
		Username:      username,
		AuthKey:       authKey,
	}
}

// Snapshot returns a copy of the record safe to read without holding
// any lock, so SessionTable snapshots never expose a record mid-write.
func (p *PlayerRecord) Snapshot() PlayerRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := *p
	cp.mu = sync.RWMutex{}
	return cp
}

// UsernameEqualFold reports whether name matches this record's
// username case-insensitively, the comparison admission uses to
// enforce unique usernames.
func (p *PlayerRecord) UsernameEqualFold(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return strings.EqualFold(p.Username, name)
}

// SetScene atomically updates CurrentScene. Callers must call this
// before recomputing scene membership, so the write is visible to any
// fan-out computed from it.
func (p *PlayerRecord) SetScene(s SceneID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentScene = s
}

// Scene returns the current scene under the read lock.
func (p *PlayerRecord) Scene() SceneID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.CurrentScene
}

// SetIsSceneHost atomically flips the host flag.
func (p *PlayerRecord) SetIsSceneHost(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IsSceneHost = v
}

// IsHost reports the host flag under the read lock.
func (p *PlayerRecord) IsHost() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.IsSceneHost
}

// GenericDataType distinguishes the genericData entries carried by an
// EntityState. Rotation and Collider are replace-in-place; all other
// values are append-only.
type GenericDataType int32

const (
	GenericDataUnknown GenericDataType = iota
	GenericDataRotation
	GenericDataCollider
	GenericDataScale
	GenericDataOther
)

// GenericDataEntry is one opaque, server-uninterpreted blob attached to
// an entity.
type GenericDataEntry struct {
	DataType GenericDataType
	Blob     []byte
}

// FsmSnapshot carries one FSM's optional current state plus six keyed
// value maps. Merge takes the union of keys across snapshots, each key
// resolving to the most recently received value.
type FsmSnapshot struct {
	HasCurrentState bool
	CurrentState    string

	Floats  map[string]float32
	Ints    map[string]int32
	Bools   map[string]bool
	Strings map[string]string
	Vec2s   map[string]Vec2
	Vec3s   map[string]Vec3
}

// Vec3 is a 3D vector used by FSM float-triple variables.
type Vec3 struct {
	X, Y, Z float32
}

// NewFsmSnapshot returns an empty, ready-to-merge snapshot.
func NewFsmSnapshot() FsmSnapshot {
	return FsmSnapshot{
		Floats:  make(map[string]float32),
		Ints:    make(map[string]int32),
		Bools:   make(map[string]bool),
		Strings: make(map[string]string),
		Vec2s:   make(map[string]Vec2),
		Vec3s:   make(map[string]Vec3),
	}
}

// Merge folds incoming into the snapshot in place, keeping the union of
// keys and preferring incoming's value for any key it carries. A zero
// FsmSnapshot (nil maps) is accepted as a merge source.
func (f *FsmSnapshot) Merge(incoming FsmSnapshot) {
	if incoming.HasCurrentState {
		f.HasCurrentState = true
		f.CurrentState = incoming.CurrentState
	}
	if f.Floats == nil {
		f.Floats = make(map[string]float32)
	}
	if f.Ints == nil {
		f.Ints = make(map[string]int32)
	}
	if f.Bools == nil {
		f.Bools = make(map[string]bool)
	}
	if f.Strings == nil {
		f.Strings = make(map[string]string)
	}
	if f.Vec2s == nil {
		f.Vec2s = make(map[string]Vec2)
	}
	if f.Vec3s == nil {
		f.Vec3s = make(map[string]Vec3)
	}
	for k, v := range incoming.Floats {
		f.Floats[k] = v
	}
	for k, v := range incoming.Ints {
		f.Ints[k] = v
	}
	for k, v := range incoming.Bools {
		f.Bools[k] = v
	}
	for k, v := range incoming.Strings {
		f.Strings[k] = v
	}
	for k, v := range incoming.Vec2s {
		f.Vec2s[k] = v
	}
	for k, v := range incoming.Vec3s {
		f.Vec3s[k] = v
	}
}

// EntityState is owned by the entity cache: created lazily on first
// reference, destroyed in bulk when its scene becomes empty.
type EntityState struct {
	Spawned      bool
	SpawningType int32
	SpawnedType  int32

	HasPosition bool
	Position    Vec2
	HasScale    bool
	Scale       Vec2
	HasAnimID   bool
	AnimationID int32
	AnimWrapMode int32
	HasIsActive bool
	IsActive    bool

	GenericData []GenericDataEntry

	// HostFsmData maps fsmIndex -> merged snapshot.
	HostFsmData map[int32]FsmSnapshot
}

// NewEntityState returns a zero-value state ready for merges.
func NewEntityState() *EntityState {
	return &EntityState{HostFsmData: make(map[int32]FsmSnapshot)}
}

// MergeGenericData appends entry, or replaces the existing entry of the
// same DataType in place for Rotation/Collider.
func (e *EntityState) MergeGenericData(entry GenericDataEntry) {
	switch entry.DataType {
	case GenericDataRotation, GenericDataCollider:
		for i := range e.GenericData {
			if e.GenericData[i].DataType == entry.DataType {
				e.GenericData[i] = entry
				return
			}
		}
		e.GenericData = append(e.GenericData, entry)
	default:
		e.GenericData = append(e.GenericData, entry)
	}
}

// MergeHostFsmData merges incoming into the snapshot stored for
// fsmIndex, creating one if absent.
func (e *EntityState) MergeHostFsmData(fsmIndex int32, incoming FsmSnapshot) {
	if e.HostFsmData == nil {
		e.HostFsmData = make(map[int32]FsmSnapshot)
	}
	cur := e.HostFsmData[fsmIndex]
	cur.Merge(incoming)
	e.HostFsmData[fsmIndex] = cur
}

// LoginRequest is the client's bid to join, evaluated by the admission
// controller.
type LoginRequest struct {
	Username string
	AuthKey  string
	AddonSet []AddonVersion
}

// AddonVersion names one client-side addon and the version it reports.
type AddonVersion struct {
	Identifier string
	Version    string
}

// RejectCode enumerates the distinct admission-reject outcomes.
type RejectCode int

const (
	RejectNone RejectCode = iota
	RejectBanned
	RejectNotWhiteListed
	RejectInvalidUsername
	RejectInvalidAddons
)

func (r RejectCode) String() string {
	switch r {
	case RejectNone:
		return "Success"
	case RejectBanned:
		return "Banned"
	case RejectNotWhiteListed:
		return "NotWhiteListed"
	case RejectInvalidUsername:
		return "InvalidUsername"
	case RejectInvalidAddons:
		return "InvalidAddons"
	default:
		return "Unknown"
	}
}

// LoginResponse is returned synchronously to the connecting client.
type LoginResponse struct {
	Status     RejectCode
	PlayerID   PlayerID
	AddonOrder []int32
	ServerAddonSet []AddonVersion // echoed back only on RejectInvalidAddons
}

// DisconnectReason is the cause surfaced to a departing client.
type DisconnectReason int

const (
	DisconnectNone DisconnectReason = iota
	DisconnectShutdown
	DisconnectKicked
	DisconnectBanned
	DisconnectInvalidAddons
	DisconnectNotWhiteListed
	DisconnectInvalidUsername
)

func (d DisconnectReason) String() string {
	switch d {
	case DisconnectShutdown:
		return "Shutdown"
	case DisconnectKicked:
		return "Kicked"
	case DisconnectBanned:
		return "Banned"
	case DisconnectInvalidAddons:
		return "InvalidAddons"
	case DisconnectNotWhiteListed:
		return "NotWhiteListed"
	case DisconnectInvalidUsername:
		return "InvalidUsername"
	default:
		return "None"
	}
}

// ServerSettings is the opaque-to-the-core subset of server settings
// that influence map-icon fan-out. Equality is value-based so
// ApplyServerSettings can skip redundant broadcasts.
type ServerSettings struct {
	AlwaysShowMapIcons                    bool
	OnlyBroadcastMapIconWithWaywardCompass bool
}
