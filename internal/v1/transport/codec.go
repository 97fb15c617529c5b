// Package transport is the reference gorilla/websocket adapter
// implementing relay.Transport and relay.UpdateBuilder: one JSON frame
// per logical update, exactly the wire-envelope idiom the rest of the
// corpus uses for a hand-rolled (non-generated) websocket protocol.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/duskward/relay/internal/v1/relay"
)

// Frame is the wire envelope for every message exchanged over the
// websocket connection, in both directions.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event names. "login" is handled directly by Hub before a
// PlayerID exists and never reaches UpdateRouter; every other event
// maps onto a relay.InboundKind.
const (
	eventLogin            = "login"
	eventHelloServer       = "helloServer"
	eventPlayerEnterScene  = "playerEnterScene"
	eventPlayerLeaveScene  = "playerLeaveScene"
	eventPlayerUpdate      = "playerUpdate"
	eventPlayerMapUpdate   = "playerMapUpdate"
	eventEntitySpawn       = "entitySpawn"
	eventEntityUpdate      = "entityUpdate"
	eventPlayerDisconnect  = "playerDisconnect"
	eventPlayerDeath       = "playerDeath"
	eventPlayerTeamUpdate  = "playerTeamUpdate"
	eventPlayerSkinUpdate  = "playerSkinUpdate"
	eventChatMessage       = "chatMessage"
)

var inboundKindByEvent = map[string]relay.InboundKind{
	eventHelloServer:      relay.KindHelloServer,
	eventPlayerEnterScene: relay.KindPlayerEnterScene,
	eventPlayerLeaveScene: relay.KindPlayerLeaveScene,
	eventPlayerUpdate:     relay.KindPlayerUpdate,
	eventPlayerMapUpdate:  relay.KindPlayerMapUpdate,
	eventEntitySpawn:      relay.KindEntitySpawn,
	eventEntityUpdate:     relay.KindEntityUpdate,
	eventPlayerDisconnect: relay.KindPlayerDisconnect,
	eventPlayerDeath:      relay.KindPlayerDeath,
	eventPlayerTeamUpdate: relay.KindPlayerTeamUpdate,
	eventPlayerSkinUpdate: relay.KindPlayerSkinUpdate,
	eventChatMessage:      relay.KindChatMessage,
}

type vec2Wire struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (v vec2Wire) toDomain() relay.Vec2 { return relay.Vec2{X: v.X, Y: v.Y} }
func vec2FromDomain(v relay.Vec2) vec2Wire { return vec2Wire{X: v.X, Y: v.Y} }

type mapPositionWire struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (m mapPositionWire) toDomain() relay.MapPosition {
	return relay.MapPosition{X: m.X, Y: m.Y, Z: m.Z}
}
func mapPositionFromDomain(m relay.MapPosition) mapPositionWire {
	return mapPositionWire{X: m.X, Y: m.Y, Z: m.Z}
}

type animationClipWire struct {
	ClipID     int32  `json:"clipId"`
	Frame      int32  `json:"frame"`
	EffectInfo []byte `json:"effectInfo,omitempty"`
}

func (a animationClipWire) toDomain() relay.AnimationClip {
	return relay.AnimationClip{ClipID: a.ClipID, Frame: a.Frame, EffectInfo: a.EffectInfo}
}
func animationClipFromDomain(a relay.AnimationClip) animationClipWire {
	return animationClipWire{ClipID: a.ClipID, Frame: a.Frame, EffectInfo: a.EffectInfo}
}

type addonVersionWire struct {
	Identifier string `json:"identifier"`
	Version    string `json:"version"`
}

func (a addonVersionWire) toDomain() relay.AddonVersion {
	return relay.AddonVersion{Identifier: a.Identifier, Version: a.Version}
}
func addonVersionFromDomain(a relay.AddonVersion) addonVersionWire {
	return addonVersionWire{Identifier: a.Identifier, Version: a.Version}
}

type genericDataEntryWire struct {
	DataType int32  `json:"dataType"`
	Blob     []byte `json:"blob,omitempty"`
}

func (g genericDataEntryWire) toDomain() relay.GenericDataEntry {
	return relay.GenericDataEntry{DataType: relay.GenericDataType(g.DataType), Blob: g.Blob}
}
func genericDataEntryFromDomain(g relay.GenericDataEntry) genericDataEntryWire {
	return genericDataEntryWire{DataType: int32(g.DataType), Blob: g.Blob}
}

type fsmSnapshotWire struct {
	HasCurrentState bool                  `json:"hasCurrentState,omitempty"`
	CurrentState    string                `json:"currentState,omitempty"`
	Floats          map[string]float32    `json:"floats,omitempty"`
	Ints            map[string]int32      `json:"ints,omitempty"`
	Bools           map[string]bool       `json:"bools,omitempty"`
	Strings         map[string]string     `json:"strings,omitempty"`
	Vec2s           map[string]vec2Wire   `json:"vec2s,omitempty"`
	Vec3s           map[string]vec3Wire   `json:"vec3s,omitempty"`
}

type vec3Wire struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (f fsmSnapshotWire) toDomain() relay.FsmSnapshot {
	out := relay.NewFsmSnapshot()
	out.HasCurrentState = f.HasCurrentState
	out.CurrentState = f.CurrentState
	for k, v := range f.Floats {
		out.Floats[k] = v
	}
	for k, v := range f.Ints {
		out.Ints[k] = v
	}
	for k, v := range f.Bools {
		out.Bools[k] = v
	}
	for k, v := range f.Strings {
		out.Strings[k] = v
	}
	for k, v := range f.Vec2s {
		out.Vec2s[k] = v.toDomain()
	}
	for k, v := range f.Vec3s {
		out.Vec3s[k] = relay.Vec3{X: v.X, Y: v.Y, Z: v.Z}
	}
	return out
}

func fsmSnapshotFromDomain(f relay.FsmSnapshot) fsmSnapshotWire {
	w := fsmSnapshotWire{
		HasCurrentState: f.HasCurrentState,
		CurrentState:    f.CurrentState,
		Floats:          f.Floats,
		Ints:            f.Ints,
		Bools:           f.Bools,
		Strings:         f.Strings,
	}
	if len(f.Vec2s) > 0 {
		w.Vec2s = make(map[string]vec2Wire, len(f.Vec2s))
		for k, v := range f.Vec2s {
			w.Vec2s[k] = vec2FromDomain(v)
		}
	}
	if len(f.Vec3s) > 0 {
		w.Vec3s = make(map[string]vec3Wire, len(f.Vec3s))
		for k, v := range f.Vec3s {
			w.Vec3s[k] = vec3Wire{X: v.X, Y: v.Y, Z: v.Z}
		}
	}
	return w
}

type entityKeyWire struct {
	Scene    string `json:"scene"`
	EntityID uint16 `json:"entityId"`
}

func (e entityKeyWire) toDomain() relay.EntityKey {
	return relay.EntityKey{Scene: relay.SceneID(e.Scene), EntityID: relay.EntityID(e.EntityID)}
}
func entityKeyFromDomain(k relay.EntityKey) entityKeyWire {
	return entityKeyWire{Scene: string(k.Scene), EntityID: uint16(k.EntityID)}
}

// loginWire is the payload of the special "login" frame, decoded
// directly into a relay.LoginRequest before a PlayerID exists.
type loginWire struct {
	Username string             `json:"username"`
	AuthKey  string             `json:"authKey"`
	AddonSet []addonVersionWire `json:"addonSet,omitempty"`
}

func decodeLogin(payload json.RawMessage) (relay.LoginRequest, error) {
	var w loginWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return relay.LoginRequest{}, fmt.Errorf("decode login frame: %w", err)
	}
	addons := make([]relay.AddonVersion, 0, len(w.AddonSet))
	for _, a := range w.AddonSet {
		addons = append(addons, a.toDomain())
	}
	return relay.LoginRequest{Username: w.Username, AuthKey: w.AuthKey, AddonSet: addons}, nil
}

type helloServerWire struct {
	Scene       string        `json:"scene"`
	Position    vec2Wire      `json:"position"`
	Scale       bool          `json:"scale"`
	AnimationID int32         `json:"animationId"`
}

type enterSceneWire struct {
	Scene string `json:"scene"`
}

type playerUpdateWire struct {
	HasPosition bool                `json:"hasPosition,omitempty"`
	Position    vec2Wire            `json:"position,omitempty"`
	HasScale    bool                `json:"hasScale,omitempty"`
	Scale       bool                `json:"scale,omitempty"`
	HasMapPosition bool             `json:"hasMapPosition,omitempty"`
	MapPosition mapPositionWire     `json:"mapPosition,omitempty"`
	HasAnimation bool               `json:"hasAnimation,omitempty"`
	Animation   []animationClipWire `json:"animation,omitempty"`
}

type playerMapUpdateWire struct {
	HasMapIcon bool `json:"hasMapIcon"`
}

type entitySpawnWire struct {
	EntityID     uint16 `json:"entityId"`
	SpawningType int32  `json:"spawningType"`
	SpawnedType  int32  `json:"spawnedType"`
}

type entityUpdateWire struct {
	EntityID     uint16                 `json:"entityId"`
	HasPosition  bool                   `json:"hasPosition,omitempty"`
	Position     vec2Wire               `json:"position,omitempty"`
	HasScale     bool                   `json:"hasScale,omitempty"`
	Scale        vec2Wire               `json:"scale,omitempty"`
	HasAnimation bool                   `json:"hasAnimation,omitempty"`
	AnimationID  int32                  `json:"animationId,omitempty"`
	AnimWrapMode int32                  `json:"animWrapMode,omitempty"`
	HasActive    bool                   `json:"hasActive,omitempty"`
	Active       bool                   `json:"active,omitempty"`
	Data         []genericDataEntryWire `json:"data,omitempty"`
	HasHostFsm   bool                   `json:"hasHostFsm,omitempty"`
	FsmIndex     int32                  `json:"fsmIndex,omitempty"`
	FsmData      fsmSnapshotWire        `json:"fsmData,omitempty"`
}

type playerDisconnectWire struct {
	Timeout bool `json:"timeout,omitempty"`
}

type playerTeamUpdateWire struct {
	Team int32 `json:"team"`
}

type playerSkinUpdateWire struct {
	SkinID int32 `json:"skinId"`
}

type chatMessageWire struct {
	Text string `json:"text"`
}

// decodeInbound turns a non-login Frame into a relay.InboundMessage,
// reporting ok=false for an unrecognized event so the caller can drop
// the frame rather than route it.
func decodeInbound(f Frame) (msg relay.InboundMessage, ok bool, err error) {
	kind, known := inboundKindByEvent[f.Event]
	if !known {
		return relay.InboundMessage{}, false, nil
	}
	msg.Kind = kind

	switch kind {
	case relay.KindHelloServer:
		var w helloServerWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		msg.Hello = relay.HelloRequest{
			Scene:       relay.SceneID(w.Scene),
			Position:    w.Position.toDomain(),
			Scale:       w.Scale,
			AnimationID: w.AnimationID,
		}
	case relay.KindPlayerEnterScene:
		var w enterSceneWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		msg.EnterSceneScene = relay.SceneID(w.Scene)
	case relay.KindPlayerLeaveScene:
		// no payload
	case relay.KindPlayerUpdate:
		var w playerUpdateWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		anims := make([]relay.AnimationClip, 0, len(w.Animation))
		for _, a := range w.Animation {
			anims = append(anims, a.toDomain())
		}
		msg.PlayerUpdate = relay.PlayerUpdateRequest{
			HasPosition:    w.HasPosition,
			Position:       w.Position.toDomain(),
			HasScale:       w.HasScale,
			Scale:          w.Scale,
			HasMapPosition: w.HasMapPosition,
			MapPosition:    w.MapPosition.toDomain(),
			HasAnimation:   w.HasAnimation,
			Animation:      anims,
		}
	case relay.KindPlayerMapUpdate:
		var w playerMapUpdateWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		msg.HasMapIcon = w.HasMapIcon
	case relay.KindEntitySpawn:
		var w entitySpawnWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		msg.EntitySpawn = relay.EntitySpawnRequest{
			EntityID:     relay.EntityID(w.EntityID),
			SpawningType: w.SpawningType,
			SpawnedType:  w.SpawnedType,
		}
	case relay.KindEntityUpdate:
		var w entityUpdateWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		data := make([]relay.GenericDataEntry, 0, len(w.Data))
		for _, d := range w.Data {
			data = append(data, d.toDomain())
		}
		msg.EntityUpdate = relay.EntityUpdateRequest{
			EntityID:     relay.EntityID(w.EntityID),
			HasPosition:  w.HasPosition,
			Position:     w.Position.toDomain(),
			HasScale:     w.HasScale,
			Scale:        relay.Vec2{X: w.Scale.X, Y: w.Scale.Y},
			HasAnimation: w.HasAnimation,
			AnimationID:  w.AnimationID,
			AnimWrapMode: w.AnimWrapMode,
			HasActive:    w.HasActive,
			Active:       w.Active,
			Data:         data,
			HasHostFsm:   w.HasHostFsm,
			FsmIndex:     w.FsmIndex,
			FsmData:      w.FsmData.toDomain(),
		}
	case relay.KindPlayerDisconnect:
		var w playerDisconnectWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		msg.Timeout = w.Timeout
	case relay.KindPlayerDeath:
		// no payload
	case relay.KindPlayerTeamUpdate:
		var w playerTeamUpdateWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		msg.Team = w.Team
	case relay.KindPlayerSkinUpdate:
		var w playerSkinUpdateWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		msg.SkinID = w.SkinID
	case relay.KindChatMessage:
		var w chatMessageWire
		if err := json.Unmarshal(f.Payload, &w); err != nil {
			return msg, true, err
		}
		msg.ChatText = w.Text
	}
	return msg, true, nil
}

// encodeFrame marshals event and payload into a ready-to-send Frame.
func encodeFrame(event string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return Frame{Event: event, Payload: raw}, nil
}
