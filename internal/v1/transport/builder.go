package transport

import (
	"github.com/duskward/relay/internal/v1/relay"
)

// Outbound event names.
const (
	eventHelloClient        = "helloClient"
	eventLoginResponse       = "loginResponse"
	eventPlayerConnect       = "playerConnect"
	eventPlayerAlreadyInScene = "playerAlreadyInScene"
	eventPlayerPosition      = "playerPosition"
	eventPlayerScale         = "playerScale"
	eventPlayerMapIcon       = "playerMapIcon"
	eventPlayerMapPosition   = "playerMapPosition"
	eventPlayerAnimation     = "playerAnimation"
	eventEntitySpawned       = "entitySpawned"
	eventEntityPosition      = "entityPosition"
	eventEntityScale         = "entityScale"
	eventEntityAnimation     = "entityAnimation"
	eventEntityActive        = "entityActive"
	eventEntityData          = "entityData"
	eventEntityHostFsm       = "entityHostFsm"
	eventSceneHostTransfer   = "sceneHostTransfer"
	eventServerSettings      = "serverSettings"
	eventDisconnect          = "disconnect"
)

// outboundBuilder is the per-client relay.UpdateBuilder implementation:
// every method marshals one Frame and hands it to the owning Client,
// which sorts it onto the priority or normal send channel.
type outboundBuilder struct {
	client *Client
}

func newOutboundBuilder(c *Client) *outboundBuilder {
	return &outboundBuilder{client: c}
}

// send encodes and enqueues a frame, logging (via the client's
// deliver method) rather than returning an error: a build-side encode
// failure is a bug in this package, not something a caller of
// relay.UpdateBuilder can act on.
func (b *outboundBuilder) send(event string, priority bool, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		b.client.logEncodeError(event, err)
		return
	}
	b.client.deliver(frame, priority)
}

type helloClientWire struct {
	Status         int32              `json:"status"`
	PlayerID       uint16             `json:"playerId"`
	AddonOrder     []int32            `json:"addonOrder,omitempty"`
	ServerAddonSet []addonVersionWire `json:"serverAddonSet,omitempty"`
	SceneHost      bool               `json:"sceneHost"`
}

func (b *outboundBuilder) SetHelloClientData(resp relay.LoginResponse, sceneHost bool) {
	server := make([]addonVersionWire, 0, len(resp.ServerAddonSet))
	for _, a := range resp.ServerAddonSet {
		server = append(server, addonVersionFromDomain(a))
	}
	b.send(eventHelloClient, true, helloClientWire{
		Status:         int32(resp.Status),
		PlayerID:       uint16(resp.PlayerID),
		AddonOrder:     resp.AddonOrder,
		ServerAddonSet: server,
		SceneHost:      sceneHost,
	})
}

type loginResponseWire struct {
	Status         int32              `json:"status"`
	PlayerID       uint16             `json:"playerId"`
	AddonOrder     []int32            `json:"addonOrder,omitempty"`
	ServerAddonSet []addonVersionWire `json:"serverAddonSet,omitempty"`
}

func (b *outboundBuilder) SetLoginResponse(resp relay.LoginResponse) {
	server := make([]addonVersionWire, 0, len(resp.ServerAddonSet))
	for _, a := range resp.ServerAddonSet {
		server = append(server, addonVersionFromDomain(a))
	}
	b.send(eventLoginResponse, true, loginResponseWire{
		Status:         int32(resp.Status),
		PlayerID:       uint16(resp.PlayerID),
		AddonOrder:     resp.AddonOrder,
		ServerAddonSet: server,
	})
}

type playerIDWire struct {
	PlayerID uint16 `json:"playerId"`
}

type playerConnectWire struct {
	PlayerID uint16 `json:"playerId"`
	Username string `json:"username"`
}

func (b *outboundBuilder) AddPlayerConnectData(id relay.PlayerID, username string) {
	b.send(eventPlayerConnect, false, playerConnectWire{PlayerID: uint16(id), Username: username})
}

type playerDisconnectWireOut struct {
	PlayerID uint16 `json:"playerId"`
	Username string `json:"username"`
	Timeout  bool   `json:"timeout,omitempty"`
}

func (b *outboundBuilder) AddPlayerDisconnectData(id relay.PlayerID, username string, timeout bool) {
	b.send(eventPlayerDisconnect, false, playerDisconnectWireOut{PlayerID: uint16(id), Username: username, Timeout: timeout})
}

func (b *outboundBuilder) AddPlayerEnterSceneData(id relay.PlayerID) {
	b.send(eventPlayerEnterScene, false, playerIDWire{PlayerID: uint16(id)})
}

func (b *outboundBuilder) AddPlayerLeaveSceneData(id relay.PlayerID) {
	b.send(eventPlayerLeaveScene, false, playerIDWire{PlayerID: uint16(id)})
}

type entitySpawnReplayWire struct {
	Key          entityKeyWire `json:"key"`
	SpawningType int32         `json:"spawningType"`
	SpawnedType  int32         `json:"spawnedType"`
}

type entityUpdateReplayWire struct {
	Key         entityKeyWire          `json:"key"`
	HasPosition bool                   `json:"hasPosition,omitempty"`
	Position    vec2Wire               `json:"position,omitempty"`
	HasScale    bool                   `json:"hasScale,omitempty"`
	Scale       vec2Wire               `json:"scale,omitempty"`
	HasAnimID   bool                   `json:"hasAnimId,omitempty"`
	AnimationID int32                  `json:"animationId,omitempty"`
	HasIsActive bool                   `json:"hasIsActive,omitempty"`
	IsActive    bool                   `json:"isActive,omitempty"`
	GenericData []genericDataEntryWire `json:"genericData,omitempty"`
	HostFsmData map[int32]fsmSnapshotWire `json:"hostFsmData,omitempty"`
}

type playerAlreadyInSceneWire struct {
	Peers     []uint16                 `json:"peers,omitempty"`
	Spawns    []entitySpawnReplayWire  `json:"spawns,omitempty"`
	Updates   []entityUpdateReplayWire `json:"updates,omitempty"`
	SceneHost bool                     `json:"sceneHost"`
}

func (b *outboundBuilder) AddPlayerAlreadyInSceneData(peers []relay.PlayerID, spawns []relay.EntitySpawnReplay, updates []relay.EntityUpdateReplay, sceneHost bool) {
	peerIDs := make([]uint16, len(peers))
	for i, p := range peers {
		peerIDs[i] = uint16(p)
	}
	spawnWires := make([]entitySpawnReplayWire, len(spawns))
	for i, s := range spawns {
		spawnWires[i] = entitySpawnReplayWire{
			Key:          entityKeyFromDomain(s.Key),
			SpawningType: s.SpawningType,
			SpawnedType:  s.SpawnedType,
		}
	}
	updateWires := make([]entityUpdateReplayWire, len(updates))
	for i, u := range updates {
		var hostFsm map[int32]fsmSnapshotWire
		if len(u.HostFsmData) > 0 {
			hostFsm = make(map[int32]fsmSnapshotWire, len(u.HostFsmData))
			for k, v := range u.HostFsmData {
				hostFsm[k] = fsmSnapshotFromDomain(v)
			}
		}
		genericData := make([]genericDataEntryWire, len(u.GenericData))
		for j, g := range u.GenericData {
			genericData[j] = genericDataEntryFromDomain(g)
		}
		updateWires[i] = entityUpdateReplayWire{
			Key:         entityKeyFromDomain(u.Key),
			HasPosition: u.HasPosition,
			Position:    vec2FromDomain(u.Position),
			HasScale:    u.HasScale,
			Scale:       vec2FromDomain(u.Scale),
			HasAnimID:   u.HasAnimID,
			AnimationID: u.AnimationID,
			HasIsActive: u.HasIsActive,
			IsActive:    u.IsActive,
			GenericData: genericData,
			HostFsmData: hostFsm,
		}
	}
	b.send(eventPlayerAlreadyInScene, true, playerAlreadyInSceneWire{
		Peers:     peerIDs,
		Spawns:    spawnWires,
		Updates:   updateWires,
		SceneHost: sceneHost,
	})
}

func (b *outboundBuilder) AddPlayerDeathData(id relay.PlayerID) {
	b.send(eventPlayerDeath, false, playerIDWire{PlayerID: uint16(id)})
}

type playerTeamUpdateWireOut struct {
	PlayerID uint16 `json:"playerId"`
	Team     int32  `json:"team"`
}

func (b *outboundBuilder) AddPlayerTeamUpdateData(id relay.PlayerID, team int32) {
	b.send(eventPlayerTeamUpdate, false, playerTeamUpdateWireOut{PlayerID: uint16(id), Team: team})
}

type playerSkinUpdateWireOut struct {
	PlayerID uint16 `json:"playerId"`
	SkinID   int32  `json:"skinId"`
}

func (b *outboundBuilder) AddPlayerSkinUpdateData(id relay.PlayerID, skinID int32) {
	b.send(eventPlayerSkinUpdate, false, playerSkinUpdateWireOut{PlayerID: uint16(id), SkinID: skinID})
}

func (b *outboundBuilder) AddChatMessage(text string) {
	b.send(eventChatMessage, false, chatMessageWire{Text: text})
}

type playerPositionWire struct {
	PlayerID uint16   `json:"playerId"`
	Position vec2Wire `json:"position"`
}

func (b *outboundBuilder) UpdatePlayerPosition(id relay.PlayerID, pos relay.Vec2) {
	b.send(eventPlayerPosition, false, playerPositionWire{PlayerID: uint16(id), Position: vec2FromDomain(pos)})
}

type playerScaleWire struct {
	PlayerID uint16 `json:"playerId"`
	Scale    bool   `json:"scale"`
}

func (b *outboundBuilder) UpdatePlayerScale(id relay.PlayerID, scale bool) {
	b.send(eventPlayerScale, false, playerScaleWire{PlayerID: uint16(id), Scale: scale})
}

type playerMapIconWire struct {
	PlayerID   uint16 `json:"playerId"`
	HasMapIcon bool   `json:"hasMapIcon"`
}

func (b *outboundBuilder) UpdatePlayerMapIcon(id relay.PlayerID, hasIcon bool) {
	b.send(eventPlayerMapIcon, false, playerMapIconWire{PlayerID: uint16(id), HasMapIcon: hasIcon})
}

type playerMapPositionWire struct {
	PlayerID    uint16          `json:"playerId"`
	MapPosition mapPositionWire `json:"mapPosition"`
}

func (b *outboundBuilder) UpdatePlayerMapPosition(id relay.PlayerID, pos relay.MapPosition) {
	b.send(eventPlayerMapPosition, false, playerMapPositionWire{PlayerID: uint16(id), MapPosition: mapPositionFromDomain(pos)})
}

type playerAnimationWire struct {
	PlayerID   uint16 `json:"playerId"`
	ClipID     int32  `json:"clipId"`
	Frame      int32  `json:"frame"`
	EffectInfo []byte `json:"effectInfo,omitempty"`
}

func (b *outboundBuilder) UpdatePlayerAnimation(id relay.PlayerID, clipID, frame int32, effectInfo []byte) {
	b.send(eventPlayerAnimation, false, playerAnimationWire{PlayerID: uint16(id), ClipID: clipID, Frame: frame, EffectInfo: effectInfo})
}

type entitySpawnedWire struct {
	Key          entityKeyWire `json:"key"`
	SpawningType int32         `json:"spawningType"`
	SpawnedType  int32         `json:"spawnedType"`
}

func (b *outboundBuilder) SetEntitySpawn(key relay.EntityKey, spawningType, spawnedType int32) {
	b.send(eventEntitySpawned, false, entitySpawnedWire{Key: entityKeyFromDomain(key), SpawningType: spawningType, SpawnedType: spawnedType})
}

type entityPositionWire struct {
	Key      entityKeyWire `json:"key"`
	Position vec2Wire      `json:"position"`
}

func (b *outboundBuilder) UpdateEntityPosition(key relay.EntityKey, pos relay.Vec2) {
	b.send(eventEntityPosition, false, entityPositionWire{Key: entityKeyFromDomain(key), Position: vec2FromDomain(pos)})
}

type entityScaleWire struct {
	Key   entityKeyWire `json:"key"`
	Scale vec2Wire      `json:"scale"`
}

func (b *outboundBuilder) UpdateEntityScale(key relay.EntityKey, scale relay.Vec2) {
	b.send(eventEntityScale, false, entityScaleWire{Key: entityKeyFromDomain(key), Scale: vec2FromDomain(scale)})
}

type entityAnimationWire struct {
	Key         entityKeyWire `json:"key"`
	ClipID      int32         `json:"clipId"`
	WrapMode    int32         `json:"wrapMode"`
}

func (b *outboundBuilder) UpdateEntityAnimation(key relay.EntityKey, clipID int32, wrapMode int32) {
	b.send(eventEntityAnimation, false, entityAnimationWire{Key: entityKeyFromDomain(key), ClipID: clipID, WrapMode: wrapMode})
}

type entityActiveWire struct {
	Key    entityKeyWire `json:"key"`
	Active bool          `json:"active"`
}

func (b *outboundBuilder) UpdateEntityIsActive(key relay.EntityKey, active bool) {
	b.send(eventEntityActive, false, entityActiveWire{Key: entityKeyFromDomain(key), Active: active})
}

type entityDataWire struct {
	Key   entityKeyWire        `json:"key"`
	Entry genericDataEntryWire `json:"entry"`
}

func (b *outboundBuilder) AddEntityData(key relay.EntityKey, entry relay.GenericDataEntry) {
	b.send(eventEntityData, false, entityDataWire{Key: entityKeyFromDomain(key), Entry: genericDataEntryFromDomain(entry)})
}

type entityHostFsmWire struct {
	Key      entityKeyWire   `json:"key"`
	FsmIndex int32           `json:"fsmIndex"`
	Snapshot fsmSnapshotWire `json:"snapshot"`
}

func (b *outboundBuilder) AddEntityHostFsmData(key relay.EntityKey, fsmIndex int32, snapshot relay.FsmSnapshot) {
	b.send(eventEntityHostFsm, false, entityHostFsmWire{Key: entityKeyFromDomain(key), FsmIndex: fsmIndex, Snapshot: fsmSnapshotFromDomain(snapshot)})
}

func (b *outboundBuilder) SetSceneHostTransfer() {
	b.send(eventSceneHostTransfer, true, struct{}{})
}

type serverSettingsWire struct {
	AlwaysShowMapIcons                    bool `json:"alwaysShowMapIcons"`
	OnlyBroadcastMapIconWithWaywardCompass bool `json:"onlyBroadcastMapIconWithWaywardCompass"`
}

func (b *outboundBuilder) UpdateServerSettings(settings relay.ServerSettings) {
	b.send(eventServerSettings, false, serverSettingsWire{
		AlwaysShowMapIcons:                    settings.AlwaysShowMapIcons,
		OnlyBroadcastMapIconWithWaywardCompass: settings.OnlyBroadcastMapIconWithWaywardCompass,
	})
}

type disconnectWire struct {
	Reason int32 `json:"reason"`
}

func (b *outboundBuilder) SetDisconnect(reason relay.DisconnectReason) {
	b.send(eventDisconnect, true, disconnectWire{Reason: int32(reason)})
}
