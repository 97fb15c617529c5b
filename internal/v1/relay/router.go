package relay

import (
	"context"
	"fmt"
	"sync"
)

// InboundKind tags an inbound frame's kind, modeling polymorphism over
// packet kinds as a small integer id rather than a type switch over
// concrete packet structs.
type InboundKind int

const (
	KindHelloServer InboundKind = iota
	KindPlayerEnterScene
	KindPlayerLeaveScene
	KindPlayerUpdate
	KindPlayerMapUpdate
	KindEntitySpawn
	KindEntityUpdate
	KindPlayerDisconnect
	KindPlayerDeath
	KindPlayerTeamUpdate
	KindPlayerSkinUpdate
	KindChatMessage
)

// PlayerUpdateRequest carries the present sub-fields of an inbound
// PlayerUpdate frame: Position, Scale, MapPosition, Animation, each
// gated by its own Has flag.
type PlayerUpdateRequest struct {
	HasPosition bool
	Position    Vec2

	HasScale bool
	Scale    bool

	HasMapPosition bool
	MapPosition    MapPosition

	HasAnimation bool
	Animation    []AnimationClip
}

// InboundMessage is the tagged variant the UpdateRouter dispatches on.
// Only the field matching Kind is read.
type InboundMessage struct {
	Kind InboundKind

	Hello           HelloRequest
	EnterSceneScene SceneID
	PlayerUpdate    PlayerUpdateRequest
	HasMapIcon      bool
	EntitySpawn     EntitySpawnRequest
	EntityUpdate    EntityUpdateRequest
	Timeout         bool
	Team            int32
	SkinID          int32
	ChatText        string
}

// UpdateRouter dispatches inbound frames by kind to a handler and
// mediates egress fan-out through SceneIndex. Gating here is purely
// structural: every authenticated, scene-bound player may send every
// PlayerUpdate kind. The one remaining permission axis, host-only
// EntitySpawn, is enforced inside EntityRelay.
type UpdateRouter struct {
	sessions  *SessionTable
	scenes    *SceneIndex
	lifecycle *PlayerLifecycle
	entities  *EntityRelay
	chat      *ChatRouter
	transport Transport
	logger    Logger

	handlers map[InboundKind]func(ctx context.Context, senderID PlayerID, msg InboundMessage)

	settingsMu sync.Mutex
	settings   ServerSettings
}

// NewUpdateRouter wires the router to every component it dispatches
// into.
func NewUpdateRouter(sessions *SessionTable, scenes *SceneIndex, lifecycle *PlayerLifecycle, entities *EntityRelay, chat *ChatRouter, transport Transport, logger Logger) *UpdateRouter {
	r := &UpdateRouter{
		sessions:  sessions,
		scenes:    scenes,
		lifecycle: lifecycle,
		entities:  entities,
		chat:      chat,
		transport: transport,
		logger:    logger,
	}
	r.handlers = map[InboundKind]func(context.Context, PlayerID, InboundMessage){
		KindHelloServer:      r.handleHello,
		KindPlayerEnterScene: r.handleEnterScene,
		KindPlayerLeaveScene: r.handleLeaveScene,
		KindPlayerUpdate:     r.handlePlayerUpdate,
		KindPlayerMapUpdate:  r.handlePlayerMapUpdate,
		KindEntitySpawn:      r.handleEntitySpawn,
		KindEntityUpdate:     r.handleEntityUpdate,
		KindPlayerDisconnect: r.handlePlayerDisconnect,
		KindPlayerDeath:      r.handlePlayerDeath,
		KindPlayerTeamUpdate: r.handlePlayerTeamUpdate,
		KindPlayerSkinUpdate: r.handlePlayerSkinUpdate,
		KindChatMessage:      r.handleChatMessage,
	}
	return r
}

// Route dispatches msg to the handler registered for its Kind. Frames
// from a single client must be delivered to Route in the order
// Transport received them; Route itself does not reorder.
func (r *UpdateRouter) Route(ctx context.Context, senderID PlayerID, msg InboundMessage) error {
	handler, ok := r.handlers[msg.Kind]
	if !ok {
		return fmt.Errorf("%w: unrecognized inbound kind %d", ErrProtocolViolation, msg.Kind)
	}
	handler(ctx, senderID, msg)
	return nil
}

func (r *UpdateRouter) handleHello(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	if err := r.lifecycle.Hello(ctx, senderID, msg.Hello); err != nil && r.logger != nil {
		r.logger.Warn(ctx, "Hello failed", "playerId", senderID, "error", err)
	}
}

func (r *UpdateRouter) handleEnterScene(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	if err := r.lifecycle.EnterScene(ctx, senderID, msg.EnterSceneScene); err != nil && r.logger != nil {
		r.logger.Warn(ctx, "EnterScene failed", "playerId", senderID, "error", err)
	}
}

func (r *UpdateRouter) handleLeaveScene(ctx context.Context, senderID PlayerID, _ InboundMessage) {
	if err := r.lifecycle.LeaveScene(ctx, senderID); err != nil && r.logger != nil {
		r.logger.Warn(ctx, "LeaveScene failed", "playerId", senderID, "error", err)
	}
}

func (r *UpdateRouter) handlePlayerDisconnect(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	_ = r.lifecycle.Disconnect(ctx, senderID, msg.Timeout)
}

// handlePlayerUpdate applies each present sub-field independently and
// fans out only the sub-fields that arrived, rather than resending the
// whole record.
func (r *UpdateRouter) handlePlayerUpdate(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	rec := r.sessions.Get(senderID)
	if rec == nil {
		return
	}
	u := msg.PlayerUpdate
	scene := rec.Scene()

	if u.HasPosition {
		rec.Position = u.Position
		for _, peer := range r.scenes.PeersInScene(scene, senderID) {
			if ob := r.transport.OutboxFor(peer.ID); ob != nil {
				ob.UpdatePlayerPosition(senderID, u.Position)
			}
		}
	}
	if u.HasScale {
		rec.Scale = u.Scale
		for _, peer := range r.scenes.PeersInScene(scene, senderID) {
			if ob := r.transport.OutboxFor(peer.ID); ob != nil {
				ob.UpdatePlayerScale(senderID, u.Scale)
			}
		}
	}
	if u.HasAnimation && len(u.Animation) > 0 {
		for _, clip := range u.Animation {
			if clip.ClipID < AnimationCanonicalSentinel {
				rec.AnimationID = clip.ClipID
			}
		}
		peers := r.scenes.PeersInScene(scene, senderID)
		for _, clip := range u.Animation {
			for _, peer := range peers {
				if ob := r.transport.OutboxFor(peer.ID); ob != nil {
					ob.UpdatePlayerAnimation(senderID, clip.ClipID, clip.Frame, clip.EffectInfo)
				}
			}
		}
	}
	if u.HasMapPosition {
		rec.MapPos = u.MapPosition
		if r.shouldBroadcastMapIcons() && rec.HasMapIcon {
			for _, other := range r.sessions.Snapshot() {
				if other.ID == senderID {
					continue
				}
				if ob := r.transport.OutboxFor(other.ID); ob != nil {
					ob.UpdatePlayerMapPosition(senderID, u.MapPosition)
				}
			}
		}
	}
}

// handlePlayerMapUpdate stores hasMapIcon, fans it out to every other
// record regardless of scene, and if the flag just became true, also
// fans out the record's stored map position. No check is made that a
// map position was ever received: a player who never sent one has the
// zero MapPosition sent.
func (r *UpdateRouter) handlePlayerMapUpdate(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	rec := r.sessions.Get(senderID)
	if rec == nil {
		return
	}
	becameTrue := msg.HasMapIcon && !rec.HasMapIcon
	rec.HasMapIcon = msg.HasMapIcon

	for _, other := range r.sessions.Snapshot() {
		if other.ID == senderID {
			continue
		}
		ob := r.transport.OutboxFor(other.ID)
		if ob == nil {
			continue
		}
		ob.UpdatePlayerMapIcon(senderID, msg.HasMapIcon)
		if becameTrue {
			ob.UpdatePlayerMapPosition(senderID, rec.MapPos)
		}
	}
}

func (r *UpdateRouter) handleEntitySpawn(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	r.entities.Spawn(ctx, senderID, msg.EntitySpawn)
}

func (r *UpdateRouter) handleEntityUpdate(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	r.entities.Update(ctx, senderID, msg.EntityUpdate)
}

// handlePlayerDeath broadcasts PlayerDeath to every other record
// sharing the sender's scene.
func (r *UpdateRouter) handlePlayerDeath(ctx context.Context, senderID PlayerID, _ InboundMessage) {
	rec := r.sessions.Get(senderID)
	if rec == nil {
		return
	}
	for _, peer := range r.scenes.PeersInScene(rec.Scene(), senderID) {
		if ob := r.transport.OutboxFor(peer.ID); ob != nil {
			ob.AddPlayerDeathData(senderID)
		}
	}
}

func (r *UpdateRouter) handlePlayerTeamUpdate(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	rec := r.sessions.Get(senderID)
	if rec == nil {
		return
	}
	rec.Team = msg.Team
	for _, peer := range r.scenes.PeersInScene(rec.Scene(), senderID) {
		if ob := r.transport.OutboxFor(peer.ID); ob != nil {
			ob.AddPlayerTeamUpdateData(senderID, msg.Team)
		}
	}
}

// handlePlayerSkinUpdate only fans out when the skin actually changed.
func (r *UpdateRouter) handlePlayerSkinUpdate(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	rec := r.sessions.Get(senderID)
	if rec == nil {
		return
	}
	if rec.SkinID == msg.SkinID {
		return
	}
	rec.SkinID = msg.SkinID
	for _, peer := range r.scenes.PeersInScene(rec.Scene(), senderID) {
		if ob := r.transport.OutboxFor(peer.ID); ob != nil {
			ob.AddPlayerSkinUpdateData(senderID, msg.SkinID)
		}
	}
}

func (r *UpdateRouter) handleChatMessage(ctx context.Context, senderID PlayerID, msg InboundMessage) {
	r.chat.HandleChatMessage(ctx, senderID, msg.ChatText)
}

func (r *UpdateRouter) shouldBroadcastMapIcons() bool {
	r.settingsMu.Lock()
	defer r.settingsMu.Unlock()
	return r.settings.AlwaysShowMapIcons || r.settings.OnlyBroadcastMapIconWithWaywardCompass
}

// ApplyServerSettings updates the settings consulted by MapPosition
// fan-out and pushes them to every client, skipping the broadcast
// entirely when the new value is value-equal to the current one.
func (r *UpdateRouter) ApplyServerSettings(settings ServerSettings) {
	r.settingsMu.Lock()
	unchanged := r.settings == settings
	r.settings = settings
	r.settingsMu.Unlock()

	if unchanged {
		return
	}
	r.transport.SetDataForAllClients(func(_ PlayerID, b UpdateBuilder) {
		b.UpdateServerSettings(settings)
	})
}
