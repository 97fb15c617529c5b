package relay

import (
	"context"
	"fmt"
)

// HelloRequest carries the pose data a client's first frame after a
// successful login supplies.
type HelloRequest struct {
	Scene       SceneID
	Position    Vec2
	Scale       bool
	AnimationID int32
}

// PlayerLifecycle implements the connect/hello/enter-scene/leave-scene/
// disconnect/timeout flows. It is the only component that mutates
// CurrentScene and IsSceneHost, since those two fields carry the
// ordering guarantees the rest of the relay depends on.
type PlayerLifecycle struct {
	sessions  *SessionTable
	scenes    *SceneIndex
	entities  *EntityCache
	elector   *SceneHostElector
	transport Transport
	logger    Logger
}

// NewPlayerLifecycle wires the lifecycle handler to its collaborators.
func NewPlayerLifecycle(sessions *SessionTable, scenes *SceneIndex, entities *EntityCache, elector *SceneHostElector, transport Transport, logger Logger) *PlayerLifecycle {
	return &PlayerLifecycle{
		sessions:  sessions,
		scenes:    scenes,
		entities:  entities,
		elector:   elector,
		transport: transport,
		logger:    logger,
	}
}

// Hello transitions a freshly admitted record to its first scene,
// falling through to EnterScene using the scene named in the request.
func (l *PlayerLifecycle) Hello(ctx context.Context, id PlayerID, req HelloRequest) error {
	rec := l.sessions.Get(id)
	if rec == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownClient, id)
	}
	rec.Position = req.Position
	rec.Scale = req.Scale
	rec.AnimationID = req.AnimationID

	self := l.transport.OutboxFor(id)
	if self == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownClient, id)
	}

	// Connect is broadcast to every other active record regardless of
	// scene, since the new player has no scene yet at this point.
	for _, other := range l.sessions.Snapshot() {
		if other.ID == id {
			continue
		}
		if ob := l.transport.OutboxFor(other.ID); ob != nil {
			ob.AddPlayerConnectData(id, rec.Username)
		}
	}

	return l.EnterScene(ctx, id, req.Scene)
}

// EnterScene announces the entering player to current occupants,
// collects their identities, replays the cached entity state, and
// elects an initial host if the scene was empty.
func (l *PlayerLifecycle) EnterScene(ctx context.Context, id PlayerID, newScene SceneID) error {
	rec := l.sessions.Get(id)
	if rec == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownClient, id)
	}
	self := l.transport.OutboxFor(id)
	if self == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownClient, id)
	}

	previousScene := rec.Scene()
	if previousScene != "" {
		l.leaveScene(ctx, rec, previousScene, false)
	}

	rec.SetScene(newScene)

	occupants := l.scenes.PeersInScene(newScene, id)
	peerIDs := make([]PlayerID, 0, len(occupants))
	for _, peer := range occupants {
		peerIDs = append(peerIDs, peer.ID)
		if ob := l.transport.OutboxFor(peer.ID); ob != nil {
			ob.AddPlayerEnterSceneData(id)
		}
	}

	snapshot := l.entities.SnapshotScene(newScene)
	spawns := make([]EntitySpawnReplay, 0, len(snapshot))
	updates := make([]EntityUpdateReplay, 0, len(snapshot))
	for _, entry := range snapshot {
		st := entry.State
		if st.Spawned {
			spawns = append(spawns, EntitySpawnReplay{Key: entry.Key, SpawningType: st.SpawningType, SpawnedType: st.SpawnedType})
		}
		updates = append(updates, EntityUpdateReplay{
			Key:         entry.Key,
			HasPosition: st.HasPosition, Position: st.Position,
			HasScale: st.HasScale, Scale: st.Scale,
			HasAnimID: st.HasAnimID, AnimationID: st.AnimationID,
			HasIsActive: st.HasIsActive, IsActive: st.IsActive,
			GenericData: st.GenericData, HostFsmData: st.HostFsmData,
		})
	}

	sceneHost := l.elector.ElectInitial(newScene, id)
	if sceneHost {
		rec.SetIsSceneHost(true)
	}

	self.AddPlayerAlreadyInSceneData(peerIDs, spawns, updates, sceneHost)
	return nil
}

// LeaveScene handles a voluntary scene change (not a
// disconnect/timeout), returning the player to the no-scene state.
func (l *PlayerLifecycle) LeaveScene(ctx context.Context, id PlayerID) error {
	rec := l.sessions.Get(id)
	if rec == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownClient, id)
	}
	scene := rec.Scene()
	if scene == "" {
		return nil
	}
	l.leaveScene(ctx, rec, scene, false)
	rec.SetScene("")
	return nil
}

// leaveScene is the shared side-effect routine used by a voluntary
// scene transition, a disconnect, and a timeout. When disconnecting is
// true the departure notice itself (PlayerDisconnect) has already been
// fanned out to every active record by Disconnect; this pass only
// handles the scene-scoped consequences: host succession, clearing the
// leaver's scene, and cache purge.
func (l *PlayerLifecycle) leaveScene(ctx context.Context, rec *PlayerRecord, previousScene SceneID, disconnecting bool) {
	others := l.scenes.PeersInScene(previousScene, rec.ID)
	successor := l.elector.HandleDeparture(previousScene, rec)

	if !disconnecting {
		for _, other := range others {
			if ob := l.transport.OutboxFor(other.ID); ob != nil {
				ob.AddPlayerLeaveSceneData(rec.ID)
			}
		}
	}
	if successor != nil {
		if ob := l.transport.OutboxFor(successor.ID); ob != nil {
			ob.SetSceneHostTransfer()
		}
	}

	rec.SetScene("")
	if len(others) == 0 {
		l.entities.PurgeScene(previousScene)
	}
}

// Disconnect broadcasts PlayerDisconnect to every other record, runs
// leave-scene side effects if the departing player was in a scene, then
// removes it from the session table. timeout distinguishes a clean
// disconnect from a connection timeout as the cause.
//
// Fan-out lists are computed from the session table after the
// broadcast but before the removal, so they never include the very id
// that is departing.
func (l *PlayerLifecycle) Disconnect(ctx context.Context, id PlayerID, timeout bool) error {
	rec := l.sessions.Get(id)
	if rec == nil {
		// Idempotent: applying Disconnect twice for the same id is a
		// no-op after the first.
		return nil
	}

	for _, other := range l.sessions.Snapshot() {
		if other.ID == id {
			continue
		}
		if ob := l.transport.OutboxFor(other.ID); ob != nil {
			ob.AddPlayerDisconnectData(id, rec.Username, timeout)
		}
	}

	if scene := rec.Scene(); scene != "" {
		l.leaveScene(ctx, rec, scene, true)
	}

	l.sessions.Remove(id)
	return nil
}
