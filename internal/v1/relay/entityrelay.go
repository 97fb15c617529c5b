package relay

import "context"

// EntitySpawnRequest carries the fields of an inbound EntitySpawn frame.
type EntitySpawnRequest struct {
	EntityID     EntityID
	SpawningType int32
	SpawnedType  int32
}

// EntityUpdateRequest carries the present sub-fields of an inbound
// EntityUpdate frame: Position, Scale, Animation, Active, Data,
// HostFsm, each gated by its own Has flag.
type EntityUpdateRequest struct {
	EntityID EntityID

	HasPosition bool
	Position    Vec2
	HasScale    bool
	Scale       Vec2
	HasAnimation bool
	AnimationID int32
	AnimWrapMode int32
	HasActive   bool
	Active      bool

	Data []GenericDataEntry

	HasHostFsm bool
	FsmIndex   int32
	FsmData    FsmSnapshot
}

// EntityRelay applies and forwards entity spawn/update streams, merging
// into EntityCache with the same last-writer-wins field update style
// already used for PlayerRecord pose fields.
type EntityRelay struct {
	sessions  *SessionTable
	scenes    *SceneIndex
	entities  *EntityCache
	transport Transport
	logger    Logger
}

// NewEntityRelay wires the relay to its collaborators.
func NewEntityRelay(sessions *SessionTable, scenes *SceneIndex, entities *EntityCache, transport Transport, logger Logger) *EntityRelay {
	return &EntityRelay{sessions: sessions, scenes: scenes, entities: entities, transport: transport, logger: logger}
}

// Spawn silently rejects any sender that is not the scene host;
// otherwise the entity is created (or overwritten) and fanned out to
// every in-scene peer.
func (r *EntityRelay) Spawn(ctx context.Context, senderID PlayerID, req EntitySpawnRequest) {
	sender := r.sessions.Get(senderID)
	if sender == nil {
		return
	}
	if !sender.IsHost() {
		if r.logger != nil {
			r.logger.Warn(ctx, "dropping EntitySpawn from non-host sender", "playerId", senderID)
		}
		return
	}

	scene := sender.Scene()
	key := EntityKey{Scene: scene, EntityID: req.EntityID}
	state := r.entities.GetOrCreate(key)
	state.Spawned = true
	state.SpawningType = req.SpawningType
	state.SpawnedType = req.SpawnedType

	for _, peer := range r.scenes.PeersInScene(scene, senderID) {
		if ob := r.transport.OutboxFor(peer.ID); ob != nil {
			ob.SetEntitySpawn(key, req.SpawningType, req.SpawnedType)
		}
	}
}

// Update is accepted from any sender to tolerate ordering during host
// handoff. Each present sub-field is merged into EntityCache and
// fanned out as its own single-field update to every in-scene peer.
func (r *EntityRelay) Update(ctx context.Context, senderID PlayerID, req EntityUpdateRequest) {
	sender := r.sessions.Get(senderID)
	if sender == nil {
		return
	}
	scene := sender.Scene()
	key := EntityKey{Scene: scene, EntityID: req.EntityID}
	state := r.entities.GetOrCreate(key)
	peers := r.scenes.PeersInScene(scene, senderID)

	if req.HasPosition {
		state.HasPosition = true
		state.Position = req.Position
		for _, peer := range peers {
			if ob := r.transport.OutboxFor(peer.ID); ob != nil {
				ob.UpdateEntityPosition(key, req.Position)
			}
		}
	}
	if req.HasScale {
		state.HasScale = true
		state.Scale = req.Scale
		for _, peer := range peers {
			if ob := r.transport.OutboxFor(peer.ID); ob != nil {
				ob.UpdateEntityScale(key, req.Scale)
			}
		}
	}
	if req.HasAnimation {
		state.HasAnimID = true
		state.AnimationID = req.AnimationID
		state.AnimWrapMode = req.AnimWrapMode
		for _, peer := range peers {
			if ob := r.transport.OutboxFor(peer.ID); ob != nil {
				ob.UpdateEntityAnimation(key, req.AnimationID, req.AnimWrapMode)
			}
		}
	}
	if req.HasActive {
		state.HasIsActive = true
		state.IsActive = req.Active
		for _, peer := range peers {
			if ob := r.transport.OutboxFor(peer.ID); ob != nil {
				ob.UpdateEntityIsActive(key, req.Active)
			}
		}
	}
	for _, entry := range req.Data {
		state.MergeGenericData(entry)
		for _, peer := range peers {
			if ob := r.transport.OutboxFor(peer.ID); ob != nil {
				ob.AddEntityData(key, entry)
			}
		}
	}
	if req.HasHostFsm {
		state.MergeHostFsmData(req.FsmIndex, req.FsmData)
		for _, peer := range peers {
			if ob := r.transport.OutboxFor(peer.ID); ob != nil {
				ob.AddEntityHostFsmData(key, req.FsmIndex, req.FsmData)
			}
		}
	}
}
