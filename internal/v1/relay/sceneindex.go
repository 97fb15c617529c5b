package relay

// SceneIndex is a lazy filter over SessionTable indexed by
// currentScene: a single derived view generalizing a per-room
// participant map into a cross-scene one. It is not materialized:
// PeersInScene reads CurrentScene off each record's live snapshot, so
// it is always consistent with the last SetScene call published by
// PlayerLifecycle.
type SceneIndex struct {
	table *SessionTable
}

// NewSceneIndex builds an index over table.
func NewSceneIndex(table *SessionTable) *SceneIndex {
	return &SceneIndex{table: table}
}

// PeersInScene returns every record currently in scene other than
// excluding, in SessionTable snapshot order.
func (s *SceneIndex) PeersInScene(scene SceneID, excluding PlayerID) []*PlayerRecord {
	all := s.table.Snapshot()
	out := make([]*PlayerRecord, 0, len(all))
	for _, rec := range all {
		if rec.ID == excluding {
			continue
		}
		if rec.Scene() == scene {
			out = append(out, rec)
		}
	}
	return out
}

// IsSceneEmpty reports whether no active record currently occupies
// scene.
func (s *SceneIndex) IsSceneEmpty(scene SceneID) bool {
	if scene == "" {
		return true
	}
	for _, rec := range s.table.Snapshot() {
		if rec.Scene() == scene {
			return false
		}
	}
	return true
}
