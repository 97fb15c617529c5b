package relay

// SceneHostElector tracks and transfers the IsSceneHost flag: the
// first client in an empty scene becomes host, generalized so both
// initial election (in PlayerLifecycle) and succession on exit consult
// the same membership view.
type SceneHostElector struct {
	index *SceneIndex
}

// NewSceneHostElector wires the elector to the scene membership view it
// reads from.
func NewSceneHostElector(index *SceneIndex) *SceneHostElector {
	return &SceneHostElector{index: index}
}

// ElectInitial reports whether the entering player should become host
// immediately: true exactly when no other occupant remains in scene.
func (e *SceneHostElector) ElectInitial(scene SceneID, entering PlayerID) bool {
	return len(e.index.PeersInScene(scene, entering)) == 0
}

// HandleDeparture: if leaver held host status in scene, the first
// other remaining occupant (by SessionTable snapshot order) is
// promoted and returned; the flag is cleared on leaver regardless of
// whether a successor was found. Returns nil if no successor exists
// (scene is now empty of occupants other than leaver).
func (e *SceneHostElector) HandleDeparture(scene SceneID, leaver *PlayerRecord) *PlayerRecord {
	wasHost := leaver.IsHost()
	leaver.SetIsSceneHost(false)
	if !wasHost {
		return nil
	}
	remaining := e.index.PeersInScene(scene, leaver.ID)
	if len(remaining) == 0 {
		return nil
	}
	successor := remaining[0]
	successor.SetIsSceneHost(true)
	return successor
}
