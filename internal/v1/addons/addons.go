// Package addons implements relay.AddonRegistry as a small in-memory
// registry seeded at startup, the networked-addon-set counterpart of
// the relay's admission path.
package addons

import "github.com/duskward/relay/internal/v1/relay"

// Registry is an immutable, order-preserving set of addon versions the
// server accepts. Construct it once at startup from configuration.
type Registry struct {
	set  []relay.AddonVersion
	nums map[string]int32
}

// New builds a Registry from set, in the order it should be echoed back
// to a client, numbering each distinct identifier by its position.
func New(set []relay.AddonVersion) *Registry {
	nums := make(map[string]int32, len(set))
	for i, av := range set {
		nums[av.Identifier] = int32(i)
	}
	return &Registry{set: set, nums: nums}
}

// ServerAddonSet returns the server's full networked-addon set.
func (r *Registry) ServerAddonSet() []relay.AddonVersion {
	out := make([]relay.AddonVersion, len(r.set))
	copy(out, r.set)
	return out
}

// NumberOf returns the server-side numeric id for identifier.
func (r *Registry) NumberOf(identifier string) (int32, bool) {
	id, ok := r.nums[identifier]
	return id, ok
}
