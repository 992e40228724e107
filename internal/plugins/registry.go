package plugins

import "github.com/EchoPBX/c2host/pkg/sdk"

// Registry holds one constructor per loaded library, keyed by the plugin's
// effective id. It is filled during startup and read-only afterwards.
type Registry struct {
	factories map[sdk.PluginID]sdk.Constructor
	order     []sdk.PluginID
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[sdk.PluginID]sdk.Constructor)}
}

// Register stores ctor under id. A second registration of the same id
// replaces the first one and reports replaced; the id keeps its original
// position in IDs.
func (r *Registry) Register(id sdk.PluginID, ctor sdk.Constructor) (replaced bool) {
	if _, replaced = r.factories[id]; !replaced {
		r.order = append(r.order, id)
	}
	r.factories[id] = ctor
	return replaced
}

func (r *Registry) Get(id sdk.PluginID) (sdk.Constructor, bool) {
	ctor, ok := r.factories[id]
	return ctor, ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []sdk.PluginID {
	out := make([]sdk.PluginID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }
