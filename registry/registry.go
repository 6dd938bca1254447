package registry

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch/types"
)

// Registry is an explicit, shareable node table. It is passed by handle into
// the selector and the health monitor; there is no module-level singleton.
//
// Identity fields of a node are immutable after registration. Availability
// and latency are mutated only through SetAvailability, which the health
// monitor owns. Readers always receive clones (snapshot semantics), so the
// query path never observes a node mid-update.
type Registry struct {
	mu sync.RWMutex

	// nodes stores registered nodes by ID.
	nodes map[string]*types.Node

	// store optionally persists node descriptors across restarts.
	store *Store

	logger *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore attaches a persistence store. Registered nodes are written
// through; previously persisted nodes can be loaded with LoadPersisted.
func WithStore(store *Store) Option {
	return func(r *Registry) { r.store = store }
}

// New creates an empty node registry.
func New(logger *zap.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		nodes:  make(map[string]*types.Node),
		logger: logger.With(zap.String("component", "registry")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a node to the registry. The descriptor is validated and
// rejected if a node with the same ID already exists.
func (r *Registry) Register(node *types.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[node.ID]; exists {
		return types.NewError(types.ErrNodeExists, "node already registered").WithNode(node.ID)
	}

	n := node.Clone()
	if n.RegisteredAt.IsZero() {
		n.RegisteredAt = time.Now()
	}
	r.nodes[n.ID] = n

	if r.store != nil {
		if err := r.store.Save(n); err != nil {
			// Registration stays in memory; persistence is best-effort.
			r.logger.Warn("failed to persist node", zap.String("node_id", n.ID), zap.Error(err))
		}
	}

	r.logger.Info("node registered",
		zap.String("node_id", n.ID),
		zap.String("domain", n.Domain),
		zap.String("privacy_tier", string(n.PrivacyTier)))
	return nil
}

// Remove deletes a node from the registry.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[id]; !exists {
		return types.NewError(types.ErrNodeNotFound, "node not registered").WithNode(id)
	}
	delete(r.nodes, id)

	if r.store != nil {
		if err := r.store.Delete(id); err != nil {
			r.logger.Warn("failed to delete persisted node", zap.String("node_id", id), zap.Error(err))
		}
	}

	r.logger.Info("node removed", zap.String("node_id", id))
	return nil
}

// Get returns a clone of the node with the given ID.
func (r *Registry) Get(id string) (*types.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// List returns clones of all registered nodes, ordered by ID for
// deterministic iteration.
func (r *Registry) List() []*types.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*types.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		nodes = append(nodes, n.Clone())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// SetAvailability updates the mutable health-owned fields of a node.
// Only the health monitor should call this.
func (r *Registry) SetAvailability(id string, available bool, latency time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[id]
	if !ok {
		return types.NewError(types.ErrNodeNotFound, "node not registered").WithNode(id)
	}
	n.Available = available
	if latency > 0 {
		n.LastLatency = latency
	}
	return nil
}

// LoadPersisted restores previously persisted nodes into the registry.
// Existing in-memory entries win over persisted ones.
func (r *Registry) LoadPersisted() (int, error) {
	if r.store == nil {
		return 0, nil
	}
	nodes, err := r.store.LoadAll()
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := 0
	for i := range nodes {
		n := nodes[i]
		if _, exists := r.nodes[n.ID]; exists {
			continue
		}
		// Persisted availability is stale by definition; the health monitor
		// re-establishes it on its first probe round.
		n.Available = false
		r.nodes[n.ID] = n.Clone()
		loaded++
	}

	r.logger.Info("persisted nodes loaded", zap.Int("count", loaded))
	return loaded, nil
}
