// Package directory implements the bootstrap broker registry (§4.4): an
// append-only list with no liveness check and no eviction.
package directory

import (
	"sync"

	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// Registry is the directory's entire state: every broker that has ever
// registered, in registration order. Re-registration after a restart
// produces a duplicate entry (§9) — there is deliberately no dedup here.
type Registry struct {
	mu      sync.Mutex
	brokers []wire.BrokerEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends ip:port to the registry and returns the full broker
// list, including the entry just added.
func (r *Registry) Register(ip, port string) []wire.BrokerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brokers = append(r.brokers, wire.BrokerEntry{BrokerIP: ip, BrokerPort: port})
	out := make([]wire.BrokerEntry, len(r.brokers))
	copy(out, r.brokers)
	return out
}

// List returns every registered broker.
func (r *Registry) List() []wire.BrokerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]wire.BrokerEntry, len(r.brokers))
	copy(out, r.brokers)
	return out
}
