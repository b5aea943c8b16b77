package oracle

import (
	"fmt"
	"net/http"
	"sync"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
)

// Registry resolves source addresses to rate sources. It implements
// ports.RateSourceResolver.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.Address]ports.RateSource
}

var _ ports.RateSourceResolver = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[domain.Address]ports.RateSource)}
}

// NewHTTPRegistry registers an HTTPSource for every address -> URL pair.
func NewHTTPRegistry(feeds map[string]string, client *http.Client) (*Registry, error) {
	r := NewRegistry()
	for raw, url := range feeds {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("oracle feed %q: %w", raw, err)
		}
		r.Register(addr, NewHTTPSource(url, client))
	}
	return r, nil
}

// Register binds source to addr, replacing any previous binding.
func (r *Registry) Register(addr domain.Address, source ports.RateSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[addr] = source
}

// Resolve returns the source bound to addr.
func (r *Registry) Resolve(addr domain.Address) (ports.RateSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[addr]
	if !ok {
		return nil, fmt.Errorf("no rate source registered for %s", addr)
	}
	return s, nil
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
