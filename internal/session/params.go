// Package session holds per-console-session state: the global parameter
// store consulted by the prompt layer and the JSON session file used for
// import/export of collected results.
package session

import (
	"sort"
	"sync"
)

// Params is the session-scoped parameter store. It is constructed once at
// console start, mutated only through Set, and read by the prompt compiler
// as the highest-precedence option default. Never persisted.
type Params struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewParams creates an empty parameter store.
func NewParams() *Params {
	return &Params{values: make(map[string]any)}
}

// Set stores a value under the given name, replacing any previous value.
func (p *Params) Set(name string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[name] = value
}

// Get returns the value for name. The second return distinguishes a stored
// zero value from absence.
func (p *Params) Get(name string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[name]
	return v, ok
}

// Unset removes a value. Removing an absent name is a no-op.
func (p *Params) Unset(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, name)
}

// Env returns a copy of the full store for display.
func (p *Params) Env() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Names returns all parameter names in sorted order.
func (p *Params) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.values))
	for k := range p.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
