// Package module implements the module registry and execution driver.
// Modules are built-in Go structs registered at startup.
package module

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// Registry holds all available modules.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]sdk.Module
	logger  zerolog.Logger
}

// NewRegistry creates a module registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		modules: make(map[string]sdk.Module),
		logger:  logger,
	}
}

// Register adds a module to the registry.
func (r *Registry) Register(mod sdk.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta := mod.Meta()
	r.modules[meta.ID] = mod
	r.logger.Debug().Str("module", meta.ID).Str("version", meta.Version).Msg("module registered")
}

// Get returns a module by ID.
func (r *Registry) Get(id string) (sdk.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mod, ok := r.modules[id]
	return mod, ok
}

// List returns all registered module metadata.
func (r *Registry) List() []sdk.ModuleMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var metas []sdk.ModuleMeta
	for _, mod := range r.modules {
		metas = append(metas, mod.Meta())
	}
	return metas
}

// Search returns modules matching the given criteria.
func (r *Registry) Search(keyword, service, riskClass string) []sdk.ModuleMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keyword = strings.ToLower(keyword)
	service = strings.ToLower(service)
	riskClass = strings.ToLower(riskClass)

	var results []sdk.ModuleMeta
	for _, mod := range r.modules {
		meta := mod.Meta()
		if !matchesFilter(meta, keyword, service, riskClass) {
			continue
		}
		results = append(results, meta)
	}
	return results
}

func matchesFilter(meta sdk.ModuleMeta, keyword, service, riskClass string) bool {
	if keyword != "" {
		haystack := strings.ToLower(meta.ID + " " + meta.Name + " " + meta.Description)
		if !strings.Contains(haystack, keyword) {
			return false
		}
	}
	if service != "" && strings.ToLower(meta.Service) != service {
		return false
	}
	if riskClass != "" && strings.ToLower(meta.RiskClass) != riskClass {
		return false
	}
	return true
}

// RegisterBuiltinModules registers all built-in modules with the registry.
// The logger is threaded into each module so attempt-level executor logging
// ends up in the engine's log stream.
func RegisterBuiltinModules(reg *Registry, logger zerolog.Logger) {
	reg.Register(&SSHBruteModule{log: logger})
	reg.Register(&FTPBruteModule{log: logger})
	reg.Register(&HTTPBasicBruteModule{log: logger})
	reg.Register(&TCPBannerModule{log: logger})
}
