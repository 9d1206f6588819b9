package core

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]GridDefinition)
)

// Register adds a grid definition. It panics on a duplicate key or a
// definition that cannot describe a table; registration happens at startup
// where either is a deployment mistake.
func Register(def GridDefinition) {
	if err := def.Validate(); err != nil {
		panic(fmt.Sprintf("invalid grid %q: %v", def.Info.Key, err))
	}
	if def.Info.Label == "" {
		def.Info.Label = def.Info.Key
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("grid already registered: %s", def.Info.Key))
	}
	registry[def.Info.Key] = def
}

// Get returns a grid definition by key.
func Get(key string) (GridDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[key]
	return def, ok
}

// All returns every definition, sorted by group then key.
func All() []GridDefinition {
	return collect(func(GridDefinition) bool { return true })
}

// ByGroup returns the definitions of one group, sorted by key.
func ByGroup(group string) []GridDefinition {
	return collect(func(def GridDefinition) bool { return def.Info.Group == group })
}

func collect(keep func(GridDefinition) bool) []GridDefinition {
	registryMu.RLock()
	var result []GridDefinition
	for _, def := range registry {
		if keep(def) {
			result = append(result, def)
		}
	}
	registryMu.RUnlock()

	slices.SortFunc(result, func(a, b GridDefinition) int {
		return cmp.Or(
			cmp.Compare(a.Info.Group, b.Info.Group),
			cmp.Compare(a.Info.Key, b.Info.Key),
		)
	})
	return result
}

// Groups returns the distinct group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]struct{}, len(registry))
	for _, def := range registry {
		seen[def.Info.Group] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// GridCount returns the number of registered grids.
func GridCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear empties the registry. Tests use it between cases.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	clear(registry)
}
