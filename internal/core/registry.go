package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[DataType]DatasetDefinition)
	registryMu sync.RWMutex
)

// Register adds a dataset definition to the registry.
// Panics if the type is already registered or the definition is incomplete.
func Register(def DatasetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Type]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", def.Info.Type))
	}
	if len(def.Info.Sources) == 0 || def.Prepare == nil {
		panic(fmt.Sprintf("dataset %s: sources and Prepare are required", def.Info.Type))
	}
	if len(def.Info.Sources) > 1 && !def.Info.Archive {
		panic(fmt.Sprintf("dataset %s: multiple sources must arrive as an archive", def.Info.Type))
	}

	registry[def.Info.Type] = def
}

// Get returns a dataset definition by type.
func Get(t DataType) (DatasetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[t]
	return def, ok
}

// All returns every registered definition sorted by type.
func All() []DatasetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasetDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Type < result[j].Info.Type
	})
	return result
}

// Clear removes all registered datasets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[DataType]DatasetDefinition)
}
