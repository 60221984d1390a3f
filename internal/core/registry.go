package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]EntityDefinition)
	registryMu sync.RWMutex
)

// Register adds an entity definition to the registry.
// Panics if the key is taken or the definition is malformed.
func Register(def EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("entity already registered: %s", def.Info.Key))
	}
	if err := checkDefinition(def); err != nil {
		panic(fmt.Sprintf("invalid entity %s: %v", def.Info.Key, err))
	}

	// Populate Columns from Fields if not set
	if len(def.Info.Columns) == 0 && len(def.Fields) > 0 {
		def.Info.Columns = make([]string, len(def.Fields))
		for i, f := range def.Fields {
			def.Info.Columns[i] = f.Name
		}
	}

	registry[def.Info.Key] = def
}

// checkDefinition rejects definitions the mapper could not process.
func checkDefinition(def EntityDefinition) error {
	if def.Info.Key == "" {
		return fmt.Errorf("missing key")
	}
	if def.Info.Table == "" {
		return fmt.Errorf("missing table")
	}
	if len(def.Info.AllowedRoles) == 0 {
		return fmt.Errorf("no allowed roles")
	}

	seen := make(map[string]string)
	for _, f := range def.Fields {
		switch f.Type {
		case FieldText, FieldInteger, FieldList, FieldDate, FieldBool:
		case FieldEnum:
			if len(f.EnumValues) == 0 {
				return fmt.Errorf("enum field %q has no values", f.Name)
			}
		case FieldReference:
			if f.Ref == "" {
				return fmt.Errorf("reference field %q has no ref", f.Name)
			}
		default:
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}

		for _, h := range append([]string{f.Name}, f.Aliases...) {
			h = strings.ToLower(h)
			if owner, dup := seen[h]; dup {
				return fmt.Errorf("header %q claimed by both %q and %q", h, owner, f.Name)
			}
			seen[h] = f.Name
		}
	}
	return nil
}

// Get returns an entity definition by key.
// Returns false if not found.
func Get(key string) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered entity definitions sorted by key.
func All() []EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}
