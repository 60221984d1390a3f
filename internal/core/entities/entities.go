// Package entities holds the declarative import schemas for every importable
// entity and registers them with core at init time.
//
// Each schema is a YAML file under schemas/ describing the target table, the
// roles allowed to import, forced and default values, sample rows for the
// template, and the field list (name, header aliases, coercion type,
// validation tag, reference list).
package entities

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

//go:embed schemas/*.yaml
var schemaFS embed.FS

// schemaFile is the on-disk shape of one entity schema.
type schemaFile struct {
	core.EntityInfo `yaml:",inline"`
	Fields          []core.FieldSpec `yaml:"fields"`
}

func init() {
	defs, err := Load(schemaFS)
	if err != nil {
		panic(fmt.Sprintf("load entity schemas: %v", err))
	}
	for _, def := range defs {
		core.Register(def)
	}
}

// Load parses every schemas/*.yaml file in fsys, sorted by file name.
func Load(fsys fs.FS) ([]core.EntityDefinition, error) {
	names, err := fs.Glob(fsys, "schemas/*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	defs := make([]core.EntityDefinition, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Parse decodes a single schema. Unknown keys are rejected so typos in a
// schema fail loudly instead of silently dropping a setting.
func Parse(data []byte) (core.EntityDefinition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sf schemaFile
	if err := dec.Decode(&sf); err != nil {
		return core.EntityDefinition{}, fmt.Errorf("decode schema: %w", err)
	}
	if sf.Key == "" {
		return core.EntityDefinition{}, fmt.Errorf("schema has no key")
	}
	if len(sf.Fields) == 0 {
		return core.EntityDefinition{}, fmt.Errorf("schema %s has no fields", sf.Key)
	}

	return core.EntityDefinition{Info: sf.EntityInfo, Fields: sf.Fields}, nil
}
