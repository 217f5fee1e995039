package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds schemas by name in declaration order.
type Registry struct {
	byName map[string]*Schema
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Schema{}}
}

// Add registers s under its name.
func (r *Registry) Add(s *Schema) error {
	if _, ok := r.byName[s.Name]; ok {
		return fmt.Errorf("%w: duplicate schema %q", ErrInvalidSchema, s.Name)
	}
	r.byName[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// Lookup returns the schema called name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// ByType returns the schema with type identifier t.
func (r *Registry) ByType(t TypeID) (*Schema, bool) {
	for _, name := range r.order {
		if s := r.byName[name]; s.Type == t {
			return s, true
		}
	}
	return nil, false
}

// Names lists registered schemas in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

type fileSpec struct {
	Schemas []schemaSpec `yaml:"schemas"`
}

type schemaSpec struct {
	Name   string      `yaml:"name"`
	Fields []fieldSpec `yaml:"fields"`
}

type fieldSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Storage  string `yaml:"storage"`
	Elements int    `yaml:"elements"`
}

// ParseYAML reads schema declarations:
//
//	schemas:
//	  - name: Point
//	    fields:
//	      - {name: x, type: float32}
//	      - {name: label, type: string}
//	  - name: Path
//	    fields:
//	      - {name: points, type: Point, storage: vector}
//
// A type is a kind name or the name of a schema declared earlier. Storage is
// inline, vector or nested; strings default to vector and schemas with
// dynamic fields to nested.
func ParseYAML(data []byte) (*Registry, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}
	r := NewRegistry()
	for _, ss := range spec.Schemas {
		s, err := build(r, ss)
		if err != nil {
			return nil, err
		}
		if err := r.Add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFile reads and parses a YAML schema file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	r, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func build(r *Registry, ss schemaSpec) (*Schema, error) {
	if ss.Name == "" {
		return nil, fmt.Errorf("%w: schema without name", ErrInvalidSchema)
	}
	b := NewBuilder(ss.Name)
	for _, fs := range ss.Fields {
		storage := strings.ToLower(fs.Storage)
		if k, ok := ParseKind(fs.Type); ok {
			if storage == "" && strings.EqualFold(fs.Type, "string") {
				storage = "vector"
			}
			switch storage {
			case "", "inline":
				b.Array(fs.Name, k, max(fs.Elements, 1))
			case "vector":
				b.Vector(fs.Name, k)
			default:
				return nil, fmt.Errorf("%w: %s.%s: storage %q for kind %s", ErrInvalidSchema, ss.Name, fs.Name, fs.Storage, k)
			}
			continue
		}

		nested, ok := r.Lookup(fs.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s: unknown type %q", ErrInvalidSchema, ss.Name, fs.Name, fs.Type)
		}
		if storage == "" {
			storage = "inline"
			if nested.NumDynamic > 0 {
				storage = "nested"
			}
		}
		switch storage {
		case "inline":
			b.Struct(fs.Name, nested)
		case "vector":
			b.ObjectVector(fs.Name, nested)
		case "nested":
			b.Object(fs.Name, nested)
		default:
			return nil, fmt.Errorf("%w: %s.%s: unknown storage %q", ErrInvalidSchema, ss.Name, fs.Name, fs.Storage)
		}
	}
	return b.Build()
}
