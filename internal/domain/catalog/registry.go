package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Registry is an immutable set of definitions keyed by test key. It is safe
// for concurrent use.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry indexes defs. Keys must be unique.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTest, d.Key)
		}
		r.defs[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r, nil
}

// Override returns a copy of r where defs replace entries with the same key
// and new keys are appended.
func (r *Registry) Override(defs ...*Definition) *Registry {
	out := &Registry{
		defs:  make(map[string]*Definition, len(r.defs)+len(defs)),
		order: append([]string(nil), r.order...),
	}
	for k, d := range r.defs {
		out.defs[k] = d
	}
	for _, d := range defs {
		if _, ok := out.defs[d.Key]; !ok {
			out.order = append(out.order, d.Key)
		}
		out.defs[d.Key] = d
	}
	return out
}

// Get returns the definition for key.
func (r *Registry) Get(key string) (*Definition, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTest, key)
	}
	d, ok := r.defs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTest, key)
	}
	return d, nil
}

// Keys returns test keys in registration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Summaries lists every definition in registration order.
func (r *Registry) Summaries() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.defs[k].Summarize())
	}
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int { return len(r.order) }

// Builtin returns the registry of definitions shipped with the binary.
func Builtin() (*Registry, error) {
	names, err := fs.Glob(builtinFS, "builtin/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDefinition, err)
	}
	sort.Strings(names)
	defs := make([]*Definition, 0, len(names))
	for _, name := range names {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadDefinition, err)
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		defs = append(defs, def)
	}
	return NewRegistry(defs...)
}

// LoadRegistry returns the built-in registry with the definitions in dir
// layered on top. An empty dir yields the built-in registry.
func LoadRegistry(dir string) (*Registry, error) {
	reg, err := Builtin()
	if err != nil || dir == "" {
		return reg, err
	}
	defs, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return reg.Override(defs...), nil
}

// MustBuiltin is Builtin for package initialization and tests.
func MustBuiltin() *Registry {
	r, err := Builtin()
	if err != nil {
		panic(err)
	}
	return r
}
