package effect

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ID identifies an effect in the registry.
type ID uint8

// MaxEffects is the size of the registry table.
const MaxEffects = 256

// Factory creates a fresh effect instance.
type Factory func() Effect

var errDuplicateEffect = errors.New("duplicate effect")

type registryEntry struct {
	factory  Factory
	instance *Instance
	meta     Metadata
}

// Registry is a fixed table of effects keyed by ID. Registering an effect
// constructs one shared instance used by the global scheduler; zones get
// their own instances through NewInstance.
type Registry struct {
	entries [MaxEffects]*registryEntry
	names   map[string]ID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]ID)}
}

// Register adds an effect under id.
func (r *Registry) Register(id ID, factory Factory) error {
	if factory == nil {
		return errors.Errorf("effect %d: nil factory", id)
	}
	if r.entries[id] != nil {
		return errors.Wrapf(errDuplicateEffect, "id %d", id)
	}

	e := factory()
	if e == nil {
		return errors.Errorf("effect %d: factory returned nil", id)
	}

	meta := e.Metadata()
	name := normalizeName(meta.Name)
	if name == "" {
		return errors.Errorf("effect %d: empty name", id)
	}
	if other, ok := r.names[name]; ok {
		return errors.Wrapf(errDuplicateEffect, "%q already registered as %d", meta.Name, other)
	}

	r.entries[id] = &registryEntry{
		factory:  factory,
		instance: NewInstance(id, e),
		meta:     meta,
	}
	r.names[name] = id
	return nil
}

// MustRegister is like Register, but panics on error.
func (r *Registry) MustRegister(id ID, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the shared instance registered under id.
func (r *Registry) Lookup(id ID) (*Instance, bool) {
	e := r.entries[id]
	if e == nil {
		return nil, false
	}
	return e.instance, true
}

// LookupName finds an effect ID by name, ignoring case and surrounding
// whitespace.
func (r *Registry) LookupName(name string) (ID, bool) {
	id, ok := r.names[normalizeName(name)]
	return id, ok
}

// Metadata returns the metadata of the effect registered under id.
func (r *Registry) Metadata(id ID) (Metadata, bool) {
	e := r.entries[id]
	if e == nil {
		return Metadata{}, false
	}
	return e.meta, true
}

// NewInstance creates an independent instance of the effect registered under
// id.
func (r *Registry) NewInstance(id ID) (*Instance, error) {
	e := r.entries[id]
	if e == nil {
		return nil, errors.Errorf("unknown effect %d", id)
	}
	return NewInstance(id, e.factory()), nil
}

// IDs returns the registered IDs in ascending order.
func (r *Registry) IDs() []ID {
	var ids []ID
	for i, e := range r.entries {
		if e != nil {
			ids = append(ids, ID(i))
		}
	}
	return ids
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.names))
	for _, id := range r.IDs() {
		names = append(names, r.entries[id].meta.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered effects.
func (r *Registry) Len() int { return len(r.names) }

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
