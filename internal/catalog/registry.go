// Package catalog holds the ordered set of candidate models for a run and
// their per-model invocation counters.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned when a descriptor is addressed by a name the
// registry does not contain.
var ErrUnknownModel = errors.New("unknown model")

// Entry is a static catalog row used to seed a Registry.
type Entry struct {
	Name   string `yaml:"name" json:"name"`
	Label  string `yaml:"label" json:"label"`
	Active bool   `yaml:"active" json:"active"`
}

// Descriptor is one registry entry and its run-time usage counter.
type Descriptor struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
	Count  int    `json:"count"`
}

// Registry is a fixed-size, ordered list of descriptors. It is owned by a
// single runner and is not safe for concurrent use.
type Registry struct {
	items []Descriptor
	index map[string]int
}

// NewRegistry builds a registry from static entries. Every count starts at 0.
func NewRegistry(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("catalog: at least one model is required")
	}
	r := &Registry{
		items: make([]Descriptor, 0, len(entries)),
		index: make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: entries[%d]: name is required", i)
		}
		if prev, ok := r.index[name]; ok {
			return nil, fmt.Errorf("catalog: entries[%d]: duplicate name %q also defined at index %d", i, name, prev)
		}
		r.index[name] = len(r.items)
		r.items = append(r.items, Descriptor{
			Name:   name,
			Label:  strings.TrimSpace(e.Label),
			Active: e.Active,
		})
	}
	return r, nil
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	return len(r.items)
}

// At returns a copy of the descriptor at position i.
func (r *Registry) At(i int) Descriptor {
	return r.items[i]
}

// Lookup returns the descriptor with the given name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.items[i], true
}

// Deactivate marks the named descriptor inactive. Deactivating an already
// inactive descriptor is a no-op.
func (r *Registry) Deactivate(name string) error {
	i, ok := r.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	r.items[i].Active = false
	return nil
}

// Increment bumps the invocation count of the named descriptor and returns
// the new value.
func (r *Registry) Increment(name string) (int, error) {
	i, ok := r.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return r.IncrementAt(i), nil
}

// IncrementAt bumps the invocation count of the descriptor at position i.
func (r *Registry) IncrementAt(i int) int {
	r.items[i].Count++
	return r.items[i].Count
}

// ActiveCount returns how many descriptors are still active.
func (r *Registry) ActiveCount() int {
	n := 0
	for _, d := range r.items {
		if d.Active {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of every descriptor in registry order.
func (r *Registry) Snapshot() []Descriptor {
	out := make([]Descriptor, len(r.items))
	copy(out, r.items)
	return out
}
