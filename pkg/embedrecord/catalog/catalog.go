package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord"
)

var (
	// ErrDuplicateRegistry indicates a second registry was registered under an existing name.
	ErrDuplicateRegistry = errors.New("registry already registered")

	// ErrUnnamedRegistry indicates a nil registry or one with an empty name.
	ErrUnnamedRegistry = errors.New("registry must be non-nil and named")
)

// Catalog is a thread-safe set of registries indexed by name.
// It uses sync.RWMutex for read-heavy workloads.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*embedrecord.Registry
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries: make(map[string]*embedrecord.Registry),
	}
}

// Register adds a registry under its own name.
// Registering a second registry with the same name fails with ErrDuplicateRegistry.
func (c *Catalog) Register(r *embedrecord.Registry) error {
	if r == nil || r.Name() == "" {
		return ErrUnnamedRegistry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[r.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistry, r.Name())
	}
	c.entries[r.Name()] = r
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(r *embedrecord.Registry) {
	if err := c.Register(r); err != nil {
		panic(err)
	}
}

// Get returns the registry for a name and whether it exists.
func (c *Catalog) Get(name string) (*embedrecord.Registry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[name]
	return r, ok
}

// MustGet returns the registry for a name, panicking if not found.
func (c *Catalog) MustGet(name string) *embedrecord.Registry {
	r, ok := c.Get(name)
	if !ok {
		panic(fmt.Sprintf("catalog: registry %q not found", name))
	}
	return r
}

// Has returns true if a registry with the name exists.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns all registry names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Range calls fn for each registry in name order until fn returns false.
//
// Range iterates over a snapshot, so fn may call Register without
// affecting the current iteration.
func (c *Catalog) Range(fn func(name string, r *embedrecord.Registry) bool) {
	c.mu.RLock()
	snapshot := make(map[string]*embedrecord.Registry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if !fn(name, snapshot[name]) {
			return
		}
	}
}

// GetOrCreate returns the registry for a name, creating it with factory if
// it doesn't exist. The factory is called at most once per name, even under
// concurrent access. The factory's registry must carry the requested name.
func (c *Catalog) GetOrCreate(name string, factory func(name string) *embedrecord.Registry) (*embedrecord.Registry, error) {
	c.mu.RLock()
	r, ok := c.entries[name]
	c.mu.RUnlock()
	if ok {
		return r, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.entries[name]; ok {
		return r, nil
	}

	r = factory(name)
	if r == nil || r.Name() != name {
		return nil, fmt.Errorf("%w: factory for %q", ErrUnnamedRegistry, name)
	}
	c.entries[name] = r
	return r, nil
}

// Seal seals every registry in the catalog and returns how many were newly sealed.
func (c *Catalog) Seal() int {
	sealed := 0
	c.Range(func(_ string, r *embedrecord.Registry) bool {
		if r.Seal() {
			sealed++
		}
		return true
	})
	return sealed
}
