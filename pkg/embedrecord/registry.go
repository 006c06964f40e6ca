package embedrecord

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/observability"
)

// MaxMaskBits is the number of positions a multi reference can encode in a
// non-negative int64. It is also the default registry capacity.
const MaxMaskBits = 63

// idAttribute is the built-in attribute every registry declares.
const idAttribute = "id"

// Registry is an ordered, append-only set of immutable records.
//
// Records are created during initialization and the registry is then sealed,
// either explicitly with Seal or implicitly when a relation binds to it.
// All methods are safe for concurrent use.
type Registry struct {
	name     string
	capacity int
	logger   *slog.Logger

	mu      sync.RWMutex
	attrs   []string
	allowed map[string]struct{}
	records []*Record
	index   map[ID]*Record
	null    *Record
	idKind  Kind
	sealed  bool
}

type registryConfig struct {
	capacity int
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

// WithCapacity limits the number of non-null records.
// Default: MaxMaskBits
//
// Registries only referenced by single references may raise the limit; such
// registries cannot be bound with BindMany.
func WithCapacity(n int) RegistryOption {
	return func(c *registryConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithRegistryLogger sets the logger used for lifecycle events.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// NewRegistry creates an empty registry. The name is used in errors and logs.
func NewRegistry(name string, opts ...RegistryOption) *Registry {
	cfg := registryConfig{capacity: MaxMaskBits}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		name:     name,
		capacity: cfg.capacity,
		logger:   cfg.logger,
		attrs:    []string{idAttribute},
		allowed:  map[string]struct{}{idAttribute: {}},
		index:    make(map[ID]*Record),
	}
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// Capacity returns the maximum number of non-null records.
func (r *Registry) Capacity() int { return r.capacity }

// Declare adds attribute names to the record schema. Declaring "id" or an
// already declared name is a no-op. Attributes must be declared before the
// first record is created.
func (r *Registry) Declare(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	for _, name := range names {
		if name == "" {
			return ErrEmptyAttribute
		}
		if _, ok := r.allowed[name]; ok {
			continue
		}
		if len(r.records) > 0 || r.null != nil {
			return ErrSchemaClosed
		}
		r.allowed[name] = struct{}{}
		r.attrs = append(r.attrs, name)
	}
	return nil
}

// Attributes returns the declared attribute names, starting with "id".
func (r *Registry) Attributes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.attrs)
}

// Create adds a record. A Null id defines the registry's null record, which
// takes no position and is only reachable through NullRecord. Any other id
// is appended at position Len().
func (r *Registry) Create(id ID, attrs map[string]any) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil, ErrSealed
	}
	for name := range attrs {
		if name == idAttribute {
			return nil, ErrReservedAttribute
		}
		if _, ok := r.allowed[name]; !ok {
			return nil, &UnknownAttributeError{Registry: r.name, Attribute: name}
		}
	}

	if id.IsNull() {
		if r.null != nil {
			return nil, ErrDuplicateNull
		}
		r.null = newRecord(r.name, Null, -1, attrs)
		return r.null, nil
	}

	if len(r.records) > 0 && id.Kind() != r.idKind {
		return nil, &IDTypeError{Registry: r.name, Want: r.idKind, Got: id.Kind()}
	}
	if _, exists := r.index[id]; exists {
		return nil, &DuplicateIDError{Registry: r.name, ID: id}
	}
	if len(r.records) >= r.capacity {
		return nil, &CapacityError{Registry: r.name, Capacity: r.capacity, Size: len(r.records) + 1}
	}

	rec := newRecord(r.name, id, len(r.records), attrs)
	if len(r.records) == 0 {
		r.idKind = id.Kind()
	}
	r.records = append(r.records, rec)
	r.index[id] = rec
	return rec, nil
}

// MustCreate is like Create but panics on error. Useful from init() blocks.
func (r *Registry) MustCreate(id ID, attrs map[string]any) *Record {
	rec, err := r.Create(id, attrs)
	if err != nil {
		panic(err)
	}
	return rec
}

// Seal prevents further changes. It is idempotent and returns true if this
// call changed the state from unsealed to sealed.
func (r *Registry) Seal() bool {
	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return false
	}
	r.sealed = true
	n, hasNull := len(r.records), r.null != nil
	r.mu.Unlock()

	observability.LogRegistrySealed(r.logger, r.name, n, hasNull)
	return true
}

// Sealed reports whether the registry is sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// All returns the non-null records in position order.
// The returned slice is a copy.
func (r *Registry) All() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records)
}

// Len returns the number of non-null records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// At returns the record at a position.
func (r *Registry) At(pos int) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if pos < 0 || pos >= len(r.records) {
		return nil, false
	}
	return r.records[pos], true
}

// First returns the record at position 0.
func (r *Registry) First() (*Record, bool) {
	return r.At(0)
}

// Last returns the record with the highest position.
func (r *Registry) Last() (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.records) == 0 {
		return nil, false
	}
	return r.records[len(r.records)-1], true
}

// Find returns the record with the given id. The id must match exactly,
// kind included. Null never matches.
func (r *Registry) Find(id ID) (*Record, bool) {
	if id.IsNull() {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.index[id]
	return rec, ok
}

// NullRecord returns the record created with a Null id, if any.
func (r *Registry) NullRecord() (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.null, r.null != nil
}

// IDs returns the ids of the non-null records in position order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, len(r.records))
	for i, rec := range r.records {
		ids[i] = rec.id
	}
	return ids
}

// IDType returns the id kind of the registry, taken from the first non-null
// record. It reports false while the registry has no such record.
func (r *Registry) IDType() (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.records) == 0 {
		return KindNull, false
	}
	return r.idKind, true
}

// PositionOf returns the position of the record with the given id.
func (r *Registry) PositionOf(id ID) (int, error) {
	rec, ok := r.Find(id)
	if !ok {
		return -1, &NotFoundError{Registry: r.name, ID: id}
	}
	return rec.position, nil
}
