package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord"
	"github.com/randalmurphal/embedrecord/pkg/embedrecord/catalog"
)

// Keys of a catalog document.
const (
	KeyRegistries = "registries"
	KeyIDType     = "id_type"
	KeyCapacity   = "capacity"
	KeyAttributes = "attributes"
	KeyRecords    = "records"
	KeyID         = "id"
)

var (
	// ErrInvalidDefinition indicates a catalog document with the wrong shape.
	ErrInvalidDefinition = errors.New("invalid registry definition")

	// ErrMissingID indicates a record definition without an id key.
	ErrMissingID = errors.New("record definition has no id")
)

// DefinitionError locates a failure inside a catalog document.
type DefinitionError struct {
	// Registry is the name of the registry being built.
	Registry string
	// Index is the record's position in the records list, or -1 for registry-level errors.
	Index int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("registry %s: %v", e.Registry, e.Err)
	}
	return fmt.Sprintf("registry %s: record %d: %v", e.Registry, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// BuildOption configures BuildCatalog.
type BuildOption func(*buildOptions)

type buildOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger handed to every built registry.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// BuildCatalog builds and seals one registry per entry under "registries".
//
//	registries:
//	  colors:
//	    id_type: symbol        # symbol | string | int, inferred when omitted
//	    capacity: 63           # optional
//	    attributes: [name, hex]
//	    records:
//	      - {id: red, name: Red, hex: "#f00"}
//	      - {id: null, name: None}
//
// Registries are built in name order so the first reported error is stable.
func BuildCatalog(cfg Config, opts ...BuildOption) (*catalog.Catalog, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := catalog.New()
	if !cfg.Has(KeyRegistries) {
		return c, nil
	}
	if _, ok := cfg.Any(KeyRegistries, nil).(map[string]any); !ok {
		return nil, fmt.Errorf("%w: %s must be a mapping", ErrInvalidDefinition, KeyRegistries)
	}

	defs := cfg.Map(KeyRegistries)
	names := defs.Keys()
	slices.Sort(names)

	for _, name := range names {
		def, ok := defs.Any(name, nil).(map[string]any)
		if !ok {
			return nil, &DefinitionError{Registry: name, Index: -1,
				Err: fmt.Errorf("%w: definition must be a mapping", ErrInvalidDefinition)}
		}
		r, err := buildRegistry(name, New(def), o)
		if err != nil {
			return nil, err
		}
		if err := c.Register(r); err != nil {
			return nil, &DefinitionError{Registry: name, Index: -1, Err: err}
		}
	}
	return c, nil
}

func buildRegistry(name string, def Config, o buildOptions) (*embedrecord.Registry, error) {
	fail := func(index int, err error) error {
		return &DefinitionError{Registry: name, Index: index, Err: err}
	}

	records := def.Slice(KeyRecords)
	if def.Has(KeyRecords) && records == nil {
		return nil, fail(-1, fmt.Errorf("%w: %s must be a list", ErrInvalidDefinition, KeyRecords))
	}

	kind, err := idKind(def, records)
	if err != nil {
		return nil, fail(-1, err)
	}

	capacity := def.Int(KeyCapacity, embedrecord.MaxMaskBits)
	if capacity <= 0 {
		return nil, fail(-1, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidDefinition, capacity))
	}

	r := embedrecord.NewRegistry(name,
		embedrecord.WithCapacity(capacity),
		embedrecord.WithRegistryLogger(o.logger),
	)

	attrs := def.StringSlice(KeyAttributes, nil)
	if def.Has(KeyAttributes) && attrs == nil {
		return nil, fail(-1, fmt.Errorf("%w: %s must be a list of names", ErrInvalidDefinition, KeyAttributes))
	}
	if err := r.Declare(attrs...); err != nil {
		return nil, fail(-1, err)
	}

	for i, item := range records {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fail(i, fmt.Errorf("%w: record must be a mapping", ErrInvalidDefinition))
		}
		raw, ok := fields[KeyID]
		if !ok {
			return nil, fail(i, ErrMissingID)
		}
		id, err := definitionID(kind, raw)
		if err != nil {
			return nil, fail(i, err)
		}

		values := make(map[string]any, len(fields)-1)
		for k, v := range fields {
			if k != KeyID {
				values[k] = v
			}
		}
		if _, err := r.Create(id, values); err != nil {
			return nil, fail(i, err)
		}
	}

	r.Seal()
	return r, nil
}

// idKind reads id_type, or infers it from the first non-null id: numbers
// make an int registry and anything else a symbol registry.
func idKind(def Config, records []any) (embedrecord.Kind, error) {
	if def.Has(KeyIDType) {
		name, ok := def.Any(KeyIDType, nil).(string)
		if !ok {
			return 0, fmt.Errorf("%w: %s must be a string", ErrInvalidDefinition, KeyIDType)
		}
		kind, err := embedrecord.ParseKind(name)
		if err != nil {
			return 0, err
		}
		if kind == embedrecord.KindNull {
			return 0, fmt.Errorf("%w: %s cannot be null", ErrInvalidDefinition, KeyIDType)
		}
		return kind, nil
	}

	for _, item := range records {
		fields, _ := item.(map[string]any)
		raw := fields[KeyID]
		if raw == nil {
			continue
		}
		if _, ok := toInt64(raw); ok {
			return embedrecord.KindInt, nil
		}
		break
	}
	return embedrecord.KindSymbol, nil
}

func definitionID(kind embedrecord.Kind, v any) (embedrecord.ID, error) {
	switch val := v.(type) {
	case nil:
		return embedrecord.Null, nil
	case string:
		return embedrecord.ParseID(kind, val)
	}
	if n, ok := toInt64(v); ok {
		id, ok := embedrecord.Int(n).Coerce(kind)
		if !ok {
			return embedrecord.Null, fmt.Errorf("%w: %d as %s", embedrecord.ErrUnsupportedID, n, kind)
		}
		return id, nil
	}
	return embedrecord.Null, fmt.Errorf("%w: %T", embedrecord.ErrUnsupportedID, v)
}
