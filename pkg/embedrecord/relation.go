package embedrecord

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/randalmurphal/embedrecord/pkg/embedrecord/observability"
)

// Target is the registry contract a relation decodes against. *Registry
// implements it.
type Target interface {
	Name() string
	Len() int
	At(pos int) (*Record, bool)
	Find(id ID) (*Record, bool)
	NullRecord() (*Record, bool)
	IDType() (Kind, bool)
	Seal() bool
}

var _ Target = (*Registry)(nil)

// slotSuffix is appended to a relation name to derive its slot name.
const slotSuffix = "_mask"

type relationConfig struct {
	slotName string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
}

// RelationOption configures a relation at bind time.
type RelationOption func(*relationConfig)

// WithSlotName sets the name of the host field the relation is stored in.
// Default: the relation name followed by "_mask".
func WithSlotName(name string) RelationOption {
	return func(c *relationConfig) {
		if name != "" {
			c.slotName = name
		}
	}
}

// WithLogger sets the logger for binding, dropped ids, and misses.
func WithLogger(logger *slog.Logger) RelationOption {
	return func(c *relationConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) RelationOption {
	return func(c *relationConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// relation holds what single and multi references share.
type relation struct {
	name     string
	slotName string
	target   Target
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
}

// Name returns the relation name.
func (r *relation) Name() string { return r.name }

// Column returns the name of the host slot, used as the storage column.
func (r *relation) Column() string { return r.slotName }

// Target returns the registry the relation decodes against.
func (r *relation) Target() Target { return r.target }

// Positions resolves ids to record positions, in argument order, for
// building storage filters. Every id must match a record; the first miss is
// returned as a *NotFoundError.
func (r *relation) Positions(ids ...ID) ([]int64, error) {
	positions := make([]int64, 0, len(ids))
	for _, id := range ids {
		rec, coerced := r.lookup(id)
		if rec == nil {
			return nil, &NotFoundError{Registry: r.target.Name(), ID: coerced}
		}
		positions = append(positions, int64(rec.Position()))
	}
	return positions, nil
}

// bind validates and seals target. check, when set, runs before the target is
// sealed and again once it is, so a failed check leaves the target open.
func bind(name, kind string, target any, slotReason string, check func(Target) error, opts []RelationOption) (relation, error) {
	if name == "" {
		return relation{}, ErrRelationName
	}
	t, err := validateTarget(name, target)
	if err != nil {
		return relation{}, err
	}
	if slotReason != "" {
		return relation{}, &InvalidTargetError{Relation: name, Target: fmt.Sprintf("%T", target), Reason: slotReason}
	}
	if check != nil {
		if err := check(t); err != nil {
			return relation{}, err
		}
	}

	cfg := relationConfig{
		slotName: name + slotSuffix,
		metrics:  observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	t.Seal()
	if check != nil {
		if err := check(t); err != nil {
			return relation{}, err
		}
	}
	observability.LogRelationBound(cfg.logger, name, t.Name(), cfg.slotName, kind)

	return relation{
		name:     name,
		slotName: cfg.slotName,
		target:   t,
		logger:   observability.RelationLogger(cfg.logger, name, kind),
		metrics:  cfg.metrics,
	}, nil
}

func validateTarget(relation string, target any) (Target, error) {
	if target == nil {
		return nil, &InvalidTargetError{Relation: relation, Target: "<nil>", Reason: "target is nil"}
	}
	typeName := fmt.Sprintf("%T", target)
	t, ok := target.(Target)
	if !ok {
		return nil, &InvalidTargetError{Relation: relation, Target: typeName, Reason: "no ordered records or id index"}
	}
	if v := reflect.ValueOf(target); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, &InvalidTargetError{Relation: relation, Target: typeName, Reason: "target is a nil pointer"}
	}
	return t, nil
}

// lookup coerces id to the target's id kind and finds its record. The
// returned ID is the coerced form when coercion succeeded.
func (r *relation) lookup(id ID) (*Record, ID) {
	kind, ok := r.target.IDType()
	if !ok {
		return nil, id
	}
	coerced, ok := id.Coerce(kind)
	if !ok {
		return nil, id
	}
	rec, found := r.target.Find(coerced)
	if !found {
		return nil, coerced
	}
	return rec, coerced
}
