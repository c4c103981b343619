package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/songzhibin97/academia/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/songzhibin97/academia/pkg/entity"

// Descriptor names an entity type for messages and tells the store how to read its key.
type Descriptor[K comparable, V any] struct {
	// Name is the singular display name, e.g. "Course".
	Name string
	// Plural is used in the empty-collection message, e.g. "courses".
	Plural string
	// Key returns the key of a value; the zero K means "not yet assigned".
	Key func(*V) K
}

// Option configures a Store.
type Option[K comparable, V any] func(*Store[K, V])

// WithGuard appends a pre-save validation step. Guards run in registration order.
func WithGuard[K comparable, V any](guard Guard[V]) Option[K, V] {
	return func(s *Store[K, V]) {
		s.guards = append(s.guards, guard)
	}
}

// WithLogger sets the logger; the default is log.Component("entity").
func WithLogger[K comparable, V any](logger log.Logger) Option[K, V] {
	return func(s *Store[K, V]) {
		s.logger = logger
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer[K comparable, V any](tracer trace.Tracer) Option[K, V] {
	return func(s *Store[K, V]) {
		s.tracer = tracer
	}
}

// Store is the generic persistence kernel: save, fetch by key and fetch all
// for one entity type. It holds no cache and no locks; every call is exactly
// one adapter round trip.
type Store[K comparable, V any] struct {
	adapter Adapter[K, V]
	desc    Descriptor[K, V]
	code    string
	guards  []Guard[V]
	logger  log.Logger
	tracer  trace.Tracer
}

// NewStore creates a store for one entity type.
func NewStore[K comparable, V any](adapter Adapter[K, V], desc Descriptor[K, V], opts ...Option[K, V]) *Store[K, V] {
	if desc.Plural == "" {
		desc.Plural = strings.ToLower(desc.Name) + "s"
	}

	s := &Store[K, V]{
		adapter: adapter,
		desc:    desc,
		code:    codePrefix(desc.Name),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Component("entity")
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}

	return s
}

// Name returns the display name of the entity type.
func (s *Store[K, V]) Name() string {
	return s.desc.Name
}

// Save creates or updates value and returns the persisted record.
func (s *Store[K, V]) Save(ctx context.Context, value *V) (*V, error) {
	ctx, span := s.start(ctx, "save")
	defer span.End()
	logger := s.opLogger(ctx, "save")

	if value == nil {
		err := NewInvalidInputError(s.code+"_REQUIRED", fmt.Sprintf("%s cannot be null", s.desc.Name))
		logger.Error("Refusing to save nil entity")
		return nil, s.fail(span, err)
	}

	key := s.desc.Key(value)
	if negative(key) {
		err := NewInvalidInputError(s.code+"_INVALID_KEY", fmt.Sprintf("%s key must not be negative: %v", s.desc.Name, key))
		logger.Warn("Refusing to save entity with negative key", log.Any(log.FieldEntityID, key))
		return nil, s.fail(span, err)
	}
	logger.Info("Saving entity", log.Any(log.FieldEntityID, key))

	for _, guard := range s.guards {
		if err := guard(ctx, value); err != nil {
			logger.Warn("Entity rejected before save", log.Any(log.FieldEntityID, key), log.Error(err))
			return nil, s.fail(span, err)
		}
	}

	saved, err := s.adapter.InsertOrUpsert(ctx, value)
	if err != nil {
		err = s.wrap(err, "SAVE_FAILED", fmt.Sprintf("failed to save %s", s.desc.Name))
		logger.Error("Failed to save entity", log.Any(log.FieldEntityID, key), log.Error(err))
		return nil, s.fail(span, err)
	}

	savedKey := s.desc.Key(saved)
	span.SetAttributes(attribute.String("entity.key", fmt.Sprint(savedKey)))
	logger.Info("Entity saved", log.Any(log.FieldEntityID, savedKey))
	return saved, nil
}

// GetByKey returns the record stored under key or a NotFound error.
func (s *Store[K, V]) GetByKey(ctx context.Context, key K) (*V, error) {
	ctx, span := s.start(ctx, "get")
	defer span.End()
	span.SetAttributes(attribute.String("entity.key", fmt.Sprint(key)))
	logger := s.opLogger(ctx, "get")

	logger.Info("Fetching entity", log.Any(log.FieldEntityID, key))

	value, ok, err := s.adapter.SelectByKey(ctx, key)
	if err != nil {
		err = s.wrap(err, "LOOKUP_FAILED", fmt.Sprintf("failed to fetch %s", s.desc.Name))
		logger.Error("Failed to fetch entity", log.Any(log.FieldEntityID, key), log.Error(err))
		return nil, s.fail(span, err)
	}
	if !ok {
		logger.Warn("Entity not found", log.Any(log.FieldEntityID, key))
		return nil, s.fail(span, NewNotFoundError(s.code+"_NOT_FOUND",
			fmt.Sprintf("%s not found with ID: %v", s.desc.Name, key)))
	}

	return value, nil
}

// GetAll returns every stored record. An empty store is reported as NotFound;
// use ListAll when an empty result is a normal outcome.
func (s *Store[K, V]) GetAll(ctx context.Context) ([]*V, error) {
	ctx, span := s.start(ctx, "get_all")
	defer span.End()

	values, err := s.list(ctx, span, "get_all")
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		s.opLogger(ctx, "get_all").Warn("No entities found")
		return nil, s.fail(span, NewNotFoundError(s.code+"_NONE_FOUND",
			fmt.Sprintf("No %s found", s.desc.Plural)))
	}
	return values, nil
}

// ListAll returns every stored record; an empty store yields an empty, non-nil slice.
func (s *Store[K, V]) ListAll(ctx context.Context) ([]*V, error) {
	ctx, span := s.start(ctx, "list_all")
	defer span.End()

	values, err := s.list(ctx, span, "list_all")
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []*V{}
	}
	return values, nil
}

func (s *Store[K, V]) list(ctx context.Context, span trace.Span, op string) ([]*V, error) {
	logger := s.opLogger(ctx, op)
	logger.Info("Fetching all entities")

	values, err := s.adapter.SelectAll(ctx)
	if err != nil {
		err = s.wrap(err, "LIST_FAILED", fmt.Sprintf("failed to list %s", s.desc.Plural))
		logger.Error("Failed to list entities", log.Error(err))
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.Int("entity.count", len(values)))
	logger.Info("Entities fetched", log.Int(log.FieldCount, len(values)))
	return values, nil
}

func (s *Store[K, V]) opLogger(ctx context.Context, op string) log.Logger {
	return s.logger.WithContext(ctx).With(log.EntityFields(s.desc.Name, op)...)
}

func (s *Store[K, V]) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "entity."+strings.ToLower(s.desc.Name)+"."+op,
		trace.WithAttributes(attribute.String("entity.name", s.desc.Name)))
}

// wrap passes typed errors through and classifies anything else as a database failure.
func (s *Store[K, V]) wrap(err error, suffix, message string) error {
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return NewDatabaseError(s.code+"_"+suffix, message, err)
}

func (s *Store[K, V]) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, MessageOf(err))
	span.SetAttributes(attribute.String("entity.error_kind", string(KindOf(err))))
	return err
}

// negative reports whether an integer key is below zero. Keys of other types
// are never negative.
func negative(key any) bool {
	switch k := key.(type) {
	case int:
		return k < 0
	case int32:
		return k < 0
	case int64:
		return k < 0
	}
	return false
}

// codePrefix turns "StudentProfile" into "STUDENT_PROFILE".
func codePrefix(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
