// Package lifecycle enforces marketplace status transitions, their
// cross-entity side effects and the authorization rules that gate them.
//
// Every operation re-reads ownership and roles from storage; the caller
// only supplies the authenticated actor id.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/platform/id"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage"
)

const tracerName = "github.com/imranshabbir-developer/project-management/internal/services/marketplace/lifecycle"

// Coordinator runs lifecycle operations against a store. It holds no
// mutable state and is safe for concurrent use.
type Coordinator struct {
	store  storage.Store
	clock  func() time.Time
	newID  id.Generator
	tracer trace.Tracer
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen id.Generator) Option {
	return func(c *Coordinator) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Coordinator) {
		if provider != nil {
			c.tracer = provider.Tracer(tracerName)
		}
	}
}

// New creates a coordinator backed by store.
func New(store storage.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		clock:  time.Now,
		newID:  id.NewID,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Coordinator) now() time.Time {
	return c.clock().UTC()
}

func (c *Coordinator) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(attrs...))
}

// finish records err on span and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}

func (c *Coordinator) ready() error {
	if c == nil || c.store == nil {
		return apperrors.New(apperrors.CodeInternal, "lifecycle store is not configured")
	}
	return nil
}

func (c *Coordinator) generateID() (string, error) {
	value, err := c.newID()
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "generate id", err)
	}
	return value, nil
}

// actor loads the stored identity behind actorID.
func (c *Coordinator) actor(ctx context.Context, actorID string) (user.User, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return user.User{}, apperrors.New(apperrors.CodeUnauthenticated, "actor id is required")
	}
	u, err := c.store.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apperrors.New(apperrors.CodeUnauthenticated, "actor is not registered")
		}
		return user.User{}, mapStoreError(err, "user")
	}
	return u, nil
}

func forbidden(message string) error {
	return apperrors.New(apperrors.CodeForbidden, message)
}

func requireID(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.Validation(field, field+" is required")
	}
	return value, nil
}

// mapStoreError converts storage sentinels into domain errors. Domain
// errors raised inside store callbacks pass through untouched.
func mapStoreError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFound(entity)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.WithMetadata(apperrors.CodeConflict, entity+" already exists", map[string]string{"Entity": entity})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.CodeInternal, "request cancelled", err)
	default:
		return apperrors.Wrap(apperrors.CodeInternal, entity+" storage failure", err)
	}
}
