// Package repository is the domain-facing layer over a store.Store. It
// validates writes, attaches identifiers to failures, logs one line per
// operation and records metrics. It never caches.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
	"github.com/phrazzld/librarian/internal/platform/logger"
	"github.com/phrazzld/librarian/internal/platform/metrics"
	"github.com/phrazzld/librarian/internal/redact"
	"github.com/phrazzld/librarian/internal/store"
)

// Repository wraps a store of one record kind.
type Repository[K domain.Kind, R domain.Record[K]] struct {
	store     store.Store[K, R]
	entity    string
	component string
	logger    *slog.Logger
	metrics   *metrics.Repository
}

// Typed repositories for the library records.
type (
	AccountRepository = Repository[domain.AccountRole, domain.AccountInfo]
	BookRepository    = Repository[domain.BookRole, domain.BookInfo]
	UserRepository    = Repository[domain.UserRole, domain.UserInfo]
	LibraryRepository = Repository[domain.LibraryRole, domain.LibraryInfo]
)

// New returns a repository over st. A nil logger means slog.Default and
// nil metrics records nothing.
func New[K domain.Kind, R domain.Record[K]](
	st store.Store[K, R],
	logger *slog.Logger,
	m *metrics.Repository,
) *Repository[K, R] {
	if st == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	entity := store.EntityName[K]()
	return &Repository[K, R]{
		store:     st,
		entity:    entity,
		component: entity + "_repository",
		logger:    logger,
		metrics:   m,
	}
}

// Entity is the short record name used in logs and errors.
func (r *Repository[K, R]) Entity() string { return r.entity }

// Store exposes the wrapped store.
func (r *Repository[K, R]) Store() store.Store[K, R] { return r.store }

func (r *Repository[K, R]) Get(ctx context.Context, id domain.ID[K]) outcome.Outcome[R] {
	start := time.Now()
	return r.finish(ctx, "get", id.String(), start, r.store.Get(ctx, id))
}

func (r *Repository[K, R]) Add(ctx context.Context, record R) outcome.Outcome[R] {
	start := time.Now()
	if err := validate(record); err != nil {
		return r.finish(ctx, "add", record.ID().String(), start, outcome.Failure[R](err))
	}
	return r.finish(ctx, "add", record.ID().String(), start, r.store.Add(ctx, record))
}

// Update overwrites the stored record. When the store can tell, an update
// that creates a missing record is logged as a warning; the write still
// happens.
func (r *Repository[K, R]) Update(ctx context.Context, record R) outcome.Outcome[R] {
	start := time.Now()
	if err := validate(record); err != nil {
		return r.finish(ctx, "update", record.ID().String(), start, outcome.Failure[R](err))
	}
	if c, ok := r.store.(store.Container[K]); ok && !c.Contains(ctx, record.ID()) {
		logger.FromContextOrDefault(ctx, r.logger).Warn("update created a record that did not exist",
			slog.String("component", r.component),
			slog.String("entity", r.entity),
			slog.String("id", record.ID().String()))
	}
	return r.finish(ctx, "update", record.ID().String(), start, r.store.Update(ctx, record))
}

// Upsert is an idempotent write, mostly for fixtures.
func (r *Repository[K, R]) Upsert(ctx context.Context, record R) outcome.Outcome[R] {
	start := time.Now()
	if err := validate(record); err != nil {
		return r.finish(ctx, "upsert", record.ID().String(), start, outcome.Failure[R](err))
	}
	return r.finish(ctx, "upsert", record.ID().String(), start, r.store.Upsert(ctx, record))
}

func (r *Repository[K, R]) Delete(ctx context.Context, record R) outcome.Outcome[R] {
	start := time.Now()
	return r.finish(ctx, "delete", record.ID().String(), start, r.store.Delete(ctx, record))
}

func (r *Repository[K, R]) ListAll(ctx context.Context) outcome.Outcome[map[domain.ID[K]]R] {
	start := time.Now()
	result := outcome.MapErr(r.store.ListAll(ctx), func(err error) error {
		return &RepositoryError{Entity: r.entity, Operation: "list", Err: err}
	})
	r.observe(ctx, "list", "", start, result.Err())
	return result
}

func validate[R interface{ Validate() error }](record R) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return nil
}

func (r *Repository[K, R]) finish(
	ctx context.Context,
	op, id string,
	start time.Time,
	result outcome.Outcome[R],
) outcome.Outcome[R] {
	result = outcome.MapErr(result, func(err error) error {
		return &RepositoryError{Entity: r.entity, Operation: op, ID: id, Err: err}
	})
	r.observe(ctx, op, id, start, result.Err())
	return result
}

func (r *Repository[K, R]) observe(ctx context.Context, op, id string, start time.Time, err error) {
	r.metrics.Observe(r.entity, op, start, err)

	log := logger.FromContextOrDefault(ctx, r.logger)
	attrs := []any{
		slog.String("component", r.component),
		slog.String("operation", op),
		slog.String("entity", r.entity),
	}
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}
	if err != nil {
		log.Debug("repository operation failed", append(attrs, slog.String("error", redact.Error(err)))...)
		return
	}
	log.Debug("repository operation succeeded", attrs...)
}
