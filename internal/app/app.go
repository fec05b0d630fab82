// Package app assembles the library system for one configured backend:
// stores, repositories, metrics and the role environment.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/phrazzld/librarian/internal/config"
	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/platform/memory"
	"github.com/phrazzld/librarian/internal/platform/metrics"
	"github.com/phrazzld/librarian/internal/platform/postgres"
	"github.com/phrazzld/librarian/internal/platform/redis"
	"github.com/phrazzld/librarian/internal/platform/sqlite"
	"github.com/phrazzld/librarian/internal/repository"
	"github.com/phrazzld/librarian/internal/role"
	"github.com/phrazzld/librarian/internal/store"
)

// App holds the wired components. Build it with New and release it with
// Close.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Clock   domain.Clock
	Metrics *metrics.Repository

	Accounts  *repository.AccountRepository
	Books     *repository.BookRepository
	Users     *repository.UserRepository
	Libraries *repository.LibraryRepository

	Roles *role.Env

	tables      []table
	snapshotter *sqlite.Snapshotter
	closers     []func() error
	checks      []func(ctx context.Context) error
}

// table is one record kind as seen by dump and snapshot code.
type table struct {
	bucket  string
	dump    func(ctx context.Context) ([]byte, error)
	restore func(data []byte) error // nil unless the backend is memory
}

// Option customizes New.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	clock      domain.Clock
	registerer prometheus.Registerer
}

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock used by roles. The default is the system clock.
func WithClock(c domain.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRegisterer sets where metrics are registered. The default is a
// private registry, so several Apps can coexist in one process.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// New builds an App for cfg.Store.Backend. For the memory backend with a
// snapshot path, saved state is loaded before New returns.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", domain.ErrInvalidArgument)
	}
	o := options{logger: slog.Default(), clock: domain.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registerer == nil {
		o.registerer = prometheus.NewRegistry()
	}

	a := &App{
		Config:  cfg,
		Logger:  o.logger,
		Clock:   o.clock,
		Metrics: metrics.NewRepository(o.registerer),
	}

	var err error
	switch cfg.Store.Backend {
	case config.BackendMemory:
		err = a.wireMemory(ctx)
	case config.BackendPostgres:
		err = a.wirePostgres(ctx)
	case config.BackendRedis:
		err = a.wireRedis(ctx)
	default:
		err = fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidArgument, cfg.Store.Backend)
	}
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Roles = &role.Env{
		Accounts:  a.Accounts,
		Books:     a.Books,
		Users:     a.Users,
		Libraries: a.Libraries,
		Clock:     a.Clock,
		Logger:    o.logger,
	}

	a.Logger.Info("application assembled",
		slog.String("component", "app"),
		slog.String("backend", cfg.Store.Backend))
	return a, nil
}

func (a *App) wireMemory(ctx context.Context) error {
	accounts := memory.New[domain.AccountRole, domain.AccountInfo]()
	books := memory.New[domain.BookRole, domain.BookInfo]()
	users := memory.New[domain.UserRole, domain.UserInfo]()
	libraries := memory.New[domain.LibraryRole, domain.LibraryInfo]()

	a.setRepositories(accounts, books, users, libraries)
	a.tables = []table{
		memoryTable(accounts),
		memoryTable(books),
		memoryTable(users),
		memoryTable(libraries),
	}

	if a.Config.Store.SnapshotPath == "" {
		return nil
	}
	snap, err := sqlite.Open(ctx, a.Config.Store.SnapshotPath)
	if err != nil {
		return err
	}
	a.snapshotter = snap
	a.closers = append(a.closers, snap.Close)
	a.checks = append(a.checks, snap.Ping)
	return a.LoadSnapshots(ctx)
}

func memoryTable[K domain.Kind, R domain.Record[K]](s *memory.Store[K, R]) table {
	return table{
		bucket:  domain.TagOf[K](),
		dump:    func(context.Context) ([]byte, error) { return s.Dump() },
		restore: s.Restore,
	}
}

func (a *App) wirePostgres(ctx context.Context) error {
	db, err := postgres.Open(ctx, a.Config.Database, a.Logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)
	a.checks = append(a.checks, db.PingContext)

	a.wireStores(
		postgres.NewRecordStore[domain.AccountRole, domain.AccountInfo](db, a.Logger),
		postgres.NewRecordStore[domain.BookRole, domain.BookInfo](db, a.Logger),
		postgres.NewRecordStore[domain.UserRole, domain.UserInfo](db, a.Logger),
		postgres.NewRecordStore[domain.LibraryRole, domain.LibraryInfo](db, a.Logger),
	)
	return nil
}

func (a *App) wireRedis(ctx context.Context) error {
	client, err := redis.New(ctx, a.Config.Redis)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, client.Close)
	a.checks = append(a.checks, client.Health)

	prefix := a.Config.Redis.KeyPrefix
	a.wireStores(
		redis.NewRecordStore[domain.AccountRole, domain.AccountInfo](client, prefix, a.Logger),
		redis.NewRecordStore[domain.BookRole, domain.BookInfo](client, prefix, a.Logger),
		redis.NewRecordStore[domain.UserRole, domain.UserInfo](client, prefix, a.Logger),
		redis.NewRecordStore[domain.LibraryRole, domain.LibraryInfo](client, prefix, a.Logger),
	)
	return nil
}

// wireStores sets up repositories and listing-based dump tables for a
// persistent backend.
func (a *App) wireStores(
	accounts store.AccountStore,
	books store.BookStore,
	users store.UserStore,
	libraries store.LibraryStore,
) {
	a.setRepositories(accounts, books, users, libraries)
	a.tables = []table{
		listingTable(accounts),
		listingTable(books),
		listingTable(users),
		listingTable(libraries),
	}
}

func listingTable[K domain.Kind, R domain.Record[K]](s store.Store[K, R]) table {
	return table{
		bucket: domain.TagOf[K](),
		dump: func(ctx context.Context) ([]byte, error) {
			all, err := s.ListAll(ctx).Get()
			if err != nil {
				return nil, err
			}
			out := make(map[string]R, len(all))
			for id, r := range all {
				out[id.String()] = r
			}
			return json.Marshal(out)
		},
	}
}

func (a *App) setRepositories(
	accounts store.AccountStore,
	books store.BookStore,
	users store.UserStore,
	libraries store.LibraryStore,
) {
	a.Accounts = repository.New[domain.AccountRole, domain.AccountInfo](accounts, a.Logger, a.Metrics)
	a.Books = repository.New[domain.BookRole, domain.BookInfo](books, a.Logger, a.Metrics)
	a.Users = repository.New[domain.UserRole, domain.UserInfo](users, a.Logger, a.Metrics)
	a.Libraries = repository.New[domain.LibraryRole, domain.LibraryInfo](libraries, a.Logger, a.Metrics)
}

// Health pings every backend connection the App holds. The memory backend
// without snapshots has nothing to check and always reports healthy.
func (a *App) Health(ctx context.Context) error {
	var result *multierror.Error
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Close releases backend connections in reverse order of acquisition. It
// does not save snapshots; call SaveSnapshots first.
func (a *App) Close() error {
	var result *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	a.closers = nil
	return result.ErrorOrNil()
}
