package app_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/librarian/internal/app"
	"github.com/phrazzld/librarian/internal/config"
	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/platform/logger"
)

func memoryConfig(snapshotPath string) *config.Config {
	return &config.Config{
		Logging: config.LoggingConfig{Level: "debug", Format: "json"},
		Store:   config.StoreConfig{Backend: config.BackendMemory, SnapshotPath: snapshotPath},
	}
}

func newApp(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	clock := &domain.FixedClock{T: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	a, err := app.New(context.Background(), cfg, app.WithLogger(log), app.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// seed stores a library with one copy of a book and checks it out to a
// new user.
func seed(t *testing.T, a *app.App) (domain.LibraryID, domain.BookID, domain.UserID) {
	t.Helper()
	ctx := context.Background()

	l, err := domain.NewLibraryInfo(domain.RandomID[domain.LibraryRole](), "Main Branch")
	require.NoError(t, err)
	require.True(t, a.Libraries.Add(ctx, l).IsSuccess())

	b, err := domain.NewBookInfo(domain.RandomID[domain.BookRole](), "Dune", "Frank Herbert", "", a.Clock.Now())
	require.NoError(t, err)
	require.True(t, a.Books.Add(ctx, b).IsSuccess())

	u, err := domain.NewUserInfo(domain.RandomID[domain.UserRole](), "Ada", "ada@example.com")
	require.NoError(t, err)
	require.True(t, a.Users.Add(ctx, u).IsSuccess())

	acct, err := domain.NewAccountInfo(u.AccountID(), "Ada")
	require.NoError(t, err)
	require.True(t, a.Accounts.Add(ctx, acct).IsSuccess())

	library := a.Roles.Library(l.ID())
	book := a.Roles.Book(b.ID())
	require.True(t, library.AddBookToInventory(ctx, book, 1).IsSuccess())
	require.True(t, library.CheckOutBookToUser(ctx, book, a.Roles.User(u.ID())).IsSuccess())

	return l.ID(), b.ID(), u.ID()
}

func TestNewRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := app.New(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	cfg := memoryConfig("")
	cfg.Store.Backend = "carrier-pigeon"
	_, err = app.New(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestMemoryBackendWiresRoles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newApp(t, memoryConfig(""))

	libraryID, bookID, userID := seed(t, a)

	holder := a.Roles.Library(libraryID).FindUserOfCheckedOutBook(ctx, bookID)
	require.True(t, holder.IsSuccess())
	assert.Equal(t, userID, holder.Value())

	user := a.Users.Get(ctx, userID)
	require.True(t, user.IsSuccess())
	assert.True(t, user.Value().HasAcceptedBook(bookID))
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.NoError(t, newApp(t, memoryConfig("")).Health(ctx))

	a := newApp(t, memoryConfig(filepath.Join(t.TempDir(), "state.db")))
	require.NoError(t, a.Health(ctx))

	require.NoError(t, a.Close())
	assert.Error(t, a.Health(ctx), "a closed snapshot database is unhealthy")
}

func TestSnapshotsWithoutPath(t *testing.T) {
	t.Parallel()
	a := newApp(t, memoryConfig(""))

	assert.ErrorIs(t, a.SaveSnapshots(context.Background()), app.ErrNoSnapshots)
	assert.ErrorIs(t, a.LoadSnapshots(context.Background()), app.ErrNoSnapshots)
}

func TestSnapshotsSurviveRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "librarian.db")

	first := newApp(t, memoryConfig(path))
	libraryID, bookID, userID := seed(t, first)
	require.NoError(t, first.SaveSnapshots(ctx))
	require.NoError(t, first.Close())

	second := newApp(t, memoryConfig(path))

	library := second.Libraries.Get(ctx, libraryID)
	require.True(t, library.IsSuccess())
	assert.True(t, library.Value().IsBookCheckedOutByUser(bookID, userID))
	assert.Len(t, library.Value().AuditLog(), len(first.Libraries.Get(ctx, libraryID).Value().AuditLog()))

	user := second.Users.Get(ctx, userID)
	require.True(t, user.IsSuccess())
	assert.True(t, user.Value().HasAcceptedBook(bookID))
	assert.True(t, second.Accounts.Get(ctx, user.Value().AccountID()).IsSuccess())
}

func TestDumpGroupsRecordsByTag(t *testing.T) {
	t.Parallel()
	a := newApp(t, memoryConfig(""))
	libraryID, bookID, _ := seed(t, a)

	data, err := a.Dump(context.Background())
	require.NoError(t, err)

	var dump map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &dump))

	assert.ElementsMatch(t, a.Buckets(), keys(dump))
	assert.Contains(t, dump[domain.TagOf[domain.LibraryRole]()], libraryID.String())
	assert.Contains(t, dump[domain.TagOf[domain.BookRole]()], bookID.String())
	assert.Len(t, dump[domain.TagOf[domain.AccountRole]()], 1)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
