package role_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/platform/logger"
	"github.com/phrazzld/librarian/internal/platform/memory"
	"github.com/phrazzld/librarian/internal/repository"
	"github.com/phrazzld/librarian/internal/role"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	env       *role.Env
	clock     *domain.FixedClock
	accounts  *repository.AccountRepository
	books     *repository.BookRepository
	users     *repository.UserRepository
	libraries *repository.LibraryRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	clock := &domain.FixedClock{T: epoch}

	f := fixture{
		clock:     clock,
		accounts:  repository.New[domain.AccountRole, domain.AccountInfo](memory.New[domain.AccountRole, domain.AccountInfo](), log, nil),
		books:     repository.New[domain.BookRole, domain.BookInfo](memory.New[domain.BookRole, domain.BookInfo](), log, nil),
		users:     repository.New[domain.UserRole, domain.UserInfo](memory.New[domain.UserRole, domain.UserInfo](), log, nil),
		libraries: repository.New[domain.LibraryRole, domain.LibraryInfo](memory.New[domain.LibraryRole, domain.LibraryInfo](), log, nil),
	}
	f.env = &role.Env{
		Accounts:  f.accounts,
		Books:     f.books,
		Users:     f.users,
		Libraries: f.libraries,
		Clock:     clock,
		Logger:    log,
	}
	return f
}

// seedUser stores a user and its account under the same UUID.
func (f fixture) seedUser(t *testing.T, name string) *role.User {
	t.Helper()
	ctx := context.Background()

	u, err := domain.NewUserInfo(domain.RandomID[domain.UserRole](), name, "")
	require.NoError(t, err)
	require.True(t, f.users.Add(ctx, u).IsSuccess())

	a, err := domain.NewAccountInfo(u.AccountID(), name)
	require.NoError(t, err)
	require.True(t, f.accounts.Add(ctx, a).IsSuccess())

	return f.env.User(u.ID())
}

func (f fixture) seedBook(t *testing.T, title string) *role.Book {
	t.Helper()
	b, err := domain.NewBookInfo(domain.RandomID[domain.BookRole](), title, "Anon", "", f.clock.Now())
	require.NoError(t, err)
	require.True(t, f.books.Add(context.Background(), b).IsSuccess())
	return f.env.Book(b.ID())
}

func (f fixture) seedLibrary(t *testing.T) *role.Library {
	t.Helper()
	l, err := domain.NewLibraryInfo(domain.RandomID[domain.LibraryRole](), "Main Branch")
	require.NoError(t, err)
	require.True(t, f.libraries.Add(context.Background(), l).IsSuccess())
	return f.env.Library(l.ID())
}
