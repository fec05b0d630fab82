package role_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/librarian/internal/domain"
)

func TestUserAccountSharesUUID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user := f.seedUser(t, "Ada")

	account := user.Account()

	assert.Same(t, account, user.Account())
	assert.Equal(t, user.ID().UUID(), account.ID().UUID())
	assert.Equal(t, "Role.Account", account.ID().Tag())
	assert.True(t, account.FetchInfo(context.Background(), true).IsSuccess())
}

func TestUserAcceptAndUnaccept(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "Ada")
	libraryID := domain.RandomID[domain.LibraryRole]()
	b1 := domain.RandomID[domain.BookRole]()
	b2 := domain.RandomID[domain.BookRole]()

	require.True(t, user.AcceptBook(ctx, b1, libraryID).IsSuccess())
	require.True(t, user.AcceptBook(ctx, b2, libraryID).IsSuccess())
	assert.ErrorIs(t, user.AcceptBook(ctx, b1, libraryID).Err(), domain.ErrBookAlreadyAccepted)

	ids := user.AcceptedBookIDs(ctx)
	require.True(t, ids.IsSuccess())
	assert.ElementsMatch(t, []domain.BookID{b1, b2}, ids.Value())

	require.True(t, user.UnacceptBook(ctx, b1).IsSuccess())
	assert.ErrorIs(t, user.UnacceptBook(ctx, b1).Err(), domain.ErrBookNotAccepted)
	assert.Equal(t, 1, f.users.Get(ctx, user.ID()).Value().AcceptedBookCount())
}

func TestBookUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	book := f.seedBook(t, "Draft")

	f.clock.Advance(60)
	require.True(t, book.UpdateTitle(ctx, "Final").IsSuccess())
	require.True(t, book.UpdateAuthor(ctx, "Mary Shelley").IsSuccess())
	updated := book.UpdateDescription(ctx, "A novel")
	require.True(t, updated.IsSuccess())

	stored := f.books.Get(ctx, book.ID()).Value()
	assert.Equal(t, "Final", stored.Title())
	assert.Equal(t, "Mary Shelley", stored.Author())
	assert.Equal(t, "A novel", stored.Description())
	assert.True(t, stored.ModifiedAt().After(stored.CreatedAt()))

	long := make([]byte, domain.MaxTitleLength+1)
	for i := range long {
		long[i] = 'x'
	}
	assert.ErrorIs(t, book.UpdateTitle(ctx, string(long)).Err(), domain.ErrTitleTooLong)
}
