package role

import (
	"context"
	"fmt"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
)

// Book is the role for a catalogue entry.
type Book struct {
	*Role[domain.BookRole, domain.BookInfo]
	env *Env
}

func (b *Book) UpdateTitle(ctx context.Context, title string) outcome.Outcome[domain.BookInfo] {
	return b.modify(ctx, func(info domain.BookInfo) outcome.Outcome[domain.BookInfo] {
		return info.WithTitle(b.env.now(), title)
	})
}

func (b *Book) UpdateAuthor(ctx context.Context, author string) outcome.Outcome[domain.BookInfo] {
	return b.modify(ctx, func(info domain.BookInfo) outcome.Outcome[domain.BookInfo] {
		return info.WithAuthor(b.env.now(), author)
	})
}

func (b *Book) UpdateDescription(ctx context.Context, description string) outcome.Outcome[domain.BookInfo] {
	return b.modify(ctx, func(info domain.BookInfo) outcome.Outcome[domain.BookInfo] {
		return info.WithDescription(b.env.now(), description)
	})
}

func (b *Book) MarkDeleted(ctx context.Context) outcome.Outcome[domain.BookInfo] {
	return b.modify(ctx, func(info domain.BookInfo) outcome.Outcome[domain.BookInfo] {
		return info.MarkDeleted(b.env.now())
	})
}

// UpdateSourceLibrary names the library a transfer takes the book from.
func (b *Book) UpdateSourceLibrary(ctx context.Context, libraryID domain.LibraryID) outcome.Outcome[domain.BookInfo] {
	return b.modify(ctx, func(info domain.BookInfo) outcome.Outcome[domain.BookInfo] {
		return info.WithSourceLibrary(b.env.now(), libraryID)
	})
}

// SourceLibrary returns the role of the book's source library. A book
// whose source is its own orphan library gets the orphan role.
func (b *Book) SourceLibrary(ctx context.Context) outcome.Outcome[*Library] {
	return outcome.FlatMap(b.FetchInfo(ctx, true), func(info domain.BookInfo) outcome.Outcome[*Library] {
		if !info.HasSourceLibrary() {
			return outcome.Failure[*Library](fmt.Errorf("%w: %s", domain.ErrNoSourceLibrary, b.ID()))
		}
		if info.SourceLibraryID() == domain.OrphanLibraryID(b.ID()) {
			return outcome.Success(b.env.orphanLibrary(b.ID()))
		}
		return outcome.Success(b.env.Library(info.SourceLibraryID()))
	})
}
