package role

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
)

// Env carries what roles need to reach their records and each other.
type Env struct {
	Accounts  Repo[domain.AccountRole, domain.AccountInfo]
	Books     Repo[domain.BookRole, domain.BookInfo]
	Users     Repo[domain.UserRole, domain.UserInfo]
	Libraries Repo[domain.LibraryRole, domain.LibraryInfo]

	Clock  domain.Clock // nil means domain.SystemClock
	Logger *slog.Logger // nil means slog.Default
}

func (e *Env) now() time.Time {
	if e.Clock == nil {
		return domain.SystemClock{}.Now()
	}
	return e.Clock.Now()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Account returns a role for id with an empty cache.
func (e *Env) Account(id domain.AccountID) *Account {
	return &Account{Role: New(id, e.Accounts), env: e}
}

// Book returns a role for id with an empty cache.
func (e *Env) Book(id domain.BookID) *Book {
	return &Book{Role: New(id, e.Books), env: e}
}

// User returns a role for id with an empty cache.
func (e *Env) User(id domain.UserID) *User {
	return &User{Role: New(id, e.Users), env: e}
}

// Library returns a role for id with an empty cache.
func (e *Env) Library(id domain.LibraryID) *Library {
	return &Library{Role: New(id, e.Libraries), env: e}
}

// PrivateLibrary returns a role for id that lends without account checks.
func (e *Env) PrivateLibrary(id domain.LibraryID) *Library {
	l := e.Library(id)
	l.private = true
	return l
}

func (e *Env) orphanLibrary(bookID domain.BookID) *Library {
	l := e.PrivateLibrary(domain.OrphanLibraryID(bookID))
	l.orphanOf = bookID
	return l
}

// OrphanLibrary returns the orphan library of book, creating it on first
// use with the book's single copy on the shelf. A book with no source
// library gets the orphan as its source.
func (e *Env) OrphanLibrary(ctx context.Context, book *Book) outcome.Outcome[*Library] {
	l := e.orphanLibrary(book.ID())

	existing := l.FetchInfo(ctx, false)
	if existing.IsFailure() && !errors.Is(existing.Err(), domain.ErrNotFound) {
		return outcome.Recast[*Library](existing)
	}
	if existing.IsFailure() {
		if created := e.createOrphan(ctx, l, book); created.IsFailure() {
			return outcome.Recast[*Library](created)
		}
	}

	bookInfo := book.FetchInfo(ctx, true)
	if bookInfo.IsFailure() {
		return outcome.Recast[*Library](bookInfo)
	}
	if !bookInfo.Value().HasSourceLibrary() {
		if set := book.UpdateSourceLibrary(ctx, l.ID()); set.IsFailure() {
			return outcome.Recast[*Library](set)
		}
	}
	return outcome.Success(l)
}

func (e *Env) createOrphan(ctx context.Context, l *Library, book *Book) outcome.Outcome[domain.LibraryInfo] {
	if err := requireUsableBook(ctx, book); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	title := book.FetchInfo(ctx, true).Value().Title()
	info, err := domain.NewLibraryInfo(l.ID(), "Orphan: "+title)
	if err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	stocked := info.AddBookToInventory(e.now(), book.ID(), 1)
	if stocked.IsFailure() {
		return stocked
	}

	created := l.create(ctx, stocked.Value())
	if errors.Is(created.Err(), domain.ErrAlreadyExists) {
		// Created concurrently; use the stored record.
		return l.FetchInfo(ctx, false)
	}
	return created
}
