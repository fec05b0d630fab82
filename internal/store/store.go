package store

import (
	"context"
	"strings"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
)

// Store is a keyed table from identifier to record.
//
// Add fails with domain.ErrAlreadyExists when the key is present. Update
// overwrites unconditionally, creating the key if needed; callers wanting
// existence checks use Get first or Add. Upsert updates a present key and
// adds a missing one. Delete fails with domain.ErrNotFound for a missing
// key. ListAll returns a fresh map the caller may modify.
type Store[K domain.Kind, R domain.Record[K]] interface {
	Get(ctx context.Context, id domain.ID[K]) outcome.Outcome[R]
	Add(ctx context.Context, record R) outcome.Outcome[R]
	Update(ctx context.Context, record R) outcome.Outcome[R]
	Upsert(ctx context.Context, record R) outcome.Outcome[R]
	Delete(ctx context.Context, record R) outcome.Outcome[R]
	ListAll(ctx context.Context) outcome.Outcome[map[domain.ID[K]]R]
}

// Container is implemented by stores that can answer existence cheaply.
type Container[K domain.Kind] interface {
	Contains(ctx context.Context, id domain.ID[K]) bool
}

// Typed stores for the library records.
type (
	AccountStore = Store[domain.AccountRole, domain.AccountInfo]
	BookStore    = Store[domain.BookRole, domain.BookInfo]
	UserStore    = Store[domain.UserRole, domain.UserInfo]
	LibraryStore = Store[domain.LibraryRole, domain.LibraryInfo]
)

// EntityName is the short name used in errors and logs, e.g. "account"
// for the "Role.Account" tag.
func EntityName[K domain.Kind]() string {
	tag := domain.TagOf[K]()
	tag = tag[strings.LastIndex(tag, ".")+1:]
	if tag == "" {
		return "record"
	}
	return strings.ToLower(tag[:1]) + tag[1:]
}
