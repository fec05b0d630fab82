package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"

	"github.com/phrazzld/librarian/internal/outcome"
)

// Field limits for BookInfo, counted in runes.
const (
	MaxTitleLength       = 100
	MaxAuthorLength      = 100
	MaxDescriptionLength = 1000
)

// BookInfo describes a title held by one or more libraries. The source
// library, when set, is the library a transfer must take the book from.
type BookInfo struct {
	id            BookID
	title         string
	author        string
	description   string
	sourceLibrary LibraryID
	createdAt     time.Time
	modifiedAt    time.Time
	deleted       bool
	auditLog      AuditLog
}

// NewBookInfo creates a book record stamped with now.
func NewBookInfo(id BookID, title, author, description string, now time.Time) (BookInfo, error) {
	b := BookInfo{
		id:          id,
		title:       title,
		author:      author,
		description: description,
		createdAt:   now.UTC(),
		modifiedAt:  now.UTC(),
	}
	if err := b.Validate(); err != nil {
		return BookInfo{}, err
	}
	return b, nil
}

// Validate checks every field and reports all violations together.
func (b BookInfo) Validate() error {
	var result *multierror.Error
	if b.id.IsZero() {
		result = multierror.Append(result, ErrEmptyID)
	}
	if strings.TrimSpace(b.title) == "" {
		result = multierror.Append(result, ErrEmptyName)
	}
	if utf8.RuneCountInString(b.title) > MaxTitleLength {
		result = multierror.Append(result, ErrTitleTooLong)
	}
	if utf8.RuneCountInString(b.author) > MaxAuthorLength {
		result = multierror.Append(result, ErrAuthorTooLong)
	}
	if utf8.RuneCountInString(b.description) > MaxDescriptionLength {
		result = multierror.Append(result, ErrDescTooLong)
	}
	return result.ErrorOrNil()
}

func (b BookInfo) ID() BookID            { return b.id }
func (b BookInfo) Title() string         { return b.title }
func (b BookInfo) Author() string        { return b.author }
func (b BookInfo) Description() string   { return b.description }
func (b BookInfo) CreatedAt() time.Time  { return b.createdAt }
func (b BookInfo) ModifiedAt() time.Time { return b.modifiedAt }
func (b BookInfo) IsDeleted() bool       { return b.deleted }
func (b BookInfo) AuditLog() AuditLog    { return b.auditLog.Clone() }

// SourceLibraryID is the zero ID until the book is shelved somewhere.
func (b BookInfo) SourceLibraryID() LibraryID { return b.sourceLibrary }

func (b BookInfo) HasSourceLibrary() bool { return !b.sourceLibrary.IsZero() }

func (b BookInfo) next(now time.Time, operation string, details map[string]string) BookInfo {
	c := b
	c.modifiedAt = now.UTC()
	c.auditLog = b.auditLog.Append(now, operation, details)
	return c
}

// validated wraps b as a success when it still passes Validate.
func (b BookInfo) validated() outcome.Outcome[BookInfo] {
	if err := b.Validate(); err != nil {
		return outcome.Failure[BookInfo](err)
	}
	return outcome.Success(b)
}

// WithTitle returns a copy with a new title.
func (b BookInfo) WithTitle(now time.Time, title string) outcome.Outcome[BookInfo] {
	c := b.next(now, "withTitle", map[string]string{"title": title})
	c.title = title
	return c.validated()
}

// WithAuthor returns a copy with a new author.
func (b BookInfo) WithAuthor(now time.Time, author string) outcome.Outcome[BookInfo] {
	c := b.next(now, "withAuthor", map[string]string{"author": author})
	c.author = author
	return c.validated()
}

// WithDescription returns a copy with a new description.
func (b BookInfo) WithDescription(now time.Time, description string) outcome.Outcome[BookInfo] {
	c := b.next(now, "withDescription", nil)
	c.description = description
	return c.validated()
}

// WithSourceLibrary returns a copy that names libraryID as the book's
// source.
func (b BookInfo) WithSourceLibrary(now time.Time, libraryID LibraryID) outcome.Outcome[BookInfo] {
	if libraryID.IsZero() {
		return outcome.Failure[BookInfo](fmt.Errorf("%w: source library", ErrEmptyID))
	}
	c := b.next(now, "withSourceLibrary", map[string]string{"libraryId": libraryID.String()})
	c.sourceLibrary = libraryID
	return outcome.Success(c)
}

// MarkDeleted returns a soft-deleted copy. Deleting twice is allowed.
func (b BookInfo) MarkDeleted(now time.Time) outcome.Outcome[BookInfo] {
	c := b.next(now, "markDeleted", nil)
	c.deleted = true
	return outcome.Success(c)
}

type bookJSON struct {
	ID            BookID     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Description   string     `json:"description"`
	SourceLibrary *LibraryID `json:"source_library_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ModifiedAt    time.Time  `json:"modified_at"`
	Deleted       bool       `json:"deleted"`
	AuditLog      AuditLog   `json:"audit_log"`
}

func (b BookInfo) MarshalJSON() ([]byte, error) {
	dto := bookJSON{
		ID:          b.id,
		Title:       b.title,
		Author:      b.author,
		Description: b.description,
		CreatedAt:   b.createdAt,
		ModifiedAt:  b.modifiedAt,
		Deleted:     b.deleted,
		AuditLog:    b.auditLog,
	}
	if b.HasSourceLibrary() {
		dto.SourceLibrary = &b.sourceLibrary
	}
	return json.Marshal(dto)
}

func (b *BookInfo) UnmarshalJSON(data []byte) error {
	var dto bookJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return decodeError("book", err)
	}
	decoded := BookInfo{
		id:          dto.ID,
		title:       dto.Title,
		author:      dto.Author,
		description: dto.Description,
		createdAt:   dto.CreatedAt,
		modifiedAt:  dto.ModifiedAt,
		deleted:     dto.Deleted,
		auditLog:    dto.AuditLog,
	}
	if dto.SourceLibrary != nil {
		decoded.sourceLibrary = *dto.SourceLibrary
	}
	if err := decoded.Validate(); err != nil {
		return decodeError("book", err)
	}
	*b = decoded
	return nil
}
