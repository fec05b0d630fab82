package domain

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/phrazzld/librarian/internal/outcome"
)

// UserInfo is a library patron and the books they currently hold, each
// mapped to the library it came from.
type UserInfo struct {
	id            UserID
	name          string
	email         string
	acceptedBooks map[BookID]LibraryID
	auditLog      AuditLog
}

// fields checks single values against validator tags. validator.Validate
// caches per tag and is safe for concurrent use.
var fields = validator.New()

// NewUserInfo creates a user holding no books.
func NewUserInfo(id UserID, name, email string) (UserInfo, error) {
	u := UserInfo{id: id, name: name, email: email}
	if err := u.Validate(); err != nil {
		return UserInfo{}, err
	}
	return u, nil
}

// Validate checks every field and reports all violations together.
func (u UserInfo) Validate() error {
	var result *multierror.Error
	if u.id.IsZero() {
		result = multierror.Append(result, ErrEmptyID)
	}
	if strings.TrimSpace(u.name) == "" {
		result = multierror.Append(result, ErrEmptyName)
	}
	if err := fields.Var(u.email, "omitempty,email"); err != nil {
		result = multierror.Append(result, ErrInvalidEmail)
	}
	return result.ErrorOrNil()
}

func (u UserInfo) ID() UserID         { return u.id }
func (u UserInfo) Name() string       { return u.name }
func (u UserInfo) Email() string      { return u.email }
func (u UserInfo) AuditLog() AuditLog { return u.auditLog.Clone() }

// AccountID is the ID of the user's account, which shares the user's UUID.
func (u UserInfo) AccountID() AccountID {
	return Retag[AccountRole](u.id)
}

// AcceptedBooks returns a copy of the book to source library map.
func (u UserInfo) AcceptedBooks() map[BookID]LibraryID {
	return maps.Clone(u.acceptedBooks)
}

// AcceptedBookIDs lists held books ordered by their text form.
func (u UserInfo) AcceptedBookIDs() []BookID {
	ids := slices.Collect(maps.Keys(u.acceptedBooks))
	slices.SortFunc(ids, func(a, b BookID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

// AcceptedBookCount is the number of books currently held.
func (u UserInfo) AcceptedBookCount() int {
	return len(u.acceptedBooks)
}

// HasAcceptedBook reports whether the user holds the book.
func (u UserInfo) HasAcceptedBook(bookID BookID) bool {
	_, ok := u.acceptedBooks[bookID]
	return ok
}

func (u UserInfo) next(now time.Time, operation string, details map[string]string) UserInfo {
	c := u
	c.acceptedBooks = maps.Clone(u.acceptedBooks)
	c.auditLog = u.auditLog.Append(now, operation, details)
	return c
}

// AcceptBook records that the user now holds a book from the library.
func (u UserInfo) AcceptBook(now time.Time, bookID BookID, libraryID LibraryID) outcome.Outcome[UserInfo] {
	if u.HasAcceptedBook(bookID) {
		return outcome.Failure[UserInfo](ErrBookAlreadyAccepted)
	}
	c := u.next(now, "acceptBook", map[string]string{
		"bookId":    bookID.String(),
		"libraryId": libraryID.String(),
	})
	if c.acceptedBooks == nil {
		c.acceptedBooks = make(map[BookID]LibraryID, 1)
	}
	c.acceptedBooks[bookID] = libraryID
	return outcome.Success(c)
}

// UnacceptBook records that the user gave a book back.
func (u UserInfo) UnacceptBook(now time.Time, bookID BookID) outcome.Outcome[UserInfo] {
	if !u.HasAcceptedBook(bookID) {
		return outcome.Failure[UserInfo](ErrBookNotAccepted)
	}
	c := u.next(now, "unacceptBook", map[string]string{"bookId": bookID.String()})
	delete(c.acceptedBooks, bookID)
	return outcome.Success(c)
}

// WithEmail returns a copy with a new email address.
func (u UserInfo) WithEmail(now time.Time, email string) outcome.Outcome[UserInfo] {
	c := u.next(now, "withEmail", map[string]string{"email": email})
	c.email = email
	if err := c.Validate(); err != nil {
		return outcome.Failure[UserInfo](err)
	}
	return outcome.Success(c)
}

type userJSON struct {
	ID            UserID               `json:"id"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	AcceptedBooks map[BookID]LibraryID `json:"accepted_books"`
	AuditLog      AuditLog             `json:"audit_log"`
}

func (u UserInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{
		ID:            u.id,
		Name:          u.name,
		Email:         u.email,
		AcceptedBooks: u.acceptedBooks,
		AuditLog:      u.auditLog,
	})
}

func (u *UserInfo) UnmarshalJSON(data []byte) error {
	var dto userJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return decodeError("user", err)
	}
	decoded := UserInfo{
		id:            dto.ID,
		name:          dto.Name,
		email:         dto.Email,
		acceptedBooks: dto.AcceptedBooks,
		auditLog:      dto.AuditLog,
	}
	if err := decoded.Validate(); err != nil {
		return decodeError("user", err)
	}
	*u = decoded
	return nil
}
