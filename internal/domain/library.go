package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/phrazzld/librarian/internal/outcome"
)

// LibraryInfo tracks a library's inventory and which registered user holds
// which of its books. Inventory counts only copies on the shelf; a book
// stays known after its last copy is checked out.
type LibraryInfo struct {
	id         LibraryID
	name       string
	checkedOut map[UserID][]BookID
	inventory  map[BookID]int
	auditLog   AuditLog
}

// NewLibraryInfo creates an empty library.
func NewLibraryInfo(id LibraryID, name string) (LibraryInfo, error) {
	l := LibraryInfo{id: id, name: name}
	if err := l.Validate(); err != nil {
		return LibraryInfo{}, err
	}
	return l, nil
}

// Validate checks every field and reports all violations together.
func (l LibraryInfo) Validate() error {
	var result *multierror.Error
	if l.id.IsZero() {
		result = multierror.Append(result, ErrEmptyID)
	}
	if strings.TrimSpace(l.name) == "" {
		result = multierror.Append(result, ErrEmptyName)
	}
	for bookID, n := range l.inventory {
		if n < 0 {
			result = multierror.Append(result, fmt.Errorf("%w: inventory for %s", ErrNegativeAmount, bookID))
		}
	}
	return result.ErrorOrNil()
}

func (l LibraryInfo) ID() LibraryID      { return l.id }
func (l LibraryInfo) Name() string       { return l.name }
func (l LibraryInfo) AuditLog() AuditLog { return l.auditLog.Clone() }

// Inventory returns a copy of the book to available-count map.
func (l LibraryInfo) Inventory() map[BookID]int {
	return maps.Clone(l.inventory)
}

// RegisteredUserIDs lists registered users ordered by their text form.
func (l LibraryInfo) RegisteredUserIDs() []UserID {
	ids := slices.Collect(maps.Keys(l.checkedOut))
	slices.SortFunc(ids, func(a, b UserID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

func (l LibraryInfo) IsKnownBook(bookID BookID) bool {
	_, ok := l.inventory[bookID]
	return ok
}

func (l LibraryInfo) IsKnownUser(userID UserID) bool {
	_, ok := l.checkedOut[userID]
	return ok
}

// AvailableCount is the number of copies on the shelf.
func (l LibraryInfo) AvailableCount(bookID BookID) int {
	return l.inventory[bookID]
}

func (l LibraryInfo) IsBookAvailable(bookID BookID) bool {
	return l.inventory[bookID] > 0
}

func (l LibraryInfo) IsBookCheckedOutByUser(bookID BookID, userID UserID) bool {
	return slices.Contains(l.checkedOut[userID], bookID)
}

func (l LibraryInfo) IsBookCheckedOutByAnyUser(bookID BookID) bool {
	for _, books := range l.checkedOut {
		if slices.Contains(books, bookID) {
			return true
		}
	}
	return false
}

// FindUserOfCheckedOutBook returns a user holding the book. When several
// users hold copies, the one with the lowest ID text wins.
func (l LibraryInfo) FindUserOfCheckedOutBook(bookID BookID) outcome.Outcome[UserID] {
	for _, userID := range l.RegisteredUserIDs() {
		if slices.Contains(l.checkedOut[userID], bookID) {
			return outcome.Success(userID)
		}
	}
	return outcome.Failure[UserID](fmt.Errorf("%w: %s", ErrBookNotCheckedOut, bookID))
}

// CheckedOutBookIDs lists the books a registered user holds from this library.
func (l LibraryInfo) CheckedOutBookIDs(userID UserID) outcome.Outcome[[]BookID] {
	books, ok := l.checkedOut[userID]
	if !ok {
		return outcome.Failure[[]BookID](fmt.Errorf("%w: %s", ErrUnknownUser, userID))
	}
	return outcome.Success(slices.Clone(books))
}

func (l LibraryInfo) next(now time.Time, operation string, details map[string]string) LibraryInfo {
	c := l
	c.inventory = maps.Clone(l.inventory)
	c.checkedOut = make(map[UserID][]BookID, len(l.checkedOut))
	for userID, books := range l.checkedOut {
		c.checkedOut[userID] = slices.Clone(books)
	}
	c.auditLog = l.auditLog.Append(now, operation, details)
	return c
}

// WithName returns a renamed copy.
func (l LibraryInfo) WithName(now time.Time, name string) outcome.Outcome[LibraryInfo] {
	if strings.TrimSpace(name) == "" {
		return outcome.Failure[LibraryInfo](ErrEmptyName)
	}
	c := l.next(now, "withName", map[string]string{"name": name})
	c.name = name
	return outcome.Success(c)
}

// OrphanLibraryID is the identifier of the private library that holds a
// book belonging to no public library. It shares the book's UUID.
func OrphanLibraryID(bookID BookID) LibraryID {
	return Retag[LibraryRole](bookID)
}

// AddBookToInventory shelves quantity more copies of a book.
func (l LibraryInfo) AddBookToInventory(now time.Time, bookID BookID, quantity int) outcome.Outcome[LibraryInfo] {
	if quantity <= 0 {
		return outcome.Failure[LibraryInfo](ErrNonPositiveCount)
	}
	c := l.next(now, "addBookToInventory", map[string]string{
		"bookId":   bookID.String(),
		"quantity": strconv.Itoa(quantity),
	})
	if c.inventory == nil {
		c.inventory = make(map[BookID]int, 1)
	}
	c.inventory[bookID] += quantity
	return outcome.Success(c)
}

// RemoveBookFromInventory takes quantity copies off the shelf.
func (l LibraryInfo) RemoveBookFromInventory(now time.Time, bookID BookID, quantity int) outcome.Outcome[LibraryInfo] {
	if quantity <= 0 {
		return outcome.Failure[LibraryInfo](ErrNonPositiveCount)
	}
	if !l.IsKnownBook(bookID) {
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrUnknownBook, bookID))
	}
	if l.inventory[bookID] < quantity {
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s has %d, %d requested",
			ErrBookUnavailable, bookID, l.inventory[bookID], quantity))
	}
	c := l.next(now, "removeBookFromInventory", map[string]string{
		"bookId":   bookID.String(),
		"quantity": strconv.Itoa(quantity),
	})
	c.inventory[bookID] -= quantity
	return outcome.Success(c)
}

// RegisterUser adds a user with no books checked out.
func (l LibraryInfo) RegisterUser(now time.Time, userID UserID) outcome.Outcome[LibraryInfo] {
	if l.IsKnownUser(userID) {
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrUserAlreadyRegistered, userID))
	}
	c := l.next(now, "registerUser", map[string]string{"userId": userID.String()})
	c.checkedOut[userID] = []BookID{}
	return outcome.Success(c)
}

// CheckOutBookToUser moves one copy from the shelf to the user.
func (l LibraryInfo) CheckOutBookToUser(now time.Time, bookID BookID, userID UserID) outcome.Outcome[LibraryInfo] {
	switch {
	case !l.IsKnownBook(bookID):
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrUnknownBook, bookID))
	case !l.IsKnownUser(userID):
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrUnknownUser, userID))
	case !l.IsBookAvailable(bookID):
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrBookUnavailable, bookID))
	case l.IsBookCheckedOutByUser(bookID, userID):
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrBookAlreadyOut, bookID))
	}
	c := l.next(now, "checkOutBookToUser", map[string]string{
		"bookId": bookID.String(),
		"userId": userID.String(),
	})
	c.inventory[bookID]--
	c.checkedOut[userID] = append(c.checkedOut[userID], bookID)
	return outcome.Success(c)
}

// CheckInBookFromUser returns the user's copy to the shelf.
func (l LibraryInfo) CheckInBookFromUser(now time.Time, bookID BookID, userID UserID) outcome.Outcome[LibraryInfo] {
	switch {
	case !l.IsKnownBook(bookID):
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrUnknownBook, bookID))
	case !l.IsKnownUser(userID):
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrUnknownUser, userID))
	case !l.IsBookCheckedOutByUser(bookID, userID):
		return outcome.Failure[LibraryInfo](fmt.Errorf("%w: %s", ErrBookNotCheckedOut, bookID))
	}
	c := l.next(now, "checkInBookFromUser", map[string]string{
		"bookId": bookID.String(),
		"userId": userID.String(),
	})
	c.inventory[bookID]++
	c.checkedOut[userID] = slices.DeleteFunc(c.checkedOut[userID], func(id BookID) bool {
		return id == bookID
	})
	return outcome.Success(c)
}

type libraryJSON struct {
	ID         LibraryID           `json:"id"`
	Name       string              `json:"name"`
	CheckedOut map[UserID][]BookID `json:"checked_out"`
	Inventory  map[BookID]int      `json:"inventory"`
	AuditLog   AuditLog            `json:"audit_log"`
}

func (l LibraryInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(libraryJSON{
		ID:         l.id,
		Name:       l.name,
		CheckedOut: l.checkedOut,
		Inventory:  l.inventory,
		AuditLog:   l.auditLog,
	})
}

func (l *LibraryInfo) UnmarshalJSON(data []byte) error {
	var dto libraryJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return decodeError("library", err)
	}
	decoded := LibraryInfo{
		id:         dto.ID,
		name:       dto.Name,
		checkedOut: dto.CheckedOut,
		inventory:  dto.Inventory,
		auditLog:   dto.AuditLog,
	}
	if err := decoded.Validate(); err != nil {
		return decodeError("library", err)
	}
	*l = decoded
	return nil
}
