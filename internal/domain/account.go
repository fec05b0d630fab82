package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/phrazzld/librarian/internal/outcome"
)

// AccountStatus is the standing of a user's library account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountInactive  AccountStatus = "inactive"
	AccountSuspended AccountStatus = "suspended"
	AccountClosed    AccountStatus = "closed"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountInactive, AccountSuspended, AccountClosed:
		return true
	}
	return false
}

// Account defaults applied by NewAccountInfo.
const (
	DefaultMaxAcceptedBooks = 5
	DefaultMaxFinePennies   = 1000
)

// AccountInfo is the persisted state of a user's account: standing, fines
// in pennies, and limits. An account shares its raw UUID with its user.
type AccountInfo struct {
	id                 AccountID
	name               string
	status             AccountStatus
	currentFinePennies int
	maxAcceptedBooks   int
	maxFinePennies     int
	auditLog           AuditLog
}

// NewAccountInfo creates an active account with default limits and no fines.
func NewAccountInfo(id AccountID, name string) (AccountInfo, error) {
	a := AccountInfo{
		id:               id,
		name:             name,
		status:           AccountActive,
		maxAcceptedBooks: DefaultMaxAcceptedBooks,
		maxFinePennies:   DefaultMaxFinePennies,
	}
	if err := a.Validate(); err != nil {
		return AccountInfo{}, err
	}
	return a, nil
}

// Validate checks every field and reports all violations together.
func (a AccountInfo) Validate() error {
	var result *multierror.Error
	if a.id.IsZero() {
		result = multierror.Append(result, ErrEmptyID)
	}
	if strings.TrimSpace(a.name) == "" {
		result = multierror.Append(result, ErrEmptyName)
	}
	if !a.status.Valid() {
		result = multierror.Append(result, ErrInvalidStatus)
	}
	if a.maxAcceptedBooks < 0 || a.maxFinePennies < 0 {
		result = multierror.Append(result, ErrNegativeAmount)
	}
	return result.ErrorOrNil()
}

func (a AccountInfo) ID() AccountID           { return a.id }
func (a AccountInfo) Name() string            { return a.name }
func (a AccountInfo) Status() AccountStatus   { return a.status }
func (a AccountInfo) CurrentFinePennies() int { return a.currentFinePennies }
func (a AccountInfo) MaxAcceptedBooks() int   { return a.maxAcceptedBooks }
func (a AccountInfo) MaxFinePennies() int     { return a.maxFinePennies }

// AuditLog returns a copy of the record's audit log.
func (a AccountInfo) AuditLog() AuditLog { return a.auditLog.Clone() }

func (a AccountInfo) IsActive() bool { return a.status == AccountActive }
func (a AccountInfo) IsClosed() bool { return a.status == AccountClosed }
func (a AccountInfo) HasFines() bool { return a.currentFinePennies > 0 }

// IsMaxFineExceeded reports whether the balance has reached the ceiling.
func (a AccountInfo) IsMaxFineExceeded() bool {
	return a.currentFinePennies >= a.maxFinePennies
}

// IsInGoodStanding reports whether the user may check out books.
func (a AccountInfo) IsInGoodStanding() bool {
	return a.IsActive() && !a.IsMaxFineExceeded()
}

// HasReachedMaxAcceptedBooks reports whether holding n books meets the limit.
func (a AccountInfo) HasReachedMaxAcceptedBooks(n int) bool {
	return n >= a.maxAcceptedBooks
}

// next copies the record and appends an audit entry to the copy.
func (a AccountInfo) next(now time.Time, operation string, details map[string]string) AccountInfo {
	c := a
	c.auditLog = a.auditLog.Append(now, operation, details)
	return c
}

// calculateStatus derives standing from the fine balance. Closed and
// inactive accounts keep their status until staff change it.
func (a AccountInfo) calculateStatus() AccountStatus {
	switch a.status {
	case AccountClosed, AccountInactive:
		return a.status
	}
	if a.currentFinePennies > a.maxFinePennies {
		return AccountSuspended
	}
	return AccountActive
}

func requireStaff(reason, staffMemberName string) error {
	if reason == "" {
		return ErrEmptyReason
	}
	if staffMemberName == "" {
		return ErrEmptyStaffName
	}
	return nil
}

func staffDetails(reason, staffMemberName string) map[string]string {
	return map[string]string{"reason": reason, "staffMemberName": staffMemberName}
}

func (a AccountInfo) changeStatusByStaff(
	now time.Time,
	operation string,
	status AccountStatus,
	reason, staffMemberName string,
) outcome.Outcome[AccountInfo] {
	if err := requireStaff(reason, staffMemberName); err != nil {
		return outcome.Failure[AccountInfo](err)
	}
	c := a.next(now, operation, staffDetails(reason, staffMemberName))
	c.status = status
	return outcome.Success(c)
}

// ActivateByStaff marks the account active.
func (a AccountInfo) ActivateByStaff(now time.Time, reason, staffMemberName string) outcome.Outcome[AccountInfo] {
	return a.changeStatusByStaff(now, "activateAccountByStaff", AccountActive, reason, staffMemberName)
}

// DeactivateByStaff marks the account inactive.
func (a AccountInfo) DeactivateByStaff(now time.Time, reason, staffMemberName string) outcome.Outcome[AccountInfo] {
	return a.changeStatusByStaff(now, "deactivateAccountByStaff", AccountInactive, reason, staffMemberName)
}

// SuspendByStaff marks the account suspended.
func (a AccountInfo) SuspendByStaff(now time.Time, reason, staffMemberName string) outcome.Outcome[AccountInfo] {
	return a.changeStatusByStaff(now, "suspendAccountByStaff", AccountSuspended, reason, staffMemberName)
}

// CloseByStaff marks the account closed.
func (a AccountInfo) CloseByStaff(now time.Time, reason, staffMemberName string) outcome.Outcome[AccountInfo] {
	return a.changeStatusByStaff(now, "closeAccountByStaff", AccountClosed, reason, staffMemberName)
}

// AddFineForBook charges a fine for a book and recalculates standing
// against the new balance.
func (a AccountInfo) AddFineForBook(now time.Time, amountPennies int, bookID BookID) outcome.Outcome[AccountInfo] {
	if amountPennies < 0 {
		return outcome.Failure[AccountInfo](ErrNegativeAmount)
	}
	c := a.next(now, "addFine", map[string]string{
		"fineAmountPennies": strconv.Itoa(amountPennies),
		"bookId":            bookID.String(),
	})
	c.currentFinePennies += amountPennies
	c.status = c.calculateStatus()
	return outcome.Success(c)
}

// PayFine reduces the balance. Overpayment leaves a credit.
func (a AccountInfo) PayFine(now time.Time, amountPennies int) outcome.Outcome[AccountInfo] {
	if amountPennies < 0 {
		return outcome.Failure[AccountInfo](ErrNegativeAmount)
	}
	c := a.next(now, "payFine", map[string]string{
		"fineAmountPennies": strconv.Itoa(amountPennies),
	})
	c.currentFinePennies -= amountPennies
	c.status = c.calculateStatus()
	return outcome.Success(c)
}

// AdjustFineByStaff sets the balance outright.
func (a AccountInfo) AdjustFineByStaff(
	now time.Time,
	newFinePennies int,
	reason, staffMemberName string,
) outcome.Outcome[AccountInfo] {
	if newFinePennies < 0 {
		return outcome.Failure[AccountInfo](ErrNegativeAmount)
	}
	if err := requireStaff(reason, staffMemberName); err != nil {
		return outcome.Failure[AccountInfo](err)
	}
	details := staffDetails(reason, staffMemberName)
	details["newFinePennies"] = strconv.Itoa(newFinePennies)
	c := a.next(now, "adjustFineByStaff", details)
	c.currentFinePennies = newFinePennies
	c.status = c.calculateStatus()
	return outcome.Success(c)
}

// ChangeMaxBooksByStaff sets how many books the user may hold at once.
func (a AccountInfo) ChangeMaxBooksByStaff(
	now time.Time,
	maxBooks int,
	reason, staffMemberName string,
) outcome.Outcome[AccountInfo] {
	if maxBooks < 0 {
		return outcome.Failure[AccountInfo](ErrNegativeAmount)
	}
	if err := requireStaff(reason, staffMemberName); err != nil {
		return outcome.Failure[AccountInfo](err)
	}
	details := staffDetails(reason, staffMemberName)
	details["maxBooks"] = strconv.Itoa(maxBooks)
	c := a.next(now, "changeMaxBooksByStaff", details)
	c.maxAcceptedBooks = maxBooks
	return outcome.Success(c)
}

// ChangeMaxFineByStaff sets the fine ceiling. Standing is recalculated on
// the next fine change, not here.
func (a AccountInfo) ChangeMaxFineByStaff(
	now time.Time,
	maxFinePennies int,
	reason, staffMemberName string,
) outcome.Outcome[AccountInfo] {
	if maxFinePennies < 0 {
		return outcome.Failure[AccountInfo](ErrNegativeAmount)
	}
	if err := requireStaff(reason, staffMemberName); err != nil {
		return outcome.Failure[AccountInfo](err)
	}
	details := staffDetails(reason, staffMemberName)
	details["maxFinePennies"] = strconv.Itoa(maxFinePennies)
	c := a.next(now, "changeMaxFineByStaff", details)
	c.maxFinePennies = maxFinePennies
	return outcome.Success(c)
}

// WithName returns a renamed copy.
func (a AccountInfo) WithName(now time.Time, name string) outcome.Outcome[AccountInfo] {
	if strings.TrimSpace(name) == "" {
		return outcome.Failure[AccountInfo](ErrEmptyName)
	}
	c := a.next(now, "withName", map[string]string{"name": name})
	c.name = name
	return outcome.Success(c)
}

// WithStatus returns a copy with the given status and no staff attribution.
func (a AccountInfo) WithStatus(now time.Time, status AccountStatus) outcome.Outcome[AccountInfo] {
	if !status.Valid() {
		return outcome.Failure[AccountInfo](ErrInvalidStatus)
	}
	c := a.next(now, "withStatus", map[string]string{"status": string(status)})
	c.status = status
	return outcome.Success(c)
}

type accountJSON struct {
	ID                 AccountID     `json:"id"`
	Name               string        `json:"name"`
	Status             AccountStatus `json:"status"`
	CurrentFinePennies int           `json:"current_fine_pennies"`
	MaxAcceptedBooks   int           `json:"max_accepted_books"`
	MaxFinePennies     int           `json:"max_fine_pennies"`
	AuditLog           AuditLog      `json:"audit_log"`
}

func (a AccountInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(accountJSON{
		ID:                 a.id,
		Name:               a.name,
		Status:             a.status,
		CurrentFinePennies: a.currentFinePennies,
		MaxAcceptedBooks:   a.maxAcceptedBooks,
		MaxFinePennies:     a.maxFinePennies,
		AuditLog:           a.auditLog,
	})
}

func (a *AccountInfo) UnmarshalJSON(data []byte) error {
	var dto accountJSON
	if err := json.Unmarshal(data, &dto); err != nil {
		return decodeError("account", err)
	}
	decoded := AccountInfo{
		id:                 dto.ID,
		name:               dto.Name,
		status:             dto.Status,
		currentFinePennies: dto.CurrentFinePennies,
		maxAcceptedBooks:   dto.MaxAcceptedBooks,
		maxFinePennies:     dto.MaxFinePennies,
		auditLog:           dto.AuditLog,
	}
	if err := decoded.Validate(); err != nil {
		return decodeError("account", err)
	}
	*a = decoded
	return nil
}
