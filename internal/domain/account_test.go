package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountInfo(t *testing.T) {
	t.Parallel()

	a := newTestAccount(t)

	assert.Equal(t, AccountActive, a.Status())
	assert.Zero(t, a.CurrentFinePennies())
	assert.Equal(t, DefaultMaxAcceptedBooks, a.MaxAcceptedBooks())
	assert.Equal(t, DefaultMaxFinePennies, a.MaxFinePennies())
	assert.Empty(t, a.AuditLog())
	assert.True(t, a.IsInGoodStanding())

	_, err := NewAccountInfo(AccountID{}, "")
	assert.ErrorIs(t, err, ErrEmptyID)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestAccountFineAccrual(t *testing.T) {
	t.Parallel()

	a := newTestAccount(t)
	book := RandomID[BookRole]()

	first := a.AddFineForBook(epoch, 500, book)
	require.True(t, first.IsSuccess())
	assert.Equal(t, 500, first.Value().CurrentFinePennies())
	assert.Equal(t, AccountActive, first.Value().Status())

	second := first.Value().AddFineForBook(epoch.Add(time.Minute), 600, book)
	require.True(t, second.IsSuccess())
	assert.Equal(t, 1100, second.Value().CurrentFinePennies())
	assert.Equal(t, AccountSuspended, second.Value().Status())
	assert.False(t, second.Value().IsInGoodStanding())

	log := second.Value().AuditLog()
	require.Len(t, log, 2)
	assert.Equal(t, "addFine", log[1].Operation)
	assert.Equal(t, "600", log[1].Details["fineAmountPennies"])
	assert.Equal(t, book.String(), log[1].Details["bookId"])

	// Paying down below the ceiling restores standing.
	paid := second.Value().PayFine(epoch.Add(2*time.Minute), 200)
	require.True(t, paid.IsSuccess())
	assert.Equal(t, 900, paid.Value().CurrentFinePennies())
	assert.Equal(t, AccountActive, paid.Value().Status())
}

func TestAccountRejectsNegativeAmounts(t *testing.T) {
	t.Parallel()

	a := newTestAccount(t)
	a = a.AddFineForBook(epoch, 300, RandomID[BookRole]()).Value()

	tests := []struct {
		name string
		run  func() error
	}{
		{"pay fine", func() error { return a.PayFine(epoch, -1).Err() }},
		{"add fine", func() error { return a.AddFineForBook(epoch, -5, RandomID[BookRole]()).Err() }},
		{"adjust fine", func() error { return a.AdjustFineByStaff(epoch, -1, "r", "s").Err() }},
		{"max books", func() error { return a.ChangeMaxBooksByStaff(epoch, -1, "r", "s").Err() }},
		{"max fine", func() error { return a.ChangeMaxFineByStaff(epoch, -1, "r", "s").Err() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.ErrorIs(t, err, ErrNegativeAmount)
		})
	}

	assert.Equal(t, 300, a.CurrentFinePennies(), "original record must be untouched")
	assert.Len(t, a.AuditLog(), 1)
}

func TestAccountStaffOperations(t *testing.T) {
	t.Parallel()

	a := newTestAccount(t)

	tests := []struct {
		name   string
		op     func(AccountInfo, string, string) AccountInfo
		status AccountStatus
		opName string
	}{
		{"deactivate", func(a AccountInfo, r, s string) AccountInfo { return a.DeactivateByStaff(epoch, r, s).Value() }, AccountInactive, "deactivateAccountByStaff"},
		{"suspend", func(a AccountInfo, r, s string) AccountInfo { return a.SuspendByStaff(epoch, r, s).Value() }, AccountSuspended, "suspendAccountByStaff"},
		{"close", func(a AccountInfo, r, s string) AccountInfo { return a.CloseByStaff(epoch, r, s).Value() }, AccountClosed, "closeAccountByStaff"},
		{"activate", func(a AccountInfo, r, s string) AccountInfo { return a.ActivateByStaff(epoch, r, s).Value() }, AccountActive, "activateAccountByStaff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op(a, "policy", "Grace")
			assert.Equal(t, tt.status, got.Status())
			entry, ok := got.AuditLog().Last()
			require.True(t, ok)
			assert.Equal(t, tt.opName, entry.Operation)
			assert.Equal(t, "policy", entry.Details["reason"])
			assert.Equal(t, "Grace", entry.Details["staffMemberName"])
		})
	}

	assert.ErrorIs(t, a.SuspendByStaff(epoch, "", "Grace").Err(), ErrEmptyReason)
	assert.ErrorIs(t, a.SuspendByStaff(epoch, "policy", "").Err(), ErrEmptyStaffName)
}

func TestAccountClosedStatusSurvivesFines(t *testing.T) {
	t.Parallel()

	closed := newTestAccount(t).CloseByStaff(epoch, "moved", "Grace").Value()

	fined := closed.AddFineForBook(epoch, 5000, RandomID[BookRole]())
	require.True(t, fined.IsSuccess())
	assert.Equal(t, AccountClosed, fined.Value().Status())
}

func TestAccountLimits(t *testing.T) {
	t.Parallel()

	a := newTestAccount(t).ChangeMaxBooksByStaff(epoch, 2, "trial", "Grace").Value()

	assert.False(t, a.HasReachedMaxAcceptedBooks(1))
	assert.True(t, a.HasReachedMaxAcceptedBooks(2))

	a = a.ChangeMaxFineByStaff(epoch, 100, "trial", "Grace").Value()
	a = a.AdjustFineByStaff(epoch, 100, "late return", "Grace").Value()
	assert.True(t, a.IsMaxFineExceeded())
	assert.True(t, a.HasFines())
	assert.Equal(t, AccountActive, a.Status(), "suspension needs the fine to exceed the ceiling")
}

func TestAccountWithStatusIsImmutable(t *testing.T) {
	t.Parallel()

	info1 := newTestAccount(t).AddFineForBook(epoch, 10, RandomID[BookRole]()).Value()
	before := info1.AuditLog()

	info2 := info1.WithStatus(epoch.Add(time.Second), AccountInactive)
	require.True(t, info2.IsSuccess())

	assert.Equal(t, info1.ID(), info2.Value().ID())
	assert.Equal(t, AccountActive, info1.Status())
	assert.Equal(t, AccountInactive, info2.Value().Status())
	assert.Equal(t, before, info1.AuditLog())
	assert.Len(t, info2.Value().AuditLog(), len(before)+1)

	assert.ErrorIs(t, info1.WithStatus(epoch, "frozen").Err(), ErrInvalidStatus)
	assert.ErrorIs(t, info1.WithName(epoch, " ").Err(), ErrEmptyName)
	assert.Equal(t, "Ada King", info1.WithName(epoch, "Ada King").Value().Name())
}

func TestAccountJSONRoundTrip(t *testing.T) {
	t.Parallel()

	a := newTestAccount(t).
		AddFineForBook(epoch, 250, RandomID[BookRole]()).Value().
		SuspendByStaff(epoch, "review", "Grace").Value()

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded AccountInfo
	require.NoError(t, json.Unmarshal(data, &decoded))

	if diff := cmp.Diff(a, decoded, cmp.AllowUnexported(AccountInfo{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAccountUnmarshalRejectsBadInput(t *testing.T) {
	t.Parallel()

	var a AccountInfo
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"id": 12}`), &a), ErrParse)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"id":"UUID2:Role.Book@`+rawID+`","name":"x","status":"active"}`), &a), ErrTypeMismatch)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"id":"UUID2:Role.Account@`+rawID+`","name":"x","status":"gone"}`), &a), ErrParse)
}
