package role_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/librarian/internal/domain"
)

func TestAccountFineScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	account := f.seedUser(t, "Ada").Account()
	bookID := domain.RandomID[domain.BookRole]()

	first := account.AddFineForBook(ctx, 500, bookID)
	require.True(t, first.IsSuccess())
	assert.Equal(t, domain.AccountActive, first.Value().Status())

	second := account.AddFineForBook(ctx, 600, bookID)
	require.True(t, second.IsSuccess())
	assert.Equal(t, 1100, second.Value().CurrentFinePennies())
	assert.Equal(t, domain.AccountSuspended, second.Value().Status())
	assert.False(t, account.IsInGoodStanding(ctx).Value())

	paid := account.PayFine(ctx, 1100)
	require.True(t, paid.IsSuccess())
	assert.Equal(t, domain.AccountActive, paid.Value().Status())

	stored := f.accounts.Get(ctx, account.ID())
	assert.Equal(t, 0, stored.Value().CurrentFinePennies())
}

func TestAccountRejectsBadArgumentsWithoutWriting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	account := f.seedUser(t, "Ada").Account()

	assert.ErrorIs(t, account.PayFine(ctx, -1).Err(), domain.ErrNegativeAmount)
	assert.ErrorIs(t, account.SuspendByStaff(ctx, "", "Grace").Err(), domain.ErrEmptyReason)
	assert.ErrorIs(t, account.AdjustFineByStaff(ctx, 10, "waiver", "").Err(), domain.ErrEmptyStaffName)

	stored := f.accounts.Get(ctx, account.ID())
	require.True(t, stored.IsSuccess())
	assert.Empty(t, stored.Value().AuditLog())
}

func TestAccountStaffOperations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	account := f.seedUser(t, "Ada").Account()

	require.True(t, account.DeactivateByStaff(ctx, "on leave", "Grace").IsSuccess())
	f.clock.Advance(1)
	reactivated := account.ActivateByStaff(ctx, "back", "Grace")
	require.True(t, reactivated.IsSuccess())
	assert.Equal(t, domain.AccountActive, reactivated.Value().Status())

	require.True(t, account.ChangeMaxFineByStaff(ctx, 50, "policy", "Grace").IsSuccess())
	adjusted := account.AdjustFineByStaff(ctx, 60, "damage", "Grace")
	require.True(t, adjusted.IsSuccess())
	assert.Equal(t, domain.AccountSuspended, adjusted.Value().Status())

	last, ok := adjusted.Value().AuditLog().Last()
	require.True(t, ok)
	assert.Equal(t, "adjustFineByStaff", last.Operation)
	assert.Equal(t, "Grace", last.Details["staffMemberName"])
}
