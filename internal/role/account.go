package role

import (
	"context"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
)

// Account is the role for a user's account: standing, fines and limits.
type Account struct {
	*Role[domain.AccountRole, domain.AccountInfo]
	env *Env
}

func (a *Account) apply(
	ctx context.Context,
	fn func(domain.AccountInfo, *Env) outcome.Outcome[domain.AccountInfo],
) outcome.Outcome[domain.AccountInfo] {
	return a.modify(ctx, func(info domain.AccountInfo) outcome.Outcome[domain.AccountInfo] {
		return fn(info, a.env)
	})
}

func (a *Account) ActivateByStaff(ctx context.Context, reason, staff string) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.ActivateByStaff(e.now(), reason, staff)
	})
}

func (a *Account) DeactivateByStaff(ctx context.Context, reason, staff string) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.DeactivateByStaff(e.now(), reason, staff)
	})
}

func (a *Account) SuspendByStaff(ctx context.Context, reason, staff string) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.SuspendByStaff(e.now(), reason, staff)
	})
}

func (a *Account) CloseByStaff(ctx context.Context, reason, staff string) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.CloseByStaff(e.now(), reason, staff)
	})
}

func (a *Account) AddFineForBook(ctx context.Context, amountPennies int, bookID domain.BookID) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.AddFineForBook(e.now(), amountPennies, bookID)
	})
}

func (a *Account) PayFine(ctx context.Context, amountPennies int) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.PayFine(e.now(), amountPennies)
	})
}

func (a *Account) AdjustFineByStaff(
	ctx context.Context,
	newFinePennies int,
	reason, staff string,
) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.AdjustFineByStaff(e.now(), newFinePennies, reason, staff)
	})
}

func (a *Account) ChangeMaxBooksByStaff(
	ctx context.Context,
	maxBooks int,
	reason, staff string,
) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.ChangeMaxBooksByStaff(e.now(), maxBooks, reason, staff)
	})
}

func (a *Account) ChangeMaxFineByStaff(
	ctx context.Context,
	maxFinePennies int,
	reason, staff string,
) outcome.Outcome[domain.AccountInfo] {
	return a.apply(ctx, func(info domain.AccountInfo, e *Env) outcome.Outcome[domain.AccountInfo] {
		return info.ChangeMaxFineByStaff(e.now(), maxFinePennies, reason, staff)
	})
}

// IsInGoodStanding uses the cached record when there is one.
func (a *Account) IsInGoodStanding(ctx context.Context) outcome.Outcome[bool] {
	return outcome.Map(a.FetchInfo(ctx, true), domain.AccountInfo.IsInGoodStanding)
}
