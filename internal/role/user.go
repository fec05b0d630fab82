package role

import (
	"context"
	"sync"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
)

// User is the role for a library patron. Its account shares the user's
// UUID under the account tag.
type User struct {
	*Role[domain.UserRole, domain.UserInfo]
	env *Env

	accountOnce sync.Once
	account     *Account
}

// Account returns the user's account role. Repeated calls share one
// role and therefore one cache.
func (u *User) Account() *Account {
	u.accountOnce.Do(func() {
		u.account = u.env.Account(domain.Retag[domain.AccountRole](u.ID()))
	})
	return u.account
}

func (u *User) AcceptBook(ctx context.Context, bookID domain.BookID, libraryID domain.LibraryID) outcome.Outcome[domain.UserInfo] {
	return u.modify(ctx, func(info domain.UserInfo) outcome.Outcome[domain.UserInfo] {
		return info.AcceptBook(u.env.now(), bookID, libraryID)
	})
}

func (u *User) UnacceptBook(ctx context.Context, bookID domain.BookID) outcome.Outcome[domain.UserInfo] {
	return u.modify(ctx, func(info domain.UserInfo) outcome.Outcome[domain.UserInfo] {
		return info.UnacceptBook(u.env.now(), bookID)
	})
}

// AcceptedBookIDs lists accepted books in identifier order.
func (u *User) AcceptedBookIDs(ctx context.Context) outcome.Outcome[[]domain.BookID] {
	return outcome.Map(u.FetchInfo(ctx, true), domain.UserInfo.AcceptedBookIDs)
}
