package role

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
	"github.com/phrazzld/librarian/internal/platform/logger"
	"github.com/phrazzld/librarian/internal/redact"
)

// Library is the role for a branch: its inventory, registered users and
// checkouts. Checkout and check-in also update the user's accepted books.
//
// A private library lends without consulting the borrower's account. An
// orphan library is a private library that holds exactly one book, the one
// whose UUID it shares.
type Library struct {
	*Role[domain.LibraryRole, domain.LibraryInfo]
	env *Env

	private  bool
	orphanOf domain.BookID
}

func (l *Library) IsPrivate() bool { return l.private }

func (l *Library) IsOrphan() bool { return !l.orphanOf.IsZero() }

func (l *Library) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, l.env.logger()).With(
		slog.String("component", "library_role"),
		slog.String("library_id", l.ID().String()))
}

// AddBookToInventory shelves quantity copies of book. A book with no
// source library yet gets l as its source.
func (l *Library) AddBookToInventory(ctx context.Context, book *Book, quantity int) outcome.Outcome[domain.LibraryInfo] {
	if err := l.allowsBook(book.ID()); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	if err := requireUsableBook(ctx, book); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	added := l.modify(ctx, func(info domain.LibraryInfo) outcome.Outcome[domain.LibraryInfo] {
		return info.AddBookToInventory(l.env.now(), book.ID(), quantity)
	})
	if added.IsFailure() {
		return added
	}

	if info := book.FetchInfo(ctx, true); info.IsSuccess() && !info.Value().HasSourceLibrary() {
		if set := book.UpdateSourceLibrary(ctx, l.ID()); set.IsFailure() {
			l.log(ctx).Warn("failed to record source library",
				slog.String("book_id", book.ID().String()),
				slog.String("error", redact.Error(set.Err())))
		}
	}
	return added
}

func (l *Library) RemoveBookFromInventory(ctx context.Context, bookID domain.BookID, quantity int) outcome.Outcome[domain.LibraryInfo] {
	return l.modify(ctx, func(info domain.LibraryInfo) outcome.Outcome[domain.LibraryInfo] {
		return info.RemoveBookFromInventory(l.env.now(), bookID, quantity)
	})
}

func (l *Library) RegisterUser(ctx context.Context, user *User) outcome.Outcome[domain.LibraryInfo] {
	if u := user.FetchInfo(ctx, true); u.IsFailure() {
		return outcome.Recast[domain.LibraryInfo](u)
	}
	return l.modify(ctx, func(info domain.LibraryInfo) outcome.Outcome[domain.LibraryInfo] {
		return info.RegisterUser(l.env.now(), user.ID())
	})
}

// FindUserOfCheckedOutBook uses the cached record when there is one.
func (l *Library) FindUserOfCheckedOutBook(ctx context.Context, bookID domain.BookID) outcome.Outcome[domain.UserID] {
	return outcome.FlatMap(l.FetchInfo(ctx, true), func(info domain.LibraryInfo) outcome.Outcome[domain.UserID] {
		return info.FindUserOfCheckedOutBook(bookID)
	})
}

// AvailableCount uses the cached record when there is one.
func (l *Library) AvailableCount(ctx context.Context, bookID domain.BookID) outcome.Outcome[int] {
	return outcome.Map(l.FetchInfo(ctx, true), func(info domain.LibraryInfo) int {
		return info.AvailableCount(bookID)
	})
}

// CheckOutBookToUser lends one copy of book to user. The user's account
// must be in good standing and below its book limit. A user the library
// has not seen yet is registered first. If the user record cannot be
// updated afterwards the checkout is reversed.
func (l *Library) CheckOutBookToUser(ctx context.Context, book *Book, user *User) outcome.Outcome[domain.LibraryInfo] {
	l.log(ctx).Debug("checking out book",
		slog.String("book_id", book.ID().String()),
		slog.String("user_id", user.ID().String()))

	if err := l.allowsBook(book.ID()); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	if err := requireUsableBook(ctx, book); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	if err := l.requireEligibleBorrower(ctx, user, book.ID()); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}

	checkedOut := l.modify(ctx, func(info domain.LibraryInfo) outcome.Outcome[domain.LibraryInfo] {
		now := l.env.now()
		if !info.IsKnownUser(user.ID()) {
			registered := info.RegisterUser(now, user.ID())
			if registered.IsFailure() {
				return registered
			}
			info = registered.Value()
		}
		return info.CheckOutBookToUser(now, book.ID(), user.ID())
	})
	if checkedOut.IsFailure() {
		return checkedOut
	}

	if accepted := user.AcceptBook(ctx, book.ID(), l.ID()); accepted.IsFailure() {
		l.log(ctx).Warn("user update failed, reversing checkout",
			slog.String("book_id", book.ID().String()),
			slog.String("user_id", user.ID().String()),
			slog.String("error", redact.Error(accepted.Err())))
		if undo := l.checkIn(ctx, book.ID(), user.ID()); undo.IsFailure() {
			l.log(ctx).Error("failed to reverse checkout", slog.String("error", redact.Error(undo.Err())))
		}
		return outcome.Recast[domain.LibraryInfo](accepted)
	}
	return checkedOut
}

// CheckInBookFromUser takes a copy back from user and removes it from the
// user's accepted books.
func (l *Library) CheckInBookFromUser(ctx context.Context, book *Book, user *User) outcome.Outcome[domain.LibraryInfo] {
	l.log(ctx).Debug("checking in book",
		slog.String("book_id", book.ID().String()),
		slog.String("user_id", user.ID().String()))

	if err := l.allowsBook(book.ID()); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	checkedIn := l.checkIn(ctx, book.ID(), user.ID())
	if checkedIn.IsFailure() {
		return checkedIn
	}

	userInfo := user.FetchInfo(ctx, true)
	if userInfo.IsSuccess() && !userInfo.Value().HasAcceptedBook(book.ID()) {
		return checkedIn
	}
	if unaccepted := user.UnacceptBook(ctx, book.ID()); unaccepted.IsFailure() {
		return outcome.Recast[domain.LibraryInfo](unaccepted)
	}
	return checkedIn
}

func (l *Library) checkIn(ctx context.Context, bookID domain.BookID, userID domain.UserID) outcome.Outcome[domain.LibraryInfo] {
	return l.modify(ctx, func(info domain.LibraryInfo) outcome.Outcome[domain.LibraryInfo] {
		return info.CheckInBookFromUser(l.env.now(), bookID, userID)
	})
}

// TransferCheckedOutBook moves a checked-out book from one user to
// another without it returning to the shelf in between. If the checkout to
// the new user fails, the book is checked back out to the old one.
func (l *Library) TransferCheckedOutBook(ctx context.Context, book *Book, from, to *User) outcome.Outcome[domain.LibraryInfo] {
	l.log(ctx).Debug("transferring book",
		slog.String("book_id", book.ID().String()),
		slog.String("from_user_id", from.ID().String()),
		slog.String("to_user_id", to.ID().String()))

	current := l.FetchInfo(ctx, true)
	if current.IsFailure() {
		return current
	}
	if !current.Value().IsBookCheckedOutByUser(book.ID(), from.ID()) {
		return outcome.Failure[domain.LibraryInfo](
			fmt.Errorf("%w: book %s, user %s", domain.ErrBookNotCheckedOut, book.ID(), from.ID()))
	}
	if err := l.requireEligibleBorrower(ctx, to, book.ID()); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}

	if in := l.CheckInBookFromUser(ctx, book, from); in.IsFailure() {
		return in
	}
	out := l.CheckOutBookToUser(ctx, book, to)
	if out.IsFailure() {
		l.log(ctx).Warn("transfer failed, returning book to original borrower",
			slog.String("book_id", book.ID().String()),
			slog.String("user_id", from.ID().String()),
			slog.String("error", redact.Error(out.Err())))
		if undo := l.CheckOutBookToUser(ctx, book, from); undo.IsFailure() {
			l.log(ctx).Error("failed to reverse transfer", slog.String("error", redact.Error(undo.Err())))
		}
	}
	return out
}

// TransferBookFromSource moves one shelved copy of book from its source
// library to l and makes l the book's new source. When a later step fails
// the earlier ones are reversed.
func (l *Library) TransferBookFromSource(ctx context.Context, book *Book) outcome.Outcome[domain.LibraryInfo] {
	if err := l.allowsBook(book.ID()); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	if err := requireUsableBook(ctx, book); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	source, err := l.sourceOf(ctx, book)
	if err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	return l.transferFrom(ctx, book, source)
}

func (l *Library) transferFrom(ctx context.Context, book *Book, source *Library) outcome.Outcome[domain.LibraryInfo] {
	l.log(ctx).Debug("transferring book from source library",
		slog.String("book_id", book.ID().String()),
		slog.String("source_library_id", source.ID().String()))

	if removed := source.RemoveBookFromInventory(ctx, book.ID(), 1); removed.IsFailure() {
		return removed
	}

	added := l.modify(ctx, func(info domain.LibraryInfo) outcome.Outcome[domain.LibraryInfo] {
		return info.AddBookToInventory(l.env.now(), book.ID(), 1)
	})
	if added.IsFailure() {
		l.restock(ctx, source, book.ID(), added.Err())
		return added
	}

	if moved := book.UpdateSourceLibrary(ctx, l.ID()); moved.IsFailure() {
		if undo := l.RemoveBookFromInventory(ctx, book.ID(), 1); undo.IsFailure() {
			l.log(ctx).Error("failed to unshelve transferred book", slog.String("error", redact.Error(undo.Err())))
		}
		l.restock(ctx, source, book.ID(), moved.Err())
		return outcome.Recast[domain.LibraryInfo](moved)
	}
	return added
}

// TransferCheckedOutBookFromSource takes book back from whoever holds it
// at its source library, moves it to l and checks it out to user here. If
// the move fails the book is checked back out to its holder. If only the
// final checkout fails the book stays on l's shelf.
func (l *Library) TransferCheckedOutBookFromSource(ctx context.Context, book *Book, user *User) outcome.Outcome[domain.LibraryInfo] {
	if err := l.allowsBook(book.ID()); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	if err := requireUsableBook(ctx, book); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	if err := l.requireEligibleBorrower(ctx, user, book.ID()); err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}
	source, err := l.sourceOf(ctx, book)
	if err != nil {
		return outcome.Failure[domain.LibraryInfo](err)
	}

	holderID := source.FindUserOfCheckedOutBook(ctx, book.ID())
	if holderID.IsFailure() {
		return outcome.Recast[domain.LibraryInfo](holderID)
	}
	holder := l.env.User(holderID.Value())
	if in := source.CheckInBookFromUser(ctx, book, holder); in.IsFailure() {
		return in
	}

	moved := l.transferFrom(ctx, book, source)
	if moved.IsFailure() {
		l.log(ctx).Warn("transfer failed, returning book to holder",
			slog.String("book_id", book.ID().String()),
			slog.String("user_id", holder.ID().String()),
			slog.String("error", redact.Error(moved.Err())))
		if undo := source.CheckOutBookToUser(ctx, book, holder); undo.IsFailure() {
			l.log(ctx).Error("failed to return book to holder", slog.String("error", redact.Error(undo.Err())))
		}
		return moved
	}
	return l.CheckOutBookToUser(ctx, book, user)
}

// sourceOf resolves book's source library, which must not be l.
func (l *Library) sourceOf(ctx context.Context, book *Book) (*Library, error) {
	source, err := book.SourceLibrary(ctx).Get()
	if err != nil {
		return nil, err
	}
	if source.ID() == l.ID() {
		return nil, fmt.Errorf("%w: %s", domain.ErrSameLibrary, l.ID())
	}
	return source, nil
}

// restock puts one copy back on source's shelf after a failed transfer.
func (l *Library) restock(ctx context.Context, source *Library, bookID domain.BookID, cause error) {
	l.log(ctx).Warn("transfer failed, restocking source library",
		slog.String("book_id", bookID.String()),
		slog.String("source_library_id", source.ID().String()),
		slog.String("error", redact.Error(cause)))
	undo := source.modify(ctx, func(info domain.LibraryInfo) outcome.Outcome[domain.LibraryInfo] {
		return info.AddBookToInventory(l.env.now(), bookID, 1)
	})
	if undo.IsFailure() {
		l.log(ctx).Error("failed to restock source library", slog.String("error", redact.Error(undo.Err())))
	}
}

func (l *Library) allowsBook(bookID domain.BookID) error {
	if l.IsOrphan() && bookID != l.orphanOf {
		return fmt.Errorf("%w: %s holds %s, not %s", domain.ErrOrphanLibraryBook, l.ID(), l.orphanOf, bookID)
	}
	return nil
}

func requireUsableBook(ctx context.Context, book *Book) error {
	info := book.FetchInfo(ctx, true)
	if info.IsFailure() {
		return info.Err()
	}
	if info.Value().IsDeleted() {
		return fmt.Errorf("%w: book %s is deleted", domain.ErrBookUnavailable, book.ID())
	}
	return nil
}

// requireEligibleBorrower checks that user can take bookID. A private
// library skips the account checks.
func (l *Library) requireEligibleBorrower(ctx context.Context, user *User, bookID domain.BookID) error {
	userInfo := user.FetchInfo(ctx, true)
	if userInfo.IsFailure() {
		return userInfo.Err()
	}
	if userInfo.Value().HasAcceptedBook(bookID) {
		return fmt.Errorf("%w: book %s, user %s", domain.ErrBookAlreadyAccepted, bookID, user.ID())
	}
	if l.private {
		return nil
	}

	account := user.Account().FetchInfo(ctx, true)
	if account.IsFailure() {
		return account.Err()
	}
	switch a := account.Value(); {
	case a.IsClosed():
		return fmt.Errorf("%w: user %s", domain.ErrAccountClosed, user.ID())
	case !a.IsInGoodStanding():
		return fmt.Errorf("%w: user %s", domain.ErrAccountNotInGoodStanding, user.ID())
	case a.HasReachedMaxAcceptedBooks(userInfo.Value().AcceptedBookCount()):
		return fmt.Errorf("%w: user %s", domain.ErrMaxBooksReached, user.ID())
	}
	return nil
}
