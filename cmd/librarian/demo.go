package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/phrazzld/librarian/internal/app"
	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/role"
)

// runDemo seeds a branch with two books and two members, then lends,
// fines, transfers and returns a book and moves it to a second branch.
// Each step is printed to out.
func runDemo(ctx context.Context, a *app.App, out io.Writer) error {
	now := a.Clock.Now()

	library, err := addLibrary(ctx, a, "Main Branch")
	if err != nil {
		return err
	}
	east, err := addLibrary(ctx, a, "East Branch")
	if err != nil {
		return err
	}

	dune, err := addBook(ctx, a, "Dune", "Frank Herbert", now)
	if err != nil {
		return err
	}
	solaris, err := addBook(ctx, a, "Solaris", "Stanisław Lem", now)
	if err != nil {
		return err
	}
	ada, err := addMember(ctx, a, "Ada Lovelace", "ada@example.com")
	if err != nil {
		return err
	}
	grace, err := addMember(ctx, a, "Grace Hopper", "grace@example.com")
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		do   func() error
	}{
		{"stock two copies of Dune", func() error { return library.AddBookToInventory(ctx, dune, 2).Err() }},
		{"stock one copy of Solaris", func() error { return library.AddBookToInventory(ctx, solaris, 1).Err() }},
		{"check out Dune to Ada", func() error { return library.CheckOutBookToUser(ctx, dune, ada).Err() }},
		{"check out Solaris to Grace", func() error { return library.CheckOutBookToUser(ctx, solaris, grace).Err() }},
		{"fine Ada for Dune", func() error { return ada.Account().AddFineForBook(ctx, 150, dune.ID()).Err() }},
		{"Ada pays the fine", func() error { return ada.Account().PayFine(ctx, 150).Err() }},
		{"transfer Dune from Ada to Grace", func() error { return library.TransferCheckedOutBook(ctx, dune, ada, grace).Err() }},
		{"check in Solaris from Grace", func() error { return library.CheckInBookFromUser(ctx, solaris, grace).Err() }},
		{"move Solaris to East Branch", func() error { return east.TransferBookFromSource(ctx, solaris).Err() }},
	}
	for _, s := range steps {
		if err := s.do(); err != nil {
			fmt.Fprintf(out, "FAIL  %s: %v\n", s.name, err)
			return fmt.Errorf("%s: %w", s.name, err)
		}
		fmt.Fprintf(out, "ok    %s\n", s.name)
	}

	holder := library.FindUserOfCheckedOutBook(ctx, dune.ID())
	if err := holder.Err(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Dune is with %s\n", holder.Value())

	summary, err := library.ToJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(summary))
	return nil
}

func addLibrary(ctx context.Context, a *app.App, name string) (*role.Library, error) {
	info, err := domain.NewLibraryInfo(domain.RandomID[domain.LibraryRole](), name)
	if err != nil {
		return nil, err
	}
	if err := a.Libraries.Add(ctx, info).Err(); err != nil {
		return nil, err
	}
	return a.Roles.Library(info.ID()), nil
}

func addBook(ctx context.Context, a *app.App, title, author string, now time.Time) (*role.Book, error) {
	book, err := domain.NewBookInfo(domain.RandomID[domain.BookRole](), title, author, "", now)
	if err != nil {
		return nil, err
	}
	if err := a.Books.Add(ctx, book).Err(); err != nil {
		return nil, err
	}
	return a.Roles.Book(book.ID()), nil
}

// addMember stores a user and the account that shares its UUID.
func addMember(ctx context.Context, a *app.App, name, email string) (*role.User, error) {
	user, err := domain.NewUserInfo(domain.RandomID[domain.UserRole](), name, email)
	if err != nil {
		return nil, err
	}
	if err := a.Users.Add(ctx, user).Err(); err != nil {
		return nil, err
	}
	account, err := domain.NewAccountInfo(user.AccountID(), name)
	if err != nil {
		return nil, err
	}
	if err := a.Accounts.Add(ctx, account).Err(); err != nil {
		return nil, err
	}
	return a.Roles.User(user.ID()), nil
}
