package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/librarian/internal/domain"
)

func newAccount(t *testing.T, name string) domain.AccountInfo {
	t.Helper()
	a, err := domain.NewAccountInfo(domain.RandomID[domain.AccountRole](), name)
	require.NoError(t, err)
	return a
}

func TestAddGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New[domain.AccountRole, domain.AccountInfo]()
	a := newAccount(t, "Ada")

	require.True(t, s.Add(ctx, a).IsSuccess())

	got := s.Get(ctx, a.ID())
	require.True(t, got.IsSuccess())
	assert.Equal(t, a.ID(), got.Value().ID())
	assert.Equal(t, "Ada", got.Value().Name())
}

func TestDuplicateAdd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New[domain.AccountRole, domain.AccountInfo]()
	a := newAccount(t, "Ada")

	require.True(t, s.Add(ctx, a).IsSuccess())
	assert.ErrorIs(t, s.Add(ctx, a).Err(), domain.ErrAlreadyExists)
	assert.Equal(t, 1, s.Len())
}

func TestMissingGetAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New[domain.AccountRole, domain.AccountInfo]()
	a := newAccount(t, "Ada")

	assert.ErrorIs(t, s.Get(ctx, a.ID()).Err(), domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, a).Err(), domain.ErrNotFound)
}

func TestUpdateOverwritesUnconditionally(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New[domain.AccountRole, domain.AccountInfo]()
	a := newAccount(t, "Ada")

	require.True(t, s.Update(ctx, a).IsSuccess(), "update creates a missing key")
	assert.True(t, s.Contains(ctx, a.ID()))

	renamed := a.WithName(time.Now(), "Ada King")
	require.True(t, renamed.IsSuccess())
	require.True(t, s.Update(ctx, renamed.Value()).IsSuccess())
	assert.Equal(t, "Ada King", s.Get(ctx, a.ID()).Value().Name())
}

func TestUpsertIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New[domain.AccountRole, domain.AccountInfo]()
	a := newAccount(t, "Ada")

	first := s.Upsert(ctx, a)
	second := s.Upsert(ctx, a)

	require.True(t, first.IsSuccess())
	require.True(t, second.IsSuccess())
	assert.Equal(t, a.ID(), second.Value().ID())
	assert.Equal(t, 1, s.Len())
}

func TestDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New[domain.AccountRole, domain.AccountInfo]()
	a := newAccount(t, "Ada")
	require.True(t, s.Add(ctx, a).IsSuccess())

	require.True(t, s.Delete(ctx, a).IsSuccess())
	assert.False(t, s.Contains(ctx, a.ID()))
}

func TestListAllReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New[domain.AccountRole, domain.AccountInfo]()
	a := newAccount(t, "Ada")
	b := newAccount(t, "Grace")
	require.True(t, s.Add(ctx, a).IsSuccess())
	require.True(t, s.Add(ctx, b).IsSuccess())

	all := s.ListAll(ctx).Value()
	require.Len(t, all, 2)

	delete(all, a.ID())
	assert.Equal(t, 2, s.Len(), "mutating the listing must not touch the store")
}

func TestDumpIsDeterministicAndRestorable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	accounts := []domain.AccountInfo{newAccount(t, "Ada"), newAccount(t, "Grace"), newAccount(t, "Hedy")}

	forward := New[domain.AccountRole, domain.AccountInfo]()
	backward := New[domain.AccountRole, domain.AccountInfo]()
	for i := range accounts {
		require.True(t, forward.Add(ctx, accounts[i]).IsSuccess())
		require.True(t, backward.Add(ctx, accounts[len(accounts)-1-i]).IsSuccess())
	}

	d1, err := forward.Dump()
	require.NoError(t, err)
	d2, err := backward.Dump()
	require.NoError(t, err)
	assert.Equal(t, string(d1), string(d2))

	restored := New[domain.AccountRole, domain.AccountInfo]()
	require.NoError(t, restored.Restore(d1))
	assert.Equal(t, 3, restored.Len())
	assert.Equal(t, "Grace", restored.Get(ctx, accounts[1].ID()).Value().Name())
}

func TestRestoreRejectsBadInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newAccount(t, "Ada")
	b := newAccount(t, "Grace")

	s := New[domain.AccountRole, domain.AccountInfo]()
	require.True(t, s.Add(ctx, a).IsSuccess())

	payload, err := a.MarshalJSON()
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", "{", domain.ErrParse},
		{"bad key", `{"nope": ` + string(payload) + `}`, domain.ErrParse},
		{"untagged key", fmt.Sprintf(`{%q: %s}`, a.ID().UUID().String(), payload), domain.ErrTypeMismatch},
		{"wrong kind key", fmt.Sprintf(`{%q: %s}`, domain.Retag[domain.BookRole](a.ID()).String(), payload), domain.ErrTypeMismatch},
		{"misfiled record", fmt.Sprintf(`{%q: %s}`, b.ID().String(), payload), domain.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.Restore([]byte(tt.data)), tt.wantErr)
			assert.Equal(t, 1, s.Len(), "failed restore must leave the table alone")
		})
	}
}

func TestConcurrentWriters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New[domain.AccountRole, domain.AccountInfo]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := domain.NewAccountInfo(domain.RandomID[domain.AccountRole](), fmt.Sprintf("user-%d", i))
			if err != nil {
				t.Error(err)
				return
			}
			s.Add(ctx, a)
			s.Upsert(ctx, a)
			s.ListAll(ctx)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
