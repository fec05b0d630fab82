// Package role provides the domain-facing handles for library records. A
// role binds an identifier to a repository and caches the last fetched or
// written record.
package role

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
)

// ErrNotFetched is the cached error of a role whose cache is still empty.
var ErrNotFetched = errors.New("info not fetched")

// Repo is the part of a repository a role uses.
type Repo[K domain.Kind, R domain.Record[K]] interface {
	Get(ctx context.Context, id domain.ID[K]) outcome.Outcome[R]
	Update(ctx context.Context, record R) outcome.Outcome[R]
}

// Role caches one record. The cache starts Empty and becomes Populated on
// the first fetch, update or construction from a record; it never returns
// to Empty. A failed fetch is cached like a successful one.
//
// UpdateInfo sets the cache before writing and keeps it when the write
// fails, so the cache can run ahead of the store until the next
// FetchInfo(ctx, false).
type Role[K domain.Kind, R domain.Record[K]] struct {
	id   domain.ID[K]
	repo Repo[K, R]

	mu        sync.Mutex
	cache     outcome.Outcome[R]
	populated bool
}

// New returns a role with an empty cache.
func New[K domain.Kind, R domain.Record[K]](id domain.ID[K], repo Repo[K, R]) *Role[K, R] {
	if repo == nil {
		panic("role repository cannot be nil")
	}
	return &Role[K, R]{id: id, repo: repo}
}

// NewFromInfo returns a role whose cache already holds info.
func NewFromInfo[K domain.Kind, R domain.Record[K]](info R, repo Repo[K, R]) *Role[K, R] {
	r := New(info.ID(), repo)
	r.cache = outcome.Success(info)
	r.populated = true
	return r
}

// NewFromJSON decodes a serialized record. The record's id must carry K's
// tag: an identifier of another kind or an untagged UUID fails with
// domain.ErrTypeMismatch, anything else undecodable with domain.ErrParse.
func NewFromJSON[K domain.Kind, R domain.Record[K]](data []byte, repo Repo[K, R]) (*Role[K, R], error) {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParse, domain.TagOf[K](), err)
	}
	raw, err := domain.ParseAnyID(head.ID)
	if err != nil {
		return nil, err
	}
	if raw.Tag() != domain.TagOf[K]() {
		return nil, fmt.Errorf("%w: got %s, want %s", domain.ErrTypeMismatch, raw.Tag(), domain.TagOf[K]())
	}

	var info R
	if err := json.Unmarshal(data, &info); err != nil {
		if errors.Is(err, domain.ErrTypeMismatch) || errors.Is(err, domain.ErrParse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParse, domain.TagOf[K](), err)
	}
	return NewFromInfo(info, repo), nil
}

func (r *Role[K, R]) ID() domain.ID[K] { return r.id }

// FetchInfo returns the cache when useCache is set and the cache is
// populated. Otherwise it reads through and caches the result.
func (r *Role[K, R]) FetchInfo(ctx context.Context, useCache bool) outcome.Outcome[R] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchLocked(ctx, useCache)
}

func (r *Role[K, R]) fetchLocked(ctx context.Context, useCache bool) outcome.Outcome[R] {
	if useCache && r.populated {
		return r.cache
	}
	r.cache = r.repo.Get(ctx, r.id)
	r.populated = true
	return r.cache
}

// UpdateInfo writes info through the repository.
func (r *Role[K, R]) UpdateInfo(ctx context.Context, info R) outcome.Outcome[R] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(ctx, info)
}

func (r *Role[K, R]) updateLocked(ctx context.Context, info R) outcome.Outcome[R] {
	if info.ID() != r.id {
		return outcome.Failure[R](fmt.Errorf("%w: role %s got %s", domain.ErrIDMismatch, r.id, info.ID()))
	}
	r.cache = outcome.Success(info)
	r.populated = true
	return r.repo.Update(ctx, info)
}

// create stores a record that does not exist yet. A repository with an
// Add method gets an insert, which fails with domain.ErrAlreadyExists
// instead of overwriting; any other repository gets Update.
func (r *Role[K, R]) create(ctx context.Context, info R) outcome.Outcome[R] {
	r.mu.Lock()
	defer r.mu.Unlock()

	adder, ok := r.repo.(interface {
		Add(ctx context.Context, record R) outcome.Outcome[R]
	})
	if !ok {
		return r.updateLocked(ctx, info)
	}
	if info.ID() != r.id {
		return outcome.Failure[R](fmt.Errorf("%w: role %s got %s", domain.ErrIDMismatch, r.id, info.ID()))
	}
	created := adder.Add(ctx, info)
	if created.IsSuccess() {
		r.cache = created
		r.populated = true
	}
	return created
}

// modify runs a read-modify-write under the role lock: the current record
// (cached when available) goes through fn and the result is written back.
func (r *Role[K, R]) modify(ctx context.Context, fn func(R) outcome.Outcome[R]) outcome.Outcome[R] {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.fetchLocked(ctx, true)
	if current.IsFailure() {
		return current
	}
	next := fn(current.Value())
	if next.IsFailure() {
		return next
	}
	return r.updateLocked(ctx, next.Value())
}

// CachedInfo returns the cached outcome without touching the repository.
// The second result is false while the cache is empty.
func (r *Role[K, R]) CachedInfo() (outcome.Outcome[R], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.populated {
		return outcome.Failure[R](ErrNotFetched), false
	}
	return r.cache, true
}

// ToJSON serializes the cached record. An empty or failed cache becomes
// {"error": "..."}; it never fetches.
func (r *Role[K, R]) ToJSON() ([]byte, error) {
	cached, _ := r.CachedInfo()
	if cached.IsFailure() {
		return json.Marshal(map[string]string{"error": cached.Err().Error()})
	}
	return json.Marshal(cached.Value())
}

func (r *Role[K, R]) String() string {
	return fmt.Sprintf("%s(%s)", domain.TagOf[K](), r.id.UUID())
}
