package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
	"github.com/phrazzld/librarian/internal/platform/logger"
	"github.com/phrazzld/librarian/internal/redact"
	"github.com/phrazzld/librarian/internal/store"
)

// scanBatch is the COUNT hint for SCAN and the MGET batch size.
const scanBatch = 100

// RecordStore keeps records of one kind under a shared key prefix.
type RecordStore[K domain.Kind, R domain.Record[K]] struct {
	client redis.Cmdable
	prefix string
	entity string
	logger *slog.Logger
}

// NewRecordStore returns a store writing keys under
// "<keyPrefix>:<tag>:". A nil logger means slog.Default.
func NewRecordStore[K domain.Kind, R domain.Record[K]](
	client redis.Cmdable,
	keyPrefix string,
	logger *slog.Logger,
) *RecordStore[K, R] {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	entity := store.EntityName[K]()
	return &RecordStore[K, R]{
		client: client,
		prefix: KeyPrefix[K](keyPrefix),
		entity: entity,
		logger: logger.With(slog.String("component", entity+"_store")),
	}
}

var (
	_ store.AccountStore               = (*RecordStore[domain.AccountRole, domain.AccountInfo])(nil)
	_ store.UserStore                  = (*RecordStore[domain.UserRole, domain.UserInfo])(nil)
	_ store.Container[domain.BookRole] = (*RecordStore[domain.BookRole, domain.BookInfo])(nil)
)

// KeyPrefix is the namespace for records of kind K, ending in a colon.
func KeyPrefix[K domain.Kind](keyPrefix string) string {
	if keyPrefix == "" {
		return domain.TagOf[K]() + ":"
	}
	return keyPrefix + ":" + domain.TagOf[K]() + ":"
}

func (s *RecordStore[K, R]) key(id domain.ID[K]) string {
	return s.prefix + id.UUID().String()
}

func (s *RecordStore[K, R]) fail(op, msg string, err error) error {
	return store.NewStoreError(s.entity, op, msg, err)
}

func (s *RecordStore[K, R]) Get(ctx context.Context, id domain.ID[K]) outcome.Outcome[R] {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return outcome.Failure[R](s.fail("get", "no such key", domain.ErrNotFound))
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get record",
			slog.String("error", redact.Error(err)),
			slog.String("id", id.String()))
		return outcome.Failure[R](s.fail("get", "command failed", err))
	}
	return s.decode("get", data)
}

func (s *RecordStore[K, R]) decode(op string, data []byte) outcome.Outcome[R] {
	var r R
	if err := json.Unmarshal(data, &r); err != nil {
		return outcome.Failure[R](s.fail(op, "decode failed", err))
	}
	return outcome.Success(r)
}

// Add relies on SETNX, so concurrent adds of one ID have a single winner.
func (s *RecordStore[K, R]) Add(ctx context.Context, record R) outcome.Outcome[R] {
	payload, err := json.Marshal(record)
	if err != nil {
		return outcome.Failure[R](s.fail("add", "encode failed", err))
	}

	ok, err := s.client.SetNX(ctx, s.key(record.ID()), payload, 0).Result()
	if err != nil {
		return outcome.Failure[R](s.fail("add", "command failed", err))
	}
	if !ok {
		return outcome.Failure[R](s.fail("add", "key exists", domain.ErrAlreadyExists))
	}
	return outcome.Success(record)
}

// Update overwrites unconditionally, creating the key when absent.
func (s *RecordStore[K, R]) Update(ctx context.Context, record R) outcome.Outcome[R] {
	return s.set(ctx, "update", record)
}

func (s *RecordStore[K, R]) Upsert(ctx context.Context, record R) outcome.Outcome[R] {
	return s.set(ctx, "upsert", record)
}

func (s *RecordStore[K, R]) set(ctx context.Context, op string, record R) outcome.Outcome[R] {
	payload, err := json.Marshal(record)
	if err != nil {
		return outcome.Failure[R](s.fail(op, "encode failed", err))
	}
	if err := s.client.Set(ctx, s.key(record.ID()), payload, 0).Err(); err != nil {
		return outcome.Failure[R](s.fail(op, "command failed", err))
	}
	return outcome.Success(record)
}

func (s *RecordStore[K, R]) Delete(ctx context.Context, record R) outcome.Outcome[R] {
	n, err := s.client.Del(ctx, s.key(record.ID())).Result()
	if err != nil {
		return outcome.Failure[R](s.fail("delete", "command failed", err))
	}
	if n == 0 {
		return outcome.Failure[R](s.fail("delete", "no such key", domain.ErrNotFound))
	}
	return outcome.Success(record)
}

// ListAll walks the namespace with SCAN and fetches values with MGET.
// Keys deleted between the two steps are skipped.
func (s *RecordStore[K, R]) ListAll(ctx context.Context) outcome.Outcome[map[domain.ID[K]]R] {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return outcome.Failure[map[domain.ID[K]]R](s.fail("list", "scan failed", err))
	}

	out := make(map[domain.ID[K]]R, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		batch := keys[start:min(start+scanBatch, len(keys))]
		values, err := s.client.MGet(ctx, batch...).Result()
		if err != nil {
			return outcome.Failure[map[domain.ID[K]]R](s.fail("list", "mget failed", err))
		}
		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				continue
			}
			id, err := domain.ParseID[K](strings.TrimPrefix(batch[i], s.prefix))
			if err != nil {
				return outcome.Failure[map[domain.ID[K]]R](s.fail("list", fmt.Sprintf("bad key %q", batch[i]), err))
			}
			r := s.decode("list", []byte(str))
			if r.IsFailure() {
				return outcome.Recast[map[domain.ID[K]]R](r)
			}
			out[id] = r.Value()
		}
	}
	return outcome.Success(out)
}

// Contains reports whether the key exists. Command errors are logged and
// reported as absent.
func (s *RecordStore[K, R]) Contains(ctx context.Context, id domain.ID[K]) bool {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("existence check failed",
			slog.String("error", redact.Error(err)),
			slog.String("id", id.String()))
		return false
	}
	return n > 0
}
