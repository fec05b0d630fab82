package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/librarian/internal/domain"
	"github.com/phrazzld/librarian/internal/outcome"
	"github.com/phrazzld/librarian/internal/platform/logger"
	"github.com/phrazzld/librarian/internal/redact"
	"github.com/phrazzld/librarian/internal/store"
)

const (
	selectRecordQuery = `SELECT payload FROM records WHERE tag = $1 AND id = $2`
	insertRecordQuery = `INSERT INTO records (tag, id, payload) VALUES ($1, $2, $3)`
	upsertRecordQuery = `
		INSERT INTO records (tag, id, payload) VALUES ($1, $2, $3)
		ON CONFLICT (tag, id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`
	deleteRecordQuery = `DELETE FROM records WHERE tag = $1 AND id = $2`
	listRecordsQuery  = `SELECT id, payload FROM records WHERE tag = $1`
	existsRecordQuery = `SELECT EXISTS (SELECT 1 FROM records WHERE tag = $1 AND id = $2)`
)

// RecordStore keeps records of one kind as jsonb rows. Rows of other kinds
// share the table and are told apart by tag.
type RecordStore[K domain.Kind, R domain.Record[K]] struct {
	db     store.DBTX
	tag    string
	entity string
	logger *slog.Logger
}

// NewRecordStore returns a store over db, which may be a *sql.DB or a
// *sql.Tx. A nil logger means slog.Default.
func NewRecordStore[K domain.Kind, R domain.Record[K]](db store.DBTX, logger *slog.Logger) *RecordStore[K, R] {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	entity := store.EntityName[K]()
	return &RecordStore[K, R]{
		db:     db,
		tag:    domain.TagOf[K](),
		entity: entity,
		logger: logger.With(slog.String("component", entity+"_store")),
	}
}

var (
	_ store.AccountStore                  = (*RecordStore[domain.AccountRole, domain.AccountInfo])(nil)
	_ store.BookStore                     = (*RecordStore[domain.BookRole, domain.BookInfo])(nil)
	_ store.Container[domain.LibraryRole] = (*RecordStore[domain.LibraryRole, domain.LibraryInfo])(nil)
)

func (s *RecordStore[K, R]) fail(op, msg string, err error) error {
	return store.NewStoreError(s.entity, op, msg, MapError(err))
}

func (s *RecordStore[K, R]) Get(ctx context.Context, id domain.ID[K]) outcome.Outcome[R] {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var payload []byte
	err := s.db.QueryRowContext(ctx, selectRecordQuery, s.tag, id.UUID()).Scan(&payload)
	if err != nil {
		failure := s.fail("get", "query failed", err)
		if !store.IsNotFoundError(failure) {
			log.Error("failed to get record", slog.String("error", redact.Error(err)), slog.String("id", id.String()))
		}
		return outcome.Failure[R](failure)
	}

	var r R
	if err := json.Unmarshal(payload, &r); err != nil {
		return outcome.Failure[R](s.fail("get", "decode failed", err))
	}
	return outcome.Success(r)
}

func (s *RecordStore[K, R]) Add(ctx context.Context, record R) outcome.Outcome[R] {
	return s.write(ctx, "add", insertRecordQuery, record)
}

// Update overwrites unconditionally, creating the row when absent.
func (s *RecordStore[K, R]) Update(ctx context.Context, record R) outcome.Outcome[R] {
	return s.write(ctx, "update", upsertRecordQuery, record)
}

// Upsert is Update: a single statement already covers both branches.
func (s *RecordStore[K, R]) Upsert(ctx context.Context, record R) outcome.Outcome[R] {
	return s.write(ctx, "upsert", upsertRecordQuery, record)
}

func (s *RecordStore[K, R]) write(ctx context.Context, op, query string, record R) outcome.Outcome[R] {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload, err := json.Marshal(record)
	if err != nil {
		return outcome.Failure[R](s.fail(op, "encode failed", err))
	}

	if _, err := s.db.ExecContext(ctx, query, s.tag, record.ID().UUID(), payload); err != nil {
		failure := s.fail(op, "exec failed", err)
		switch {
		case store.IsDuplicateError(failure):
			// The caller sees ErrAlreadyExists; nothing is wrong with the backend.
		case IsCheckConstraintViolation(err):
			log.Warn("record rejected by constraint",
				slog.String("operation", op),
				slog.String("error", redact.Error(err)),
				slog.String("id", record.ID().String()))
		default:
			log.Error("failed to write record",
				slog.String("operation", op),
				slog.String("error", redact.Error(err)),
				slog.String("id", record.ID().String()))
		}
		return outcome.Failure[R](failure)
	}
	return outcome.Success(record)
}

func (s *RecordStore[K, R]) Delete(ctx context.Context, record R) outcome.Outcome[R] {
	result, err := s.db.ExecContext(ctx, deleteRecordQuery, s.tag, record.ID().UUID())
	if err != nil {
		return outcome.Failure[R](s.fail("delete", "exec failed", err))
	}
	if err := CheckRowsAffected(result, s.entity); err != nil {
		return outcome.Failure[R](s.fail("delete", "no row", err))
	}
	return outcome.Success(record)
}

func (s *RecordStore[K, R]) ListAll(ctx context.Context) outcome.Outcome[map[domain.ID[K]]R] {
	rows, err := s.db.QueryContext(ctx, listRecordsQuery, s.tag)
	if err != nil {
		return outcome.Failure[map[domain.ID[K]]R](s.fail("list", "query failed", err))
	}
	defer func() { _ = rows.Close() }()

	out := make(map[domain.ID[K]]R)
	for rows.Next() {
		var (
			id      uuid.UUID
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return outcome.Failure[map[domain.ID[K]]R](s.fail("list", "scan failed", err))
		}
		var r R
		if err := json.Unmarshal(payload, &r); err != nil {
			return outcome.Failure[map[domain.ID[K]]R](s.fail("list", fmt.Sprintf("decode %s failed", id), err))
		}
		out[domain.NewID[K](id)] = r
	}
	if err := rows.Err(); err != nil {
		return outcome.Failure[map[domain.ID[K]]R](s.fail("list", "iteration failed", err))
	}
	return outcome.Success(out)
}

// Contains reports whether a row exists for id. Query errors are logged
// and reported as absent.
func (s *RecordStore[K, R]) Contains(ctx context.Context, id domain.ID[K]) bool {
	var exists bool
	if err := s.db.QueryRowContext(ctx, existsRecordQuery, s.tag, id.UUID()).Scan(&exists); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("existence check failed",
			slog.String("error", redact.Error(err)),
			slog.String("id", id.String()))
		return false
	}
	return exists
}
