package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

// AnswerLogRepository stores one row per answered query.
type AnswerLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAnswerLogRepository(db *sql.DB) *AnswerLogRepository {
	return &AnswerLogRepository{db: db, now: time.Now}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AnswerLogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS answer_log (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	status TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	answer TEXT,
	chunk_id INTEGER,
	duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answer_log_created_at ON answer_log(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_answer_log_status ON answer_log(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AnswerLogRepository) Record(ctx context.Context, entry domain.AnswerLogEntry) error {
	const query = `
INSERT INTO answer_log (id, query, status, confidence, answer, chunk_id, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var chunkID sql.NullInt64
	if entry.ChunkID != nil {
		chunkID = sql.NullInt64{Int64: int64(*entry.ChunkID), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Query,
		string(entry.Status),
		entry.Confidence,
		nullableString(entry.Answer),
		chunkID,
		entry.DurationMS,
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert answer log: %w", err)
	}
	return nil
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
