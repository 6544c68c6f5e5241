package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/store"
)

// SQLSink appends records to the protocol_journal table.
type SQLSink struct {
	db      *sql.DB
	dialect store.Dialect
}

// NewSQLSink wraps db. Call Init once before recording.
func NewSQLSink(db *sql.DB, dialect store.Dialect) *SQLSink {
	return &SQLSink{db: db, dialect: dialect}
}

// Init creates the journal table.
func (s *SQLSink) Init(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == store.Postgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS protocol_journal (
		id %s,
		kind TEXT NOT NULL,
		action TEXT NOT NULL,
		transaction_id TEXT NOT NULL DEFAULT '',
		message_id TEXT NOT NULL DEFAULT '',
		ack_status TEXT NOT NULL DEFAULT '',
		target TEXT NOT NULL DEFAULT '',
		http_status INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		body_digest TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		recorded_at TIMESTAMP NOT NULL
	);`, id)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create protocol_journal: %w", err)
	}
	return nil
}

func (s *SQLSink) Record(ctx context.Context, r Record) error {
	at := r.At
	if at.IsZero() {
		at = time.Now()
	}
	query := s.dialect.Rebind(`
	INSERT INTO protocol_journal
		(kind, action, transaction_id, message_id, ack_status, target, http_status, error, body_digest, duration_ms, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		string(r.Kind), string(r.Action), r.TransactionID, r.MessageID, string(r.AckStatus),
		r.Target, r.HTTPStatus, r.Error, r.BodyDigest, r.Duration.Milliseconds(), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}
