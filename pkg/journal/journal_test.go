package journal

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/store"

	_ "modernc.org/sqlite"
)

func TestBodyDigest_Canonical(t *testing.T) {
	a := BodyDigest([]byte(`{"b": 1, "a": "x"}`))
	b := BodyDigest([]byte(`{"a":"x","b":1}`))
	assert.Equal(t, a, b, "key order and whitespace do not change the digest")
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, BodyDigest([]byte(`{"a":"y","b":1}`)))
	assert.NotEmpty(t, BodyDigest([]byte("not json")))
	assert.Empty(t, BodyDigest(nil))
}

func TestSQLSink_PostgresInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer func() { _ = db.Close() }()

	sink := NewSQLSink(db, store.Postgres)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := Record{
		Kind:          KindDispatch,
		Action:        protocol.ActionOnSearch,
		TransactionID: "txn-1",
		MessageID:     "msg-1",
		Target:        "https://buyer.example.com/on_search",
		HTTPStatus:    200,
		BodyDigest:    "abc",
		Duration:      1500 * time.Millisecond,
		At:            at,
	}

	mock.ExpectExec(`INSERT INTO protocol_journal .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11\)`).
		WithArgs("dispatch", "on_search", "txn-1", "msg-1", "", "https://buyer.example.com/on_search", 200, "", "abc", int64(1500), at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, sink.Record(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSink_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO protocol_journal").WillReturnError(errors.New("disk full"))
	err = NewSQLSink(db, store.Postgres).Record(context.Background(), Record{Kind: KindInbound})
	assert.ErrorContains(t, err, "disk full")
}

func TestSQLSink_SQLiteRoundTrip(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	sink := NewSQLSink(db, store.SQLite)
	require.NoError(t, sink.Init(ctx))
	require.NoError(t, sink.Record(ctx, Record{Kind: KindInbound, Action: protocol.ActionSearch, AckStatus: protocol.StatusACK}))
	require.NoError(t, sink.Record(ctx, Record{Kind: KindDispatch, Action: protocol.ActionOnSearch, Error: "timeout"}))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM protocol_journal WHERE kind = ?`, "inbound").Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM protocol_journal`).Scan(&n))
	assert.Equal(t, 2, n)
}

type failingSink struct{}

func (failingSink) Record(context.Context, Record) error { return errors.New("boom") }

func TestMultiSink(t *testing.T) {
	var buf bytes.Buffer
	logSink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := MultiSink{logSink, failingSink{}, Nop{}}.Record(context.Background(), Record{
		Kind:      KindInbound,
		Action:    protocol.ActionSelect,
		AckStatus: protocol.StatusNACK,
		Error:     "Missing items in order",
	})
	assert.ErrorContains(t, err, "boom")
	assert.Contains(t, buf.String(), `"action":"select"`)
	assert.Contains(t, buf.String(), `"ack":"NACK"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
