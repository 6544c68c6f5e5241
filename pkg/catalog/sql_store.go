package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/store"
)

// SQLRepository stores each item as a JSON document keyed by id. It works
// against sqlite in lite mode and postgres otherwise.
type SQLRepository struct {
	db      *sql.DB
	dialect store.Dialect
}

// NewSQLRepository wraps db and creates the catalog table if needed.
func NewSQLRepository(ctx context.Context, db *sql.DB, dialect store.Dialect) (*SQLRepository, error) {
	r := &SQLRepository{db: db, dialect: dialect}
	if err := r.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return r, nil
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS catalog_items (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		doc TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *SQLRepository) Lookup(ctx context.Context, id string) (Item, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT doc FROM catalog_items WHERE id = ?`), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("lookup %s: %w", id, err)
	}
	return decodeItem(doc)
}

// Filter scans the catalog in id order and applies f in process, so
// matching rules are identical across backends.
func (r *SQLRepository) Filter(ctx context.Context, f Filter) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM catalog_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []Item{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		it, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		if f.Matches(it) {
			items = append(items, it)
		}
	}
	return items, rows.Err()
}

// Upsert writes items, replacing existing documents with the same id.
func (r *SQLRepository) Upsert(ctx context.Context, items ...Item) error {
	query := r.dialect.Rebind(`
	INSERT INTO catalog_items (id, category, doc, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET category = excluded.category, doc = excluded.doc, updated_at = excluded.updated_at`)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, it := range items {
		doc, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode item %s: %w", it.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, it.ID, it.Category, string(doc), now); err != nil {
			return fmt.Errorf("upsert item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// SeedIfEmpty inserts items only when the catalog has no rows. It returns
// the number of items written.
func (r *SQLRepository) SeedIfEmpty(ctx context.Context, items []Item) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count catalog: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	if err := r.Upsert(ctx, items...); err != nil {
		return 0, err
	}
	return len(items), nil
}

func decodeItem(doc string) (Item, error) {
	var it Item
	if err := json.Unmarshal([]byte(doc), &it); err != nil {
		return Item{}, fmt.Errorf("decode item: %w", err)
	}
	if it.Currency == "" {
		it.Currency = DefaultCurrency
	}
	return it, nil
}
