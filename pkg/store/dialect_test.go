package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b, c) VALUES (?, ?, ?)"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)", Postgres.Rebind(q))
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, Postgres, DialectFor("postgres://bpp@localhost:5432/bpp?sslmode=disable"))
	assert.Equal(t, Postgres, DialectFor("postgresql://db/bpp"))
	assert.Equal(t, SQLite, DialectFor(""))
	assert.Equal(t, SQLite, DialectFor("data/bpp.db"))
	assert.Equal(t, "postgres", Postgres.DriverName())
	assert.Equal(t, "sqlite", SQLite.DriverName())
}
