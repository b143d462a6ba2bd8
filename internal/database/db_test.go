package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesAndMigrates(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "idxscope.db")

	db, err := New(Config{Path: dbPath})
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	require.NoError(t, db.Migrate())
	assert.FileExists(t, dbPath)

	_, err = db.Conn().Exec("SELECT 1")
	assert.NoError(t, err)

	var tableCount int
	err = db.Conn().QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type='table' AND name='composite_scores'",
	).Scan(&tableCount)
	require.NoError(t, err)
	assert.Equal(t, 1, tableCount)
}

func TestMigrateIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(tmpDir, "idxscope.db")})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(tmpDir, "idxscope.db")})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(
			"INSERT INTO stocks (symbol, name, sector, listed) VALUES (?, ?, ?, ?)",
			"BBCA", "Bank Central Asia", "Financials", 1,
		)
		return execErr
	})
	require.NoError(t, err)

	var name string
	require.NoError(t, db.Conn().QueryRow("SELECT name FROM stocks WHERE symbol = ?", "BBCA").Scan(&name))
	assert.Equal(t, "Bank Central Asia", name)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(tmpDir, "idxscope.db")})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	wantErr := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(
			"INSERT INTO stocks (symbol, name, sector, listed) VALUES (?, ?, ?, ?)",
			"TLKM", "Telkom Indonesia", "Telco", 1,
		)
		if execErr != nil {
			return execErr
		}
		return wantErr
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT count(*) FROM stocks WHERE symbol = ?", "TLKM").Scan(&count))
	assert.Equal(t, 0, count, "rolled-back insert must not be visible")
}

func TestHealthCheck(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(tmpDir, "idxscope.db")})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	require.NoError(t, db.HealthCheck(context.Background()))
}
