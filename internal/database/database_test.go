package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func insertUser(t *testing.T, db *sql.DB, id string, code any) error {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, name, email, password_hash, sharing_code) VALUES (?, ?, ?, 'x', ?)`,
		id, id, id+"@example.com", code)
	return err
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
}

func TestMigrate_SharingCodeUnique(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, insertUser(t, db, "a", "ABC123"))
	assert.Error(t, insertUser(t, db, "b", "ABC123"))
	// NULL codes never collide
	require.NoError(t, insertUser(t, db, "c", nil))
	require.NoError(t, insertUser(t, db, "d", nil))
}

func TestMigrate_ConnectionPairUniqueInEitherDirection(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, insertUser(t, db, "a", nil))
	require.NoError(t, insertUser(t, db, "b", nil))

	_, err := db.Exec(`INSERT INTO connections (id, owner_id, viewer_id) VALUES ('1', 'a', 'b')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO connections (id, owner_id, viewer_id) VALUES ('2', 'b', 'a')`)
	assert.Error(t, err)
	_, err = db.Exec(`INSERT INTO connections (id, owner_id, viewer_id) VALUES ('3', 'a', 'a')`)
	assert.Error(t, err, "self connections violate the check constraint")
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO events (id, type, level, message) VALUES ('e1', 't', 'info', 'm')`)
		return err
	}))

	boom := errors.New("boom")
	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO events (id, type, level, message) VALUES ('e2', 't', 'info', 'm')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	db := openTestDB(t)

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, func(tx *sql.Tx) error {
			_, _ = tx.Exec(`INSERT INTO events (id, type, level, message) VALUES ('e1', 't', 'info', 'm')`)
			panic("kaboom")
		})
	})

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n))
	assert.Equal(t, 0, n)
}
