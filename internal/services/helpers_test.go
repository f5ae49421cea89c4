package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/isdelr/timeshare-be/internal/database"
	"github.com/isdelr/timeshare-be/internal/models"
	"github.com/isdelr/timeshare-be/internal/sharing"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.New(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// insertUser adds a user directly; code may be nil.
func insertUser(t *testing.T, db *sql.DB, id string, code any) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, name, email, password_hash, sharing_code) VALUES (?, ?, ?, 'x', ?)`,
		id, "User "+id, id+"@example.com", code)
	require.NoError(t, err)
}

func codeOf(t *testing.T, db *sql.DB, id string) *string {
	t.Helper()
	var code sql.NullString
	require.NoError(t, db.QueryRow(`SELECT sharing_code FROM users WHERE id = ?`, id).Scan(&code))
	if !code.Valid {
		return nil
	}
	return &code.String
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

// sequence hands out codes in order, repeating the last one forever.
func sequence(codes ...string) sharing.Generator {
	var mu sync.Mutex
	i := 0
	return sharing.GeneratorFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code, nil
	})
}

type recordedEvent struct {
	Type, Level, Message string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) CreateEvent(_ context.Context, eventType, level, message string, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{eventType, level, message})
	return nil
}

func (f *fakeEvents) GetRecentEvents(context.Context, int) ([]models.Event, error) {
	return nil, nil
}
