package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestTimeService(t *testing.T) (*TimeService, *SQLSharingStore, *testClock) {
	t.Helper()
	db := openTestDB(t)
	store := NewSQLSharingStore(db)
	clock := &testClock{t: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	svc := NewTimeService(db, store)
	svc.now = clock.now
	return svc, store, clock
}

func TestClockInOut(t *testing.T) {
	svc, store, clock := newTestTimeService(t)
	insertUser(t, store.db, "alice", nil)
	ctx := context.Background()

	_, err := svc.ClockOut(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotClockedIn)

	entry, err := svc.ClockIn(ctx, "alice", "  standup ")
	require.NoError(t, err)
	assert.True(t, entry.IsOpen())
	assert.Equal(t, "standup", entry.Note)

	_, err = svc.ClockIn(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)

	active, err := svc.ActiveEntry(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, entry.ID, active.ID)

	clock.t = clock.t.Add(90 * time.Minute)
	closed, err := svc.ClockOut(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, closed.DurationMinutes)
	assert.Equal(t, 90, *closed.DurationMinutes)

	active, err = svc.ActiveEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestSummary(t *testing.T) {
	svc, store, clock := newTestTimeService(t)
	insertUser(t, store.db, "alice", nil)
	ctx := context.Background()

	// yesterday: 60 minutes
	clock.t = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.ClockIn(ctx, "alice", "")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Hour)
	_, err = svc.ClockOut(ctx, "alice")
	require.NoError(t, err)

	// today: 30 minutes, plus an open session that is not counted
	clock.t = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err = svc.ClockIn(ctx, "alice", "")
	require.NoError(t, err)
	clock.t = clock.t.Add(30 * time.Minute)
	_, err = svc.ClockOut(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.ClockIn(ctx, "alice", "")
	require.NoError(t, err)

	total, today, sessions, err := svc.Summary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 90, total)
	assert.Equal(t, 30, today)
	assert.Equal(t, 2, sessions)
}

func TestListEntries_RequiresViewAccess(t *testing.T) {
	svc, store, clock := newTestTimeService(t)
	insertUser(t, store.db, "alice", nil)
	insertUser(t, store.db, "bob", nil)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, "alice", "")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Minute)
	_, err = svc.ClockOut(ctx, "alice")
	require.NoError(t, err)

	own, err := svc.ListEntries(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = svc.ListEntries(ctx, "bob", "alice")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = store.CreateConnection(ctx, "alice", "bob")
	require.NoError(t, err)
	shared, err := svc.ListEntries(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Len(t, shared, 1)

	// viewing is one-way
	_, err = svc.ListEntries(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteEntry(t *testing.T) {
	svc, store, _ := newTestTimeService(t)
	insertUser(t, store.db, "alice", nil)
	insertUser(t, store.db, "bob", nil)
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "alice", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteEntry(ctx, "bob", entry.ID), ErrEntryNotFound)
	require.NoError(t, svc.DeleteEntry(ctx, "alice", entry.ID))
	assert.ErrorIs(t, svc.DeleteEntry(ctx, "alice", entry.ID), ErrEntryNotFound)
}

func TestUpdateClockOut(t *testing.T) {
	svc, store, clock := newTestTimeService(t)
	insertUser(t, store.db, "alice", nil)
	insertUser(t, store.db, "bob", nil)
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, "alice", "")
	require.NoError(t, err)

	_, err = svc.UpdateClockOut(ctx, "alice", "missing", clock.t.Add(time.Hour))
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = svc.UpdateClockOut(ctx, "bob", entry.ID, clock.t.Add(time.Hour))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateClockOut(ctx, "alice", entry.ID, entry.ClockIn)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateClockOut(ctx, "alice", entry.ID, entry.ClockIn.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrInvalidInput)

	// an open entry gets closed; partial minutes are dropped
	updated, err := svc.UpdateClockOut(ctx, "alice", entry.ID, entry.ClockIn.Add(2*time.Hour+59*time.Second))
	require.NoError(t, err)
	require.NotNil(t, updated.DurationMinutes)
	assert.Equal(t, 120, *updated.DurationMinutes)

	active, err := svc.ActiveEntry(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, active)

	entries, err := svc.ListEntries(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].DurationMinutes)
	assert.Equal(t, 120, *entries[0].DurationMinutes)
}

func TestDeleteEntry_RowsAffectedFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM time_entries").
		WithArgs("entry-1", "alice").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver lost the result")))

	svc := NewTimeService(db, nil)
	err = svc.DeleteEntry(context.Background(), "alice", "entry-1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrEntryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
