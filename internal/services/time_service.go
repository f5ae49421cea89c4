package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/timeshare-be/internal/models"
)

// TimeServiceProvider defines the interface for time tracking.
type TimeServiceProvider interface {
	ClockIn(ctx context.Context, userID, note string) (models.TimeEntry, error)
	ClockOut(ctx context.Context, userID string) (models.TimeEntry, error)
	ActiveEntry(ctx context.Context, userID string) (*models.TimeEntry, error)
	ListEntries(ctx context.Context, requesterID, ownerID string) ([]models.TimeEntry, error)
	UpdateClockOut(ctx context.Context, userID, entryID string, clockOut time.Time) (models.TimeEntry, error)
	DeleteEntry(ctx context.Context, userID, entryID string) error
}

// viewAccess answers whether one user may see another's time records.
type viewAccess interface {
	HasViewAccess(ctx context.Context, viewerID, ownerID string) (bool, error)
}

// TimeService records clock-in/clock-out sessions.
type TimeService struct {
	db     *sql.DB
	access viewAccess
	now    func() time.Time
}

// NewTimeService creates a new TimeService.
func NewTimeService(db *sql.DB, access viewAccess) *TimeService {
	return &TimeService{db: db, access: access, now: time.Now}
}

const entryColumns = "id, user_id, clock_in, clock_out, duration_minutes, note"

// ClockIn opens a new entry for userID.
func (s *TimeService) ClockIn(ctx context.Context, userID, note string) (models.TimeEntry, error) {
	active, err := s.ActiveEntry(ctx, userID)
	if err != nil {
		return models.TimeEntry{}, err
	}
	if active != nil {
		return models.TimeEntry{}, ErrAlreadyClockedIn
	}

	entry := models.TimeEntry{
		ID:      uuid.New().String(),
		UserID:  userID,
		ClockIn: s.now().UTC(),
		Note:    strings.TrimSpace(note),
	}
	_, err = s.db.ExecContext(ctx, "INSERT INTO time_entries (id, user_id, clock_in, note) VALUES (?, ?, ?, ?)",
		entry.ID, entry.UserID, entry.ClockIn, entry.Note)
	if err != nil {
		// the partial unique index rejects a second open entry
		if isUniqueViolation(err) {
			return models.TimeEntry{}, ErrAlreadyClockedIn
		}
		return models.TimeEntry{}, storageError(err)
	}
	return entry, nil
}

// ClockOut closes the open entry of userID.
func (s *TimeService) ClockOut(ctx context.Context, userID string) (models.TimeEntry, error) {
	active, err := s.ActiveEntry(ctx, userID)
	if err != nil {
		return models.TimeEntry{}, err
	}
	if active == nil {
		return models.TimeEntry{}, ErrNotClockedIn
	}

	clockOut := s.now().UTC()
	duration := int(clockOut.Sub(active.ClockIn) / time.Minute)
	if duration < 0 {
		duration = 0
	}

	res, err := s.db.ExecContext(ctx, "UPDATE time_entries SET clock_out = ?, duration_minutes = ? WHERE id = ? AND clock_out IS NULL",
		clockOut, duration, active.ID)
	if err != nil {
		return models.TimeEntry{}, storageError(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return models.TimeEntry{}, err
	}
	if n == 0 {
		return models.TimeEntry{}, ErrNotClockedIn
	}

	active.ClockOut = &clockOut
	active.DurationMinutes = &duration
	return *active, nil
}

// ActiveEntry returns the open entry of userID, or nil when not clocked in.
func (s *TimeService) ActiveEntry(ctx context.Context, userID string) (*models.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM time_entries WHERE user_id = ? AND clock_out IS NULL", userID)
	entry, err := scanEntry(row)
	if errors.Is(err, ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns ownerID's entries, newest first. requesterID must be
// the owner or hold a connection that lets them view the owner.
func (s *TimeService) ListEntries(ctx context.Context, requesterID, ownerID string) ([]models.TimeEntry, error) {
	if ownerID == "" {
		ownerID = requesterID
	}
	if ownerID != requesterID {
		ok, err := s.access.HasViewAccess(ctx, requesterID, ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrForbidden
		}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM time_entries WHERE user_id = ? ORDER BY clock_in DESC", ownerID)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	entries := []models.TimeEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, storageError(rows.Err())
}

// UpdateClockOut corrects the end of one of the user's own entries, closing
// it if it was still open. The duration is recomputed in whole minutes.
func (s *TimeService) UpdateClockOut(ctx context.Context, userID, entryID string, clockOut time.Time) (models.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM time_entries WHERE id = ?", entryID)
	entry, err := scanEntry(row)
	if err != nil {
		return models.TimeEntry{}, err
	}
	if entry.UserID != userID {
		return models.TimeEntry{}, ErrForbidden
	}
	clockOut = clockOut.UTC()
	if !clockOut.After(entry.ClockIn) {
		return models.TimeEntry{}, invalidInput("clock out time must be after clock in time")
	}

	duration := int(clockOut.Sub(entry.ClockIn) / time.Minute)
	res, err := s.db.ExecContext(ctx, "UPDATE time_entries SET clock_out = ?, duration_minutes = ? WHERE id = ? AND user_id = ?",
		clockOut, duration, entry.ID, userID)
	if err != nil {
		return models.TimeEntry{}, storageError(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return models.TimeEntry{}, err
	}
	if n == 0 {
		// deleted concurrently
		return models.TimeEntry{}, ErrEntryNotFound
	}

	entry.ClockOut = &clockOut
	entry.DurationMinutes = &duration
	return entry, nil
}

// DeleteEntry removes one of the user's own entries.
func (s *TimeService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM time_entries WHERE id = ? AND user_id = ?", entryID, userID)
	if err != nil {
		return storageError(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Summary totals the completed entries of userID: all time, today (in the
// service clock's location) and number of sessions.
func (s *TimeService) Summary(ctx context.Context, userID string) (total, today, sessions int, err error) {
	rows, err := s.db.QueryContext(ctx, "SELECT clock_in, duration_minutes FROM time_entries WHERE user_id = ? AND clock_out IS NOT NULL", userID)
	if err != nil {
		return 0, 0, 0, storageError(err)
	}
	defer rows.Close()

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for rows.Next() {
		var clockIn time.Time
		var minutes sql.NullInt64
		if err := rows.Scan(&clockIn, &minutes); err != nil {
			return 0, 0, 0, storageError(err)
		}
		total += int(minutes.Int64)
		if !clockIn.Before(midnight) {
			today += int(minutes.Int64)
		}
		sessions++
	}
	return total, today, sessions, storageError(rows.Err())
}

func scanEntry(scanner interface{ Scan(...interface{}) error }) (models.TimeEntry, error) {
	var entry models.TimeEntry
	var clockOut sql.NullTime
	var duration sql.NullInt64
	err := scanner.Scan(&entry.ID, &entry.UserID, &entry.ClockIn, &clockOut, &duration, &entry.Note)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TimeEntry{}, ErrEntryNotFound
		}
		return models.TimeEntry{}, storageError(err)
	}
	if clockOut.Valid {
		t := clockOut.Time
		entry.ClockOut = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		entry.DurationMinutes = &d
	}
	return entry, nil
}
