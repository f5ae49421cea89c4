package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrGenerationExhausted = errors.New("could not generate a unique sharing code")
	ErrCodeConflict        = errors.New("sharing code already assigned")
	ErrCodeNotFound        = errors.New("sharing code not found")
	ErrSelfConnection      = errors.New("cannot connect to yourself")
	ErrAlreadyConnected    = errors.New("already connected")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrAlreadyClockedIn    = errors.New("already clocked in")
	ErrNotClockedIn        = errors.New("not clocked in")
	ErrEntryNotFound       = errors.New("time entry not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
)

// invalidInput reports a validation failure the caller can fix.
func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// storageError marks a failure of the database as ErrStorageUnavailable
// while keeping the driver error in the chain.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

// rowsAffected reads the affected row count, treating a driver failure as
// a storage failure.
func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

// isConstraint reports whether err is an SQLite constraint violation of the
// given extended kind (e.g. SQLITE_CONSTRAINT_UNIQUE).
func isConstraint(err error, extended int, keyword string) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == extended {
		return true
	}
	// extended result codes disabled: fall back to the message
	return code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), keyword)
}

func isUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE")
}

func isCheckViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_CHECK, "CHECK")
}
