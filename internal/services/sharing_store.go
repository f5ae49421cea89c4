package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/timeshare-be/internal/database"
	"github.com/isdelr/timeshare-be/internal/models"
)

// SharingStore is the storage the sharing-code logic relies on. The database
// behind it owns the uniqueness of codes and connection pairs.
type SharingStore interface {
	FindUserByID(ctx context.Context, userID string) (models.User, error)
	FindUserByCode(ctx context.Context, code string) (models.User, error)
	ListUsersWithCodes(ctx context.Context) ([]models.User, error)
	// UpdateUserCode sets code for a user that has none. It reports false when
	// the user already holds a code.
	UpdateUserCode(ctx context.Context, userID, code string) (bool, error)
	// BatchUpdateCodes applies every assignment or none of them.
	BatchUpdateCodes(ctx context.Context, assignments []models.CodeAssignment) error
	// FindConnection looks the pair up in either direction.
	FindConnection(ctx context.Context, userA, userB string) (models.Connection, error)
	CreateConnection(ctx context.Context, ownerID, viewerID string) (models.Connection, error)
}

// SQLSharingStore implements SharingStore on top of the SQL database.
type SQLSharingStore struct {
	db *sql.DB
}

// NewSQLSharingStore creates a new SQLSharingStore.
func NewSQLSharingStore(db *sql.DB) *SQLSharingStore {
	return &SQLSharingStore{db: db}
}

const userColumns = "id, name, email, password_hash, role, sharing_code, created_at"

// FindUserByID retrieves a single user by ID.
func (s *SQLSharingStore) FindUserByID(ctx context.Context, userID string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	return scanUser(row)
}

// FindUserByCode retrieves the user currently holding code.
func (s *SQLSharingStore) FindUserByCode(ctx context.Context, code string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE sharing_code = ?", code)
	return scanUser(row)
}

// ListUsersWithCodes returns every user holding a sharing code.
func (s *SQLSharingStore) ListUsersWithCodes(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE sharing_code IS NOT NULL ORDER BY id")
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

// UpdateUserCode stores code for userID unless the user already has one.
func (s *SQLSharingStore) UpdateUserCode(ctx context.Context, userID, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET sharing_code = ? WHERE id = ? AND sharing_code IS NULL", code, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrCodeConflict
		}
		return false, storageError(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// BatchUpdateCodes replaces the codes of all listed users in one transaction.
// The old codes are cleared first so that a code moving from one user to
// another within the same batch does not trip the unique constraint.
func (s *SQLSharingStore) BatchUpdateCodes(ctx context.Context, assignments []models.CodeAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		clearStmt, err := tx.PrepareContext(ctx, "UPDATE users SET sharing_code = NULL WHERE id = ?")
		if err != nil {
			return err
		}
		defer clearStmt.Close()

		for _, a := range assignments {
			if _, err := clearStmt.ExecContext(ctx, a.UserID); err != nil {
				return err
			}
		}

		setStmt, err := tx.PrepareContext(ctx, "UPDATE users SET sharing_code = ? WHERE id = ?")
		if err != nil {
			return err
		}
		defer setStmt.Close()

		for _, a := range assignments {
			if _, err := setStmt.ExecContext(ctx, a.Code, a.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrCodeConflict, err)
		}
		return storageError(err)
	}
	return nil
}

// FindConnection returns the connection between two users in either direction.
func (s *SQLSharingStore) FindConnection(ctx context.Context, userA, userB string) (models.Connection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, viewer_id, created_at FROM connections
		WHERE (owner_id = ? AND viewer_id = ?) OR (owner_id = ? AND viewer_id = ?)
		LIMIT 1`, userA, userB, userB, userA)

	var conn models.Connection
	var createdAt sql.NullTime
	if err := row.Scan(&conn.ID, &conn.OwnerID, &conn.ViewerID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Connection{}, ErrConnectionNotFound
		}
		return models.Connection{}, storageError(err)
	}
	conn.CreatedAt = createdAt.Time
	return conn, nil
}

// CreateConnection lets viewerID see ownerID's time records.
func (s *SQLSharingStore) CreateConnection(ctx context.Context, ownerID, viewerID string) (models.Connection, error) {
	conn := models.Connection{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		ViewerID:  viewerID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, "INSERT INTO connections (id, owner_id, viewer_id, created_at) VALUES (?, ?, ?, ?)",
		conn.ID, conn.OwnerID, conn.ViewerID, conn.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return models.Connection{}, ErrAlreadyConnected
		case isCheckViolation(err):
			return models.Connection{}, ErrSelfConnection
		}
		return models.Connection{}, storageError(err)
	}
	return conn, nil
}

// HasViewAccess reports whether viewerID may see ownerID's time records.
func (s *SQLSharingStore) HasViewAccess(ctx context.Context, viewerID, ownerID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM connections WHERE owner_id = ? AND viewer_id = ?", ownerID, viewerID).Scan(&n)
	if err != nil {
		return false, storageError(err)
	}
	return n > 0, nil
}

// ListConnections returns every connection userID takes part in, oldest first.
func (s *SQLSharingStore) ListConnections(ctx context.Context, userID string) ([]models.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, viewer_id, created_at FROM connections
		WHERE owner_id = ? OR viewer_id = ?
		ORDER BY created_at, id`, userID, userID)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	var conns []models.Connection
	for rows.Next() {
		var conn models.Connection
		var createdAt sql.NullTime
		if err := rows.Scan(&conn.ID, &conn.OwnerID, &conn.ViewerID, &createdAt); err != nil {
			return nil, storageError(err)
		}
		conn.CreatedAt = createdAt.Time
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}
	return conns, nil
}

// scanUser is a helper function to scan a single row into a User struct.
func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var code sql.NullString
	var createdAt sql.NullTime
	err := scanner.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &code, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, storageError(err)
	}
	if code.Valid {
		c := code.String
		user.SharingCode = &c
	}
	user.CreatedAt = createdAt.Time
	return user, nil
}
