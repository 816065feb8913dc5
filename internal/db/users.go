package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fliqk/internal/models"
)

// userColumns is the standard column list for user queries.
const userColumns = `id, nickname, role, device_id, preferences, created_at, updated_at`

// scanUser scans a row into a User struct.
func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Nickname,
		&user.Role,
		&user.DeviceID,
		&user.Preferences,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Registration carries everything needed to create an account from an invite token.
type Registration struct {
	Nickname    string
	Token       string
	DeviceID    string
	Preferences models.Preferences
	Collections []models.Collection // Starter collections, optional
}

// Register consumes an invite token and creates the user it admits, atomically.
// The token row is locked so two concurrent registrations cannot both redeem it;
// on any failure nothing is written.
func (d *DB) Register(ctx context.Context, reg Registration) (*models.User, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var tokenID uuid.UUID
	var role string
	err = tx.QueryRow(ctx, `
		SELECT id, grants_role FROM invite_tokens
		WHERE token = $1 AND used = FALSE
		FOR UPDATE
	`, reg.Token).Scan(&tokenID, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	user, err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (nickname, role, device_id, preferences)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		reg.Nickname, role, nullIfEmpty(reg.DeviceID), reg.Preferences,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrNicknameTaken
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invite_tokens SET used = TRUE, used_by = $1, used_at = NOW()
		WHERE id = $2
	`, user.ID, tokenID); err != nil {
		return nil, err
	}

	for _, c := range reg.Collections {
		if _, err := tx.Exec(ctx, `
			INSERT INTO collections (user_id, name, emoji, color)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, user.ID, c.Name, c.Emoji, c.Color); err != nil {
			return nil, fmt.Errorf("failed to create starter collection %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their UUID.
func (d *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(d.Pool.QueryRow(ctx, query, id))
}

// GetUserByNickname retrieves a user by nickname, case-insensitively.
func (d *DB) GetUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(nickname) = LOWER($1)`
	return scanUser(d.Pool.QueryRow(ctx, query, nickname))
}

// BindDevice binds an account to deviceID if it is not bound yet.
// Returns ErrDeviceMismatch if the account is already bound to a different device.
func (d *DB) BindDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	var bound string
	err := d.Pool.QueryRow(ctx, `
		UPDATE users SET device_id = COALESCE(device_id, $1), updated_at = NOW()
		WHERE id = $2
		RETURNING device_id
	`, deviceID, userID).Scan(&bound)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if bound != deviceID {
		return ErrDeviceMismatch
	}
	return nil
}

// ResetDevice clears a user's device binding (admin only).
func (d *DB) ResetDevice(ctx context.Context, userID uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `UPDATE users SET device_id = NULL, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserRole updates a user's role (admin only).
func (d *DB) UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error {
	result, err := d.Pool.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePreferences replaces a user's preferences.
func (d *DB) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs models.Preferences) error {
	result, err := d.Pool.Exec(ctx, `UPDATE users SET preferences = $1, updated_at = NOW() WHERE id = $2`, prefs, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser deletes a user by ID. Their posts, collections and redeemed invite token go with them.
func (d *DB) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsersWithCounts retrieves all users with their post counts for the admin dashboard.
func (d *DB) ListUsersWithCounts(ctx context.Context) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.nickname, u.role, u.device_id, u.preferences, u.created_at, u.updated_at,
			   (SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id)
		FROM users u
		ORDER BY u.created_at DESC
	`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(
			&u.ID, &u.Nickname, &u.Role, &u.DeviceID, &u.Preferences, &u.CreatedAt, &u.UpdatedAt,
			&u.PostCount,
		); err != nil {
			return nil, err
		}
		u.HasDevice = u.User.HasDevice()
		users = append(users, u)
	}

	return users, rows.Err()
}

// GetUserCount returns the total number of users.
func (d *DB) GetUserCount(ctx context.Context) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
