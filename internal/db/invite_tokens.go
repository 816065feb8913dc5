package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fliqk/internal/models"
)

const inviteTokenColumns = `t.id, t.token, t.grants_role, t.used, t.used_by, t.used_at, t.created_by, t.created_at,
	COALESCE(u.nickname, '')`

func scanInviteToken(row pgx.Row) (*models.InviteToken, error) {
	var t models.InviteToken
	err := row.Scan(
		&t.ID,
		&t.Token,
		&t.GrantsRole,
		&t.Used,
		&t.UsedBy,
		&t.UsedAt,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UsedByNickname,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateInviteToken stores a new unused token.
func (d *DB) CreateInviteToken(ctx context.Context, token *models.InviteToken) error {
	query := `
		INSERT INTO invite_tokens (token, grants_role, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, used, created_at
	`
	err := d.Pool.QueryRow(ctx, query, token.Token, token.GrantsRole, token.CreatedBy).
		Scan(&token.ID, &token.Used, &token.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

// EnsureInviteToken creates a token unless one with the same value already exists.
// Used to bootstrap tokens from the YAML config.
func (d *DB) EnsureInviteToken(ctx context.Context, token, role string) (bool, error) {
	result, err := d.Pool.Exec(ctx, `
		INSERT INTO invite_tokens (token, grants_role)
		VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`, token, role)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// GetInviteToken retrieves a token by its value.
func (d *DB) GetInviteToken(ctx context.Context, token string) (*models.InviteToken, error) {
	query := `
		SELECT ` + inviteTokenColumns + `
		FROM invite_tokens t
		LEFT JOIN users u ON u.id = t.used_by
		WHERE t.token = $1
	`
	return scanInviteToken(d.Pool.QueryRow(ctx, query, token))
}

// ListInviteTokens returns all tokens, unused first, newest first.
func (d *DB) ListInviteTokens(ctx context.Context) ([]models.InviteToken, error) {
	query := `
		SELECT ` + inviteTokenColumns + `
		FROM invite_tokens t
		LEFT JOIN users u ON u.id = t.used_by
		ORDER BY t.used ASC, t.created_at DESC
	`
	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.InviteToken
	for rows.Next() {
		t, err := scanInviteToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// DeleteUnusedInviteToken deletes a token that has not been redeemed.
func (d *DB) DeleteUnusedInviteToken(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM invite_tokens WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}
