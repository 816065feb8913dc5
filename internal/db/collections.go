package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fliqk/internal/models"
)

const collectionColumns = `c.id, c.user_id, c.name, c.emoji, c.color, c.created_at,
	(SELECT COUNT(*) FROM posts p WHERE p.collection_id = c.id)`

func scanCollection(row pgx.Row) (*models.Collection, error) {
	var c models.Collection
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Emoji, &c.Color, &c.CreatedAt, &c.ItemCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCollection creates a collection. Names are unique per user, ignoring case.
func (d *DB) CreateCollection(ctx context.Context, c *models.Collection) error {
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO collections (user_id, name, emoji, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.UserID, c.Name, c.Emoji, c.Color).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCollection
		}
		return err
	}
	return nil
}

// GetCollection retrieves a collection owned by userID.
func (d *DB) GetCollection(ctx context.Context, userID, id uuid.UUID) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections c WHERE c.id = $1 AND c.user_id = $2`
	return scanCollection(d.Pool.QueryRow(ctx, query, id, userID))
}

// ListCollections returns the user's collections with item counts, by name.
func (d *DB) ListCollections(ctx context.Context, userID uuid.UUID) ([]models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections c WHERE c.user_id = $1 ORDER BY LOWER(c.name)`
	rows, err := d.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := []models.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *c)
	}
	return collections, rows.Err()
}

// UpdateCollection renames or restyles a collection.
func (d *DB) UpdateCollection(ctx context.Context, c *models.Collection) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE collections SET name = $1, emoji = $2, color = $3
		WHERE id = $4 AND user_id = $5
	`, c.Name, c.Emoji, c.Color, c.ID, c.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCollection
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// DeleteCollection deletes a collection. Member posts are kept and detached.
func (d *DB) DeleteCollection(ctx context.Context, userID, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM collections WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCollectionNotFound
	}
	return nil
}
