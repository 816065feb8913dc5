package db

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fliqk/internal/models"
)

// postColumns is the standard column list for post queries.
const postColumns = `id, user_id, post_type, url, title, description, thumbnail, custom_thumbnail,
	thumbnail_type, emoji, media_url, media_type, tags, status, click_count, collection_id,
	client_key, created_at, updated_at, sent_at`

func postScanTargets(p *models.Post) []any {
	return []any{
		&p.ID,
		&p.UserID,
		&p.PostType,
		&p.URL,
		&p.Title,
		&p.Description,
		&p.Thumbnail,
		&p.CustomThumbnail,
		&p.ThumbnailType,
		&p.Emoji,
		&p.MediaURL,
		&p.MediaType,
		&p.Tags,
		&p.Status,
		&p.ClickCount,
		&p.CollectionID,
		&p.ClientKey,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.SentAt,
	}
}

// scanPost scans a row into a Post struct.
func scanPost(row pgx.Row) (*models.Post, error) {
	var post models.Post
	err := row.Scan(postScanTargets(&post)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// scanPosts scans multiple rows into a slice of Posts.
func scanPosts(rows pgx.Rows) ([]models.Post, error) {
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(postScanTargets(&post)...); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// CreatePost inserts a post. When post.ClientKey is set the insert is idempotent per
// (user, client key): a repeat returns the existing row and created=false.
// A collection ID must name one of the user's own collections, otherwise
// ErrCollectionNotFound is returned. Posts created as sent get sent_at.
func (d *DB) CreatePost(ctx context.Context, post *models.Post) (created bool, err error) {
	status := post.Status
	if status == "" {
		status = models.StatusDraft
	}
	thumbType := post.ThumbnailType
	if thumbType == "" {
		thumbType = models.ThumbnailOriginal
	}

	query := `
		INSERT INTO posts (user_id, post_type, url, title, description, thumbnail, custom_thumbnail,
			thumbnail_type, emoji, media_url, media_type, tags, status, collection_id, client_key, sent_at)
		SELECT $1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::text, $14::uuid, $15,
			CASE WHEN $13::text = 'sent' THEN NOW() END
		WHERE $14::uuid IS NULL
			OR EXISTS (SELECT 1 FROM collections WHERE id = $14::uuid AND user_id = $1::uuid)
		ON CONFLICT (user_id, client_key) WHERE client_key IS NOT NULL
		DO UPDATE SET updated_at = posts.updated_at
		RETURNING ` + postColumns + `, (xmax = 0)
	`

	targets := append(postScanTargets(post), &created)
	err = d.Pool.QueryRow(ctx, query,
		post.UserID,
		post.PostType,
		post.URL,
		post.Title,
		post.Description,
		post.Thumbnail,
		post.CustomThumbnail,
		thumbType,
		post.Emoji,
		post.MediaURL,
		post.MediaType,
		nonNilTags(post.Tags),
		status,
		post.CollectionID,
		post.ClientKey,
	).Scan(targets...)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrCollectionNotFound
	}
	return created, err
}

// GetPostByID retrieves a post owned by userID.
func (d *DB) GetPostByID(ctx context.Context, userID, id uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND user_id = $2`
	return scanPost(d.Pool.QueryRow(ctx, query, id, userID))
}

// ListPosts retrieves a user's posts narrowed by filter.
func (d *DB) ListPosts(ctx context.Context, userID uuid.UUID, filter models.PostFilter) ([]models.Post, error) {
	sql := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []any{userID}

	next := func() string { return `$` + strconv.Itoa(len(args)) }

	if filter.Status != "" {
		args = append(args, filter.Status)
		sql += ` AND status = ` + next()
	}
	if filter.PostType != "" {
		args = append(args, filter.PostType)
		sql += ` AND post_type = ` + next()
	}
	if filter.Tag != "" {
		args = append(args, strings.ToLower(filter.Tag))
		sql += ` AND ` + next() + ` = ANY(tags)`
	}
	if filter.CollectionID != nil {
		args = append(args, *filter.CollectionID)
		sql += ` AND collection_id = ` + next()
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		sql += ` AND created_at >= ` + next()
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		p := next()
		sql += ` AND (title ILIKE ` + p + ` OR description ILIKE ` + p + ` OR url ILIKE ` + p + `)`
	}

	switch filter.Sort {
	case models.SortOldest:
		sql += ` ORDER BY created_at ASC`
	case models.SortMostClicked:
		sql += ` ORDER BY click_count DESC, created_at DESC`
	case models.SortAlpha:
		sql += ` ORDER BY LOWER(title) ASC, created_at DESC`
	default:
		sql += ` ORDER BY created_at DESC`
	}

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += ` LIMIT ` + next()
	}

	rows, err := d.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// UpdatePost updates the editable fields of a post owned by post.UserID.
func (d *DB) UpdatePost(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET post_type = $1, url = $2, title = $3, description = $4, thumbnail = $5,
			custom_thumbnail = $6, thumbnail_type = $7, emoji = $8, media_url = $9,
			media_type = $10, tags = $11, updated_at = NOW()
		WHERE id = $12 AND user_id = $13
		RETURNING updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		post.PostType,
		post.URL,
		post.Title,
		post.Description,
		post.Thumbnail,
		post.CustomThumbnail,
		post.ThumbnailType,
		post.Emoji,
		post.MediaURL,
		post.MediaType,
		nonNilTags(post.Tags),
		post.ID,
		post.UserID,
	).Scan(&post.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPostNotFound
	}
	return err
}

// DeletePost deletes a post owned by userID.
func (d *DB) DeletePost(ctx context.Context, userID, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// MarkPostSent flips a post to sent. sent_at keeps the first share time.
func (d *DB) MarkPostSent(ctx context.Context, userID, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE posts SET status = $1, sent_at = COALESCE(sent_at, NOW()), updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, models.StatusSent, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// IncrementClickCount bumps the click count of a link post and returns its URL.
func (d *DB) IncrementClickCount(ctx context.Context, userID, id uuid.UUID) (string, error) {
	var url string
	err := d.Pool.QueryRow(ctx, `
		UPDATE posts SET click_count = click_count + 1
		WHERE id = $1 AND user_id = $2 AND post_type = $3 AND url IS NOT NULL
		RETURNING url
	`, id, userID, models.PostTypeLink).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrPostNotFound
	}
	return url, err
}

// SetPostCollection moves a post into a collection, or detaches it when collectionID is nil.
// The collection must belong to the same user.
func (d *DB) SetPostCollection(ctx context.Context, userID, postID uuid.UUID, collectionID *uuid.UUID) error {
	if collectionID != nil {
		if _, err := d.GetCollection(ctx, userID, *collectionID); err != nil {
			return err
		}
	}
	result, err := d.Pool.Exec(ctx, `
		UPDATE posts SET collection_id = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, collectionID, postID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// AssignCollectionByName puts a post into the user's collection whose name matches
// (case-insensitively). Returns false when no such collection exists.
func (d *DB) AssignCollectionByName(ctx context.Context, userID, postID uuid.UUID, name string) (bool, error) {
	result, err := d.Pool.Exec(ctx, `
		UPDATE posts SET collection_id = c.id, updated_at = NOW()
		FROM collections c
		WHERE posts.id = $1 AND posts.user_id = $2
			AND c.user_id = $2 AND LOWER(c.name) = LOWER($3)
	`, postID, userID, name)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ListTags returns the user's tags with usage counts, most used first.
func (d *DB) ListTags(ctx context.Context, userID uuid.UUID) ([]models.TagCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT tag, COUNT(*)
		FROM posts, UNNEST(tags) AS tag
		WHERE user_id = $1
		GROUP BY tag
		ORDER BY COUNT(*) DESC, tag ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []models.TagCount{}
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		tags = append(tags, tc)
	}
	return tags, rows.Err()
}

// GetLinkPostsNeedingThumbnail returns link posts that want an original thumbnail
// but have none, and were not tried within maxAge. Never-tried posts come first.
func (d *DB) GetLinkPostsNeedingThumbnail(ctx context.Context, maxAge time.Duration, limit int) ([]models.Post, error) {
	cutoff := time.Now().Add(-maxAge)
	rows, err := d.Pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE post_type = $1 AND thumbnail_type = $2 AND thumbnail IS NULL AND url IS NOT NULL
			AND (thumbnail_checked_at IS NULL OR thumbnail_checked_at < $3)
		ORDER BY thumbnail_checked_at NULLS FIRST, created_at DESC
		LIMIT $4
	`, models.PostTypeLink, models.ThumbnailOriginal, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// SetPostThumbnail stores a fetched thumbnail for a post.
func (d *DB) SetPostThumbnail(ctx context.Context, id uuid.UUID, thumbnail string) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE posts SET thumbnail = $1, thumbnail_checked_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, thumbnail, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// MarkThumbnailChecked records a thumbnail attempt that found nothing.
func (d *DB) MarkThumbnailChecked(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `UPDATE posts SET thumbnail_checked_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// PostCount is a post tally for one type/status pair.
type PostCount struct {
	PostType string
	Status   string
	Count    int64
}

// CountPostsByTypeAndStatus tallies all posts for the metrics collector.
func (d *DB) CountPostsByTypeAndStatus(ctx context.Context) ([]PostCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT post_type, status, COUNT(*)
		FROM posts
		GROUP BY post_type, status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []PostCount
	for rows.Next() {
		var pc PostCount
		if err := rows.Scan(&pc.PostType, &pc.Status, &pc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, pc)
	}
	return counts, rows.Err()
}
