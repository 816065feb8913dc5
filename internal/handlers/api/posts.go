package api

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"fliqk/internal/composer"
	"fliqk/internal/db"
	"fliqk/internal/models"
)

const maxListLimit = 500

// PostStore is the persistence the post handler needs.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (bool, error)
	GetPostByID(ctx context.Context, userID, id uuid.UUID) (*models.Post, error)
	ListPosts(ctx context.Context, userID uuid.UUID, filter models.PostFilter) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, userID, id uuid.UUID) error
	IncrementClickCount(ctx context.Context, userID, id uuid.UUID) (string, error)
	SetPostCollection(ctx context.Context, userID, postID uuid.UUID, collectionID *uuid.UUID) error
	ListTags(ctx context.Context, userID uuid.UUID) ([]models.TagCount, error)
}

// PostHandler handles the user's saved posts.
type PostHandler struct {
	store PostStore
}

// NewPostHandler creates a new post handler.
func NewPostHandler(store PostStore) *PostHandler {
	return &PostHandler{store: store}
}

// postRequest is the body of create and update. Fields are checked with the
// same rules the composer applies before preview.
type postRequest struct {
	composer.Fields
	Status    string     `json:"status"`
	ClientKey *uuid.UUID `json:"client_key"`
}

// validatedPost runs req through a composer draft and returns the resulting post.
func validatedPost(userID uuid.UUID, req postRequest) (*models.Post, error) {
	d, err := composer.New(req.PostType)
	if err != nil {
		return nil, err
	}
	if err := d.Update(req.Fields); err != nil {
		return nil, err
	}
	if err := d.Preview(); err != nil {
		return nil, err
	}
	if req.ClientKey != nil {
		d.ClientKey = *req.ClientKey
	}

	post := d.Post(userID)
	if req.ClientKey == nil {
		post.ClientKey = nil
	}
	switch req.Status {
	case "", models.StatusDraft:
	case models.StatusSent:
		post.Status = models.StatusSent
	default:
		return nil, errors.New("invalid status")
	}
	return post, nil
}

func postErrorMessage(err error) string {
	switch {
	case errors.Is(err, composer.ErrIncomplete):
		return "title and content are required for this post type"
	case errors.Is(err, composer.ErrInvalidURL):
		return "invalid URL"
	case errors.Is(err, composer.ErrInvalidPostType):
		return "invalid post type"
	}
	return err.Error()
}

// parseFilter reads list filters from the query string. Sort defaults to the user's preference.
func parseFilter(c fiber.Ctx, user *models.User) (models.PostFilter, error) {
	filter := models.PostFilter{
		Status:   c.Query("status"),
		PostType: c.Query("type"),
		Tag:      strings.TrimPrefix(strings.TrimSpace(c.Query("tag")), "#"),
		Query:    c.Query("q"),
		Sort:     c.Query("sort", user.Preferences.Sort),
	}

	if filter.Status != "" && filter.Status != models.StatusDraft && filter.Status != models.StatusSent {
		return filter, errors.New("invalid status")
	}
	if filter.PostType != "" && !models.IsValidPostType(filter.PostType) {
		return filter, errors.New("invalid post type")
	}
	if raw := c.Query("collection"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid collection ID")
		}
		filter.CollectionID = &id
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = min(n, maxListLimit)
	}
	return filter, nil
}

// List returns the user's posts.
func (h *PostHandler) List(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	filter, err := parseFilter(c, user)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	posts, err := h.store.ListPosts(c.Context(), user.ID, filter)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch posts")
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return jsonSuccess(c, posts)
}

// Create saves a post directly, without the composer session.
func (h *PostHandler) Create(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req postRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	post, err := validatedPost(user.ID, req)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, postErrorMessage(err))
	}

	created, err := h.store.CreatePost(c.Context(), post)
	if err != nil {
		if errors.Is(err, db.ErrCollectionNotFound) {
			return jsonError(c, fiber.StatusNotFound, "collection not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to create post")
	}
	if created {
		c.Status(fiber.StatusCreated)
	}
	return jsonSuccess(c, post)
}

// Get returns one post.
func (h *PostHandler) Get(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid post ID")
	}

	post, err := h.store.GetPostByID(c.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return jsonError(c, fiber.StatusNotFound, "post not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch post")
	}
	return jsonSuccess(c, post)
}

// Update replaces a post's editable fields. Status and collection are unchanged.
func (h *PostHandler) Update(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid post ID")
	}

	existing, err := h.store.GetPostByID(c.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return jsonError(c, fiber.StatusNotFound, "post not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch post")
	}

	var req postRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.PostType == "" {
		req.PostType = existing.PostType
	}
	req.Status, req.ClientKey = "", nil

	updated, err := validatedPost(user.ID, req)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, postErrorMessage(err))
	}
	updated.ID = existing.ID
	updated.Status = existing.Status
	updated.CollectionID = existing.CollectionID
	updated.ClickCount = existing.ClickCount
	updated.CreatedAt = existing.CreatedAt
	updated.SentAt = existing.SentAt

	if err := h.store.UpdatePost(c.Context(), updated); err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return jsonError(c, fiber.StatusNotFound, "post not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to update post")
	}
	return jsonSuccess(c, updated)
}

// Delete removes a post.
func (h *PostHandler) Delete(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid post ID")
	}

	if err := h.store.DeletePost(c.Context(), user.ID, id); err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return jsonError(c, fiber.StatusNotFound, "post not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete post")
	}
	return jsonSuccess(c, nil)
}

// Open records a click on a link post and returns the URL to open.
func (h *PostHandler) Open(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid post ID")
	}

	url, err := h.store.IncrementClickCount(c.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return jsonError(c, fiber.StatusNotFound, "link post not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to open post")
	}
	return jsonSuccess(c, fiber.Map{"url": url})
}

// SetCollection moves a post into a collection, or out of it with a null collection_id.
func (h *PostHandler) SetCollection(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid post ID")
	}

	var body struct {
		CollectionID *uuid.UUID `json:"collection_id"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.store.SetPostCollection(c.Context(), user.ID, id, body.CollectionID); err != nil {
		switch {
		case errors.Is(err, db.ErrPostNotFound):
			return jsonError(c, fiber.StatusNotFound, "post not found")
		case errors.Is(err, db.ErrCollectionNotFound):
			return jsonError(c, fiber.StatusNotFound, "collection not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to move post")
	}
	return jsonSuccess(c, fiber.Map{"collection_id": body.CollectionID})
}

// Tags returns the user's tags with usage counts.
func (h *PostHandler) Tags(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	tags, err := h.store.ListTags(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch tags")
	}
	if tags == nil {
		tags = []models.TagCount{}
	}
	return jsonSuccess(c, tags)
}
