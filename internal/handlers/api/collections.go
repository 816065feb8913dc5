package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"fliqk/internal/db"
	"fliqk/internal/models"
)

const maxCollectionName = 40

// CollectionStore is the persistence the collection handler needs.
type CollectionStore interface {
	CreateCollection(ctx context.Context, c *models.Collection) error
	ListCollections(ctx context.Context, userID uuid.UUID) ([]models.Collection, error)
	UpdateCollection(ctx context.Context, c *models.Collection) error
	DeleteCollection(ctx context.Context, userID, id uuid.UUID) error
}

// CollectionHandler handles the user's collections.
type CollectionHandler struct {
	store CollectionStore
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(store CollectionStore) *CollectionHandler {
	return &CollectionHandler{store: store}
}

type collectionRequest struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

func (r collectionRequest) validate() (collectionRequest, string) {
	r.Name = strings.TrimSpace(r.Name)
	r.Emoji = strings.TrimSpace(r.Emoji)
	r.Color = strings.TrimSpace(r.Color)
	if r.Name == "" {
		return r, "name is required"
	}
	if utf8.RuneCountInString(r.Name) > maxCollectionName {
		return r, "name is too long"
	}
	return r, ""
}

// List returns the user's collections with item counts.
func (h *CollectionHandler) List(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	collections, err := h.store.ListCollections(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch collections")
	}
	return jsonSuccess(c, collections)
}

// Create adds a collection.
func (h *CollectionHandler) Create(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req collectionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	req, msg := req.validate()
	if msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	col := &models.Collection{UserID: user.ID, Name: req.Name, Emoji: req.Emoji, Color: req.Color}
	if err := h.store.CreateCollection(c.Context(), col); err != nil {
		if errors.Is(err, db.ErrDuplicateCollection) {
			return jsonError(c, fiber.StatusConflict, err.Error())
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to create collection")
	}

	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, col)
}

// Update renames or restyles a collection.
func (h *CollectionHandler) Update(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid collection ID")
	}

	var req collectionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	req, msg := req.validate()
	if msg != "" {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	col := &models.Collection{ID: id, UserID: user.ID, Name: req.Name, Emoji: req.Emoji, Color: req.Color}
	if err := h.store.UpdateCollection(c.Context(), col); err != nil {
		switch {
		case errors.Is(err, db.ErrCollectionNotFound):
			return jsonError(c, fiber.StatusNotFound, "collection not found")
		case errors.Is(err, db.ErrDuplicateCollection):
			return jsonError(c, fiber.StatusConflict, err.Error())
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to update collection")
	}
	return jsonSuccess(c, col)
}

// Delete removes a collection. Its posts are kept.
func (h *CollectionHandler) Delete(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid collection ID")
	}

	if err := h.store.DeleteCollection(c.Context(), user.ID, id); err != nil {
		if errors.Is(err, db.ErrCollectionNotFound) {
			return jsonError(c, fiber.StatusNotFound, "collection not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete collection")
	}
	return jsonSuccess(c, nil)
}
