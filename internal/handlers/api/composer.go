package api

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fliqk/internal/composer"
	"fliqk/internal/db"
	"fliqk/internal/metrics"
	"fliqk/internal/share"
	"fliqk/internal/validation"
)

// ComposerHandler drives the composer state machine over the session draft.
type ComposerHandler struct {
	service *composer.Service
	drafts  DraftStore
	logger  *zap.Logger
}

// NewComposerHandler creates a new composer handler.
func NewComposerHandler(service *composer.Service, drafts DraftStore, logger *zap.Logger) *ComposerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComposerHandler{service: service, drafts: drafts, logger: logger}
}

// composerError maps composer errors to responses.
func composerError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNoDraft), errors.Is(err, db.ErrCollectionNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, composer.ErrInvalidTransition):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, composer.ErrIncomplete),
		errors.Is(err, composer.ErrInvalidURL),
		errors.Is(err, composer.ErrInvalidPostType),
		errors.Is(err, composer.ErrInvalidThumbnail):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	return err
}

// step loads the draft, applies fn and saves the result.
func (h *ComposerHandler) step(c fiber.Ctx, fn func(d *composer.Draft) error) error {
	d, err := h.drafts.Load(c)
	if err != nil {
		return composerError(c, err)
	}
	if err := fn(d); err != nil {
		return composerError(c, err)
	}
	if err := h.drafts.Save(c, d); err != nil {
		return err
	}
	return jsonSuccess(c, d)
}

// Get returns the current draft.
func (h *ComposerHandler) Get(c fiber.Ctx) error {
	d, err := h.drafts.Load(c)
	if err != nil {
		return composerError(c, err)
	}
	return jsonSuccess(c, d)
}

// Start replaces any draft with a new one. The body may carry initial fields.
func (h *ComposerHandler) Start(c fiber.Ctx) error {
	var f composer.Fields
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &f); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	d, err := composer.New(f.PostType)
	if err != nil {
		return composerError(c, err)
	}
	f.PostType = d.PostType
	if err := d.Update(f); err != nil {
		return composerError(c, err)
	}
	if err := h.drafts.Save(c, d); err != nil {
		return err
	}

	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, d)
}

// Update replaces the draft's fields.
func (h *ComposerHandler) Update(c fiber.Ctx) error {
	var f composer.Fields
	if err := json.Unmarshal(c.Body(), &f); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	return h.step(c, func(d *composer.Draft) error { return d.Update(f) })
}

// Discard drops the draft.
func (h *ComposerHandler) Discard(c fiber.Ctx) error {
	if err := h.drafts.Clear(c); err != nil {
		return err
	}
	return jsonSuccess(c, nil)
}

// Preview moves the draft to previewing.
func (h *ComposerHandler) Preview(c fiber.Ctx) error {
	return h.step(c, func(d *composer.Draft) error { return d.Preview() })
}

// Edit returns the draft to editing.
func (h *ComposerHandler) Edit(c fiber.Ctx) error {
	return h.step(c, func(d *composer.Draft) error { return d.Edit() })
}

// Save stores the draft as an unsent post.
func (h *ComposerHandler) Save(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return h.step(c, func(d *composer.Draft) error {
		return h.service.SaveForLater(c.Context(), user.ID, d)
	})
}

// Share persists the draft if needed and returns the platform payload.
func (h *ComposerHandler) Share(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var body struct {
		Platform string `json:"platform"`
		composer.ShareOptions
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !share.IsValidPlatform(body.Platform) {
		return jsonError(c, fiber.StatusBadRequest, "invalid platform")
	}

	d, err := h.drafts.Load(c)
	if err != nil {
		return composerError(c, err)
	}
	payload, err := h.service.Share(c.Context(), user.ID, d, body.Platform, body.ShareOptions)
	if err != nil {
		if errors.Is(err, composer.ErrInvalidTransition) || errors.Is(err, db.ErrCollectionNotFound) {
			return composerError(c, err)
		}
		h.logger.Error("share failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to share post")
	}
	if err := h.drafts.Save(c, d); err != nil {
		return err
	}
	metrics.RecordShare(body.Platform)

	return jsonSuccess(c, fiber.Map{
		"draft":   d,
		"payload": payload,
	})
}

// StartFromURL handles GET /new?url=, the bookmarklet target. It starts a link
// draft for the URL and renders a confirmation page.
func (h *ComposerHandler) StartFromURL(c fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url is required")
	}
	target := validation.NormalizeURL(raw)
	if valid, msg := validation.ValidateURL(target); !valid {
		return fiber.NewError(fiber.StatusBadRequest, msg)
	}

	d, err := composer.New("")
	if err != nil {
		return err
	}
	if err := d.Update(composer.Fields{URL: target, Title: c.Query("title")}); err != nil {
		return err
	}
	if err := h.drafts.Save(c, d); err != nil {
		return err
	}

	return c.Render("new", fiber.Map{
		"Title": "New post",
		"URL":   target,
		"User":  c.Locals("user"),
	}, "layouts/main")
}
