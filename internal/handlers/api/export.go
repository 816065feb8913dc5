package api

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"fliqk/internal/export"
	"fliqk/internal/models"
)

// PostLister lists a user's posts.
type PostLister interface {
	ListPosts(ctx context.Context, userID uuid.UUID, filter models.PostFilter) ([]models.Post, error)
}

// ExportHandler downloads the user's posts as a static file.
type ExportHandler struct {
	posts    PostLister
	renderer *export.Renderer
	now      func() time.Time
}

// NewExportHandler creates a new export handler.
func NewExportHandler(posts PostLister, renderer *export.Renderer) *ExportHandler {
	return &ExportHandler{posts: posts, renderer: renderer, now: time.Now}
}

// Export handles GET /api/export?period=&type=&tag=&collection=&format=.
func (h *ExportHandler) Export(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	period, err := export.ParsePeriod(c.Query("period", string(export.PeriodAll)))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	format := strings.ToLower(c.Query("format", export.FormatHTML))
	if format != export.FormatHTML && format != export.FormatJSON {
		return jsonError(c, fiber.StatusBadRequest, "format must be html or json")
	}

	filter, err := parseFilter(c, user)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.Limit = 0

	now := h.now()
	filter.Since = period.Since(now)
	posts, err := h.posts.ListPosts(c.Context(), user.ID, filter)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch posts")
	}

	doc := export.Document{
		Owner:       user.Nickname,
		Period:      period,
		GeneratedAt: now,
		Posts:       export.FilterByPeriod(posts, period, now),
	}

	var buf bytes.Buffer
	if format == export.FormatJSON {
		err = export.RenderJSON(&buf, doc)
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	} else {
		err = h.renderer.RenderHTML(&buf, doc)
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	}
	if err != nil {
		return fmt.Errorf("failed to render export: %w", err)
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.Filename(format)))
	return c.Send(buf.Bytes())
}
