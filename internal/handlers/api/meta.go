package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fliqk/internal/ai"
	"fliqk/internal/meta"
	"fliqk/internal/metrics"
	"fliqk/internal/middleware"
	"fliqk/internal/models"
	"fliqk/internal/validation"
)

// PageFetcher fetches pages for analysis.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*meta.Page, error)
}

// MetaHandler serves URL analysis, metadata and domain suggestions.
// Responses are bare JSON objects, not the standard envelope.
type MetaHandler struct {
	fetcher   PageFetcher
	analyzer  *ai.Analyzer
	suggester *ai.Suggester
	logger    *zap.Logger
}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler(fetcher PageFetcher, analyzer *ai.Analyzer, suggester *ai.Suggester, logger *zap.Logger) *MetaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaHandler{fetcher: fetcher, analyzer: analyzer, suggester: suggester, logger: logger}
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: message})
}

func domainNotFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: "Domain not found",
		Code:  models.CodeDomainNotFound,
	})
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// fetch normalises rawURL and retrieves it.
func (h *MetaHandler) fetch(c fiber.Ctx, rawURL string) (string, *meta.Page, error) {
	target := validation.NormalizeURL(rawURL)
	page, err := h.fetcher.Fetch(c.Context(), target)
	if err != nil {
		h.logger.Debug("fetch failed", zap.String("url", target), zap.Error(err))
	}
	return target, page, err
}

// Analyze handles POST /api/analyze.
func (h *MetaHandler) Analyze(c fiber.Ctx) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(body.URL) == "" {
		return badRequest(c, "url is required")
	}

	target, page, err := h.fetch(c, body.URL)
	if err != nil {
		if errors.Is(err, meta.ErrDomainNotFound) {
			metrics.RecordAnalyze(metrics.OutcomeDomainNotFound)
			return domainNotFound(c)
		}
		return err
	}

	analysis := h.analyzer.Analyze(c.Context(), target, page, middleware.CurrentLocale(c))
	metrics.RecordAnalyze(metrics.OutcomeOK)

	return c.JSON(models.AnalyzeResponse{
		Title:       analysis.Title,
		Description: analysis.Description,
		Tags:        analysis.Tags,
		Thumbnail:   optionalString(meta.Extract(page.HTML, target).Image),
	})
}

// Meta handles GET /api/meta?url=.
func (h *MetaHandler) Meta(c fiber.Ctx) error {
	rawURL := c.Query("url")
	if strings.TrimSpace(rawURL) == "" {
		return badRequest(c, "url is required")
	}

	target, page, err := h.fetch(c, rawURL)
	if err != nil {
		if errors.Is(err, meta.ErrDomainNotFound) {
			return domainNotFound(c)
		}
		return err
	}

	md := meta.Extract(page.HTML, target)
	return c.JSON(models.MetaResponse{
		Title:       md.Title,
		Description: md.Description,
		Thumbnail:   optionalString(md.Image),
	})
}

// SuggestDomains handles POST /api/suggest-domains.
func (h *MetaHandler) SuggestDomains(c fiber.Ctx) error {
	var body struct {
		Input  string `json:"input"`
		APIKey string `json:"apiKey"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return badRequest(c, "invalid request body")
	}

	return c.JSON(models.SuggestResponse{
		Suggestions: h.suggester.Suggest(c.Context(), body.Input, body.APIKey),
	})
}
