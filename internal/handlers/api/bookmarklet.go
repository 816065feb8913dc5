package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// BookmarkletHandler serves the bookmarklet that opens the composer on the current page.
type BookmarkletHandler struct {
	baseURL string
}

// NewBookmarkletHandler creates a new bookmarklet handler.
func NewBookmarkletHandler(baseURL string) *BookmarkletHandler {
	return &BookmarkletHandler{baseURL: strings.TrimRight(baseURL, "/")}
}

// Script returns the javascript: URL for baseURL.
func Script(baseURL string) string {
	return fmt.Sprintf(
		"javascript:(function(){window.open('%s/new?url='+encodeURIComponent(location.href)+'&title='+encodeURIComponent(document.title),'_blank');})();",
		strings.TrimRight(baseURL, "/"),
	)
}

// Get returns the bookmarklet.
func (h *BookmarkletHandler) Get(c fiber.Ctx) error {
	return jsonSuccess(c, fiber.Map{"bookmarklet": Script(h.baseURL)})
}
