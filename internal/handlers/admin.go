package handlers

import (
	"context"
	"html/template"

	"github.com/gofiber/fiber/v3"

	"fliqk/internal/config"
	"fliqk/internal/handlers/api"
	"fliqk/internal/models"
	"fliqk/internal/tokens"
)

// DashboardStore is what the admin dashboard reads.
type DashboardStore interface {
	ListUsersWithCounts(ctx context.Context) ([]models.UserSummary, error)
	ListInviteTokens(ctx context.Context) ([]models.InviteToken, error)
}

// AdminHandler renders the admin dashboard. Changes go through the JSON admin API.
type AdminHandler struct {
	store DashboardStore
	cfg   *config.Config
}

// NewAdminHandler creates a new admin dashboard handler.
func NewAdminHandler(store DashboardStore, cfg *config.Config) *AdminHandler {
	return &AdminHandler{store: store, cfg: cfg}
}

// Dashboard renders users, tokens and totals (admin only).
func (h *AdminHandler) Dashboard(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok || !user.IsAdmin() {
		return fiber.NewError(fiber.StatusForbidden, "Admin access required")
	}

	users, err := h.store.ListUsersWithCounts(c.Context())
	if err != nil {
		return err
	}
	list, err := h.store.ListInviteTokens(c.Context())
	if err != nil {
		return err
	}

	var posts, unused int
	for _, u := range users {
		posts += u.PostCount
	}
	for _, t := range list {
		if !t.Used {
			unused++
		}
	}

	return c.Render("admin", fiber.Map{
		"Title":        "Admin",
		"User":         user,
		"SelfID":       user.ID.String(),
		"Locale":       c.Locals("locale"),
		"Users":        users,
		"Tokens":       list,
		"PostCount":    posts,
		"UnusedTokens": unused,
		"Roles":        []string{models.RoleUser, models.RoleTester, models.RoleAdmin},
		"MaxBatch":     tokens.MaxBatch,
		"Bookmarklet":  template.URL(api.Script(h.cfg.BaseURL)),
	})
}
