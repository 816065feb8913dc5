package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fliqk/internal/db"
	"fliqk/internal/models"
	"fliqk/internal/tokens"
)

// AdminStore is the persistence the admin handler needs.
type AdminStore interface {
	ListUsersWithCounts(ctx context.Context) ([]models.UserSummary, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error
	ResetDevice(ctx context.Context, userID uuid.UUID) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	ListInviteTokens(ctx context.Context) ([]models.InviteToken, error)
	CreateInviteToken(ctx context.Context, token *models.InviteToken) error
	DeleteUnusedInviteToken(ctx context.Context, id uuid.UUID) error
}

// AdminHandler manages users and invite tokens. Routes are mounted behind RequireAdmin.
type AdminHandler struct {
	store  AdminStore
	logger *zap.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(store AdminStore, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{store: store, logger: logger}
}

// ListUsers returns all users with post counts.
func (h *AdminHandler) ListUsers(c fiber.Ctx) error {
	users, err := h.store.ListUsersWithCounts(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch users")
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return jsonSuccess(c, users)
}

// UpdateRole changes a user's role. Admins cannot demote themselves.
func (h *AdminHandler) UpdateRole(c fiber.Ctx) error {
	admin, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	userID, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid user ID")
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !models.IsValidRole(body.Role) {
		return jsonError(c, fiber.StatusBadRequest, "invalid role")
	}
	if userID == admin.ID && body.Role != models.RoleAdmin {
		return jsonError(c, fiber.StatusBadRequest, "cannot remove your own admin role")
	}

	if err := h.store.UpdateUserRole(c.Context(), userID, body.Role); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to update role")
	}

	h.logger.Info("role changed",
		zap.String("admin_id", admin.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", body.Role),
	)
	return jsonSuccess(c, fiber.Map{"id": userID, "role": body.Role})
}

// ResetDevice clears a user's device binding so they can sign in from a new device.
func (h *AdminHandler) ResetDevice(c fiber.Ctx) error {
	userID, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid user ID")
	}

	if err := h.store.ResetDevice(c.Context(), userID); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to reset device")
	}
	return jsonSuccess(c, nil)
}

// DeleteUser removes a user and their content. Admins cannot delete themselves.
func (h *AdminHandler) DeleteUser(c fiber.Ctx) error {
	admin, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	userID, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid user ID")
	}
	if userID == admin.ID {
		return jsonError(c, fiber.StatusBadRequest, "cannot delete yourself")
	}

	if err := h.store.DeleteUser(c.Context(), userID); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete user")
	}

	h.logger.Info("user deleted", zap.String("admin_id", admin.ID.String()), zap.String("user_id", userID.String()))
	return jsonSuccess(c, nil)
}

// ListTokens returns all invite tokens.
func (h *AdminHandler) ListTokens(c fiber.Ctx) error {
	list, err := h.store.ListInviteTokens(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch tokens")
	}
	if list == nil {
		list = []models.InviteToken{}
	}
	return jsonSuccess(c, list)
}

// CreateTokens generates count tokens granting role.
func (h *AdminHandler) CreateTokens(c fiber.Ctx) error {
	admin, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var body struct {
		Count int    `json:"count"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Role == "" {
		body.Role = models.RoleUser
	}
	if !models.IsValidRole(body.Role) {
		return jsonError(c, fiber.StatusBadRequest, "invalid role")
	}
	if body.Count < 1 || body.Count > tokens.MaxBatch {
		return jsonError(c, fiber.StatusBadRequest, "count must be between 1 and 100")
	}

	created, err := tokens.CreateBatch(c.Context(), h.store, body.Count, body.Role, admin)
	if err != nil {
		h.logger.Error("token generation failed", zap.Int("created", len(created)), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to generate tokens")
	}

	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, created)
}

// DeleteToken removes an unused token.
func (h *AdminHandler) DeleteToken(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid token ID")
	}

	if err := h.store.DeleteUnusedInviteToken(c.Context(), id); err != nil {
		if errors.Is(err, db.ErrTokenNotFound) {
			return jsonError(c, fiber.StatusNotFound, "token not found or already used")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete token")
	}
	return jsonSuccess(c, nil)
}
