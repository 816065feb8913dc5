package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"fliqk/internal/db"
	"fliqk/internal/models"
)

// SessionUserKey is the session key holding the signed-in user's ID.
const SessionUserKey = "user_id"

// UserLoader loads users by ID.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware handles user authentication via sessions.
type AuthMiddleware struct {
	users UserLoader
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// loadUser reads the session and fetches its user. The role always comes from
// the database, never from the session.
func (m *AuthMiddleware) loadUser(c fiber.Ctx) (*models.User, error) {
	sess := session.FromContext(c)
	if sess == nil {
		return nil, db.ErrUserNotFound
	}

	raw, ok := sess.Get(SessionUserKey).(string)
	if !ok || raw == "" {
		return nil, db.ErrUserNotFound
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		sess.Delete(SessionUserKey)
		return nil, db.ErrUserNotFound
	}

	user, err := m.users.GetUserByID(c.Context(), id)
	if errors.Is(err, db.ErrUserNotFound) {
		// Account deleted while signed in
		sess.Destroy()
	}
	return user, err
}

// RequireAuth rejects requests without a signed-in user with 401.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	user, err := m.loadUser(c)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}
		return err
	}
	c.Locals("user", user)
	return c.Next()
}

// OptionalAuth loads the user if authenticated, but doesn't require authentication.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	if user, err := m.loadUser(c); err == nil {
		c.Locals("user", user)
	}
	return c.Next()
}

// RequireAdmin must run after RequireAuth. Non-admins get 403.
func RequireAdmin(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok || user == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}
	if !user.IsAdmin() {
		return fiber.NewError(fiber.StatusForbidden, "Admin access required")
	}
	return c.Next()
}

// CurrentUser returns the user stored by RequireAuth or OptionalAuth, or nil.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// SignIn stores userID in a fresh session.
func SignIn(c fiber.Ctx, userID uuid.UUID) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errors.New("session middleware not installed")
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(SessionUserKey, userID.String())
	return nil
}

// SignOut destroys the session.
func SignOut(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return nil
	}
	return sess.Destroy()
}
