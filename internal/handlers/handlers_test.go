package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/template/html/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fliqk/internal/config"
	"fliqk/internal/models"
	"fliqk/views"
)

type fakeDashboard struct {
	users  []models.UserSummary
	tokens []models.InviteToken
}

func (f fakeDashboard) ListUsersWithCounts(context.Context) ([]models.UserSummary, error) {
	return f.users, nil
}

func (f fakeDashboard) ListInviteTokens(context.Context) ([]models.InviteToken, error) {
	return f.tokens, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newViewsApp(user *models.User) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        html.NewFileSystem(http.FS(views.FS), ".html"),
		ViewsLayout:  "layouts/main",
		ErrorHandler: ErrorHandler(zap.NewNop()),
	})
	app.Use(func(c fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	})
	return app
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestDashboard(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Nickname: "root", Role: models.RoleAdmin, CreatedAt: time.Now()}
	store := fakeDashboard{
		users: []models.UserSummary{
			{User: *admin, PostCount: 3},
			{User: models.User{ID: uuid.New(), Nickname: "bea", Role: models.RoleUser, CreatedAt: time.Now()}, PostCount: 4, HasDevice: true},
		},
		tokens: []models.InviteToken{
			{ID: uuid.New(), Token: "Ab3#xY", GrantsRole: models.RoleUser, CreatedAt: time.Now()},
			{ID: uuid.New(), Token: "Zz9!qq", GrantsRole: models.RoleTester, Used: true, UsedByNickname: "bea", CreatedAt: time.Now()},
		},
	}
	h := NewAdminHandler(store, &config.Config{BaseURL: "https://fliqk.to"})

	app := newViewsApp(admin)
	app.Get("/admin", h.Dashboard)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	page := body(t, resp)
	assert.Contains(t, page, "bea")
	assert.Contains(t, page, "Ab3#xY")
	assert.Contains(t, page, "used by bea")
	assert.Contains(t, page, "<strong>7</strong>posts")
	assert.Contains(t, page, "<strong>1</strong>unused tokens")
	assert.Contains(t, page, `href="javascript:`)
}

func TestDashboard_ForbiddenForNonAdmins(t *testing.T) {
	h := NewAdminHandler(fakeDashboard{}, &config.Config{})

	for _, user := range []*models.User{nil, {ID: uuid.New(), Nickname: "bea", Role: models.RoleTester}} {
		app := newViewsApp(user)
		app.Get("/admin", h.Dashboard)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Contains(t, body(t, resp), "Admin access required")
	}
}

func TestErrorHandler_APIPathsGetJSON(t *testing.T) {
	app := newViewsApp(nil)
	app.Get("/api/boom", func(c fiber.Ctx) error { return errors.New("secret detail") })
	app.Get("/api/missing", func(c fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "nope") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	got := body(t, resp)
	assert.JSONEq(t, `{"status":"error","error":"Internal Server Error"}`, got)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"status":"error","error":"nope"}`, body(t, resp))
}

func TestErrorHandler_PagesGetHTML(t *testing.T) {
	app := newViewsApp(nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	page := body(t, resp)
	assert.True(t, strings.Contains(page, "<html"), page)
	assert.Contains(t, page, "404")
}

func TestProbes(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
	}{
		{"database up", nil, fiber.StatusOK},
		{"database down", errors.New("connection refused"), fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProbeHandler(fakePinger{err: tt.pingErr})
			app := fiber.New()
			app.Get("/healthz", h.Liveness)
			app.Get("/readyz", h.Readiness)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/readyz", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
