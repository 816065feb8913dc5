package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"fliqk/internal/models"
)

// testClient keeps session cookies across requests.
type testClient struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

// newTestApp builds an app with sessions and, when user is non-nil, a signed-in user.
func newTestApp(t *testing.T, user *models.User) (*fiber.App, *testClient) {
	t.Helper()
	app := fiber.New()
	app.Use(session.New())
	app.Use(func(c fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	})
	return app, &testClient{t: t, app: app, cookies: map[string]*http.Cookie{}}
}

func testUser(role string) *models.User {
	return &models.User{
		ID:          uuid.New(),
		Nickname:    "ana",
		Role:        role,
		Preferences: models.Preferences{Theme: models.ThemeSystem, Locale: "en", Sort: models.SortNewest},
	}
}

func (tc *testClient) do(method, path string, body any) (*http.Response, []byte) {
	tc.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(tc.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return tc.send(req)
}

func (tc *testClient) send(req *http.Request) (*http.Response, []byte) {
	tc.t.Helper()
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}

	resp, err := tc.app.Test(req)
	require.NoError(tc.t, err)
	for _, c := range resp.Cookies() {
		tc.cookies[c.Name] = c
	}

	data, err := io.ReadAll(resp.Body)
	require.NoError(tc.t, err)
	return resp, data
}

// envelope decodes a {status, data, error} response, unmarshalling data into out.
func envelope(t *testing.T, body []byte, out any) (status, errMsg string) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Status, env.Error
}
