package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiate(t *testing.T) {
	l := NewLocale([]string{"en", "es"}, "en")

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"cookie wins", "es", "en-US,en;q=0.9", "es"},
		{"unsupported cookie ignored", "fr", "es-ES,es;q=0.9", "es"},
		{"accept spanish region", "", "es-MX", "es"},
		{"accept english", "", "en-GB,en;q=0.8", "en"},
		{"only primary tag counts", "", "fr-FR,es;q=0.9", "en"},
		{"primary tag ignores weight", "", "fr;q=0.9,es;q=0.8", "en"},
		{"primary tag with weight", "", "es;q=0.5,en", "es"},
		{"accept unsupported", "", "ja", "en"},
		{"nothing", "", "", "en"},
		{"garbage header", "", ";;;", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Negotiate(tt.cookie, tt.accept); got != tt.want {
				t.Errorf("Negotiate(%q, %q) = %q, want %q", tt.cookie, tt.accept, got, tt.want)
			}
		})
	}
}

func TestLocaleHandler(t *testing.T) {
	l := NewLocale([]string{"es"}, "en")
	app := fiber.New()
	app.Use(l.Handler)
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(CurrentLocale(c))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "es-AR")
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "es", string(body))

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == LocaleCookie {
			found = true
			assert.Equal(t, "es", c.Value)
		}
	}
	assert.True(t, found, "NEXT_LOCALE cookie not set")

	// An existing valid cookie is not rewritten
	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("Cookie", LocaleCookie+"=en")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "en", string(body))
	assert.Empty(t, resp.Cookies())
}
