package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/text/language"
)

// LocaleCookie is the cookie remembering the chosen locale.
const LocaleCookie = "NEXT_LOCALE"

// Locale negotiates the request locale: a supported NEXT_LOCALE cookie wins,
// then the base language of the first Accept-Language tag, then the default.
type Locale struct {
	supported []string
	def       string
}

// NewLocale creates the middleware. The default is added to supported if missing.
func NewLocale(supported []string, def string) *Locale {
	if def == "" {
		def = "en"
	}
	list := []string{def}
	for _, s := range supported {
		if s != def {
			list = append(list, s)
		}
	}

	return &Locale{supported: list, def: def}
}

func (l *Locale) isSupported(s string) bool {
	for _, v := range l.supported {
		if v == s {
			return true
		}
	}
	return false
}

// Negotiate picks the locale for a cookie value and Accept-Language header.
func (l *Locale) Negotiate(cookie, acceptLanguage string) string {
	if l.isSupported(cookie) {
		return cookie
	}
	if acceptLanguage == "" {
		return l.def
	}

	// Only the primary tag counts; weights and later tags are ignored.
	first, _, _ := strings.Cut(acceptLanguage, ",")
	first, _, _ = strings.Cut(first, ";")
	tag, err := language.Parse(strings.TrimSpace(first))
	if err != nil {
		return l.def
	}
	base, confidence := tag.Base()
	if confidence == language.No || !l.isSupported(base.String()) {
		return l.def
	}
	return base.String()
}

// Handler stores the locale in c.Locals("locale") and sets the cookie when absent.
func (l *Locale) Handler(c fiber.Ctx) error {
	cookie := c.Cookies(LocaleCookie)
	locale := l.Negotiate(cookie, c.Get(fiber.HeaderAcceptLanguage))

	if cookie != locale {
		c.Cookie(&fiber.Cookie{
			Name:     LocaleCookie,
			Value:    locale,
			Path:     "/",
			Expires:  time.Now().AddDate(1, 0, 0),
			SameSite: "Lax",
		})
	}

	c.Locals("locale", locale)
	return c.Next()
}

// CurrentLocale returns the negotiated locale, or "en" outside the middleware.
func CurrentLocale(c fiber.Ctx) string {
	if l, ok := c.Locals("locale").(string); ok && l != "" {
		return l
	}
	return "en"
}
