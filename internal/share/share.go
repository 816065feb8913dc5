// Package share formats post text for sharing and builds platform deep links.
package share

import (
	"net/url"
	"strings"

	"fliqk/internal/validation"
)

// Branding is appended to every shared text exactly once.
const (
	Branding    = "shared via [[fliqk.to]]"
	BrandingURL = "https://fliqk.to"
)

// Platforms a post can be shared to.
const (
	PlatformWhatsApp  = "whatsapp"
	PlatformTelegram  = "telegram"
	PlatformNative    = "native"
	PlatformClipboard = "clipboard"
)

// IsValidPlatform reports whether p is a known share target.
func IsValidPlatform(p string) bool {
	switch p {
	case PlatformWhatsApp, PlatformTelegram, PlatformNative, PlatformClipboard:
		return true
	}
	return false
}

// Input is everything Format needs from a post and the share options.
type Input struct {
	Description    string
	Title          string
	IncludeTitle   bool
	URL            string
	IsLink         bool
	IncludePreview bool
}

// Format builds the share text. The result depends only on in.
func Format(in Input) string {
	var b strings.Builder

	title := strings.TrimSpace(in.Title)
	if in.IncludeTitle && title != "" {
		b.WriteString(title)
	}

	desc := stripBranding(in.Description)
	if desc != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(desc)
	}

	if in.IsLink && in.URL != "" {
		if in.IncludePreview {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(in.URL)
		} else if domain := validation.Domain(in.URL); domain != "" {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString("[" + domain + "]")
		}
	}

	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(Branding)
	return b.String()
}

// stripBranding trims s and removes any branding suffix it already carries.
func stripBranding(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, Branding) {
		s = strings.TrimSpace(strings.TrimSuffix(s, Branding))
	}
	return s
}

// WhatsAppURL returns the wa.me deep link for text.
func WhatsAppURL(text string) string {
	return "https://wa.me/?text=" + url.QueryEscape(text)
}

// TelegramURL returns the t.me share link. link is the post URL for link posts
// shared with a preview, otherwise the fliqk homepage.
func TelegramURL(link, text string) string {
	if link == "" {
		link = BrandingURL
	}
	return "https://t.me/share/url?url=" + url.QueryEscape(link) + "&text=" + url.QueryEscape(text)
}

// Payload is what a client needs to complete a share on one platform.
type Payload struct {
	Platform string `json:"platform"`
	Text     string `json:"text"`
	URL      string `json:"url,omitempty"`   // Deep link for WhatsApp and Telegram, link for native share
	Title    string `json:"title,omitempty"` // Native share only
}

// BuildPayload formats in and wraps it for platform.
func BuildPayload(platform string, in Input) Payload {
	text := Format(in)
	p := Payload{Platform: platform, Text: text}

	var link string
	if in.IsLink && in.IncludePreview {
		link = in.URL
	}

	switch platform {
	case PlatformWhatsApp:
		p.URL = WhatsAppURL(text)
	case PlatformTelegram:
		p.URL = TelegramURL(link, text)
	case PlatformNative:
		p.Title = strings.TrimSpace(in.Title)
		p.URL = link
	}
	return p
}
