package meta

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxBodyText is the rune budget for page text handed to the analyzer.
const MaxBodyText = 3000

// Metadata is the preview information of a page.
type Metadata struct {
	Title       string
	Description string
	Image       string
}

var (
	titleTag    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleBlock  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	whitespace  = regexp.MustCompile(`\s+`)

	textPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)
)

// metaPatterns matches <meta attr="key" content="..."> in either attribute order.
func metaPatterns(attr, key string) []*regexp.Regexp {
	k := regexp.QuoteMeta(key)
	return []*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta[^>]+` + attr + `\s*=\s*["']` + k + `["'][^>]*content\s*=\s*"([^"]*)"`),
		regexp.MustCompile(`(?is)<meta[^>]+` + attr + `\s*=\s*["']` + k + `["'][^>]*content\s*=\s*'([^']*)'`),
		regexp.MustCompile(`(?is)<meta[^>]+content\s*=\s*"([^"]*)"[^>]*` + attr + `\s*=\s*["']` + k + `["']`),
		regexp.MustCompile(`(?is)<meta[^>]+content\s*=\s*'([^']*)'[^>]*` + attr + `\s*=\s*["']` + k + `["']`),
	}
}

var (
	ogTitle       = metaPatterns("property", "og:title")
	ogDescription = metaPatterns("property", "og:description")
	ogImage       = metaPatterns("property", "og:image")
	metaDesc      = metaPatterns("name", "description")
)

func firstMatch(doc string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(doc); m != nil {
			if v := clean(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

func clean(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(html.UnescapeString(s), " "))
}

// Extract reads title, description and image from doc.
// Title falls back to <title> then pageURL; description to the description meta tag.
func Extract(doc, pageURL string) Metadata {
	md := Metadata{
		Title:       firstMatch(doc, ogTitle),
		Description: firstMatch(doc, ogDescription),
		Image:       firstMatch(doc, ogImage),
	}

	if md.Title == "" {
		if m := titleTag.FindStringSubmatch(doc); m != nil {
			md.Title = clean(m[1])
		}
	}
	if md.Title == "" {
		md.Title = pageURL
	}
	if md.Description == "" {
		md.Description = firstMatch(doc, metaDesc)
	}

	return md
}

// BodyText returns the visible text of doc, whitespace-collapsed and truncated.
func BodyText(doc string) string {
	doc = scriptBlock.ReplaceAllString(doc, " ")
	doc = styleBlock.ReplaceAllString(doc, " ")
	text := clean(textPolicy.Sanitize(doc))
	return truncateRunes(text, MaxBodyText)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
