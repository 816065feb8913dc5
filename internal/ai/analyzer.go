package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"fliqk/internal/meta"
	"fliqk/internal/validation"
)

// Analysis output limits.
const (
	MaxTitleRunes       = 80
	MaxDescriptionRunes = 150
	MaxTags             = 5
)

// Analysis is the LLM's description of a page.
type Analysis struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Analyzer describes fetched pages with an LLM.
type Analyzer struct {
	completer Completer
	logger    *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil completer makes every call fall back.
func NewAnalyzer(completer Completer, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{completer: completer, logger: logger}
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
}

func analyzePrompt(url string, md meta.Metadata, body, locale string) string {
	lang, ok := languageNames[locale]
	if !ok {
		lang = "English"
	}
	return fmt.Sprintf(`Analyze this web page and describe it for a personal bookmark.

URL: %s
Page title: %s
Page description: %s
Page text: %s

Respond with raw JSON only, no markdown, in exactly this shape:
{"title": "...", "description": "...", "tags": ["...", "..."]}

Rules:
- title: at most %d characters
- description: at most %d characters, written in %s
- tags: 3 to 5 lowercase single words`,
		url, md.Title, md.Description, body, MaxTitleRunes, MaxDescriptionRunes, lang)
}

// Analyze never fails: on any LLM or parse error it returns the page title with
// an empty description and no tags.
func (a *Analyzer) Analyze(ctx context.Context, url string, page *meta.Page, locale string) Analysis {
	if page == nil {
		page = &meta.Page{URL: url}
	}
	md := meta.Extract(page.HTML, url)
	fallback := Analysis{Title: truncate(md.Title, MaxTitleRunes), Tags: []string{}}

	if a.completer == nil {
		return fallback
	}

	out, err := a.completer.Complete(ctx, analyzePrompt(url, md, meta.BodyText(page.HTML), locale))
	if err != nil {
		a.logger.Warn("analysis completion failed", zap.String("url", url), zap.Error(err))
		return fallback
	}

	var res Analysis
	if err := json.Unmarshal([]byte(stripFence(out)), &res); err != nil {
		a.logger.Warn("analysis response unparseable", zap.String("url", url), zap.Error(err))
		return fallback
	}

	res.Title = truncate(strings.TrimSpace(res.Title), MaxTitleRunes)
	if res.Title == "" {
		res.Title = fallback.Title
	}
	res.Description = truncate(strings.TrimSpace(res.Description), MaxDescriptionRunes)
	res.Tags = validation.NormalizeTags(res.Tags)
	if len(res.Tags) > MaxTags {
		res.Tags = res.Tags[:MaxTags]
	}
	return res
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
