// Package export renders a user's posts as a downloadable document.
package export

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/html/v3"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"fliqk/internal/models"
	"fliqk/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// Period selects how far back an export reaches.
type Period string

// Export periods.
const (
	PeriodToday Period = "today"
	Period7d    Period = "7d"
	Period30d   Period = "30d"
	PeriodAll   Period = "all"
)

// Formats an export can be rendered in.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// ParsePeriod validates s. Empty means all.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodToday, Period7d, Period30d, PeriodAll:
		return p, nil
	case "":
		return PeriodAll, nil
	}
	return "", fmt.Errorf("invalid period %q", s)
}

// Since returns the earliest creation time p keeps, or nil for all.
// today starts at midnight in now's location.
func (p Period) Since(now time.Time) *time.Time {
	var t time.Time
	switch p {
	case PeriodToday:
		y, m, d := now.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case Period7d:
		t = now.AddDate(0, 0, -7)
	case Period30d:
		t = now.AddDate(0, 0, -30)
	default:
		return nil
	}
	return &t
}

// FilterByPeriod keeps posts created at or after p.Since(now), in order.
func FilterByPeriod(posts []models.Post, p Period, now time.Time) []models.Post {
	since := p.Since(now)
	out := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if since == nil || !post.CreatedAt.Before(*since) {
			out = append(out, post)
		}
	}
	return out
}

// Document is an export of one user's posts.
type Document struct {
	Owner       string
	Period      Period
	GeneratedAt time.Time
	Posts       []models.Post
}

// Filename is the suggested download name for format.
func (d Document) Filename(format string) string {
	return fmt.Sprintf("fliqk-%s-%s.%s", d.Period, d.GeneratedAt.Format("2006-01-02"), format)
}

type itemView struct {
	Title       string
	URL         string
	Domain      string
	Emoji       string
	Description template.HTML
	Tags        []string
	Date        string
}

type groupView struct {
	Type  string
	Items []itemView
}

type documentView struct {
	Owner       string
	Period      string
	GeneratedAt string
	Count       int
	Groups      []groupView
}

var typeOrder = []string{
	models.PostTypeLink,
	models.PostTypeText,
	models.PostTypeImage,
	models.PostTypeVideo,
	models.PostTypeAudio,
}

// Renderer renders export documents.
type Renderer struct {
	engine   *html.Engine
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRenderer loads the embedded templates.
func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("failed to load export templates: %w", err)
	}
	return &Renderer{
		engine:   engine,
		markdown: goldmark.New(),
		policy:   bluemonday.UGCPolicy(),
	}, nil
}

// RenderHTML writes a self-contained HTML page grouping posts by type.
func (r *Renderer) RenderHTML(w io.Writer, doc Document) error {
	return r.engine.Render(w, "export", r.view(doc))
}

func (r *Renderer) view(doc Document) documentView {
	byType := make(map[string][]itemView)
	for _, p := range doc.Posts {
		byType[p.PostType] = append(byType[p.PostType], r.item(p))
	}

	v := documentView{
		Owner:       doc.Owner,
		Period:      string(doc.Period),
		GeneratedAt: doc.GeneratedAt.Format("2006-01-02 15:04"),
		Count:       len(doc.Posts),
	}
	for _, t := range typeOrder {
		if items := byType[t]; len(items) > 0 {
			v.Groups = append(v.Groups, groupView{Type: t, Items: items})
		}
	}
	return v
}

func (r *Renderer) item(p models.Post) itemView {
	it := itemView{
		Title: p.Title,
		URL:   p.ExternalURL(),
		Tags:  p.Tags,
		Date:  p.CreatedAt.Format("2006-01-02"),
	}
	if it.URL != "" {
		it.Domain = validation.Domain(it.URL)
	}
	if p.ThumbnailType == models.ThumbnailEmoji && p.Emoji != nil {
		it.Emoji = *p.Emoji
	}
	it.Description = r.describe(p)
	return it
}

// describe renders text posts as Markdown; everything is sanitised.
func (r *Renderer) describe(p models.Post) template.HTML {
	if p.Description == "" {
		return ""
	}
	if p.PostType != models.PostTypeText {
		return template.HTML(r.policy.Sanitize(template.HTMLEscapeString(p.Description)))
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(p.Description), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(p.Description))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// RenderJSON writes the document as indented JSON.
func RenderJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Owner       string        `json:"owner"`
		Period      Period        `json:"period"`
		GeneratedAt time.Time     `json:"generated_at"`
		Posts       []models.Post `json:"posts"`
	}{doc.Owner, doc.Period, doc.GeneratedAt, doc.Posts})
}
