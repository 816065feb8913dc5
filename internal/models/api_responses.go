package models

// AnalyzeResponse is the body of POST /api/analyze.
type AnalyzeResponse struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Thumbnail   *string  `json:"thumbnail"`
}

// MetaResponse is the body of GET /api/meta.
type MetaResponse struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
}

// SuggestResponse is the body of POST /api/suggest-domains.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// CodeDomainNotFound is the error code that makes clients offer domain suggestions.
const CodeDomainNotFound = "DOMAIN_NOT_FOUND"

// ErrorResponse is an error body carrying a machine-readable code.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// UploadResponse is returned after a media upload.
type UploadResponse struct {
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
}

// UserSummary is an admin listing row.
type UserSummary struct {
	User
	HasDevice bool `json:"has_device"`
	PostCount int  `json:"post_count"`
}
