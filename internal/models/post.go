package models

import (
	"time"

	"github.com/google/uuid"
)

// Post type constants
const (
	PostTypeLink  = "link"
	PostTypeImage = "image"
	PostTypeAudio = "audio"
	PostTypeVideo = "video"
	PostTypeText  = "text"
)

// Post status constants
const (
	StatusDraft = "draft"
	StatusSent  = "sent"
)

// Thumbnail strategy constants
const (
	ThumbnailOriginal = "original"
	ThumbnailCustom   = "custom"
	ThumbnailEmoji    = "emoji"
)

// Post is a saved content item.
type Post struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	PostType        string     `json:"post_type"`
	URL             *string    `json:"url"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Thumbnail       *string    `json:"thumbnail"`
	CustomThumbnail *string    `json:"custom_thumbnail"`
	ThumbnailType   string     `json:"thumbnail_type"`
	Emoji           *string    `json:"emoji"`
	MediaURL        *string    `json:"media_url"`
	MediaType       *string    `json:"media_type"`
	Tags            []string   `json:"tags"`
	Status          string     `json:"status"`
	ClickCount      int64      `json:"click_count"`
	CollectionID    *uuid.UUID `json:"collection_id"`
	ClientKey       *uuid.UUID `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	SentAt          *time.Time `json:"sent_at"`
}

// IsLink returns true for link posts.
func (p *Post) IsLink() bool {
	return p.PostType == PostTypeLink
}

// IsMedia returns true for image, audio and video posts.
func (p *Post) IsMedia() bool {
	return p.PostType == PostTypeImage || p.PostType == PostTypeAudio || p.PostType == PostTypeVideo
}

// IsDraft returns true if the post has not been shared yet.
func (p *Post) IsDraft() bool {
	return p.Status == StatusDraft
}

// ExternalURL returns the URL a card may open or copy. Only link posts have one.
func (p *Post) ExternalURL() string {
	if !p.IsLink() || p.URL == nil {
		return ""
	}
	return *p.URL
}

// DisplayThumbnail resolves the thumbnail to show for the chosen strategy.
func (p *Post) DisplayThumbnail() string {
	switch p.ThumbnailType {
	case ThumbnailCustom:
		if p.CustomThumbnail != nil {
			return *p.CustomThumbnail
		}
	case ThumbnailEmoji:
		return ""
	}
	if p.Thumbnail != nil {
		return *p.Thumbnail
	}
	return ""
}

// IsValidPostType reports whether t is a known post type.
func IsValidPostType(t string) bool {
	switch t {
	case PostTypeLink, PostTypeImage, PostTypeAudio, PostTypeVideo, PostTypeText:
		return true
	}
	return false
}

// IsValidThumbnailType reports whether t is a known thumbnail strategy.
func IsValidThumbnailType(t string) bool {
	switch t {
	case ThumbnailOriginal, ThumbnailCustom, ThumbnailEmoji:
		return true
	}
	return false
}

// PostFilter narrows post listings.
type PostFilter struct {
	Status       string
	PostType     string
	Tag          string
	CollectionID *uuid.UUID
	Query        string
	Sort         string
	Since        *time.Time
	Limit        int
}
