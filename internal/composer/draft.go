// Package composer holds the post composer state machine.
package composer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fliqk/internal/models"
	"fliqk/internal/validation"
)

// State is a composer step.
type State string

// Composer states. editing -> previewing -> saved | shared.
const (
	StateEditing    State = "editing"
	StatePreviewing State = "previewing"
	StateSaved      State = "saved"
	StateShared     State = "shared"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in the current composer state")
	ErrIncomplete        = errors.New("post is missing required fields")
	ErrInvalidPostType   = errors.New("invalid post type")
	ErrInvalidURL        = errors.New("invalid URL")
	ErrInvalidThumbnail  = errors.New("invalid thumbnail type")
)

// Fields are the editable parts of a post.
type Fields struct {
	PostType        string     `json:"post_type"`
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Tags            []string   `json:"tags"`
	Thumbnail       string     `json:"thumbnail"`
	ThumbnailType   string     `json:"thumbnail_type"`
	CustomThumbnail string     `json:"custom_thumbnail"`
	Emoji           string     `json:"emoji"`
	MediaURL        string     `json:"media_url"`
	MediaType       string     `json:"media_type"`
	CollectionID    *uuid.UUID `json:"collection_id"`
}

// Draft is an in-progress post. It is stored in the user's session between requests.
type Draft struct {
	Fields
	State     State      `json:"state"`
	ClientKey uuid.UUID  `json:"client_key"`
	PostID    *uuid.UUID `json:"post_id,omitempty"`
}

// New starts a draft of postType in the editing state.
func New(postType string) (*Draft, error) {
	if postType == "" {
		postType = models.PostTypeLink
	}
	if !models.IsValidPostType(postType) {
		return nil, ErrInvalidPostType
	}
	return &Draft{
		Fields:    Fields{PostType: postType, ThumbnailType: models.ThumbnailOriginal, Tags: []string{}},
		State:     StateEditing,
		ClientKey: uuid.New(),
	}, nil
}

// Update replaces the draft's fields. From previewing it returns to editing.
func (d *Draft) Update(f Fields) error {
	if d.State != StateEditing && d.State != StatePreviewing {
		return ErrInvalidTransition
	}
	if f.PostType == "" {
		f.PostType = d.PostType
	}
	if !models.IsValidPostType(f.PostType) {
		return ErrInvalidPostType
	}
	if f.ThumbnailType == "" {
		f.ThumbnailType = models.ThumbnailOriginal
	}
	if !models.IsValidThumbnailType(f.ThumbnailType) {
		return fmt.Errorf("%w %q", ErrInvalidThumbnail, f.ThumbnailType)
	}
	f.Tags = validation.NormalizeTags(f.Tags)

	d.Fields = f
	d.State = StateEditing
	return nil
}

// CanPreview reports whether f has what its post type requires.
func CanPreview(f Fields) bool {
	title := strings.TrimSpace(f.Title)
	switch f.PostType {
	case models.PostTypeLink:
		return strings.TrimSpace(f.URL) != "" && title != ""
	case models.PostTypeImage, models.PostTypeAudio, models.PostTypeVideo:
		return strings.TrimSpace(f.MediaURL) != "" && title != ""
	case models.PostTypeText:
		return title != "" || strings.TrimSpace(f.Description) != ""
	}
	return false
}

// Preview moves an editing draft to previewing. Link URLs get a scheme.
func (d *Draft) Preview() error {
	if d.State != StateEditing {
		return ErrInvalidTransition
	}
	if !CanPreview(d.Fields) {
		return ErrIncomplete
	}
	if d.PostType == models.PostTypeLink {
		u := validation.NormalizeURL(d.URL)
		if valid, _ := validation.ValidateURL(u); !valid {
			return ErrInvalidURL
		}
		d.URL = u
	}
	d.State = StatePreviewing
	return nil
}

// Edit returns a previewing draft to editing.
func (d *Draft) Edit() error {
	if d.State != StatePreviewing {
		return ErrInvalidTransition
	}
	d.State = StateEditing
	return nil
}

// Post converts the draft into a post row for userID.
func (d *Draft) Post(userID uuid.UUID) *models.Post {
	key := d.ClientKey
	p := &models.Post{
		UserID:        userID,
		PostType:      d.PostType,
		Title:         strings.TrimSpace(d.Title),
		Description:   strings.TrimSpace(d.Description),
		Tags:          validation.NormalizeTags(d.Tags),
		ThumbnailType: d.ThumbnailType,
		Status:        models.StatusDraft,
		CollectionID:  d.CollectionID,
		ClientKey:     &key,
	}
	if d.PostType == models.PostTypeLink {
		u := validation.NormalizeURL(d.URL)
		p.URL = &u
	}
	p.Thumbnail = optional(d.Thumbnail)
	p.CustomThumbnail = optional(d.CustomThumbnail)
	p.Emoji = optional(d.Emoji)
	p.MediaURL = optional(d.MediaURL)
	p.MediaType = optional(d.MediaType)
	return p
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
