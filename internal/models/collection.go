package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a user-defined group of posts.
type Collection struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Emoji     string    `json:"emoji"`
	Color     string    `json:"color"`
	ItemCount int       `json:"item_count"` // Derived, not stored
	CreatedAt time.Time `json:"created_at"`
}

// TagCount is a tag with the number of posts carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
