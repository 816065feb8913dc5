package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleUser   = "user"
	RoleTester = "tester"
	RoleAdmin  = "admin"
)

// Preference values
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	SortNewest      = "newest"
	SortOldest      = "oldest"
	SortMostClicked = "most_clicked"
	SortAlpha       = "alpha"
)

// Preferences are per-user UI settings, stored as JSONB.
type Preferences struct {
	Theme  string `json:"theme"`
	Locale string `json:"locale"`
	Sort   string `json:"sort"`
}

// User is a registered fliqk account.
type User struct {
	ID          uuid.UUID   `json:"id"`
	Nickname    string      `json:"nickname"`
	Role        string      `json:"role"`      // admin, tester, user
	DeviceID    *string     `json:"-"`         // Bound on first login, cleared by admin reset
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsAdmin returns true if the user is an admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsTester returns true for testers and admins.
func (u *User) IsTester() bool {
	return u.Role == RoleTester || u.Role == RoleAdmin
}

// HasDevice reports whether the account is bound to a device.
func (u *User) HasDevice() bool {
	return u.DeviceID != nil && *u.DeviceID != ""
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleTester, RoleAdmin:
		return true
	}
	return false
}

// Normalize fills missing preference fields with defaults and drops unknown values.
func (p Preferences) Normalize(defaultLocale string) Preferences {
	switch p.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		p.Theme = ThemeSystem
	}
	switch p.Sort {
	case SortNewest, SortOldest, SortMostClicked, SortAlpha:
	default:
		p.Sort = SortNewest
	}
	if p.Locale == "" {
		p.Locale = defaultLocale
	}
	return p
}
