package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteToken is a single-use registration credential that grants a role.
type InviteToken struct {
	ID         uuid.UUID  `json:"id"`
	Token      string     `json:"token"`
	GrantsRole string     `json:"grants_role"`
	Used       bool       `json:"used"`
	UsedBy     *uuid.UUID `json:"used_by"`
	UsedAt     *time.Time `json:"used_at"`
	CreatedBy  *uuid.UUID `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`

	// Populated via JOIN for display
	UsedByNickname string `json:"used_by_nickname,omitempty"`
}

// IsConsumed reports whether the token has been redeemed.
func (t *InviteToken) IsConsumed() bool {
	return t.Used && t.UsedBy != nil && t.UsedAt != nil
}
