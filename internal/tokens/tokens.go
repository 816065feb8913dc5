// Package tokens generates invite tokens.
package tokens

import (
	"context"
	"errors"
	"math/rand/v2"

	"fliqk/internal/db"
	"fliqk/internal/models"
)

// Alphabet leaves out look-alike characters (I, O, l, o, 0, 1).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789!@#$%&*"

// Length is the number of characters in a token.
const Length = 6

// MaxBatch caps how many tokens one request may create.
const MaxBatch = 100

const maxAttempts = 5

// Generate returns a random token. It is not cryptographically secure.
func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}

// Store persists tokens.
type Store interface {
	CreateInviteToken(ctx context.Context, token *models.InviteToken) error
}

// CreateBatch generates and stores n tokens granting role. A collision with an
// existing token is retried with a fresh value.
func CreateBatch(ctx context.Context, store Store, n int, role string, createdBy *models.User) ([]models.InviteToken, error) {
	if n < 1 {
		n = 1
	}
	if n > MaxBatch {
		n = MaxBatch
	}

	created := make([]models.InviteToken, 0, n)
	for i := 0; i < n; i++ {
		t := models.InviteToken{GrantsRole: role}
		if createdBy != nil {
			t.CreatedBy = &createdBy.ID
		}

		var err error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			t.Token = Generate()
			err = store.CreateInviteToken(ctx, &t)
			if !errors.Is(err, db.ErrDuplicateToken) {
				break
			}
		}
		if err != nil {
			return created, err
		}
		created = append(created, t)
	}
	return created, nil
}
