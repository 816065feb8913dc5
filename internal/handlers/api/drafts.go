package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"fliqk/internal/composer"
)

// sessionDraftKey is the session key holding the composer draft as JSON.
const sessionDraftKey = "composer_draft"

// ErrNoDraft is returned when the session holds no draft.
var ErrNoDraft = errors.New("no draft in progress")

// DraftStore keeps the user's in-progress draft between requests.
type DraftStore interface {
	Load(c fiber.Ctx) (*composer.Draft, error)
	Save(c fiber.Ctx, d *composer.Draft) error
	Clear(c fiber.Ctx) error
}

// SessionDrafts stores drafts in the fiber session.
type SessionDrafts struct{}

func (SessionDrafts) session(c fiber.Ctx) (*session.Middleware, error) {
	sess := session.FromContext(c)
	if sess == nil {
		return nil, errors.New("session middleware not installed")
	}
	return sess, nil
}

// Load returns the session's draft or ErrNoDraft.
func (s SessionDrafts) Load(c fiber.Ctx) (*composer.Draft, error) {
	sess, err := s.session(c)
	if err != nil {
		return nil, err
	}
	raw, ok := sess.Get(sessionDraftKey).(string)
	if !ok || raw == "" {
		return nil, ErrNoDraft
	}

	var d composer.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		sess.Delete(sessionDraftKey)
		return nil, ErrNoDraft
	}
	return &d, nil
}

// Save writes d to the session.
func (s SessionDrafts) Save(c fiber.Ctx, d *composer.Draft) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	sess.Set(sessionDraftKey, string(b))
	return nil
}

// Clear drops the session's draft.
func (s SessionDrafts) Clear(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	sess.Delete(sessionDraftKey)
	return nil
}
