package composer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fliqk/internal/models"
	"fliqk/internal/share"
)

// followUpTimeout bounds the background work that runs after a share.
const followUpTimeout = 10 * time.Second

// PostStore is the persistence the composer needs.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (bool, error)
	MarkPostSent(ctx context.Context, userID, id uuid.UUID) error
	AssignCollectionByName(ctx context.Context, userID, postID uuid.UUID, name string) (bool, error)
}

// ShareOptions are the user's choices in the share dialog.
type ShareOptions struct {
	IncludeTitle   bool `json:"include_title"`
	IncludePreview bool `json:"include_preview"`
}

// Service persists and shares drafts.
type Service struct {
	store  PostStore
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewService creates a composer service.
func NewService(store PostStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// persist creates the draft's post once. Repeats, including from another tab
// holding the same client key, resolve to the same row.
func (s *Service) persist(ctx context.Context, userID uuid.UUID, d *Draft) (uuid.UUID, error) {
	if d.PostID != nil {
		return *d.PostID, nil
	}

	post := d.Post(userID)
	created, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return uuid.Nil, err
	}
	if !created {
		s.logger.Debug("draft already persisted", zap.String("post_id", post.ID.String()))
	}
	d.PostID = &post.ID
	return post.ID, nil
}

// SaveForLater stores a previewed draft as an unsent post.
func (s *Service) SaveForLater(ctx context.Context, userID uuid.UUID, d *Draft) error {
	if d.State != StatePreviewing && d.State != StateSaved {
		return ErrInvalidTransition
	}
	if _, err := s.persist(ctx, userID, d); err != nil {
		return err
	}
	d.State = StateSaved
	return nil
}

// Share persists the draft if needed and returns the payload for platform.
// Marking the post sent and filing it into a collection happen in the
// background; their failures are logged and never reach the caller.
func (s *Service) Share(ctx context.Context, userID uuid.UUID, d *Draft, platform string, opts ShareOptions) (share.Payload, error) {
	switch d.State {
	case StatePreviewing, StateSaved, StateShared:
	default:
		return share.Payload{}, ErrInvalidTransition
	}

	postID, err := s.persist(ctx, userID, d)
	if err != nil {
		return share.Payload{}, err
	}

	payload := share.BuildPayload(platform, share.Input{
		Description:    d.Description,
		Title:          d.Title,
		IncludeTitle:   opts.IncludeTitle,
		URL:            d.URL,
		IsLink:         d.PostType == models.PostTypeLink,
		IncludePreview: opts.IncludePreview,
	})

	var firstTag string
	if len(d.Tags) > 0 {
		firstTag = d.Tags[0]
	}
	s.afterShare(ctx, userID, postID, firstTag)

	d.State = StateShared
	return payload, nil
}

func (s *Service) afterShare(ctx context.Context, userID, postID uuid.UUID, firstTag string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		logger := s.logger.With(zap.String("post_id", postID.String()))

		if err := s.store.MarkPostSent(ctx, userID, postID); err != nil {
			logger.Error("failed to mark post sent", zap.Error(err))
		}

		if firstTag == "" {
			return
		}
		assigned, err := s.store.AssignCollectionByName(ctx, userID, postID, firstTag)
		if err != nil {
			logger.Error("failed to auto-assign collection", zap.String("tag", firstTag), zap.Error(err))
			return
		}
		if assigned {
			logger.Debug("post filed into collection", zap.String("collection", firstTag))
		}
	}()
}

// Wait blocks until background share work has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
