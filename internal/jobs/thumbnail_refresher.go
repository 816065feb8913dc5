package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fliqk/internal/meta"
	"fliqk/internal/models"
)

const refreshBatchSize = 50

// ThumbnailStore is the persistence the refresher needs.
type ThumbnailStore interface {
	GetLinkPostsNeedingThumbnail(ctx context.Context, maxAge time.Duration, limit int) ([]models.Post, error)
	SetPostThumbnail(ctx context.Context, id uuid.UUID, thumbnail string) error
	MarkThumbnailChecked(ctx context.Context, id uuid.UUID) error
}

// PageFetcher fetches a page by URL.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*meta.Page, error)
}

// ThumbnailRefresher fills in og:image thumbnails for link posts saved without one.
// Each attempt is stamped, so a post that failed waits maxAge before it is tried again.
type ThumbnailRefresher struct {
	store    ThumbnailStore
	fetcher  PageFetcher
	interval time.Duration
	maxAge   time.Duration
	delay    time.Duration
	logger   *zap.Logger
}

// NewThumbnailRefresher creates a new refresher.
func NewThumbnailRefresher(store ThumbnailStore, fetcher PageFetcher, interval, maxAge time.Duration, logger *zap.Logger) *ThumbnailRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThumbnailRefresher{
		store:    store,
		fetcher:  fetcher,
		interval: interval,
		maxAge:   maxAge,
		delay:    time.Second,
		logger:   logger.Named("thumbnails"),
	}
}

// Start runs the refresh loop until ctx is cancelled.
func (r *ThumbnailRefresher) Start(ctx context.Context) {
	r.logger.Info("thumbnail refresher started",
		zap.Duration("interval", r.interval),
		zap.Duration("max_age", r.maxAge),
	)

	// Run immediately on start
	r.RefreshAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("thumbnail refresher stopped")
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll processes one batch and returns how many posts got a thumbnail.
// A post whose page cannot be fetched or has no og:image is only marked as checked.
func (r *ThumbnailRefresher) RefreshAll(ctx context.Context) int {
	posts, err := r.store.GetLinkPostsNeedingThumbnail(ctx, r.maxAge, refreshBatchSize)
	if err != nil {
		r.logger.Error("failed to list posts", zap.Error(err))
		return 0
	}
	if len(posts) == 0 {
		return 0
	}

	r.logger.Debug("refreshing thumbnails", zap.Int("count", len(posts)))

	updated := 0
	for i, post := range posts {
		select {
		case <-ctx.Done():
			return updated
		default:
		}

		if i > 0 && r.delay > 0 {
			time.Sleep(r.delay)
		}

		image := r.thumbnailFor(ctx, post.ExternalURL())
		if image == "" {
			if err := r.store.MarkThumbnailChecked(ctx, post.ID); err != nil {
				r.logger.Error("failed to mark post checked", zap.String("post_id", post.ID.String()), zap.Error(err))
			}
			continue
		}

		if err := r.store.SetPostThumbnail(ctx, post.ID, image); err != nil {
			r.logger.Error("failed to store thumbnail", zap.String("post_id", post.ID.String()), zap.Error(err))
			continue
		}
		updated++
	}
	return updated
}

// thumbnailFor returns the og:image of url, or "" when there is none.
func (r *ThumbnailRefresher) thumbnailFor(ctx context.Context, url string) string {
	page, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.logger.Debug("fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return meta.Extract(page.HTML, url).Image
}
