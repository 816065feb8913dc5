package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"fliqk/internal/models"
)

func strPtr(s string) *string { return &s }

func TestCreatePost_Defaults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "gina")

	post := &models.Post{
		UserID:   user.ID,
		PostType: models.PostTypeLink,
		URL:      strPtr("https://example.com"),
		Title:    "Example Domain",
		Tags:     []string{"web", "example"},
	}
	created, err := db.CreatePost(ctx, post)
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if !created {
		t.Error("CreatePost() created = false, want true")
	}
	if post.ID == uuid.Nil {
		t.Error("CreatePost() did not set ID")
	}
	if post.Status != models.StatusDraft {
		t.Errorf("CreatePost() status = %q, want %q", post.Status, models.StatusDraft)
	}
	if post.ThumbnailType != models.ThumbnailOriginal {
		t.Errorf("CreatePost() thumbnail_type = %q, want %q", post.ThumbnailType, models.ThumbnailOriginal)
	}
	if len(post.Tags) != 2 || post.Tags[0] != "web" {
		t.Errorf("CreatePost() tags = %v, want [web example]", post.Tags)
	}
}

func TestCreatePost_LinkRequiresURL(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := registerTestUser(t, db, "hugo")

	_, err := db.CreatePost(context.Background(), &models.Post{UserID: user.ID, PostType: models.PostTypeLink, Title: "no url"})
	if err == nil {
		t.Error("CreatePost() link without url succeeded, want constraint error")
	}
}

func TestCreatePost_IdempotentByClientKey(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "ines")
	key := uuid.New()

	first := &models.Post{UserID: user.ID, PostType: models.PostTypeText, Title: "note", ClientKey: &key}
	if _, err := db.CreatePost(ctx, first); err != nil {
		t.Fatalf("CreatePost() first error = %v", err)
	}

	second := &models.Post{UserID: user.ID, PostType: models.PostTypeText, Title: "note again", ClientKey: &key}
	created, err := db.CreatePost(ctx, second)
	if err != nil {
		t.Fatalf("CreatePost() second error = %v", err)
	}
	if created {
		t.Error("CreatePost() second created = true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("CreatePost() second id = %v, want %v", second.ID, first.ID)
	}
	if second.Title != "note" {
		t.Errorf("CreatePost() second title = %q, want stored %q", second.Title, "note")
	}

	posts, err := db.ListPosts(ctx, user.ID, models.PostFilter{})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("ListPosts() len = %d, want 1", len(posts))
	}
}

func TestMarkPostSent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "juan")

	post := &models.Post{UserID: user.ID, PostType: models.PostTypeText, Title: "hi"}
	if _, err := db.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	if err := db.MarkPostSent(ctx, user.ID, post.ID); err != nil {
		t.Fatalf("MarkPostSent() error = %v", err)
	}
	sent, err := db.GetPostByID(ctx, user.ID, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID() error = %v", err)
	}
	if sent.Status != models.StatusSent || sent.SentAt == nil {
		t.Fatalf("MarkPostSent() status = %q sent_at = %v", sent.Status, sent.SentAt)
	}
	firstSentAt := *sent.SentAt

	// Sharing again keeps the original timestamp
	if err := db.MarkPostSent(ctx, user.ID, post.ID); err != nil {
		t.Fatalf("MarkPostSent() again error = %v", err)
	}
	again, _ := db.GetPostByID(ctx, user.ID, post.ID)
	if !again.SentAt.Equal(firstSentAt) {
		t.Errorf("MarkPostSent() sent_at moved from %v to %v", firstSentAt, again.SentAt)
	}

	if err := db.MarkPostSent(ctx, uuid.New(), post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("MarkPostSent() other user error = %v, want ErrPostNotFound", err)
	}
}

func TestListPosts_Filters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "karen")

	posts := []*models.Post{
		{UserID: user.ID, PostType: models.PostTypeLink, URL: strPtr("https://go.dev"), Title: "Go", Tags: []string{"golang"}},
		{UserID: user.ID, PostType: models.PostTypeText, Title: "Shopping list", Tags: []string{"home"}},
		{UserID: user.ID, PostType: models.PostTypeLink, URL: strPtr("https://postgresql.org"), Title: "Postgres", Tags: []string{"db", "golang"}},
	}
	for _, p := range posts {
		if _, err := db.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost() error = %v", err)
		}
	}
	if err := db.MarkPostSent(ctx, user.ID, posts[0].ID); err != nil {
		t.Fatalf("MarkPostSent() error = %v", err)
	}

	tests := []struct {
		name   string
		filter models.PostFilter
		want   int
	}{
		{"all", models.PostFilter{}, 3},
		{"links", models.PostFilter{PostType: models.PostTypeLink}, 2},
		{"sent", models.PostFilter{Status: models.StatusSent}, 1},
		{"tag", models.PostFilter{Tag: "golang"}, 2},
		{"query", models.PostFilter{Query: "shopping"}, 1},
		{"limit", models.PostFilter{Limit: 1}, 1},
		{"future", models.PostFilter{Since: timePtr(time.Now().Add(time.Hour))}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListPosts(ctx, user.ID, tt.filter)
			if err != nil {
				t.Fatalf("ListPosts() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListPosts(%+v) len = %d, want %d", tt.filter, len(got), tt.want)
			}
		})
	}

	alpha, err := db.ListPosts(ctx, user.ID, models.PostFilter{Sort: models.SortAlpha})
	if err != nil {
		t.Fatalf("ListPosts() alpha error = %v", err)
	}
	if alpha[0].Title != "Go" || alpha[2].Title != "Shopping list" {
		t.Errorf("ListPosts() alpha order = %q, %q, %q", alpha[0].Title, alpha[1].Title, alpha[2].Title)
	}

	tags, err := db.ListTags(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListTags() error = %v", err)
	}
	if len(tags) != 3 || tags[0].Tag != "golang" || tags[0].Count != 2 {
		t.Errorf("ListTags() = %+v, want golang first with 2", tags)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestAssignCollectionByName(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "lola")

	music := &models.Collection{UserID: user.ID, Name: "Music"}
	if err := db.CreateCollection(ctx, music); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	post := &models.Post{UserID: user.ID, PostType: models.PostTypeText, Title: "song", Tags: []string{"music"}}
	if _, err := db.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	ok, err := db.AssignCollectionByName(ctx, user.ID, post.ID, "music")
	if err != nil {
		t.Fatalf("AssignCollectionByName() error = %v", err)
	}
	if !ok {
		t.Fatal("AssignCollectionByName() = false, want true")
	}
	got, _ := db.GetPostByID(ctx, user.ID, post.ID)
	if got.CollectionID == nil || *got.CollectionID != music.ID {
		t.Errorf("collection_id = %v, want %v", got.CollectionID, music.ID)
	}

	ok, err = db.AssignCollectionByName(ctx, user.ID, post.ID, "podcasts")
	if err != nil {
		t.Fatalf("AssignCollectionByName() missing error = %v", err)
	}
	if ok {
		t.Error("AssignCollectionByName() missing collection = true, want false")
	}
}

func TestIncrementClickCount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "mara")

	link := &models.Post{UserID: user.ID, PostType: models.PostTypeLink, URL: strPtr("https://example.com"), Title: "x"}
	text := &models.Post{UserID: user.ID, PostType: models.PostTypeText, Title: "y"}
	for _, p := range []*models.Post{link, text} {
		if _, err := db.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost() error = %v", err)
		}
	}

	url, err := db.IncrementClickCount(ctx, user.ID, link.ID)
	if err != nil {
		t.Fatalf("IncrementClickCount() error = %v", err)
	}
	if url != "https://example.com" {
		t.Errorf("IncrementClickCount() url = %q", url)
	}

	if _, err := db.IncrementClickCount(ctx, user.ID, text.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("IncrementClickCount() text post error = %v, want ErrPostNotFound", err)
	}
}

func TestThumbnailRefreshQueries(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "nico")

	post := &models.Post{UserID: user.ID, PostType: models.PostTypeLink, URL: strPtr("https://example.com"), Title: "x"}
	if _, err := db.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	missing, err := db.GetLinkPostsNeedingThumbnail(ctx, time.Hour, 10)
	if err != nil {
		t.Fatalf("GetLinkPostsNeedingThumbnail() error = %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("GetLinkPostsNeedingThumbnail() len = %d, want 1", len(missing))
	}

	if err := db.MarkThumbnailChecked(ctx, post.ID); err != nil {
		t.Fatalf("MarkThumbnailChecked() error = %v", err)
	}
	missing, _ = db.GetLinkPostsNeedingThumbnail(ctx, time.Hour, 10)
	if len(missing) != 0 {
		t.Errorf("GetLinkPostsNeedingThumbnail() after check len = %d, want 0", len(missing))
	}

	// A check older than maxAge makes the post due again
	if _, err := db.Pool.Exec(ctx, `UPDATE posts SET thumbnail_checked_at = NOW() - INTERVAL '2 hours' WHERE id = $1`, post.ID); err != nil {
		t.Fatalf("backdate thumbnail_checked_at: %v", err)
	}
	missing, _ = db.GetLinkPostsNeedingThumbnail(ctx, time.Hour, 10)
	if len(missing) != 1 {
		t.Errorf("GetLinkPostsNeedingThumbnail() after maxAge len = %d, want 1", len(missing))
	}

	if err := db.SetPostThumbnail(ctx, post.ID, "https://example.com/og.png"); err != nil {
		t.Fatalf("SetPostThumbnail() error = %v", err)
	}
	missing, _ = db.GetLinkPostsNeedingThumbnail(ctx, 0, 10)
	if len(missing) != 0 {
		t.Errorf("GetLinkPostsNeedingThumbnail() after set len = %d, want 0", len(missing))
	}

	if err := db.MarkThumbnailChecked(ctx, uuid.New()); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("MarkThumbnailChecked() unknown id error = %v, want ErrPostNotFound", err)
	}

	counts, err := db.CountPostsByTypeAndStatus(ctx)
	if err != nil {
		t.Fatalf("CountPostsByTypeAndStatus() error = %v", err)
	}
	if len(counts) != 1 || counts[0].Count != 1 {
		t.Errorf("CountPostsByTypeAndStatus() = %+v", counts)
	}
}

func TestCreatePost_CollectionMustBelongToUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	owner := registerTestUser(t, db, "olga")
	other := registerTestUser(t, db, "pablo")

	col := &models.Collection{UserID: owner.ID, Name: "Reading"}
	if err := db.CreateCollection(ctx, col); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}

	foreign := &models.Post{UserID: other.ID, PostType: models.PostTypeText, Title: "hi", CollectionID: &col.ID}
	if _, err := db.CreatePost(ctx, foreign); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("CreatePost() foreign collection error = %v, want ErrCollectionNotFound", err)
	}
	posts, _ := db.ListPosts(ctx, other.ID, models.PostFilter{})
	if len(posts) != 0 {
		t.Errorf("ListPosts() len = %d, want 0", len(posts))
	}

	own := &models.Post{UserID: owner.ID, PostType: models.PostTypeText, Title: "mine", CollectionID: &col.ID}
	if _, err := db.CreatePost(ctx, own); err != nil {
		t.Fatalf("CreatePost() own collection error = %v", err)
	}
	if own.CollectionID == nil || *own.CollectionID != col.ID {
		t.Errorf("CreatePost() collection_id = %v, want %v", own.CollectionID, col.ID)
	}
}

func TestCreatePost_SentSetsSentAt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "quim")

	sent := &models.Post{UserID: user.ID, PostType: models.PostTypeText, Title: "out", Status: models.StatusSent}
	if _, err := db.CreatePost(ctx, sent); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if sent.SentAt == nil {
		t.Error("CreatePost() sent post has no sent_at")
	}

	draft := &models.Post{UserID: user.ID, PostType: models.PostTypeText, Title: "later"}
	if _, err := db.CreatePost(ctx, draft); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if draft.SentAt != nil {
		t.Errorf("CreatePost() draft sent_at = %v, want nil", draft.SentAt)
	}
}
