package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"fliqk/internal/models"
)

func TestRegister_ConsumesToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := db.EnsureInviteToken(ctx, "Ab3$xY", models.RoleTester); err != nil {
		t.Fatalf("EnsureInviteToken() error = %v", err)
	}

	user, err := db.Register(ctx, Registration{
		Nickname:    "ana",
		Token:       "Ab3$xY",
		DeviceID:    "device-1",
		Preferences: models.Preferences{Theme: models.ThemeDark, Locale: "es", Sort: models.SortNewest},
		Collections: []models.Collection{{Name: "Music", Emoji: "🎵", Color: "#ff0000"}},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Role != models.RoleTester {
		t.Errorf("Register() role = %q, want %q", user.Role, models.RoleTester)
	}
	if user.Preferences.Locale != "es" {
		t.Errorf("Register() locale = %q, want %q", user.Preferences.Locale, "es")
	}

	token, err := db.GetInviteToken(ctx, "Ab3$xY")
	if err != nil {
		t.Fatalf("GetInviteToken() error = %v", err)
	}
	if !token.IsConsumed() {
		t.Errorf("token not consumed after Register(): %+v", token)
	}
	if token.UsedBy == nil || *token.UsedBy != user.ID {
		t.Errorf("token.UsedBy = %v, want %v", token.UsedBy, user.ID)
	}
	if token.UsedByNickname != "ana" {
		t.Errorf("token.UsedByNickname = %q, want %q", token.UsedByNickname, "ana")
	}

	collections, err := db.ListCollections(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	if len(collections) != 1 || collections[0].Name != "Music" {
		t.Errorf("starter collections = %+v, want [Music]", collections)
	}
}

func TestRegister_UsedTokenFails(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := db.EnsureInviteToken(ctx, "once12", models.RoleUser); err != nil {
		t.Fatalf("EnsureInviteToken() error = %v", err)
	}
	if _, err := db.Register(ctx, Registration{Nickname: "first", Token: "once12"}); err != nil {
		t.Fatalf("Register() first error = %v", err)
	}

	_, err := db.Register(ctx, Registration{Nickname: "second", Token: "once12"})
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Register() reused token error = %v, want ErrInvalidToken", err)
	}
	if err.Error() != "invalid token" {
		t.Errorf("Register() error message = %q, want %q", err.Error(), "invalid token")
	}

	if _, err := db.GetUserByNickname(ctx, "second"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByNickname(second) error = %v, want ErrUserNotFound", err)
	}
	count, err := db.GetUserCount(ctx)
	if err != nil {
		t.Fatalf("GetUserCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("GetUserCount() = %d, want 1", count)
	}
}

func TestRegister_UnknownToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.Register(context.Background(), Registration{Nickname: "ghost", Token: "nope00"})
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Register() error = %v, want ErrInvalidToken", err)
	}
}

func TestRegister_NicknameTakenKeepsToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, db, "Bruno")

	if _, err := db.EnsureInviteToken(ctx, "spare1", models.RoleUser); err != nil {
		t.Fatalf("EnsureInviteToken() error = %v", err)
	}
	_, err := db.Register(ctx, Registration{Nickname: "bruno", Token: "spare1"})
	if !errors.Is(err, ErrNicknameTaken) {
		t.Fatalf("Register() error = %v, want ErrNicknameTaken", err)
	}

	token, err := db.GetInviteToken(ctx, "spare1")
	if err != nil {
		t.Fatalf("GetInviteToken() error = %v", err)
	}
	if token.Used {
		t.Error("token consumed by a failed registration")
	}
}

func TestBindDevice(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "carla")

	// Same device is accepted
	if err := db.BindDevice(ctx, user.ID, "device-carla"); err != nil {
		t.Fatalf("BindDevice() same device error = %v", err)
	}

	// Another device is rejected
	if err := db.BindDevice(ctx, user.ID, "other"); !errors.Is(err, ErrDeviceMismatch) {
		t.Errorf("BindDevice() other device error = %v, want ErrDeviceMismatch", err)
	}

	// After a reset the next device wins
	if err := db.ResetDevice(ctx, user.ID); err != nil {
		t.Fatalf("ResetDevice() error = %v", err)
	}
	if err := db.BindDevice(ctx, user.ID, "other"); err != nil {
		t.Errorf("BindDevice() after reset error = %v", err)
	}

	if err := db.BindDevice(ctx, uuid.New(), "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("BindDevice() unknown user error = %v, want ErrUserNotFound", err)
	}
}

func TestGetUserByNickname_CaseInsensitive(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := registerTestUser(t, db, "Diego")

	found, err := db.GetUserByNickname(context.Background(), "DIEGO")
	if err != nil {
		t.Fatalf("GetUserByNickname() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("GetUserByNickname() id = %v, want %v", found.ID, user.ID)
	}
}

func TestUpdateUserRole(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "eva")

	if err := db.UpdateUserRole(ctx, user.ID, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateUserRole() error = %v", err)
	}

	updated, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if updated.Role != models.RoleAdmin {
		t.Errorf("UpdateUserRole() role = %q, want %q", updated.Role, models.RoleAdmin)
	}

	if err := db.UpdateUserRole(ctx, uuid.New(), models.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateUserRole() unknown user error = %v, want ErrUserNotFound", err)
	}
}

func TestListUsersWithCounts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user := registerTestUser(t, db, "fede")

	url := "https://example.com"
	if _, err := db.CreatePost(ctx, &models.Post{UserID: user.ID, PostType: models.PostTypeLink, URL: &url, Title: "Example"}); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	users, err := db.ListUsersWithCounts(ctx)
	if err != nil {
		t.Fatalf("ListUsersWithCounts() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("ListUsersWithCounts() len = %d, want 1", len(users))
	}
	if users[0].PostCount != 1 {
		t.Errorf("PostCount = %d, want 1", users[0].PostCount)
	}
	if !users[0].HasDevice {
		t.Error("HasDevice = false, want true")
	}
}

func TestInviteTokens(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	token := &models.InviteToken{Token: "abc234", GrantsRole: models.RoleUser}
	if err := db.CreateInviteToken(ctx, token); err != nil {
		t.Fatalf("CreateInviteToken() error = %v", err)
	}
	if token.ID == uuid.Nil {
		t.Error("CreateInviteToken() did not set ID")
	}

	dup := &models.InviteToken{Token: "abc234", GrantsRole: models.RoleUser}
	if err := db.CreateInviteToken(ctx, dup); !errors.Is(err, ErrDuplicateToken) {
		t.Errorf("CreateInviteToken() duplicate error = %v, want ErrDuplicateToken", err)
	}

	created, err := db.EnsureInviteToken(ctx, "abc234", models.RoleAdmin)
	if err != nil {
		t.Fatalf("EnsureInviteToken() error = %v", err)
	}
	if created {
		t.Error("EnsureInviteToken() created an existing token")
	}

	tokens, err := db.ListInviteTokens(ctx)
	if err != nil {
		t.Fatalf("ListInviteTokens() error = %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("ListInviteTokens() len = %d, want 1", len(tokens))
	}

	if err := db.DeleteUnusedInviteToken(ctx, token.ID); err != nil {
		t.Fatalf("DeleteUnusedInviteToken() error = %v", err)
	}
	if _, err := db.GetInviteToken(ctx, "abc234"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("GetInviteToken() after delete error = %v, want ErrTokenNotFound", err)
	}
}

func TestDeleteUser_RemovesRedeemedToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := db.EnsureInviteToken(ctx, "Del9$k", models.RoleUser); err != nil {
		t.Fatalf("EnsureInviteToken() error = %v", err)
	}
	user, err := db.Register(ctx, Registration{Nickname: "rosa", Token: "Del9$k", DeviceID: "device-rosa"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := db.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	var orphaned int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM invite_tokens WHERE used AND used_by IS NULL`).Scan(&orphaned); err != nil {
		t.Fatalf("count orphaned tokens: %v", err)
	}
	if orphaned != 0 {
		t.Errorf("used tokens without redeemer = %d, want 0", orphaned)
	}
	if _, err := db.GetInviteToken(ctx, "Del9$k"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("GetInviteToken() after DeleteUser error = %v, want ErrTokenNotFound", err)
	}

	// A consumed token must name its redeemer
	if _, err := db.EnsureInviteToken(ctx, "Chk7$m", models.RoleUser); err != nil {
		t.Fatalf("EnsureInviteToken() error = %v", err)
	}
	if _, err := db.Pool.Exec(ctx, `UPDATE invite_tokens SET used = TRUE, used_at = NOW() WHERE token = $1`, "Chk7$m"); err == nil {
		t.Error("marking a token used without used_by succeeded, want check violation")
	}
}
