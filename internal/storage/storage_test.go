package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	userID := uuid.MustParse("6f1c2a52-6d0c-4d47-9a37-1f5b8e2c9d10")

	tests := []struct {
		filename string
		wantExt  string
	}{
		{"cat.PNG", ".png"},
		{"song.mp3", ".mp3"},
		{"no-extension", ""},
		{"weird.abcdefghijklmnop", ""},
	}

	for _, tt := range tests {
		key := ObjectKey(userID, tt.filename)
		assert.True(t, strings.HasPrefix(key, userID.String()+"/"), "key %q", key)
		assert.True(t, strings.HasSuffix(key, tt.wantExt), "key %q, want ext %q", key, tt.wantExt)
		name := strings.TrimSuffix(strings.TrimPrefix(key, userID.String()+"/"), tt.wantExt)
		_, err := uuid.Parse(name)
		assert.NoError(t, err, "key %q", key)
	}

	assert.NotEqual(t, ObjectKey(userID, "a.png"), ObjectKey(userID, "a.png"))
}

func TestNewMinioStore_PublicURL(t *testing.T) {
	s, err := NewMinioStore(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "media"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/media", s.publicURL)

	s, err = NewMinioStore(Config{Endpoint: "s3.example.com", AccessKey: "a", SecretKey: "b", Bucket: "media", UseSSL: true, PublicURL: "https://cdn.fliqk.to/media/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.fliqk.to/media", s.publicURL)
}
