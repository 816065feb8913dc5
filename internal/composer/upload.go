package composer

import (
	"errors"
	"fmt"
	"strings"
)

// Upload kinds. A thumbnail is an image attached to a non-image post.
const (
	KindImage     = "image"
	KindAudio     = "audio"
	KindVideo     = "video"
	KindThumbnail = "thumbnail"
)

const mb = 1 << 20

// Size ceilings per upload kind.
var maxUploadSize = map[string]int64{
	KindImage:     5 * mb,
	KindThumbnail: 5 * mb,
	KindAudio:     10 * mb,
	KindVideo:     50 * mb,
}

var (
	ErrUnknownKind = errors.New("unknown upload kind")
	ErrWrongType   = errors.New("file type does not match the post type")
	ErrTooLarge    = errors.New("file is too large")
)

// MaxUploadSize returns the ceiling for kind, or 0 for an unknown kind.
func MaxUploadSize(kind string) int64 {
	return maxUploadSize[kind]
}

// ValidateUpload checks a file's MIME type and size against kind.
func ValidateUpload(kind, mime string, size int64) error {
	limit, ok := maxUploadSize[kind]
	if !ok {
		return ErrUnknownKind
	}

	prefix := kind + "/"
	if kind == KindThumbnail {
		prefix = "image/"
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), prefix) {
		return fmt.Errorf("%w: expected %s*, got %q", ErrWrongType, prefix, mime)
	}

	if size > limit {
		return fmt.Errorf("%w: maximum is %d MB", ErrTooLarge, limit/mb)
	}
	return nil
}
