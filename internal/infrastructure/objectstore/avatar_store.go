// Package objectstore uploads profile pictures to Google Cloud Storage.
package objectstore

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/pkg/helpers"
)

// DefaultMaxAvatarBytes bounds a single upload.
const DefaultMaxAvatarBytes = 5 << 20

// ErrTooLarge is returned when the upload exceeds the configured limit.
var ErrTooLarge = apperror.NewValidationError("file", "exceeds the size limit")

var allowedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

type uploadFunc func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)

type AvatarStore struct {
	bucket   string
	maxBytes int64
	upload   uploadFunc
}

func NewAvatarStore(client *storage.Client, bucket string, maxBytes int64) *AvatarStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAvatarBytes
	}
	return &AvatarStore{
		bucket:   bucket,
		maxBytes: maxBytes,
		upload: func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
			return helpers.UploadObject(ctx, client, bucket, objectPath, contentType, r)
		},
	}
}

// objectPath places every upload under avatars/<user id>/ with a fresh name.
func objectPath(userID, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", apperror.NewValidationError("file", "must be a png, jpeg, gif or webp image")
	}
	return path.Join("avatars", userID, uuid.NewString()+ext), nil
}

// limitedReader fails once more than n bytes have been read.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

func (s *AvatarStore) Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	p, err := objectPath(userID, filename)
	if err != nil {
		return "", oops.Code("AVATAR_INVALID").With("user_id", userID).With("filename", filename).Wrap(err)
	}
	c, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	url, err := s.upload(c, p, contentType, &limitedReader{r: r, n: s.maxBytes})
	if err != nil {
		return "", oops.Code("AVATAR_UPLOAD_FAILED").With("user_id", userID).With("bucket", s.bucket).With("object", p).Wrap(err)
	}
	return url, nil
}
