package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/pkg/helpers"
)

func fakeStore(max int64) (*AvatarStore, *[]string) {
	var paths []string
	s := &AvatarStore{bucket: "avatars-bucket", maxBytes: max}
	s.upload = func(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return "", err
		}
		paths = append(paths, objectPath)
		return helpers.PublicURL(s.bucket, objectPath), nil
	}
	return s, &paths
}

func TestAvatarStore_Upload(t *testing.T) {
	s, paths := fakeStore(1024)

	url, err := s.Upload(context.Background(), "u1", strings.NewReader("png-bytes"), "Me.PNG", "image/png")
	require.NoError(t, err)

	require.Len(t, *paths, 1)
	assert.Regexp(t, regexp.MustCompile(`^avatars/u1/[0-9a-f-]{36}\.png$`), (*paths)[0])
	assert.Equal(t, "https://storage.googleapis.com/avatars-bucket/"+(*paths)[0], url)
}

func TestAvatarStore_RejectsExtension(t *testing.T) {
	s, paths := fakeStore(1024)
	_, err := s.Upload(context.Background(), "u1", strings.NewReader("x"), "script.svg", "image/svg+xml")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Empty(t, *paths)
}

func TestAvatarStore_SizeLimit(t *testing.T) {
	s, _ := fakeStore(8)
	_, err := s.Upload(context.Background(), "u1", bytes.NewReader(make([]byte, 64)), "a.jpg", "image/jpeg")
	require.Error(t, err)

	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))
}
