package application

import (
	"context"
	"io"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/pkg/mailer"
)

// Notifier enqueues outgoing e-mail. The RabbitMQ publisher implements it.
type Notifier interface {
	Enqueue(ctx context.Context, job mailer.EmailJob) error
}

// SearchIndex keeps a full-text copy of user profiles.
type SearchIndex interface {
	Index(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, id string) error
	// Search returns matching user ids, best match first.
	Search(ctx context.Context, query string, size int) ([]string, error)
}

// AvatarStore persists profile pictures and returns their public URL.
type AvatarStore interface {
	Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)
}

// VerificationStore holds one-shot e-mail verification tokens.
type VerificationStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	// Consume reports whether token is valid for userID and invalidates it.
	Consume(ctx context.Context, userID, token string) (bool, error)
}
