// Package queue puts e-mail jobs on RabbitMQ for cmd/email_worker.
package queue

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/oksasatya/go-user-management/pkg/mailer"
)

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type EmailPublisher struct {
	pub JSONPublisher
}

func NewEmailPublisher(pub JSONPublisher) *EmailPublisher {
	return &EmailPublisher{pub: pub}
}

func (p *EmailPublisher) Enqueue(ctx context.Context, job mailer.EmailJob) error {
	if strings.TrimSpace(job.To) == "" {
		return oops.Code("EMAIL_JOB_INVALID").With("template", job.Template).Errorf("email job has no recipient")
	}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.pub.PublishJSON(c, job); err != nil {
		return oops.Code("EMAIL_ENQUEUE_FAILED").With("template", job.Template).Wrap(err)
	}
	return nil
}
