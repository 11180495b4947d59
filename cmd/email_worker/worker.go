package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/pkg/helpers"
	"github.com/oksasatya/go-user-management/pkg/mailer"
	mailtpl "github.com/oksasatya/go-user-management/pkg/mailer/templates"
)

const sendTimeout = 15 * time.Second

// outcome tells the consumer loop what to do with a delivery.
type outcome int

const (
	ack     outcome = iota
	drop            // nack without requeue: the message can never succeed
	requeue         // nack with requeue: delivery failed transiently
)

var errNoBody = errors.New("job has neither template nor body")

// render turns a queued job into subject, text and html.
func render(job *mailer.EmailJob) (string, string, string, error) {
	helpers.EnsureRecipientAndEmail(job)
	helpers.NormalizeTemplate(job)

	if job.Template == "" {
		if job.Text == "" && job.HTML == "" {
			return "", "", "", errNoBody
		}
		subject := job.Subject
		if subject == "" {
			subject = helpers.SubjectFor("")
		}
		return subject, job.Text, job.HTML, nil
	}

	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("render %s: %w", job.Template, err)
	}
	if job.Subject != "" {
		subject = job.Subject
	}
	if strings.TrimSpace(subject) == "" {
		subject = helpers.SubjectFor(job.Template)
	}
	return subject, text, html, nil
}

// processJob decodes, renders and sends one message.
func processJob(ctx context.Context, body []byte, sender mailer.Sender, logger *logrus.Logger) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		helpers.LogError(logger, "bad message", err, nil)
		return drop
	}
	if job.To == "" {
		helpers.LogError(logger, "message without recipient", nil, logrus.Fields{"template": job.Template})
		return drop
	}

	subject, text, html, err := render(&job)
	if err != nil {
		helpers.LogError(logger, "render failed", err, logrus.Fields{"to": job.To, "template": job.Template})
		return drop
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := sender.Send(c, job.To, subject, text, html); err != nil {
		helpers.LogError(logger, "send failed", err, logrus.Fields{"to": job.To, "template": job.Template})
		return requeue
	}
	helpers.LogInfo(logger, "email sent", logrus.Fields{"to": job.To, "template": job.Template})
	return ack
}
