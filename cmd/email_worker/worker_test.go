package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-management/pkg/helpers"
	"github.com/oksasatya/go-user-management/pkg/mailer"
	mailtpl "github.com/oksasatya/go-user-management/pkg/mailer/templates"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	err  error
	sent []sent
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{to, subject, text, html})
	return nil
}

func body(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestProcessJob_VerifyEmail(t *testing.T) {
	s := &fakeSender{}
	data := mailtpl.NewVerifyEmailData(mailtpl.Brand{AppName: "Users"}, "John", "john@example.com", "http://localhost/verify-email/id/tok")
	job := mailer.EmailJob{To: "john@example.com", Template: "VERIFY_EMAIL", Data: data}

	got := processJob(context.Background(), body(t, job), s, helpers.NewDiscardLogger())
	require.Equal(t, ack, got)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "john@example.com", s.sent[0].to)
	assert.NotEmpty(t, s.sent[0].subject)
	assert.Contains(t, s.sent[0].html, "http://localhost/verify-email/id/tok")
}

func TestProcessJob_PlainBody(t *testing.T) {
	s := &fakeSender{}
	job := mailer.EmailJob{To: "john@example.com", Text: "hello"}

	require.Equal(t, ack, processJob(context.Background(), body(t, job), s, helpers.NewDiscardLogger()))
	assert.Equal(t, "Notification", s.sent[0].subject)
}

func TestProcessJob_Outcomes(t *testing.T) {
	logger := helpers.NewDiscardLogger()
	tests := []struct {
		name   string
		body   []byte
		sender *fakeSender
		want   outcome
	}{
		{"malformed json", []byte("{"), &fakeSender{}, drop},
		{"no recipient", body(t, mailer.EmailJob{Text: "x"}), &fakeSender{}, drop},
		{"no content", body(t, mailer.EmailJob{To: "a@example.com"}), &fakeSender{}, drop},
		{"unknown template", body(t, mailer.EmailJob{To: "a@example.com", Template: "nope"}), &fakeSender{}, drop},
		{"send failure", body(t, mailer.EmailJob{To: "a@example.com", Text: "x"}), &fakeSender{err: errors.New("mailgun down")}, requeue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, processJob(context.Background(), tt.body, tt.sender, logger))
		})
	}
}
