package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/go-user-management/pkg/mailer"
	mailtpl "github.com/oksasatya/go-user-management/pkg/mailer/templates"
)

// SubjectFor returns the fallback subject for a template name.
func SubjectFor(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.VerifyEmail:
		return "Verify your email address"
	case mailtpl.AccountLocked:
		return "Your account has been locked"
	default:
		return "Notification"
	}
}

// EnsureRecipientAndEmail fills the recipient fields templates rely on.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// NormalizeTemplate lower-cases the template name and falls back to the
// Type field of the data when the job names no template.
func NormalizeTemplate(job *mailer.EmailJob) {
	name := strings.ToLower(strings.TrimSpace(job.Template))
	if name == "" && job.Data != nil {
		if t, ok := job.Data["Type"]; ok {
			name = strings.ToLower(fmt.Sprintf("%v", t))
		}
	}
	job.Template = name
}
