package templates

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brand = Brand{AppName: "User Management", CompanyName: "Acme", SupportURL: "https://acme.test/help"}

func TestRender_AllTemplatesParse(t *testing.T) {
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			subject, text, html, err := Render(name, NewBaseEmailData(brand, name, "John", "john@example.com"))
			require.NoError(t, err)
			assert.NotEmpty(t, strings.TrimSpace(subject))
			assert.Contains(t, text, "john@example.com")
			assert.Contains(t, html, "<html>")
		})
	}
}

func TestRender_VerifyEmailFromJobData(t *testing.T) {
	data := NewVerifyEmailData(brand, "John", "john@example.com", "https://acme.test/verify-email/u1/tok", WithExpiresIn(time.Hour))

	subject, text, html, err := Render(VerifyEmail, data)
	require.NoError(t, err)
	assert.Contains(t, subject, "User Management")
	assert.Contains(t, text, "https://acme.test/verify-email/u1/tok")
	assert.Contains(t, text, "expires on")
	assert.Contains(t, html, `href="https://acme.test/verify-email/u1/tok"`)
}

func TestRender_DefaultsForMissingFields(t *testing.T) {
	_, text, _, err := Render(AccountLocked, map[string]any{"Email": "x@example.com"})
	require.NoError(t, err)
	assert.Contains(t, text, "Hi there,")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("does_not_exist", nil)
	assert.Error(t, err)
}

func TestHTMLEscaping(t *testing.T) {
	html, err := RenderHTML(VerifyEmail, map[string]any{"Name": "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}
