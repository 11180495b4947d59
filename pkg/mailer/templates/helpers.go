package templates

import (
	"time"
)

// Brand carries the product details rendered in every e-mail footer.
type Brand struct {
	AppName     string
	CompanyName string
	SupportURL  string
	LogoURL     string
}

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		d.Time = t.UTC().Format("02 January 2006, 15:04")
	}
}

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04")
	}
}

func WithExpiresIn(dur time.Duration) Option {
	return WithExpiresAt(time.Now().Add(dur))
}

// NewBaseEmailData fills the common fields from b, then applies opts.
func NewBaseEmailData(b Brand, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
		AppName:        b.AppName,
		CompanyName:    b.CompanyName,
		SupportURL:     b.SupportURL,
		LogoURL:        b.LogoURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(b Brand, name, email, verifyURL string, opts ...Option) map[string]any {
	opts = append([]Option{WithVerifyURL(verifyURL)}, opts...)
	return ToMap(NewBaseEmailData(b, VerifyEmail, name, email, opts...))
}

func NewAccountLockedData(b Brand, name, email string, opts ...Option) map[string]any {
	opts = append([]Option{WithTime(time.Now())}, opts...)
	return ToMap(NewBaseEmailData(b, AccountLocked, name, email, opts...))
}
