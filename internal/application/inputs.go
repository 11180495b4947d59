package application

import (
	"time"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/pkg/validation"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role entity.Role
}

type RegisterInput struct {
	Email              string  `json:"email" form:"email" validate:"required,email,max=255"`
	Password           string  `json:"password" form:"password" validate:"required,strongpwd"`
	Nickname           *string `json:"nickname" form:"nickname" validate:"omitempty,nickname"`
	FirstName          string  `json:"first_name" validate:"max=100"`
	LastName           string  `json:"last_name" validate:"max=100"`
	Bio                string  `json:"bio" validate:"max=500"`
	ProfilePictureURL  string  `json:"profile_picture_url" validate:"omitempty,httpurl,max=2048"`
	GithubProfileURL   string  `json:"github_profile_url" validate:"omitempty,httpurl,max=2048"`
	LinkedinProfileURL string  `json:"linkedin_profile_url" validate:"omitempty,httpurl,max=2048"`
}

// CreateInput is the admin-side variant of RegisterInput. Role defaults to AUTHENTICATED.
type CreateInput struct {
	RegisterInput
	Role *string `json:"role" validate:"omitempty,oneof=ANONYMOUS AUTHENTICATED MANAGER ADMIN"`
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Email              *string `json:"email" validate:"omitempty,email,max=255"`
	Nickname           *string `json:"nickname" validate:"omitempty,nickname"`
	Password           *string `json:"password" validate:"omitempty,strongpwd"`
	FirstName          *string `json:"first_name" validate:"omitempty,max=100"`
	LastName           *string `json:"last_name" validate:"omitempty,max=100"`
	Bio                *string `json:"bio" validate:"omitempty,max=500"`
	ProfilePictureURL  *string `json:"profile_picture_url" validate:"omitempty,httpurl,max=2048"`
	GithubProfileURL   *string `json:"github_profile_url" validate:"omitempty,httpurl,max=2048"`
	LinkedinProfileURL *string `json:"linkedin_profile_url" validate:"omitempty,httpurl,max=2048"`
	Role               *string `json:"role" validate:"omitempty,oneof=ANONYMOUS AUTHENTICATED MANAGER ADMIN"`
}

// normalize trims and lower-cases the identity fields before validation.
func (in *RegisterInput) normalize() {
	in.Email = validation.NormalizeEmail(in.Email)
	if in.Nickname != nil {
		n := validation.NormalizeNickname(*in.Nickname)
		in.Nickname = &n
	}
}

func (in *UpdateInput) normalize() {
	if in.Email != nil {
		e := validation.NormalizeEmail(*in.Email)
		in.Email = &e
	}
	if in.Nickname != nil {
		n := validation.NormalizeNickname(*in.Nickname)
		in.Nickname = &n
	}
}

func (in UpdateInput) empty() bool {
	return in.Email == nil && in.Nickname == nil && in.Password == nil &&
		in.FirstName == nil && in.LastName == nil && in.Bio == nil &&
		in.ProfilePictureURL == nil && in.GithubProfileURL == nil &&
		in.LinkedinProfileURL == nil && in.Role == nil
}

type TokenPair struct {
	AccessToken       string
	AccessTokenExpiry time.Time
	TokenType         string
}

// Page is one slice of the user listing.
type Page struct {
	Items []*entity.User
	Total int
	Page  int
	Size  int
	Skip  int
}

// HasNext reports whether another page follows.
func (p Page) HasNext() bool { return p.Skip+p.Size < p.Total }
