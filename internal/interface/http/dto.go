package handlers

import (
	"net/url"
	"strconv"
	"time"

	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
)

// userResponse is the public view of a user. The password hash never leaves the service.
type userResponse struct {
	ID                  string      `json:"id"`
	Email               string      `json:"email"`
	Nickname            string      `json:"nickname"`
	FirstName           string      `json:"first_name"`
	LastName            string      `json:"last_name"`
	Bio                 string      `json:"bio"`
	ProfilePictureURL   string      `json:"profile_picture_url"`
	GithubProfileURL    string      `json:"github_profile_url"`
	LinkedinProfileURL  string      `json:"linkedin_profile_url"`
	Role                entity.Role `json:"role"`
	EmailVerified       bool        `json:"email_verified"`
	IsLocked            bool        `json:"is_locked"`
	FailedLoginAttempts int         `json:"failed_login_attempts"`
	LastLoginAt         *time.Time  `json:"last_login_at"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:                  u.ID,
		Email:               u.Email,
		Nickname:            u.Nickname,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Bio:                 u.Bio,
		ProfilePictureURL:   u.ProfilePictureURL,
		GithubProfileURL:    u.GithubProfileURL,
		LinkedinProfileURL:  u.LinkedinProfileURL,
		Role:                u.Role,
		EmailVerified:       u.EmailVerified,
		IsLocked:            u.IsLocked,
		FailedLoginAttempts: u.FailedLoginAttempt,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type pageLinks struct {
	Self string  `json:"self"`
	Next *string `json:"next"`
	Prev *string `json:"prev"`
}

type pageResponse struct {
	Items []userResponse `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Links pageLinks      `json:"links"`
}

func pageLink(path string, skip, limit int) string {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	return path + "?" + q.Encode()
}

func toPageResponse(path string, p application.Page) pageResponse {
	links := pageLinks{Self: pageLink(path, p.Skip, p.Size)}
	if p.HasNext() {
		next := pageLink(path, p.Skip+p.Size, p.Size)
		links.Next = &next
	}
	if p.Skip > 0 {
		prev := pageLink(path, max(p.Skip-p.Size, 0), p.Size)
		links.Prev = &prev
	}
	return pageResponse{
		Items: toUserResponses(p.Items),
		Total: p.Total,
		Page:  p.Page,
		Size:  p.Size,
		Links: links,
	}
}
