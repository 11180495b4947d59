package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/pkg/helpers"
	"github.com/oksasatya/go-user-management/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxRoleKey   = "userRole"
)

// UserLoader reloads the token holder when revalidation is enabled.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// Auth validates the bearer access token and puts the caller into the Gin
// context. With a non-nil loader the user is reloaded on every request:
// deleted or locked accounts are rejected and the live role wins over the claim.
func Auth(tokens *helpers.TokenService, loader UserLoader, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			response.FromError(c, apperror.ErrInvalidToken, logger)
			return
		}
		claims, err := tokens.Decode(raw)
		if err != nil {
			response.FromError(c, apperror.ErrInvalidToken, logger)
			return
		}

		id, role := claims.UserID(), claims.Role
		if loader != nil {
			u, err := loader.GetByID(c.Request.Context(), id)
			if err != nil || u.IsLocked {
				if logger != nil {
					logger.WithField("user_id", id).Warn("token holder no longer valid")
				}
				response.FromError(c, apperror.ErrInvalidToken, logger)
				return
			}
			role = u.Role
		}

		c.Set(CtxUserIDKey, id)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ActorFrom returns the authenticated caller set by Auth. The zero Actor is
// returned on routes without Auth.
func ActorFrom(c *gin.Context) application.Actor {
	role, _ := c.Get(CtxRoleKey)
	r, _ := role.(entity.Role)
	return application.Actor{ID: c.GetString(CtxUserIDKey), Role: r}
}
