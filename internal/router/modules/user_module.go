package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-management/internal/container"
	handlers "github.com/oksasatya/go-user-management/internal/interface/http"
	"github.com/oksasatya/go-user-management/internal/interface/middleware"
)

// UserModule wires the bearer-protected user endpoints.
// Protected: /me/, /users/ (CRUD, search, unlock, avatar)
type UserModule struct {
	Handler *handlers.UserHandler
	C       *container.Container
}

func NewUserModule(h *handlers.UserHandler, c *container.Container) *UserModule {
	return &UserModule{Handler: h, C: c}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	var loader middleware.UserLoader
	if m.C.UserLoader != nil {
		loader = m.C.UserLoader
	}

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.C.Tokens, loader, m.C.Logger))
	auth.Use(middleware.RateLimit(m.C.Redis, m.C.Config.RateLimitAPIPerMin, time.Minute, middleware.KeyByUserID(), nil, m.C.Logger))
	{
		auth.GET("/me/", m.Handler.Me)

		auth.POST("/users/", m.Handler.Create)
		auth.GET("/users/", m.Handler.List)
		auth.GET("/users/search", m.Handler.Search)
		auth.GET("/users/:id", m.Handler.Get)
		auth.PUT("/users/:id", m.Handler.Update)
		auth.DELETE("/users/:id", m.Handler.Delete)
		auth.POST("/users/:id/unlock", m.Handler.Unlock)
		auth.POST("/users/:id/avatar", m.Handler.UploadAvatar)
	}
}
