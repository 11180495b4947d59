package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-management/internal/container"
	handlers "github.com/oksasatya/go-user-management/internal/interface/http"
	"github.com/oksasatya/go-user-management/internal/interface/middleware"
)

// AuthModule serves the public endpoints: register, login and e-mail verification.
type AuthModule struct {
	Handler *handlers.AuthHandler
	C       *container.Container
}

func NewAuthModule(h *handlers.AuthHandler, c *container.Container) *AuthModule {
	return &AuthModule{Handler: h, C: c}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	cfg, rdb, log := m.C.Config, m.C.Redis, m.C.Logger
	registerLimiter := middleware.RateLimit(rdb, cfg.RateLimitRegisterPerMin, time.Minute, middleware.KeyByIPAndPath(), nil, log)
	loginLimiter := middleware.RateLimit(rdb, cfg.RateLimitLoginPerMin, time.Minute, middleware.KeyByIPAndPath(), nil, log)
	verifyLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil, log)

	rg.POST("/register/", registerLimiter, m.Handler.Register)
	rg.POST("/login/", loginLimiter, m.Handler.Login)
	rg.GET("/verify-email/:id/:token", verifyLimiter, m.Handler.VerifyEmail)
}
