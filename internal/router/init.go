package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-management/internal/container"
	handlers "github.com/oksasatya/go-user-management/internal/interface/http"
	"github.com/oksasatya/go-user-management/internal/interface/middleware"
	"github.com/oksasatya/go-user-management/internal/router/modules"
)

// InitModules registers every feature module built from c.
func InitModules(r *Registry, c *container.Container) {
	authHandler := handlers.NewAuthHandler(c.Service, c.Logger)
	userHandler := handlers.NewUserHandler(c.Service, c.Logger)

	r.Add(modules.NewAuthModule(authHandler, c))
	r.Add(modules.NewUserModule(userHandler, c))
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c))
	}
}

// NewEngine builds the gin engine with the global middleware chain and all
// modules mounted at the root.
func NewEngine(c *container.Container) *gin.Engine {
	cfg := c.Config
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := NewRegistry(r, "")
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}
