package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-management/internal/container"
	"github.com/oksasatya/go-user-management/internal/interface/middleware"
)

type DebugModule struct {
	C *container.Container
}

func NewDebugModule(c *container.Container) *DebugModule { return &DebugModule{C: c} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar counters, rate-limited per IP; private networks are not limited
	rl := middleware.RateLimit(m.C.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP(), m.C.Logger)
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
