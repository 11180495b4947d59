package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIPHeaders are consulted in order; the first parseable address wins.
// X-Forwarded-For contributes its left-most entry.
var clientIPHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP stores the caller's address in the Gin context under "real_ip",
// falling back to c.ClientIP() when no proxy header parses.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", headerIP(c))
		c.Next()
	}
}

func headerIP(c *gin.Context) string {
	for _, h := range clientIPHeaders {
		v := c.GetHeader(h)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}
