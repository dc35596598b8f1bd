package middleware

import (
	"github.com/gin-gonic/gin"
)

// CorsMiddleware keeps the endpoints reachable from browser-based tooling.
// All callers are services, so no origin restriction or credentials.
func CorsMiddleware(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}
