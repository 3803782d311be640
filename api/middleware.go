package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// requireUser resolves the caller's identity from the X-User-ID header.
// Upstream authentication terminates at the gateway; by the time a
// request reaches this service the header is trusted.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing X-User-ID header",
			})
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid X-User-ID header",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
