package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// Authentication guards the API with a static bearer token when
// API_BEARER_TOKEN is set; otherwise every request passes. User and
// organization management live outside this service, so there is no
// session handling here.
func Authentication(c *gin.Context) {
	token := os.Getenv("API_BEARER_TOKEN")
	if token == "" {
		c.Next()
		return
	}
	got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"code": "UNAUTHORIZED", "message": "invalid or missing token"},
		})
		return
	}
	c.Next()
}
