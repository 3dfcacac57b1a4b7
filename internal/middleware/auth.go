package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/epeers/ownership/internal/models"
	"github.com/gin-gonic/gin"
)

// AdminTokenHeader carries the shared admin token
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken rejects requests whose X-Admin-Token header does not match
// token. An empty token disables the check.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(AdminTokenHeader)
		if got == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "admin token required",
			})
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "forbidden",
				Message: "invalid admin token",
			})
			return
		}
		c.Next()
	}
}
