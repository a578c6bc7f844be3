package middleware

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/core/capability"
)

// RequireCapability middleware evaluates the policy gate for an operation.
// The admin capability short-circuits the default policy.
func RequireCapability(gate capability.Gate, cap string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.Allow(c.Request.Context(), cap); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
