package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cfranzen/jobmate/pkg/errors"
	"github.com/cfranzen/jobmate/pkg/response"
)

// CtxUserIDKey is the gin context key carrying the authenticated owner id.
const CtxUserIDKey = "userID"

// UserIDHeader names the header set by the authenticating reverse proxy.
// JobMate trusts it; verifying the caller is the proxy's job.
const UserIDHeader = "X-User-ID"

// Identity extracts the owner id from the trusted proxy header and aborts
// requests without one.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}
