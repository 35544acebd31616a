package middleware

import (
	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"

	// caller supplied ids longer than this are replaced, they end up in
	// audit rows and outbox headers
	maxRequestIDLen = 64
)

// RequestID propagates X-Request-ID through the gin context, the request
// context and the response header so audit entries and outbox events can
// be correlated with the HTTP call that produced them.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := sanitizeRequestID(c.GetHeader(HeaderRequestID))

		c.Set("request_id", rid)
		c.Request = c.Request.WithContext(contextutil.WithRequestID(c.Request.Context(), rid))
		c.Header(HeaderRequestID, rid)

		c.Next()
	}
}

func sanitizeRequestID(rid string) string {
	if rid == "" || len(rid) > maxRequestIDLen {
		return uuid.NewString()
	}
	for _, r := range rid {
		// printable ASCII only, no spaces
		if r <= ' ' || r > '~' {
			return uuid.NewString()
		}
	}
	return rid
}
