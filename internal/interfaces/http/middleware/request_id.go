package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"swap-route.backend/pkg/utils"
)

const RequestIDKey = "request_id"

// RequestIDMiddleware tags every request with an ID, honoring one supplied
// by the caller via X-Request-ID. The ID is mirrored into the request
// context under the key logger.WithContext reads, and echoed back in the
// response header.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = utils.GenerateUUIDv7().String()
		}

		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)

		ctx := context.WithValue(c.Request.Context(), "request_id", id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
