package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDCtxKey = "user_id"

// HandleAuthMiddleware is the single authorization gate. It resolves
// the bearer token into an active user and stores the user id in the
// request context. Every failure is the same undifferentiated 401.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Error().Msg("invalid authorization header")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	user, err := h.auth.Authenticate(c, parts[1])
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to authenticate request")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.Set(userIDCtxKey, user.ID)
	c.Next()
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}
