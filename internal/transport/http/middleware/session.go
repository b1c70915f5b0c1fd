package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mealtracker/internal/app"
	"mealtracker/internal/model"
	"mealtracker/internal/transport/http/response"
)

const ContextUserKey = "user"

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.User, error)
}

// RequireSession resolves the session cookie to a user before any route
// logic runs. Requests without a valid session never reach the handler.
func RequireSession(resolver SessionResolver, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
			c.Abort()
			return
		}

		user, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, app.ErrUnauthenticated) {
				response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
			} else {
				logger.Error("resolve session failed", zap.String("path", c.FullPath()), zap.Error(err))
				response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal Server Error")
			}
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok && user != nil
}
