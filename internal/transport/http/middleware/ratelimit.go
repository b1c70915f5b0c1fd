package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"

	"mealtracker/internal/transport/http/response"
)

// RateLimitByIP adapts httprate's per-IP limiter to gin. A non-positive limit
// disables it.
func RateLimitByIP(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(http.ResponseWriter, *http.Request) {}),
	)

	return func(c *gin.Context) {
		passed := false
		limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			response.Error(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "Too Many Requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
