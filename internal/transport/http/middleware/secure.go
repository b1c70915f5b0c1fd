package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"mealtracker/internal/transport/http/response"
)

func SecureHeaders(sslRedirect bool, logger *zap.Logger) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           sslRedirect,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		// Process answers SSL redirects itself and reports them as an error
		if c.Writer.Written() {
			c.Abort()
			return
		}
		if err != nil {
			logger.Warn("secure headers blocked request", zap.Error(err))
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal Server Error")
			c.Abort()
			return
		}
		c.Next()
	}
}
