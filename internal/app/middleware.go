package app

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/butecodosdevs/buteco-linebot-go/internal/ctxutil"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
)

var requestIDHeaders = []string{"X-Request-Id", "X-Correlation-Id", "X-Line-Request-Id"}

// metricsAuthMiddleware enforces Basic Auth on /metrics. A disabled
// middleware passes every request through.
func metricsAuthMiddleware(enabled bool, username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		user, pass, hasAuth := c.Request.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !hasAuth || !userMatch || !passMatch {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// requestID returns the first correlation header set on the request, or a
// fresh UUID.
func requestID(c *gin.Context) string {
	for _, h := range requestIDHeaders {
		if v := c.GetHeader(h); v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// loggingMiddleware tags the request context with a request ID and logs
// the outcome: 5xx at Error, 4xx other than 404 at Warn, the rest at Debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		id := requestID(c)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), id))
		c.Header("X-Request-Id", id)

		c.Next()

		status := c.Writer.Status()
		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP()).
			WithField("request_id", id)

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status >= 400 && status != http.StatusNotFound:
			entry.Warn("HTTP request rejected")
		case status == http.StatusNotFound:
			entry.Debug("HTTP request not found")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}
