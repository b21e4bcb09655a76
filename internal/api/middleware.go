package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

const (
	mediaTypeJSON   = "application/json"
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID returns a middleware that tags each request with an id
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// Logger returns a middleware that logs requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := logger.WithFields(logger.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       path,
			"client_ip":  c.ClientIP(),
			"latency":    time.Since(start).String(),
			"status":     c.Writer.Status(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("Request completed")
			return
		}
		entry.Info("Request completed")
	}
}

// AcceptJSON rejects requests whose Accept header is not exactly application/json
func AcceptJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		accept := c.GetHeader("Accept")
		if accept != mediaTypeJSON {
			logger.WithField("request_id", c.GetString(requestIDKey)).
				Warnf("Invalid Accept header: %q", accept)
			// the capital M is what existing clients parse
			c.AbortWithStatusJSON(http.StatusNotAcceptable, gin.H{
				"status":  http.StatusNotAcceptable,
				"Message": "Unsupported data type",
			})
			return
		}
		c.Next()
	}
}

// ContentTypeJSON rejects POST and PUT requests whose Content-Type is not application/json
func ContentTypeJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut {
			c.Next()
			return
		}
		contentType := c.GetHeader("Content-Type")
		if contentType != mediaTypeJSON {
			logger.WithField("request_id", c.GetString(requestIDKey)).
				Warnf("Invalid Content-Type header for %s request: %q", method, contentType)
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"status":  http.StatusUnsupportedMediaType,
				"message": "Unsupported media type",
			})
			return
		}
		c.Next()
	}
}

// CORS returns a middleware that handles CORS
func CORS() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	config.AllowHeaders = []string{"Origin", "Accept", "Content-Type", requestIDHeader}
	config.ExposeHeaders = []string{requestIDHeader}
	return cors.New(config)
}

// Recovery returns a middleware that recovers from panics
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
