package api

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request through the server logger.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		line := "%s %s %d %s"
		args := []any{c.Request.Method, path, status, time.Since(start).Round(time.Microsecond)}
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error(line, args...)
		case status >= http.StatusBadRequest:
			s.logger.Warn(line, args...)
		default:
			s.logger.Debug(line, args...)
		}
	}
}

// corsConfig builds the CORS policy for the configured origins. "*" allows
// any origin.
func corsConfig(origins []string) (cors.Config, error) {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Cache-Control", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	if err := cfg.Validate(); err != nil {
		return cors.Config{}, fmt.Errorf("api: allowed origins: %w", err)
	}
	return cfg, nil
}
