// Package httpapi serves the student's status over HTTP.
package httpapi

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luma/lockdown/internal/metrics"
	"github.com/luma/lockdown/session"
)

// NewRouter builds the status API:
//
//   GET /ping     pong
//   GET /session  the current session snapshot as JSON
//   GET /metrics  Prometheus metrics, when m is not nil
func NewRouter(debugHTTP bool, store *session.Store, m *metrics.Metrics, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Snapshot())
	})

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	return r
}
