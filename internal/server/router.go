// Package server assembles the HTTP surface of bibhub.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bibhub/internal/events"
	"bibhub/internal/logging"
	"bibhub/internal/pipeline"
	"bibhub/internal/restaurants"
	"bibhub/internal/store"
)

type Deps struct {
	Store  store.Store
	Runner *pipeline.Runner // nil disables the /pipeline routes
	Hub    *events.Hub      // nil disables /ws
	// Base is the context pipeline runs triggered over HTTP derive from.
	Base   context.Context
	Logger zerolog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Logger))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", ready(d))

	if d.Hub != nil {
		router.GET("/ws", events.WSHandler(d.Hub))
	}

	api := router.Group("")
	restaurants.NewHandler(restaurants.NewService(d.Store)).RegisterRoutes(api)

	if d.Runner != nil {
		h := pipeline.NewHandler(d.Runner)
		if d.Base != nil {
			h.Base = d.Base
		}
		h.RegisterRoutes(api)
	}
	return router
}

func ready(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ready", "db": "ok"}
		if d.Hub != nil {
			stats := d.Hub.Stats()
			body["tcp_clients"] = stats.TCPClients
			body["ws_clients"] = stats.WSClients
		}

		if p, ok := d.Store.(store.Pinger); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				body["status"] = "not_ready"
				body["db"] = "error"
				body["db_error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// requestLogger writes one zerolog event per request and makes the logger
// available to handlers through the request context.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), logger))
		c.Next()

		status := c.Writer.Status()
		ev := logger.Info()
		switch {
		case status >= 500:
			ev = logger.Error()
		case status >= 400:
			ev = logger.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
