// Package api exposes the assessment engine over HTTP.
package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/engine"
	"solana-wallet-risk/internal/explain"
	"solana-wallet-risk/internal/observability"
	"solana-wallet-risk/internal/realtime"
)

// Options for creating the router.
type Options struct {
	Engine    *engine.Engine
	Explainer explain.Explainer

	// Hub serves GET /ws when set.
	Hub *realtime.Hub

	Logger zerolog.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(opts Options) *gin.Engine {
	h := &handlers{
		engine:    opts.Engine,
		explainer: opts.Explainer,
		logger:    opts.Logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), processTime())

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(observability.Handler()))
	if opts.Hub != nil {
		router.GET("/ws", gin.WrapF(opts.Hub.HandleWebSocket))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/assess", h.assess)
		v1.POST("/assess/batch", h.assessBatch)
		v1.POST("/explain", h.explain)
	}

	return router
}

// processTime stamps how long the handler took onto the response.
func processTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		c.Writer.Header().Set("X-Process-Time", fmt.Sprintf("%.3f", elapsed.Seconds()))
	}
}
