// Package httpapi exposes the escalation and ticket surface over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/helpline/internal/escalation"
	"github.com/zulandar/helpline/internal/ticket"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Orchestrator *escalation.Orchestrator
	Store        ticket.Store
	Port         int
	Out          io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Orchestrator == nil {
		return fmt.Errorf("httpapi: orchestrator is required")
	}
	if opts.Store == nil {
		return fmt.Errorf("httpapi: store is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts.Orchestrator, opts.Store)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Helpline API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router with all API routes registered.
func NewRouter(orch *escalation.Orchestrator, store ticket.Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, orch, store)
	return router
}
