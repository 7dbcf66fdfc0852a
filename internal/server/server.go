// Package server provides HTTP server initialization and lifecycle
// management for the Triad API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/triad/internal/config"
	"github.com/scrypster/triad/internal/engine"
	"github.com/scrypster/triad/internal/storage"
	"github.com/scrypster/triad/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// requireMethod wraps a handler so that only the given method reaches it.
func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0) and the
// WebSocketHub, already wired as the job manager's progress listener.
// The server shuts down gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, store storage.GraphStore, eng *engine.Engine, manager *engine.JobManager) (string, *handlers.WebSocketHub) {
	mux := http.NewServeMux()

	wsHub := handlers.NewWebSocketHub(cfg.Server.Port)
	go wsHub.Run()
	manager.SetProgressFunc(wsHub.BroadcastProgress)

	// 10 req/sec sustained, burst of 20.
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	api := handlers.NewAPIHandlers(store, eng, manager, cfg)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/initialize", requireMethod(http.MethodPost, api.Initialize))
	apiMux.HandleFunc("/api/iterate", requireMethod(http.MethodPost, api.Iterate))
	apiMux.HandleFunc("/api/simulate/start", requireMethod(http.MethodPost, api.StartSimulation))
	apiMux.HandleFunc("/api/simulate/status/{id}", requireMethod(http.MethodGet, api.SimulationStatus))
	apiMux.HandleFunc("/api/simulate/stop/{id}", requireMethod(http.MethodPost, api.StopSimulation))
	apiMux.HandleFunc("/api/reset", requireMethod(http.MethodPost, api.Reset))
	apiMux.HandleFunc("/api/stats", requireMethod(http.MethodGet, api.Stats))
	apiMux.HandleFunc("/api/graph", requireMethod(http.MethodGet, api.Graph))
	apiMux.HandleFunc("/api/config", requireMethod(http.MethodGet, api.GetConfig))

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Wrap API routes with auth middleware.
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security).
	mux.Handle("/ws", wsHub)

	// Wrap entire server with rate limiting, then security headers.
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			log.Printf("Job manager shutdown error: %v", err)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}
