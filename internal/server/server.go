// Package server provides the HTTP server for the Deco storage
// compartment.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tristanduncombe/DECO3500/internal/images"
	"github.com/tristanduncombe/DECO3500/internal/lock"
	"github.com/tristanduncombe/DECO3500/internal/server/api"
	"github.com/tristanduncombe/DECO3500/internal/vault"
)

// Config holds the server configuration.
type Config struct {
	Addr        string
	CORSOrigins string
	Vault       *vault.Vault
	Lock        *lock.Machine
	Images      *images.Store
}

// Server represents the Deco HTTP server.
type Server struct {
	config     Config
	router     *chi.Mux
	httpServer *http.Server
	start      time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	r := chi.NewRouter()

	s := &Server{
		config: config,
		router: r,
		start:  time.Now(),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware(config.CORSOrigins))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // photo uploads plus landmark extraction
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)

	lockHandler := api.NewLockHandler(s.config.Lock)
	s.router.Get("/api/lock/state", lockHandler.Get)
	s.router.Post("/api/lock/state", lockHandler.Set)

	itemsHandler := api.NewItemsHandler(s.config.Vault)
	s.router.Get("/api/inventory/items", itemsHandler.List)
	s.router.Post("/api/inventory/items", itemsHandler.Create)
	s.router.Post("/api/inventory/items/{id}/unlock", itemsHandler.Unlock)

	imagesHandler := api.NewImagesHandler(s.config.Images)
	s.router.Get("/api/images/{filename}", imagesHandler.Get)
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// Start starts the HTTP server. Blocks until Shutdown or failure.
func (s *Server) Start() error {
	log.Printf("Starting Deco server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
