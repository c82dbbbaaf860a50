package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-catalog-cache/internal/catalog"
)

const requestIDHeader = "X-Request-ID"

// Server represents the HTTP catalog server
type Server struct {
	catalog        *catalog.Service
	logger         *zap.Logger
	requestTimeout time.Duration
	server         *http.Server
}

// NewServer creates a new catalog HTTP server. Every catalog request is answered
// within requestTimeout.
func NewServer(catalogService *catalog.Service, requestTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		catalog:        catalogService,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// Start starts the HTTP server on a TCP address
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting catalog HTTP server", zap.String("addr", addr))
	return s.serve(listener)
}

// StartUnixSocket starts the HTTP server on a Unix socket
func (s *Server) StartUnixSocket(socketPath string) error {
	// Remove existing socket file
	if err := os.RemoveAll(socketPath); err != nil {
		s.logger.Warn("Failed to remove existing socket file", zap.String("path", socketPath), zap.Error(err))
	}

	// Create Unix socket listener
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}

	// Set socket permissions (readable/writable by owner and group)
	if err := os.Chmod(socketPath, 0660); err != nil {
		s.logger.Warn("Failed to set socket permissions", zap.String("path", socketPath), zap.Error(err))
	}

	s.logger.Info("Starting catalog HTTP server on Unix socket", zap.String("socket_path", socketPath))
	return s.serve(listener)
}

func (s *Server) serve(listener net.Listener) error {
	s.server = &http.Server{
		Handler:      s.createRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.server.Serve(listener)
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping catalog HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// createRouter creates and configures the HTTP router
func (s *Server) createRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)

	// Catalog endpoints
	api := router.PathPrefix("/catalog").Subrouter()
	api.Use(s.deadlineMiddleware)
	api.HandleFunc("/products", s.handleListProducts).Methods("GET")
	api.HandleFunc("/products/{slug}", s.handleGetProduct).Methods("GET")
	api.HandleFunc("/products/{slug}/quote", s.handleQuotePrice).Methods("POST")
	api.HandleFunc("/categories", s.handleListCategories).Methods("GET")
	api.HandleFunc("/platforms", s.handleListPlatforms).Methods("GET")
	api.HandleFunc("/banners", s.handleListBanners).Methods("GET")

	// Health check
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// requestIDMiddleware propagates the caller's request id or assigns a new one
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}

// deadlineMiddleware bounds the time a catalog request may wait on the data store
func (s *Server) deadlineMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.requestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// parseRequest parses JSON request body. An empty body leaves v untouched.
func (s *Server) parseRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer r.Body.Close()

	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// writeResponse writes JSON response
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeErrorResponse writes error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}
