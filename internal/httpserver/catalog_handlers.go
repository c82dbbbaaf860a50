package httpserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"go-catalog-cache/internal/catalog"
	"go-catalog-cache/internal/executor"
	"go-catalog-cache/internal/models"
	"go-catalog-cache/internal/pricing"
)

// handleListProducts handles product listing requests
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	opts, err := models.ParseQueryOptions(r.URL.Query())
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, status, err := s.catalog.ListProducts(r.Context(), opts)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	normalized := opts.Normalized()
	setCacheStatus(w, status)
	s.writeResponse(w, &ProductListResponse{
		Success: true,
		Items:   list.Items,
		Total:   list.Total,
		Limit:   normalized.Limit,
		Offset:  normalized.Offset,
	})
}

// handleGetProduct handles product detail requests
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, status, err := s.catalog.GetProduct(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		setCacheStatus(w, status)
		s.writeCatalogError(w, r, err)
		return
	}

	setCacheStatus(w, status)
	s.writeResponse(w, &DataResponse{Success: true, Data: product})
}

// handleQuotePrice handles variant price requests
func (s *Server) handleQuotePrice(w http.ResponseWriter, r *http.Request) {
	var req pricing.SelectionRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	quote, status, err := s.catalog.QuotePrice(r.Context(), mux.Vars(r)["slug"], req)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}

	setCacheStatus(w, status)
	s.writeResponse(w, &DataResponse{Success: true, Data: quote})
}

// handleListCategories handles category list requests
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, status, err := s.catalog.ListCategories(r.Context())
	s.writeList(w, r, categories, status, err)
}

// handleListPlatforms handles platform list requests
func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, status, err := s.catalog.ListPlatforms(r.Context())
	s.writeList(w, r, platforms, status, err)
}

// handleListBanners handles homepage banner requests
func (s *Server) handleListBanners(w http.ResponseWriter, r *http.Request) {
	banners, status, err := s.catalog.ListBanners(r.Context())
	s.writeList(w, r, banners, status, err)
}

func (s *Server) writeList(w http.ResponseWriter, r *http.Request, data interface{}, status models.CacheStatus, err error) {
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	setCacheStatus(w, status)
	s.writeResponse(w, &DataResponse{Success: true, Data: data})
}

// writeCatalogError maps catalog errors to HTTP statuses. Data store failures are
// reported as a retryable unavailability.
func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		exhausted *executor.ExhaustedRetriesError
		cancelled *executor.CancellationError
	)

	switch {
	case errors.Is(err, models.ErrInvalidOptions), errors.Is(err, pricing.ErrSelectionMismatch):
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalog.ErrNotFound):
		s.writeErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, pricing.ErrDurationPriceUnresolved):
		s.writeErrorResponse(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &exhausted), errors.As(err, &cancelled):
		w.Header().Set("Retry-After", "1")
		s.writeErrorResponse(w, unavailableMessage, http.StatusServiceUnavailable)
	default:
		s.logger.Error("Unexpected catalog error",
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get(requestIDHeader)),
			zap.Error(err))
		s.writeErrorResponse(w, "internal error", http.StatusInternalServerError)
	}
}

func setCacheStatus(w http.ResponseWriter, status models.CacheStatus) {
	if status != "" {
		w.Header().Set("X-Cache", string(status))
	}
}
