package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/delivery/http/request"
	"github.com/user/rating-ingest/internal/delivery/http/response"
	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
	"github.com/user/rating-ingest/internal/usecase"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// PingFunc checks one backing service for the health endpoint.
type PingFunc func(ctx context.Context) error

type Handler struct {
	schoolManager usecase.SchoolManager
	stats         repository.StatsRepository
	pingers       map[string]PingFunc
	logger        *zap.Logger
}

func NewHandler(schoolManager usecase.SchoolManager, stats repository.StatsRepository, pingers map[string]PingFunc, logger *zap.Logger) *Handler {
	return &Handler{
		schoolManager: schoolManager,
		stats:         stats,
		pingers:       pingers,
		logger:        logger,
	}
}

func (h *Handler) HandleSubmitIngestion(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitIngestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SchoolID <= 0 {
		h.writeJSONError(w, "school_id must be a positive integer", http.StatusBadRequest)
		return
	}

	err := h.schoolManager.Submit(r.Context(), req.SchoolID, req.Force)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrUnknownSchool):
		h.writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, usecase.ErrRecentlyIngested):
		h.writeJSONError(w, err.Error(), http.StatusConflict)
		return
	default:
		h.logger.Error("Failed to submit school", zap.Int64("school_id", req.SchoolID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitIngestionResponse{
		Status:   "success",
		Message:  "School submitted for ingestion",
		SchoolID: req.SchoolID,
	})
}

func (h *Handler) HandleGetIngestionStatus(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := h.schoolIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.schoolManager.GetStatus(r.Context(), schoolID)
	if err != nil {
		h.logger.Error("Failed to get ingestion status", zap.Int64("school_id", schoolID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if status.CurrentStatus == entity.StatusNotFound {
		h.writeJSONError(w, "Ingestion status not found for the given school", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, response.IngestionStatusResponse{
		SchoolID:      status.SchoolID,
		CurrentStatus: status.CurrentStatus,
		UpdatedAt:     status.UpdatedAt,
		FailureReason: status.FailureReason,
		Inserted:      status.Inserted,
		Skipped:       status.Skipped,
	})
}

func (h *Handler) HandleDepartmentAverages(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := h.schoolIDParam(w, r)
	if !ok {
		return
	}
	minRatings, ok := h.intQuery(w, r, "min_ratings", 0)
	if !ok {
		return
	}
	rows, err := h.stats.DepartmentAverages(r.Context(), schoolID, minRatings)
	h.writeData(w, rows, err)
}

func (h *Handler) HandleDepartmentDistribution(w http.ResponseWriter, r *http.Request) {
	department := strings.TrimSpace(chi.URLParam(r, "department"))
	if department == "" {
		h.writeJSONError(w, "department is required", http.StatusBadRequest)
		return
	}
	minRatings, ok := h.intQuery(w, r, "min_ratings", 0)
	if !ok {
		return
	}
	rows, err := h.stats.DepartmentDistribution(r.Context(), department, minRatings)
	h.writeData(w, rows, err)
}

func (h *Handler) HandleSearchInstructors(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	if prefix == "" {
		h.writeJSONError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	limit, ok := h.intQuery(w, r, "limit", defaultSearchLimit)
	if !ok {
		return
	}
	limit = min(max(limit, 1), maxSearchLimit)

	rows, err := h.stats.SearchInstructors(r.Context(), prefix, limit)
	h.writeData(w, rows, err)
}

func (h *Handler) HandleUnscrapedSchools(w http.ResponseWriter, r *http.Request) {
	rows, err := h.stats.UnscrapedSchools(r.Context())
	h.writeData(w, rows, err)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string, len(h.pingers))
	healthy := true
	for name, ping := range h.pingers {
		if err := ping(ctx); err != nil {
			healthStatus[name] = "unhealthy"
			healthy = false
			h.logger.Error("Health check failed", zap.String("service", name), zap.Error(err))
			continue
		}
		healthStatus[name] = "healthy"
	}

	if !healthy {
		h.writeJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	healthStatus["status"] = "ok"
	h.writeJSON(w, http.StatusOK, healthStatus)
}

// writeData turns repository.ErrNoData into an explicit "no_data" answer
// rather than an error status.
func (h *Handler) writeData(w http.ResponseWriter, data any, err error) {
	if errors.Is(err, repository.ErrNoData) {
		h.writeJSON(w, http.StatusOK, response.DataResponse{Status: "no_data"})
		return
	}
	if err != nil {
		h.logger.Error("Aggregate query failed", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.DataResponse{Status: "ok", Data: data})
}

func (h *Handler) schoolIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "schoolID"), 10, 64)
	if err != nil || id <= 0 {
		h.writeJSONError(w, "schoolID must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) intQuery(w http.ResponseWriter, r *http.Request, key string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		h.writeJSONError(w, key+" must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
