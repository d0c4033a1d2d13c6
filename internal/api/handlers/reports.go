package handlers

import (
	"errors"
	"net/http"

	"github.com/finglow/finglow/internal/api/middleware"
	"github.com/finglow/finglow/internal/apperr"
	"github.com/finglow/finglow/internal/auth"
	"github.com/finglow/finglow/internal/logger"
	"github.com/finglow/finglow/internal/store"
)

// ReportsHandler serves stored reports back to their owner.
type ReportsHandler struct {
	verifier auth.Verifier
	reports  store.Reports
}

// NewReportsHandler creates the reports handler.
func NewReportsHandler(verifier auth.Verifier, reports store.Reports) *ReportsHandler {
	return &ReportsHandler{verifier: verifier, reports: reports}
}

// ListReports handles GET /api/reports.
func (h *ReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.Verify(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		middleware.WriteAppError(w, apperr.Authentication("Invalid or expired token"))
		return
	}

	summaries, err := h.reports.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("failed to list reports")
		middleware.WriteAppError(w, apperr.Persistence("failed to list reports", err))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"reports": summaries,
		"count":   len(summaries),
	})
}

// LatestReport handles GET /api/reports/latest.
func (h *ReportsHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.Verify(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		middleware.WriteAppError(w, apperr.Authentication("Invalid or expired token"))
		return
	}

	report, err := h.reports.LatestByUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteAppError(w, apperr.NotFound("No reports yet"))
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("failed to load latest report")
		middleware.WriteAppError(w, apperr.Persistence("failed to load latest report", err))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}

// GetReport handles GET /api/reports/{id}. Lookups are scoped to the caller,
// a foreign report id reads as not found.
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request, reportID string) {
	identity, err := h.verifier.Verify(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		middleware.WriteAppError(w, apperr.Authentication("Invalid or expired token"))
		return
	}

	report, err := h.reports.Get(r.Context(), identity.UserID, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteAppError(w, apperr.NotFound("Report not found"))
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("failed to load report")
		middleware.WriteAppError(w, apperr.Persistence("failed to load report", err))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}
