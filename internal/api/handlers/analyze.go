// Package handlers implements the HTTP endpoints. Handlers stay thin:
// decode, delegate to the service, encode. All policy lives in the
// analysis and billing packages.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/finglow/finglow/internal/analysis"
	"github.com/finglow/finglow/internal/api/middleware"
	"github.com/finglow/finglow/internal/apperr"
	"github.com/finglow/finglow/internal/ingest"
	"github.com/finglow/finglow/internal/logger"
)

// maxBodyBytes caps request bodies; a 10k-row statement fits comfortably.
const maxBodyBytes = 10 << 20

// AnalysisRunner runs one end-to-end analysis.
type AnalysisRunner interface {
	Run(ctx context.Context, authHeader string, raw []ingest.RawRow, fileName string, anamnesis *analysis.Anamnesis) (*analysis.Result, error)
}

// AnalyzeHandler handles the analysis endpoints.
type AnalyzeHandler struct {
	runner AnalysisRunner
}

// NewAnalyzeHandler creates the analysis handler.
func NewAnalyzeHandler(runner AnalysisRunner) *AnalyzeHandler {
	return &AnalyzeHandler{runner: runner}
}

type analyzeRequest struct {
	CSVData   []ingest.RawRow     `json:"csv_data"`
	Anamnesis *analysis.Anamnesis `json:"anamnesis,omitempty"`
	FileName  string              `json:"file_name,omitempty"`
}

type analyzeResponse struct {
	Success          bool                 `json:"success"`
	ReportID         string               `json:"report_id"`
	Analysis         *analysis.AIAnalysis `json:"analysis"`
	RemainingCredits int                  `json:"remaining_credits"`
}

// Analyze handles POST /api/analyze with pre-parsed rows in the body.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteAppError(w, apperr.Validation("Invalid request body"))
		return
	}

	h.run(w, r, req.CSVData, req.FileName, req.Anamnesis)
}

// AnalyzeFile handles POST /api/analyze-file with a raw CSV body. The row
// cap here matches what a browser upload is allowed to send.
func (h *AnalyzeHandler) AnalyzeFile(w http.ResponseWriter, r *http.Request) {
	rows, err := ingest.ParseCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes), ingest.MaxClientRows)
	if err != nil {
		middleware.WriteAppError(w, apperr.Validation(err.Error()))
		return
	}

	h.run(w, r, rows, r.URL.Query().Get("filename"), nil)
}

func (h *AnalyzeHandler) run(w http.ResponseWriter, r *http.Request, rows []ingest.RawRow, fileName string, anamnesis *analysis.Anamnesis) {
	result, err := h.runner.Run(r.Context(), r.Header.Get("Authorization"), rows, fileName, anamnesis)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("analysis request failed")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, analyzeResponse{
		Success:          true,
		ReportID:         result.ReportID,
		Analysis:         result.Analysis,
		RemainingCredits: result.RemainingCredits,
	})
}
