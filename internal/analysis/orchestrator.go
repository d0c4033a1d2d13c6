package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/finglow/finglow/internal/apperr"
	"github.com/finglow/finglow/internal/auth"
	"github.com/finglow/finglow/internal/ingest"
	"github.com/finglow/finglow/internal/logger"
	"github.com/finglow/finglow/internal/sanitize"
	"github.com/finglow/finglow/internal/store"
)

// Provider generates a model completion for an analysis prompt.
type Provider interface {
	GenerateAnalysis(ctx context.Context, prompt string) (string, error)
}

// Result is what a successful analysis run returns to the handler.
type Result struct {
	ReportID         string      `json:"report_id"`
	Analysis         *AIAnalysis `json:"analysis"`
	RemainingCredits int         `json:"remaining_credits"`
}

// Orchestrator runs the full analysis flow. The order matters: identity and
// structural validation first, then the credit gate, and only then the
// sanitizer and the model call, so a caller never burns provider quota on a
// request that was going to fail anyway.
type Orchestrator struct {
	verifier auth.Verifier
	store    store.Store
	provider Provider
	retry    RetryPolicy
	timeout  time.Duration
}

// NewOrchestrator wires the analysis flow. timeout bounds each individual
// provider attempt, not the whole retry loop.
func NewOrchestrator(verifier auth.Verifier, st store.Store, provider Provider, retry RetryPolicy, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Orchestrator{
		verifier: verifier,
		store:    st,
		provider: provider,
		retry:    retry,
		timeout:  timeout,
	}
}

// Run executes one analysis request end to end and returns the stored
// report's id, the parsed analysis and the caller's remaining balance.
func (o *Orchestrator) Run(ctx context.Context, authHeader string, raw []ingest.RawRow, fileName string, anamnesis *Anamnesis) (*Result, error) {
	log := logger.FromContext(ctx)

	identity, err := o.verifier.Verify(ctx, authHeader)
	if err != nil {
		return nil, apperr.Authentication("Invalid or expired token")
	}
	log = log.With().Str("user_id", identity.UserID).Logger()

	rows, err := ingest.Canonicalize(raw, ingest.MaxServerRows)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if res := ingest.Validate(rows); !res.Valid {
		return nil, apperr.Validation(strings.Join(res.Errors, "; "))
	}

	credits, err := o.store.Profiles().GetCredits(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Profile not found")
		}
		return nil, apperr.Persistence("failed to check credits", err)
	}
	if credits <= 0 {
		o.audit(ctx, identity.UserID, "analysis_failed", "", map[string]any{
			"reason": "insufficient_credits",
		})
		return nil, apperr.InsufficientCredits("No credits remaining. Please purchase more credits to continue.")
	}

	sanitized := sanitize.Rows(rows)

	prompt, err := BuildPrompt(sanitized, anamnesis)
	if err != nil {
		return nil, apperr.Internal("failed to build prompt", err)
	}

	var rawResponse string
	err = o.retry.Do(ctx, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		resp, genErr := o.provider.GenerateAnalysis(attemptCtx, prompt)
		if genErr != nil {
			return genErr
		}
		rawResponse = resp
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("model call failed")
		if IsTransient(err) {
			o.audit(ctx, identity.UserID, "analysis_failed", "", map[string]any{
				"reason": "upstream_transient",
			})
			return nil, apperr.Wrap(apperr.CategoryUpstreamTransient, "The analysis service is overloaded, please try again shortly", err)
		}
		o.audit(ctx, identity.UserID, "analysis_failed", "", map[string]any{
			"reason": "upstream_error",
		})
		return nil, apperr.Internal("failed to generate analysis", err)
	}

	analysis, err := ParseModelResponse(rawResponse)
	if err != nil {
		log.Error().Err(err).Str("response_snippet", Snippet(rawResponse)).Msg("model returned malformed JSON")
		o.audit(ctx, identity.UserID, "analysis_failed", "", map[string]any{
			"reason": "upstream_parse_error",
		})
		return nil, apperr.UpstreamParse("The model returned a malformed analysis", err)
	}

	report, err := o.persistReport(ctx, identity.UserID, fileName, sanitized, analysis)
	if err != nil {
		o.audit(ctx, identity.UserID, "analysis_failed", "", map[string]any{
			"reason": "persistence_error",
		})
		return nil, err
	}

	// The report is already stored; a failed deduction must not make the
	// user pay twice by re-running the analysis.
	remaining := credits - 1
	if ok, deductErr := o.store.Profiles().DeductCredit(ctx, identity.UserID); deductErr != nil || !ok {
		log.Warn().Err(deductErr).Str("report_id", report.ID).Msg("credit deduction failed after report was stored")
	}

	o.audit(ctx, identity.UserID, "analysis_completed", report.ID, map[string]any{
		"transactions_count": report.TransactionsCount,
		"health_score":       report.HealthScore,
	})

	log.Info().
		Str("report_id", report.ID).
		Int("transactions_count", report.TransactionsCount).
		Int("health_score", report.HealthScore).
		Msg("analysis completed")

	return &Result{
		ReportID:         report.ID,
		Analysis:         analysis,
		RemainingCredits: remaining,
	}, nil
}

func (o *Orchestrator) persistReport(ctx context.Context, userID, fileName string, rows []ingest.Row, analysis *AIAnalysis) (*store.Report, error) {
	rawData, err := json.Marshal(rows)
	if err != nil {
		return nil, apperr.Internal("failed to encode report data", err)
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, apperr.Internal("failed to encode analysis", err)
	}

	report := &store.Report{
		UserID:            userID,
		RawData:           datatypes.JSON(rawData),
		AIAnalysis:        datatypes.JSON(analysisJSON),
		FileName:          fileName,
		TransactionsCount: len(rows),
		TotalIncome:       analysis.Metrics.TotalIncome,
		TotalExpenses:     analysis.Metrics.TotalExpense,
		HealthScore:       int(math.Round(analysis.FinancialHealthScore)),
	}
	if err := o.store.Reports().Create(ctx, report); err != nil {
		return nil, apperr.Persistence("failed to save report", err)
	}
	return report, nil
}

// audit records an audit entry, logging rather than failing on error.
func (o *Orchestrator) audit(ctx context.Context, userID, action, resourceID string, metadata map[string]any) {
	entry := &store.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: "report",
		ResourceID:   resourceID,
	}
	if metadata != nil {
		if payload, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(payload)
		}
	}
	if err := o.store.Audit().Log(ctx, entry); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}
