package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finglow/finglow/internal/analysis"
	"github.com/finglow/finglow/internal/api/handlers"
	"github.com/finglow/finglow/internal/api/middleware"
	"github.com/finglow/finglow/internal/auth"
	"github.com/finglow/finglow/internal/billing"
	"github.com/finglow/finglow/internal/config"
	"github.com/finglow/finglow/internal/llm"
	"github.com/finglow/finglow/internal/logger"
	"github.com/finglow/finglow/internal/store"
	"github.com/finglow/finglow/internal/store/memory"
	"github.com/finglow/finglow/internal/store/postgres"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret is required")
	}

	ctx := context.Background()

	// Store: Postgres when a DSN is configured, in-memory otherwise.
	var st store.Store
	if cfg.Database.DSN != "" {
		pg, err := postgres.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		defer pg.Close()
		st = pg
		log.Info().Msg("Using Postgres store")
	} else {
		st = memory.New()
		log.Warn().Msg("No database DSN configured - using in-memory store")
	}

	var provider analysis.Provider
	switch cfg.AI.Provider {
	case "openai":
		provider = llm.NewOpenAIClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	default:
		gemini, err := llm.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create model client")
		}
		provider = gemini
	}
	log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("Model provider ready")

	verifier := auth.NewJWTVerifier(cfg.JWT.Secret)

	retry := analysis.RetryPolicy{
		MaxAttempts:  cfg.AI.MaxRetries,
		InitialDelay: cfg.AI.InitialDelay,
		Multiplier:   2,
		Retryable:    analysis.IsTransient,
	}
	orchestrator := analysis.NewOrchestrator(verifier, st, provider, retry, cfg.AI.Timeout)

	abacatepay := billing.NewAbacatePayClient(cfg.AbacatePay.APIKey, cfg.AbacatePay.APIURL)
	checkoutSvc := billing.NewCheckoutService(verifier, st, abacatepay)
	webhookProc := billing.NewWebhookProcessor(st, cfg.AbacatePay.WebhookSecret)
	if cfg.AbacatePay.WebhookSecret == "" {
		log.Warn().Msg("No webhook secret configured - webhook signatures will not be checked")
	}

	// Initialize handlers
	analyzeHandler := handlers.NewAnalyzeHandler(orchestrator)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutSvc)
	webhookHandler := handlers.NewWebhookHandler(webhookProc)
	reportsHandler := handlers.NewReportsHandler(verifier, st.Reports())

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/analyze", postOnly(analyzeHandler.Analyze))
	mux.HandleFunc("/api/analyze-file", postOnly(analyzeHandler.AnalyzeFile))
	mux.HandleFunc("/api/create-checkout", postOnly(checkoutHandler.CreateCheckout))
	mux.HandleFunc("/api/webhook", postOnly(webhookHandler.HandleWebhook))

	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		reportsHandler.ListReports(w, r)
	})

	mux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		id := r.URL.Path[len("/api/reports/"):]
		switch id {
		case "":
			reportsHandler.ListReports(w, r)
		case "latest":
			reportsHandler.LatestReport(w, r)
		default:
			reportsHandler.GetReport(w, r, id)
		}
	})

	mux.HandleFunc("/healthz", handlers.Health)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(log)(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		// Long enough for the worst-case model retry schedule.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
}
