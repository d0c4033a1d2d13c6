// Command migrate applies the database schema to the configured Postgres
// instance. The API server also migrates on startup; this exists so deploys
// can run the migration as a separate step with narrower credentials.
package main

import (
	"github.com/finglow/finglow/internal/config"
	"github.com/finglow/finglow/internal/logger"
	"github.com/finglow/finglow/internal/store/postgres"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Database.DSN == "" {
		log.Fatal().Msg("database.dsn is required")
	}

	st, err := postgres.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	defer st.Close()

	log.Info().Msg("Schema is up to date")
}
