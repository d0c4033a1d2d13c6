// Command cli is the FinGlow admin tool. It talks straight to the store,
// bypassing the API and its credit gating, so keep it away from production
// credentials you don't trust.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/finglow/finglow/internal/config"
	"github.com/finglow/finglow/internal/logger"
	"github.com/finglow/finglow/internal/store"
	"github.com/finglow/finglow/internal/store/postgres"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "seed":
		runSeed(log)
	case "grant":
		runGrant(log)
	case "reports":
		runReports(log)
	case "inspect":
		runInspect(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("FinGlow Admin CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  seed      Create a profile with an initial credit balance")
	fmt.Println("  grant     Add credits to an existing profile")
	fmt.Println("  reports   List a user's stored reports")
	fmt.Println("  inspect   Print a user's latest report")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func openStore(log zerolog.Logger) store.Store {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Database.DSN == "" {
		log.Fatal().Msg("database.dsn is required for admin commands")
	}

	st, err := postgres.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	return st
}

func cliContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	return logger.WithContext(ctx, log), cancel
}

func runSeed(log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	userID := fs.String("user-id", "", "Profile id (matches the JWT user_id claim)")
	email := fs.String("email", "", "Profile email")
	name := fs.String("name", "", "Display name")
	credits := fs.Int("credits", 1, "Initial credit balance")
	fs.Parse(os.Args[2:])

	if *userID == "" || *email == "" {
		log.Fatal().Msg("Usage: cli seed -user-id ID -email EMAIL [-name NAME] [-credits N]")
	}

	ctx, cancel := cliContext(log)
	defer cancel()

	st := openStore(log)
	if _, err := st.Profiles().Get(ctx, *userID); err == nil {
		log.Fatal().Str("user_id", *userID).Msg("Profile already exists")
	}

	profile := &store.Profile{ID: *userID, Email: *email, Name: *name, Credits: *credits}
	if err := st.Profiles().Create(ctx, profile); err != nil {
		log.Fatal().Err(err).Msg("Seed failed")
	}

	fmt.Printf("Created profile %s with %d credits\n", *userID, *credits)
}

func runGrant(log zerolog.Logger) {
	fs := flag.NewFlagSet("grant", flag.ExitOnError)
	userID := fs.String("user-id", "", "Profile id")
	credits := fs.Int("credits", 1, "Credits to add")
	fs.Parse(os.Args[2:])

	if *userID == "" || *credits <= 0 {
		log.Fatal().Msg("Usage: cli grant -user-id ID -credits N")
	}

	ctx, cancel := cliContext(log)
	defer cancel()

	st := openStore(log)
	if err := st.Profiles().AddCredits(ctx, *userID, *credits); err != nil {
		log.Fatal().Err(err).Msg("Grant failed")
	}

	balance, err := st.Profiles().GetCredits(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read balance")
	}
	fmt.Printf("Granted %d credits to %s (balance: %d)\n", *credits, *userID, balance)
}

func runReports(log zerolog.Logger) {
	fs := flag.NewFlagSet("reports", flag.ExitOnError)
	userID := fs.String("user-id", "", "Profile id")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user-id is required")
	}

	ctx, cancel := cliContext(log)
	defer cancel()

	st := openStore(log)
	summaries, err := st.Reports().ListByUser(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list reports")
	}

	if len(summaries) == 0 {
		fmt.Println("No reports.")
		return
	}
	for _, s := range summaries {
		fmt.Printf("%s  %s  rows=%d  score=%d  income=%.2f  expenses=%.2f\n",
			s.ID, s.CreatedAt.Format(time.RFC3339), s.TransactionsCount, s.HealthScore, s.TotalIncome, s.TotalExpenses)
	}
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	userID := fs.String("user-id", "", "Profile id")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user-id is required")
	}

	ctx, cancel := cliContext(log)
	defer cancel()

	st := openStore(log)
	report, err := st.Reports().LatestByUser(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load latest report")
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
	fmt.Println(string(out))
}
