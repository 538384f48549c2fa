// Command migrate applies or rolls back the goose migrations under
// migrations/ against the configured database. It is intended to run as a
// one-shot deploy step, not as part of the main server process.
//
// Flags:
//
//	--command  migrate subcommand: up, down, status, up-by-one (default: up)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/tandemly/srscore/internal/app"
	"github.com/tandemly/srscore/internal/config"
)

const migrationsDir = "migrations"

func main() {
	commandFlag := flag.String("command", "up", "goose command: up, down, status, up-by-one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("sql.Open", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("db ping", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// goose.NewProvider with os.DirFS handles $$-delimited PL/pgSQL bodies
	// correctly, unlike the legacy goose.Up which splits on semicolons.
	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(migrationsDir))
	if err != nil {
		logger.Error("goose new provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var results []*goose.MigrationResult
	switch *commandFlag {
	case "up":
		results, err = provider.Up(ctx)
	case "up-by-one":
		var r *goose.MigrationResult
		r, err = provider.UpByOne(ctx)
		if r != nil {
			results = []*goose.MigrationResult{r}
		}
	case "down":
		var r *goose.MigrationResult
		r, err = provider.Down(ctx)
		if r != nil {
			results = []*goose.MigrationResult{r}
		}
	case "status":
		var statuses []*goose.MigrationStatus
		statuses, err = provider.Status(ctx)
		for _, s := range statuses {
			logger.Info("migration status",
				slog.String("source", s.Source.Path),
				slog.String("state", string(s.State)),
			)
		}
	default:
		logger.Error("unknown command", slog.String("command", *commandFlag))
		os.Exit(1)
	}

	if err != nil {
		logger.Error("migration failed", slog.String("command", *commandFlag), slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, r := range results {
		logger.Info("migration applied",
			slog.String("source", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
}
