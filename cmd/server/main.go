package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/logutil"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "storefront",
		Usage: "Storefront API with cookie sessions",
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			userCmd(),
			outboxCmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}

// setup loads and validates the configuration and installs the process
// logger in the returned context.
func setup(ctx context.Context) (context.Context, config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return ctx, config.Config{}, log.Logger, err
	}
	logger := logutil.Setup(cfg.LogLevel, cfg.LogPretty).With().Str("env", cfg.Env).Logger()
	return logutil.WithLogger(ctx, logger), cfg, logger, nil
}
