package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/storefront/internal/app"
	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/logutil"
	"github.com/iliyamo/storefront/internal/queue"
	"github.com/iliyamo/storefront/internal/repository"
)

func serveCmd() *cli.Command {
	var consume bool
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "consume-mail",
				Usage:       "Also drain the mail queue into the outbox file (needs RABBITMQ_URL)",
				Destination: &consume,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cfg, logger, err := setup(c.Context)
			if err != nil {
				return err
			}

			users, closeUsers, err := app.OpenUserStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeUsers() }()

			rdb := config.NewRedisClient(config.LoadRedisConfig())
			if rdb == nil {
				logger.Warn().Msg("redis unavailable: rate limiting off, cache in memory")
			} else {
				defer func() { _ = rdb.Close() }()
			}

			a, err := app.New(app.Options{
				Config:    cfg,
				RateLimit: config.LoadRateLimitConfig(),
				Cache:     config.LoadCacheConfig(),
				Users:     users,
				Redis:     rdb,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			if consume && cfg.AMQPURL != "" {
				go func() {
					outbox := repository.NewOutboxRepo(cfg.DataDir)
					if err := queue.StartMailConsumer(ctx, cfg.AMQPURL, cfg.MailQueue, outbox); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error().Err(err).Msg("mail consumer stopped")
					}
				}()
			}

			return serve(ctx, ":"+cfg.Port, a.Echo)
		},
	}
}

// serve runs e until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, addr string, e *echo.Echo) error {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", addr).Logger()
	e.Server.ReadHeaderTimeout = time.Minute
	e.Server.ReadTimeout = 5 * time.Minute
	e.Server.WriteTimeout = time.Minute
	e.Server.IdleTimeout = 5 * time.Minute

	errc := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting HTTP server")
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Initiating shutdown process")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("Shutdown completed")
		return nil
	}
}
