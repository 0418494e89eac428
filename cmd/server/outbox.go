package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/iliyamo/storefront/internal/queue"
	"github.com/iliyamo/storefront/internal/repository"
)

func outboxCmd() *cli.Command {
	return &cli.Command{
		Name:  "outbox",
		Usage: "Inspect and feed the local mail outbox",
		Subcommands: []*cli.Command{
			{
				Name:  "consume",
				Usage: "Drain the mail queue into the outbox file until interrupted",
				Action: func(c *cli.Context) error {
					ctx, cfg, _, err := setup(c.Context)
					if err != nil {
						return err
					}
					if cfg.AMQPURL == "" {
						return errors.New("RABBITMQ_URL is not set")
					}
					err = queue.StartMailConsumer(ctx, cfg.AMQPURL, cfg.MailQueue, repository.NewOutboxRepo(cfg.DataDir))
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				},
			},
			{
				Name:  "list",
				Usage: "Print the stored mails as JSON",
				Action: func(c *cli.Context) error {
					ctx, cfg, _, err := setup(c.Context)
					if err != nil {
						return err
					}
					mails, err := repository.NewOutboxRepo(cfg.DataDir).List(ctx)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(mails)
				},
			},
		},
	}
}
