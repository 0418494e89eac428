package main

import (
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/storefront/internal/app"
	"github.com/iliyamo/storefront/internal/database"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending MySQL migrations (STORE_DRIVER=mysql)",
		Action: func(c *cli.Context) error {
			ctx, cfg, logger, err := setup(c.Context)
			if err != nil {
				return err
			}
			db, err := app.OpenDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}
