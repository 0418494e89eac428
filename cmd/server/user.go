package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/iliyamo/storefront/internal/app"
	"github.com/iliyamo/storefront/internal/service"
)

func userCmd() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage accounts",
		Subcommands: []*cli.Command{
			createAdminCmd(),
			promoteCmd(),
		},
	}
}

func createAdminCmd() *cli.Command {
	var name, email, password string
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create a verified administrator; without --password it is read from the terminal or stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true, Destination: &name},
			&cli.StringFlag{Name: "email", Required: true, Destination: &email},
			&cli.StringFlag{Name: "password", Destination: &password},
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

			if password == "" {
				if password, err = readPassword(); err != nil {
					return err
				}
			}
			accounts := service.NewAccountService(users, nil, cfg.BaseURL, cfg.MinPasswordLen, cfg.VerifyTTL)
			u, err := accounts.CreateAdmin(ctx, name, email, password)
			if errors.Is(err, service.ErrInvalidInput) {
				return fmt.Errorf("name and email are required and the password needs %d characters", cfg.MinPasswordLen)
			}
			if err != nil {
				return err
			}
			logger.Info().Str("user_id", u.ID).Str("email", u.Email).Msg("administrator created")
			return nil
		},
	}
}

func promoteCmd() *cli.Command {
	var email string
	return &cli.Command{
		Name:  "promote",
		Usage: "Grant administrator rights to an existing account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true, Destination: &email},
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

			accounts := service.NewAccountService(users, nil, cfg.BaseURL, cfg.MinPasswordLen, cfg.VerifyTTL)
			u, err := accounts.Promote(ctx, email)
			if err != nil {
				return fmt.Errorf("promote %s: %w", email, err)
			}
			logger.Info().Str("user_id", u.ID).Msg("user promoted")
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal and reads one line from
// stdin otherwise.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		bs, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(bs), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
