package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/app"
	"github.com/florianilch/jobboard-cli/internal/devserver"
)

func devServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "devserver",
		Usage: "run an in-memory job-board API for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "devserver--host",
				Category: configCategory,
				Usage:    "host to listen on",
				Value:    app.DefaultConfigDevServerHost,
			},
			&cli.IntFlag{
				Name:     "devserver--port",
				Category: configCategory,
				Usage:    "port to listen on",
				Value:    app.DefaultConfigDevServerPort,
			},
			&cli.DurationFlag{
				Name:     "shutdown--timeout",
				Category: configCategory,
				Usage:    "graceful shutdown timeout",
				Value:    app.DefaultConfigShutdownTimeout,
			},
			&cli.StringSliceFlag{
				Name:  "user",
				Usage: "seed an account as email:password:role (repeatable)",
			},
			&cli.DurationFlag{
				Name:  "expire-tokens-every",
				Usage: "invalidate all access tokens periodically to exercise session renewal, 0 to disable",
			},
		},
		Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			srv := devserver.New()
			for _, entry := range cmd.StringSlice("user") {
				if err := seedUser(srv, entry); err != nil {
					return err
				}
			}

			if every := cmd.Duration("expire-tokens-every"); every > 0 {
				go expireTokens(ctx, srv, every)
			}

			fmt.Fprintf(stdout(cmd), "Development API listening on http://%s\n", a.DevAddress())
			return a.ServeDev(ctx, srv)
		}),
	}
}

// seedUser parses email:password:role and adds a verified account.
func seedUser(srv *devserver.Server, entry string) error {
	email, password, role, err := splitUser(entry)
	if err != nil {
		return err
	}
	id, err := srv.AddUser(email, password, "Dev", role, role)
	if err != nil {
		return fmt.Errorf("seeding %s: %w", email, err)
	}
	slog.Info("seeded user", "id", id, "email", email, "role", role)
	return nil
}

func splitUser(entry string) (email, password, role string, err error) {
	// Passwords may contain colons, so the role is taken from the end.
	email, rest, ok := strings.Cut(entry, ":")
	i := strings.LastIndex(rest, ":")
	if !ok || i < 0 {
		return "", "", "", fmt.Errorf("invalid --user %q, want email:password:role", entry)
	}
	password, role = rest[:i], rest[i+1:]
	if email == "" || password == "" || role == "" {
		return "", "", "", fmt.Errorf("invalid --user %q, want email:password:role", entry)
	}
	return email, password, role, nil
}

func expireTokens(ctx context.Context, srv *devserver.Server, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := srv.ExpireTokens()
			slog.InfoContext(ctx, "expired access tokens", "count", n)
		}
	}
}
