package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/app"
	"github.com/florianilch/jobboard-cli/internal/jobboard"
	"github.com/florianilch/jobboard-cli/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand().Run(ctx, args)
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "jobboard",
		Usage: "job-board platform client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:     "log-level",
				Category: configCategory,
				Usage:    "log level (debug|info|warn|error)",
				Value:    slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:     "log-format",
				Category: configCategory,
				Usage:    "log format (text|json)",
				Value:    string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:     "telemetry--exporter",
				Category: configCategory,
				Usage:    "export logs to OpenTelemetry (none|stdout|otlphttp|otlpgrpc)",
				Value:    app.DefaultConfigTelemetryExporter,
			},
			&cli.StringFlag{
				Name:     "api--base-url",
				Category: configCategory,
				Usage:    "job-board API base URL",
				Value:    app.DefaultConfigAPIBaseURL,
			},
			&cli.DurationFlag{
				Name:     "api--timeout",
				Category: configCategory,
				Usage:    "timeout per API call including renewal, 0 for none",
			},
			&cli.StringFlag{
				Name:     "api--user-agent",
				Category: configCategory,
				Usage:    "User-Agent header sent to the API",
			},
			&cli.StringFlag{
				Name:     "storage--type",
				Category: configCategory,
				Usage:    "session storage (file|keyring|memory)",
				Value:    string(app.DefaultConfigStorage),
			},
			&cli.StringFlag{
				Name:     "storage--file",
				Category: configCategory,
				Usage:    "session state file for file storage",
			},
			&cli.StringFlag{
				Name:     "storage--keyring-service",
				Category: configCategory,
				Usage:    "service name for keyring storage",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print results as JSON",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			registerCommand(),
			whoamiCommand(),
			statusCommand(),
			profileCommand(),
			accountCommand(),
			adminCommand(),
			dashboardCommand(),
			postsCommand(),
			cvCommand(),
			applicationsCommand(),
			interviewCommand(),
			devServerCommand(),
			versionCommand(),
		},
	}
}

// appAction wraps an action that needs the configured application.
// Logging is set up before the app and flushed after the action returns.
func appAction(fn func(ctx context.Context, cmd *cli.Command, a *app.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Set up observability before creating app
		shutdown, err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat), cfg.Telemetry.Exporter)
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown.Timeout)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.WarnContext(flushCtx, "flushing telemetry failed", "error", err)
			}
		}()

		application, err := app.New(cfg, func(context.Context) {
			fmt.Fprintln(cmd.Root().ErrWriter, "Your session has ended. Run `jobboard login` to sign in again.")
		})
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}

		return fn(ctx, cmd, application)
	}
}

// clientAction wraps an action that talks to the API.
func clientAction(fn func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error) cli.ActionFunc {
	return appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
		client, err := a.Client()
		if err != nil {
			return err
		}
		return fn(ctx, cmd, client)
	})
}

// durationOrNone formats d, or "none" for zero.
func durationOrNone(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.Round(time.Second).String()
}
