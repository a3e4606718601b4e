package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/jobboard-cli/internal/apiclient"
	"github.com/florianilch/jobboard-cli/internal/credstore"
	"github.com/florianilch/jobboard-cli/internal/devserver"
	"github.com/florianilch/jobboard-cli/internal/jobboard"
	"github.com/florianilch/jobboard-cli/internal/session"
	"github.com/florianilch/jobboard-cli/internal/tokensource"
)

// App wires the client stack from configuration and runs the development server.
type App struct {
	cfg    *Config
	prompt *apiclient.LoginPrompt

	// client builds the stack on first use so commands that never reach the API
	// do not touch the keyring or the state file.
	client func() (*jobboard.Client, error)
}

// New creates a new App instance. notify is called once when the session ends and the
// user has to log in again; it may be nil.
func New(cfg *Config, notify func(ctx context.Context)) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		cfg:    cfg,
		prompt: &apiclient.LoginPrompt{Notify: notify},
	}
	a.client = sync.OnceValues(a.build)
	return a, nil
}

// Client returns the job-board client, constructing it on first call.
func (a *App) Client() (*jobboard.Client, error) {
	return a.client()
}

// Session returns the session behind Client.
func (a *App) Session() (*session.Session, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	return c.Session(), nil
}

// LoginPrompt returns the hook invoked when the session ends.
func (a *App) LoginPrompt() *apiclient.LoginPrompt {
	return a.prompt
}

// build creates kvstore -> credstore -> session -> issuer -> apiclient -> jobboard.
func (a *App) build() (*jobboard.Client, error) {
	if a.cfg.Crypto.Key == "" {
		slog.Warn("no credential encryption key configured, cached credentials are weakly protected")
	}

	store, err := a.cfg.Storage.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	cipher, err := credstore.NewCipher(a.cfg.Crypto.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential cipher: %w", err)
	}

	sess, err := session.New(store, cipher)
	if err != nil {
		return nil, err
	}

	issuer, err := tokensource.NewIssuer(a.cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	renewer, err := apiclient.NewCredentialRenewer(sess, issuer, a.prompt)
	if err != nil {
		return nil, err
	}

	api, err := apiclient.New(a.cfg.API.BaseURL, sess,
		apiclient.WithRenewer(renewer),
		apiclient.WithTimeout(a.cfg.API.Timeout),
		apiclient.WithUserAgent(a.cfg.API.UserAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return jobboard.New(api, sess, issuer, a.prompt)
}

// DevAddress returns the configured development server address.
func (a *App) DevAddress() string {
	return net.JoinHostPort(a.cfg.DevServer.Host, strconv.FormatUint(uint64(a.cfg.DevServer.Port), 10))
}

// ServeDev runs the in-memory development API and blocks until ctx is done or the server fails.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) ServeDev(ctx context.Context, srv *devserver.Server) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.DevAddress()
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting development API", "address", address)
	devErrCh, err := srv.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("development API startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, srv.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-devErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "development API runtime error", "error", err)
				return fmt.Errorf("devserver: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("development API stopped")
	return nil
}
