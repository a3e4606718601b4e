// Package devserver is an in-memory stand-in for the job-board REST API.
//
// It implements the endpoints the client consumes closely enough to exercise login, silent
// session renewal and every domain operation locally. Nothing is persisted. Matching and
// interview evaluation are placeholders.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/florianilch/jobboard-cli/internal/observability/middleware"
)

// ExpireTokensPath invalidates every issued access token when POSTed to.
const ExpireTokensPath = "/dev/expire-tokens/"

// Server is the in-memory job-board API.
type Server struct {
	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server
	state   *state
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates an empty Server.
func New() *Server {
	s := &Server{
		mux:   http.NewServeMux(),
		state: newState(),
	}
	s.routes()
	s.handler = middleware.Chain(s.mux,
		middleware.Logging(slog.Default()),
		Recovery,
	)
	return s
}

func (s *Server) routes() {
	auth := s.requireAuth
	employer := func(h http.HandlerFunc) http.HandlerFunc { return auth(requireRole(h, roleEmployer, roleAdmin)) }
	employee := func(h http.HandlerFunc) http.HandlerFunc { return auth(requireRole(h, roleEmployee)) }
	admin := func(h http.HandlerFunc) http.HandlerFunc { return auth(requireRole(h, roleAdmin)) }

	s.mux.HandleFunc("POST /api/token/{$}", s.handleToken)
	s.mux.HandleFunc("POST /api/register/{$}", s.handleRegister)
	s.mux.HandleFunc("GET /api/current-user/{$}", auth(s.handleCurrentUser))
	s.mux.HandleFunc("PUT /api/update-user/{$}", auth(s.handleUpdateUser))
	s.mux.HandleFunc("DELETE /api/users/delete/{$}", auth(s.handleDeleteUser))
	s.mux.HandleFunc("POST /api/verify-user/{id}/{$}", admin(s.handleVerifyUser))
	s.mux.HandleFunc("GET /api/dashboard-stats/{$}", auth(s.handleDashboardStats))

	s.mux.HandleFunc("POST /post/{$}", employer(s.handleCreatePost))
	s.mux.HandleFunc("GET /post/{$}", auth(s.handleListPosts))
	s.mux.HandleFunc("GET /post/my-posts/{$}", employer(s.handleMyPosts))
	s.mux.HandleFunc("GET /post/{id}/{$}", auth(s.handleGetPost))
	s.mux.HandleFunc("PUT /post/{id}/{$}", employer(s.handleUpdatePost))
	s.mux.HandleFunc("DELETE /post/{id}/{$}", employer(s.handleDeletePost))
	s.mux.HandleFunc("POST /post/{id}/report/{$}", auth(s.handleReportPost))

	s.mux.HandleFunc("POST /post/upload/{$}", employee(s.handleUploadCV))
	s.mux.HandleFunc("POST /post/compare-cv-with-post/{$}", employee(s.handleCompareCV))
	s.mux.HandleFunc("POST /post/save-interview/{$}", employee(s.handleSaveInterview))
	s.mux.HandleFunc("POST /post/interview/{$}", employee(s.handleInterview))
	s.mux.HandleFunc("POST /post/submit-interview/{$}", employee(s.handleSubmitInterview))
	s.mux.HandleFunc("POST /post/evaluate-responses/{$}", auth(s.handleEvaluateResponses))
	s.mux.HandleFunc("GET /post/applications/{$}", auth(s.handleApplications))
	s.mux.HandleFunc("PATCH /post/update-application/{$}", employer(s.handleUpdateApplication))

	s.mux.HandleFunc("POST "+ExpireTokensPath+"{$}", s.handleExpireTokens)
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// AddUser creates a verified account directly, bypassing registration.
func (s *Server) AddUser(email, password, firstName, lastName, role string) (int, error) {
	switch role {
	case roleEmployee, roleEmployer, roleAdmin:
	default:
		return 0, fmt.Errorf("unknown role %q", role)
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if s.state.userByEmail(email) != nil {
		return 0, fmt.Errorf("user %s already exists", email)
	}
	u, err := s.state.addUser(email, password, firstName, lastName, role, true)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// ExpireTokens invalidates all access tokens, as if they had expired server-side.
// Refresh tokens and accounts are kept.
func (s *Server) ExpireTokens() int {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	n := len(s.state.access)
	clear(s.state.access)
	return n
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.InfoContext(ctx, "development API listening", "address", listener.Addr().String())
	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

func (s *Server) handleExpireTokens(w http.ResponseWriter, r *http.Request) {
	n := s.ExpireTokens()
	slog.InfoContext(r.Context(), "expired access tokens", "count", n)
	w.WriteHeader(http.StatusNoContent)
}
