package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/florianilch/jobboard-cli/internal/session"
)

// Renewer obtains a fresh access token after the current one was rejected.
type Renewer interface {
	Renew(ctx context.Context) (string, error)
}

// TokenIssuer exchanges login credentials for a token pair.
type TokenIssuer interface {
	PasswordToken(ctx context.Context, email, password string) (*oauth2.Token, error)
}

// CredentialRenewer re-authenticates with the encrypted credentials cached in the session.
//
// Concurrent renewals share one in-flight issuance request. Callers that arrive while a
// renewal is running receive its result instead of issuing their own.
type CredentialRenewer struct {
	session   *session.Session
	issuer    TokenIssuer
	navigator Navigator

	group singleflight.Group
}

// Compile-time check that CredentialRenewer implements Renewer.
var _ Renewer = (*CredentialRenewer)(nil)

// NewCredentialRenewer creates a CredentialRenewer. navigator may be nil.
func NewCredentialRenewer(sess *session.Session, issuer TokenIssuer, navigator Navigator) (*CredentialRenewer, error) {
	if sess == nil {
		return nil, fmt.Errorf("missing session")
	}
	if issuer == nil {
		return nil, fmt.Errorf("missing token issuer")
	}

	return &CredentialRenewer{
		session:   sess,
		issuer:    issuer,
		navigator: navigator,
	}, nil
}

// Renew returns a new access token or the reason the session had to be ended.
// A cancelled ctx abandons the wait but not the shared renewal.
func (r *CredentialRenewer) Renew(ctx context.Context) (string, error) {
	ch := r.group.DoChan("renew", func() (any, error) {
		return r.renew(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *CredentialRenewer) renew(ctx context.Context) (string, error) {
	email, password, err := r.session.Credentials(ctx)
	if errors.Is(err, session.ErrNoCredentials) {
		slog.WarnContext(ctx, "cannot renew session, no cached credentials")
		r.endSession(ctx)
		return "", ErrCredentialsMissing
	}
	if err != nil {
		r.endSession(ctx)
		return "", &RenewalError{Err: err}
	}

	tok, err := r.issuer.PasswordToken(ctx, email, password)
	if err != nil {
		slog.WarnContext(ctx, "session renewal rejected", "error", err)
		r.endSession(ctx)
		return "", &RenewalError{Err: err}
	}

	if err := r.session.SetTokens(ctx, session.TokenPair{Access: tok.AccessToken, Refresh: tok.RefreshToken}); err != nil {
		slog.ErrorContext(ctx, "storing renewed tokens failed", "error", err)
		r.endSession(ctx)
		return "", &RenewalError{Err: fmt.Errorf("storing renewed tokens: %w", err)}
	}

	slog.InfoContext(ctx, "session renewed")
	return tok.AccessToken, nil
}

// endSession tears down all session state and sends the user back to login.
func (r *CredentialRenewer) endSession(ctx context.Context) {
	if err := r.session.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear session", "error", err)
	}
	if r.navigator != nil {
		r.navigator.RedirectToLogin(ctx)
	}
}
