package apiclient

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/florianilch/jobboard-cli/internal/tokensource"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// TokenReader returns the current access token, or "" when there is none.
type TokenReader interface {
	AccessToken(ctx context.Context) (string, error)
}

// AuthTransport attaches the current access token to every outgoing request.
// Requests that already carry an Authorization header are left as they are.
type AuthTransport struct {
	Base   http.RoundTripper
	Tokens TokenReader
}

// Compile-time check that AuthTransport implements http.RoundTripper.
var _ http.RoundTripper = (*AuthTransport)(nil)

// RoundTrip never fails on its own: a token read error sends the request unauthenticated
// and leaves rejection to the server.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	newReq := req.Clone(req.Context())

	if newReq.Header.Get(RequestIDHeader) == "" {
		newReq.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if newReq.Header.Get("Authorization") == "" && t.Tokens != nil {
		token, err := t.Tokens.AccessToken(req.Context())
		if err != nil {
			slog.WarnContext(req.Context(), "reading access token failed, sending unauthenticated", "error", err)
		}
		if token != "" {
			(&oauth2.Token{AccessToken: token}).SetAuthHeader(newReq)
		}
	}

	return base.RoundTrip(newReq)
}

// DecisionKind is the outcome of inspecting a first attempt.
type DecisionKind int

const (
	// Proceed hands the first attempt's response or error to the caller.
	Proceed DecisionKind = iota
	// RetryWith replays the request once with Decision.Token.
	RetryWith
	// Fail rejects the request with Decision.Err.
	Fail
)

func (k DecisionKind) String() string {
	switch k {
	case Proceed:
		return "proceed"
	case RetryWith:
		return "retry"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Decision tells RoundTrip what to do after the first attempt.
type Decision struct {
	Kind  DecisionKind
	Token string
	Err   error
}

// RenewingTransport recovers from expired sessions. A request is eligible for renewal when
// its first attempt returned 401 and it does not target the token endpoint. Eligible requests
// are replayed exactly once; the replay's outcome is returned as-is.
type RenewingTransport struct {
	// Next sends both attempts, usually an AuthTransport.
	Next http.RoundTripper
	// Renewer obtains a fresh access token. Nil disables renewal.
	Renewer Renewer
}

// Compile-time check that RenewingTransport implements http.RoundTripper.
var _ http.RoundTripper = (*RenewingTransport)(nil)

// RoundTrip implements the per-request state machine.
func (t *RenewingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}

	first, replayBody, err := prepareReplay(req)
	if err != nil {
		return nil, err
	}

	resp, err := next.RoundTrip(first)

	decision := t.decide(req, resp, err)
	switch decision.Kind {
	case RetryWith:
		return t.replay(next, req, replayBody, decision.Token)
	case Fail:
		return nil, decision.Err
	default:
		return resp, err
	}
}

// decide inspects the first attempt and, for eligible requests, performs the renewal.
// It is only ever called for first attempts.
func (t *RenewingTransport) decide(req *http.Request, resp *http.Response, err error) Decision {
	if err != nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return Decision{Kind: Proceed}
	}
	if t.Renewer == nil || isTokenEndpoint(req) {
		return Decision{Kind: Proceed}
	}

	ctx := req.Context()
	slog.DebugContext(ctx, "access token rejected, renewing session", "method", req.Method, "path", req.URL.Path)

	// The 401 is superseded by the renewal outcome.
	drain(resp)

	token, renewErr := t.Renewer.Renew(ctx)
	if renewErr != nil {
		return Decision{Kind: Fail, Err: renewErr}
	}
	return Decision{Kind: RetryWith, Token: token}
}

// replay sends the request a second time with token. Its result is final.
func (t *RenewingTransport) replay(next http.RoundTripper, req *http.Request, body func() (io.ReadCloser, error), token string) (*http.Response, error) {
	retry := req.Clone(req.Context())
	if body != nil {
		rc, err := body()
		if err != nil {
			return nil, err
		}
		retry.Body = rc
		retry.GetBody = body
	}
	(&oauth2.Token{AccessToken: token}).SetAuthHeader(retry)

	return next.RoundTrip(retry)
}

// prepareReplay returns the first attempt and a body factory for the replay.
// Bodies without GetBody are buffered so they can be sent twice.
func prepareReplay(req *http.Request) (*http.Request, func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil, nil
	}
	if req.GetBody != nil {
		return req, req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, nil, err
	}

	factory := func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	first := req.Clone(req.Context())
	first.Body, _ = factory()
	first.GetBody = factory
	return first, factory, nil
}

func isTokenEndpoint(req *http.Request) bool {
	return strings.HasSuffix(req.URL.Path, tokensource.TokenPath)
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
