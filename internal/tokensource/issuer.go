package tokensource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// TokenPath is the endpoint that exchanges credentials for a token pair.
const TokenPath = "/api/token/"

// defaultTimeout bounds issuance even when the caller's context has no deadline.
const defaultTimeout = 30 * time.Second

// IssuerOption configures an Issuer.
type IssuerOption func(*issuerConfig)

// issuerConfig holds configuration for NewIssuer.
type issuerConfig struct {
	baseTransport http.RoundTripper
	timeout       time.Duration
}

// WithTransport sets a custom base transport for issuance requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) IssuerOption {
	return func(c *issuerConfig) {
		c.baseTransport = transport
	}
}

// WithTimeout overrides the default issuance timeout. Zero disables it.
func WithTimeout(d time.Duration) IssuerOption {
	return func(c *issuerConfig) {
		c.timeout = d
	}
}

// IssueError is returned when the token endpoint answers with a non-2xx status.
type IssueError struct {
	StatusCode int
	Body       []byte
}

func (e *IssueError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, detail)
	}
	return fmt.Sprintf("token endpoint returned %d", e.StatusCode)
}

// Detail extracts the backend's "detail" message, if any.
func (e *IssueError) Detail() string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	return body.Detail
}

// Issuer exchanges login credentials for token pairs.
type Issuer struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewIssuer creates an Issuer for the API rooted at baseURL.
func NewIssuer(baseURL string, opts ...IssuerOption) (*Issuer, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	cfg := &issuerConfig{
		baseTransport: http.DefaultTransport,
		timeout:       defaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Issuer{
		config: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  TokenURL(baseURL),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{
			Timeout: cfg.timeout,
			Transport: &tokenEndpointTransport{
				base: cfg.baseTransport,
			},
		},
	}, nil
}

// TokenURL returns the absolute token endpoint URL for baseURL.
func TokenURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + TokenPath
}

// PasswordToken requests a new token pair for the given credentials.
// A rejection by the endpoint is returned as *IssueError.
func (i *Issuer) PasswordToken(ctx context.Context, email, password string) (*oauth2.Token, error) {
	// oauth2 picks up custom HTTP clients from the context (oauth2.HTTPClient key).
	ctx = context.WithValue(ctx, oauth2.HTTPClient, i.httpClient)

	tok, err := i.config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &IssueError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       retrieveErr.Body,
			}
		}
		return nil, err
	}

	return tok, nil
}
