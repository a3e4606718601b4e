package jobboard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/jobboard-cli/internal/apiclient"
	"github.com/florianilch/jobboard-cli/internal/session"
)

// API paths.
const (
	pathRegister       = "/api/register/"
	pathCurrentUser    = "/api/current-user/"
	pathUpdateUser     = "/api/update-user/"
	pathDeleteUser     = "/api/users/delete/"
	pathVerifyUser     = "/api/verify-user/%s/"
	pathDashboardStats = "/api/dashboard-stats/"

	pathPosts             = "/post/"
	pathPost              = "/post/%s/"
	pathReportPost        = "/post/%s/report/"
	pathMyPosts           = "/post/my-posts/"
	pathUploadCV          = "/post/upload/"
	pathCompareCV         = "/post/compare-cv-with-post/"
	pathSaveInterview     = "/post/save-interview/"
	pathInterview         = "/post/interview/"
	pathSubmitInterview   = "/post/submit-interview/"
	pathEvaluateResponses = "/post/evaluate-responses/"
	pathApplications      = "/post/applications/"
	pathUpdateApplication = "/post/update-application/"
)

// TokenIssuer is implemented by tokensource.Issuer.
type TokenIssuer = apiclient.TokenIssuer

// Client exposes one method per job-board operation.
type Client struct {
	api      *apiclient.Client
	session  *session.Session
	issuer   TokenIssuer
	prompt   *apiclient.LoginPrompt
	validate *validator.Validate
}

// New creates a Client. prompt may be nil; when set it is re-armed after every login.
func New(api *apiclient.Client, sess *session.Session, issuer TokenIssuer, prompt *apiclient.LoginPrompt) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("missing API client")
	}
	if sess == nil {
		return nil, fmt.Errorf("missing session")
	}
	if issuer == nil {
		return nil, fmt.Errorf("missing token issuer")
	}

	return &Client{
		api:      api,
		session:  sess,
		issuer:   issuer,
		prompt:   prompt,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Session returns the session the client maintains.
func (c *Client) Session() *session.Session {
	return c.session
}

// ValidationError wraps invalid input rejected before any request is sent.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (c *Client) check(v any) error {
	if err := c.validate.Struct(v); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.api.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.api.Do(ctx, http.MethodPost, path, in, out)
}

// idPath fills a single path parameter.
func idPath(format string, id int) (string, error) {
	p, err := apiclient.PathParam("id", id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(format, p), nil
}
