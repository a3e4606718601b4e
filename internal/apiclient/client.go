package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "github.com/florianilch/jobboard-cli/internal/apiclient"
	defaultUserAgent = "jobboard-cli"
	contentTypeJSON  = "application/json"
)

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds configuration for New.
type clientConfig struct {
	baseTransport http.RoundTripper
	timeout       time.Duration
	userAgent     string
	renewer       Renewer
}

// WithTransport sets the transport that performs the actual network I/O.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.baseTransport = transport
	}
}

// WithTimeout bounds each call including a possible renewal and replay. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRenewer enables transparent session renewal on 401 responses.
func WithRenewer(r Renewer) Option {
	return func(c *clientConfig) {
		c.renewer = r
	}
}

// Client sends authenticated requests to the job-board API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	tracer     trace.Tracer
}

// New creates a Client for the API rooted at baseURL. tokens supplies the bearer token.
func New(baseURL string, tokens TokenReader, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	cfg := &clientConfig{
		baseTransport: http.DefaultTransport,
		userAgent:     defaultUserAgent,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := &RenewingTransport{
		Next: &AuthTransport{
			Base:   cfg.baseTransport,
			Tokens: tokens,
		},
		Renewer: cfg.renewer,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.timeout,
			Transport: transport,
		},
		userAgent: cfg.userAgent,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends in as a JSON body (nil for none) and decodes a JSON response into out (nil to discard).
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	return c.send(req, out)
}

// Upload sends fields and file as multipart/form-data, the file under fileField.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, fileField string, file openapi_types.File, out any) error {
	data, err := file.Bytes()
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for key, val := range fields {
		if err := w.WriteField(key, val); err != nil {
			return err
		}
	}

	part, err := w.CreateFormFile(fileField, file.Filename())
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.send(req, out)
}

// send executes req inside a client span and maps the outcome onto the error taxonomy.
func (c *Client) send(req *http.Request, out any) (err error) {
	ctx, span := c.tracer.Start(req.Context(), req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req = req.WithContext(ctx)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       data,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// classify unwraps the *url.Error added by http.Client so renewal failures keep their type,
// and marks everything else that never produced a response as a network failure.
func classify(err error) error {
	var renewalErr *RenewalError
	if errors.As(err, &renewalErr) {
		return renewalErr
	}
	if errors.Is(err, ErrCredentialsMissing) {
		return ErrCredentialsMissing
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &NetworkError{Err: err}
}

// PathParam renders a path parameter the way generated OpenAPI clients do.
func PathParam(name string, value any) (string, error) {
	return runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
}
