package tokensource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// tokenEndpointTransport converts oauth2's form-encoded password grant into the backend's
// JSON credentials body, and the backend's token response into the OAuth2 JSON shape.
// The oauth2 package guarantees this transport only receives token endpoint requests.
type tokenEndpointTransport struct {
	base http.RoundTripper
}

// Compile-time check that tokenEndpointTransport implements http.RoundTripper.
var _ http.RoundTripper = (*tokenEndpointTransport)(nil)

// credentialsRequest is the body the token endpoint expects.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RoundTrip rewrites the request body to JSON and the success response body to OAuth2 JSON.
func (t *tokenEndpointTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// We consume the body entirely and create a new body for the cloned request.
	defer func() { _ = req.Body.Close() }()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	formData, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing form data: %w", err)
	}

	jsonBody, err := json.Marshal(credentialsRequest{
		Email:    formData.Get("username"),
		Password: formData.Get("password"),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON request: %w", err)
	}

	newReq := req.Clone(req.Context())
	newReq.Body = io.NopCloser(bytes.NewReader(jsonBody))
	newReq.ContentLength = int64(len(jsonBody))
	newReq.Header.Set("Content-Type", "application/json")
	newReq.Header.Set("Accept", "application/json")

	resp, err := t.base.RoundTrip(newReq)
	if err != nil {
		return nil, err
	}

	// Error bodies pass through untouched; oauth2 wraps them in RetrieveError.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, nil
	}

	if err := rewriteTokenResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// rewriteTokenResponse maps {"access","refresh"} to {"access_token","refresh_token"}.
// Unknown fields are preserved so they remain available through oauth2.Token.Extra.
func rewriteTokenResponse(resp *http.Response) error {
	original := resp.Body
	defer func() { _ = original.Close() }()
	raw, err := io.ReadAll(original)
	if err != nil {
		return fmt.Errorf("reading token response: %w", err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}

	if access, ok := fields["access"]; ok {
		fields["access_token"] = access
	}
	if refresh, ok := fields["refresh"]; ok {
		fields["refresh_token"] = refresh
	}
	if _, ok := fields["token_type"]; !ok {
		fields["token_type"] = "Bearer"
	}

	rewritten, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding token response: %w", err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(rewritten))
	resp.ContentLength = int64(len(rewritten))
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	resp.Header.Set("Content-Type", "application/json")
	resp.Header.Set("Content-Length", strconv.Itoa(len(rewritten)))
	return nil
}
