// Package apiclient is the authenticated HTTP access layer for the job-board API.
//
// Requests pass through two http.RoundTripper stages:
//
//	RenewingTransport -> AuthTransport -> base transport
//
// AuthTransport attaches the current access token as a bearer credential. RenewingTransport
// watches for 401 responses and recovers at most once per request: it asks a Renewer for a
// fresh access token (re-authenticating with cached credentials) and replays the original
// request with it. A second 401, a 401 from the token endpoint itself, and any other failure
// pass through to the caller unchanged.
//
// Client layers JSON and multipart helpers on top and maps failures onto the error taxonomy
// in errors.go.
package apiclient
