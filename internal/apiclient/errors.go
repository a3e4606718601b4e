package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrLoginRequired is matched by every failure that ended the session and needs a fresh login.
var ErrLoginRequired = errors.New("login required")

// ErrCredentialsMissing is returned when a 401 could not be recovered because no cached
// credentials were available. No renewal request is sent in that case.
var ErrCredentialsMissing = fmt.Errorf("%w: cached credentials missing", ErrLoginRequired)

// RenewalError carries the reason silent re-authentication failed.
// The original 401 is not included; it is superseded by the renewal failure.
type RenewalError struct {
	Err error
}

func (e *RenewalError) Error() string {
	return "session renewal failed: " + e.Err.Error()
}

// Unwrap exposes both the cause and ErrLoginRequired to errors.Is/As.
func (e *RenewalError) Unwrap() []error {
	return []error{ErrLoginRequired, e.Err}
}

// NetworkError is returned when no response was received from the server.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is returned for any non-2xx response that reaches the caller.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if detail := e.Detail(); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// Unauthorized reports whether the server rejected the request's credentials.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Detail returns a human-readable message from the response body: the "detail" field when
// present, otherwise the field errors flattened as "field: message" in key order.
func (e *StatusError) Detail() string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &body); err == nil && body.Detail != "" {
		return body.Detail
	}

	fields := e.FieldErrors()
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// FieldErrors decodes validation errors shaped {"field": ["message", ...]} or {"field": "message"}.
func (e *StatusError) FieldErrors() map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &raw); err != nil {
		return nil
	}

	fields := make(map[string][]string, len(raw))
	for key, value := range raw {
		if key == "detail" {
			continue
		}
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			fields[key] = list
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			fields[key] = []string{single}
		}
	}
	return fields
}
