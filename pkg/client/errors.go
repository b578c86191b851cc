package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the response classes callers branch on.
var (
	// ErrUnauthorized marks a 401 response: an invalid or expired
	// credential or one-time code.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited marks a 429 response on submission create.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-2xx response from the portal backend. It is
// distinct from transport failures, which surface as wrapped network
// errors.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Unwrap maps well-known statuses onto sentinel errors so callers can
// use errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	// Best effort; a non-JSON error body just yields an empty message
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	return &APIError{Status: status, Message: msg, Body: body}
}

// AsAPIError unwraps err into an *APIError if it is one
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
