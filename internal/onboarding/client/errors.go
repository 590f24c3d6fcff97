package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/georgemunganga/supplier-onboarding/internal/modules/auth"
	"github.com/georgemunganga/supplier-onboarding/internal/modules/supplier"
)

// ErrNoToken is returned by supplier calls made before a session token is set.
var ErrNoToken = errors.New("client: no access token")

// APIError is a non-2xx answer from the onboarding API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("onboarding api: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known status codes onto the domain sentinels so callers can
// use errors.Is without inspecting codes.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return supplier.ErrNotFound
	case http.StatusConflict:
		return supplier.ErrIllegalTransition
	case http.StatusUnauthorized:
		return auth.ErrInvalidToken
	case http.StatusForbidden:
		return auth.ErrForbidden
	}
	return nil
}

// Temporary reports whether a retry could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

type errorBody struct {
	Error  string                    `json:"error"`
	Issues []supplier.ReadinessIssue `json:"issues"`
}

func decodeError(status int, body errorBody) error {
	if status == http.StatusUnprocessableEntity && len(body.Issues) > 0 {
		return &supplier.ReadinessError{Issues: body.Issues}
	}
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
