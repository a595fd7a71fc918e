package api

import (
	"errors"
	"fmt"
	"net/http"
)

// The client classifies every non-success response into one of the error
// types below. It never retries; retry policy belongs to callers.

// AuthError indicates the token was rejected (HTTP 401/403). No further
// API call can succeed with the same credentials.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github authentication failed (status %d)", e.StatusCode)
}

// NotFoundError indicates the requested resource does not exist or is not
// visible to the token (HTTP 404).
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("github resource not found: %s", e.Path)
}

// RateLimitedError indicates the request was rejected because the API
// rate limit is exhausted (HTTP 429, or 403 with a depleted quota).
type RateLimitedError struct {
	StatusCode int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("github rate limit exceeded (status %d)", e.StatusCode)
}

// TransientError indicates a server-side or network failure (HTTP 5xx or a
// failed request) that may succeed on a later attempt.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient github error: %v", e.Err)
	}
	return fmt.Sprintf("transient github error (status %d)", e.StatusCode)
}

func (e *TransientError) Unwrap() error { return e.Err }

// MergeRejectedError indicates GitHub refused a merge call (HTTP 405/409),
// for example due to branch protection or a conflict surfaced at merge time.
type MergeRejectedError struct {
	StatusCode int
	Message    string
}

func (e *MergeRejectedError) Error() string {
	return fmt.Sprintf("merge rejected (status %d): %s", e.StatusCode, e.Message)
}

// UnexpectedResponseError covers every status code the client has no
// specific handling for.
type UnexpectedResponseError struct {
	StatusCode int
	Body       string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected github response (status %d): %s", e.StatusCode, e.Body)
}

func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsRateLimited(err error) bool {
	var e *RateLimitedError
	return errors.As(err, &e)
}

func IsTransient(err error) bool {
	var e *TransientError
	return errors.As(err, &e)
}

func IsMergeRejected(err error) bool {
	var e *MergeRejectedError
	return errors.As(err, &e)
}

// responseError maps a non-2xx response to the error taxonomy.
// A 403 with a depleted rate-limit quota is a rate limit, not an auth failure.
func responseError(path string, statusCode int, header http.Header, body []byte) error {
	switch {
	case statusCode == http.StatusUnauthorized:
		return &AuthError{StatusCode: statusCode}
	case statusCode == http.StatusForbidden:
		if header.Get("X-RateLimit-Remaining") == "0" {
			return &RateLimitedError{StatusCode: statusCode}
		}
		return &AuthError{StatusCode: statusCode}
	case statusCode == http.StatusNotFound:
		return &NotFoundError{Path: path}
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitedError{StatusCode: statusCode}
	case statusCode >= 500:
		return &TransientError{StatusCode: statusCode}
	default:
		return &UnexpectedResponseError{StatusCode: statusCode, Body: string(body)}
	}
}
