package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// CredentialError reports a missing API key. It is a configuration error:
// raised once when the provider is built, never retried.
type CredentialError struct {
	Provider string
	EnvVars  []string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("configuration error: %s requires %s to be set",
		e.Provider, strings.Join(e.EnvVars, " or "))
}

// AuthError reports credentials rejected by the upstream (HTTP 401/403).
type AuthError struct {
	Provider string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication error: %s", e.Provider, e.Message)
}

// RateLimitError reports an HTTP 429 from the upstream.
type RateLimitError struct {
	Provider string
}

func (e *RateLimitError) Error() string { return e.Provider + ": rate limited" }

// StatusError reports any other non-200 upstream reply.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsCredentialError checks if an error is a missing-credential error.
func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// IsRateLimited checks if an error is a rate-limit error.
func IsRateLimited(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

// checkStatus maps a non-200 status to the matching error type.
func checkStatus(provider string, status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Provider: provider, Message: string(body)}
	default:
		return &StatusError{Provider: provider, StatusCode: status, Body: truncate(string(body), 512)}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
