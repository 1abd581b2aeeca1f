package domain

import (
	"errors"
	"fmt"
)

var ErrProviderNotFound = errors.New("provider_not_found")

// AuthenticationError marks a failed credential exchange with the gateway.
// It is fatal to the operation that needed the token.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "gateway authentication failed"
	}
	return fmt.Sprintf("gateway authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// IntegrationError marks a well-formed but failing remote call. Tolerant call
// sites treat it as "status unknown", not as a failed payment.
type IntegrationError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *IntegrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status=%d body=%s", e.Op, e.StatusCode, e.Body)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError reports whether err wraps an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsIntegrationError reports whether err wraps an IntegrationError.
func IsIntegrationError(err error) bool {
	var target *IntegrationError
	return errors.As(err, &target)
}
