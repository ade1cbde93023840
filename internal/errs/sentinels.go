// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinels across client layers.
var (
	// ErrNotFound indicates the requested entity does not exist (locally or on the server).
	ErrNotFound = errors.New("not found")

	// ErrAuth indicates bad credentials or an expired/invalid refresh; it forces a logout.
	ErrAuth = errors.New("authentication failed")

	// ErrAuthRequired indicates the operation needs a signed-in user.
	ErrAuthRequired = errors.New("authentication required")

	// ErrValidation indicates a client-side field validation failure; never sent to the server.
	ErrValidation = errors.New("validation failed")

	// ErrNetwork indicates a transport failure or a 5xx response.
	ErrNetwork = errors.New("network error")

	// ErrInsufficientFunds indicates the balance does not cover the charge.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyOwned indicates a duplicate purchase or cart-add of an owned image.
	ErrAlreadyOwned = errors.New("already owned")

	// ErrNotPurchased indicates the full-resolution original is gated behind a purchase.
	ErrNotPurchased = errors.New("not purchased")

	// ErrEmptyCart indicates checkout of an empty cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrMutationInFlight indicates another cart mutation for the same image is outstanding.
	ErrMutationInFlight = errors.New("mutation in flight")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is a shorthand constructor for ValidationError.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	Status  int
	Method  string
	Path    string
	Message string // server-provided message, if any
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Unwrap maps the status code onto the taxonomy sentinels.
func (e *HTTPError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrAuth
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= 500:
		return ErrNetwork
	default:
		return nil
	}
}

// IsUnauthorized reports whether err carries an HTTP 401.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusUnauthorized
}

// UserMessage returns the server message for err if present, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return fallback
}
