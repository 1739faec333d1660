package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("no active session")
	ErrDuplicateItem   = errors.New("item already in cart")
	ErrUnknownProduct  = errors.New("unknown product")
	ErrTransport       = errors.New("store unreachable or returned an invalid response")
	ErrNoProductsFound = errors.New("no products found")

	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrBadCredentials     = errors.New("login rejected")
)

// ServiceError is a failure reported by the remote store.
// It unwraps to one of the sentinel errors above.
type ServiceError struct {
	Kind    error
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

// ServiceMessage returns the message the store attached to err, if any.
func ServiceMessage(err error) (string, bool) {
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}
