package engine

import "fmt"

// ValidationError marks a submit request the caller can fix: malformed or
// semantically invalid input. The transport layer maps it to a client-side
// failure; every other error is a server-side failure. Nothing in the core
// retries either kind.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
