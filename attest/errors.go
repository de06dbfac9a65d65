package attest

import "fmt"

// ValidationError indicates caller-supplied input failed shape or type
// constraints. It is surfaced before any network call is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
