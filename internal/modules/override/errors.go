package override

import "fmt"

// InvalidOverrideError reports which acknowledgment field was rejected
type InvalidOverrideError struct {
	Field  string
	Reason string
}

func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("invalid override: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) *InvalidOverrideError {
	return &InvalidOverrideError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
