package recommendations

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrTransientOverload  = errors.New("upstream temporarily overloaded")
	ErrTerminalTransport  = errors.New("upstream request failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrMissingCredential  = errors.New("missing API credential")
)

const (
	ErrorCodeValidation         = "validation_error"
	ErrorCodeUpstream           = "upstream_error"
	ErrorCodeServiceUnavailable = "service_unavailable"
	ErrorCodeTimeout            = "timeout"
	ErrorCodeUnsupportedFormat  = "unsupported_format"
	ErrorCodeMissingCredential  = "missing_credential"
	ErrorCodeInternal           = "internal_error"
)

// ValidationError describes a malformed request field. It matches ErrValidation.
type ValidationError struct {
	Field string
	Issue string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Issue)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
