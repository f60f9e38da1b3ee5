package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest indicates a malformed request or a missing required field.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnsupportedModel indicates a model no registered provider serves.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrServiceUnavailable indicates a vendor credential is missing locally.
	ErrServiceUnavailable = errors.New("service temporarily unavailable")

	// ErrStreamRead indicates the upstream stream failed after it started.
	ErrStreamRead = errors.New("stream read failure")

	// ErrCancelled indicates the caller aborted an in-flight request.
	ErrCancelled = errors.New("request cancelled")

	// ErrNoResponseBody indicates a response without a readable body.
	ErrNoResponseBody = errors.New("no response body")

	// ErrUnrecognizedShape indicates a vendor output that carries no URL.
	ErrUnrecognizedShape = errors.New("unrecognized output shape")

	// ErrAuthRequired indicates the request has no authenticated user.
	ErrAuthRequired = errors.New("authentication required")
)

// UnsupportedModelError reports the rejected model and the models that are served.
type UnsupportedModelError struct {
	Model     string
	Supported []string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("model %q is not supported", e.Model)
}

// Is makes errors.Is(err, ErrUnsupportedModel) match.
func (e *UnsupportedModelError) Is(target error) bool {
	return target == ErrUnsupportedModel
}

// Message is the client-facing rejection text.
func (e *UnsupportedModelError) Message() string {
	return fmt.Sprintf("Only %s is supported", strings.Join(e.Supported, ", "))
}

// UpstreamError carries a non-success vendor response verbatim.
type UpstreamError struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, string(e.Body))
}
