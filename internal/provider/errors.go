package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a PushError.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindOperation  Kind = "OPERATION"
)

func (k Kind) String() string { return string(k) }

// PushError is the single error type returned by SendMulticast. Code carries
// HTTP-equivalent semantics: 400 for rejected input, 500 for transport and
// response failures.
type PushError struct {
	Kind           Kind
	Code           int
	Message        string
	UpstreamStatus int
	Cause          error
}

func (e *PushError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 5)
	parts = append(parts, "gcm push error")
	parts = append(parts, fmt.Sprintf("code=%d", e.Code))

	if e.UpstreamStatus > 0 {
		parts = append(parts, fmt.Sprintf("upstream_status=%d", e.UpstreamStatus))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *PushError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newValidationError(cause error) *PushError {
	return &PushError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Message: "invalid multicast request",
		Cause:   cause,
	}
}

func newOperationError(message string, upstreamStatus int, cause error) *PushError {
	return &PushError{
		Kind:           KindOperation,
		Code:           http.StatusInternalServerError,
		Message:        message,
		UpstreamStatus: upstreamStatus,
		Cause:          cause,
	}
}

// IsValidation reports whether err was caused by rejected caller input.
func IsValidation(err error) bool {
	var pushErr *PushError
	if errors.As(err, &pushErr) {
		return pushErr.Kind == KindValidation
	}
	return false
}

// StatusCode returns the HTTP-equivalent code for err: 0 for nil, the
// PushError code when present, 500 otherwise.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}

	var pushErr *PushError
	if errors.As(err, &pushErr) && pushErr.Code > 0 {
		return pushErr.Code
	}
	return http.StatusInternalServerError
}
