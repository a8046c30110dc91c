// Package errors defines the typed failures reported by the captcha pipeline.
//
// Every recoverable condition (bad image bytes, mismatched image sizes, an
// operation the loaded model cannot serve) surfaces as a *CaptchaError so the
// MCP layer can report a stable code alongside the human-readable message.
package errors

import (
	stderrors "errors"
	"fmt"
	"image"
)

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Input errors
	ErrorImageDecode  ErrorCode = "IMAGE_DECODE"
	ErrorSizeMismatch ErrorCode = "SIZE_MISMATCH"

	// Contract errors
	ErrorUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	ErrorShape                ErrorCode = "SHAPE"

	// Inference runtime failures, passed through opaquely
	ErrorInference ErrorCode = "INFERENCE"
)

// CaptchaError represents a structured pipeline error
type CaptchaError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *CaptchaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CaptchaError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewImageDecodeError(cause error) *CaptchaError {
	return &CaptchaError{
		Code:    ErrorImageDecode,
		Message: "failed to decode image",
		Cause:   cause,
	}
}

// NewSizeMismatchError reports that op needed a and b to satisfy a size
// relation (equal, or a no smaller than b) that they do not.
func NewSizeMismatchError(op string, a, b image.Point) *CaptchaError {
	return &CaptchaError{
		Code:    ErrorSizeMismatch,
		Message: fmt.Sprintf("%s: image sizes %dx%d and %dx%d are incompatible", op, a.X, a.Y, b.X, b.Y),
		Details: map[string]interface{}{
			"operation": op,
			"first":     []int{a.X, a.Y},
			"second":    []int{b.X, b.Y},
		},
	}
}

func NewUnsupportedOperationError(op, reason string) *CaptchaError {
	return &CaptchaError{
		Code:    ErrorUnsupportedOperation,
		Message: fmt.Sprintf("%s is not supported: %s", op, reason),
		Details: map[string]interface{}{
			"operation": op,
		},
	}
}

// NewShapeError reports a tensor whose buffer does not match its declared
// shape. This is an internal invariant violation, not bad user input.
func NewShapeError(what string, want, got int) *CaptchaError {
	return &CaptchaError{
		Code:    ErrorShape,
		Message: fmt.Sprintf("%s: expected %d elements, got %d", what, want, got),
		Details: map[string]interface{}{
			"expected": want,
			"actual":   got,
		},
	}
}

// NewIndexError reports a model output index with no matching symbol.
func NewIndexError(what string, index, limit int) *CaptchaError {
	return &CaptchaError{
		Code:    ErrorShape,
		Message: fmt.Sprintf("%s %d out of range [0, %d)", what, index, limit),
		Details: map[string]interface{}{
			"index": index,
			"limit": limit,
		},
	}
}

func NewInferenceError(cause error) *CaptchaError {
	return &CaptchaError{
		Code:    ErrorInference,
		Message: "inference failed",
		Cause:   cause,
	}
}

// Code returns the ErrorCode of the first CaptchaError in err's chain, or ""
// when there is none.
func Code(err error) ErrorCode {
	var ce *CaptchaError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCode reports whether err wraps a CaptchaError carrying code.
func IsCode(err error, code ErrorCode) bool {
	return Code(err) == code
}

// ToMap converts the error to a map for JSON error payloads
func (e *CaptchaError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
