package errs

import (
	"errors"
	"fmt"
)

// Code classifies evaluation errors so the runner can tell fatal setup
// problems apart from per-image validation failures.
type Code string

const (
	// Fatal: the run cannot continue.
	CodeSetup       Code = "SETUP_FAILED"
	CodeStoreFailed Code = "STORE_FAILED"

	// Per-image: abort the run under the default policy, skippable when
	// configured.
	CodeAnnotationFormat Code = "ANNOTATION_FORMAT"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeStageFailed      Code = "STAGE_FAILED"
)

// Error is a structured evaluation error carrying a code and, for per-image
// failures, the image identifier.
type Error struct {
	Code    Code
	ImageID string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.ImageID != "" {
		msg = fmt.Sprintf("image %s: %s", e.ImageID, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Setup(message string, cause error) *Error {
	return &Error{Code: CodeSetup, Message: message, Cause: cause}
}

func StoreFailed(message string, cause error) *Error {
	return &Error{Code: CodeStoreFailed, Message: message, Cause: cause}
}

func AnnotationFormat(imageID, message string) *Error {
	return &Error{Code: CodeAnnotationFormat, ImageID: imageID, Message: message}
}

func InvalidInput(message string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message}
}

func StageFailed(imageID, stage string, cause error) *Error {
	return &Error{Code: CodeStageFailed, ImageID: imageID, Message: fmt.Sprintf("%s stage failed", stage), Cause: cause}
}

// CodeOf extracts the error code, or the empty code for plain errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFatal reports whether the error must abort the whole run even when the
// runner is configured to skip invalid images.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case CodeSetup, CodeStoreFailed:
		return true
	}
	return false
}
