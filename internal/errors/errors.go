package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError is the application-wide error carrier: machine code, log message,
// user-facing message, severity and retryability.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError marks a field-level validation failure. Never retryable.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewPersistenceError wraps a storage failure. The in-memory bundle stays intact.
func NewPersistenceError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Persistence error: %s", underlyingMsg),
		UserMessage: "Could not save your settings. Please try again.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewUploadError wraps an avatar upload failure.
func NewUploadError(cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     "Avatar upload failed",
		UserMessage: "Could not upload the image. Please try again.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewImportFormatError marks a malformed import artifact (missing required keys).
func NewImportFormatError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "The selected file is not a valid settings export.",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewImportDeclinedError marks a version-mismatched import the user chose not to apply.
func NewImportDeclinedError() *AppError {
	return &AppError{
		Code:        "E410",
		Message:     "import declined after version mismatch",
		UserMessage: "Import cancelled.",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
