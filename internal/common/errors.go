package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Ingestion error kinds. Match with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrFetch         = errors.New("fetch error")
	ErrExtraction    = errors.New("extraction error")
	ErrAIService     = errors.New("ai service error")
	ErrAIParse       = errors.New("ai parse error")
	ErrPrecondition  = errors.New("precondition failed")
)

// Error codes carried by AppError.Code.
const (
	CodeConfig       = "CONFIG_ERROR"
	CodeFetch        = "FETCH_ERROR"
	CodeExtraction   = "EXTRACTION_ERROR"
	CodeAIService    = "AI_SERVICE_ERROR"
	CodeAIParse      = "AI_PARSE_ERROR"
	CodePrecondition = "PRECONDITION_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// kindCause joins a sentinel kind with an optional underlying error so that
// errors.Is matches both.
func kindCause(kind, err error) error {
	if err == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func ConfigError(message string) *AppError {
	return NewAppError(CodeConfig, message, ErrConfiguration)
}

// FetchError reports a failed document download. statusCode is 0 for
// transport failures.
func FetchError(url string, statusCode int, err error) *AppError {
	msg := fmt.Sprintf("failed to fetch %s", url)
	if statusCode > 0 {
		msg = fmt.Sprintf("failed to fetch %s: HTTP %d", url, statusCode)
	}
	return NewAppError(CodeFetch, msg, kindCause(ErrFetch, err))
}

func ExtractionError(message string, err error) *AppError {
	return NewAppError(CodeExtraction, message, kindCause(ErrExtraction, err))
}

func AIServiceError(message string, err error) *AppError {
	return NewAppError(CodeAIService, message, kindCause(ErrAIService, err))
}

func AIParseError(message string, err error) *AppError {
	return NewAppError(CodeAIParse, message, kindCause(ErrAIParse, err))
}

// PreconditionError reports a batch that could not start, such as a gym
// without an area.
func PreconditionError(message string, err error) *AppError {
	return NewAppError(CodePrecondition, message, kindCause(ErrPrecondition, err))
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}
