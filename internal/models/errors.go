package models

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

// Error constructors.
var (
	ErrNotFound = func(msg string) *AppError {
		return &AppError{Code: "NOT_FOUND", Message: msg, Status: 404}
	}
	ErrBadRequest = func(msg string) *AppError {
		return &AppError{Code: "BAD_REQUEST", Message: msg, Status: 400}
	}
	ErrNotAllowed = func(msg string) *AppError {
		return &AppError{Code: "NOT_ALLOWED", Message: msg, Status: 405}
	}
	ErrECFailure = func(msg string) *AppError {
		return &AppError{Code: "EC_FAILURE", Message: msg, Status: 502}
	}
	ErrNoEC = func(msg string) *AppError {
		return &AppError{Code: "NO_EC", Message: msg, Status: 503}
	}
	ErrInternal = func(msg string) *AppError {
		return &AppError{Code: "INTERNAL", Message: msg, Status: 500}
	}
)
