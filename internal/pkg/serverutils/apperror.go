package serverutils

import "fmt"

// AppError is the HTTP-facing error shape. Controllers return plain errors;
// the error handler middleware maps known AppErrors to their status code so
// a failed turn is always distinguishable from an empty-but-successful one.
type AppError struct {
	Code    string // stable machine-readable identifier
	Message string
	Status  int // HTTP status
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}
