package types

import "errors"

// Precondition violations. Callers wrap these with the offending index or
// name; match with errors.Is.
var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownField    = errors.New("unknown field")
	ErrUnknownKind     = errors.New("unknown hardware kind")
	ErrUnknownSink     = errors.New("unknown output sink")
	ErrUnknownChannel  = errors.New("unknown channel")
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// IsPrecondition reports whether err is a caller contract violation rather
// than a runtime failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrUnknownSink) ||
		errors.Is(err, ErrUnknownChannel)
}
