package session

import (
	"errors"
	"fmt"
	"magal/internal/api"
	"magal/internal/provider"
	"magal/internal/storage"
	"magal/internal/validation"
)

var ErrNotAuthenticated = errors.New("not authenticated")

const (
	msgInvalidCredentials = "invalid credentials"
	msgInvalidData        = "invalid data"
	msgRateLimited        = "too many attempts, try again later"
	msgUnknown            = "unknown error"
	msgUnreachable        = "connection error, check your internet connection"
	msgMalformed          = "unexpected server response"
)

// Error is what session operations return for remote and validation
// failures. Message is ready to show to the user; Err keeps the cause.
type Error struct {
	Op      string
	Kind    api.Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notAuthenticated(op string) error {
	return &Error{
		Op:      op,
		Kind:    api.KindUnauthorized,
		Message: ErrNotAuthenticated.Error(),
		Err:     ErrNotAuthenticated,
	}
}

// mapError turns a failure into a user-facing *Error. Store failures are
// environment problems and pass through wrapped, not mapped.
func mapError(op string, err error) error {
	if errors.Is(err, storage.ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, provider.ErrMalformedResponse) {
		return &Error{Op: op, Kind: api.KindUnknown, Message: msgMalformed, Err: err}
	}

	apiErr, ok := api.AsError(err)
	if !ok {
		return &Error{Op: op, Kind: api.KindUnknown, Message: msgUnknown, Err: err}
	}

	e := &Error{Op: op, Kind: apiErr.Kind, Err: err}
	switch apiErr.Kind {
	case api.KindUnauthorized:
		e.Message = orDefault(apiErr.Message, msgInvalidCredentials)
	case api.KindValidation:
		e.Message = orDefault(apiErr.FirstFieldError(), msgInvalidData)
	case api.KindRateLimited:
		e.Message = msgRateLimited
	case api.KindUnreachable:
		e.Message = msgUnreachable
	default:
		e.Message = orDefault(apiErr.Message, msgUnknown)
	}

	return e
}

// invalidInput reports a payload rejected before any request was sent.
func invalidInput(op string, err error) error {
	return &Error{
		Op:      op,
		Kind:    api.KindValidation,
		Message: msgInvalidData + ": " + validation.Describe(err),
		Err:     fmt.Errorf("%w: %w", provider.ErrInvalidInput, err),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
