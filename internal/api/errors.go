package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindUnreachable
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindRateLimited
	KindServer
)

var (
	ErrUnreachable  = errors.New("server unreachable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrRateLimited  = errors.New("rate limited")
	ErrServer       = errors.New("server error")
	ErrUnknown      = errors.New("unknown api error")
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnreachable:
		return ErrUnreachable
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindRateLimited:
		return ErrRateLimited
	case KindServer:
		return ErrServer
	default:
		return ErrUnknown
	}
}

// KindOf maps an HTTP error status to its Kind.
func KindOf(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// FieldError is one entry of the server's validation map, in server order.
type FieldError struct {
	Field    string
	Messages []string
}

// Error is returned for every failed call. It matches the sentinel of its
// Kind with errors.Is and unwraps to the transport error, if any.
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	Fields  []FieldError
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindUnreachable {
		return fmt.Sprintf("%s %s: %v: %v", e.Method, e.Path, ErrUnreachable, e.Err)
	}

	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// FirstFieldError returns the first message of the first invalid field.
func (e *Error) FirstFieldError() string {
	for _, f := range e.Fields {
		if len(f.Messages) > 0 {
			return f.Messages[0]
		}
	}
	return ""
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOfError returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOfError(err error) Kind {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Kind
	}
	return KindUnknown
}

type errorBody struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

func newStatusError(method, path string, status int, body []byte) *Error {
	e := &Error{
		Kind:   KindOf(status),
		Status: status,
		Method: method,
		Path:   path,
		Body:   body,
	}

	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	e.Message = payload.Message
	e.Fields = parseFieldErrors(payload.Errors)

	return e
}

func newUnreachableError(method, path string, err error) *Error {
	return &Error{
		Kind:   KindUnreachable,
		Method: method,
		Path:   path,
		Err:    err,
	}
}

// parseFieldErrors walks the errors object token by token so the order the
// server sent is kept; a map would lose it.
func parseFieldErrors(raw json.RawMessage) []FieldError {
	if len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}

	var fields []FieldError
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fields
		}
		name, ok := tok.(string)
		if !ok {
			return fields
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fields
		}

		var messages []string
		if err := json.Unmarshal(value, &messages); err != nil {
			var single string
			if err := json.Unmarshal(value, &single); err != nil {
				continue
			}
			messages = []string{single}
		}
		fields = append(fields, FieldError{Field: name, Messages: messages})
	}

	return fields
}
