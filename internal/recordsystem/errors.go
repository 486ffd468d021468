package recordsystem

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies record-system failures
type ErrorKind string

const (
	KindTransport       ErrorKind = "transport"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindRateLimited     ErrorKind = "rate_limited"
	KindUpstream        ErrorKind = "upstream"
)

// ErrUnauthenticated matches any APIError of kind KindUnauthenticated via errors.Is.
var ErrUnauthenticated = errors.New("record system rejected credentials")

const defaultErrorMessage = "API request failed"

// APIError is returned for every failed record-system call
type APIError struct {
	Kind    ErrorKind
	Message string
	Status  int
	Code    string
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultErrorMessage
	}
	switch {
	case e.Status != 0 && e.Code != "":
		return fmt.Sprintf("%s (status %d, code %s)", msg, e.Status, e.Code)
	case e.Status != 0:
		return fmt.Sprintf("%s (status %d)", msg, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnauthenticated) succeed for 401 failures.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Kind == KindUnauthenticated
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// errorEnvelope is the record system's error body
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Code    string `json:"code"`
	} `json:"error"`
	Status string `json:"status"`
}
