package analysis

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrNotConfigured = errors.New("analysis service not configured")

// ServiceError is a non-2xx reply from the Analysis Service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func newServiceError(status int, bodyMessage string) *ServiceError {
	msg := bodyMessage
	if msg == "" {
		text := http.StatusText(status)
		if text == "" {
			text = "Unknown Status"
		}
		msg = fmt.Sprintf("analysis service error: %d %s", status, text)
	}
	return &ServiceError{Status: status, Message: msg}
}

// TransportError wraps a failure to reach the Analysis Service.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analysis request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
