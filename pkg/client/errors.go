package client

import (
	"fmt"
)

// NetworkError reports a transport failure where no response was received
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError reports a non-2xx response
type BackendError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned %d (%s): %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: backend returned %d (%s)", e.Op, e.Status, e.Code)
}

// MalformedResponseError reports a 2xx response that could not be parsed
// into the expected shape
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
