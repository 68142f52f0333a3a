package client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const alreadyExists = "resource_already_exists_exception"

// ConnectionError means no response came back from the backend
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %v: %v", e.Host, e.Err)
}

// Unwrap returns the transport error
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// BackendError is a non successful response from the backend
type BackendError struct {
	StatusCode int
	Type       string
	Reason     string
}

func (e *BackendError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("search backend returned %v: %v", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("search backend returned %v: %v: %v", e.StatusCode, e.Type, e.Reason)
}

// newBackendError reads the error type and reason out of a response body.
// Both {"error":{"type":..,"reason":..}} and {"error":".."} shapes occur.
func newBackendError(status int, body []byte) *BackendError {

	e := &BackendError{StatusCode: status}

	res := gjson.GetBytes(body, "error")
	switch {
	case res.IsObject():
		e.Type = res.Get("type").String()
		e.Reason = res.Get("reason").String()
	case res.Exists():
		e.Reason = res.String()
	case len(body) > 0:
		e.Reason = string(body)
	default:
		e.Reason = http.StatusText(status)
	}

	return e
}

// IsRetryable reports whether err is transient: no response at all,
// throttling, or a server side failure
func IsRetryable(err error) bool {

	if IsConnectionError(err) {
		return true
	}

	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode == http.StatusTooManyRequests || be.StatusCode >= http.StatusInternalServerError
	}

	return false
}

// IsConnectionError reports whether err means the backend was unreachable
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsAlreadyExists reports whether err is a create of an existing index
func IsAlreadyExists(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Type == alreadyExists
}
