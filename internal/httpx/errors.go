package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrorKind classifies a failed request by what actually went wrong on the
// wire.
type ErrorKind string

const (
	// KindHTTP means a response arrived with a non-2xx status.
	KindHTTP ErrorKind = "http"

	// KindNetwork is a transport failure with no response.
	KindNetwork ErrorKind = "network"

	// KindTimeout is a transport failure caused by a deadline.
	KindTimeout ErrorKind = "timeout"

	// KindConnectionRefused means the host actively refused the connection.
	KindConnectionRefused ErrorKind = "connectionRefused"
)

// RequestError is the typed failure surfaced by the client. For KindHTTP the
// status and response body are populated; for transport kinds the underlying
// error is kept as the cause.
type RequestError struct {
	Kind   ErrorKind
	Method string
	Path   string
	Status int
	Body   []byte
	cause  error
}

func (e *RequestError) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.Status, string(e.Body))
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.cause)
}

func (e *RequestError) Unwrap() error {
	return e.cause
}

// transportError classifies an error returned by http.Client.Do.
func transportError(method, path string, err error) *RequestError {
	return &RequestError{
		Kind:   classifyTransport(err),
		Method: method,
		Path:   path,
		cause:  err,
	}
}

func classifyTransport(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}
	return KindNetwork
}
