package rag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Failure modes surfaced by the external services and the index.
// Callers match with errors.Is.
var (
	// ErrConnection indicates the external service could not be reached.
	ErrConnection = errors.New("service unreachable")

	// ErrModelNotFound indicates the requested model is absent on the service.
	ErrModelNotFound = errors.New("model not found")

	// ErrMalformedInput indicates a document or page that could not be parsed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrIndexEmpty indicates a query against a collection with zero documents.
	ErrIndexEmpty = errors.New("index is empty")
)

// ServiceError wraps a failure from an external service together with the
// sentinel that classifies it, keeping the original error in the chain.
type ServiceError struct {
	Service string // "embedding", "inference", "vector index"
	Kind    error  // one of the sentinels above
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Service, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// WrapServiceError classifies err by inspection so errors.Is matches the
// corresponding sentinel. Errors that fit no known failure mode are wrapped
// with the service name only.
func WrapServiceError(service string, err error) error {
	if err == nil {
		return nil
	}
	if kind := classifyServiceError(err); kind != nil {
		return &ServiceError{Service: service, Kind: kind, Err: err}
	}
	return fmt.Errorf("%s: %w", service, err)
}

func classifyServiceError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrConnection
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "dial tcp"),
		strings.Contains(msg, "timeout"):
		return ErrConnection
	case strings.Contains(msg, "try pulling"),
		strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "status code: 404"):
		return ErrModelNotFound
	case strings.Contains(msg, "not found") && strings.Contains(msg, "model"):
		return ErrModelNotFound
	}
	return nil
}
