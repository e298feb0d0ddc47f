package errors

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorType is the error taxonomy used across the discovery pipeline.
// Each member owns a distinct recovery policy.
type ErrorType string

const (
	// ErrorTypeInvalidRequest is a caller-visible 400: empty query, empty
	// prompt, length-mismatched batches, unknown source.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeUpstreamTransient is a retryable network/5xx failure from
	// arXiv, Reddit, the LLM, or the embedding provider. Retried with
	// backoff inside the owning component; surfaced as UpstreamUnavailable
	// once retries are exhausted.
	ErrorTypeUpstreamTransient ErrorType = "upstream_transient"

	// ErrorTypeUpstreamUnavailable is what an exhausted UpstreamTransient
	// becomes once it crosses a component boundary.
	ErrorTypeUpstreamUnavailable ErrorType = "upstream_unavailable"

	// ErrorTypeUpstreamMalformed is unparseable JSON or a wrong shape from
	// the LLM. Always recovered locally via a documented fallback; never
	// expected to reach the HTTP boundary.
	ErrorTypeUpstreamMalformed ErrorType = "upstream_malformed"

	// ErrorTypeCacheIO is a vector-store read/write failure. Always
	// recovered locally: a read failure degrades to "miss", a write
	// failure is logged and otherwise ignored.
	ErrorTypeCacheIO ErrorType = "cache_io"

	// ErrorTypeInternal is an unanticipated failure inside a component.
	// At the discovery entry point it is replaced by the single-topic
	// fallback result rather than propagated.
	ErrorTypeInternal ErrorType = "internal"

	// ErrorTypeNotFound is a caller-visible 404: a referenced source,
	// category, or resource that doesn't exist.
	ErrorTypeNotFound ErrorType = "not_found"
)

// PipelineError is a structured error carried through the discovery
// pipeline. It implements error, Is, Unwrap, and HTTPStatus.
type PipelineError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Stack      string                 `json:"stack,omitempty"`
	Component  string                 `json:"component"`
	Operation  string                 `json:"operation"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id,omitempty"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Code, e.Message)
}

// Is implements error matching on (Type, Code).
func (e *PipelineError) Is(target error) bool {
	if t, ok := target.(*PipelineError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func (e *PipelineError) String() string {
	return e.Error()
}

// HTTPStatus maps the error to the status code it should surface as, per
// the propagation policy: only InvalidRequest and exhausted
// UpstreamUnavailable are meant to ever reach the HTTP boundary.
func (e *PipelineError) HTTPStatus() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUpstreamTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBuilder builds a PipelineError fluently.
type ErrorBuilder struct {
	err *PipelineError
}

func NewError(errorType ErrorType, code, message string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &PipelineError{
			Type:      errorType,
			Code:      code,
			Message:   message,
			Details:   make(map[string]interface{}),
			Timestamp: time.Now(),
			Retryable: errorType == ErrorTypeUpstreamTransient,
		},
	}
}

func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.Cause = cause
	return b
}

func (b *ErrorBuilder) WithComponent(component string) *ErrorBuilder {
	b.err.Component = component
	return b
}

func (b *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	b.err.Operation = operation
	return b
}

func (b *ErrorBuilder) WithDetail(key string, value interface{}) *ErrorBuilder {
	b.err.Details[key] = value
	return b
}

func (b *ErrorBuilder) WithDetails(details map[string]interface{}) *ErrorBuilder {
	for k, v := range details {
		b.err.Details[k] = v
	}
	return b
}

func (b *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	b.err.RequestID = requestID
	return b
}

func (b *ErrorBuilder) WithStatusCode(statusCode int) *ErrorBuilder {
	b.err.StatusCode = statusCode
	return b
}

func (b *ErrorBuilder) WithStack() *ErrorBuilder {
	b.err.Stack = captureStack()
	return b
}

func (b *ErrorBuilder) Retryable(retryable bool) *ErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *ErrorBuilder) Build() *PipelineError {
	return b.err
}

// Predefined constructors, one per place the pipeline needs to manufacture
// an error rather than just classify one it received.

func NewInvalidRequestError(message string, field string, value interface{}) *PipelineError {
	return NewError(ErrorTypeInvalidRequest, "INVALID_REQUEST", message).
		WithDetail("field", field).
		WithDetail("rejected_value", value).
		WithStatusCode(http.StatusBadRequest).
		Retryable(false).
		Build()
}

func NewNotFoundError(message string, field string, value interface{}) *PipelineError {
	return NewError(ErrorTypeNotFound, "NOT_FOUND", message).
		WithDetail("field", field).
		WithDetail("rejected_value", value).
		WithStatusCode(http.StatusNotFound).
		Retryable(false).
		Build()
}

func NewUpstreamUnavailableError(upstream string, cause error) *PipelineError {
	return NewError(ErrorTypeUpstreamUnavailable, "UPSTREAM_UNAVAILABLE", fmt.Sprintf("%s is unavailable", upstream)).
		WithComponent(upstream).
		WithCause(cause).
		WithStatusCode(http.StatusInternalServerError).
		Retryable(false).
		Build()
}

func NewUpstreamMalformedError(upstream string, raw string, cause error) *PipelineError {
	return NewError(ErrorTypeUpstreamMalformed, "UPSTREAM_MALFORMED", fmt.Sprintf("%s returned an unparseable response", upstream)).
		WithComponent(upstream).
		WithCause(cause).
		WithDetail("raw_response", truncate(raw, 500)).
		Retryable(false).
		Build()
}

func NewCacheIOError(operation string, cause error) *PipelineError {
	return NewError(ErrorTypeCacheIO, "CACHE_IO_ERROR", "vector store operation failed").
		WithComponent("embedding_cache").
		WithOperation(operation).
		WithCause(cause).
		Retryable(false).
		Build()
}

func NewInternalError(message string, cause error) *PipelineError {
	b := NewError(ErrorTypeInternal, "INTERNAL_ERROR", message).
		WithStatusCode(http.StatusInternalServerError).
		WithStack()
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}

func NewUpstreamTransientError(upstream string, cause error) *PipelineError {
	return NewError(ErrorTypeUpstreamTransient, "UPSTREAM_TRANSIENT", fmt.Sprintf("%s request failed transiently", upstream)).
		WithComponent(upstream).
		WithCause(cause).
		Retryable(true).
		Build()
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var buf strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}

	return buf.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Common sentinel errors.
var (
	ErrEmptyQuery = NewInvalidRequestError("query must not be empty", "query", "")
	ErrInternal   = NewError(ErrorTypeInternal, "INTERNAL_ERROR", "internal error").WithStatusCode(http.StatusInternalServerError).Build()
)

// IsType reports whether err is a *PipelineError of the given type.
func IsType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	pe, ok := err.(*PipelineError)
	if !ok {
		return false
	}
	return pe.Type == t
}
