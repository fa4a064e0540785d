package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUsage is matched (via errors.Is) by every builder usage error.
var ErrUsage = errors.New("invalid selection usage")

// RegistryFetchError reports a failed remote metadata read: transport
// failure, non-success status, or an undecodable body.
type RegistryFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RegistryFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("registry fetch from %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("registry fetch from %s failed: %v", e.URL, e.Err)
}

func (e *RegistryFetchError) Unwrap() error {
	return e.Err
}

// InvalidStrategyError is returned for an unknown optimisation strategy.
type InvalidStrategyError struct {
	Strategy string
}

func (e *InvalidStrategyError) Error() string {
	return fmt.Sprintf("invalid strategy %q: must be one of cost, performance, latest, context", e.Strategy)
}

func (e *InvalidStrategyError) Is(target error) bool {
	return target == ErrUsage
}

// ArgumentError is returned when a builder receives an out-of-range value.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrUsage
}

// Argument builds an ArgumentError with a formatted reason.
func Argument(field, format string, args ...any) *ArgumentError {
	return &ArgumentError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Problem implements RFC 9457
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`

	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	type Alias Problem

	data := make(map[string]interface{})

	for k, v := range p.Extensions {
		data[k] = v
	}

	stdJSON, _ := json.Marshal(Alias(*p))
	_ = json.Unmarshal(stdJSON, &data)

	return json.Marshal(data)
}

type ProblemOption func(*Problem)

// New creates a generic Problem
func New(status int, title, detail string, opts ...ProblemOption) *Problem {
	p := &Problem{
		Type:       "about:blank",
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithExtension adds a custom key-value pair to the response
func WithExtension(key string, value interface{}) ProblemOption {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

// WithLog attaches an internal error for server-side logging
func WithLog(err error) ProblemOption {
	return func(p *Problem) {
		p.Log = err
	}
}

// ValidationError creates a rich validation error
func ValidationError(validationErrors map[string]string) *Problem {
	return New(
		http.StatusBadRequest,
		"Validation Error",
		"One or more fields failed validation",
		WithExtension("errors", validationErrors),
	)
}

func BadRequestError(detail string, opts ...ProblemOption) *Problem {
	return New(http.StatusBadRequest, "Bad Request", detail, opts...)
}

func NotFoundError(detail string) *Problem {
	return New(http.StatusNotFound, "Not Found", detail)
}

// UpstreamError is a 502 for metadata endpoint failures.
func UpstreamError(detail string, err error) *Problem {
	return New(http.StatusBadGateway, "Bad Gateway", detail, WithLog(err))
}

func InternalError(detail string, err error) *Problem {
	return New(http.StatusInternalServerError, "Internal Server Error", detail, WithLog(err))
}

// FromError maps an arbitrary error onto a Problem.
func FromError(err error) *Problem {
	var problem *Problem
	if errors.As(err, &problem) {
		return problem
	}

	var fetchErr *RegistryFetchError
	if errors.As(err, &fetchErr) {
		return UpstreamError("model metadata is unavailable", err)
	}

	if errors.Is(err, ErrUsage) {
		return BadRequestError(err.Error())
	}

	return InternalError("An unexpected error occurred.", err)
}
