package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the runner-facing classification of an invocation failure.
type Kind string

const (
	KindNone        Kind = ""
	KindRateLimited Kind = "rate_limited"
	KindNotFound    Kind = "not_found"
	KindOther       Kind = "other"
)

var (
	// ErrRateLimited matches failures caused by an exhausted quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotFound matches failures caused by an unknown model identifier.
	ErrNotFound = errors.New("model not found")
	// ErrMalformedOutput is returned when a model answers without the
	// expected structured field.
	ErrMalformedOutput = errors.New("malformed structured output")
)

// Error is a classified provider failure.
type Error struct {
	Kind    Kind
	Model   string
	Status  int    // HTTP status, 0 when the request never completed
	Code    string // provider status code, e.g. RESOURCE_EXHAUSTED
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Model != "" {
		fmt.Fprintf(&b, " [%s]", e.Model)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " HTTP %d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	} else if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// Classify maps an invocation error to its Kind. A nil error is KindNone.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindOther
	}
}

// ClassifyStatus maps an HTTP status and provider status code to a Kind.
// The provider code wins when both are present.
func ClassifyStatus(status int, code string) Kind {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "RESOURCE_EXHAUSTED":
		return KindRateLimited
	case "NOT_FOUND":
		return KindNotFound
	}
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusNotFound:
		return KindNotFound
	}
	return KindOther
}
