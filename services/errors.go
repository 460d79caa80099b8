package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures
type ErrorKind string

const (
	KindValidation          ErrorKind = "ValidationError"
	KindUnsupportedLanguage ErrorKind = "UnsupportedLanguage"
	KindRateLimited         ErrorKind = "RateLimited"
	KindWorkerTimeout       ErrorKind = "WorkerTimeout"
	KindWorkerCrashed       ErrorKind = "WorkerCrashed"
	KindMalformedOutput     ErrorKind = "MalformedOutput"
	KindSessionNotFound     ErrorKind = "SessionNotFound"
	KindJobNotFound         ErrorKind = "JobNotFound"
	KindQueueFull           ErrorKind = "QueueFull"
	KindNotFound            ErrorKind = "NotFound"
	KindInternal            ErrorKind = "InternalError"
)

// Sentinels for errors.Is; every *Error matches the sentinel of its kind.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrUnsupportedLanguage = &Error{Kind: KindUnsupportedLanguage}
	ErrRateLimited         = &Error{Kind: KindRateLimited}
	ErrWorkerTimeout       = &Error{Kind: KindWorkerTimeout}
	ErrWorkerCrashed       = &Error{Kind: KindWorkerCrashed}
	ErrMalformedOutput     = &Error{Kind: KindMalformedOutput}
	ErrSessionNotFound     = &Error{Kind: KindSessionNotFound}
	ErrJobNotFound         = &Error{Kind: KindJobNotFound}
	ErrQueueFull           = &Error{Kind: KindQueueFull}
)

// Error is a classified failure. Output holds raw worker output for diagnostics.
type Error struct {
	Kind    ErrorKind
	Message string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsClientError reports whether the kind is resolved without running a worker
func (k ErrorKind) IsClientError() bool {
	switch k {
	case KindValidation, KindUnsupportedLanguage, KindRateLimited, KindSessionNotFound, KindJobNotFound, KindNotFound:
		return true
	}
	return false
}

// KindOf returns the classification of err, KindInternal when unclassified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
