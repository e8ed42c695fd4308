package tourapi

import (
	"errors"
	"fmt"
)

// Kind classifies a tourism API failure so callers can branch without
// inspecting messages.
type Kind int

const (
	KindUnexpected Kind = iota
	KindConfig
	KindValidation
	KindNotFound
	KindRateLimited
	KindAPI
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindAPI:
		return "api"
	case KindTransport:
		return "transport"
	default:
		return "unexpected"
	}
}

// Error is returned by every Client operation.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("tour api: %s: %v", msg, e.Err)
	}
	return "tour api: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels below, so errors.Is(err, ErrNotFound) works
// regardless of message or status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.StatusCode == 0 && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrConfig      = &Error{Kind: KindConfig}
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrRateLimited = &Error{Kind: KindRateLimited}
	ErrAPI         = &Error{Kind: KindAPI}
	ErrTransport   = &Error{Kind: KindTransport}
)

func newError(kind Kind, status int, msg string, err error) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnexpected when err is not a tourapi error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }

// IsClientFault reports errors caused by the caller's input rather than upstream health.
func IsClientFault(err error) bool {
	switch KindOf(err) {
	case KindNotFound, KindValidation, KindConfig:
		return true
	}
	return false
}
