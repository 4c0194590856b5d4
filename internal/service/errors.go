package service

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a backend failure.
type Kind int

const (
	// KindNetwork is a transport failure: no HTTP response at all.
	KindNetwork Kind = iota + 1

	// KindAuth is a 401 or an "unauthorized" response. A session receiving
	// this anywhere is no longer valid.
	KindAuth

	// KindValidation is a rejected payload, including client-side checks
	// that never issue a request.
	KindValidation

	// KindConflict is a registration collision.
	KindConflict

	// KindNotFound is an unknown resource id.
	KindNotFound

	// KindUpload is an image upload whose response lacks a URL.
	KindUpload

	// KindServer is any other backend failure, including non-JSON/HTML
	// error bodies.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not found"
	case KindUpload:
		return "upload"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the uniform error value every backend failure is normalized into.
// Message is human-readable; Status is the HTTP status when one was received.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds an Error with a formatted message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or 0 if err carries none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsAuth reports whether err is an authorization failure.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsConflict reports whether err is a registration collision.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsNotFound reports whether err is an unknown-id failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is a rejected payload.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsUpload reports whether err is an image upload failure.
func IsUpload(err error) bool { return KindOf(err) == KindUpload }

// conflictMarkers are the substrings the backend has been seen using for
// account collisions. Matching on them is a documented fallback for backends
// that report the collision without a 409; a structured error code would be
// the right contract.
var conflictMarkers = []string{"already exists", "ya existe", "duplicate"}

// ConflictShaped reports whether msg looks like an account-collision message.
func ConflictShaped(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range conflictMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
