// Package apperr carries the error taxonomy shared by the checkout and
// webhook paths.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInternal          Kind = "INTERNAL"
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindInvalidArgument   Kind = "INVALID_ARGUMENT"
	KindSignatureInvalid  Kind = "SIGNATURE_INVALID"
	KindLinkageUnresolved Kind = "LINKAGE_UNRESOLVED"
	KindUpstreamFailure   Kind = "UPSTREAM_FAILURE"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Unauthenticated(op, message string) *Error {
	return New(KindUnauthenticated, op, message)
}

func InvalidArgument(op, message string) *Error {
	return New(KindInvalidArgument, op, message)
}

func Upstream(op string, err error) *Error {
	return Wrap(KindUpstreamFailure, op, err)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status returned to HTTP callers.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidArgument, KindSignatureInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindLinkageUnresolved:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to clients.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	switch KindOf(err) {
	case KindUpstreamFailure:
		return "upstream service unavailable"
	default:
		return "internal error"
	}
}
