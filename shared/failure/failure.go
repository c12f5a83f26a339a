package failure

import (
	"errors"
	"net/http"
)

// Kind is the client-facing class of a Failure.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindRateLimited  Kind = "rate_limited"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

var kinds = map[int]Kind{
	http.StatusBadRequest:          KindValidation,
	http.StatusUnauthorized:        KindUnauthorized,
	http.StatusForbidden:           KindForbidden,
	http.StatusNotFound:            KindNotFound,
	http.StatusConflict:            KindConflict,
	http.StatusUnprocessableEntity: KindInvalidState,
	http.StatusTooManyRequests:     KindRateLimited,
	http.StatusServiceUnavailable:  KindUnavailable,
}

// Failure is an error that knows the HTTP status it maps to.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var ForbiddenError = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}

func (e *Failure) Error() string {
	return e.Message
}

func (e *Failure) Kind() Kind {
	return KindOf(e.Code)
}

func newFailure(code int, msg string) error {
	return &Failure{Code: code, Message: msg}
}

// BadRequest wraps a validation error. A nil error stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return newFailure(http.StatusBadRequest, err.Error())
}

func BadRequestFromString(msg string) error {
	return newFailure(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) error {
	return newFailure(http.StatusUnauthorized, msg)
}

func Forbidden(msg string) error {
	return newFailure(http.StatusForbidden, msg)
}

func NotFound(msg string) error {
	return newFailure(http.StatusNotFound, msg)
}

// Conflict reports a clash with another booking's time slot.
func Conflict(msg string) error {
	return newFailure(http.StatusConflict, msg)
}

// InvalidState reports an operation that the entity's current status does not allow.
func InvalidState(msg string) error {
	return newFailure(http.StatusUnprocessableEntity, msg)
}

// GetCode returns the status carried by err, or 500 for anything that is not a Failure.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

func KindOf(code int) Kind {
	if kind, ok := kinds[code]; ok {
		return kind
	}

	if code >= http.StatusInternalServerError {
		return KindInternal
	}

	return KindValidation
}

func GetKind(err error) Kind {
	return KindOf(GetCode(err))
}

// IsClientError reports whether err was caused by the request rather than the system.
func IsClientError(err error) bool {
	code := GetCode(err)

	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}
