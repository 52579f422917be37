// Package apierr classifies failures into the four kinds the HTTP layer
// reports: configuration, validation, upstream provider and persistence.
package apierr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindConfig      Kind = "configuration"
	KindValidation  Kind = "validation"
	KindUpstream    Kind = "upstream"
	KindPersistence Kind = "persistence"
)

type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return "Server error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, status int, err error) *Error {
	return &Error{Kind: kind, Status: status, Err: err}
}

func Config(msg string) *Error {
	return New(KindConfig, http.StatusInternalServerError, errors.New(msg))
}

func Validation(msg string) *Error {
	return New(KindValidation, http.StatusBadRequest, errors.New(msg))
}

func Upstream(err error) *Error {
	return New(KindUpstream, http.StatusInternalServerError, err)
}

func Persistence(err error) *Error {
	return New(KindPersistence, http.StatusInternalServerError, err)
}

// StatusOf returns the HTTP status for err. Unclassified errors are 500.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}
