package connector

import (
	"errors"
	"fmt"
)

var ErrDeactivatedDuringActivation = errors.New("deactivated during activation")

type (
	NoProviderFoundError struct {
		message string
	}

	UserRejectedRequestError struct {
		message string
		err     error
	}

	QueryFailedError struct {
		Query string
		Err   error
	}
)

func (e *NoProviderFoundError) Error() string {
	if e.message != "" {
		return e.message
	}
	return "No BitKeep provider was found on window.bitkeep."
}

func (e *UserRejectedRequestError) Error() string {
	if e.message != "" {
		return e.message
	}
	return "The user rejected the request."
}

func (e *UserRejectedRequestError) Unwrap() error {
	return e.err
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Query, e.Err)
}

func (e *QueryFailedError) Unwrap() error {
	return e.Err
}

func NewNoProviderFoundError() *NoProviderFoundError {
	return &NoProviderFoundError{}
}

func NewUserRejectedRequestError(err error) *UserRejectedRequestError {
	return &UserRejectedRequestError{err: err}
}

func NewQueryFailedError(query string, err error) *QueryFailedError {
	return &QueryFailedError{Query: query, Err: err}
}
