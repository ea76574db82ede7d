package request

import (
	"errors"
	"fmt"
)

var (
	ErrNotReady       = errors.New("only allowed while the request is ready, before it has been started")
	ErrNotInFlight    = errors.New("only allowed while the request is in flight")
	ErrNoMethod       = errors.New("no request method was set, use GET or POST")
	ErrFileOnGet      = errors.New("a file cannot be attached to a GET request, use POST instead")
	ErrFileNotFound   = errors.New("no element with that id")
	ErrNotFileInput   = errors.New("element is not a file input")
	ErrNoFileSelected = errors.New("file input has no selected file")
)

// GuardError reports an operation rejected by the Request. It wraps one of the Err* sentinels.
type GuardError struct {
	Op    string
	State State
	Err   error
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s rejected in %s state: %v", e.Op, e.State, e.Err)
}

func (e *GuardError) Unwrap() error {
	return e.Err
}
