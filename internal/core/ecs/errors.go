package ecs

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyBorrowed        = errors.New("already borrowed")
	ErrAlreadyMutablyBorrowed = errors.New("already mutably borrowed")
	ErrResourceNotFound       = errors.New("resource not found")
	ErrReleased               = errors.New("borrow already released")
)

// SystemError is the panic value raised when a system returns an error.
type SystemError struct {
	Stage  Stage
	System string
	Err    error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("error in system '%s' (stage %s): %v", e.System, e.Stage, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}
