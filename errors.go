package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrHalted is returned by Render after the engine failed.
	ErrHalted = errors.New("engine halted")
	// ErrPanic is returned when the render pass panicked or the panic
	// command was pushed.
	ErrPanic = errors.New("engine panic")
	// ErrOutputLayout is returned when the output buffer doesn't fit the
	// configured output units.
	ErrOutputLayout = errors.New("invalid output layout")
	// ErrInvalidState is returned when transport command cannot be
	// executed in the current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidOption is returned by New when option value is invalid.
	ErrInvalidOption = errors.New("invalid option")
)

// haltedError is returned by every render pass after the failure.
type haltedError struct {
	cause error
}

func (e *haltedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrHalted, e.cause)
}

func (e *haltedError) Is(err error) bool {
	return err == ErrHalted
}

func (e *haltedError) Unwrap() error {
	return e.cause
}
