package player

import (
	"github.com/pkg/errors"
)

var (
	ErrNoSequence        = errors.New("no sequence loaded")
	ErrNotSeekable       = errors.New("seek needs a playing or paused session")
	ErrInvalidTempoScale = errors.New("tempo scale must be a positive finite number")
)

// PreconditionError is returned by an operation issued in a state that does
// not allow it. The scheduler state is left unchanged.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return "player: " + e.Op + ": " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func precondition(op string, err error) error {
	return &PreconditionError{Op: op, Err: err}
}
