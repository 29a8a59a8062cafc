package midi

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrBadMagic          = errors.New("bad chunk magic")
	ErrBadHeaderLength   = errors.New("bad header length")
	ErrTruncated         = errors.New("unexpected end of data")
	ErrVarLen            = errors.New("variable-length quantity longer than 4 bytes")
	ErrRunningStatus     = errors.New("data byte without running status")
	ErrUnsupportedStatus = errors.New("unsupported status byte")
	ErrDataByte          = errors.New("status byte where data byte expected")
	ErrBadDivision       = errors.New("zero time division")
	ErrInvalidNote       = errors.New("invalid note")
)

// FormatError reports a malformed file. Track is -1 for header errors.
type FormatError struct {
	Offset int
	Track  int
	Err    error
}

func (e *FormatError) Error() string {
	if e.Track < 0 {
		return fmt.Sprintf("midi: header: %v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("midi: track %d: %v at offset %d", e.Track, e.Err, e.Offset)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	var f *FormatError
	return errors.As(err, &f)
}
