package filters

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("input file not found")

	// ErrIO is returned for any other failure opening, reading, writing or
	// flushing a file.
	ErrIO = errors.New("i/o failure")

	// ErrSamePath is returned when input and output resolve to the same file.
	ErrSamePath = errors.New("input and output are the same file")

	ErrInvalidPosition     = errors.New("excluded line positions must be positive")
	ErrInvalidTrailingDrop = errors.New("trailing drop count must not be negative")
	ErrUnknownPreset       = errors.New("unknown preset")
)

// OpError records the file operation that failed. It unwraps to both its
// kind (ErrNotFound or ErrIO) and the underlying cause.
type OpError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	cause := e.Err
	var pe *fs.PathError
	if errors.As(cause, &pe) {
		cause = pe.Err
	}
	return fmt.Sprintf("%v: %s %s: %v", e.Kind, e.Op, e.Path, cause)
}

func (e *OpError) Unwrap() []error { return []error{e.Kind, e.Err} }

func ioError(op, path string, err error) error {
	return &OpError{Op: op, Path: path, Kind: ErrIO, Err: err}
}
