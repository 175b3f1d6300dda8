package engine

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecdb/vectorlog"
)

// Code is the stable integer error taxonomy surfaced to callers, matching the eight
// values confirmed by the original implementation's error table.
type Code int

const (
	CodeSuccess           Code = 0
	CodeInvalidArgs       Code = -1
	CodeOutOfMemory       Code = -2
	CodeFileIO            Code = -3
	CodeDBNotFound        Code = -4
	CodeVectorNotFound    Code = -5
	CodeDimensionMismatch Code = -6
	CodeDBCorrupt         Code = -7
)

// String returns the stable human-readable string for a Code.
func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "Success"
	case CodeInvalidArgs:
		return "Invalid arguments"
	case CodeOutOfMemory:
		return "Out of memory"
	case CodeFileIO:
		return "File I/O error"
	case CodeDBNotFound:
		return "Database not found"
	case CodeVectorNotFound:
		return "Vector not found"
	case CodeDimensionMismatch:
		return "Dimension mismatch"
	case CodeDBCorrupt:
		return "Database corrupt"
	default:
		return "Unknown error"
	}
}

// ErrAlreadyExists is returned by Create when the target path already exists, and by
// Insert when the id is already present.
var ErrAlreadyExists = errors.New("engine: already exists")

// ErrDBNotFound is returned by Open when the target file does not exist.
var ErrDBNotFound = errors.New("engine: database not found")

// ErrVectorNotFound is returned by Get/Delete when the id has no live entry.
var ErrVectorNotFound = errors.New("engine: vector not found")

// ErrInvalidArgument is returned for malformed configuration or call parameters.
var ErrInvalidArgument = errors.New("engine: invalid argument")

// ErrDBCorrupt is returned when the underlying file fails header validation.
var ErrDBCorrupt = errors.New("engine: database corrupt")

// ErrClosed is returned by any operation on an Engine that has already been closed.
var ErrClosed = errors.New("engine: engine is closed")

// ErrDimensionMismatch is returned when a vector's length does not match the engine's
// configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("engine: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// AsCode translates an engine error into the stable integer taxonomy of §6. A nil error
// maps to CodeSuccess; an unrecognized error maps to CodeFileIO, matching the original
// implementation's "unmapped I/O failure" default.
func AsCode(err error) Code {
	if err == nil {
		return CodeSuccess
	}

	var dm *ErrDimensionMismatch
	switch {
	case errors.As(err, &dm):
		return CodeDimensionMismatch
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrClosed):
		return CodeInvalidArgs
	case errors.Is(err, ErrDBNotFound):
		return CodeDBNotFound
	case errors.Is(err, ErrVectorNotFound):
		return CodeVectorNotFound
	case errors.Is(err, ErrDBCorrupt):
		return CodeDBCorrupt
	default:
		return CodeFileIO
	}
}

// translate maps a vectorlog-level error into the engine's own sentinel/struct errors,
// mirroring the teacher's translateError in its root errors.go.
func translate(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, vectorlog.ErrAlreadyExists):
		return ErrAlreadyExists
	case errors.Is(err, vectorlog.ErrDBNotFound):
		return ErrDBNotFound
	case errors.Is(err, vectorlog.ErrNotFound):
		return ErrVectorNotFound
	case errors.Is(err, vectorlog.ErrClosed):
		return ErrClosed
	case errors.Is(err, vectorlog.ErrInvalidArgument):
		return ErrInvalidArgument
	case errors.Is(err, vectorlog.ErrCorrupt):
		return ErrDBCorrupt
	}

	var dm *vectorlog.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual}
	}

	return err
}
