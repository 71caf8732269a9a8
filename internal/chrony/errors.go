package chrony

import (
	"errors"
	"fmt"
	"io/fs"
)

// Op identifies the step of a read or rewrite that failed.
type Op string

const (
	OpRead    Op = "read"
	OpWrite   Op = "write"
	OpReplace Op = "replace"
)

// ConfigAccessError is returned whenever a configuration file cannot be read,
// a destination cannot be written, or the final replace step fails.
type ConfigAccessError struct {
	Op   Op
	Path string
	Err  error
}

func (e *ConfigAccessError) Error() string {
	cause := e.Err
	// os errors already carry the path
	var pe *fs.PathError
	if errors.As(cause, &pe) {
		cause = pe.Err
	}

	switch e.Op {
	case OpRead:
		return fmt.Sprintf("cannot read config file %s: %v", e.Path, cause)
	case OpWrite:
		return fmt.Sprintf("cannot write config file %s: %v", e.Path, cause)
	case OpReplace:
		return fmt.Sprintf("cannot replace config file %s with the new one: %v", e.Path, cause)
	default:
		return fmt.Sprintf("config file %s: %v", e.Path, cause)
	}
}

func (e *ConfigAccessError) Unwrap() error {
	return e.Err
}

// IsConfigAccess reports whether err is, or wraps, a ConfigAccessError.
func IsConfigAccess(err error) bool {
	var cae *ConfigAccessError
	return errors.As(err, &cae)
}

// streamError tags an error from Rewrite with the side of the stream it came from.
type streamError struct {
	op  Op
	err error
}

func (e *streamError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *streamError) Unwrap() error {
	return e.err
}

// accessError converts a Rewrite failure into a ConfigAccessError naming
// the source or destination path.
func accessError(err error, srcPath, dstPath string) error {
	var se *streamError
	if !errors.As(err, &se) {
		return &ConfigAccessError{Op: OpWrite, Path: dstPath, Err: err}
	}
	if se.op == OpRead {
		return &ConfigAccessError{Op: OpRead, Path: srcPath, Err: se.err}
	}
	return &ConfigAccessError{Op: OpWrite, Path: dstPath, Err: se.err}
}
