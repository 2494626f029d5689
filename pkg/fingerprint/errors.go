package fingerprint

import (
	"errors"
	"fmt"
)

// ErrIsDirectory is returned when a directory is selected instead of a file
var ErrIsDirectory = errors.New("is a directory")

// FileReadError reports that a design file could not be read. It is never
// collapsed into the digest of an empty file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("reading design file %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}
