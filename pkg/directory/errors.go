package directory

import "errors"

var (
	// ErrEmptyIdentity is returned when a directory entry has an empty identity
	ErrEmptyIdentity = errors.New("empty identity in directory")

	// ErrEmptyPrinter is returned when a printer id is empty
	ErrEmptyPrinter = errors.New("empty printer id")

	// ErrUnsupportedFormat is returned for directory files that are neither YAML nor TOML
	ErrUnsupportedFormat = errors.New("unsupported directory file format")
)
