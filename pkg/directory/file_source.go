package directory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mmcdole/verity/pkg/logging"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileSource loads authorization data from a YAML or TOML file.
//
// YAML:
//
//	printers: [Printer-7, Printer-9]
//	users:
//	  john.doe@dod.mil: [Printer-7, Printer-9]
//
// TOML:
//
//	printers = ["Printer-7", "Printer-9"]
//	[users]
//	"john.doe@dod.mil" = ["Printer-7", "Printer-9"]
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a new FileSource reading path from fs
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

// Load implements Source
func (s *FileSource) Load() (*Directory, *Registry, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		logging.App.Debug("Error reading directory file", "path", s.path, "error", err)
		return nil, nil, fmt.Errorf("reading directory file: %w", err)
	}

	doc, err := decode(s.path, data)
	if err != nil {
		logging.App.Debug("Error parsing directory file", "path", s.path, "error", err)
		return nil, nil, fmt.Errorf("parsing directory file: %w", err)
	}

	dir, reg, err := build(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("building directory from %s: %w", s.path, err)
	}

	for _, p := range dir.AllPrinters() {
		if !reg.Contains(p) {
			logging.App.Warn("Directory grants a printer that cannot be selected", "path", s.path, "printer", p)
		}
	}

	logging.App.Debug("Loaded directory", "path", s.path, "identities", len(dir.Identities()), "printers", len(reg.List()))
	return dir, reg, nil
}

func decode(path string, data []byte) (document, error) {
	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return doc, err
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return doc, err
		}
	default:
		return doc, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return doc, nil
}
