package directory

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	fs := afero.NewMemMapFs()

	yamlData := []byte(`printers: [Printer-7, Printer-9]
users:
  john.doe@dod.mil: [Printer-7, Printer-9]
  jane.smith@lockheed.com: [Printer-7]
`)
	tomlData := []byte(`printers = ["Printer-7", "Printer-9"]

[users]
"john.doe@dod.mil" = ["Printer-7", "Printer-9"]
"mike.johnson@raytheon.com" = ["Printer-9"]
`)
	require.NoError(t, afero.WriteFile(fs, "/etc/verity/directory.yaml", yamlData, 0644))
	require.NoError(t, afero.WriteFile(fs, "/etc/verity/directory.toml", tomlData, 0644))

	t.Run("yaml", func(t *testing.T) {
		dir, reg, err := NewFileSource(fs, "/etc/verity/directory.yaml").Load()
		require.NoError(t, err)

		assert.True(t, dir.Allows("jane.smith@lockheed.com", "Printer-7"))
		assert.False(t, dir.Allows("jane.smith@lockheed.com", "Printer-9"))
		assert.Equal(t, []string{"Printer-7", "Printer-9"}, reg.List())
	})

	t.Run("toml", func(t *testing.T) {
		dir, reg, err := NewFileSource(fs, "/etc/verity/directory.toml").Load()
		require.NoError(t, err)

		assert.True(t, dir.Allows("mike.johnson@raytheon.com", "Printer-9"))
		assert.False(t, dir.Allows("mike.johnson@raytheon.com", "Printer-7"))
		assert.True(t, reg.Contains("Printer-7"))
	})

	t.Run("registry defaults to granted printers", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/etc/verity/noreg.yml", []byte("users:\n  a: [P-2]\n  b: [P-1]\n"), 0644))
		_, reg, err := NewFileSource(fs, "/etc/verity/noreg.yml").Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"P-1", "P-2"}, reg.List())
	})

	t.Run("empty yaml file", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/etc/verity/empty.yaml", nil, 0644))
		dir, reg, err := NewFileSource(fs, "/etc/verity/empty.yaml").Load()
		require.NoError(t, err)
		assert.Empty(t, dir.Identities())
		assert.Empty(t, reg.List())
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := NewFileSource(fs, "/etc/verity/missing.yaml").Load()
		assert.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/etc/verity/typo.yaml", []byte("userz:\n  a: [P-1]\n"), 0644))
		_, _, err := NewFileSource(fs, "/etc/verity/typo.yaml").Load()
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/etc/verity/directory.json", []byte("{}"), 0644))
		_, _, err := NewFileSource(fs, "/etc/verity/directory.json").Load()
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("empty printer in file", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/etc/verity/blank.yaml", []byte("users:\n  a: [\"\"]\n"), 0644))
		_, _, err := NewFileSource(fs, "/etc/verity/blank.yaml").Load()
		assert.ErrorIs(t, err, ErrEmptyPrinter)
	})
}
