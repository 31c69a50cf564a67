package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	loader := NewLoader()
	text, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	loader := NewLoader()

	_, err := loader.Load("report.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestLoader_MissingFile(t *testing.T) {
	loader := NewLoader()

	_, err := loader.Load(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
