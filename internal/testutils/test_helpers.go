package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// FileHelpers provides utilities for working with test files
type FileHelpers struct{}

// NewFileHelpers creates a new file helpers instance
func NewFileHelpers() *FileHelpers {
	return &FileHelpers{}
}

// CreateTempFile creates a temporary file with given content
func (f *FileHelpers) CreateTempFile(t *testing.T, filename, content string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), filename)

	err := os.WriteFile(filePath, []byte(content), 0o644)
	require.NoError(t, err, "Should create temp file successfully")

	return filePath
}

// CreateTempDir creates a temporary directory holding files, keyed by relative path
func (f *FileHelpers) CreateTempDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tmpDir := t.TempDir()

	for filename, content := range files {
		filePath := filepath.Join(tmpDir, filename)

		if dir := filepath.Dir(filePath); dir != tmpDir {
			err := os.MkdirAll(dir, 0o755)
			require.NoError(t, err, "Should create directory %s", dir)
		}

		err := os.WriteFile(filePath, []byte(content), 0o644)
		require.NoError(t, err, "Should create file %s", filename)
	}

	return tmpDir
}
