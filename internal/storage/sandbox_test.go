package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSandbox(t *testing.T) {
	tmpDir := t.TempDir()
	sandboxDir := filepath.Join(tmpDir, "sandbox")

	sb, err := NewSandbox(sandboxDir)
	require.NoError(t, err)
	require.NotNil(t, sb)

	info, err := os.Stat(sandboxDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.True(t, filepath.IsAbs(sb.BaseDir()))
}

func TestSandbox_ResolvePath(t *testing.T) {
	sb := setupTestSandbox(t)

	tests := []struct {
		name        string
		path        string
		shouldError bool
	}{
		{"simple file", "test.txt", false},
		{"nested path", "subdir/test.txt", false},
		{"deep nesting", "a/b/c/d/test.txt", false},
		{"current dir", ".", false},
		{"parent escape attempt", "../escape.txt", true},
		{"nested parent escape", "subdir/../../escape.txt", true},
		{"absolute path escape", "/etc/passwd", true},
		{"hidden file", ".hidden", false},
		{"dot dot name", "..test", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := sb.ResolvePath(tt.path)
			if tt.shouldError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "escapes sandbox")
			} else {
				assert.NoError(t, err)
				assert.True(t, strings.HasPrefix(resolved, sb.BaseDir()))
			}
		})
	}
}

func TestSandbox_AtomicWriteAndReadFile(t *testing.T) {
	sb := setupTestSandbox(t)
	content := []byte("cbor-encoded artifact bytes")

	err := sb.AtomicWrite("origin/event/source/name.cbor", content)
	require.NoError(t, err)

	data, err := sb.ReadFile("origin/event/source/name.cbor")
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestSandbox_AtomicWrite_OverwritesExisting(t *testing.T) {
	sb := setupTestSandbox(t)

	require.NoError(t, sb.AtomicWrite("artifact.cbor", []byte("first")))
	require.NoError(t, sb.AtomicWrite("artifact.cbor", []byte("second")))

	data, err := sb.ReadFile("artifact.cbor")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSandbox_AtomicWrite_CreatesParentDirs(t *testing.T) {
	sb := setupTestSandbox(t)

	err := sb.AtomicWrite("a/b/c/artifact.cbor", []byte("nested"))
	require.NoError(t, err)

	exists, err := sb.Exists("a/b/c/artifact.cbor")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSandbox_Exists(t *testing.T) {
	sb := setupTestSandbox(t)

	exists, err := sb.Exists("nonexistent.cbor")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, sb.AtomicWrite("exists.cbor", []byte("test")))

	exists, err = sb.Exists("exists.cbor")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSandbox_ReadFile_MissingFile(t *testing.T) {
	sb := setupTestSandbox(t)

	_, err := sb.ReadFile("missing.cbor")
	assert.Error(t, err)
}

func TestSandbox_PathTraversalAttempts(t *testing.T) {
	sb := setupTestSandbox(t)

	attacks := []string{
		"../../../etc/passwd",
		"subdir/../../../etc/passwd",
		"/absolute/path",
		"subdir/../../..",
		"subdir/./../../etc/passwd",
	}

	for _, attack := range attacks {
		t.Run(attack, func(t *testing.T) {
			_, err := sb.ResolvePath(attack)
			assert.Error(t, err, "path traversal should be blocked: %s", attack)

			err = sb.AtomicWrite(attack, []byte("payload"))
			assert.Error(t, err, "atomic write should refuse path traversal: %s", attack)
		})
	}
}

func setupTestSandbox(t *testing.T) *Sandbox {
	t.Helper()

	tmpDir := t.TempDir()
	sb, err := NewSandbox(tmpDir)
	require.NoError(t, err)

	return sb
}
