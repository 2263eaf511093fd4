package harvest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	hash, err := HashFile(OSFileSystem{}, path)
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hash)

	again, err := HashFile(OSFileSystem{}, path)
	require.NoError(t, err)
	require.Equal(t, hash, again)

	_, err = HashFile(OSFileSystem{}, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
