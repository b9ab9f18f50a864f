//go:build unix

package mmfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.raw")
	want := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 1024)
	require.NoError(t, os.WriteFile(path, want, 0o644))

	data, unmap, err := Map(path)
	require.NoError(t, err)
	require.Equal(t, want, data)
	require.NoError(t, unmap())
	require.NoError(t, unmap(), "second unmap is a no-op")
}

func TestMap_ZeroLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.raw")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	data, unmap, err := Map(path)
	require.NoError(t, err)
	require.Empty(t, data)
	require.NotNil(t, unmap)
	require.NoError(t, unmap())
}

func TestMap_Missing(t *testing.T) {
	_, _, err := Map(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
