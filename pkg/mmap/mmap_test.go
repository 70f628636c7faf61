package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello mapped world"), 0o644))

	f, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, "hello mapped world", string(f.Bytes()))
	assert.Equal(t, 18, f.Len())

	buf := make([]byte, 6)
	n, err := f.Reader().ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "mapped", string(buf[:n]))

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Nil(t, f.Bytes())
}

func TestOpenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.Mapped())
	data, err := io.ReadAll(f.Reader())
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}
