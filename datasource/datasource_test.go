package datasource_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocityboy/rt11fs/datasource"
)

func TestStreamSource__SizeAndRoundTrip(t *testing.T) {
	image := make([]byte, 4096)
	source := datasource.NewMemorySource(image)

	size, err := source.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(4096), size)

	payload := []byte("QUICK BROWN FOX")
	require.NoError(t, source.WriteAt(payload, 100))

	got := make([]byte, len(payload))
	require.NoError(t, source.ReadAt(got, 100))
	assert.Equal(t, payload, got)

	// writes land in the caller's backing slice
	assert.Equal(t, payload[0], image[100])
}

// Transfers are all-or-nothing; anything touching bytes outside the image
// fails without a partial transfer.
func TestStreamSource__RejectsOutOfBounds(t *testing.T) {
	source := datasource.NewMemorySource(make([]byte, 1024))

	assert.Error(t, source.ReadAt(make([]byte, 16), 1020))
	assert.Error(t, source.WriteAt(make([]byte, 16), 1020))
	assert.Error(t, source.ReadAt(make([]byte, 16), -1))
}

func TestFileSource__RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	source, err := datasource.OpenFileSource(path)
	require.NoError(t, err)
	defer source.Close()

	size, err := source.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(2048), size)

	payload := []byte{1, 2, 3, 4}
	require.NoError(t, source.WriteAt(payload, 512))

	got := make([]byte, len(payload))
	require.NoError(t, source.ReadAt(got, 512))
	assert.Equal(t, payload, got)
}

func TestFileSource__MissingFile(t *testing.T) {
	_, err := datasource.OpenFileSource(filepath.Join(t.TempDir(), "nope.img"))
	assert.Error(t, err)
}
