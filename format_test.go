package rt11fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocityboy/rt11fs/datasource"
	"github.com/velocityboy/rt11fs/errors"
)

// A freshly formatted image must mount and show the whole data region free.
func TestFormatImage__MountsClean(t *testing.T) {
	image, err := FormatImage(486, 1, 0)
	require.NoError(t, err)

	fs, err := Mount(datasource.NewMemorySource(image))
	require.NoError(t, err)
	defer fs.Unmount()

	require.NoError(t, fs.Directory().CheckConsistency())

	stats, err := fs.StatFS("/")
	require.NoError(t, err)
	assert.Equal(t, 486-8, stats.TotalBlocks)
	assert.Equal(t, 486-8, stats.BlocksFree)

	ents, err := fs.ReadDir("/")
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestFormatImage__ExtraBytesSurviveMount(t *testing.T) {
	image, err := FormatImage(256, 4, 4)
	require.NoError(t, err)

	fs, err := Mount(datasource.NewMemorySource(image))
	require.NoError(t, err)
	defer fs.Unmount()

	assert.Equal(t, 18, fs.Directory().EntrySize())
}

func TestFormatVolume__RejectsBadArguments(t *testing.T) {
	image := make([]byte, 64*512)
	source := datasource.NewMemorySource(image)

	err := FormatVolume(source, 0, 0)
	assert.Equal(t, errors.EINVAL, errors.ErrnoOf(err))

	err = FormatVolume(source, 32, 0)
	assert.Equal(t, errors.EINVAL, errors.ErrnoOf(err))

	err = FormatVolume(source, 1, 3)
	assert.Equal(t, errors.EINVAL, errors.ErrnoOf(err))

	// image smaller than its own directory
	tiny := datasource.NewMemorySource(make([]byte, 10*512))
	err = FormatVolume(tiny, 4, 0)
	assert.Equal(t, errors.ENOSPC, errors.ErrnoOf(err))
}

// A formatted volume accepts a full create/write/remount cycle.
func TestFormatImage__EndToEnd(t *testing.T) {
	image, err := FormatImage(256, 4, 0)
	require.NoError(t, err)

	fs, err := Mount(datasource.NewMemorySource(image))
	require.NoError(t, err)

	fd, err := fs.Create("/BOOT.SYS")
	require.NoError(t, err)
	_, err = fs.Write(fd, []byte("BOOTSTRAP"), 0)
	require.NoError(t, err)
	require.NoError(t, fs.Release(fd))
	require.NoError(t, fs.Unmount())

	fs, err = Mount(datasource.NewMemorySource(image))
	require.NoError(t, err)
	defer fs.Unmount()

	attr, err := fs.GetAttr("/BOOT.SYS")
	require.NoError(t, err)
	assert.Equal(t, int64(512), attr.Size)
}
