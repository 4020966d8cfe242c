package disks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocityboy/rt11fs/disks"
)

func TestGetPredefinedDiskGeometry(t *testing.T) {
	geometry, err := disks.GetPredefinedDiskGeometry("rk05")
	require.NoError(t, err)

	assert.Equal(t, uint(4800), geometry.TotalBlocks)
	assert.Equal(t, int64(4800*512), geometry.TotalSizeBytes())
	assert.Equal(t, uint(16), geometry.DirectorySegments)

	_, err = disks.GetPredefinedDiskGeometry("zx81")
	assert.Error(t, err)
}

// Every table entry must be usable: nonzero size and a directory that fits
// the RT-11 limit of 31 segments.
func TestPredefinedGeometries__AllSane(t *testing.T) {
	slugs := disks.PredefinedDiskGeometrySlugs()
	require.NotEmpty(t, slugs)

	for _, slug := range slugs {
		geometry, err := disks.GetPredefinedDiskGeometry(slug)
		require.NoError(t, err)

		assert.NotZero(t, geometry.TotalBlocks, slug)
		assert.Greater(t, geometry.DirectorySegments, uint(0), slug)
		assert.LessOrEqual(t, geometry.DirectorySegments, uint(31), slug)
	}
}
