// Package disks carries a small database of classic DEC storage devices that
// RT-11 ran on, so tools can size and format images without the user digging
// through hardware manuals.
package disks

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/gocarina/gocsv"
)

// DiskGeometry describes one device model as RT-11 sees it: a linear run of
// 512-byte blocks plus the directory size the DEC formatter would pick.
type DiskGeometry struct {
	Name               string `csv:"name"`
	Slug               string `csv:"slug"`
	FirstYearAvailable uint   `csv:"first_year_available"`
	IsRemovable        uint   `csv:"is_removable"`

	// TotalBlocks is the number of 512-byte blocks RT-11 can address on the
	// device, which on some media is less than the raw capacity.
	TotalBlocks uint `csv:"total_blocks"`

	// DirectorySegments is the directory size DEC's initializer chose by
	// default for the device.
	DirectorySegments uint `csv:"directory_segments"`

	Notes string `csv:"notes"`
}

// TotalSizeBytes gives the size of an image file holding the whole device.
func (g *DiskGeometry) TotalSizeBytes() int64 {
	return int64(g.TotalBlocks) * 512
}

//go:embed rt11-disk-geometries.csv
var diskGeometriesRawCSV string
var diskGeometries map[string]DiskGeometry

// GetPredefinedDiskGeometry looks up a device by its slug, e.g. "rk05".
func GetPredefinedDiskGeometry(slug string) (DiskGeometry, error) {
	geometry, ok := diskGeometries[slug]
	if !ok {
		return DiskGeometry{}, fmt.Errorf("no predefined disk geometry with slug %q", slug)
	}
	return geometry, nil
}

// PredefinedDiskGeometrySlugs returns every known device slug, sorted.
func PredefinedDiskGeometrySlugs() []string {
	slugs := make([]string, 0, len(diskGeometries))
	for slug := range diskGeometries {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func init() {
	var geometries []DiskGeometry

	err := gocsv.UnmarshalString(diskGeometriesRawCSV, &geometries)
	if err != nil {
		panic(fmt.Sprintf("embedded disk geometry table is malformed: %s", err))
	}

	diskGeometries = make(map[string]DiskGeometry, len(geometries))
	for _, geometry := range geometries {
		diskGeometries[geometry.Slug] = geometry
	}
}
