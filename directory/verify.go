package directory

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/velocityboy/rt11fs/blockcache"
	"github.com/velocityboy/rt11fs/errors"
)

// CheckConsistency proves the structural invariants of the directory:
//
//   - every segment ends with an end of segment marker, and every entry
//     before it is a file, a tentative file, or free space;
//   - each segment's first data sector continues exactly where the previous
//     segment's entries left off, starting right after the directory itself;
//   - the entries partition the data region with no gaps or overlaps
//     (witnessed with a sector coverage bitmap);
//   - no two free entries sit side by side;
//   - segment 1's highest-in-use word matches the chain length.
//
// It runs at mount time, and tests lean on it after every mutation.
func (d *Directory) CheckConsistency() (err error) {
	defer trap(&err)

	volSectors := d.cache.VolumeSectors()
	firstData := firstSegmentSector + d.totalSegments*sectorsPerSegment

	covered := bitmap.Bitmap(bitmap.NewSlice(volSectors))

	seg := 1
	chainLength := 0
	expectedData := firstData

	for {
		base := (seg - 1) * sectorsPerSegment * blockcache.SectorSize

		first := int(mustWord(d.dirblk.ExtractWord(base + segmentDataWord)))
		if first != expectedData {
			return corrupt("segment %d data starts at sector %d, expected %d", seg, first, expectedData)
		}

		sector := first
		prevWasFree := false

		for index := 0; ; index++ {
			if index >= d.maxEntriesPerSegment() {
				return corrupt("segment %d has no end marker", seg)
			}

			offset := base + firstEntryOffset + index*d.entrySize
			status := mustWord(d.dirblk.ExtractWord(offset + statusWord))
			length := int(mustWord(d.dirblk.ExtractWord(offset + totalLengthWord)))

			if status&StatusEndOfSeg != 0 {
				break
			}

			if status&(StatusTentative|StatusEmpty|StatusPermanent) == 0 {
				return corrupt("segment %d entry %d has status %06o", seg, index, status)
			}

			isFree := status&StatusEmpty != 0
			if isFree && prevWasFree {
				return corrupt("segment %d entries %d and %d are both free", seg, index-1, index)
			}
			prevWasFree = isFree

			for s := sector; s < sector+length; s++ {
				if s < firstData || s >= volSectors {
					return corrupt("segment %d entry %d covers sector %d outside the data region", seg, index, s)
				}
				if covered.Get(s) {
					return corrupt("segment %d entry %d covers sector %d twice", seg, index, s)
				}
				covered.Set(s, true)
			}

			sector += length
		}

		expectedData = sector
		chainLength++

		next := int(mustWord(d.dirblk.ExtractWord(base + nextSegmentWord)))
		if next == 0 {
			break
		}
		seg = next
	}

	if expectedData != volSectors {
		return corrupt("data region ends at sector %d, expected %d", expectedData, volSectors)
	}

	highest := int(mustWord(d.dirblk.ExtractWord(highestSegmentWord)))
	if highest != chainLength {
		return corrupt("highest segment word is %d but the chain has %d segments", highest, chainLength)
	}

	return nil
}

func corrupt(format string, args ...interface{}) errors.DriverError {
	return errors.NewWithMessage(
		errors.EINVAL, "corrupt directory: "+fmt.Sprintf(format, args...))
}
