package rt11fs

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"
	"github.com/velocityboy/rt11fs/blockcache"
	"github.com/velocityboy/rt11fs/datasource"
	"github.com/velocityboy/rt11fs/errors"
)

// MaxDirectorySegments is the largest directory RT-11 allows on a volume.
const MaxDirectorySegments = 31

const firstSegmentSector = 6
const sectorsPerSegment = 2
const dirEntryLength = 14
const dirFirstEntryOffset = 10

const statusEmptyWord = 0o001000
const statusEndOfSegWord = 0o004000

// FormatVolume writes a fresh, empty RT-11 directory onto the image behind
// source. The boot area (sectors 0-5) is left alone. The directory gets the
// requested number of segments; the whole data region becomes one free
// entry.
//
// extraBytes is the per-entry application data size, and like the rest of
// the directory it is made of words, so it must be even.
func FormatVolume(source datasource.DataSource, segments, extraBytes int) error {
	if segments < 1 || segments > MaxDirectorySegments {
		return errors.NewWithMessage(errors.EINVAL, "directory segment count out of range")
	}
	if extraBytes < 0 || extraBytes%2 != 0 {
		return errors.NewWithMessage(errors.EINVAL, "extra bytes must be even")
	}

	entrySize := dirEntryLength + extraBytes
	segmentBytes := sectorsPerSegment * blockcache.SectorSize
	if (segmentBytes-dirFirstEntryOffset)/entrySize < 2 {
		return errors.NewWithMessage(errors.EINVAL, "extra bytes leave no room for entries")
	}

	size, err := source.Size()
	if err != nil {
		return err
	}

	sectors := int(size / blockcache.SectorSize)
	firstDataSector := firstSegmentSector + segments*sectorsPerSegment
	if sectors <= firstDataSector {
		return errors.NewWithMessage(errors.ENOSPC, "image too small for the requested directory")
	}

	segment := make([]byte, segmentBytes)
	writer := bytewriter.New(segment)

	header := []uint16{
		uint16(segments),        // total segments
		0,                       // next segment: end of list
		1,                       // highest segment in use
		uint16(extraBytes),      // extra bytes per entry
		uint16(firstDataSector), // first data sector
	}
	if err := binary.Write(writer, binary.LittleEndian, header); err != nil {
		return errors.NewFromError(errors.EIO, err)
	}

	// one free entry covering the whole data region, then the end marker
	free := make([]uint16, entrySize/2)
	free[0] = statusEmptyWord
	free[4] = uint16(sectors - firstDataSector)
	if err := binary.Write(writer, binary.LittleEndian, free); err != nil {
		return errors.NewFromError(errors.EIO, err)
	}

	endOfSegment := make([]uint16, entrySize/2)
	endOfSegment[0] = statusEndOfSegWord
	if err := binary.Write(writer, binary.LittleEndian, endOfSegment); err != nil {
		return errors.NewFromError(errors.EIO, err)
	}

	return source.WriteAt(segment, firstSegmentSector*blockcache.SectorSize)
}

// FormatImage creates an in-memory image of the given size in sectors and
// formats it. Handy for tests and for writing fresh image files.
func FormatImage(sectors, segments, extraBytes int) ([]byte, error) {
	image := make([]byte, sectors*blockcache.SectorSize)

	err := FormatVolume(datasource.NewMemorySource(image), segments, extraBytes)
	if err != nil {
		return nil, err
	}

	return image, nil
}
