// Package imagetest builds RT-11 disk images in memory for tests: arbitrary
// segment and entry layouts, with the data region sized to match. Keeping it
// out of the _test files lets every package share one set of fixtures.
package imagetest

import (
	"fmt"

	"github.com/velocityboy/rt11fs/datasource"
	"github.com/velocityboy/rt11fs/rad50"
)

const sectorSize = 512
const firstSegmentSector = 6
const sectorsPerSegment = 2
const entryLength = 14
const firstEntryOffset = 10

// Status bits, duplicated here so fixtures do not depend on the packages
// under test.
const (
	StatusTentative = 0o000400
	StatusEmpty     = 0o001000
	StatusPermanent = 0o002000
	StatusEndOfSeg  = 0o004000
	StatusReadOnly  = 0o040000
)

// RestOfData as an entry length stands for "every data sector no other entry
// claims", so fixtures don't hard-code volume sizes. At most one entry per
// image may use it.
const RestOfData = 0xffff

// Entry describes one directory entry to lay down.
type Entry struct {
	Status   uint16
	Name     rad50.Name
	Length   int
	Job      byte
	Channel  byte
	Creation uint16
}

// File builds a permanent file entry. The name must parse; tests fail loudly
// on typos.
func File(name string, length int) Entry {
	return Entry{Status: StatusPermanent, Name: mustName(name), Length: length}
}

// Tentative builds an open-file entry.
func Tentative(name string, length int) Entry {
	return Entry{Status: StatusTentative, Name: mustName(name), Length: length}
}

// Free builds a free space entry.
func Free(length int) Entry {
	return Entry{Status: StatusEmpty, Length: length}
}

// EndOfSegment builds the marker that must terminate every segment.
func EndOfSegment() Entry {
	return Entry{Status: StatusEndOfSeg}
}

// Builder assembles an image in memory.
type Builder struct {
	image []byte
}

// NewBuilder creates a builder over a zeroed image of the given size.
func NewBuilder(sectors int) *Builder {
	return &Builder{image: make([]byte, sectors*sectorSize)}
}

// Image exposes the raw image bytes.
func (b *Builder) Image() []byte {
	return b.image
}

// Source wraps the image in an in-memory data source.
func (b *Builder) Source() *datasource.StreamSource {
	return datasource.NewMemorySource(b.image)
}

// Sectors returns the size of the image.
func (b *Builder) Sectors() int {
	return len(b.image) / sectorSize
}

// FormatEmpty lays down a directory whose data region is one free entry.
func (b *Builder) FormatEmpty(dirSegments, extraBytes int) {
	b.FormatWithEntries(dirSegments, [][]Entry{
		{Free(RestOfData), EndOfSegment()},
	}, extraBytes)
}

// FormatWithEntries lays down a directory with the given entries, segment by
// segment. The caller includes the end of segment markers. Segments are
// chained in order and the data region is assigned to entries first come
// first served; a RestOfData length expands to every remaining sector.
func (b *Builder) FormatWithEntries(dirSegments int, segments [][]Entry, extraBytes int) {
	if len(segments) > dirSegments {
		panic("more entry lists than directory segments")
	}

	sectors := b.Sectors()
	nextSector := firstSegmentSector + dirSegments*sectorsPerSegment

	claimed := 0
	restEntries := 0
	for _, entries := range segments {
		for _, entry := range entries {
			if entry.Length == RestOfData {
				restEntries++
			} else {
				claimed += entry.Length
			}
		}
	}
	if restEntries > 1 {
		panic("at most one entry may claim the rest of the data region")
	}
	rest := sectors - nextSector - claimed

	for i, entries := range segments {
		isFirst := i == 0
		isLast := i == len(segments)-1
		offset := (firstSegmentSector + i*sectorsPerSegment) * sectorSize

		b.putWord(offset+0, uint16(dirSegments)) // total segments
		if isLast {
			b.putWord(offset+2, 0)
		} else {
			b.putWord(offset+2, uint16(i+2)) // next segment, 1-based on disk
		}
		if isFirst {
			b.putWord(offset+4, uint16(len(segments))) // highest in use
		} else {
			b.putWord(offset+4, 0)
		}
		b.putWord(offset+6, uint16(extraBytes))
		b.putWord(offset+8, uint16(nextSector))

		for index, entry := range entries {
			if entry.Length == RestOfData {
				entry.Length = rest
			}
			b.putEntry(i+1, index, entry, extraBytes)
			nextSector += entry.Length
		}
	}
}

// FillSector stamps every byte of a sector with a value, so tests can prove
// file contents survive relocation.
func (b *Builder) FillSector(sector int, value byte) {
	start := sector * sectorSize
	for i := start; i < start+sectorSize; i++ {
		b.image[i] = value
	}
}

// SectorByte returns the first byte of a sector.
func (b *Builder) SectorByte(sector int) byte {
	return b.image[sector*sectorSize]
}

func (b *Builder) putEntry(segment, index int, entry Entry, extraBytes int) {
	offset := (firstSegmentSector+(segment-1)*sectorsPerSegment)*sectorSize +
		firstEntryOffset + (entryLength+extraBytes)*index

	b.putWord(offset+0, entry.Status)
	for i := 0; i < rad50.NameWords; i++ {
		b.putWord(offset+2+2*i, entry.Name[i])
	}
	b.putWord(offset+8, uint16(entry.Length))
	b.image[offset+10] = entry.Job
	b.image[offset+11] = entry.Channel
	b.putWord(offset+12, entry.Creation)
}

func (b *Builder) putWord(offset int, word uint16) {
	b.image[offset] = byte(word)
	b.image[offset+1] = byte(word >> 8)
}

func mustName(name string) rad50.Name {
	packed, ok := rad50.ParseFilename(name)
	if !ok {
		panic(fmt.Sprintf("fixture filename %q does not parse", name))
	}
	return packed
}
