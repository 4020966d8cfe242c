// Package directory parses and mutates the RT-11 directory: a linked list of
// 1 KiB segments holding variable-length entries, each entry describing one
// contiguous run of data sectors.
package directory

// Entry status bits.
const (
	StatusTentative = 0o000400 // entry is tentative (open)
	StatusEmpty     = 0o001000 // entry is free space
	StatusPermanent = 0o002000 // entry is permanent (a real file)
	StatusEndOfSeg  = 0o004000 // entry marks end of segment
	StatusReadOnly  = 0o040000 // entry is a read-only file
	StatusProtected = 0o100000 // entry is protected
	StatusPrefix    = 0o000020 // entry has prefix blocks
)

// Segment header word offsets.
const (
	totalSegmentsWord  = 0  // total segments allocated for directory
	nextSegmentWord    = 2  // 1-based index of next segment, 0 = end of list
	highestSegmentWord = 4  // highest segment in use (maintained in segment 1 only)
	extraBytesWord     = 6  // extra bytes at the end of each dir entry
	segmentDataWord    = 8  // first data sector of the first file in the segment
	firstEntryOffset   = 10 // offset of the first entry in a segment
)

// Entry field offsets.
const (
	statusWord       = 0  // status bitmask
	filenameWords    = 2  // filename, 3 Radix-50 words
	totalLengthWord  = 8  // file length in sectors
	jobByte          = 10 // owning job, tentative entries only
	channelByte      = 11 // owning channel, tentative entries only
	creationDateWord = 12 // packed creation date
	entryLength      = 14 // length of an entry with no extra bytes
)

const (
	firstSegmentSector = 6 // sector address of segment 1
	sectorsPerSegment  = 2
)
