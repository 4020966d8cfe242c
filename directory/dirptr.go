package directory

import (
	"github.com/velocityboy/rt11fs/blockcache"
)

// DirPtr is a cursor into the directory: a (segment, index) position plus the
// cached byte offset of the segment header and the starting data sector of
// the referenced entry. Cursors are values; advancing a copy does not disturb
// the original.
//
// The whole directory lives in one resident block, so every address inside it
// is a plain byte offset within that block.
type DirPtr struct {
	dirblk     *blockcache.Block
	entrySize  int
	segment    int // 1-based; -1 = before start, 0 = after end
	index      int // 0-based position within the segment
	segbase    int // byte offset of the segment header in the directory block
	dataSector int // first data sector of the referenced entry
}

func newDirPtr(dirblk *blockcache.Block) DirPtr {
	extra := mustWord(dirblk.ExtractWord(extraBytesWord))

	return DirPtr{
		dirblk:     dirblk,
		entrySize:  entryLength + int(extra),
		segment:    -1,
		index:      0,
		segbase:    0,
		dataSector: int(mustWord(dirblk.ExtractWord(segmentDataWord))),
	}
}

// BeforeStart reports whether the cursor is at the sentinel before the first
// entry.
func (p *DirPtr) BeforeStart() bool {
	return p.segment == -1
}

// AfterEnd reports whether the cursor has run off the end of the directory.
func (p *DirPtr) AfterEnd() bool {
	return p.segment == 0
}

// IsValid reports whether the cursor references an actual entry.
func (p *DirPtr) IsValid() bool {
	return !p.BeforeStart() && !p.AfterEnd()
}

// Segment returns the 1-based segment number of the referenced entry.
func (p *DirPtr) Segment() int {
	return p.segment
}

// Index returns the 0-based position of the referenced entry in its segment.
func (p *DirPtr) Index() int {
	return p.index
}

// DataSector returns the first data sector of the referenced entry.
func (p *DirPtr) DataSector() int {
	return p.dataSector
}

// Offset computes the byte offset, within the directory block, of a field of
// the referenced entry.
func (p *DirPtr) Offset(delta int) int {
	return p.segbase + firstEntryOffset + p.index*p.entrySize + delta
}

// Word returns the entry field word at the given offset.
func (p *DirPtr) Word(offs int) uint16 {
	return mustWord(p.dirblk.ExtractWord(p.Offset(offs)))
}

// Byte returns the entry field byte at the given offset.
func (p *DirPtr) Byte(offs int) byte {
	b, err := p.dirblk.GetByte(p.Offset(offs))
	must(err)
	return b
}

// SetWord stores an entry field word at the given offset.
func (p *DirPtr) SetWord(offs int, v uint16) {
	must(p.dirblk.SetWord(p.Offset(offs), v))
}

// SetByte stores an entry field byte at the given offset.
func (p *DirPtr) SetByte(offs int, v byte) {
	must(p.dirblk.SetByte(p.Offset(offs), v))
}

// SegmentWord returns a word from the header of the segment containing the
// referenced entry.
func (p *DirPtr) SegmentWord(offs int) uint16 {
	return mustWord(p.dirblk.ExtractWord(p.segbase + offs))
}

// SetSegmentWord stores a word into the header of the segment containing the
// referenced entry.
func (p *DirPtr) SetSegmentWord(offs int, v uint16) {
	must(p.dirblk.SetWord(p.segbase+offs, v))
}

// HasStatus reports whether all bits of mask are set in the entry's status
// word.
func (p *DirPtr) HasStatus(mask uint16) bool {
	return p.Word(statusWord)&mask == mask
}

// Status returns the entry's status word.
func (p *DirPtr) Status() uint16 {
	return p.Word(statusWord)
}

// LengthSectors returns the length of the referenced entry in sectors.
func (p *DirPtr) LengthSectors() int {
	return int(p.Word(totalLengthWord))
}

// Same reports whether two cursors reference the same entry. Position alone
// identifies an entry; the cached data sector does not participate.
func (p *DirPtr) Same(other *DirPtr) bool {
	return p.segment == other.segment && p.index == other.index
}

// Increment moves the cursor forward one entry, crossing into the next
// segment at an end-of-segment marker. Past the end it stays put.
func (p *DirPtr) Increment() {
	if p.AfterEnd() {
		return
	}

	if p.BeforeStart() {
		p.setSegment(1)
		p.index = 0
		p.dataSector = int(mustWord(p.dirblk.ExtractWord(p.segbase + segmentDataWord)))
		return
	}

	if !p.HasStatus(StatusEndOfSeg) {
		p.dataSector += int(p.Word(totalLengthWord))
		p.index++
		return
	}

	p.segment = int(mustWord(p.dirblk.ExtractWord(p.segbase + nextSegmentWord)))
	if p.AfterEnd() {
		return
	}

	p.setSegment(p.segment)
	p.index = 0
	p.dataSector = int(mustWord(p.dirblk.ExtractWord(p.segbase + segmentDataWord)))
}

// Decrement moves the cursor backward one entry. Segment headers carry no
// back-link, so entering a segment from its end retraces the chain from
// segment 1; the directory is small enough that the linear walk does not
// matter.
func (p *DirPtr) Decrement() {
	if p.BeforeStart() {
		return
	}

	if p.AfterEnd() {
		p.setSegment(1)
		for {
			next := int(mustWord(p.dirblk.ExtractWord(p.segbase + nextSegmentWord)))
			if next == 0 {
				break
			}
			p.setSegment(next)
		}

		p.index = 0
		p.dataSector = int(mustWord(p.dirblk.ExtractWord(p.segbase + segmentDataWord)))
		for !p.HasStatus(StatusEndOfSeg) {
			p.Increment()
		}
		return
	}

	if p.index > 0 {
		p.index--
		p.dataSector -= int(p.Word(totalLengthWord))
		return
	}

	if p.segment == 1 {
		p.segment = -1
		return
	}

	// at the start of a segment; find the end of the previous one
	curr := p.segment
	p.setSegment(1)
	for {
		next := int(mustWord(p.dirblk.ExtractWord(p.segbase + nextSegmentWord)))
		if next == curr {
			break
		}
		p.setSegment(next)
	}

	p.index = 0
	p.dataSector = int(mustWord(p.dirblk.ExtractWord(p.segbase + segmentDataWord)))
	for !p.HasStatus(StatusEndOfSeg) {
		p.Increment()
	}
}

// Next returns a cursor to the entry after this one.
func (p *DirPtr) Next() DirPtr {
	next := *p
	next.Increment()
	return next
}

// Prev returns a cursor to the entry before this one.
func (p *DirPtr) Prev() DirPtr {
	prev := *p
	prev.Decrement()
	return prev
}

// withIndex returns a cursor displaced by delta entries within the same
// segment. Only the position is adjusted; the data sector is not recomputed,
// so the result is good for field access and move logging but not for data
// addressing.
func (p *DirPtr) withIndex(delta int) DirPtr {
	moved := *p
	moved.index += delta
	return moved
}

func (p *DirPtr) setSegment(seg int) {
	p.segment = seg
	p.segbase = (seg - 1) * sectorsPerSegment * blockcache.SectorSize
}
