package directory

import (
	"time"

	"github.com/velocityboy/rt11fs/blockcache"
	"github.com/velocityboy/rt11fs/errors"
	"github.com/velocityboy/rt11fs/rad50"
)

// Directory is the in-memory face of a mounted volume's directory. The whole
// segment list is pinned into one resident block for the life of the
// Directory, so cross-segment entry moves are plain byte copies.
type Directory struct {
	entrySize     int
	totalSegments int
	cache         *blockcache.BlockCache
	dirblk        *blockcache.Block
	now           func() time.Time
}

// VolumeStats is the statfs view of a volume.
type VolumeStats struct {
	BlockSize       int
	FragmentSize    int
	TotalBlocks     int
	BlocksFree      int
	BlocksAvailable int
	Files           int
	FilesFree       int
	MaxNameLength   int
}

// New parses and validates the directory of the volume behind cache.
//
// The directory must have a sane segment count for the volume size, a
// consistent extra-bytes word across every segment, a strictly sequential
// segment chain, and a data region exactly partitioned by its entries;
// anything else fails with EINVAL.
func New(cache *blockcache.BlockCache) (dir *Directory, err error) {
	maxSeg := (cache.VolumeSectors() - firstSegmentSector) / sectorsPerSegment

	dirblk, err := cache.GetBlock(firstSegmentSector, 1)
	if err != nil {
		return nil, err
	}

	release := true
	defer func() {
		if release {
			cache.PutBlock(dirblk)
		}
	}()
	defer trap(&err)

	totseg := int(mustWord(dirblk.ExtractWord(totalSegmentsWord)))
	if totseg < 1 || totseg >= maxSeg {
		return nil, errors.NewWithMessage(errors.EINVAL, "directory segments invalid")
	}

	if err := cache.ResizeBlock(dirblk, totseg*sectorsPerSegment); err != nil {
		return nil, err
	}

	extra := int(mustWord(dirblk.ExtractWord(extraBytesWord)))
	entrySize := entryLength + extra

	d := &Directory{
		entrySize:     entrySize,
		totalSegments: totseg,
		cache:         cache,
		dirblk:        dirblk,
		now:           time.Now,
	}

	if d.maxEntriesPerSegment() < 2 {
		return nil, errors.NewWithMessage(errors.EINVAL, "directory extra bytes invalid")
	}

	// The extra bytes word is an attribute fixed when the volume is
	// formatted, so it must agree across the chain. Segments are allocated
	// in order and never freed, which rules out chains that skip or point
	// backward.
	seg := 1
	for {
		base := (seg - 1) * sectorsPerSegment * blockcache.SectorSize

		thisExtra := int(mustWord(dirblk.ExtractWord(base + extraBytesWord)))
		if thisExtra != extra {
			return nil, errors.NewWithMessage(errors.EINVAL, "directory segments are not consistent")
		}

		next := int(mustWord(dirblk.ExtractWord(base + nextSegmentWord)))
		if next == 0 {
			break
		}
		if next != seg+1 || next > totseg {
			return nil, errors.NewWithMessage(errors.EINVAL, "directory segment list is corrupt")
		}
		seg = next
	}

	if err := d.CheckConsistency(); err != nil {
		return nil, err
	}

	release = false
	return d, nil
}

// Close releases the pinned directory block. The Directory must not be used
// afterward.
func (d *Directory) Close() {
	if d.dirblk != nil {
		d.cache.PutBlock(d.dirblk)
		d.dirblk = nil
	}
}

// EntrySize returns the on-disk size of one entry, including extra bytes.
func (d *Directory) EntrySize() int {
	return d.entrySize
}

// TotalSegments returns the number of segments the directory was formatted
// with.
func (d *Directory) TotalSegments() int {
	return d.totalSegments
}

// StartScan returns a cursor positioned just before the first entry; it must
// be advanced before being dereferenced.
func (d *Directory) StartScan() DirPtr {
	return newDirPtr(d.dirblk)
}

// GetDirPointer scans for the entry whose packed name matches. Only end of
// segment markers are skipped, so tentative and free entries are found too.
// Free entries have zero-filled names, so only the all-blank name (parsed
// from " ") can match one. If the name is not present the returned cursor is
// after the end.
func (d *Directory) GetDirPointer(name rad50.Name) DirPtr {
	ds := d.StartScan()

	for {
		ds.Increment()
		if !ds.IsValid() {
			break
		}
		if ds.HasStatus(StatusEndOfSeg) {
			continue
		}
		if name[0] == ds.Word(filenameWords) &&
			name[1] == ds.Word(filenameWords+2) &&
			name[2] == ds.Word(filenameWords+4) {
			break
		}
	}

	return ds
}

// Lookup finds the entry for a printable filename.
func (d *Directory) Lookup(name string) (ptr DirPtr, err error) {
	defer trap(&err)

	packed, ok := rad50.ParseFilename(name)
	if !ok {
		return DirPtr{}, errors.ErrInvalidArgument
	}

	ptr = d.GetDirPointer(packed)
	if ptr.AfterEnd() {
		return DirPtr{}, errors.ErrNotFound
	}

	return ptr, nil
}

// GetEnt retrieves the directory entry for a named file.
func (d *Directory) GetEnt(name string) (ent DirEnt, err error) {
	defer trap(&err)

	ptr, err := d.Lookup(name)
	if err != nil {
		return DirEnt{}, err
	}

	ent, _ = d.GetEntAt(&ptr)
	return ent, nil
}

// GetEntAt materializes the client view of the entry under the cursor.
func (d *Directory) GetEntAt(ptr *DirPtr) (DirEnt, bool) {
	if !ptr.IsValid() {
		return DirEnt{}, false
	}

	var ent DirEnt
	for i := 0; i < rad50.NameWords; i++ {
		ent.Rad50Name[i] = ptr.Word(filenameWords + i*2)
	}

	ent.Name = rad50.FormatFilename(ent.Rad50Name)
	ent.Status = ptr.Word(statusWord)
	ent.Length = int(ptr.Word(totalLengthWord)) * blockcache.SectorSize
	ent.Sector0 = ptr.DataSector()
	ent.CreateTime, _ = DecodeDate(ptr.Word(creationDateWord))

	return ent, true
}

// MoveNextFiltered advances the cursor to the next entry with any of the
// mask bits set in its status word, reporting false when the scan runs off
// the end.
func (d *Directory) MoveNextFiltered(ptr *DirPtr, mask uint16) bool {
	for {
		ptr.Increment()
		if !ptr.IsValid() {
			return false
		}
		if ptr.Word(statusWord)&mask != 0 {
			return true
		}
	}
}

// PointerAt walks to the entry at (segment, index), rebuilding the cursor's
// data sector from scratch. It reports false if no such entry exists.
func (d *Directory) PointerAt(segment, index int) (DirPtr, bool) {
	ptr := d.StartScan()

	for {
		ptr.Increment()
		if !ptr.IsValid() {
			return ptr, false
		}
		if ptr.Segment() == segment && ptr.Index() == index {
			return ptr, true
		}
		if ptr.Segment() > segment {
			return ptr, false
		}
	}
}

// Statfs summarizes volume usage.
func (d *Directory) Statfs() (stats VolumeStats, err error) {
	defer trap(&err)

	// every segment reserves one slot for the end of segment marker
	perSegment := d.maxEntriesPerSegment() - 1
	inodes := perSegment * d.totalSegments

	stats.BlockSize = blockcache.SectorSize
	stats.FragmentSize = blockcache.SectorSize
	stats.MaxNameLength = 10
	stats.TotalBlocks = d.cache.VolumeSectors() -
		(firstSegmentSector + d.totalSegments*sectorsPerSegment)
	stats.Files = inodes

	freeBlocks := 0
	usedInodes := 0

	ptr := d.StartScan()
	for {
		ptr.Increment()
		if !ptr.IsValid() {
			break
		}

		status := ptr.Word(statusWord)
		length := int(ptr.Word(totalLengthWord))

		if status&StatusEmpty != 0 {
			freeBlocks += length
		} else if status&StatusEndOfSeg == 0 {
			usedInodes++
		}
	}

	stats.BlocksFree = freeBlocks
	stats.BlocksAvailable = freeBlocks
	stats.FilesFree = inodes - usedInodes

	return stats, nil
}

// Truncate resizes the file under the cursor to size bytes, rounded up to a
// whole number of sectors. Any entries relocated on behalf of the resize are
// reported in moves so that open handles can be fixed up.
func (d *Directory) Truncate(ptr *DirPtr, size int64) (moves []Move, err error) {
	defer trap(&err)

	if !ptr.IsValid() {
		return nil, errors.ErrNotFound
	}

	newSize := int((size + blockcache.SectorSize - 1) / blockcache.SectorSize)
	oldSize := int(ptr.Word(totalLengthWord))

	if newSize == oldSize {
		return nil, nil
	}

	tracker := NewChangeTracker()

	if newSize < oldSize {
		err = d.shrinkEntry(ptr, newSize, tracker)
	} else {
		err = d.growEntry(ptr, newSize, tracker)
	}
	if err != nil {
		return nil, err
	}

	return tracker.Moves(), nil
}

// RemoveEntry unlinks a file. Its entry becomes free space of the same
// length, merged with any free neighbors.
func (d *Directory) RemoveEntry(name string) (moves []Move, err error) {
	defer trap(&err)

	packed, ok := rad50.ParseFilename(name)
	if !ok {
		return nil, errors.ErrInvalidArgument
	}

	ptr := d.GetDirPointer(packed)
	if ptr.AfterEnd() {
		return nil, errors.ErrNotFound
	}

	tracker := NewChangeTracker()

	ptr.SetWord(statusWord, StatusEmpty)
	ptr.SetWord(filenameWords, 0)
	ptr.SetWord(filenameWords+2, 0)
	ptr.SetWord(filenameWords+4, 0)

	d.coalesceNeighboringFreeBlocks(&ptr, tracker)

	return tracker.Moves(), nil
}

// Rename gives an existing file a new name. Renaming onto a name that is
// already present fails with EEXIST rather than implicitly unlinking the
// target.
func (d *Directory) Rename(oldName, newName string) (err error) {
	defer trap(&err)

	oldPacked, ok := rad50.ParseFilename(oldName)
	if !ok {
		return errors.ErrInvalidArgument
	}
	newPacked, ok := rad50.ParseFilename(newName)
	if !ok {
		return errors.ErrInvalidArgument
	}

	ptr := d.GetDirPointer(oldPacked)
	if ptr.AfterEnd() {
		return errors.ErrNotFound
	}

	if existing := d.GetDirPointer(newPacked); !existing.AfterEnd() {
		return errors.ErrExists
	}

	ptr.SetWord(filenameWords, newPacked[0])
	ptr.SetWord(filenameWords+2, newPacked[1])
	ptr.SetWord(filenameWords+4, newPacked[2])

	return d.cache.Sync()
}

// CreateEntry allocates a zero-length tentative entry with the given name.
// The entry is committed to permanent when its last open handle is released.
func (d *Directory) CreateEntry(name string) (ptr DirPtr, moves []Move, err error) {
	defer trap(&err)

	packed, ok := rad50.ParseFilename(name)
	if !ok {
		return DirPtr{}, nil, errors.ErrInvalidArgument
	}

	tracker := NewChangeTracker()

	free := d.findLargestFreeBlock()
	if free.AfterEnd() {
		return DirPtr{}, nil, errors.ErrNoSpaceOnDevice
	}

	// If the file before the free block is open and growing, leave it room:
	// split the free block in half and start the new file in the middle.
	prev := free.Prev()
	if prev.IsValid() && prev.HasStatus(StatusTentative) {
		half := int(free.Word(totalLengthWord)) / 2
		if half > 0 {
			if _, err := d.carveFreeBlock(&free, half, tracker); err != nil {
				return DirPtr{}, nil, err
			}
			free = free.Next()
		}
	}

	if err := d.insertEmptyAt(&free, tracker); err != nil {
		return DirPtr{}, nil, err
	}

	free.SetWord(statusWord, StatusTentative)
	free.SetWord(filenameWords, packed[0])
	free.SetWord(filenameWords+2, packed[1])
	free.SetWord(filenameWords+4, packed[2])

	if dateWord, ok := EncodeDate(d.now()); ok {
		free.SetWord(creationDateWord, dateWord)
	}

	return free, tracker.Moves(), nil
}

// MakeEntryPermanent commits a tentative entry. Called when the last open
// handle on the file goes away.
func (d *Directory) MakeEntryPermanent(ptr *DirPtr) {
	if ptr.IsValid() && ptr.HasStatus(StatusTentative) {
		status := ptr.Word(statusWord)
		status = (status &^ StatusTentative) | StatusPermanent
		ptr.SetWord(statusWord, status)
	}
}

// shrinkEntry releases sectors from the tail of a file. If free space
// directly follows the entry the sectors just transfer into it; otherwise a
// free entry must first be inserted, which can cascade into entry spills.
func (d *Directory) shrinkEntry(ptr *DirPtr, newSize int, tracker *ChangeTracker) error {
	next := ptr.Next()

	if !next.HasStatus(StatusEmpty) {
		// on success next points to a zero-sector free entry in place
		if err := d.insertEmptyAt(&next, tracker); err != nil {
			return err
		}
	}

	delta := int(ptr.Word(totalLengthWord)) - newSize
	ptr.SetWord(totalLengthWord, uint16(newSize))
	next.SetWord(totalLengthWord, uint16(int(next.Word(totalLengthWord))+delta))

	// freed sectors that land in the next segment's first entry move that
	// segment's data range back to cover them
	if next.Segment() != ptr.Segment() {
		first := int(next.SegmentWord(segmentDataWord))
		next.SetSegmentWord(segmentDataWord, uint16(first-delta))
	}

	return nil
}

// growEntry extends a file. If the free space directly after the entry
// covers the growth it is consumed in place; otherwise the file is moved
// into the largest free block, which must be big enough to hold the whole
// new size since files are always contiguous.
func (d *Directory) growEntry(ptr *DirPtr, newSize int, tracker *ChangeTracker) error {
	oldSize := int(ptr.Word(totalLengthWord))

	next := ptr.Next()
	if next.HasStatus(StatusEmpty) && oldSize+int(next.Word(totalLengthWord)) >= newSize {
		delta := newSize - oldSize
		ptr.SetWord(totalLengthWord, uint16(newSize))
		next.SetWord(totalLengthWord, uint16(int(next.Word(totalLengthWord))-delta))

		// sectors stolen from the next segment's first entry belong to this
		// segment's data range now
		if next.Segment() != ptr.Segment() {
			first := int(next.SegmentWord(segmentDataWord))
			next.SetSegmentWord(segmentDataWord, uint16(first+delta))
		}

		if next.Word(totalLengthWord) == 0 {
			d.deleteEmptyAt(&next, tracker)
		}

		return nil
	}

	var savedName rad50.Name
	for i := 0; i < rad50.NameWords; i++ {
		savedName[i] = ptr.Word(filenameWords + i*2)
	}

	newp := d.findLargestFreeBlock()
	if newp.AfterEnd() || int(newp.Word(totalLengthWord)) < newSize {
		return errors.ErrNoSpaceOnDevice
	}

	inserted, err := d.carveFreeBlock(&newp, newSize, tracker)
	if err != nil {
		return err
	}

	// The carve may have shifted this entry one slot right inside its own
	// segment. Only the index moves; the data sector is untouched.
	if inserted > 0 && newp.Segment() == ptr.Segment() && newp.Index() < ptr.Index() {
		ptr.index++
	}

	// Copy the file data. Even with a writethrough cache this is safe ahead
	// of the directory update because the destination sectors are free.
	src := ptr.DataSector()
	dst := newp.DataSector()
	for i := 0; i < oldSize; i++ {
		if err := d.copySector(src+i, dst+i); err != nil {
			return err
		}
	}

	d.moveEntryAcrossSegments(*ptr, newp, tracker)

	// the copy brought the old length along; put the new one in place
	newp.SetWord(totalLengthWord, uint16(newSize))

	// the old slot becomes free space of the file's former size
	ptr.SetWord(statusWord, StatusEmpty)
	ptr.SetWord(filenameWords, 0)
	ptr.SetWord(filenameWords+2, 0)
	ptr.SetWord(filenameWords+4, 0)
	ptr.SetByte(jobByte, 0)
	ptr.SetByte(channelByte, 0)
	ptr.SetWord(creationDateWord, 0)

	d.coalesceNeighboringFreeBlocks(ptr, tracker)

	*ptr = d.GetDirPointer(savedName)
	return nil
}

func (d *Directory) copySector(src, dst int) error {
	srcBlk, err := d.cache.GetBlock(src, 1)
	if err != nil {
		return err
	}
	defer d.cache.PutBlock(srcBlk)

	dstBlk, err := d.cache.GetBlock(dst, 1)
	if err != nil {
		return err
	}
	defer d.cache.PutBlock(dstBlk)

	return dstBlk.CopyFromOtherBlock(srcBlk, 0, 0, blockcache.SectorSize)
}

// insertEmptyAt makes room for a zero-sector free entry at the cursor by
// shifting everything through the end of segment marker one slot right. A
// full segment first spills its last entry into the next segment, possibly
// cascading and possibly allocating a brand new segment.
func (d *Directory) insertEmptyAt(ptr *DirPtr, tracker *ChangeTracker) error {
	eos := d.advanceToEndOfSegment(*ptr)

	if eos.Index() >= d.maxEntriesPerSegment()-1 {
		if err := d.spillLastEntry(*ptr, tracker); err != nil {
			return err
		}

		// the spill moved the end of the segment
		eos = d.advanceToEndOfSegment(*ptr)
	}

	count := eos.Index() - ptr.Index() + 1
	shifted := ptr.withIndex(1)
	d.moveEntriesWithinSegment(*ptr, shifted, count, tracker)

	ptr.SetWord(statusWord, StatusEmpty)
	ptr.SetWord(filenameWords, 0)
	ptr.SetWord(filenameWords+2, 0)
	ptr.SetWord(filenameWords+4, 0)
	ptr.SetWord(totalLengthWord, 0)
	ptr.SetByte(jobByte, 0)
	ptr.SetByte(channelByte, 0)
	ptr.SetWord(creationDateWord, 0)

	return nil
}

// deleteEmptyAt removes the zero-sector free entry under the cursor by
// shifting the rest of the segment one slot left. The entry must be zero
// length; deleting anything longer would shift the data addresses of every
// following file.
func (d *Directory) deleteEmptyAt(ptr *DirPtr, tracker *ChangeTracker) {
	if ptr.Word(totalLengthWord) != 0 {
		panic(errors.NewWithMessage(errors.EINVAL, "deleting a free entry that still owns sectors"))
	}

	eos := d.advanceToEndOfSegment(*ptr)

	count := eos.Index() - ptr.Index()
	src := ptr.withIndex(1)
	d.moveEntriesWithinSegment(src, *ptr, count, tracker)
}

// spillLastEntry moves the last entry of the cursor's segment into the first
// slot of the next segment, allocating a new segment if the chain ends here.
// A full next segment spills recursively.
func (d *Directory) spillLastEntry(ptr DirPtr, tracker *ChangeTracker) error {
	eos := d.advanceToEndOfSegment(ptr)

	if eos.Index() == 0 {
		// can't spill an entry if there aren't any
		return nil
	}

	next := eos.Next()
	if next.AfterEnd() {
		if err := d.allocateNewSegment(); err != nil {
			return err
		}

		next = eos.Next()
	}

	last := eos.Prev()

	// this takes care of recursively spilling if next's segment is full
	if err := d.insertEmptyAt(&next, tracker); err != nil {
		return err
	}

	// next is one past an end of segment marker, so it is the first slot of
	// its segment
	d.moveEntryAcrossSegments(last, next, tracker)
	next.SetSegmentWord(segmentDataWord, uint16(last.DataSector()))

	last.SetWord(statusWord, StatusEndOfSeg)
	last.SetWord(filenameWords, 0)
	last.SetWord(filenameWords+2, 0)
	last.SetWord(filenameWords+4, 0)
	last.SetWord(totalLengthWord, 0)

	return nil
}

// allocateNewSegment links one more segment onto the end of the chain. The
// new segment holds just an end of segment marker whose data pointer is the
// end of the volume.
func (d *Directory) allocateNewSegment() error {
	next := 1 + int(mustWord(d.dirblk.ExtractWord(highestSegmentWord)))
	if next > d.totalSegments {
		return errors.ErrNoSpaceOnDevice
	}

	// find the last entry, which also gives us the last segment
	eos := d.StartScan()
	for {
		nextp := eos.Next()
		if nextp.AfterEnd() {
			break
		}
		eos = nextp
	}

	header := (next - 1) * sectorsPerSegment * blockcache.SectorSize
	must(d.dirblk.SetWord(header+totalSegmentsWord, mustWord(d.dirblk.ExtractWord(totalSegmentsWord))))
	must(d.dirblk.SetWord(header+nextSegmentWord, 0))
	// only segment 1 maintains the highest segment in use
	must(d.dirblk.SetWord(header+highestSegmentWord, 0))
	must(d.dirblk.SetWord(header+extraBytesWord, mustWord(d.dirblk.ExtractWord(extraBytesWord))))
	must(d.dirblk.SetWord(header+segmentDataWord, uint16(eos.DataSector())))

	entry0 := header + firstEntryOffset
	must(d.dirblk.SetWord(entry0+statusWord, StatusEndOfSeg))
	must(d.dirblk.SetWord(entry0+filenameWords, 0))
	must(d.dirblk.SetWord(entry0+filenameWords+2, 0))
	must(d.dirblk.SetWord(entry0+filenameWords+4, 0))
	must(d.dirblk.SetWord(entry0+totalLengthWord, 0))
	must(d.dirblk.SetByte(entry0+jobByte, 0))
	must(d.dirblk.SetByte(entry0+channelByte, 0))
	must(d.dirblk.SetWord(entry0+creationDateWord, 0))

	// the new segment is valid now and can be linked in
	eos.SetSegmentWord(nextSegmentWord, uint16(next))
	must(d.dirblk.SetWord(highestSegmentWord, uint16(next)))

	return nil
}

// findLargestFreeBlock returns a cursor to the biggest free entry, or an
// after-end cursor if the directory has no free entries at all.
func (d *Directory) findLargestFreeBlock() DirPtr {
	largest := -1
	largestPtr := DirPtr{}

	ptr := d.StartScan()
	for {
		ptr.Increment()
		if !ptr.IsValid() {
			break
		}

		if !ptr.HasStatus(StatusEmpty) {
			continue
		}

		if length := int(ptr.Word(totalLengthWord)); length > largest {
			largest = length
			largestPtr = ptr
		}
	}

	if largest < 0 {
		// ptr is after the end now
		return ptr
	}

	return largestPtr
}

// carveFreeBlock splits a free block so the cursor's entry is exactly size
// sectors, pushing the remainder into a newly inserted free entry behind it.
// It returns the number of entries inserted (0 or 1).
func (d *Directory) carveFreeBlock(ptr *DirPtr, size int, tracker *ChangeTracker) (int, error) {
	current := int(ptr.Word(totalLengthWord))

	if size > current {
		return 0, errors.ErrInvalidArgument
	}
	if size == current {
		return 0, nil
	}

	next := ptr.Next()
	if err := d.insertEmptyAt(&next, tracker); err != nil {
		return 0, err
	}

	delta := current - size
	ptr.SetWord(totalLengthWord, uint16(size))
	next.SetWord(totalLengthWord, uint16(delta))

	// a remainder pushed over a segment boundary takes its sectors with it
	if next.Segment() != ptr.Segment() {
		first := int(next.SegmentWord(segmentDataWord))
		next.SetSegmentWord(segmentDataWord, uint16(first-delta))
	}

	return 1, nil
}

// coalesceNeighboringFreeBlocks merges the run of free entries around the
// cursor into a single free entry, leaving the cursor on the survivor. When
// a merge crosses a segment boundary the absorbed space moves into the
// earlier segment's account, so the later segment's first data sector slides
// forward to match.
func (d *Directory) coalesceNeighboringFreeBlocks(ptr *DirPtr, tracker *ChangeTracker) {
	p := *ptr

	for {
		prev := p.Prev()
		if !prev.IsValid() || !prev.HasStatus(StatusEmpty) {
			break
		}
		p = prev
	}

	for {
		next := p.Next()
		if !next.IsValid() || !next.HasStatus(StatusEmpty) {
			break
		}

		absorbed := int(next.Word(totalLengthWord))
		p.SetWord(totalLengthWord, uint16(int(p.Word(totalLengthWord))+absorbed))
		next.SetWord(totalLengthWord, 0)

		if next.Segment() != p.Segment() {
			first := int(next.SegmentWord(segmentDataWord))
			next.SetSegmentWord(segmentDataWord, uint16(first+absorbed))
		}

		d.deleteEmptyAt(&next, tracker)
	}

	*ptr = p
}

// maxEntriesPerSegment computes how many entries fit in one segment. The
// number varies per volume because entries can carry extra application
// bytes.
func (d *Directory) maxEntriesPerSegment() int {
	return (blockcache.SectorSize*sectorsPerSegment - firstEntryOffset) / d.entrySize
}

// advanceToEndOfSegment returns a cursor to the end of segment marker of the
// cursor's segment.
func (d *Directory) advanceToEndOfSegment(ptr DirPtr) DirPtr {
	eos := ptr

	for !eos.HasStatus(StatusEndOfSeg) {
		eos.Increment()
	}

	return eos
}

// moveEntriesWithinSegment shifts count entries from src to dst inside one
// segment. Every entry's move is logged in its own slot of one transaction
// before the bytes move, so the tracker always describes the final state.
func (d *Directory) moveEntriesWithinSegment(src, dst DirPtr, count int, tracker *ChangeTracker) {
	if src.Segment() != dst.Segment() {
		panic(errors.NewWithMessage(errors.EINVAL, "block entry move must stay inside one segment"))
	}
	if count <= 0 {
		return
	}

	tracker.BeginTransaction()
	for i := 0; i < count; i++ {
		from := src.withIndex(i)
		to := dst.withIndex(i)
		tracker.MoveDirEntry(&from, &to)
	}
	tracker.EndTransaction()

	must(d.dirblk.CopyWithinBlock(src.Offset(0), dst.Offset(0), count*d.entrySize))
}

// moveEntryAcrossSegments copies one entry's bytes to a slot that may be in
// a different segment and logs the move.
func (d *Directory) moveEntryAcrossSegments(src, dst DirPtr, tracker *ChangeTracker) {
	tracker.BeginTransaction()
	tracker.MoveDirEntry(&src, &dst)
	tracker.EndTransaction()

	must(d.dirblk.CopyWithinBlock(src.Offset(0), dst.Offset(0), d.entrySize))
}
