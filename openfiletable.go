package rt11fs

import (
	"github.com/velocityboy/rt11fs/blockcache"
	"github.com/velocityboy/rt11fs/directory"
	"github.com/velocityboy/rt11fs/errors"
)

// OpenFileTable tracks every open file on the volume. File handles are small
// integers indexing a slot table; opening the same file twice shares one
// reference-counted slot, and slots of closed files are reused.
//
// Each slot holds a directory cursor. Contiguous allocation means the
// directory moves entries around as files grow and shrink, so every mutating
// directory call reports its moves and the table rewrites affected cursors
// before returning to the caller.
type OpenFileTable struct {
	directory *directory.Directory
	cache     *blockcache.BlockCache
	files     []openFileEntry
}

type openFileEntry struct {
	refcnt int
	ptr    directory.DirPtr
}

// NewOpenFileTable creates an empty table over the given directory.
func NewOpenFileTable(dir *directory.Directory, cache *blockcache.BlockCache) *OpenFileTable {
	return &OpenFileTable{
		directory: dir,
		cache:     cache,
	}
}

// Open returns a handle to the named file, sharing an existing slot if the
// file is already open.
func (t *OpenFileTable) Open(name string) (int, error) {
	ptr, err := t.directory.Lookup(name)
	if err != nil {
		return -1, err
	}

	for i := range t.files {
		if t.files[i].refcnt > 0 && ptr.Same(&t.files[i].ptr) {
			t.files[i].refcnt++
			return i, nil
		}
	}

	entry := openFileEntry{refcnt: 1, ptr: ptr}

	for i := range t.files {
		if t.files[i].refcnt == 0 {
			t.files[i] = entry
			return i, nil
		}
	}

	t.files = append(t.files, entry)
	return len(t.files) - 1, nil
}

// Create opens the named file, creating it if necessary. An existing file
// keeps its identity and is truncated to zero length.
func (t *OpenFileTable) Create(name string) (int, error) {
	_, err := t.directory.Lookup(name)

	if err == nil {
		fd, err := t.Open(name)
		if err != nil {
			return -1, err
		}
		if err := t.Truncate(fd, 0); err != nil {
			t.Close(fd)
			return -1, err
		}
		return fd, nil
	}

	if errors.ErrnoOf(err) != errors.ENOENT {
		return -1, err
	}

	_, moves, err := t.directory.CreateEntry(name)
	if err != nil {
		return -1, err
	}
	t.applyMoves(moves, -1)

	return t.Open(name)
}

// Close releases a handle. When the last reference goes away the entry is
// committed to permanent and all dirty blocks are flushed.
func (t *OpenFileTable) Close(fd int) error {
	entry, err := t.slot(fd)
	if err != nil {
		return err
	}

	entry.refcnt--
	if entry.refcnt > 0 {
		return nil
	}

	t.directory.MakeEntryPermanent(&entry.ptr)
	return t.cache.Sync()
}

// Read transfers up to len(buf) bytes from the file at the given offset,
// returning the number of bytes read. Reading at or past the end of the file
// transfers nothing.
func (t *OpenFileTable) Read(fd int, buf []byte, offset int64) (int, error) {
	entry, err := t.slot(fd)
	if err != nil {
		return 0, err
	}

	ptr := &entry.ptr
	fileLength := int64(ptr.LengthSectors())
	sector0 := ptr.DataSector()

	end := offset + int64(len(buf))
	got := 0

	for offset < end {
		sector := offset / blockcache.SectorSize
		if sector >= fileLength {
			break
		}

		secoffs := int(offset % blockcache.SectorSize)

		blk, err := t.cache.GetBlock(sector0+int(sector), 1)
		if err != nil {
			return got, err
		}

		tocopy := int(end - offset)
		if left := blockcache.SectorSize - secoffs; left < tocopy {
			tocopy = left
		}

		copyErr := blk.CopyOut(secoffs, buf[got:got+tocopy])
		t.cache.PutBlock(blk)
		if copyErr != nil {
			return got, copyErr
		}

		got += tocopy
		offset += int64(tocopy)
	}

	return got, nil
}

// Write transfers len(buf) bytes into the file at the given offset, growing
// the file first if the write extends past its end.
func (t *OpenFileTable) Write(fd int, buf []byte, offset int64) (int, error) {
	entry, err := t.slot(fd)
	if err != nil {
		return 0, err
	}

	end := offset + int64(len(buf))
	length := int64(entry.ptr.LengthSectors()) * blockcache.SectorSize
	extending := end > length

	if extending {
		moves, err := t.directory.Truncate(&entry.ptr, end)
		if err != nil {
			return 0, err
		}
		t.applyMoves(moves, fd)
	}

	ptr := &entry.ptr
	got := 0

	for offset < end {
		sector := int(offset / blockcache.SectorSize)
		secoffs := int(offset % blockcache.SectorSize)

		blk, err := t.cache.GetBlock(ptr.DataSector()+sector, 1)
		if err != nil {
			return got, err
		}

		tocopy := int(end - offset)
		if left := blockcache.SectorSize - secoffs; left < tocopy {
			tocopy = left
		}

		copyErr := blk.CopyIn(secoffs, buf[got:got+tocopy])

		if copyErr == nil && extending && secoffs+tocopy < blockcache.SectorSize {
			// a relocated file can have garbage past the end of the last
			// sector written, so clear it
			copyErr = blk.ZeroFill(secoffs+tocopy, blockcache.SectorSize-(secoffs+tocopy))
		}

		t.cache.PutBlock(blk)
		if copyErr != nil {
			return got, copyErr
		}

		got += tocopy
		offset += int64(tocopy)
	}

	return got, nil
}

// Truncate resizes an open file, fixing up any handles whose entries were
// relocated.
func (t *OpenFileTable) Truncate(fd int, size int64) error {
	entry, err := t.slot(fd)
	if err != nil {
		return err
	}

	moves, err := t.directory.Truncate(&entry.ptr, size)
	if err != nil {
		return err
	}

	t.applyMoves(moves, fd)
	return nil
}

// Unlink removes a file by name and fixes up handles displaced by the
// removal.
func (t *OpenFileTable) Unlink(name string) error {
	moves, err := t.directory.RemoveEntry(name)
	if err != nil {
		return err
	}

	t.applyMoves(moves, -1)
	return nil
}

// applyMoves rewrites the cursor of every slot whose entry was relocated.
//
// Matching runs against each slot's position before any rewriting, so a pair
// of entries that swapped places both land correctly. The slot that initiated
// the operation, if any, is excluded: the directory already left its cursor
// on the final position. Replacement cursors are re-walked from the start of
// the directory so their cached data sectors are right no matter where the
// entries landed.
func (t *OpenFileTable) applyMoves(moves []directory.Move, initiator int) {
	type update struct {
		slot    int
		segment int
		index   int
	}
	var updates []update

	for i := range t.files {
		if t.files[i].refcnt == 0 || i == initiator {
			continue
		}

		ptr := &t.files[i].ptr
		for _, move := range moves {
			if ptr.Segment() == move.OldSegment && ptr.Index() == move.OldIndex {
				updates = append(updates, update{i, move.NewSegment, move.NewIndex})
				break
			}
		}
	}

	for _, u := range updates {
		if moved, ok := t.directory.PointerAt(u.segment, u.index); ok {
			t.files[u.slot].ptr = moved
		}
	}
}

func (t *OpenFileTable) slot(fd int) (*openFileEntry, error) {
	if fd < 0 || fd >= len(t.files) || t.files[fd].refcnt <= 0 {
		return nil, errors.ErrInvalidFileDescriptor
	}
	return &t.files[fd], nil
}

// openHandles sums the reference counts of every live slot.
func (t *OpenFileTable) openHandles() int {
	total := 0
	for i := range t.files {
		if t.files[i].refcnt > 0 {
			total += t.files[i].refcnt
		}
	}
	return total
}
