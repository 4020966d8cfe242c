// Package blockcache provides a sector-addressed read-through cache over a
// disk image. Resident blocks never overlap, so metadata held in one block is
// always the single authoritative copy.
package blockcache

import (
	"fmt"

	"github.com/velocityboy/rt11fs/datasource"
	"github.com/velocityboy/rt11fs/errors"
)

// SectorSize is the fixed sector size of the volumes this cache serves.
const SectorSize = 512

// Block is a cached run of contiguous sectors. Blocks are owned by the cache
// that created them; holders borrow a block with GetBlock and return it with
// PutBlock. Every mutator marks the block dirty so Sync knows to write it
// back.
type Block struct {
	sector   int
	count    int
	refcount int
	dirty    bool
	data     []byte
}

func newBlock(sector, count int) *Block {
	return &Block{
		sector: sector,
		count:  count,
		data:   make([]byte, count*SectorSize),
	}
}

// Sector returns the starting sector of the block.
func (b *Block) Sector() int {
	return b.sector
}

// Count returns the size of the block in sectors.
func (b *Block) Count() int {
	return b.count
}

// IsDirty reports whether the block has unwritten modifications.
func (b *Block) IsDirty() bool {
	return b.dirty
}

func (b *Block) addRef() int {
	b.refcount++
	return b.refcount
}

func (b *Block) release() int {
	b.refcount--
	return b.refcount
}

// GetByte returns the byte at offset.
func (b *Block) GetByte(offset int) (byte, error) {
	if offset < 0 || offset >= len(b.data) {
		return 0, b.rangeError("byte read", offset, 1)
	}
	return b.data[offset], nil
}

// ExtractWord returns the 16-bit word at offset, in PDP-11 byte order
// (little-endian).
func (b *Block) ExtractWord(offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(b.data) {
		return 0, b.rangeError("word read", offset, 2)
	}
	return uint16(b.data[offset]) | uint16(b.data[offset+1])<<8, nil
}

// SetByte stores a byte at offset.
func (b *Block) SetByte(offset int, value byte) error {
	if offset < 0 || offset >= len(b.data) {
		return b.rangeError("byte write", offset, 1)
	}
	b.data[offset] = value
	b.dirty = true
	return nil
}

// SetWord stores a 16-bit word at offset in PDP-11 byte order.
func (b *Block) SetWord(offset int, value uint16) error {
	if offset < 0 || offset+2 > len(b.data) {
		return b.rangeError("word write", offset, 2)
	}
	b.data[offset] = byte(value)
	b.data[offset+1] = byte(value >> 8)
	b.dirty = true
	return nil
}

// Read fills the block from the data source. The caller is responsible for
// flushing a dirty block before overwriting it.
func (b *Block) Read(source datasource.DataSource) error {
	err := source.ReadAt(b.data, int64(b.sector)*SectorSize)
	if err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	b.dirty = false
	return nil
}

// Write stores the block's contents back into the data source and marks the
// block clean.
func (b *Block) Write(source datasource.DataSource) error {
	err := source.WriteAt(b.data, int64(b.sector)*SectorSize)
	if err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	b.dirty = false
	return nil
}

// CopyOut copies bytes out of the block into a caller buffer.
func (b *Block) CopyOut(offset int, dest []byte) error {
	if offset < 0 || len(dest) < 0 || offset+len(dest) > len(b.data) {
		return b.rangeError("copy out", offset, len(dest))
	}
	copy(dest, b.data[offset:offset+len(dest)])
	return nil
}

// CopyIn copies bytes from a caller buffer into the block.
func (b *Block) CopyIn(offset int, src []byte) error {
	if offset < 0 || offset+len(src) > len(b.data) {
		return b.rangeError("copy in", offset, len(src))
	}
	copy(b.data[offset:offset+len(src)], src)
	b.dirty = true
	return nil
}

// CopyWithinBlock moves count bytes inside the block. The source and
// destination ranges may overlap.
func (b *Block) CopyWithinBlock(sourceOffset, destOffset, count int) error {
	if sourceOffset < 0 || destOffset < 0 || count <= 0 ||
		sourceOffset+count > len(b.data) || destOffset+count > len(b.data) {
		return errors.NewWithMessage(
			errors.EIO, "invalid copy ranges for moving data inside block")
	}
	copy(b.data[destOffset:destOffset+count], b.data[sourceOffset:sourceOffset+count])
	b.dirty = true
	return nil
}

// CopyFromOtherBlock copies count bytes from another block into this one.
// The cache guarantees resident blocks never overlap, so a plain copy is
// always safe.
func (b *Block) CopyFromOtherBlock(source *Block, sourceOffset, destOffset, count int) error {
	if sourceOffset < 0 || destOffset < 0 || count <= 0 ||
		sourceOffset+count > len(source.data) || destOffset+count > len(b.data) {
		return errors.NewWithMessage(
			errors.EIO, "invalid copy ranges for moving data between blocks")
	}
	copy(b.data[destOffset:destOffset+count], source.data[sourceOffset:sourceOffset+count])
	b.dirty = true
	return nil
}

// ZeroFill clears count bytes starting at offset.
func (b *Block) ZeroFill(offset, count int) error {
	if offset < 0 || count < 0 || offset+count > len(b.data) {
		return errors.NewWithMessage(errors.EIO, "invalid range for zero filling block")
	}
	for i := offset; i < offset+count; i++ {
		b.data[i] = 0
	}
	b.dirty = true
	return nil
}

// resize grows or shrinks the block. Growth is backfilled by reading the new
// tail from the data source; if that read fails the block is restored to its
// previous size before the error is returned.
//
// The expected use is to expand a block to cover an entire on-disk structure
// (the directory) once its total size is known from the first sector.
func (b *Block) resize(newCount int, source datasource.DataSource) error {
	if newCount > b.count {
		grown := make([]byte, newCount*SectorSize)
		copy(grown, b.data)

		tail := grown[b.count*SectorSize:]
		err := source.ReadAt(tail, int64(b.sector+b.count)*SectorSize)
		if err != nil {
			return errors.NewFromError(errors.EIO, err)
		}
		b.data = grown
	} else {
		b.data = b.data[:newCount*SectorSize]
	}

	b.count = newCount
	return nil
}

func (b *Block) rangeError(op string, offset, count int) errors.DriverError {
	return errors.NewWithMessage(errors.EIO, fmt.Sprintf(
		"%s of %d bytes at offset %d outside block of %d sectors",
		op, count, offset, b.count))
}
