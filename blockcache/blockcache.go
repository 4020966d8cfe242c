package blockcache

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/velocityboy/rt11fs/datasource"
	"github.com/velocityboy/rt11fs/errors"
)

// BlockCache holds the resident blocks of one volume, ordered by starting
// sector. No two resident blocks ever overlap. There is no eviction: the
// working set is bounded by the directory plus the handful of data sectors
// active in any one operation.
type BlockCache struct {
	source  datasource.DataSource
	sectors int
	blocks  []*Block
}

// New creates a cache over a data source. The source is stat'ed once to
// learn the volume size.
func New(source datasource.DataSource) (*BlockCache, error) {
	size, err := source.Size()
	if err != nil {
		return nil, errors.NewFromError(errors.EIO, err)
	}

	return &BlockCache{
		source:  source,
		sectors: int(size / SectorSize),
	}, nil
}

// VolumeSectors returns the total number of sectors in the volume.
func (c *BlockCache) VolumeSectors() int {
	return c.sectors
}

// GetBlock retrieves a block of count sectors starting at sector, reading it
// from the data source if it is not already resident.
//
// Each successful GetBlock must eventually be balanced by PutBlock. A request
// that straddles an existing resident block, or that names a resident block
// with a different count, fails with EINVAL.
func (c *BlockCache) GetBlock(sector, count int) (*Block, error) {
	insertAt := len(c.blocks)

	for i, bp := range c.blocks {
		if bp.Sector() == sector {
			if bp.Count() != count {
				return nil, errors.NewWithMessage(
					errors.EINVAL, "asking for wrong number of sectors in block cache")
			}
			bp.addRef()
			return bp, nil
		}

		if sector >= bp.Sector()+bp.Count() {
			continue
		}

		if sector+count <= bp.Sector() {
			insertAt = i
			break
		}

		return nil, errors.NewWithMessage(
			errors.EINVAL, "block cache request would overlap existing block")
	}

	bp := newBlock(sector, count)
	if err := bp.Read(c.source); err != nil {
		return nil, err
	}
	bp.addRef()

	c.blocks = append(c.blocks, nil)
	copy(c.blocks[insertAt+1:], c.blocks[insertAt:])
	c.blocks[insertAt] = bp

	return bp, nil
}

// PutBlock releases a borrow obtained from GetBlock. The block stays
// resident even at zero references.
func (c *BlockCache) PutBlock(bp *Block) {
	bp.release()
}

// ResizeBlock changes the sector count of a resident block. A growing block
// may not reach the starting sector of the next resident block, and a block
// may never be resized to zero or fewer sectors.
func (c *BlockCache) ResizeBlock(bp *Block, count int) error {
	if count <= 0 {
		return errors.NewWithMessage(errors.EINVAL, "block resize to non-positive size")
	}

	at := -1
	for i, candidate := range c.blocks {
		if candidate == bp {
			at = i
			break
		}
	}
	if at < 0 {
		return errors.NewWithMessage(errors.EINVAL, "block cache asked to resize nonexistent block")
	}

	if at+1 < len(c.blocks) && bp.Sector()+count > c.blocks[at+1].Sector() {
		return errors.NewWithMessage(errors.EINVAL, fmt.Sprintf(
			"resizing block at sector %d to %d sectors would overlap its neighbor",
			bp.Sector(), count))
	}

	return bp.resize(count, c.source)
}

// Sync writes every dirty resident block back to the data source. Failures
// do not stop the sweep; all are collected and reported together.
func (c *BlockCache) Sync() error {
	var result *multierror.Error

	for _, bp := range c.blocks {
		if bp.IsDirty() {
			if err := bp.Write(c.source); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result.ErrorOrNil()
}
