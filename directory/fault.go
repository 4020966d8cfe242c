package directory

import (
	"github.com/velocityboy/rt11fs/errors"
)

// Field access inside the directory block is validated at mount time: segment
// numbers are bounded by the segment count and entry indices by the per
// segment capacity, so offsets computed from them cannot leave the block. A
// range fault here therefore means the in-memory structure has been corrupted
// and the operation cannot continue. Accessors panic with the underlying
// DriverError. Public operations with an error result convert that back into
// an error return at their boundary; the cursor-level methods without one
// (GetDirPointer, GetEntAt, MoveNextFiltered, PointerAt, MakeEntryPermanent)
// let the panic propagate.

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustWord(v uint16, err error) uint16 {
	must(err)
	return v
}

// trap converts a fault raised below a public operation into that
// operation's error result. Non-error panics keep unwinding.
func trap(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(error); ok {
		*errp = errors.NewFromError(errors.ErrnoOf(err), err)
		return
	}
	panic(r)
}
