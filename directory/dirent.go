package directory

import (
	"time"

	"github.com/velocityboy/rt11fs/rad50"
)

// DirEnt is the client-facing view of one directory entry.
type DirEnt struct {
	Status     uint16     // raw status word
	Rad50Name  rad50.Name // filename in its on-disk packed form
	Name       string     // printable "BASENAME.EXT", padding trimmed
	Length     int        // file length in bytes
	Sector0    int        // first data sector of the file
	CreateTime time.Time  // decoded creation date; zero if unstamped or invalid
}

// IsReadOnly reports whether the file carries the read-only status bit.
func (e *DirEnt) IsReadOnly() bool {
	return e.Status&StatusReadOnly != 0
}
