// Package rt11fs provides read/write access to volumes formatted with the
// RT-11 on-disk filesystem: a single flat directory of contiguously allocated
// files, kept in a linked list of 1 KiB directory segments starting at
// sector 6.
//
// The package is single threaded by design. An adapter that exposes the
// filesystem to concurrent callers (a FUSE bridge, say) must serialize its
// calls into the core.
package rt11fs

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/velocityboy/rt11fs/blockcache"
	"github.com/velocityboy/rt11fs/datasource"
	"github.com/velocityboy/rt11fs/directory"
	"github.com/velocityboy/rt11fs/errors"
)

// FileStat describes one file for getattr-style callers.
type FileStat struct {
	Mode    os.FileMode
	Nlink   int
	Size    int64
	ModTime time.Time
}

// FileSystem aggregates everything behind one mounted volume: the data
// source, the block cache over it, the parsed directory, and the open file
// table.
type FileSystem struct {
	source    datasource.DataSource
	cache     *blockcache.BlockCache
	directory *directory.Directory
	oft       *OpenFileTable
}

// Mount builds a filesystem over an already-open data source. The directory
// is parsed and validated immediately; a volume that does not carry a sane
// RT-11 directory fails here with EINVAL.
func Mount(source datasource.DataSource) (*FileSystem, error) {
	cache, err := blockcache.New(source)
	if err != nil {
		return nil, err
	}

	dir, err := directory.New(cache)
	if err != nil {
		return nil, err
	}

	return &FileSystem{
		source:    source,
		cache:     cache,
		directory: dir,
		oft:       NewOpenFileTable(dir, cache),
	}, nil
}

// MountPath opens the image file at path and mounts it.
func MountPath(path string) (*FileSystem, error) {
	source, err := datasource.OpenFileSource(path)
	if err != nil {
		return nil, err
	}

	fs, err := Mount(source)
	if err != nil {
		source.Close()
		return nil, err
	}

	return fs, nil
}

// Unmount flushes all dirty blocks and releases the directory. The
// filesystem must not be used afterward.
func (fs *FileSystem) Unmount() error {
	err := fs.cache.Sync()
	fs.directory.Close()

	if closer, ok := fs.source.(io.Closer); ok {
		if closeErr := closer.Close(); err == nil {
			err = closeErr
		}
	}

	return err
}

// Directory exposes the parsed directory, mostly for tools and tests.
func (fs *FileSystem) Directory() *directory.Directory {
	return fs.directory
}

// GetAttr returns attributes for the object at path. The root path denotes
// the single directory.
func (fs *FileSystem) GetAttr(path string) (FileStat, error) {
	if path == "/" {
		return FileStat{
			Mode:  os.ModeDir | 0o777,
			Nlink: 3,
		}, nil
	}

	name, err := validatePath(path)
	if err != nil {
		return FileStat{}, err
	}

	ent, err := fs.directory.GetEnt(name)
	if err != nil {
		return FileStat{}, err
	}

	mode := os.FileMode(0o444)
	if !ent.IsReadOnly() {
		mode |= 0o222
	}

	return FileStat{
		Mode:    mode,
		Nlink:   1,
		Size:    int64(ent.Length),
		ModTime: ent.CreateTime,
	}, nil
}

// StatFS summarizes the volume. Only the root path names the volume.
func (fs *FileSystem) StatFS(path string) (directory.VolumeStats, error) {
	if path != "/" {
		return directory.VolumeStats{}, errors.ErrNotFound
	}

	return fs.directory.Statfs()
}

// ReadDir lists the permanent files of the volume's single directory.
func (fs *FileSystem) ReadDir(path string) ([]directory.DirEnt, error) {
	if path != "/" {
		return nil, errors.ErrNotFound
	}

	var ents []directory.DirEnt

	scan := fs.directory.StartScan()
	for fs.directory.MoveNextFiltered(&scan, directory.StatusPermanent) {
		if ent, ok := fs.directory.GetEntAt(&scan); ok {
			ents = append(ents, ent)
		}
	}

	return ents, nil
}

// Open returns a handle to an existing file.
func (fs *FileSystem) Open(path string) (int, error) {
	name, err := validatePath(path)
	if err != nil {
		return -1, err
	}

	return fs.oft.Open(name)
}

// Create opens a file, creating it if it does not exist and truncating it if
// it does.
func (fs *FileSystem) Create(path string) (int, error) {
	name, err := validatePath(path)
	if err != nil {
		return -1, err
	}

	return fs.oft.Create(name)
}

// Release drops a handle obtained from Open or Create.
func (fs *FileSystem) Release(fd int) error {
	return fs.oft.Close(fd)
}

// Read copies file contents into buf starting at offset and reports how many
// bytes were transferred.
func (fs *FileSystem) Read(fd int, buf []byte, offset int64) (int, error) {
	return fs.oft.Read(fd, buf, offset)
}

// Write stores buf into the file starting at offset, extending the file if
// needed, and reports how many bytes were transferred.
func (fs *FileSystem) Write(fd int, buf []byte, offset int64) (int, error) {
	return fs.oft.Write(fd, buf, offset)
}

// Ftruncate resizes an open file.
func (fs *FileSystem) Ftruncate(fd int, size int64) error {
	return fs.oft.Truncate(fd, size)
}

// Fsync flushes every dirty block to the image.
func (fs *FileSystem) Fsync() error {
	return fs.cache.Sync()
}

// Unlink removes the named file.
func (fs *FileSystem) Unlink(path string) error {
	name, err := validatePath(path)
	if err != nil {
		return err
	}

	return fs.oft.Unlink(name)
}

// Rename gives a file a new name. Renaming onto an existing file fails with
// EEXIST.
func (fs *FileSystem) Rename(oldPath, newPath string) error {
	oldName, err := validatePath(oldPath)
	if err != nil {
		return err
	}
	newName, err := validatePath(newPath)
	if err != nil {
		return err
	}

	return fs.directory.Rename(oldName, newName)
}

// Chmod is accepted for adapter compatibility but RT-11 has no permission
// model to store it in.
func (fs *FileSystem) Chmod(path string, mode os.FileMode) error {
	return nil
}

// ListDirectory dumps every directory entry, including free space and end of
// segment markers, one line per entry.
func (fs *FileSystem) ListDirectory(w io.Writer) {
	fmt.Fprintln(w, "SEG,IDX ---NAME--- LENGTH SECTOR")

	dirp := fs.directory.StartScan()
	for {
		dirp.Increment()
		if !dirp.IsValid() {
			break
		}

		ent, _ := fs.directory.GetEntAt(&dirp)

		name := ent.Name
		if dirp.HasStatus(directory.StatusEmpty) {
			name = "<FREE>"
		}

		fmt.Fprintf(w, "%3d,%3d %10s %6d %6d",
			dirp.Segment(), dirp.Index(),
			name,
			ent.Length/blockcache.SectorSize,
			ent.Sector0)

		if ent.CreateTime.IsZero() {
			fmt.Fprintf(w, "     -  -  ")
		} else {
			fmt.Fprintf(w, " %s", ent.CreateTime.Format("2006-01-02"))
		}

		for _, flag := range []struct {
			mask uint16
			tag  string
		}{
			{directory.StatusTentative, "TEN"},
			{directory.StatusEmpty, "MPT"},
			{directory.StatusPermanent, "PRM"},
			{directory.StatusEndOfSeg, "EOS"},
			{directory.StatusReadOnly, "RDO"},
			{directory.StatusProtected, "PRT"},
			{directory.StatusPrefix, "PRE"},
		} {
			if ent.Status&flag.mask != 0 {
				fmt.Fprintf(w, " %s", flag.tag)
			} else {
				fmt.Fprintf(w, "    ")
			}
		}

		fmt.Fprintln(w)
	}
}

// validatePath checks that a path names a file in the single directory:
// exactly one leading slash and nothing nested below it.
func validatePath(path string) (string, error) {
	if path == "" || path[0] != '/' {
		return "", errors.ErrInvalidArgument
	}

	if path == "/" {
		return "", errors.ErrNotFound
	}

	if strings.IndexByte(path[1:], '/') >= 0 {
		return "", errors.ErrNotFound
	}

	return path[1:], nil
}
