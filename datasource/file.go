package datasource

import (
	"os"

	"github.com/velocityboy/rt11fs/errors"
)

// FileSource is a DataSource over an open file descriptor. The source takes
// ownership of the file; Close releases it.
type FileSource struct {
	file *os.File
}

// NewFileSource wraps an already-open image file.
func NewFileSource(file *os.File) *FileSource {
	return &FileSource{file: file}
}

// OpenFileSource opens the image at path for read/write access.
func OpenFileSource(path string) (*FileSource, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.NewFromError(errors.ENOENT, err)
	}
	return &FileSource{file: file}, nil
}

func (s *FileSource) Size() (int64, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, errors.NewFromError(errors.EIO, err)
	}
	return info.Size(), nil
}

func (s *FileSource) ReadAt(p []byte, off int64) error {
	n, err := s.file.ReadAt(p, off)
	if err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	if n != len(p) {
		return errors.NewWithMessage(errors.EIO, "short read from image file")
	}
	return nil
}

func (s *FileSource) WriteAt(p []byte, off int64) error {
	n, err := s.file.WriteAt(p, off)
	if err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	if n != len(p) {
		return errors.NewWithMessage(errors.EIO, "short write to image file")
	}
	return nil
}

func (s *FileSource) Close() error {
	return s.file.Close()
}
