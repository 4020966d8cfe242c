package datasource

import (
	"io"

	"github.com/velocityboy/rt11fs/errors"
	"github.com/xaionaro-go/bytesextra"
)

// StreamSource adapts any io.ReadWriteSeeker to the DataSource interface.
// The stream's size is fixed; requests past the end fail rather than extend
// the image.
type StreamSource struct {
	stream io.ReadWriteSeeker
}

// NewStreamSource wraps a seekable stream holding the image.
func NewStreamSource(stream io.ReadWriteSeeker) *StreamSource {
	return &StreamSource{stream: stream}
}

// NewMemorySource creates a source over an in-memory image. The caller keeps
// access to the backing slice, which is convenient for building test fixtures
// and for formatting fresh volumes.
func NewMemorySource(image []byte) *StreamSource {
	return &StreamSource{stream: bytesextra.NewReadWriteSeeker(image)}
}

func (s *StreamSource) Size() (int64, error) {
	size, err := s.stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.NewFromError(errors.EIO, err)
	}
	return size, nil
}

func (s *StreamSource) ReadAt(p []byte, off int64) error {
	if err := s.boundsCheck(p, off); err != nil {
		return err
	}
	if _, err := s.stream.Seek(off, io.SeekStart); err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	n, err := io.ReadFull(s.stream, p)
	if err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	if n != len(p) {
		return errors.NewWithMessage(errors.EIO, "short read from image stream")
	}
	return nil
}

func (s *StreamSource) WriteAt(p []byte, off int64) error {
	if err := s.boundsCheck(p, off); err != nil {
		return err
	}
	if _, err := s.stream.Seek(off, io.SeekStart); err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	n, err := s.stream.Write(p)
	if err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	if n != len(p) {
		return errors.NewWithMessage(errors.EIO, "short write to image stream")
	}
	return nil
}

func (s *StreamSource) boundsCheck(p []byte, off int64) error {
	size, err := s.Size()
	if err != nil {
		return err
	}
	if off < 0 || off+int64(len(p)) > size {
		return errors.NewWithMessage(errors.EIO, "transfer outside the bounds of the image")
	}
	return nil
}
