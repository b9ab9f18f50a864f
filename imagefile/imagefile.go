// Package imagefile opens raw disk images for the random-access reads that
// content extraction and residency checks make.
package imagefile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/dfxmlkit/internal/mmfile"
)

// File is an open raw disk image. It implements io.ReaderAt and is safe
// for concurrent reads until Close.
type File struct {
	path string
	size int64

	data  []byte       // mapped contents, nil when reading through f
	unmap func() error // releases data
	f     *os.File
}

// Option adjusts how Open reads the image.
type Option func(*openOptions)

type openOptions struct {
	noMmap bool
}

// WithoutMmap reads through the file descriptor instead of mapping the
// image.
func WithoutMmap() Option { return func(o *openOptions) { o.noMmap = true } }

// Open opens the image at path. The image is memory-mapped where the
// platform allows and read through the file otherwise.
func Open(path string, opts ...Option) (*File, error) {
	var o openOptions
	for _, fn := range opts {
		fn(&o)
	}

	if !o.noMmap {
		data, unmap, err := mmfile.Map(path)
		switch {
		case err == nil:
			return &File{path: path, size: int64(len(data)), data: data, unmap: unmap}, nil
		case !errors.Is(err, errors.ErrUnsupported):
			return nil, fmt.Errorf("imagefile: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imagefile: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("imagefile: %w", err)
	}
	return &File{path: path, size: info.Size(), f: f}, nil
}

// Path returns the path the image was opened with.
func (im *File) Path() string { return im.path }

// Size returns the image length in bytes.
func (im *File) Size() int64 { return im.size }

// ReadAt implements io.ReaderAt.
func (im *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("imagefile: negative offset %d", off)
	}
	if im.f != nil {
		return im.f.ReadAt(p, off)
	}
	if im.unmap == nil {
		return 0, os.ErrClosed
	}
	if off >= im.size {
		return 0, io.EOF
	}
	n := copy(p, im.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close releases the image. Reads after Close fail.
func (im *File) Close() error {
	if im.f != nil {
		err := im.f.Close()
		im.f = nil
		return err
	}
	if im.unmap != nil {
		err := im.unmap()
		im.data, im.unmap = nil, nil
		return err
	}
	return nil
}
