package record

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// copyChunk bounds how much of a run is read from the image at once.
const copyChunk = 1 << 20

// Extractor produces a file's contents without reading its runs, for
// files the runs cannot reconstruct (compressed files, container image
// formats). tsk.Icat is the stock implementation.
type Extractor interface {
	Extract(ctx context.Context, fo *FileObject, w io.Writer) error
}

// Source is where file contents come from. Image is read at the run
// offsets; Extractor handles what Image cannot. Either may be nil.
type Source struct {
	Image     io.ReaderAt
	Extractor Extractor
}

// ContentForRun returns the bytes of one run. Fill runs are synthesized,
// the sparse sentinel yields no bytes, and anything else is read from src
// at the run's image offset.
func (fo *FileObject) ContentForRun(run extent.ByteRun, src io.ReaderAt) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeRun(context.Background(), &buf, run, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRun(ctx context.Context, w io.Writer, run extent.ByteRun, src io.ReaderAt) error {
	switch {
	case run.IsSparse():
		return nil
	case run.Len < 0:
		return &extent.InvalidExtentError{Extent: run, Reason: "length cannot be negative"}
	case run.Has(extent.FieldFill):
		return writeFill(ctx, w, run)
	case !run.Has(extent.FieldImgOffset):
		return &extent.InvalidExtentError{Extent: run, Reason: "no image offset to read from"}
	case src == nil:
		return types.ErrNoImage
	}

	buf := make([]byte, min(run.Len, copyChunk))
	off, remaining := run.ImgOffset, run.Len
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := buf[:min(remaining, int64(len(buf)))]
		n, err := src.ReadAt(chunk, off)
		if n < len(chunk) {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("read %s at %d: %w", run, off+int64(n), err)
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		off += int64(n)
		remaining -= int64(n)
	}
	return nil
}

func writeFill(ctx context.Context, w io.Writer, run extent.ByteRun) error {
	buf := bytes.Repeat([]byte{byte(run.Fill)}, int(min(run.Len, copyChunk)))
	for remaining := run.Len; remaining > 0; {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := buf[:min(remaining, int64(len(buf)))]
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		remaining -= int64(len(chunk))
	}
	return nil
}

// WriteContents writes the file's contents to w and returns the byte
// count.
//
// src.Image defaults to ImageFile. Encrypted files fail with
// types.ErrEncrypted. Compressed files, and every file when there is no
// image, go through src.Extractor. Otherwise the runs are read in
// document order.
func (fo *FileObject) WriteContents(ctx context.Context, w io.Writer, src Source) (int64, error) {
	if fo.Encrypted() {
		return 0, types.ErrEncrypted
	}
	if src.Image == nil {
		src.Image = fo.image
	}
	cw := &countingWriter{w: w}
	if fo.Compressed() || src.Image == nil {
		switch {
		case src.Extractor != nil:
			err := src.Extractor.Extract(ctx, fo, cw)
			return cw.n, err
		case fo.Compressed():
			return 0, &types.Error{Kind: types.ErrKindUnsupported, Msg: "cannot read raw bytes of a compressed file", Err: types.ErrUnsupported}
		default:
			return 0, types.ErrNoImage
		}
	}
	for _, run := range fo.runs {
		if err := writeRun(ctx, cw, run, src.Image); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// Contents returns the whole file. For allocated files this is the
// original content.
func (fo *FileObject) Contents(ctx context.Context, src Source) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := fo.WriteContents(ctx, &buf, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HashContents streams the contents through alg and returns the hex
// digest.
func (fo *FileObject) HashContents(ctx context.Context, alg HashAlgo, src Source) (string, error) {
	h, err := NewHash(alg)
	if err != nil {
		return "", err
	}
	if _, err := fo.WriteContents(ctx, h, src); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FilePresent reports whether the file's contents can still be read from
// src, judged by the first of MD5 and SHA1 the document recorded. Empty
// files are never present. A file with neither digest is an error.
func (fo *FileObject) FilePresent(ctx context.Context, src Source) (bool, error) {
	if size, _ := fo.Filesize(); size == 0 {
		return false, nil
	}
	for _, alg := range []HashAlgo{HashMD5, HashSHA1} {
		want := fo.digest(alg)
		if want == "" {
			continue
		}
		got, err := fo.HashContents(ctx, alg, src)
		if err != nil {
			return false, err
		}
		return strings.EqualFold(strings.TrimSpace(want), got), nil
	}
	return false, &types.Error{
		Kind: types.ErrKindNotFound,
		Msg:  fmt.Sprintf("cannot check %q: no md5 or sha1 recorded", fo.Filename()),
		Err:  types.ErrNotFound,
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
