package extent

import (
	"fmt"
	"maps"
	"strings"
)

// DefaultSectorSize is the sector size assumed when a run or database does
// not declare one.
const DefaultSectorSize = 512

// SparseLen is the length legacy producers emit for a sparse or zero-filled
// run of unknown size. It is never a real negative length.
const SparseLen = -1

// Field marks which optional ByteRun fields were present in the source.
type Field uint8

const (
	FieldImgOffset Field = 1 << iota
	FieldFileOffset
	FieldFSOffset
	FieldLen
	FieldFill
	FieldUncompressedLen
)

// ByteRun is one contiguous region of a file or cell: where it sits in the
// image, where it sits in the file, and how long it is.
//
// Numeric fields are only meaningful when the matching Field bit is set in
// Fields; Has reports that. Attributes that are not numeric, or that this
// package does not know, are kept verbatim in Extra.
type ByteRun struct {
	ImgOffset       int64 // offset from the start of the image
	FileOffset      int64 // offset from the start of the file
	FSOffset        int64 // offset from the start of the file system
	Len             int64 // bytes; SparseLen for a sparse run of unknown size
	Fill            int64 // byte value for runs that are a constant fill
	UncompressedLen int64 // logical size of a compressed run
	SectorSize      int64 // zero means DefaultSectorSize

	Fields Field

	// Hashes maps a lowercase algorithm name to the hex digest of this run.
	Hashes map[string]string
	// Extra holds attributes kept as text.
	Extra map[string]string
}

// New returns a run at imgOffset of length bytes.
func New(imgOffset, length int64) ByteRun {
	return ByteRun{
		ImgOffset: imgOffset,
		Len:       length,
		Fields:    FieldImgOffset | FieldLen,
	}
}

// NewFileRun returns a run known only by its offset within the file.
func NewFileRun(fileOffset, length int64) ByteRun {
	return ByteRun{
		FileOffset: fileOffset,
		Len:        length,
		Fields:     FieldFileOffset | FieldLen,
	}
}

// Has reports whether every field in f is present.
func (r ByteRun) Has(f Field) bool { return r.Fields&f == f }

// WithFileOffset returns a copy of r with the file offset set.
func (r ByteRun) WithFileOffset(off int64) ByteRun {
	r.FileOffset = off
	r.Fields |= FieldFileOffset
	return r
}

// WithFill returns a copy of r marked as a constant fill of b.
func (r ByteRun) WithFill(b int64) ByteRun {
	r.Fill = b
	r.Fields |= FieldFill
	return r
}

// IsSparse reports whether r carries the legacy unknown-size sentinel.
func (r ByteRun) IsSparse() bool { return r.Has(FieldLen) && r.Len == SparseLen }

// sectorSize returns the effective sector size.
func (r ByteRun) sectorSize() int64 {
	if r.SectorSize <= 0 {
		return DefaultSectorSize
	}
	return r.SectorSize
}

// length is Len with the sparse sentinel mapped to zero.
func (r ByteRun) length() int64 {
	if r.Len < 0 {
		return 0
	}
	return r.Len
}

// StartSector is the sector holding the first byte of the run.
func (r ByteRun) StartSector() int64 { return r.ImgOffset / r.sectorSize() }

// SectorCount is the number of whole sectors in the run.
func (r ByteRun) SectorCount() int64 { return r.length() / r.sectorSize() }

// ExtraLen is the number of bytes past the last whole sector.
func (r ByteRun) ExtraLen() int64 { return r.length() % r.sectorSize() }

// End is the exclusive end offset of the run in the image.
func (r ByteRun) End() int64 { return r.ImgOffset + r.length() }

// HasSector reports whether sector s lies inside the run. Runs without an
// image offset (constant fills, compressed tails) contain no sectors.
func (r ByteRun) HasSector(s int64) bool {
	if !r.Has(FieldImgOffset | FieldLen) {
		return false
	}
	b := s * r.sectorSize()
	return r.ImgOffset <= b && b < r.End()
}

// Attr returns the raw text of an attribute kept in Extra.
func (r ByteRun) Attr(name string) (string, bool) {
	v, ok := r.Extra[name]
	return v, ok
}

// Clone returns a deep copy of r.
func (r ByteRun) Clone() ByteRun {
	r.Hashes = maps.Clone(r.Hashes)
	r.Extra = maps.Clone(r.Extra)
	return r
}

// Equal reports whether two runs describe the same region with the same
// attributes and digests.
func (r ByteRun) Equal(o ByteRun) bool {
	if r.Fields != o.Fields || r.sectorSize() != o.sectorSize() {
		return false
	}
	if r.ImgOffset != o.ImgOffset || r.FileOffset != o.FileOffset || r.FSOffset != o.FSOffset ||
		r.Len != o.Len || r.Fill != o.Fill || r.UncompressedLen != o.UncompressedLen {
		return false
	}
	return maps.Equal(r.Hashes, o.Hashes) && maps.Equal(r.Extra, o.Extra)
}

func (r ByteRun) String() string {
	var b strings.Builder
	b.WriteString("byte_run[")
	sep := ""
	field := func(name string, v int64) {
		fmt.Fprintf(&b, "%s%s=%d", sep, name, v)
		sep = "; "
	}
	if r.Has(FieldImgOffset) {
		field("img_offset", r.ImgOffset)
	}
	if r.Has(FieldFileOffset) {
		field("file_offset", r.FileOffset)
	}
	if r.Has(FieldFill) {
		field("fill", r.Fill)
	}
	if r.Has(FieldLen) {
		field("len", r.Len)
	}
	if r.Has(FieldUncompressedLen) {
		field("uncompressed_len", r.UncompressedLen)
	}
	b.WriteString("]")
	return b.String()
}
