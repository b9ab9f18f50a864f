package record

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/joshuapare/dfxmlkit/extent"
)

// Image describes the disk image a document was produced from.
type Image struct {
	tags map[string]string
}

// NewImage returns an empty Image.
func NewImage() *Image { return &Image{tags: make(map[string]string)} }

// SetTag records a leaf element seen at image scope.
func (im *Image) SetTag(name, value string) { im.tags[name] = value }

// Tag returns the text of a recorded leaf.
func (im *Image) Tag(name string) (string, bool) {
	v, ok := im.tags[name]
	return v, ok
}

// Tags returns a copy of every recorded leaf.
func (im *Image) Tags() map[string]string { return maps.Clone(im.tags) }

// Filename is the image file name as the producing tool recorded it.
func (im *Image) Filename() string { return im.tags["image_filename"] }

// Size is the image size in bytes.
func (im *Image) Size() (int64, bool) { return intTag(im.tags, "imagesize") }

// Volume is a partition or file system within the image. File objects
// point back to the Volume they were found in.
type Volume struct {
	Offset    int64 // byte offset of the volume in the image
	BlockSize int64 // file system block size; 512 until a block_size leaf says otherwise
	Image     *Image

	tags map[string]string
}

// NewVolume returns a Volume at offset with the default block size.
func NewVolume(offset int64, im *Image) *Volume {
	return &Volume{
		Offset:    offset,
		BlockSize: extent.DefaultSectorSize,
		Image:     im,
		tags:      make(map[string]string),
	}
}

// SetTag records a leaf element seen directly in the volume.
func (v *Volume) SetTag(name, value string) { v.tags[name] = value }

// Tag returns the text of a recorded leaf.
func (v *Volume) Tag(name string) (string, bool) {
	s, ok := v.tags[name]
	return s, ok
}

// Tags returns a copy of every recorded leaf.
func (v *Volume) Tags() map[string]string { return maps.Clone(v.tags) }

// PartitionOffset returns the partition_offset leaf, accepting the older
// Partition_Offset spelling.
func (v *Volume) PartitionOffset() (int64, bool) {
	if n, ok := intTag(v.tags, "partition_offset"); ok {
		return n, true
	}
	return intTag(v.tags, "Partition_Offset")
}

func (v *Volume) FType() (int64, bool)      { return intTag(v.tags, "ftype") }
func (v *Volume) FTypeStr() string          { return v.tags["ftype_str"] }
func (v *Volume) BlockCount() (int64, bool) { return intTag(v.tags, "block_count") }
func (v *Volume) FirstBlock() (int64, bool) { return intTag(v.tags, "first_block") }
func (v *Volume) LastBlock() (int64, bool)  { return intTag(v.tags, "last_block") }

func (v *Volume) String() string {
	return fmt.Sprintf("volume[offset=%d; block_size=%d; ftype=%s]", v.Offset, v.BlockSize, v.FTypeStr())
}

// intTag parses a decimal leaf. Absent or non-numeric text reports false.
func intTag(tags map[string]string, name string) (int64, bool) {
	s, ok := tags[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
