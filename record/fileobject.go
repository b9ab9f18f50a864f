package record

import (
	"io"
	"maps"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/joshuapare/dfxmlkit/dftime"
	"github.com/joshuapare/dfxmlkit/extent"
)

// OrphanFiles is the pseudo-directory under which file system tools list
// files they could not attach to a directory. It is never allocated.
const OrphanFiles = "$OrphanFiles"

// TimeTags lists the timestamp leaves a file object may carry.
var TimeTags = []string{"atime", "mtime", "ctime", "dtime", "crtime"}

// FileObject is one file described by a document: the text of its leaf
// elements, its byte runs in document order, and its whole-file digests.
//
// A FileObject is complete and no longer changes once it reaches a caller.
type FileObject struct {
	tags   map[string]string
	runs   []extent.ByteRun
	hashes map[HashAlgo]string
	volume *Volume
	image  io.ReaderAt
}

// Kind returns KindFileObject.
func (fo *FileObject) Kind() Kind { return KindFileObject }

// Tag returns the text of the named leaf.
func (fo *FileObject) Tag(name string) (string, bool) {
	v, ok := fo.tags[name]
	return v, ok
}

// HasTag reports whether the named leaf was present.
func (fo *FileObject) HasTag(name string) bool {
	_, ok := fo.tags[name]
	return ok
}

// Tags returns a copy of every leaf.
func (fo *FileObject) Tags() map[string]string { return maps.Clone(fo.tags) }

// ByteRuns returns the runs in document order. They are not sorted.
func (fo *FileObject) ByteRuns() []extent.ByteRun { return slices.Clone(fo.runs) }

// Hashes returns a copy of the whole-file digests, keyed by algorithm.
func (fo *FileObject) Hashes() map[HashAlgo]string { return maps.Clone(fo.hashes) }

// Hash returns the whole-file digest for alg.
func (fo *FileObject) Hash(alg HashAlgo) (string, bool) {
	v, ok := fo.hashes[alg]
	return v, ok
}

// Volume returns the volume the file was found in, or nil.
func (fo *FileObject) Volume() *Volume { return fo.volume }

// ImageFile returns the disk image handle the parser was given, or nil.
// Content reads fall back to it when their Source has no Image.
func (fo *FileObject) ImageFile() io.ReaderAt { return fo.image }

func (fo *FileObject) intTag(name string) (int64, bool) { return intTag(fo.tags, name) }

func (fo *FileObject) Partition() (int64, bool) { return fo.intTag("partition") }
func (fo *FileObject) Filesize() (int64, bool)  { return fo.intTag("filesize") }
func (fo *FileObject) UID() (int64, bool)       { return fo.intTag("uid") }
func (fo *FileObject) GID() (int64, bool)       { return fo.intTag("gid") }
func (fo *FileObject) MetaType() (int64, bool)  { return fo.intTag("meta_type") }
func (fo *FileObject) Mode() (int64, bool)      { return fo.intTag("mode") }

func (fo *FileObject) Filename() string { return fo.tags["filename"] }
func (fo *FileObject) NameType() string { return fo.tags["name_type"] }
func (fo *FileObject) Libmagic() string { return fo.tags["libmagic"] }

// Inode returns the inode as recorded. It may be a plain number or a
// Sleuth Kit "x-y-z" attribute address.
func (fo *FileObject) Inode() string { return fo.tags["inode"] }

// Ext returns the lower-cased extension of the file name without the dot,
// or "" if there is none.
func (fo *FileObject) Ext() string {
	ext := path.Ext(fo.Filename())
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func (fo *FileObject) IsDir() bool  { return fo.NameType() == "d" }
func (fo *FileObject) IsFile() bool { return fo.NameType() == "r" }

// Allocated reports whether the file is allocated. Deleted files and
// anything named $OrphanFiles are not. Both the lower and upper case tag
// spellings are honored.
func (fo *FileObject) Allocated() bool {
	if fo.Filename() == OrphanFiles {
		return false
	}
	return fo.flag("alloc")
}

func (fo *FileObject) Compressed() bool { return fo.flag("compressed") }
func (fo *FileObject) Encrypted() bool  { return fo.flag("encrypted") }

// flag reports whether the lower or upper case spelling of name holds 1.
func (fo *FileObject) flag(name string) bool {
	return isOne(fo.tags[name]) || isOne(fo.tags[strings.ToUpper(name)])
}

func isOne(s string) bool {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil && n == 1
}

// time parses a timestamp leaf. An absent leaf is a null Time and no error.
func (fo *FileObject) time(name string) (dftime.Time, error) {
	s, ok := fo.tags[name]
	if !ok {
		return dftime.Time{}, nil
	}
	return dftime.Parse(s)
}

func (fo *FileObject) ATime() (dftime.Time, error)  { return fo.time("atime") }
func (fo *FileObject) MTime() (dftime.Time, error)  { return fo.time("mtime") }
func (fo *FileObject) CTime() (dftime.Time, error)  { return fo.time("ctime") }
func (fo *FileObject) DTime() (dftime.Time, error)  { return fo.time("dtime") }
func (fo *FileObject) CRTime() (dftime.Time, error) { return fo.time("crtime") }

// Times returns every timestamp leaf that parses, keyed by tag name.
// Leaves that do not parse are left out.
func (fo *FileObject) Times() map[string]dftime.Time {
	out := make(map[string]dftime.Time)
	for _, name := range TimeTags {
		t, err := fo.time(name)
		if err != nil || t.IsNull() {
			continue
		}
		out[name] = t
	}
	return out
}

// digest prefers a plain leaf named after the algorithm and falls back
// to a whole-file hashdigest.
func (fo *FileObject) digest(alg HashAlgo) string {
	if v, ok := fo.tags[string(alg)]; ok {
		return v
	}
	return fo.hashes[alg]
}

func (fo *FileObject) MD5() string    { return fo.digest(HashMD5) }
func (fo *FileObject) SHA1() string   { return fo.digest(HashSHA1) }
func (fo *FileObject) SHA256() string { return fo.digest(HashSHA256) }

// Fragments returns the number of byte runs.
func (fo *FileObject) Fragments() int { return len(fo.runs) }

// HasContents reports whether the file has any byte runs.
func (fo *FileObject) HasContents() bool { return len(fo.runs) > 0 }

// HasSector reports whether any run holds sector s.
func (fo *FileObject) HasSector(s int64) bool {
	return slices.ContainsFunc(fo.runs, func(r extent.ByteRun) bool { return r.HasSector(s) })
}

// FragStartSector returns the first sector of run i.
func (fo *FileObject) FragStartSector(i int) (int64, bool) {
	if i < 0 || i >= len(fo.runs) {
		return 0, false
	}
	return fo.runs[i].StartSector(), true
}

func (fo *FileObject) String() string {
	name := fo.Filename()
	if name == "" {
		name = "???"
	}
	var b strings.Builder
	b.WriteString("fileobject ")
	b.WriteString(name)
	b.WriteString(" byte_runs:")
	for _, r := range fo.runs {
		b.WriteByte(' ')
		b.WriteString(r.String())
	}
	return b.String()
}

// FileObjectBuilder assembles a FileObject while its element is open.
// The zero value is not usable; call NewFileObjectBuilder.
type FileObjectBuilder struct {
	fo *FileObject
}

// NewFileObjectBuilder starts a file object found in v, which may be nil.
func NewFileObjectBuilder(v *Volume) *FileObjectBuilder {
	return &FileObjectBuilder{fo: &FileObject{
		tags:   make(map[string]string),
		hashes: make(map[HashAlgo]string),
		volume: v,
	}}
}

// SetTag records a leaf. A repeated leaf replaces the earlier text.
func (b *FileObjectBuilder) SetTag(name, value string) *FileObjectBuilder {
	b.fo.tags[name] = value
	return b
}

// AddRun appends a run.
func (b *FileObjectBuilder) AddRun(r extent.ByteRun) *FileObjectBuilder {
	b.fo.runs = append(b.fo.runs, r)
	return b
}

// SetHash records a whole-file digest. The digest is also kept as a leaf
// named after the algorithm, which is where older documents put it.
func (b *FileObjectBuilder) SetHash(alg HashAlgo, digest string) *FileObjectBuilder {
	b.fo.hashes[alg] = digest
	b.fo.tags[string(alg)] = digest
	return b
}

// SetRunHash records a digest on the most recently added run. It reports
// false when there is no run yet.
func (b *FileObjectBuilder) SetRunHash(alg HashAlgo, digest string) bool {
	n := len(b.fo.runs)
	if n == 0 {
		return false
	}
	r := &b.fo.runs[n-1]
	if r.Hashes == nil {
		r.Hashes = make(map[string]string)
	}
	r.Hashes[string(alg)] = digest
	return true
}

// SetImageFile attaches the disk image the file's runs point into.
func (b *FileObjectBuilder) SetImageFile(img io.ReaderAt) *FileObjectBuilder {
	b.fo.image = img
	return b
}

// Build returns the finished FileObject. The builder must not be used
// afterwards.
func (b *FileObjectBuilder) Build() *FileObject {
	fo := b.fo
	b.fo = nil
	return fo
}
