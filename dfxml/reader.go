package dfxml

import (
	"io"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/internal/logger"
	"github.com/joshuapare/dfxmlkit/internal/xmlstream"
	"github.com/joshuapare/dfxmlkit/pkg/types"
	"github.com/joshuapare/dfxmlkit/record"
)

// ErrStop may be returned by a callback to end reading early. Read then
// returns nil.
var ErrStop = xmlstream.ErrStop

// StructuralError reports malformed nesting, with the elements still open.
type StructuralError = xmlstream.StructuralError

// Element names with a meaning to the reader. Everything else inside a
// file object is kept as a tag.
const (
	elemVolume     = "volume"
	elemFileObject = "fileobject"
	elemByteRuns   = "byte_runs"
	elemRun        = "run"
	elemByteRun    = "byte_run"
	elemHashDigest = "hashdigest"
	elemBlockSize  = "block_size"
	elemSource     = "source"
	elemDFXML      = "dfxml"
	elemFiwalk     = "fiwalk"
)

// frameKind says what an open element is, as far as the reader cares.
type frameKind uint8

const (
	frameOther frameKind = iota
	frameVolume
	frameFileObject
	frameByteRuns
	frameRun
	frameHashDigest
	frameSource
	frameDocument
)

func kindOf(name string) frameKind {
	switch name {
	case elemVolume:
		return frameVolume
	case elemFileObject:
		return frameFileObject
	case elemByteRuns:
		return frameByteRuns
	case elemRun, elemByteRun:
		return frameRun
	case elemHashDigest:
		return frameHashDigest
	case elemSource:
		return frameSource
	case elemDFXML, elemFiwalk:
		return frameDocument
	}
	return frameOther
}

type frame struct {
	kind frameKind
	line int
	alg  record.HashAlgo // hashdigest only
}

// reader is the state machine behind Read and ReadVolumes. It holds at
// most one volume and one file object at a time.
type reader struct {
	opts Options
	log  *slog.Logger

	stack  []frame
	image  *record.Image
	volume *record.Volume
	file   *record.FileObjectBuilder

	// sectorSize applies to runs of the current volume.
	sectorSize int64

	onFile   func(*record.FileObject) error
	onVolume func(*record.Volume) error
}

func newReader(opts []Option) *reader {
	o := buildOptions(opts)
	l := o.Logger
	if l == nil {
		l = logger.L
	}
	return &reader{
		opts:       o,
		log:        l,
		image:      record.NewImage(),
		sectorSize: o.SectorSize,
	}
}

func (rd *reader) run(r io.Reader) error {
	return xmlstream.Run(r, rd, xmlstream.Options{
		CharsetReader: rd.opts.CharsetReader,
		Limits:        rd.opts.Limits,
	})
}

// parent returns the kind of the innermost open element.
func (rd *reader) parent() frameKind {
	if len(rd.stack) == 0 {
		return frameOther
	}
	return rd.stack[len(rd.stack)-1].kind
}

// StartElement implements xmlstream.Handler.
func (rd *reader) StartElement(e xmlstream.Element) error {
	f := frame{kind: kindOf(e.Name), line: e.Line}
	switch f.kind {
	case frameVolume:
		rd.startVolume(e)
	case frameFileObject:
		rd.file = record.NewFileObjectBuilder(rd.volume).SetImageFile(rd.opts.Image)
	case frameRun:
		rd.startRun(e)
	case frameHashDigest:
		t, _ := e.Attr("type")
		f.alg = record.ParseHashAlgo(t)
	}
	rd.stack = append(rd.stack, f)
	return nil
}

func (rd *reader) startVolume(e xmlstream.Element) {
	var offset int64
	if s, ok := e.Attr("offset"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			rd.log.Warn("volume offset is not a number", "offset", s, "line", e.Line)
			rd.note(types.SevWarning, types.DiagNumber, e.Line, e.Name, "volume offset is not a number", s)
		}
		offset = n
	}
	rd.volume = record.NewVolume(offset, rd.image)
	rd.sectorSize = rd.opts.SectorSize
	if s, ok := e.Attr(extent.AttrSectorSize); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && n > 0 {
			rd.sectorSize = n
		}
	}
}

func (rd *reader) startRun(e xmlstream.Element) {
	if rd.file == nil {
		rd.log.Debug("ignoring run outside a file object", "line", e.Line)
		rd.note(types.SevInfo, types.DiagPlace, e.Line, e.Name, "run outside a file object", "")
		return
	}
	attrs := make([]extent.Attr, len(e.Attrs))
	for i, a := range e.Attrs {
		attrs[i] = extent.Attr{Name: a.Name.Local, Value: a.Value}
	}
	run := extent.DecodeAttrs(attrs)
	if bad := run.DegradedAttrs(); len(bad) > 0 {
		rd.log.Warn("run attribute is not a number, kept as text", "attrs", bad, "line", e.Line)
		rd.note(types.SevWarning, types.DiagNumber, e.Line, e.Name, "run attribute kept as text", strings.Join(bad, ","))
	}
	if run.SectorSize == 0 && rd.sectorSize != extent.DefaultSectorSize {
		run.SectorSize = rd.sectorSize
	}
	rd.file.AddRun(run)
}

// note records a tolerated problem when diagnostics are collected.
func (rd *reader) note(sev types.Severity, cat types.DiagCategory, line int, elem, issue, detail string) {
	rd.opts.Diagnostics.Add(types.Diagnostic{
		Severity: sev, Category: cat, Line: line, Element: elem, Issue: issue, Detail: detail,
	})
}

// EndElement implements xmlstream.Handler.
func (rd *reader) EndElement(name, text string) error {
	f := rd.stack[len(rd.stack)-1]
	rd.stack = rd.stack[:len(rd.stack)-1]
	parent := rd.parent()

	switch f.kind {
	case frameVolume:
		v := rd.volume
		rd.volume = nil
		rd.sectorSize = rd.opts.SectorSize
		if rd.onVolume != nil && v != nil {
			return rd.onVolume(v)
		}
		return nil

	case frameFileObject:
		if rd.file == nil {
			return nil
		}
		fo := rd.file.Build()
		rd.file = nil
		rd.log.Debug("file object complete", "filename", fo.Filename(), "runs", fo.Fragments())
		if rd.onFile != nil {
			return rd.onFile(fo)
		}
		return nil

	case frameHashDigest:
		rd.endHashDigest(f, parent, strings.TrimSpace(text))
		return nil

	case frameByteRuns, frameRun, frameDocument, frameSource:
		return nil
	}

	switch {
	case rd.file != nil:
		rd.file.SetTag(name, text)
	case rd.volume != nil && parent == frameVolume:
		if name == elemBlockSize {
			rd.setBlockSize(f.line, text)
		}
		rd.volume.SetTag(name, text)
	case parent == frameSource && (name == "image_filename" || name == "imagefile"):
		rd.image.SetTag("image_filename", text)
	case parent == frameSource || parent == frameDocument:
		rd.image.SetTag(name, text)
	}
	return nil
}

func (rd *reader) endHashDigest(f frame, parent frameKind, digest string) {
	if rd.file == nil {
		return
	}
	alg := f.alg
	switch parent {
	case frameRun:
		if !rd.file.SetRunHash(alg, digest) {
			rd.log.Debug("ignoring run hashdigest without a run", "alg", alg)
			rd.note(types.SevInfo, types.DiagPlace, f.line, elemHashDigest, "run hashdigest without a run", string(alg))
		}
	case frameFileObject:
		rd.file.SetHash(alg, digest)
	default:
		rd.log.Debug("ignoring hashdigest outside a run or file object", "alg", alg)
		rd.note(types.SevInfo, types.DiagPlace, f.line, elemHashDigest, "hashdigest outside a run or file object", string(alg))
	}
}

func (rd *reader) setBlockSize(line int, text string) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || n <= 0 {
		rd.log.Warn("volume block_size is not a positive number", "block_size", text)
		rd.note(types.SevWarning, types.DiagNumber, line, elemBlockSize, "volume block_size is not a positive number", text)
		return
	}
	rd.volume.BlockSize = n
}

// Read parses a file-object document from r and calls fn with each file
// object as its element closes, in document order.
//
// fn runs before the next token is read. An error from fn stops the parse
// and is returned unchanged, except ErrStop, which ends it without error.
// Malformed nesting is a *StructuralError.
func Read(r io.Reader, fn func(*record.FileObject) error, opts ...Option) error {
	rd := newReader(opts)
	rd.onFile = fn
	return rd.run(r)
}

// FileObjects returns an iterator over the file objects of r. A parse
// error is yielded once, with a nil FileObject, as the last element.
// Breaking out of the loop stops the parse.
func FileObjects(r io.Reader, opts ...Option) iter.Seq2[*record.FileObject, error] {
	return func(yield func(*record.FileObject, error) bool) {
		err := Read(r, func(fo *record.FileObject) error {
			if !yield(fo, nil) {
				return ErrStop
			}
			return nil
		}, opts...)
		if err != nil {
			yield(nil, err)
		}
	}
}

// ReadVolumes parses r and calls fn with each volume as its element
// closes. File objects are built but not delivered.
func ReadVolumes(r io.Reader, fn func(*record.Volume) error, opts ...Option) error {
	rd := newReader(opts)
	rd.onVolume = fn
	return rd.run(r)
}

// Handlers receives both record kinds from ReadAll.
type Handlers struct {
	FileObject func(*record.FileObject) error
	Volume     func(*record.Volume) error
}

// ReadAll parses r once, delivering file objects and volumes to whichever
// handlers are set. It returns the image metadata gathered along the way.
func ReadAll(r io.Reader, h Handlers, opts ...Option) (*record.Image, error) {
	rd := newReader(opts)
	rd.onFile = h.FileObject
	rd.onVolume = h.Volume
	err := rd.run(r)
	return rd.image, err
}
