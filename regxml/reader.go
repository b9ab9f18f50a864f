package regxml

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/joshuapare/dfxmlkit/dftime"
	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/internal/logger"
	"github.com/joshuapare/dfxmlkit/internal/xmlstream"
	"github.com/joshuapare/dfxmlkit/pkg/types"
	"github.com/joshuapare/dfxmlkit/record"
)

type frameKind uint8

const (
	frameOther frameKind = iota
	frameRegistry
	frameHive
	frameKey
	frameValue
	frameMTime
	frameString
	frameByteRuns
	frameByteRun
)

func kindOf(name string) frameKind {
	switch name {
	case "msregistry":
		return frameRegistry
	case "hive":
		return frameHive
	case "key", "node":
		return frameKey
	case "value":
		return frameValue
	case "mtime":
		return frameMTime
	case "string":
		return frameString
	case "byte_runs":
		return frameByteRuns
	case "byte_run":
		return frameByteRun
	}
	return frameOther
}

type frame struct {
	kind     frameKind
	name     string
	line     int
	id       record.CellID // keys and values
	children bool
}

// reader is the state machine behind Read.
type reader struct {
	opts Options
	log  *slog.Logger

	stack []frame
	hive  *record.HiveBuilder
	hives []*record.Hive

	// unnamed counts placeholder names handed out during this parse.
	unnamed int

	onCell func(record.Cell) error
}

func newReader(opts []Option) *reader {
	o := buildOptions(opts)
	l := o.Logger
	if l == nil {
		l = logger.L
	}
	return &reader{opts: o, log: l}
}

func (rd *reader) run(r io.Reader) error {
	return xmlstream.Run(r, rd, xmlstream.Options{
		CharsetReader: rd.opts.CharsetReader,
		Limits:        rd.opts.Limits,
	})
}

// builder returns the hive being filled, starting one for cells that
// appear outside any hive element.
func (rd *reader) builder() *record.HiveBuilder {
	if rd.hive == nil {
		rd.newHive()
	}
	return rd.hive
}

func (rd *reader) newHive() {
	rd.hive = record.NewHiveBuilder()
	rd.hives = append(rd.hives, rd.hive.Hive())
}

// enclosing returns the innermost open frame of one of kinds.
func (rd *reader) enclosing(kinds ...frameKind) (frame, bool) {
	for i := len(rd.stack) - 1; i >= 0; i-- {
		f := rd.stack[i]
		for _, k := range kinds {
			if f.kind == k {
				return f, true
			}
		}
		if f.kind == frameHive {
			break
		}
	}
	return frame{}, false
}

func (rd *reader) names() []string {
	out := make([]string, len(rd.stack))
	for i, f := range rd.stack {
		out[i] = f.name
	}
	return out
}

// StartElement implements xmlstream.Handler.
func (rd *reader) StartElement(e xmlstream.Element) error {
	if n := len(rd.stack); n > 0 {
		rd.stack[n-1].children = true
	}
	f := frame{kind: kindOf(e.Name), name: e.Name, line: e.Line}
	attrs := attrMap(e)

	switch f.kind {
	case frameHive:
		rd.newHive()
	case frameKey:
		parent := rd.parentKey()
		name, err := rd.cellName(record.KindKey, parent, attrs, e.Line)
		if err != nil {
			return err
		}
		f.id = rd.builder().OpenKey(parent, name, attrs["root"] == "1")
	case frameValue:
		if err := rd.startValue(&f, attrs, e.Line); err != nil {
			return err
		}
	case frameByteRun:
		rd.startByteRun(e)
	case frameOther:
		rd.log.Debug("ignoring unknown registry element", "element", e.Name, "line", e.Line)
		rd.note(types.SevInfo, types.DiagElement, e.Line, e.Name, "unknown registry element", "")
	}
	rd.stack = append(rd.stack, f)
	return nil
}

func attrMap(e xmlstream.Element) map[string]string {
	m := make(map[string]string, len(e.Attrs))
	for _, a := range e.Attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

func (rd *reader) parentKey() record.CellID {
	if f, ok := rd.enclosing(frameKey); ok {
		return f.id
	}
	return 0
}

// cellName resolves the name of a key or value. A cell without a name
// attribute gets a placeholder unique within the parse, skipping any
// placeholder text already registered as a sibling of the same kind.
func (rd *reader) cellName(kind record.Kind, parent record.CellID, attrs map[string]string, line int) (string, error) {
	attr, raw, ok := firstAttr(attrs, "name", "key")
	if !ok {
		for {
			rd.unnamed++
			name := fmt.Sprintf("(unnamed cell #%d)", rd.unnamed)
			if !rd.builder().Registered(kind, parent, name) {
				return name, nil
			}
		}
	}
	name, err := decodeName(attrs, attr, raw, line)
	if err != nil {
		return "", err
	}
	if err := types.CheckLimit("name", rd.opts.Limits.MaxNameLen, utf8.RuneCountInString(name), line); err != nil {
		return "", err
	}
	return name, nil
}

func decodeName(attrs map[string]string, attr, raw string, line int) (string, error) {
	if _, enc, _ := firstAttr(attrs, "name_encoding", "key_encoding"); enc != encBase64 {
		return raw, nil
	}
	b, err := decodeBase64(raw)
	if err != nil {
		return "", &DecodeError{Attr: attr, Value: raw, Line: line, Err: err}
	}
	name, err := nameText(b)
	if err != nil {
		return "", &DecodeError{Attr: attr, Value: raw, Line: line, Err: err}
	}
	return name, nil
}

func (rd *reader) startValue(f *frame, attrs map[string]string, line int) error {
	parent := rd.parentKey()
	name := "Default"
	if attrs["default"] != "1" {
		var err error
		if name, err = rd.cellName(record.KindValue, parent, attrs, line); err != nil {
			return err
		}
	}
	b := rd.builder()
	f.id = b.OpenValue(parent, name, attrs["type"])

	raw, ok := attrs["value"]
	if !ok {
		return nil
	}
	if _, enc, _ := firstAttr(attrs, "encoding", "value_encoding"); enc != encBase64 {
		b.SetData(f.id, []byte(raw))
		return nil
	}
	data, err := decodeBase64(raw)
	if err != nil {
		return &DecodeError{Attr: "value", Value: raw, Line: line, Err: err}
	}
	b.SetData(f.id, data)
	return nil
}

func (rd *reader) startByteRun(e xmlstream.Element) {
	owner, ok := rd.enclosing(frameKey, frameValue)
	if !ok {
		rd.log.Debug("ignoring byte_run outside a key or value", "line", e.Line)
		rd.note(types.SevInfo, types.DiagPlace, e.Line, e.Name, "byte_run outside a key or value", "")
		return
	}
	attrs := make([]extent.Attr, len(e.Attrs))
	for i, a := range e.Attrs {
		attrs[i] = extent.Attr{Name: a.Name.Local, Value: a.Value}
	}
	run := extent.DecodeAttrs(attrs)
	if bad := run.DegradedAttrs(); len(bad) > 0 {
		rd.log.Warn("byte_run attribute is not a number, kept as text", "attrs", bad, "line", e.Line)
		rd.note(types.SevWarning, types.DiagNumber, e.Line, e.Name, "byte_run attribute kept as text", strings.Join(bad, ","))
	}
	rd.builder().AddRun(owner.id, run)
}

// EndElement implements xmlstream.Handler.
func (rd *reader) EndElement(name, text string) error {
	f := rd.stack[len(rd.stack)-1]
	rd.stack = rd.stack[:len(rd.stack)-1]

	switch f.kind {
	case frameHive:
		rd.hive = nil

	case frameKey:
		return rd.finish(f)

	case frameValue:
		b := rd.builder()
		if !b.HasData(f.id) && !f.children {
			b.SetData(f.id, []byte(text))
		}
		return rd.finish(f)

	case frameMTime:
		rd.endMTime(f, text)

	case frameString:
		owner, ok := rd.enclosing(frameValue)
		if !ok {
			return &StructuralError{
				Msg:   "string element outside a value",
				Line:  f.line,
				Stack: append(rd.names(), name),
			}
		}
		if err := rd.builder().AddString(owner.id, text); err != nil {
			return &StructuralError{
				Msg:   err.Error(),
				Line:  f.line,
				Stack: append(rd.names(), name),
				Err:   err,
			}
		}
	}
	return nil
}

// note records a tolerated problem when diagnostics are collected.
func (rd *reader) note(sev types.Severity, cat types.DiagCategory, line int, elem, issue, detail string) {
	rd.opts.Diagnostics.Add(types.Diagnostic{
		Severity: sev, Category: cat, Line: line, Element: elem, Issue: issue, Detail: detail,
	})
}

// finish registers a completed cell and hands it to the callback.
func (rd *reader) finish(f frame) error {
	c, err := rd.builder().Register(f.id)
	if err != nil {
		return err
	}
	rd.log.Debug("registry cell complete", "kind", c.Kind(), "path", c.Path())
	if rd.onCell != nil {
		return rd.onCell(c)
	}
	return nil
}

func (rd *reader) endMTime(f frame, text string) {
	t, err := dftime.Parse(text)
	if err != nil {
		rd.log.Warn("ignoring unparsable mtime", "mtime", strings.TrimSpace(text), "line", f.line, "err", err)
		rd.note(types.SevWarning, types.DiagTime, f.line, f.name, "unparsable mtime left null", strings.TrimSpace(text))
		return
	}
	if len(rd.stack) == 0 {
		return
	}
	switch p := rd.stack[len(rd.stack)-1]; p.kind {
	case frameKey:
		rd.builder().SetKeyMTime(p.id, t)
	case frameHive, frameRegistry:
		rd.builder().SetMTime(t)
	default:
		rd.log.Debug("ignoring mtime outside a key or hive", "line", f.line)
		rd.note(types.SevInfo, types.DiagPlace, f.line, f.name, "mtime outside a key or hive", "")
	}
}

// Read parses a registry document from r and calls fn with each key and
// value as its element closes. A key is delivered after its subkeys and
// values.
//
// fn runs before the next token is read. An error from fn stops the parse
// and is returned unchanged, except ErrStop, which ends it without error.
// A cell whose full path is already registered is a *DuplicatePathError, a
// base64 attribute that does not decode is a *DecodeError, and malformed
// nesting is a *StructuralError.
func Read(r io.Reader, fn func(record.Cell) error, opts ...Option) error {
	rd := newReader(opts)
	rd.onCell = fn
	return rd.run(r)
}

// Cells returns an iterator over the cells of r. A parse error is yielded
// once, with a nil Cell, as the last element. Breaking out of the loop
// stops the parse.
func Cells(r io.Reader, opts ...Option) iter.Seq2[record.Cell, error] {
	return func(yield func(record.Cell, error) bool) {
		err := Read(r, func(c record.Cell) error {
			if !yield(c, nil) {
				return ErrStop
			}
			return nil
		}, opts...)
		if err != nil {
			yield(nil, err)
		}
	}
}

// ReadHives parses all of r and returns its hives in document order. Each
// hive element is its own hive; cells found outside any hive element share
// one more.
func ReadHives(r io.Reader, opts ...Option) ([]*record.Hive, error) {
	rd := newReader(opts)
	if err := rd.run(r); err != nil {
		return rd.hives, err
	}
	return rd.hives, nil
}
