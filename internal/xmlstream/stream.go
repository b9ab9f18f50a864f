// Package xmlstream drives an event handler over an XML token stream while
// keeping the stack of open elements itself, so that malformed nesting is
// reported with the elements that were open at the time.
package xmlstream

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// Element is an opening tag.
type Element struct {
	Name  string
	Attrs []xml.Attr
	Line  int
}

// Attr returns the value of the attribute with the given local name.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Handler receives element events in document order.
//
// EndElement gets the character data seen since the last tag, which for a
// leaf element is its whole text. Returning ErrStop ends the stream
// cleanly; any other error aborts it and is returned from Run as is.
type Handler interface {
	StartElement(e Element) error
	EndElement(name, text string) error
}

// Options tunes Run.
type Options struct {
	// CharsetReader overrides the converter used for non-UTF-8
	// declarations. Default: CharsetReader.
	CharsetReader func(charset string, input io.Reader) (io.Reader, error)
	// Limits bounds nesting depth and text size. The zero value checks
	// nothing.
	Limits types.Limits
}

// Run reads tokens from r until end of input and feeds them to h.
//
// Elements are matched by local name; namespace prefixes and xmlns
// attributes are dropped. A close tag that does not match the innermost open
// element, input ending inside an element, and markup the tokenizer rejects
// are all *StructuralError. Exceeding opts.Limits is a *types.LimitError.
// A reader failing with os.ErrClosed or
// io.ErrClosedPipe ends the stream without error.
func Run(r io.Reader, h Handler, opts Options) error {
	in, transcoded := sniff(r)
	cr := opts.CharsetReader
	if cr == nil {
		cr = CharsetReader
	}

	d := xml.NewDecoder(in)
	d.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if transcoded {
			return input, nil
		}
		return cr(charset, input)
	}

	var (
		stack []string
		text  strings.Builder
	)
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			if len(stack) > 0 {
				line, _ := d.InputPos()
				return &StructuralError{Msg: "unexpected end of input", Line: line, Stack: stack}
			}
			return nil
		}
		if err != nil {
			return readError(err, stack)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := d.InputPos()
			stack = append(stack, t.Name.Local)
			text.Reset()
			if err := checkStart(opts.Limits, t, len(stack), line); err != nil {
				return err
			}
			if err := h.StartElement(Element{Name: t.Name.Local, Attrs: plainAttrs(t.Attr), Line: line}); err != nil {
				return handlerError(err)
			}

		case xml.EndElement:
			n := len(stack)
			if n == 0 || stack[n-1] != t.Name.Local {
				line, _ := d.InputPos()
				return &StructuralError{
					Msg:   fmt.Sprintf("close tag </%s> does not match the open element", t.Name.Local),
					Line:  line,
					Stack: slices.Clone(stack),
				}
			}
			stack = stack[:n-1]
			s := text.String()
			text.Reset()
			if err := h.EndElement(t.Name.Local, s); err != nil {
				return handlerError(err)
			}

		case xml.CharData:
			text.Write(t)
			if opts.Limits.MaxTextLen > 0 && text.Len() > opts.Limits.MaxTextLen {
				line, _ := d.InputPos()
				return types.CheckLimit("text", opts.Limits.MaxTextLen, text.Len(), line)
			}
		}
	}
}

func checkStart(l types.Limits, t xml.StartElement, depth, line int) error {
	if err := types.CheckLimit("depth", l.MaxDepth, depth, line); err != nil {
		return err
	}
	for _, a := range t.Attr {
		if err := types.CheckLimit("text", l.MaxTextLen, len(a.Value), line); err != nil {
			return err
		}
	}
	return nil
}

func plainAttrs(in []xml.Attr) []xml.Attr {
	out := in[:0:0]
	for _, a := range in {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		a.Name.Space = ""
		out = append(out, a)
	}
	return out
}

func readError(err error, stack []string) error {
	if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &StructuralError{Msg: se.Msg, Line: se.Line, Stack: slices.Clone(stack), Err: err}
	}
	return fmt.Errorf("xmlstream: read: %w", err)
}

func handlerError(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}
