package extent

import (
	"slices"
	"strconv"
	"strings"
)

// Attr is one name/value pair as it appears on a run element.
type Attr struct {
	Name  string
	Value string
}

// Attribute names recognized on run elements.
const (
	AttrImgOffset       = "img_offset"
	AttrFileOffset      = "file_offset"
	AttrFSOffset        = "fs_offset"
	AttrLen             = "len"
	AttrFill            = "fill"
	AttrUncompressedLen = "uncompressed_len"
	AttrSectorSize      = "sector_size"
)

// attrAliases maps historical attribute spellings onto their current name.
// "bytes" was the name of the length attribute before it became "len".
var attrAliases = map[string]string{
	"bytes": AttrLen,
}

// numericAttrs binds each numeric attribute to the field it fills.
var numericAttrs = map[string]struct {
	field Field
	set   func(*ByteRun, int64)
}{
	AttrImgOffset:       {FieldImgOffset, func(r *ByteRun, v int64) { r.ImgOffset = v }},
	AttrFileOffset:      {FieldFileOffset, func(r *ByteRun, v int64) { r.FileOffset = v }},
	AttrFSOffset:        {FieldFSOffset, func(r *ByteRun, v int64) { r.FSOffset = v }},
	AttrLen:             {FieldLen, func(r *ByteRun, v int64) { r.Len = v }},
	AttrFill:            {FieldFill, func(r *ByteRun, v int64) { r.Fill = v }},
	AttrUncompressedLen: {FieldUncompressedLen, func(r *ByteRun, v int64) { r.UncompressedLen = v }},
}

// CanonicalAttr returns the current spelling of a run attribute name.
func CanonicalAttr(name string) string {
	if c, ok := attrAliases[name]; ok {
		return c
	}
	return name
}

// DecodeAttrs builds a ByteRun from the attributes of a run element.
//
// Known numeric attributes that parse as integers fill their field; those
// that do not are kept as text in Extra rather than failing. Unknown
// attributes always go to Extra. When an attribute repeats (including via
// an alias), the last one wins.
func DecodeAttrs(attrs []Attr) ByteRun {
	var r ByteRun
	for _, a := range attrs {
		r.setAttr(CanonicalAttr(a.Name), a.Value)
	}
	return r
}

func (r *ByteRun) setAttr(name, value string) {
	if name == AttrSectorSize {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil && v > 0 {
			r.SectorSize = v
			delete(r.Extra, name)
			return
		}
		r.SectorSize = 0
		r.putExtra(name, value)
		return
	}
	num, ok := numericAttrs[name]
	if !ok {
		r.putExtra(name, value)
		return
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil || (num.field == FieldLen && v < SparseLen) {
		r.Fields &^= num.field
		num.set(r, 0)
		r.putExtra(name, value)
		return
	}
	num.set(r, v)
	r.Fields |= num.field
	delete(r.Extra, name)
}

func (r *ByteRun) putExtra(name, value string) {
	if r.Extra == nil {
		r.Extra = make(map[string]string)
	}
	r.Extra[name] = value
}

// Attrs encodes r back into run attributes using canonical names. The
// result is ordered by name so encodings are stable.
func (r ByteRun) Attrs() []Attr {
	out := make([]Attr, 0, len(numericAttrs)+len(r.Extra)+1)
	for name, num := range numericAttrs {
		if !r.Has(num.field) {
			continue
		}
		out = append(out, Attr{Name: name, Value: strconv.FormatInt(r.fieldValue(num.field), 10)})
	}
	if r.SectorSize > 0 {
		out = append(out, Attr{Name: AttrSectorSize, Value: strconv.FormatInt(r.SectorSize, 10)})
	}
	for name, value := range r.Extra {
		out = append(out, Attr{Name: name, Value: value})
	}
	slices.SortFunc(out, func(a, b Attr) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (r ByteRun) fieldValue(f Field) int64 {
	switch f {
	case FieldImgOffset:
		return r.ImgOffset
	case FieldFileOffset:
		return r.FileOffset
	case FieldFSOffset:
		return r.FSOffset
	case FieldLen:
		return r.Len
	case FieldFill:
		return r.Fill
	case FieldUncompressedLen:
		return r.UncompressedLen
	}
	return 0
}

// IntAttr returns an Extra attribute coerced to an integer.
func (r ByteRun) IntAttr(name string) (int64, bool) {
	v, ok := r.Extra[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DegradedAttrs returns, sorted, the numeric attributes whose text did not
// parse and was kept in Extra instead.
func (r ByteRun) DegradedAttrs() []string {
	var out []string
	for name := range r.Extra {
		if _, ok := numericAttrs[name]; ok || name == AttrSectorSize {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
