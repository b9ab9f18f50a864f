package record

import (
	"fmt"
	"iter"
	"slices"

	"github.com/joshuapare/dfxmlkit/dftime"
	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// PathSep separates the components of a registry path. Forward slashes are
// legal in cell names, so registry paths use backslashes.
const PathSep = `\`

// CellID addresses a cell in its Hive. The zero CellID is no cell.
type CellID uint32

// Cell is a registry key or value. The only implementations are Key and
// Value.
type Cell interface {
	Record
	ID() CellID
	Hive() *Hive
	Name() string
	// Path is the backslash-delimited full path from the hive root.
	Path() string
	// Parent returns the enclosing key; roots and orphans have none.
	Parent() (Key, bool)
	ByteRuns() []extent.ByteRun
	isCell()
}

// cell is the arena slot shared by keys and values.
type cell struct {
	kind     Kind
	name     string
	path     string
	parent   CellID
	children []CellID

	runs  []extent.ByteRun
	mtime dftime.Time // keys only

	root bool // keys only
	used bool // keys only

	vtype   string   // values only
	data    []byte   // values only
	hasData bool     // values only
	strs    []string // values only; non-nil for string lists
}

// Hive is one registry document: an arena of cells plus an index from full
// path to cell, kept separately for keys and values.
type Hive struct {
	cells      []cell // CellID n lives at cells[n-1]
	keyPaths   map[string]CellID
	valuePaths map[string]CellID
	order      []CellID // registration order
	mtime      dftime.Time
}

func newHive() *Hive {
	return &Hive{
		keyPaths:   make(map[string]CellID),
		valuePaths: make(map[string]CellID),
	}
}

func (h *Hive) at(id CellID) *cell { return &h.cells[id-1] }

func (h *Hive) valid(id CellID) bool { return id > 0 && int(id) <= len(h.cells) }

// MTime returns the hive's own modification time, if the document gave one.
func (h *Hive) MTime() dftime.Time { return h.mtime }

// Len returns the number of registered cells.
func (h *Hive) Len() int { return len(h.order) }

// Lookup returns the registered key with the given full path.
func (h *Hive) Lookup(path string) (Key, bool) {
	id, ok := h.keyPaths[path]
	if !ok {
		return Key{}, false
	}
	return Key{h: h, id: id}, true
}

// LookupValue returns the registered value with the given full path.
func (h *Hive) LookupValue(path string) (Value, bool) {
	id, ok := h.valuePaths[path]
	if !ok {
		return Value{}, false
	}
	return Value{h: h, id: id}, true
}

// Cell returns the cell with the given id.
func (h *Hive) Cell(id CellID) (Cell, bool) {
	if !h.valid(id) {
		return nil, false
	}
	return h.wrap(id), true
}

func (h *Hive) wrap(id CellID) Cell {
	if h.at(id).kind == KindKey {
		return Key{h: h, id: id}
	}
	return Value{h: h, id: id}
}

// Cells yields registered cells in the order they were completed.
func (h *Hive) Cells() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for _, id := range h.order {
			if !yield(h.wrap(id)) {
				return
			}
		}
	}
}

// Roots yields the registered keys that have no parent.
func (h *Hive) Roots() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for _, id := range h.order {
			c := h.at(id)
			if c.kind == KindKey && c.parent == 0 && !yield(Key{h: h, id: id}) {
				return
			}
		}
	}
}

// handle holds the accessors shared by Key and Value.
type handle struct {
	h  *Hive
	id CellID
}

func (c handle) ID() CellID  { return c.id }
func (c handle) Hive() *Hive { return c.h }
func (c handle) Name() string {
	return c.h.at(c.id).name
}
func (c handle) Path() string { return c.h.at(c.id).path }
func (c handle) Parent() (Key, bool) {
	p := c.h.at(c.id).parent
	if p == 0 {
		return Key{}, false
	}
	return Key{h: c.h, id: p}, true
}

// ByteRuns returns where the cell sits in the hive file.
func (c handle) ByteRuns() []extent.ByteRun { return slices.Clone(c.h.at(c.id).runs) }

// Key is a handle to a registry key. The zero Key is invalid.
type Key handle

func (k Key) Kind() Kind                 { return KindKey }
func (k Key) ID() CellID                 { return handle(k).ID() }
func (k Key) Hive() *Hive                { return handle(k).Hive() }
func (k Key) Name() string               { return handle(k).Name() }
func (k Key) Path() string               { return handle(k).Path() }
func (k Key) Parent() (Key, bool)        { return handle(k).Parent() }
func (k Key) ByteRuns() []extent.ByteRun { return handle(k).ByteRuns() }
func (k Key) isCell()                    {}

// Root reports whether the document marked this key as the hive root.
func (k Key) Root() bool { return k.h.at(k.id).root }

// Used reports whether the key is live in the hive rather than recovered
// from unallocated space.
func (k Key) Used() bool { return k.h.at(k.id).used }

// MTime returns the key's last write time. It is null when the document
// gave none or gave one that does not parse.
func (k Key) MTime() dftime.Time { return k.h.at(k.id).mtime }

// Subkeys yields the registered child keys in completion order.
func (k Key) Subkeys() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for _, id := range k.h.at(k.id).children {
			if k.h.at(id).kind == KindKey && !yield(Key{h: k.h, id: id}) {
				return
			}
		}
	}
}

// Values yields the registered values of the key in completion order.
func (k Key) Values() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, id := range k.h.at(k.id).children {
			if k.h.at(id).kind == KindValue && !yield(Value{h: k.h, id: id}) {
				return
			}
		}
	}
}

func (k Key) String() string { return "key " + k.Path() }

// Value is a handle to a registry value. The zero Value is invalid.
type Value handle

func (v Value) Kind() Kind                 { return KindValue }
func (v Value) ID() CellID                 { return handle(v).ID() }
func (v Value) Hive() *Hive                { return handle(v).Hive() }
func (v Value) Name() string               { return handle(v).Name() }
func (v Value) Path() string               { return handle(v).Path() }
func (v Value) Parent() (Key, bool)        { return handle(v).Parent() }
func (v Value) ByteRuns() []extent.ByteRun { return handle(v).ByteRuns() }
func (v Value) isCell()                    {}

// Type returns the value type as written in the document, for example
// "string" or "string-list".
func (v Value) Type() string { return v.h.at(v.id).vtype }

// Data returns the decoded value data.
func (v Value) Data() ([]byte, bool) {
	c := v.h.at(v.id)
	return slices.Clone(c.data), c.hasData
}

// Strings returns the members of a string-list value. It reports false
// for any other type.
func (v Value) Strings() ([]string, bool) {
	c := v.h.at(v.id)
	if c.strs == nil {
		return nil, false
	}
	return slices.Clone(c.strs), true
}

// MTime is always null; values carry no timestamp of their own.
func (v Value) MTime() dftime.Time { return dftime.Time{} }

func (v Value) String() string { return "value " + v.Path() }

// DuplicatePathError reports a second cell with a full path already
// registered in the same hive.
type DuplicatePathError struct {
	Path     string
	CellKind Kind
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("registry: %s path %q found more than once", e.CellKind, e.Path)
}

// Is matches types.ErrDuplicatePath.
func (e *DuplicatePathError) Is(target error) bool { return target == types.ErrDuplicatePath }

// Kind returns types.ErrKindDuplicatePath.
func (e *DuplicatePathError) Kind() types.ErrKind { return types.ErrKindDuplicatePath }
