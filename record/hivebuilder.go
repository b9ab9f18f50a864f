package record

import (
	"fmt"

	"github.com/joshuapare/dfxmlkit/dftime"
	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// HiveBuilder fills a Hive while its document is being read.
//
// Cells are opened with OpenKey or OpenValue, which fix their full path
// from the parent, and become visible through the Hive once Register
// accepts them. NOT thread-safe.
type HiveBuilder struct {
	h *Hive
}

// NewHiveBuilder returns a builder for an empty hive.
func NewHiveBuilder() *HiveBuilder { return &HiveBuilder{h: newHive()} }

// Hive returns the hive under construction.
func (b *HiveBuilder) Hive() *Hive { return b.h }

// SetMTime sets the hive's own modification time.
func (b *HiveBuilder) SetMTime(t dftime.Time) { b.h.mtime = t }

func (b *HiveBuilder) childPath(parent CellID, name string) string {
	if parent == 0 {
		return PathSep + name
	}
	return b.h.at(parent).path + PathSep + name
}

// Registered reports whether a cell of kind named name under parent has
// already been registered.
func (b *HiveBuilder) Registered(kind Kind, parent CellID, name string) bool {
	index := b.h.keyPaths
	if kind == KindValue {
		index = b.h.valuePaths
	}
	_, ok := index[b.childPath(parent, name)]
	return ok
}

func (b *HiveBuilder) open(kind Kind, parent CellID, name string) CellID {
	path := b.childPath(parent, name)
	b.h.cells = append(b.h.cells, cell{kind: kind, name: name, path: path, parent: parent})
	return CellID(len(b.h.cells))
}

// OpenKey starts a key under parent, or a top-level key when parent is 0.
func (b *HiveBuilder) OpenKey(parent CellID, name string, root bool) CellID {
	id := b.open(KindKey, parent, name)
	c := b.h.at(id)
	c.root = root
	c.used = true
	return id
}

// OpenValue starts a value under parent. A string-list value accepts
// AddString.
func (b *HiveBuilder) OpenValue(parent CellID, name, vtype string) CellID {
	id := b.open(KindValue, parent, name)
	c := b.h.at(id)
	c.vtype = vtype
	if vtype == "string-list" {
		c.strs = []string{}
	}
	return id
}

// SetKeyMTime sets the last write time of key id.
func (b *HiveBuilder) SetKeyMTime(id CellID, t dftime.Time) { b.h.at(id).mtime = t }

// SetData sets the decoded data of value id.
func (b *HiveBuilder) SetData(id CellID, data []byte) {
	c := b.h.at(id)
	c.data, c.hasData = data, true
}

// HasData reports whether SetData was called for value id.
func (b *HiveBuilder) HasData(id CellID) bool { return b.h.at(id).hasData }

// AddString appends a member to string-list value id. Any other value
// type is an error.
func (b *HiveBuilder) AddString(id CellID, s string) error {
	c := b.h.at(id)
	if c.strs == nil {
		return &types.Error{
			Kind: types.ErrKindStructural,
			Msg:  fmt.Sprintf("string element under %s whose type %q is not a string list", c.path, c.vtype),
			Err:  types.ErrStructural,
		}
	}
	c.strs = append(c.strs, s)
	return nil
}

// AddRun records where cell id sits in the hive file.
func (b *HiveBuilder) AddRun(id CellID, r extent.ByteRun) {
	c := b.h.at(id)
	c.runs = append(c.runs, r)
}

// Register indexes cell id under its full path and attaches it to its
// parent. A path already registered for the same kind of cell is a
// *DuplicatePathError and leaves the hive unchanged.
func (b *HiveBuilder) Register(id CellID) (Cell, error) {
	c := b.h.at(id)
	index := b.h.keyPaths
	if c.kind == KindValue {
		index = b.h.valuePaths
	}
	if _, dup := index[c.path]; dup {
		return nil, &DuplicatePathError{Path: c.path, CellKind: c.kind}
	}
	index[c.path] = id
	b.h.order = append(b.h.order, id)
	if c.parent != 0 {
		p := b.h.at(c.parent)
		p.children = append(p.children, id)
	}
	return b.h.wrap(id), nil
}
