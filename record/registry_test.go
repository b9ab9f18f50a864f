package record

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dfxmlkit/dftime"
	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// register registers id, failing the test on error.
func register(t *testing.T, b *HiveBuilder, id CellID) Cell {
	t.Helper()
	c, err := b.Register(id)
	require.NoError(t, err)
	return c
}

func TestHive_FullPaths(t *testing.T) {
	b := NewHiveBuilder()
	root := b.OpenKey(0, "ROOT", true)
	sw := b.OpenKey(root, "Software", false)
	ms := b.OpenKey(sw, "Microsoft", false)
	val := b.OpenValue(ms, "Version", "string")

	require.Equal(t, `\ROOT\Software\Microsoft\Version`, register(t, b, val).Path())
	require.Equal(t, `\ROOT\Software\Microsoft`, register(t, b, ms).Path())
	require.Equal(t, `\ROOT\Software`, register(t, b, sw).Path())
	k := register(t, b, root).(Key)
	require.Equal(t, `\ROOT`, k.Path())
	require.True(t, k.Root())
	require.True(t, k.Used())
	_, hasParent := k.Parent()
	require.False(t, hasParent)

	h := b.Hive()
	require.Equal(t, 4, h.Len())
	got, ok := h.Lookup(`\ROOT\Software`)
	require.True(t, ok)
	p, ok := got.Parent()
	require.True(t, ok)
	require.Equal(t, "ROOT", p.Name())

	v, ok := h.LookupValue(`\ROOT\Software\Microsoft\Version`)
	require.True(t, ok)
	require.Equal(t, KindValue, v.Kind())
	_, ok = h.Lookup(`\ROOT\Software\Microsoft\Version`)
	require.False(t, ok, "keys and values are indexed separately")
}

func TestHive_SameAncestorsSamePath(t *testing.T) {
	// Two hives built from the same chain of names agree on every path.
	build := func() []string {
		b := NewHiveBuilder()
		id := CellID(0)
		var paths []string
		for _, name := range []string{"A", "B/slash", "C"} {
			id = b.OpenKey(id, name, id == 0)
			paths = append(paths, b.Hive().at(id).path)
		}
		return paths
	}
	require.Equal(t, build(), build())
	require.Equal(t, `\A\B/slash\C`, build()[2])
}

func TestHive_DuplicatePath(t *testing.T) {
	b := NewHiveBuilder()
	root := b.OpenKey(0, "R", true)
	first := b.OpenKey(root, "Dup", false)
	register(t, b, first)

	second := b.OpenKey(root, "Dup", false)
	_, err := b.Register(second)
	require.ErrorIs(t, err, types.ErrDuplicatePath)
	var de *DuplicatePathError
	require.True(t, errors.As(err, &de))
	require.Equal(t, `\R\Dup`, de.Path)
	require.Equal(t, KindKey, de.CellKind)
	require.Equal(t, 1, b.Hive().Len())

	// A value may share a key's path.
	v := b.OpenValue(root, "Dup", "dword")
	register(t, b, v)
}

func TestHive_StringLists(t *testing.T) {
	b := NewHiveBuilder()
	k := b.OpenKey(0, "K", true)
	list := b.OpenValue(k, "Paths", "string-list")
	require.NoError(t, b.AddString(list, "a"))
	require.NoError(t, b.AddString(list, ""))
	single := b.OpenValue(k, "Name", "string")
	err := b.AddString(single, "x")
	require.ErrorIs(t, err, types.ErrStructural)

	v := register(t, b, list).(Value)
	strs, ok := v.Strings()
	require.True(t, ok)
	require.Equal(t, []string{"a", ""}, strs)

	s := register(t, b, single).(Value)
	_, ok = s.Strings()
	require.False(t, ok)
}

func TestHive_ValueDataAndRuns(t *testing.T) {
	b := NewHiveBuilder()
	k := b.OpenKey(0, "K", true)
	b.SetKeyMTime(k, dftime.FromEpoch(1))
	v := b.OpenValue(k, "Bin", "binary")
	require.False(t, b.HasData(v))
	b.SetData(v, []byte{1, 2, 3})
	b.AddRun(v, extent.NewFileRun(4096, 24))

	val := register(t, b, v).(Value)
	key := register(t, b, k).(Key)

	data, ok := val.Data()
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, data)
	require.Equal(t, "binary", val.Type())
	require.True(t, val.MTime().IsNull())
	require.Equal(t, int64(4096), val.ByteRuns()[0].FileOffset)
	require.Equal(t, int64(1), key.MTime().Unix())

	require.Equal(t, []Value{val}, slices.Collect(key.Values()))
	require.Empty(t, slices.Collect(key.Subkeys()))
}

func TestHive_Iteration(t *testing.T) {
	b := NewHiveBuilder()
	r := b.OpenKey(0, "R", true)
	c := b.OpenKey(r, "C", false)
	orphan := b.OpenKey(0, "Orphan", false)
	register(t, b, c)
	register(t, b, r)
	register(t, b, orphan)
	b.SetMTime(dftime.FromEpoch(5))

	h := b.Hive()
	var paths []string
	for cell := range h.Cells() {
		paths = append(paths, cell.Path())
	}
	require.Equal(t, []string{`\R\C`, `\R`, `\Orphan`}, paths)

	var roots []string
	for k := range h.Roots() {
		roots = append(roots, k.Name())
	}
	require.Equal(t, []string{"R", "Orphan"}, roots)

	got, ok := h.Cell(c)
	require.True(t, ok)
	require.Equal(t, "C", got.Name())
	_, ok = h.Cell(99)
	require.False(t, ok)
	require.Equal(t, int64(5), h.MTime().Unix())
}
