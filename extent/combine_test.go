package extent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// runEqual lets cmp compare runs with the package's own notion of equality.
var runEqual = cmp.Comparer(func(a, b ByteRun) bool { return a.Equal(b) })

func TestCombineRuns(t *testing.T) {
	tests := []struct {
		name string
		in   []ByteRun
		want []ByteRun
	}{
		{"empty", nil, nil},
		{"single", []ByteRun{New(0, 512)}, []ByteRun{New(0, 512)}},
		{
			"adjacent pair",
			[]ByteRun{New(0, 512), New(512, 1024)},
			[]ByteRun{New(0, 1536)},
		},
		{
			"gap is kept",
			[]ByteRun{New(0, 512), New(1024, 512)},
			[]ByteRun{New(0, 512), New(1024, 512)},
		},
		{
			"chain then gap",
			[]ByteRun{New(0, 512), New(512, 512), New(1024, 512), New(4096, 512), New(4608, 512)},
			[]ByteRun{New(0, 1536), New(4096, 1024)},
		},
		{
			"first file offset survives",
			[]ByteRun{New(0, 512).WithFileOffset(8192), New(512, 512).WithFileOffset(8704)},
			[]ByteRun{New(0, 1024).WithFileOffset(8192)},
		},
		{
			"sparse runs never merge",
			[]ByteRun{New(0, 512), New(512, SparseLen)},
			[]ByteRun{New(0, 512), New(512, SparseLen)},
		},
		{
			"fill runs never merge",
			[]ByteRun{NewFileRun(0, 512).WithFill(0), NewFileRun(512, 512).WithFill(0)},
			[]ByteRun{NewFileRun(0, 512).WithFill(0), NewFileRun(512, 512).WithFill(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineRuns(tt.in)
			if diff := cmp.Diff(tt.want, got, runEqual); diff != "" {
				t.Errorf("CombineRuns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCombineRuns_Idempotent(t *testing.T) {
	in := []ByteRun{New(0, 100), New(100, 50), New(150, 10), New(400, 20), New(420, 1)}
	once := CombineRuns(in)
	twice := CombineRuns(once)
	if diff := cmp.Diff(once, twice, runEqual); diff != "" {
		t.Errorf("combining twice changed the result (-once +twice):\n%s", diff)
	}
}

func TestCombineRuns_CoversSameBytes(t *testing.T) {
	in := []ByteRun{New(0, 100), New(100, 50), New(300, 10), New(310, 90)}
	out := CombineRuns(in)

	total := func(runs []ByteRun) int64 {
		var n int64
		for _, r := range runs {
			n += r.Len
		}
		return n
	}
	require.Equal(t, total(in), total(out))
	require.Len(t, out, 2)

	// Every byte offset is covered by the input exactly when it is covered by the output.
	covered := func(runs []ByteRun, off int64) bool {
		for _, r := range runs {
			if r.ImgOffset <= off && off < r.End() {
				return true
			}
		}
		return false
	}
	for off := int64(-10); off < 450; off++ {
		require.Equal(t, covered(in, off), covered(out, off), "offset %d", off)
	}
}

func TestCombineRuns_DoesNotModifyInput(t *testing.T) {
	in := []ByteRun{New(0, 512), New(512, 512)}
	_ = CombineRuns(in)
	require.Equal(t, int64(512), in[0].Len)
}
