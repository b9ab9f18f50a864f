package dfxml

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/pkg/types"
	"github.com/joshuapare/dfxmlkit/record"
)

// ============================================================================
// Helper Functions
// ============================================================================

// readAll collects every file object in doc.
func readAll(t *testing.T, doc string, opts ...Option) []*record.FileObject {
	t.Helper()
	var out []*record.FileObject
	require.NoError(t, Read(strings.NewReader(doc), func(fo *record.FileObject) error {
		out = append(out, fo)
		return nil
	}, opts...))
	return out
}

const twoRunDoc = `<?xml version="1.0" encoding="UTF-8"?>
<dfxml version="1.0">
  <source><image_filename>disk.raw</image_filename></source>
  <volume offset="32256">
    <block_size>4096</block_size>
    <ftype_str>fat16</ftype_str>
    <fileobject>
      <filename>a.txt</filename>
      <filesize>1024</filesize>
      <alloc>1</alloc>
      <byte_runs>
        <run img_offset="0" len="512"/>
        <run img_offset="512" len="512"/>
      </byte_runs>
    </fileobject>
  </volume>
</dfxml>`

// ============================================================================
// File objects
// ============================================================================

func TestRead_AdjacentRunsStayInDocumentOrder(t *testing.T) {
	files := readAll(t, twoRunDoc)
	require.Len(t, files, 1)
	fo := files[0]

	runs := fo.ByteRuns()
	require.Len(t, runs, 2)
	require.Equal(t, int64(0), runs[0].ImgOffset)
	require.Equal(t, int64(512), runs[1].ImgOffset)

	combined := extent.CombineRuns(runs)
	require.Len(t, combined, 1)
	require.Equal(t, int64(0), combined[0].ImgOffset)
	require.Equal(t, int64(1024), combined[0].Len)

	require.Equal(t, "a.txt", fo.Filename())
	require.True(t, fo.Allocated())

	v := fo.Volume()
	require.NotNil(t, v)
	require.Equal(t, int64(32256), v.Offset)
	require.Equal(t, int64(4096), v.BlockSize)
	require.Equal(t, "fat16", v.FTypeStr())
	require.Equal(t, "disk.raw", v.Image.Filename())
}

func TestRead_HashDigestAttribution(t *testing.T) {
	// The same digest text lands on the run or on the file depending only
	// on which element encloses it.
	doc := `<dfxml><fileobject>
  <byte_runs>
    <byte_run img_offset="0" len="512"><hashdigest type="MD5">d41d8cd98f00b204e9800998ecf8427e</hashdigest></byte_run>
  </byte_runs>
  <hashdigest type="md5">d41d8cd98f00b204e9800998ecf8427e</hashdigest>
</fileobject>
<fileobject>
  <byte_runs>
    <byte_run img_offset="512" len="512"><hashdigest type="md5">d41d8cd98f00b204e9800998ecf8427e</hashdigest></byte_run>
  </byte_runs>
</fileobject></dfxml>`
	files := readAll(t, doc)
	require.Len(t, files, 2)

	both, runOnly := files[0], files[1]
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", both.ByteRuns()[0].Hashes["md5"])
	got, ok := both.Hash(record.HashMD5)
	require.True(t, ok)
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", got)
	require.Equal(t, got, both.MD5())

	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", runOnly.ByteRuns()[0].Hashes["md5"])
	require.Empty(t, runOnly.Hashes())
	require.Equal(t, "", runOnly.MD5())
}

func TestRead_RunTagAndLengthSpellingsAgree(t *testing.T) {
	spellings := []string{
		`<run img_offset="4096" len="512" file_offset="0"/>`,
		`<byte_run img_offset="4096" len="512" file_offset="0"/>`,
		`<run img_offset="4096" bytes="512" file_offset="0"/>`,
		`<byte_run img_offset="4096" bytes="512" file_offset="0"/>`,
	}
	var runs []extent.ByteRun
	for _, s := range spellings {
		files := readAll(t, "<dfxml><fileobject><byte_runs>"+s+"</byte_runs></fileobject></dfxml>")
		require.Len(t, files, 1)
		runs = append(runs, files[0].ByteRuns()...)
	}
	eq := cmp.Comparer(func(a, b extent.ByteRun) bool { return a.Equal(b) })
	for i := 1; i < len(runs); i++ {
		if diff := cmp.Diff(runs[0], runs[i], eq); diff != "" {
			t.Errorf("spelling %d decodes differently (-want +got):\n%s", i, diff)
		}
	}
}

func TestRead_UnknownLeavesArePreserved(t *testing.T) {
	doc := `<dfxml><fileobject>
  <filename>x</filename>
  <frobnication_level>11</frobnication_level>
  <filename>y</filename>
</fileobject></dfxml>`
	fo := readAll(t, doc)[0]
	v, ok := fo.Tag("frobnication_level")
	require.True(t, ok)
	require.Equal(t, "11", v)
	require.Equal(t, "y", fo.Filename(), "last write wins")
}

func TestRead_RunsOutsideFileObjectAreIgnored(t *testing.T) {
	doc := `<dfxml><volume><byte_runs><run img_offset="0" len="512"/></byte_runs>
<fileobject><filename>a</filename></fileobject></volume></dfxml>`
	files := readAll(t, doc)
	require.Len(t, files, 1)
	require.Zero(t, files[0].Fragments())
}

func TestRead_NonNumericAttributeDegradesToText(t *testing.T) {
	var logs bytes.Buffer
	l := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	doc := `<dfxml><fileobject><byte_runs><run img_offset="0x10" len="512" type="resident"/></byte_runs></fileobject></dfxml>`
	fo := readAll(t, doc, WithLogger(l))[0]
	run := fo.ByteRuns()[0]
	require.False(t, run.Has(extent.FieldImgOffset))
	require.True(t, run.Has(extent.FieldLen))
	v, _ := run.Attr("img_offset")
	require.Equal(t, "0x10", v)
	require.Contains(t, logs.String(), "not a number")
}

func TestRead_SectorSizeOption(t *testing.T) {
	doc := `<dfxml><fileobject><byte_runs><run img_offset="8192" len="4096"/></byte_runs></fileobject></dfxml>`
	fo := readAll(t, doc, WithSectorSize(4096))[0]
	require.Equal(t, int64(2), fo.ByteRuns()[0].StartSector())
}

func TestRead_ImageIsAttached(t *testing.T) {
	img := bytes.NewReader(bytes.Repeat([]byte("z"), 1024))
	fo := readAll(t, twoRunDoc, WithImage(img))[0]
	require.Same(t, img, fo.ImageFile())
}

// ============================================================================
// Failures and stopping
// ============================================================================

func TestRead_StackMismatch(t *testing.T) {
	doc := `<dfxml><volume><fileobject><filename>a</filename></volume></dfxml>`
	err := Read(strings.NewReader(doc), func(*record.FileObject) error { return nil })
	require.ErrorIs(t, err, types.ErrStructural)
	var se *StructuralError
	require.True(t, errors.As(err, &se))
	require.Equal(t, []string{"dfxml", "volume", "fileobject"}, se.Stack)
}

func TestRead_Unterminated(t *testing.T) {
	var n int
	err := Read(strings.NewReader(`<dfxml><fileobject><filename>a</filename></fileobject><fileobject>`),
		func(*record.FileObject) error { n++; return nil })
	require.ErrorIs(t, err, types.ErrStructural)
	require.Equal(t, 1, n, "records completed before the damage are still delivered")
}

func TestRead_CallbackErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	var n int
	doc := `<dfxml><fileobject/><fileobject/><fileobject/></dfxml>`
	err := Read(strings.NewReader(doc), func(*record.FileObject) error {
		n++
		if n == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, n)
}

func TestRead_ErrStop(t *testing.T) {
	var n int
	doc := `<dfxml><fileobject/><fileobject/><oops></dfxml>`
	err := Read(strings.NewReader(doc), func(*record.FileObject) error {
		n++
		return ErrStop
	})
	require.NoError(t, err, "stopping before the damage hides it")
	require.Equal(t, 1, n)
}

func TestFileObjects(t *testing.T) {
	doc := `<dfxml><fileobject><filename>a</filename></fileobject><fileobject><filename>b</filename></fileobject></dfxml>`
	var names []string
	for fo, err := range FileObjects(strings.NewReader(doc)) {
		require.NoError(t, err)
		names = append(names, fo.Filename())
	}
	require.Equal(t, []string{"a", "b"}, names)
}

func TestFileObjects_Break(t *testing.T) {
	doc := `<dfxml><fileobject><filename>a</filename></fileobject><fileobject><filename>b</filename></fileobject><broken></dfxml>`
	var names []string
	for fo, err := range FileObjects(strings.NewReader(doc)) {
		require.NoError(t, err)
		names = append(names, fo.Filename())
		break
	}
	require.Equal(t, []string{"a"}, names)
}

func TestFileObjects_YieldsError(t *testing.T) {
	var errs []error
	for fo, err := range FileObjects(strings.NewReader(`<dfxml><fileobject/></volume>`)) {
		if err != nil {
			require.Nil(t, fo)
			errs = append(errs, err)
		}
	}
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], types.ErrStructural)
}

// ============================================================================
// Volumes and image metadata
// ============================================================================

func TestReadVolumes(t *testing.T) {
	doc := `<dfxml>
<volume offset="0"><ftype>1</ftype><partition_offset>0</partition_offset><fileobject><filename>a</filename><block_size>1</block_size></fileobject></volume>
<volume offset="1048576"><Partition_Offset>1048576</Partition_Offset><block_count>2048</block_count></volume>
</dfxml>`
	var vols []*record.Volume
	require.NoError(t, ReadVolumes(strings.NewReader(doc), func(v *record.Volume) error {
		vols = append(vols, v)
		return nil
	}))
	require.Len(t, vols, 2)

	require.Equal(t, int64(512), vols[0].BlockSize, "block_size inside a file object is not the volume's")
	ft, ok := vols[0].FType()
	require.True(t, ok)
	require.Equal(t, int64(1), ft)

	off, ok := vols[1].PartitionOffset()
	require.True(t, ok)
	require.Equal(t, int64(1048576), off)
	n, ok := vols[1].BlockCount()
	require.True(t, ok)
	require.Equal(t, int64(2048), n)
	require.Same(t, vols[0].Image, vols[1].Image)
}

func TestReadAll_ImageMetadata(t *testing.T) {
	doc := `<dfxml><source><imagefile>evidence.E01</imagefile><imagesize>4194304</imagesize></source><fileobject/></dfxml>`
	var files int
	img, err := ReadAll(strings.NewReader(doc), Handlers{
		FileObject: func(*record.FileObject) error { files++; return nil },
	})
	require.NoError(t, err)
	require.Equal(t, 1, files)
	require.Equal(t, "evidence.E01", img.Filename())
	size, ok := img.Size()
	require.True(t, ok)
	require.Equal(t, int64(4194304), size)
}

func TestRead_Diagnostics(t *testing.T) {
	doc := `<dfxml>
<volume offset="abc">
<block_size>-1</block_size>
<run img_offset="0" len="1"/>
<fileobject>
<byte_runs><run img_offset="0x10" len="512"/></byte_runs>
</fileobject>
</volume>
</dfxml>`
	report := &types.DiagnosticReport{}
	require.Len(t, readAll(t, doc, WithDiagnostics(report)), 1)

	got := make([]string, 0, 4)
	for _, d := range report.Diagnostics() {
		got = append(got, d.Element+":"+string(d.Category))
	}
	require.Equal(t, []string{"volume:number", "block_size:number", "run:place", "run:number"}, got)
	require.True(t, report.HasWarnings())
	require.Contains(t, report.FormatTextCompact(), "img_offset")
}

func TestRead_TextLimit(t *testing.T) {
	doc := `<dfxml><fileobject><filename>` + strings.Repeat("a", 100) + `</filename></fileobject></dfxml>`
	err := Read(strings.NewReader(doc), func(*record.FileObject) error { return nil },
		WithLimits(types.Limits{MaxTextLen: 50}))
	require.ErrorIs(t, err, types.ErrLimit)

	require.Len(t, readAll(t, doc, WithLimits(types.NoLimits())), 1)
}
