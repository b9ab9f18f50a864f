package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// ============================================================================
// files
// ============================================================================

func TestFilesCommand(t *testing.T) {
	doc := writeFile(t, "image.xml", []byte(testDoc()))

	tests := []struct {
		name           string
		allocated      bool
		runs           bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "all files",
			wantContain: []string{"a.txt", "b.txt", "deleted.txt", "unalloc"},
		},
		{
			name:           "allocated only",
			allocated:      true,
			wantContain:    []string{"a.txt", "b.txt"},
			wantNotContain: []string{"deleted.txt"},
		},
		{
			name:        "with runs",
			runs:        true,
			wantContain: []string{"img_offset=512"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			filesAllocatedOnly = tt.allocated
			filesRuns = tt.runs

			out, err := captureOutput(t, func() error { return runFiles([]string{doc}) })
			require.NoError(t, err)
			for _, s := range tt.wantContain {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.wantNotContain {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestFilesCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	doc := writeFile(t, "image.xml", []byte(testDoc()))

	out, err := captureOutput(t, func() error { return runFiles([]string{doc}) })
	require.NoError(t, err)

	var files []fileJSON
	decodeJSON(t, out, &files)
	require.Len(t, files, 3)

	a := files[0]
	require.Equal(t, "a.txt", a.Filename)
	require.NotNil(t, a.Filesize)
	require.Equal(t, int64(1024), *a.Filesize)
	require.True(t, a.Allocated)
	require.Equal(t, md5hex(testImage()[:1024]), a.MD5)
	require.Equal(t, "2009-11-17T00:33:30Z", a.Times["mtime"])
	require.Len(t, a.Runs, 2)
	require.Equal(t, int64(512), *a.Runs[1].ImgOffset)
	require.False(t, files[2].Allocated)
}

func TestFilesCommand_Malformed(t *testing.T) {
	resetFlags()
	doc := writeFile(t, "bad.xml", []byte(`<dfxml><fileobject></dfxml>`))
	_, err := captureOutput(t, func() error { return runFiles([]string{doc}) })
	require.Error(t, err)
	require.Contains(t, err.Error(), "structural parse error")
}

// ============================================================================
// volumes
// ============================================================================

func TestVolumesCommand(t *testing.T) {
	resetFlags()
	doc := writeFile(t, "image.xml", []byte(testDoc()))

	out, err := captureOutput(t, func() error { return runVolumes([]string{doc}) })
	require.NoError(t, err)
	assert.Contains(t, out, "image disk.raw")
	assert.Contains(t, out, "volume offset=0 block_size=512 ftype=fat12 files=3")

	resetFlags()
	jsonOut = true
	out, err = captureOutput(t, func() error { return runVolumes([]string{doc}) })
	require.NoError(t, err)
	var got struct {
		Image   map[string]string `json:"image"`
		Volumes []volumeJSON      `json:"volumes"`
	}
	decodeJSON(t, out, &got)
	require.Equal(t, "2048", got.Image["imagesize"])
	require.Len(t, got.Volumes, 1)
	require.NotNil(t, got.Volumes[0].BlockCount)
	require.Equal(t, int64(4), *got.Volumes[0].BlockCount)
}

// ============================================================================
// reg
// ============================================================================

func TestRegCommand(t *testing.T) {
	doc := writeFile(t, "software.xml", []byte(testRegDoc))

	tests := []struct {
		name           string
		keysOnly       bool
		prefix         string
		wantContain    []string
		wantNotContain []string
	}{
		{
			name: "everything",
			wantContain: []string{
				"value\t\\ROOT\\Software\\Path\tstring\tC:\\Tools",
				"value\t\\ROOT\\Software\\List\tstring-list\ta|b",
				"key\t\\ROOT\t2010-01-02T03:04:05Z",
			},
		},
		{
			name:           "keys only",
			keysOnly:       true,
			wantContain:    []string{`\ROOT\Software`, `\ROOT\System`},
			wantNotContain: []string{"Path"},
		},
		{
			name:           "prefix",
			prefix:         `\ROOT\Software`,
			wantContain:    []string{"Path", "List"},
			wantNotContain: []string{"System"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			regKeysOnly = tt.keysOnly
			regPrefix = tt.prefix

			out, err := captureOutput(t, func() error { return runReg([]string{doc}) })
			require.NoError(t, err)
			for _, s := range tt.wantContain {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.wantNotContain {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRegCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	doc := writeFile(t, "software.xml", []byte(testRegDoc))

	out, err := captureOutput(t, func() error { return runReg([]string{doc}) })
	require.NoError(t, err)
	var cells []cellJSON
	decodeJSON(t, out, &cells)
	require.Len(t, cells, 5)
	require.Equal(t, cellJSON{Kind: "value", Path: `\ROOT\Software\Path`, Type: "string", Data: `C:\Tools`}, cells[0])
	require.Equal(t, []string{"a", "b"}, cells[1].Strings)
}

func TestDataText(t *testing.T) {
	require.Equal(t, "plain", dataText([]byte("plain")))
	require.Equal(t, "hex:00ff", dataText([]byte{0, 0xff}))
}

// ============================================================================
// extents
// ============================================================================

func TestExtentsCommand(t *testing.T) {
	resetFlags()
	doc := writeFile(t, "image.xml", []byte(testDoc()))

	out, err := captureOutput(t, func() error { return runExtents([]string{doc}) })
	require.NoError(t, err, "collisions are informational")
	assert.Contains(t, out, "collision: b.txt")
	assert.Contains(t, out, "of a.txt")
	assert.Contains(t, out, "sectorsize: 512")
	assert.Contains(t, out, "total entries in database: 2")
	assert.Contains(t, out, "runs: 2  skipped: 0  collisions: 1")
}

func TestExtentsCommand_AllJSON(t *testing.T) {
	resetFlags()
	extentsAll = true
	jsonOut = true
	doc := writeFile(t, "image.xml", []byte(testDoc()))

	out, err := captureOutput(t, func() error { return runExtents([]string{doc}) })
	require.NoError(t, err)
	var got extentsJSON
	decodeJSON(t, out, &got)
	require.Equal(t, 3, got.Runs)
	require.Equal(t, []collisionJSON{{Filename: "b.txt", ImgOffset: 512, Len: 512, OwnerFile: "a.txt"}}, got.Collisions)
}

// ============================================================================
// present
// ============================================================================

func TestPresentCommand(t *testing.T) {
	resetFlags()
	doc := writeFile(t, "image.xml", []byte(testDoc()))
	presentImage = writeFile(t, "disk.raw", testImage())

	out, err := captureOutput(t, func() error { return runPresent(context.Background(), []string{doc}) })
	require.NoError(t, err)
	assert.Contains(t, out, "present a.txt")
	assert.Contains(t, out, "missing b.txt")
	assert.NotContains(t, out, "deleted.txt", "files without a digest are not checked")
	assert.Contains(t, out, "present: 1  missing: 1  errors: 0")
}

func TestPresentCommand_NeedsImage(t *testing.T) {
	resetFlags()
	doc := writeFile(t, "image.xml", []byte(testDoc()))
	_, err := captureOutput(t, func() error { return runPresent(context.Background(), []string{doc}) })
	require.ErrorContains(t, err, "no disk image")
}

// ============================================================================
// config and root flags
// ============================================================================

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "dfxmlctl.yaml", []byte(`
sector_size: 4096
image: /cases/disk.raw
icat_path: /opt/tsk/bin/icat
color: false
logging:
  level: debug
  json: true
`))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, int64(4096), cfg.SectorSize)
	require.Equal(t, "/cases/disk.raw", cfg.Image)
	require.Equal(t, "/opt/tsk/bin/icat", cfg.IcatPath)
	require.NotNil(t, cfg.Color)
	require.False(t, *cfg.Color)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Logging.JSON)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "empty.yaml", []byte("image: x.raw\n")))
	require.NoError(t, err)
	require.Equal(t, int64(512), cfg.SectorSize)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeFile(t, "bad.yaml", []byte("sector_size: -1\n")))
	require.ErrorContains(t, err, "sector_size must be positive")

	_, err = LoadConfig(writeFile(t, "junk.yaml", []byte("sector_size: [1, 2\n")))
	require.ErrorContains(t, err, "failed to parse")
}

func TestRoot_ConfigAndFlagOverride(t *testing.T) {
	resetFlags()
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags()
	})
	conf := writeFile(t, "dfxmlctl.yaml", []byte("sector_size: 4096\n"))
	doc := writeFile(t, "image.xml", []byte(testDoc()))

	rootCmd.SetArgs([]string{"--config", conf, "volumes", doc})
	out, err := captureOutput(t, rootCmd.Execute)
	require.NoError(t, err)
	require.Equal(t, int64(4096), cfg.SectorSize)
	require.True(t, strings.Contains(out, "volume offset=0"))

	rootCmd.SetArgs([]string{"--config", conf, "--sector-size", "2048", "volumes", doc})
	_, err = captureOutput(t, rootCmd.Execute)
	require.NoError(t, err)
	require.Equal(t, int64(2048), cfg.SectorSize)
}

// ============================================================================
// limits and diagnostics
// ============================================================================

func TestRegCommand_StrictLimits(t *testing.T) {
	resetFlags()
	defer resetFlags()
	long := `<hive><key name="` + strings.Repeat("n", 300) + `"/></hive>`
	doc := writeFile(t, "long.xml", []byte(long))

	_, err := captureOutput(t, func() error { return runReg([]string{doc}) })
	require.NoError(t, err)

	limits = types.StrictLimits()
	_, err = captureOutput(t, func() error { return runReg([]string{doc}) })
	require.ErrorIs(t, err, types.ErrLimit)
}

func TestFilesCommand_CollectsDiagnostics(t *testing.T) {
	resetFlags()
	defer resetFlags()
	doc := writeFile(t, "odd.xml", []byte(`<dfxml><volume>
<run img_offset="0" len="1"/>
<fileobject><filename>x</filename><byte_runs><run img_offset="zz" len="1"/></byte_runs></fileobject>
</volume></dfxml>`))

	diagReport = &types.DiagnosticReport{}
	_, err := captureOutput(t, func() error { return runFiles([]string{doc}) })
	require.NoError(t, err)
	require.Equal(t, types.DiagSummary{Warnings: 1, Info: 1}, diagReport.Summary())
}

func TestLoadConfig_Limits(t *testing.T) {
	c, err := LoadConfig(writeFile(t, "strict.yaml", []byte("limits: strict\n")))
	require.NoError(t, err)
	require.Equal(t, "strict", c.Limits)

	_, err = LoadConfig(writeFile(t, "bad-limits.yaml", []byte("limits: enormous\n")))
	require.ErrorContains(t, err, "unknown limits profile")
}

// ============================================================================
// regexport
// ============================================================================

func TestRegExportCommand(t *testing.T) {
	resetFlags()
	defer resetFlags()
	doc := writeFile(t, "software.xml", []byte(testRegDoc))

	out, err := captureOutput(t, func() error { return runRegExport([]string{doc}) })
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Windows Registry Editor Version 5.00\r\n"))
	assert.Contains(t, out, "[ROOT\\Software]\r\n\"List\"=hex(7):61,00,00,00,62,00,00,00,00,00\r\n\"Path\"=\"C:\\\\Tools\"\r\n")
	assert.Contains(t, out, "[ROOT\\System]\r\n")

	regExportOutput = filepath.Join(t.TempDir(), "software.reg")
	regExportUTF16 = true
	regExportPrefix = `HKEY_LOCAL_MACHINE`
	_, err = captureOutput(t, func() error { return runRegExport([]string{doc}) })
	require.NoError(t, err)
	data, err := os.ReadFile(regExportOutput)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xFE}, data[:2])
}
