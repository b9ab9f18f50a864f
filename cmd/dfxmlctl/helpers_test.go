package main

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// resetFlags puts the global flags back to their defaults.
func resetFlags() {
	verbose, quiet, jsonOut, noColor, logJSON = false, false, false, false, false
	configPath, sectorSize = "", 0
	filesAllocatedOnly, filesRuns = false, false
	regKeysOnly, regPrefix = false, ""
	regExportOutput, regExportPrefix, regExportUTF16, regExportMTime = "", "", false, false
	extentsAll, extentsSummary = false, false
	presentImage, presentIcat = "", false
	limitsName, showDiags = "", false
	cfg = DefaultConfig()
	limits = types.DefaultLimits()
	diagReport = nil
	color.NoColor = true
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()
	w.Close()
	os.Stdout = orig
	return string(<-done), fnErr
}

// writeFile writes content under a fresh temp dir and returns its path.
func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// testImage is four sectors; sector n is filled with 'a'+n.
func testImage() []byte {
	var img []byte
	for n := range 4 {
		img = append(img, bytes.Repeat([]byte{byte('a' + n)}, 512)...)
	}
	return img
}

func md5hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// testDoc describes testImage: a.txt holds sectors 0 and 1 and hashes
// correctly, b.txt claims sector 1 again with a wrong digest, and
// deleted.txt is unallocated in sector 3.
func testDoc() string {
	img := testImage()
	return fmt.Sprintf(`<?xml version="1.0"?>
<dfxml version="1.0">
  <source><image_filename>disk.raw</image_filename><imagesize>2048</imagesize></source>
  <volume offset="0">
    <block_size>512</block_size>
    <ftype_str>fat12</ftype_str>
    <block_count>4</block_count>
    <fileobject>
      <filename>a.txt</filename><filesize>1024</filesize><alloc>1</alloc><inode>4</inode>
      <mtime>2009-11-17T00:33:30Z</mtime>
      <hashdigest type="md5">%s</hashdigest>
      <byte_runs><run img_offset="0" len="512" file_offset="0"/><run img_offset="512" len="512" file_offset="512"/></byte_runs>
    </fileobject>
    <fileobject>
      <filename>b.txt</filename><filesize>512</filesize><alloc>1</alloc>
      <hashdigest type="md5">%s</hashdigest>
      <byte_runs><run img_offset="512" len="512"/></byte_runs>
    </fileobject>
    <fileobject>
      <filename>deleted.txt</filename><filesize>512</filesize><alloc>0</alloc>
      <byte_runs><run img_offset="1536" len="512"/></byte_runs>
    </fileobject>
  </volume>
</dfxml>`, md5hex(img[:1024]), md5hex([]byte("something else")))
}

const testRegDoc = `<?xml version="1.0"?>
<hive>
  <key root="1" name="ROOT">
    <mtime>2010-01-02T03:04:05Z</mtime>
    <key name="Software">
      <value name="Path" type="string" value="C:\Tools"/>
      <value name="List" type="string-list"><string>a</string><string>b</string></value>
    </key>
    <key name="System"/>
  </key>
</hive>`

// decodeJSON unmarshals command output into v.
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), v), "output: %s", output)
}
