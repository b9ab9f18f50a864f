package regxml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const encBase64 = "base64"

// firstAttr returns the first of names present in attrs.
func firstAttr(attrs map[string]string, names ...string) (string, string, bool) {
	for _, n := range names {
		if v, ok := attrs[n]; ok {
			return n, v, true
		}
	}
	return "", "", false
}

// decodeBase64 accepts padded and unpadded input.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// nameText turns decoded name bytes into a string. Hive names are stored
// either as UTF-16LE or as Windows-1252, so bytes that are not already
// UTF-8 are read as one of those.
func nameText(b []byte) (string, error) {
	if utf8.Valid(b) && bytes.IndexByte(b, 0) < 0 {
		return string(b), nil
	}
	if len(b)%2 == 0 && bytes.IndexByte(b, 0) >= 0 {
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("decode UTF-16 name: %w", err)
		}
		return strings.TrimRight(string(out), "\x00"), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode Windows-1252 name: %w", err)
	}
	return string(out), nil
}
