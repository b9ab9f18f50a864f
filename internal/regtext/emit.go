package regtext

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/dfxmlkit/record"
)

var errUnsupportedEncoding = errors.New("regtext: unsupported encoding")

// ExportOptions tunes ExportHive and ExportKey.
type ExportOptions struct {
	// Prefix is prepended to every key path, e.g. "HKEY_LOCAL_MACHINE\SOFTWARE".
	Prefix string
	// OutputEncoding is "UTF-8" (default) or "UTF-16LE", which regedit.exe
	// writes.
	OutputEncoding string
	WithBOM        bool
	// MTimeComments adds a comment line with each key's mtime.
	MTimeComments bool
}

// ExportHive emits every root key of h and its subtree as .reg text.
func ExportHive(h *record.Hive, opts ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(RegFileHeader + CRLF + CRLF)
	for root := range h.Roots() {
		if err := exportKey(&buf, root, opts); err != nil {
			return nil, err
		}
	}
	return encodeOutput(buf.String(), opts)
}

// ExportKey emits the subtree under k as .reg text.
func ExportKey(k record.Key, opts ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(RegFileHeader + CRLF + CRLF)
	if err := exportKey(&buf, k, opts); err != nil {
		return nil, err
	}
	return encodeOutput(buf.String(), opts)
}

func encodeOutput(s string, opts ExportOptions) ([]byte, error) {
	switch strings.ToUpper(opts.OutputEncoding) {
	case "", EncodingUTF8:
		return []byte(s), nil
	case EncodingUTF16LE:
		bom := unicode.IgnoreBOM
		if opts.WithBOM {
			bom = unicode.UseBOM
		}
		return unicode.UTF16(unicode.LittleEndian, bom).NewEncoder().Bytes([]byte(s))
	default:
		return nil, errUnsupportedEncoding
	}
}

func exportKey(buf *bytes.Buffer, k record.Key, opts ExportOptions) error {
	buf.WriteString(KeyOpenBracket)
	buf.WriteString(keyPath(k, opts.Prefix))
	buf.WriteString(KeyCloseBracket + CRLF)
	if opts.MTimeComments && !k.MTime().IsNull() {
		buf.WriteString(CommentPrefix + " mtime " + k.MTime().ISO8601() + CRLF)
	}

	values := slices.Collect(k.Values())
	slices.SortFunc(values, func(a, b record.Value) int { return strings.Compare(a.Name(), b.Name()) })
	for _, v := range values {
		if err := emitValue(buf, v); err != nil {
			return fmt.Errorf("regtext: %s: %w", v.Path(), err)
		}
	}
	buf.WriteString(CRLF)

	subkeys := slices.Collect(k.Subkeys())
	slices.SortFunc(subkeys, func(a, b record.Key) int {
		return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	})
	for _, sk := range subkeys {
		if err := exportKey(buf, sk, opts); err != nil {
			return err
		}
	}
	return nil
}

// keyPath drops the leading separator of the hive path and applies prefix.
func keyPath(k record.Key, prefix string) string {
	p := strings.TrimPrefix(k.Path(), Backslash)
	if prefix == "" {
		return p
	}
	return strings.TrimRight(prefix, Backslash) + Backslash + p
}

func emitValue(buf *bytes.Buffer, v record.Value) error {
	buf.WriteString(Quote)
	buf.WriteString(escapeString(v.Name()))
	buf.WriteString(Quote + ValueAssignment)

	data, _ := v.Data()
	switch typeClasses[strings.ToLower(strings.TrimSpace(v.Type()))] {
	case classString:
		buf.WriteString(Quote)
		buf.WriteString(escapeString(string(data)))
		buf.WriteString(Quote)
	case classExpandString:
		enc, err := encodeUTF16LEZeroTerminated(string(data))
		if err != nil {
			return err
		}
		buf.WriteString(HexExpandSZPrefix)
		buf.WriteString(formatHex(enc))
	case classMultiString:
		strs, ok := v.Strings()
		if !ok && len(data) > 0 {
			strs = []string{string(data)}
		}
		enc, err := encodeMultiString(strs)
		if err != nil {
			return err
		}
		buf.WriteString(HexMultiSZPrefix)
		buf.WriteString(formatHex(enc))
	case classDWORD:
		if dw, err := strconv.ParseUint(strings.TrimSpace(string(data)), 0, 32); err == nil {
			buf.WriteString(DWORDPrefix)
			fmt.Fprintf(buf, DWORDHexFormat, dw)
			break
		}
		buf.WriteString(HexPrefix)
		buf.WriteString(formatHex(data))
	case classQWORD:
		if qw, err := strconv.ParseUint(strings.TrimSpace(string(data)), 0, 64); err == nil {
			buf.WriteString(HexQWORDPrefix)
			buf.WriteString(formatHex(binary.LittleEndian.AppendUint64(nil, qw)))
			break
		}
		buf.WriteString(HexPrefix)
		buf.WriteString(formatHex(data))
	default:
		buf.WriteString(HexPrefix)
		buf.WriteString(formatHex(data))
	}
	buf.WriteString(CRLF)
	return nil
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, Backslash, EscapedBackslash)
	s = strings.ReplaceAll(s, Quote, EscapedQuote)
	return s
}

func formatHex(data []byte) string {
	if len(data) == 0 {
		return "00"
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf(HexByteFormat, b)
	}
	return strings.Join(parts, HexByteSeparator)
}

func encodeUTF16LEZeroTerminated(s string) ([]byte, error) {
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return append(b, 0, 0), nil
}

func encodeMultiString(values []string) ([]byte, error) {
	var buf bytes.Buffer
	for _, v := range values {
		b, err := encodeUTF16LEZeroTerminated(v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.Write(DoubleNullTerminator)
	return buf.Bytes(), nil
}
