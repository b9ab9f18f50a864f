package regtext

const (
	// ============================================================================
	// .reg File Format Tokens
	// ============================================================================

	// RegFileHeader is the required header line for .reg files version 5.00
	RegFileHeader = "Windows Registry Editor Version 5.00"

	// KeyOpenBracket marks the start of a registry key path
	KeyOpenBracket = "["

	// KeyCloseBracket marks the end of a registry key path
	KeyCloseBracket = "]"

	// ValueAssignment separates value names from their data
	ValueAssignment = "="

	// CommentPrefix marks a comment line
	CommentPrefix = ";"

	// Quote is the double-quote character for value names and string data
	Quote = "\""

	// Backslash is used for escaping and path separators
	Backslash = "\\"

	// EscapedQuote is the escaped double-quote sequence
	EscapedQuote = "\\\""

	// EscapedBackslash is the escaped backslash sequence
	EscapedBackslash = "\\\\"

	// CRLF is the Windows line ending (carriage return + line feed)
	CRLF = "\r\n"

	// ============================================================================
	// Value Type Prefixes
	// ============================================================================

	// DWORDPrefix identifies a DWORD value in .reg format
	DWORDPrefix = "dword:"

	// HexPrefix identifies binary data in .reg format
	HexPrefix = "hex:"

	// HexExpandSZPrefix identifies REG_EXPAND_SZ values (type 2)
	HexExpandSZPrefix = "hex(2):"

	// HexMultiSZPrefix identifies REG_MULTI_SZ values (type 7)
	HexMultiSZPrefix = "hex(7):"

	// HexQWORDPrefix identifies REG_QWORD values (type 11)
	HexQWORDPrefix = "hex(b):"

	// ============================================================================
	// Encoding Names
	// ============================================================================

	// EncodingUTF8 is the identifier for UTF-8 encoding
	EncodingUTF8 = "UTF-8"

	// EncodingUTF16LE is the identifier for UTF-16 little-endian encoding
	EncodingUTF16LE = "UTF-16LE"

	// ============================================================================
	// Hex Data Formatting
	// ============================================================================

	// HexByteSeparator separates bytes in hex data
	HexByteSeparator = ","

	// HexByteFormat is the format string for a single hex byte
	HexByteFormat = "%02x"

	// DWORDHexFormat is the format string for DWORD values (8 hex digits)
	DWORDHexFormat = "%08x"
)

// valueClass groups the type names found in RegXML value elements by how
// their data is written out.
type valueClass uint8

const (
	classBinary valueClass = iota
	classString
	classExpandString
	classMultiString
	classDWORD
	classQWORD
)

// typeClasses maps lower-cased type attribute spellings to a class. Both
// the RegXML names and the REG_* constants are accepted.
var typeClasses = map[string]valueClass{
	"string":        classString,
	"sz":            classString,
	"reg_sz":        classString,
	"expand-string": classExpandString,
	"expand_sz":     classExpandString,
	"reg_expand_sz": classExpandString,
	"string-list":   classMultiString,
	"multi-string":  classMultiString,
	"multi_sz":      classMultiString,
	"reg_multi_sz":  classMultiString,
	"dword":         classDWORD,
	"reg_dword":     classDWORD,
	"qword":         classQWORD,
	"reg_qword":     classQWORD,
}

// DoubleNullTerminator is used to terminate REG_MULTI_SZ values
var DoubleNullTerminator = []byte{0x00, 0x00}
