// Package regtext writes registry hives read from RegXML as .reg text, the
// format regedit.exe imports and exports.
//
// Keys are written depth first with subkeys in case-insensitive name order
// and values sorted by name. Value data is rendered according to the
// value's type attribute: strings are quoted, dwords are written as
// dword:, and everything unrecognized is written as hex bytes.
package regtext
