// Package regxml reads RegXML registry documents as a stream.
//
// Keys and values are built into a record.Hive arena and handed to a
// callback as their elements close, children before parents. Full paths
// are backslash-delimited from the hive root and must be unique within a
// hive; keys and values have separate path namespaces.
//
// A key or value without a name attribute is not an error. It is given a
// placeholder name, "(unnamed cell #N)", unique for the whole parse.
// Names and values declared as base64 are decoded; names that decode to
// something other than UTF-8 are read as UTF-16LE or Windows-1252.
//
// Decoded names longer than Limits.MaxNameLen characters fail with a
// *types.LimitError.
package regxml
