// Package record defines the typed records built from forensic XML.
//
// A *FileObject is a file from a disk image description: its leaf tags,
// its byte runs in document order and its whole-file digests. Typed
// accessors apply the coercion rules once (numeric leaves, the alloc and
// ALLOC spellings, hash leaves versus hashdigest elements, timestamps).
//
// Registry documents become a Hive: an arena of cells addressed by CellID.
// Key and Value are small handles into the arena; a cell's parent is a
// CellID, not a pointer, and each hive indexes its cells by full path.
//
// Records are built by the dfxml and regxml packages through
// FileObjectBuilder and HiveBuilder and are read-only from then on.
package record
