// Package extent models byte runs on a disk image and keeps a database of
// claimed runs that refuses overlapping claims.
//
// # Byte runs
//
// A ByteRun places a contiguous region of a file (or registry cell) on the
// image: image offset, file offset, file system offset and length, plus the
// markers used for runs that are not plain image bytes (Fill for constant
// runs, UncompressedLen for compressed ones). Which of these were present in
// the source is tracked in ByteRun.Fields.
//
// DecodeAttrs turns the attributes of a run element into a ByteRun and
// Attrs turns it back. The historical "bytes" attribute is read as "len".
//
// # Extent database
//
//	db := extent.NewDB(512)
//	if err := db.AddRuns(fi.ByteRuns()); err != nil {
//	    var ce *extent.CollisionError
//	    if errors.As(err, &ce) {
//	        // ce.Existing is the run already claimed
//	    }
//	}
//	for s := range db.SectorsNotInDB(run) {
//	    // sector s is not claimed by anything in db
//	}
//
// The database never stores two overlapping runs. AddRuns stops at the
// first collision without undoing earlier adds.
package extent
