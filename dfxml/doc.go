// Package dfxml reads Digital Forensics XML file-object documents as a
// stream.
//
// Each <fileobject> becomes a *record.FileObject delivered to a callback
// when its element closes; the reader keeps nothing once the callback
// returns, so memory does not grow with the document.
//
//	err := dfxml.Read(f, func(fo *record.FileObject) error {
//	    fmt.Println(fo.Filename(), fo.Fragments())
//	    return nil
//	}, dfxml.WithImage(img))
//
// The iterator form stops the parse when the loop exits:
//
//	for fo, err := range dfxml.FileObjects(f) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
//
// Both <run> and <byte_run> are byte runs, and the legacy "bytes"
// attribute is read as "len". A <hashdigest> directly inside a run
// belongs to that run; one directly inside the file object is a
// whole-file digest.
//
// Documents are read under types.DefaultLimits unless WithLimits says
// otherwise. Input the reader recovers from, such as a run attribute that
// is not a number, is logged and, with WithDiagnostics, recorded.
package dfxml
