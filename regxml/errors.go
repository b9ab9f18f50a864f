package regxml

import (
	"fmt"

	"github.com/joshuapare/dfxmlkit/internal/xmlstream"
	"github.com/joshuapare/dfxmlkit/pkg/types"
	"github.com/joshuapare/dfxmlkit/record"
)

// ErrStop may be returned by a callback to end reading early. Read then
// returns nil.
var ErrStop = xmlstream.ErrStop

// StructuralError reports malformed nesting, with the elements still open.
type StructuralError = xmlstream.StructuralError

// DuplicatePathError reports a key or value whose full path was already
// registered in the hive.
type DuplicatePathError = record.DuplicatePathError

// DecodeError reports an attribute declared as base64 that does not decode.
type DecodeError struct {
	Attr  string // attribute name, e.g. "name" or "value"
	Value string // attribute text as found
	Line  int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("regxml: line %d: cannot decode %s=%q: %v", e.Line, e.Attr, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches types.ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == types.ErrDecode }

// Kind returns types.ErrKindDecode.
func (e *DecodeError) Kind() types.ErrKind { return types.ErrKindDecode }
