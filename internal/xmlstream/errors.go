package xmlstream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// ErrStop is returned by a Handler to end the stream early. Run reports it
// as success.
var ErrStop = errors.New("xmlstream: stop")

// StructuralError reports malformed nesting. Stack lists the elements that
// were still open, outermost first.
type StructuralError struct {
	Msg   string
	Line  int
	Stack []string
	Err   error
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	b.WriteString("structural parse error")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if len(e.Stack) > 0 {
		fmt.Fprintf(&b, " (open: <%s>)", strings.Join(e.Stack, "> <"))
	}
	return b.String()
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Is matches types.ErrStructural.
func (e *StructuralError) Is(target error) bool { return target == types.ErrStructural }

// Kind returns types.ErrKindStructural.
func (e *StructuralError) Kind() types.ErrKind { return types.ErrKindStructural }
