package dftime

import (
	"fmt"

	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// ParseError reports timestamp text in neither accepted form.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dftime: cannot parse %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("dftime: cannot parse %q", e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches types.ErrTimeParse.
func (e *ParseError) Is(target error) bool { return target == types.ErrTimeParse }

// Kind returns types.ErrKindTimeParse.
func (e *ParseError) Kind() types.ErrKind { return types.ErrKindTimeParse }
