package extent

import (
	"fmt"

	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// CollisionError reports that Candidate overlaps Existing, a run already in
// the database.
type CollisionError struct {
	Candidate ByteRun
	Existing  ByteRun
}

func (e *CollisionError) Error() string {
	if e.Candidate.Len == 0 {
		return fmt.Sprintf("extent: cannot add %s: zero-length extents intersect everything", e.Candidate)
	}
	return fmt.Sprintf("extent: cannot add %s: it intersects %s", e.Candidate, e.Existing)
}

// Is matches types.ErrCollision.
func (e *CollisionError) Is(target error) bool { return target == types.ErrCollision }

// Kind returns types.ErrKindCollision.
func (e *CollisionError) Kind() types.ErrKind { return types.ErrKindCollision }

// InvalidExtentError reports a run the database cannot reason about.
type InvalidExtentError struct {
	Extent ByteRun
	Reason string
}

func (e *InvalidExtentError) Error() string {
	return fmt.Sprintf("extent: invalid extent %s: %s", e.Extent, e.Reason)
}

// Is matches types.ErrInvalidExtent.
func (e *InvalidExtentError) Is(target error) bool { return target == types.ErrInvalidExtent }

// Kind returns types.ErrKindInvalidExtent.
func (e *InvalidExtentError) Kind() types.ErrKind { return types.ErrKindInvalidExtent }
