package types

import (
	"fmt"
	"strings"
)

// ============================================================================
// Document Limits Constants
// ============================================================================
// Registry hives bound key names at 255 characters and value names at
// 16383, and real trees rarely nest past a few hundred levels. Forensic
// XML documents mirror those trees plus a handful of wrapper elements, so
// the defaults below leave headroom above the registry's own limits.

const (
	// MaxDepthDefault is the deepest element nesting accepted by default.
	MaxDepthDefault = 512

	// MaxDepthDeep allows very deep registry exports.
	MaxDepthDeep = 4096

	// MaxDepthShallow is a conservative nesting limit for untrusted input.
	MaxDepthShallow = 128

	// MaxTextLen16MB bounds the character data of one element (16 MB).
	MaxTextLen16MB = 16 << 20

	// MaxTextLen256MB is a relaxed bound for large inline value data.
	MaxTextLen256MB = 256 << 20

	// MaxTextLen1MB is a conservative bound (1 MB).
	MaxTextLen1MB = 1 << 20

	// MaxNameLenRegistry is the longest name a registry cell can carry, in
	// characters (the value name limit; key names stop at 255).
	MaxNameLenRegistry = 16383

	// MaxNameLenKey is the registry key name limit in characters.
	MaxNameLenKey = 255
)

// Limits bounds the resources a single document may claim while it is
// parsed. A zero field means no limit.
type Limits struct {
	// MaxDepth is the maximum number of simultaneously open elements.
	MaxDepth int

	// MaxTextLen is the maximum number of bytes of character data in one
	// element. Attribute values count against it too.
	MaxTextLen int

	// MaxNameLen is the maximum length of a registry key or value name in
	// characters, after decoding.
	MaxNameLen int
}

// DefaultLimits returns the limits the readers apply when given none.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:   MaxDepthDefault,
		MaxTextLen: MaxTextLen16MB,
		MaxNameLen: MaxNameLenRegistry,
	}
}

// RelaxedLimits returns limits for unusually deep or bulky exports.
func RelaxedLimits() Limits {
	return Limits{
		MaxDepth:   MaxDepthDeep,
		MaxTextLen: MaxTextLen256MB,
		MaxNameLen: MaxNameLenRegistry,
	}
}

// StrictLimits returns conservative limits for untrusted input.
func StrictLimits() Limits {
	return Limits{
		MaxDepth:   MaxDepthShallow,
		MaxTextLen: MaxTextLen1MB,
		MaxNameLen: MaxNameLenKey,
	}
}

// NoLimits disables every check.
func NoLimits() Limits { return Limits{} }

// LimitsByName resolves a profile name: "default", "relaxed", "strict" or
// "none".
func LimitsByName(name string) (Limits, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultLimits(), nil
	case "relaxed":
		return RelaxedLimits(), nil
	case "strict":
		return StrictLimits(), nil
	case "none", "off":
		return NoLimits(), nil
	}
	return Limits{}, fmt.Errorf("unknown limits profile %q", name)
}

// LimitError reports a document exceeding one of its Limits.
type LimitError struct {
	Limit string // "depth", "text" or "name"
	Max   int
	Got   int
	Line  int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("line %d: %s limit exceeded (%d > %d)", e.Line, e.Limit, e.Got, e.Max)
}

// Is matches ErrLimit.
func (e *LimitError) Is(target error) bool { return target == ErrLimit }

// Kind returns ErrKindLimit.
func (e *LimitError) Kind() ErrKind { return ErrKindLimit }

// CheckLimit returns a *LimitError when got exceeds bound. A bound of zero
// or less never fails.
func CheckLimit(limit string, bound, got, line int) error {
	if bound > 0 && got > bound {
		return &LimitError{Limit: limit, Max: bound, Got: got, Line: line}
	}
	return nil
}
