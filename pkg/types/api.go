package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindStructural    ErrKind = iota // malformed nesting, unterminated elements
	ErrKindDecode                       // malformed base64 / encoded name or value
	ErrKindTimeParse                    // timestamp text in no recognized form
	ErrKindInvalidExtent                // negative length or missing image offset
	ErrKindCollision                    // extent overlaps a stored extent
	ErrKindDuplicatePath                // registry full path seen twice in one hive
	ErrKindNotFound                     // missing tag/cell/path
	ErrKindUnsupported                  // valid input we cannot act on (yet)
	ErrKindState                        // operation invalid for the record's state
	ErrKindLimit                        // document exceeds a configured limit
)

// String returns a short, stable name for the kind.
func (k ErrKind) String() string {
	switch k {
	case ErrKindStructural:
		return "structural"
	case ErrKindDecode:
		return "decode"
	case ErrKindTimeParse:
		return "time-parse"
	case ErrKindInvalidExtent:
		return "invalid-extent"
	case ErrKindCollision:
		return "collision"
	case ErrKindDuplicatePath:
		return "duplicate-path"
	case ErrKindNotFound:
		return "not-found"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindState:
		return "state"
	case ErrKindLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels commonly returned by implementations.
var (
	// ErrStructural indicates malformed markup; the parse is aborted.
	ErrStructural = &Error{Kind: ErrKindStructural, Msg: "structural parse error"}
	// ErrDecode indicates an encoded name or value could not be decoded.
	ErrDecode = &Error{Kind: ErrKindDecode, Msg: "decode error"}
	// ErrTimeParse indicates unrecognized timestamp text.
	ErrTimeParse = &Error{Kind: ErrKindTimeParse, Msg: "cannot parse time"}
	// ErrInvalidExtent indicates an extent that cannot be placed on disk.
	ErrInvalidExtent = &Error{Kind: ErrKindInvalidExtent, Msg: "invalid extent"}
	// ErrCollision indicates an extent overlapping a stored one.
	ErrCollision = &Error{Kind: ErrKindCollision, Msg: "extent collision"}
	// ErrDuplicatePath indicates a registry path registered twice.
	ErrDuplicatePath = &Error{Kind: ErrKindDuplicatePath, Msg: "duplicate registry path"}
	// ErrNotFound indicates a missing tag/cell/path.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrUnsupported indicates a recognized but unsupported input.
	ErrUnsupported = &Error{Kind: ErrKindUnsupported, Msg: "unsupported"}
	// ErrNoImage indicates content was requested without a disk image handle.
	ErrNoImage = &Error{Kind: ErrKindState, Msg: "disk image handle is unknown"}
	// ErrLimit indicates a document exceeding its configured Limits.
	ErrLimit = &Error{Kind: ErrKindLimit, Msg: "limit exceeded"}
	// ErrEncrypted indicates content was requested for an encrypted file.
	ErrEncrypted = &Error{Kind: ErrKindState, Msg: "cannot generate content for encrypted files"}
)

// KindOf returns the kind of the first *Error in err's chain, and false if
// there is none.
func KindOf(err error) (ErrKind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		if k, ok := err.(interface{ Kind() ErrKind }); ok {
			return k.Kind(), true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}
