package record

// Kind distinguishes the record variants a parser can deliver.
type Kind uint8

const (
	KindFileObject Kind = iota + 1
	KindKey
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindFileObject:
		return "fileobject"
	case KindKey:
		return "key"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// Record is implemented by everything a parser delivers to a callback:
// *FileObject, Key and Value.
type Record interface {
	Kind() Kind
}
