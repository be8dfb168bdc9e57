package knowledge

import "errors"

var (
	// ErrCorrupted indicates the persisted index and document store disagree
	// and cannot be loaded. Initialization aborts rather than serving a
	// knowledge base with a broken pairing.
	ErrCorrupted = errors.New("knowledge base is corrupted")

	// ErrOutOfRange indicates a document lookup past the end of the store.
	ErrOutOfRange = errors.New("document position out of range")
)
