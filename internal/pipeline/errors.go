package pipeline

import (
	"crypto/sha256"
	"fmt"
)

// MinTextChars is the shortest trimmed input worth analyzing.
const MinTextChars = 20

// NoContentMessage is reported when extraction yields too little text.
const NoContentMessage = "No substantial text found."

// InputError means the invocation was rejected before any stage ran.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
