package internal

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// PlaceholderPrefix namespaces pending-message ids apart from session ids.
const PlaceholderPrefix = "pending_"

// NewSessionID returns a ULID: 48 bits of millisecond time plus monotonic
// entropy, so ids created in the same millisecond still differ.
func NewSessionID() string {
	return ulid.Make().String()
}

// NewPlaceholderID returns a fresh correlation key for a pending bot message.
func NewPlaceholderID() string {
	return PlaceholderPrefix + uuid.NewString()
}

// IsPlaceholderID reports whether id belongs to the placeholder namespace.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}
