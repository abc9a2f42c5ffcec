// utils/ids.go
package utils

import (
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// NewID builds a readable document id: NewID("group", "Global Chat") ->
// "group-global-chat-1a2b3c4d". Names that slug to nothing are dropped.
func NewID(prefix, name string) string {
	parts := []string{prefix}
	if s := slug.Make(name); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, ShortToken())
	return strings.Join(parts, "-")
}

// ShortToken is the first segment of a random UUID (8 hex characters).
func ShortToken() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// StripDashes removes every dash, used to embed ids inside dash-separated codes.
func StripDashes(s string) string {
	return strings.ReplaceAll(s, "-", "")
}
