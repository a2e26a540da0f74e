package models

import (
	"strings"

	"github.com/google/uuid"
)

// LocalIDPrefix namespaces every id issued by the client. Backend ids are UUIDs
// and never carry it.
const LocalIDPrefix = "local-"

// NewLocalID returns a fresh client-issued id.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was issued by the client rather than the backend.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}
