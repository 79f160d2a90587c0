// Package entityid generates and parses prefixed entity identifiers.
package entityid

import (
	"strings"

	"github.com/google/uuid"
)

// New returns an entity id of the form "<prefix>:<suffix>". The suffix is a
// UUID with its hyphens stripped, keeping ":" the only structural character
// in the id.
func New(prefix string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + ":" + suffix
}

// Prefix returns the entity type prefix embedded in an entity id.
func Prefix(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}
