package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAccessDenied is returned when an operation runs without a resolved
// principal. Every entry point checks this first.
var ErrAccessDenied = errors.New("tenantstore: credentials could not be retrieved")

// IntegrityError refuses a delete while live child records reference the
// entity.
type IntegrityError struct {
	// Prefix is the entity type being deleted.
	Prefix string

	// Children are the child type names with live references.
	Children []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf(
		"You cannot delete this %s because it has child records. Please delete those records (%s) first.",
		e.Prefix, strings.Join(e.Children, ", "),
	)
}
