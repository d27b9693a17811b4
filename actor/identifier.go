// ABOUTME: Short opaque actor/message identifiers, unique within a process.

package actor

import "github.com/google/uuid"

// newIdentifier returns an 8 hex character identifier, unique within the
// process with overwhelming probability (first 8 hex chars of a v4 UUID).
func newIdentifier() string {
	return uuid.NewString()[:8]
}
