// ABOUTME: Sentinel and typed errors for the actor runtime.
// ABOUTME: Surfaced to tool callers as strings, never raised into the LLM loop.

package actor

import "fmt"

var (
	// ErrUnknownActor is returned when send_to or a lookup targets a missing id.
	ErrUnknownActor = fmt.Errorf("unknown actor")

	// ErrActorTerminated is returned when send_message targets a Terminated actor.
	ErrActorTerminated = fmt.Errorf("actor terminated")

	// ErrNoPrincipal is returned by GetPrincipal callers that require one.
	ErrNoPrincipal = fmt.Errorf("no principal actor registered")

	// ErrInboxFull is returned when an actor's bounded inbox cannot accept another message.
	ErrInboxFull = fmt.Errorf("actor inbox full")
)

// PrincipalConflictError reports an attempt to spawn a second principal actor
// while one is already Running. Fatal to the caller; the registry never
// silently reassigns the principal.
type PrincipalConflictError struct {
	ExistingID string
}

func (e *PrincipalConflictError) Error() string {
	return fmt.Sprintf("principal conflict: actor %q is already principal", e.ExistingID)
}
