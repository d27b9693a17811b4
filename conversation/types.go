// ABOUTME: Value types for per-chat conversation state — pending messages and the combined-message
// ABOUTME: coalescing law (literal separator, later-metadata-key-wins merge).

package conversation

import (
	"strings"
	"time"
)

// combinedMessageSeparator joins multiple coalesced pending messages. The
// exact literal is part of the contract: callers and tests depend on it.
const combinedMessageSeparator = "\n\n---\n[Additional message while processing:]\n"

// PendingMessage is a message waiting to be coalesced into the next
// processing turn for a chat.
type PendingMessage struct {
	Content   string
	Metadata  map[string]any
	CreatedAt time.Time
}

// combine joins pending message contents with the literal coalescing
// separator and merges their metadata maps in FIFO order, later keys win.
func combine(pending []PendingMessage) (string, map[string]any) {
	if len(pending) == 0 {
		return "", nil
	}
	if len(pending) == 1 {
		return pending[0].Content, pending[0].Metadata
	}

	contents := make([]string, 0, len(pending))
	merged := make(map[string]any)
	for _, p := range pending {
		contents = append(contents, p.Content)
		for k, v := range p.Metadata {
			merged[k] = v
		}
	}
	return strings.Join(contents, combinedMessageSeparator), merged
}
