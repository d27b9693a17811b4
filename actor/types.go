// ABOUTME: Value types for the actor runtime — state enum, config, message envelope, discovery projection.
// ABOUTME: Mirrors the teacher's AgentRole enum style (int-backed with a Label/String method).

package actor

import (
	"fmt"
	"time"
)

// State is the lifecycle state of an Actor. States only move forward; Terminated is absorbing.
type State int

const (
	Initializing State = iota
	Running
	Waiting
	Terminated
)

// Label returns the human-readable name of the state.
func (s State) Label() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

func (s State) String() string {
	return s.Label()
}

// Config describes how to spawn an actor.
type Config struct {
	// Name is the human-readable label used in discovery listings and system prompts.
	Name string
	// Group tags the actor for peer discovery. Has no authority implications.
	Group string
	// Goals is the free-text directive the actor must pursue.
	Goals string
	// Model optionally overrides the default LLM model for this actor.
	Model string
	// Tools is the set of tool names this actor is permitted to bind.
	Tools []string
	// MaxTurns bounds the runner's LLM turn loop. Must be >= 1.
	MaxTurns int
	// MaxMessages bounds the history window projected into LLM context.
	MaxMessages int
}

// DefaultConfig returns a Config with the teacher-equivalent defaults
// (20 turns, 50 message history window, default group).
func DefaultConfig(name, goals string) Config {
	return Config{
		Name:        name,
		Group:       "default",
		Goals:       goals,
		MaxTurns:    20,
		MaxMessages: 50,
	}
}

// Message is an immutable envelope passed between actors.
type Message struct {
	ID        string
	Sender    string
	Recipient string
	Content   string
	ReplyTo   string
	CreatedAt time.Time
}

// NewMessage constructs a Message with a fresh id and timestamp.
func NewMessage(sender, recipient, content, replyTo string) Message {
	return Message{
		ID:        newIdentifier(),
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		ReplyTo:   replyTo,
		CreatedAt: time.Now().UTC(),
	}
}

// Format renders the message for inclusion in an actor's context.
func (m Message) Format() string {
	reply := ""
	if m.ReplyTo != "" {
		reply = fmt.Sprintf(" (reply to %s)", m.ReplyTo)
	}
	return fmt.Sprintf("[%s] %s%s: %s", m.CreatedAt.Format("15:04:05"), m.Sender, reply, m.Content)
}

// Info is the public discovery projection of an Actor. It never exposes
// inbox, history, or result.
type Info struct {
	ID        string
	Name      string
	Group     string
	Goals     string
	State     State
	SpawnedBy string
}

// Format renders the info for inclusion in a peer's system prompt.
func (i Info) Format() string {
	return fmt.Sprintf("- %s (id=%s, state=%s): %s", i.Name, i.ID, i.State.Label(), i.Goals)
}

// ChatTurn is a single projected turn for LLM context, alternating
// user/assistant roles the way get_context_messages assembles them.
type ChatTurn struct {
	Role    string // "user" or "assistant"
	Content string
}
