// ABOUTME: Actor is an autonomous unit with its own inbox, history, and LLM-driven behavior.
// ABOUTME: State transitions and history/inbox mutations are guarded by a single mutex.

package actor

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// defaultInboxCapacity bounds an actor's FIFO inbox. Send blocks only up to
// this bound rather than unboundedly.
const defaultInboxCapacity = 256

// Actor is an autonomous agent with a lifecycle. Each actor has its own
// goals, tools, and message queue. The principal actor is the only one
// that exchanges messages with the user.
type Actor struct {
	ID        string
	Config    Config
	SpawnedBy string
	Principal bool
	CreatedAt time.Time

	registry *Registry

	mu      sync.RWMutex
	state   State
	history []Message
	result  string
	turns   int

	inbox chan Message
}

// newActor constructs an actor in the Initializing state. Only the
// Registry creates actors, so this stays unexported.
func newActor(config Config, registry *Registry, spawnedBy string, isPrincipal bool) *Actor {
	if config.MaxTurns <= 0 {
		config.MaxTurns = 20
	}
	if config.MaxMessages <= 0 {
		config.MaxMessages = 50
	}
	return &Actor{
		ID:        newIdentifier(),
		Config:    config,
		SpawnedBy: spawnedBy,
		Principal: isPrincipal,
		CreatedAt: time.Now().UTC(),
		registry:  registry,
		state:     Initializing,
		inbox:     make(chan Message, defaultInboxCapacity),
	}
}

// State returns the actor's current lifecycle state.
func (a *Actor) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// setState advances the state. Callers must already hold a.mu.
func (a *Actor) setState(s State) {
	a.state = s
}

// Turns returns the number of LLM turns the runner has executed for this actor.
func (a *Actor) Turns() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.turns
}

// SetTurns records the runner's current turn count.
func (a *Actor) SetTurns(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.turns = n
}

// Result returns the result string recorded at termination, if any.
func (a *Actor) Result() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.result
}

// Info returns the public discovery projection of this actor.
func (a *Actor) Info() Info {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Info{
		ID:        a.ID,
		Name:      a.Config.Name,
		Group:     a.Config.Group,
		Goals:     a.Config.Goals,
		State:     a.state,
		SpawnedBy: a.SpawnedBy,
	}
}

// markRunning transitions Initializing -> Running. Called by the registry
// immediately after spawn.
func (a *Actor) markRunning() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Initializing {
		a.setState(Running)
	}
}

// Send delivers a message into this actor's history and inbox. It blocks
// only up to the inbox's bound.
func (a *Actor) Send(msg Message) {
	a.mu.Lock()
	a.history = append(a.history, msg)
	a.mu.Unlock()
	a.inbox <- msg
}

// TrySend records a message in history and attempts a non-blocking inbox
// delivery, returning false if the inbox is at capacity. The message is
// always recorded in history regardless of inbox delivery, so termination
// notifications are never silently lost during synchronous teardown.
func (a *Actor) TrySend(msg Message) bool {
	a.mu.Lock()
	a.history = append(a.history, msg)
	a.mu.Unlock()
	select {
	case a.inbox <- msg:
		return true
	default:
		return false
	}
}

// SendTo resolves recipient via the registry, constructs a message, and
// delivers it. Fails with ErrUnknownActor if the recipient does not exist.
func (a *Actor) SendTo(recipientID, content, replyTo string) (Message, error) {
	recipient := a.registry.Get(recipientID)
	if recipient == nil {
		return Message{}, ErrUnknownActor
	}
	msg := NewMessage(a.ID, recipientID, content, replyTo)
	recipient.Send(msg)

	a.mu.Lock()
	a.history = append(a.history, msg)
	a.mu.Unlock()
	return msg, nil
}

// WaitForReply blocks until a message arrives in the inbox or timeout
// elapses. It never errors on timeout — it returns ok=false.
func (a *Actor) WaitForReply(timeout time.Duration) (Message, bool) {
	a.mu.Lock()
	a.setState(Waiting)
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		if a.state == Waiting {
			a.setState(Running)
		}
		a.mu.Unlock()
	}()

	select {
	case msg := <-a.inbox:
		return msg, true
	case <-time.After(timeout):
		return Message{}, false
	}
}

// History returns a snapshot of every message this actor has sent or
// received since it was spawned.
func (a *Actor) History() []Message {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Message(nil), a.history...)
}

// DrainInbox non-blockingly drains all currently queued messages into a batch.
func (a *Actor) DrainInbox() []Message {
	var batch []Message
	for {
		select {
		case msg := <-a.inbox:
			batch = append(batch, msg)
		default:
			return batch
		}
	}
}

// Terminate idempotently transitions the actor to Terminated, records the
// result, and triggers parent notification via the registry. Subsequent
// calls are no-ops.
func (a *Actor) Terminate(result string) {
	a.mu.Lock()
	if a.state == Terminated {
		a.mu.Unlock()
		return
	}
	if result == "" {
		result = fmt.Sprintf("Actor %s terminated", a.Config.Name)
	}
	a.result = result
	a.setState(Terminated)
	a.mu.Unlock()

	a.registry.onActorTerminated(a.ID)
}

// BuildSystemPrompt assembles the LLM system prompt from the actor's role,
// goals, a group snapshot, and the last ten peer inbox messages.
func (a *Actor) BuildSystemPrompt() string {
	var parts []string

	if a.Principal {
		parts = append(parts,
			"You are the principal actor — the user's direct assistant.",
			"You are the ONLY actor that communicates with the user.",
			"You can spawn subagents to handle subtasks, then report results to the user.",
		)
	} else {
		parts = append(parts,
			fmt.Sprintf("You are a subagent actor named '%s'.", a.Config.Name),
			fmt.Sprintf("You were spawned by actor '%s' to accomplish a specific task.", a.SpawnedBy),
			"You CANNOT talk to the user directly. Report your results to the actor that spawned you.",
		)
	}

	parts = append(parts, fmt.Sprintf("\n<goals>\n%s\n</goals>", a.Config.Goals))

	groupActors := a.registry.Discover(a.Config.Group)
	var others []Info
	for _, info := range groupActors {
		if info.ID != a.ID {
			others = append(others, info)
		}
	}
	if len(others) > 0 {
		parts = append(parts, "\n<group_actors>", fmt.Sprintf("Other actors in group '%s':", a.Config.Group))
		for _, info := range others {
			parts = append(parts, info.Format())
		}
		parts = append(parts, "</group_actors>")
	}

	a.mu.RLock()
	history := append([]Message(nil), a.history...)
	a.mu.RUnlock()

	var inboxMsgs []Message
	for _, m := range history {
		if m.Sender != a.ID {
			inboxMsgs = append(inboxMsgs, m)
		}
	}
	if n := len(inboxMsgs); n > 10 {
		inboxMsgs = inboxMsgs[n-10:]
	}
	if len(inboxMsgs) > 0 {
		parts = append(parts, "\n<inbox>", "Recent messages from other actors:")
		for _, m := range inboxMsgs {
			parts = append(parts, m.Format())
		}
		parts = append(parts, "</inbox>")
	}

	parts = append(parts, "\n<rules>",
		"- Use `send_message(actor_id, content)` to communicate with other actors",
		"- Use `discover_actors(group)` to find actors in your group",
	)
	if a.Principal {
		parts = append(parts, "- Use `spawn_subagent(name, group, goals, tools)` to create child actors for subtasks")
	}
	parts = append(parts,
		"- Use `terminate(result)` when your task is complete — include a summary of what you accomplished",
		"- You can terminate yourself, but NOT other actors",
		"</rules>",
	)

	return strings.Join(parts, "\n")
}

// GetContextMessages projects the last MaxMessages history entries into
// alternating user/assistant turns. Self-authored messages become
// assistant turns; peer messages become user turns prefixed with the
// sender's display name.
func (a *Actor) GetContextMessages() []ChatTurn {
	a.mu.RLock()
	history := append([]Message(nil), a.history...)
	a.mu.RUnlock()

	if n := len(history); n > a.Config.MaxMessages {
		history = history[n-a.Config.MaxMessages:]
	}

	turns := make([]ChatTurn, 0, len(history))
	for _, msg := range history {
		if msg.Sender == a.ID {
			turns = append(turns, ChatTurn{Role: "assistant", Content: msg.Content})
			continue
		}
		label := msg.Sender
		if sender := a.registry.Get(msg.Sender); sender != nil {
			label = sender.Config.Name
		}
		turns = append(turns, ChatTurn{Role: "user", Content: fmt.Sprintf("[From %s]: %s", label, msg.Content)})
	}
	return turns
}
