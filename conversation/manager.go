// ABOUTME: Manager implements the per-chat interruptible-coalescing processing pipeline.
// ABOUTME: Mutex scope is limited to the submit critical section — never held across the callback.

package conversation

import (
	"context"
	"log/slog"
	"sync"
)

// ProcessFunc processes one coalesced message for a chat. interruptCheck is
// a cheap, side-effect-free predicate the callback may poll between LLM
// iterations to detect a preempting submit.
type ProcessFunc func(ctx context.Context, chatID, userID int64, message string, metadata map[string]any, interruptCheck func() bool) error

// chatState holds the mutable state for one chat's processing pipeline.
// Its own mutex guards pending/processing/cancel; it is never held across
// a callback invocation.
type chatState struct {
	chatID, userID int64

	mu         sync.Mutex
	pending    []PendingMessage
	processing bool
	cancel     context.CancelFunc
	done       chan struct{}

	interrupt Signal
}

// Manager manages conversation state across multiple chats.
type Manager struct {
	mu     sync.Mutex
	states map[int64]*chatState
	logger *slog.Logger
}

// New returns an empty Manager. logger may be nil, in which case
// slog.Default is used.
func New(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{states: make(map[int64]*chatState), logger: logger}
}

func (m *Manager) getOrCreate(chatID, userID int64) *chatState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[chatID]
	if !ok {
		st = &chatState{chatID: chatID, userID: userID}
		m.states[chatID] = st
	}
	return st
}

// Submit appends content to the chat's pending queue and starts or
// interrupts processing. The submit critical section is held only long
// enough to mutate pending/processing state; process runs without the
// manager or chat mutex held.
func (m *Manager) Submit(ctx context.Context, chatID, userID int64, content string, metadata map[string]any, process ProcessFunc) {
	st := m.getOrCreate(chatID, userID)

	st.mu.Lock()
	st.pending = append(st.pending, PendingMessage{Content: content, Metadata: metadata})

	if st.processing {
		st.interrupt.Set()
		st.mu.Unlock()
		m.logger.Info("chat interrupt signaled", "chat_id", chatID)
		return
	}

	st.processing = true
	taskCtx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	st.done = make(chan struct{})
	st.mu.Unlock()

	go m.processLoop(taskCtx, st, process)
}

// processLoop drains pending into combined messages until pending is
// empty, handling interrupts by restarting with newly accumulated content.
func (m *Manager) processLoop(ctx context.Context, st *chatState, process ProcessFunc) {
	defer func() {
		st.mu.Lock()
		st.processing = false
		st.cancel = nil
		done := st.done
		st.done = nil
		st.mu.Unlock()
		if done != nil {
			close(done)
		}
	}()

	for {
		st.mu.Lock()
		if len(st.pending) == 0 {
			st.mu.Unlock()
			return
		}
		st.interrupt.Clear()
		combined, metadata := combine(st.pending)
		st.pending = nil
		st.mu.Unlock()

		if combined == "" {
			return
		}

		err := process(ctx, st.chatID, st.userID, combined, metadata, st.interrupt.IsSet)
		if err != nil {
			if ctx.Err() != nil {
				m.logger.Info("chat processing cancelled", "chat_id", st.chatID)
				st.mu.Lock()
				st.pending = nil
				st.mu.Unlock()
				return
			}
			m.logger.Error("chat processing error", "chat_id", st.chatID, "error", err)
			// Continue to process remaining pending messages.
		}

		st.interrupt.Clear()
	}
}

// IsProcessing reports whether a chat currently has an in-flight processing task.
func (m *Manager) IsProcessing(chatID int64) bool {
	m.mu.Lock()
	st, ok := m.states[chatID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.processing
}

// PendingCount returns the number of pending messages for a chat.
func (m *Manager) PendingCount(chatID int64) int {
	m.mu.Lock()
	st, ok := m.states[chatID]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.pending)
}

// Cancel cancels processing for a chat, clearing pending and reporting
// whether there was anything in flight to cancel.
func (m *Manager) Cancel(chatID int64) bool {
	m.mu.Lock()
	st, ok := m.states[chatID]
	m.mu.Unlock()
	if !ok {
		return false
	}

	st.mu.Lock()
	if !st.processing || st.cancel == nil {
		st.mu.Unlock()
		return false
	}
	cancel := st.cancel
	done := st.done
	st.mu.Unlock()

	cancel()
	if done != nil {
		<-done
	}

	st.mu.Lock()
	st.pending = nil
	st.processing = false
	st.mu.Unlock()
	return true
}
