// ABOUTME: Edge-triggered interrupt primitive — never a bare bool. The producer sets, the
// ABOUTME: consumer clears; multiple sets between clears coalesce into a single pending interrupt.

package conversation

import "sync/atomic"

// Signal is an edge-triggered boolean. Set is idempotent (repeated sets
// before a Clear collapse into one pending interrupt); IsSet is a
// side-effect-free read.
type Signal struct {
	flag atomic.Bool
}

// Set marks the signal as pending.
func (s *Signal) Set() {
	s.flag.Store(true)
}

// Clear consumes the pending interrupt, returning whether it was set.
func (s *Signal) Clear() bool {
	return s.flag.Swap(false)
}

// IsSet reports whether the signal is currently pending, without clearing it.
func (s *Signal) IsSet() bool {
	return s.flag.Load()
}
