// ABOUTME: Status is the amygdala's externally observable record — current state, running
// ABOUTME: counters, and bounded rings of recent rounds and active flashback patterns.

package amygdala

// RoundRecord summarizes one completed heartbeat round.
type RoundRecord struct {
	StartedAt       string
	CompletedAt     string
	Turns           int
	DurationSeconds float64
	Alert           bool
	Error           string
	Result          string
}

// Status is a snapshot of the amygdala's run state, safe to copy and hand
// to a status endpoint or admin command.
type Status struct {
	State            string
	RoundsTotal      int
	LastStartedAt    string
	LastCompletedAt  string
	LastTurns        int
	LastAlert        string
	LastResult       string
	LastError        string
	TagsPrunedTotal  int
	RoundHistory     []RoundRecord
	ActivePatterns   []string
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// pushRoundHistory appends a record, evicting the oldest once MaxRoundHistory is exceeded.
func pushRoundHistory(history []RoundRecord, rec RoundRecord) []RoundRecord {
	history = append(history, rec)
	if len(history) > MaxRoundHistory {
		history = history[len(history)-MaxRoundHistory:]
	}
	return history
}

// pushActivePattern appends a flashback pattern tag, evicting the oldest
// once FlashbackLookback is exceeded.
func pushActivePattern(patterns []string, tag string) []string {
	patterns = append(patterns, tag)
	if len(patterns) > FlashbackLookback {
		patterns = patterns[len(patterns)-FlashbackLookback:]
	}
	return patterns
}
