// ABOUTME: Tuning constants for the amygdala heartbeat round — arousal threshold, flashback
// ABOUTME: lookback window, and the emotional-tags log's bounded-growth thresholds.

package amygdala

const (
	// HighArousalThreshold marks a seed tag as a flashback candidate.
	HighArousalThreshold = 0.75
	// FlashbackLookback bounds how many recent high-arousal pattern tags are retained.
	FlashbackLookback = 12
	// TagLogMaxChars triggers compaction of emotional_tags.md once exceeded.
	TagLogMaxChars = 24000
	// TagLogKeepLines is how many trailing lines survive a compaction.
	TagLogKeepLines = 140
	// MaxRoundHistory bounds the in-memory round history ring.
	MaxRoundHistory = 40
	// MaxTurnsPerRound bounds the round's own turn loop — most rounds finish in 2-3 turns.
	MaxTurnsPerRound = 6

	stateFileName = "amygdala_state.md"
	tagsFileName  = "emotional_tags.md"

	userNotifyPrefix = "[USER_NOTIFY]"
	alertPrefix      = "[AMYGDALA_ALERT]"
)
