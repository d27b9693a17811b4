// ABOUTME: Deterministic lexical-cue scoring that seeds the LLM round with a cheap first pass
// ABOUTME: over recent signals, before the model refines valence/arousal/tags itself.

package amygdala

import (
	"encoding/json"
	"strings"
)

// SeedTag is one heuristically scored recent signal line.
type SeedTag struct {
	Signal      string   `json:"signal"`
	Valence     float64  `json:"valence"`
	Arousal     float64  `json:"arousal"`
	Tags        []string `json:"tags"`
	HighArousal bool     `json:"high_arousal"`
}

var (
	urgencyCues  = []string{"urgent", "asap", "now", "immediately", "broken", "error", "failed"}
	negativeCues = []string{"angry", "frustrated", "annoyed", "hate", "bad", "broken", "error", "failed"}
	positiveCues = []string{"great", "love", "thanks", "good", "nice", "awesome"}
	contrastCues = []string{" but ", " though ", " however ", " keeps ", " still "}
	riskCues     = []string{"deadline", "late", "overdue", "risk", "lost"}
)

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scoreLine applies the exact urgency/negative/positive/mixed-or-ironic/risk
// heuristic to one recent signal line.
func scoreLine(line string) SeedTag {
	lower := strings.ToLower(line)
	arousal := 0.2
	valence := 0.0
	var tags []string

	hasPositive := containsAny(lower, positiveCues)
	hasNegative := containsAny(lower, negativeCues)
	hasContrast := containsAny(lower, contrastCues)
	hasSarcasm := strings.Contains(lower, "yeah right") ||
		strings.Contains(lower, "sure...") ||
		(strings.Contains(lower, "great job") && hasNegative)

	if containsAny(lower, urgencyCues) {
		arousal += 0.4
		tags = append(tags, "urgency")
	}
	if hasNegative {
		arousal += 0.25
		valence -= 0.5
		tags = append(tags, "negative_affect")
	}
	if hasPositive {
		valence += 0.5
		tags = append(tags, "positive_affect")
	}
	if hasPositive && (hasNegative || hasContrast || hasSarcasm) {
		valence -= 0.6
		arousal += 0.1
		tags = append(tags, "mixed_or_ironic")
	}
	if containsAny(lower, riskCues) {
		arousal += 0.2
		tags = append(tags, "risk")
	}

	arousal = clamp(arousal, 0.0, 1.0)
	valence = clamp(valence, -1.0, 1.0)

	if len(tags) == 0 {
		tags = []string{"neutral"}
	}

	signal := line
	if len(signal) > 180 {
		signal = signal[:180]
	}

	return SeedTag{
		Signal:      signal,
		Valence:     roundTo2(valence),
		Arousal:     roundTo2(arousal),
		Tags:        tags,
		HighArousal: arousal >= HighArousalThreshold,
	}
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// heuristicSeedTags scores the last 8 non-blank lines of recentSignals and
// renders them as indented JSON for embedding in the round message. It
// returns "(none)" if there is nothing to score.
func heuristicSeedTags(recentSignals string) (string, []SeedTag) {
	var lines []string
	for _, l := range strings.Split(recentSignals, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > 8 {
		lines = lines[len(lines)-8:]
	}

	var seeds []SeedTag
	for _, line := range lines {
		seeds = append(seeds, scoreLine(line))
	}
	if len(seeds) == 0 {
		return "(none)", nil
	}

	data, err := json.MarshalIndent(seeds, "", "  ")
	if err != nil {
		return "(none)", seeds
	}
	return string(data), seeds
}
