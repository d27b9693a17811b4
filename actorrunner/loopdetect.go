// ABOUTME: Tool-call loop detection, adapted from the coding agent's history-based DetectLoop
// ABOUTME: to operate on a flat running signature list scoped to one actor's turn loop.

package actorrunner

import (
	"crypto/sha256"
	"fmt"

	"github.com/2389-research/lethe/llm"
)

// appendSignatures records a "name:sha256(args)[:8]" signature for every
// tool call in this turn, in call order.
func appendSignatures(signatures *[]string, calls []llm.ToolCallData) {
	for _, tc := range calls {
		hash := sha256.Sum256(tc.Arguments)
		*signatures = append(*signatures, fmt.Sprintf("%s:%x", tc.Name, hash[:8]))
	}
}

// detectLoop reports whether the most recent windowSize signatures form a
// repeating pattern of length 1, 2, or 3.
func detectLoop(signatures []string, windowSize int) bool {
	if len(signatures) < windowSize {
		return false
	}
	recent := signatures[len(signatures)-windowSize:]

	for patternLen := 1; patternLen <= 3; patternLen++ {
		if windowSize%patternLen != 0 {
			continue
		}
		pattern := recent[:patternLen]
		allMatch := true
		for i := patternLen; i < windowSize; i += patternLen {
			for j := 0; j < patternLen; j++ {
				if recent[i+j] != pattern[j] {
					allMatch = false
					break
				}
			}
			if !allMatch {
				break
			}
		}
		if allMatch {
			return true
		}
	}
	return false
}
