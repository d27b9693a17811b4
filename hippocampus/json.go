// ABOUTME: Two-stage JSON recovery for chatty LLM output: direct parse, then the first
// ABOUTME: balanced {...} substring, matching the analyzer's documented fallback contract.

package hippocampus

import "encoding/json"

// parseJSONObject attempts a direct parse of text into a map; on failure it
// scans for the first balanced brace-delimited substring and retries once.
// Returns ok=false if both attempts fail.
func parseJSONObject(text string) (map[string]any, bool) {
	var direct map[string]any
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		return direct, true
	}

	substr, found := firstBalancedBraces(text)
	if !found {
		return nil, false
	}
	var recovered map[string]any
	if err := json.Unmarshal([]byte(substr), &recovered); err != nil {
		return nil, false
	}
	return recovered, true
}

// firstBalancedBraces returns the first substring starting at a '{' and
// ending at its matching '}', honoring nested braces.
func firstBalancedBraces(text string) (string, bool) {
	start := -1
	depth := 0
	for i, r := range text {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

func asBool(m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func asString(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
