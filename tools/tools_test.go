// ABOUTME: Tests for the ToolRegistry that manages tool registration, lookup, and output truncation.
// ABOUTME: Covers register/unregister/get/definitions/has/names/count, truncation modes, and concurrency.

package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/2389-research/lethe/llm"
)

func stubTool(name string) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        name,
			Description: "Tool " + name,
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
		},
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) { return "", nil },
	}
}

// TestToolRegistry covers construction, register/unregister, lookup,
// listing, and counting on the in-memory registry.
func TestToolRegistry(t *testing.T) {
	t.Run("new registry is empty", func(t *testing.T) {
		registry := NewToolRegistry()
		if registry == nil {
			t.Fatal("NewToolRegistry returned nil")
		}
		if registry.Count() != 0 {
			t.Errorf("expected empty registry, got count %d", registry.Count())
		}
	})

	t.Run("register then get round-trips the tool", func(t *testing.T) {
		registry := NewToolRegistry()
		if err := registry.Register(stubTool("test_tool")); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		got := registry.Get("test_tool")
		if got == nil || got.Definition.Name != "test_tool" || got.Definition.Description != "Tool test_tool" {
			t.Fatalf("got = %+v", got)
		}
	})

	t.Run("register rejects empty name", func(t *testing.T) {
		registry := NewToolRegistry()
		if err := registry.Register(stubTool("")); err == nil {
			t.Fatal("expected error for empty name, got nil")
		}
	})

	t.Run("unregister removes a tool and reports existence", func(t *testing.T) {
		registry := NewToolRegistry()
		registry.Register(stubTool("removable"))

		if !registry.Unregister("removable") {
			t.Error("Unregister returned false for existing tool")
		}
		if registry.Get("removable") != nil {
			t.Error("tool still exists after Unregister")
		}
		if registry.Unregister("nonexistent") {
			t.Error("Unregister returned true for nonexistent tool")
		}
	})

	t.Run("get distinguishes found from missing", func(t *testing.T) {
		registry := NewToolRegistry()
		registry.Register(stubTool("findme"))

		if registry.Get("findme") == nil {
			t.Error("Get returned nil for existing tool")
		}
		if got := registry.Get("missing"); got != nil {
			t.Errorf("Get returned non-nil for missing tool: %+v", got)
		}
	})

	t.Run("has mirrors get", func(t *testing.T) {
		registry := NewToolRegistry()
		registry.Register(stubTool("exists"))
		if !registry.Has("exists") {
			t.Error("Has returned false for existing tool")
		}
		if registry.Has("nope") {
			t.Error("Has returned true for nonexistent tool")
		}
	})

	t.Run("definitions lists every registered tool once", func(t *testing.T) {
		registry := NewToolRegistry()
		registry.Register(stubTool("alpha"))
		registry.Register(stubTool("beta"))

		defs := registry.Definitions()
		if len(defs) != 2 {
			t.Fatalf("expected 2 definitions, got %d", len(defs))
		}
		names := make(map[string]bool)
		for _, d := range defs {
			names[d.Name] = true
		}
		if !names["alpha"] || !names["beta"] {
			t.Errorf("expected definitions for alpha and beta, got %v", names)
		}
	})

	t.Run("names returns all registered names", func(t *testing.T) {
		registry := NewToolRegistry()
		want := []string{"gamma", "delta", "epsilon"}
		for _, name := range want {
			registry.Register(stubTool(name))
		}
		names := registry.Names()
		if len(names) != 3 {
			t.Fatalf("expected 3 names, got %d", len(names))
		}
		sort.Strings(names)
		sort.Strings(want)
		for i, name := range names {
			if name != want[i] {
				t.Errorf("names[%d] = %q, want %q", i, name, want[i])
			}
		}
	})

	t.Run("count tracks registrations", func(t *testing.T) {
		registry := NewToolRegistry()
		if registry.Count() != 0 {
			t.Errorf("expected count 0, got %d", registry.Count())
		}
		for i := 0; i < 5; i++ {
			registry.Register(stubTool(strings.Repeat("t", i+1)))
		}
		if registry.Count() != 5 {
			t.Errorf("expected count 5, got %d", registry.Count())
		}
	})

	t.Run("concurrent register and read do not race", func(t *testing.T) {
		registry := NewToolRegistry()
		var wg sync.WaitGroup
		const concurrency = 100

		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				registry.Register(stubTool(strings.Repeat("x", idx%10+1)))
			}(i)
		}
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				registry.Get("xxx")
				registry.Has("xxx")
				registry.Names()
				registry.Definitions()
				registry.Count()
			}()
		}
		wg.Wait()

		if registry.Count() < 1 {
			t.Error("registry should have at least 1 tool after concurrent registration")
		}
	})
}

// TestTruncateOutput covers the head_tail and tail character-truncation
// modes plus the no-op case.
func TestTruncateOutput(t *testing.T) {
	t.Run("head_tail keeps both ends and warns", func(t *testing.T) {
		input := strings.Repeat("A", 500) + strings.Repeat("B", 500)
		result := TruncateOutput(input, 200, "head_tail")
		if !strings.HasPrefix(result, "AAAA") || !strings.HasSuffix(result, "BBBB") {
			t.Error("head_tail result should preserve both the start and the end")
		}
		if !strings.Contains(result, "WARNING") || !strings.Contains(result, "characters were removed") {
			t.Error("head_tail result should carry a truncation warning")
		}
	})

	t.Run("tail keeps only the end and warns up front", func(t *testing.T) {
		input := strings.Repeat("A", 500) + strings.Repeat("B", 500)
		result := TruncateOutput(input, 200, "tail")
		if !strings.HasSuffix(result, "BBBB") {
			t.Error("tail result should end with content from the end")
		}
		if !strings.HasPrefix(result, "[WARNING") || !strings.Contains(result, "characters were removed") {
			t.Error("tail result should start with a truncation warning")
		}
	})

	t.Run("short input is unchanged", func(t *testing.T) {
		input := "short string"
		if result := TruncateOutput(input, 1000, "head_tail"); result != input {
			t.Errorf("expected unchanged output for short string, got %q", result)
		}
	})
}

// TestTruncateToolOutput covers per-tool character-limit defaults, custom
// overrides, and the per-tool line-count limits (shell: 256, grep: 200).
func TestTruncateToolOutput(t *testing.T) {
	t.Run("per-tool character defaults apply", func(t *testing.T) {
		longOutput := strings.Repeat("X", 60000)

		if result := TruncateToolOutput(longOutput, "read_file", nil); !strings.Contains(result, "WARNING") {
			t.Error("read_file output exceeding 50000 chars should be truncated")
		}
		if result := TruncateToolOutput(longOutput, "write_file", nil); !strings.Contains(result, "WARNING") {
			t.Error("write_file output exceeding 1000 chars should be truncated")
		}
		if result := TruncateToolOutput(longOutput, "unknown_tool", nil); !strings.Contains(result, "WARNING") {
			t.Error("unknown tool with long output should still be truncated (default 30000)")
		}

		shortOutput := "ok"
		if result := TruncateToolOutput(shortOutput, "read_file", nil); result != shortOutput {
			t.Errorf("expected unchanged output for short string, got %q", result)
		}
	})

	t.Run("custom limit overrides default", func(t *testing.T) {
		customLimits := map[string]int{"read_file": 100}
		mediumOutput := strings.Repeat("Y", 200)
		if result := TruncateToolOutput(mediumOutput, "read_file", customLimits); !strings.Contains(result, "WARNING") {
			t.Error("output exceeding custom limit should be truncated")
		}
	})

	t.Run("line limit triggers below the character limit", func(t *testing.T) {
		lines := make([]string, 300)
		for i := range lines {
			lines[i] = fmt.Sprintf("output-line-%03d", i+1)
		}
		input := strings.Join(lines, "\n")

		result := TruncateToolOutput(input, "shell", nil)
		if strings.Contains(result, "characters were removed") {
			t.Error("character truncation should not trigger for this input size")
		}
		if !strings.Contains(result, "lines omitted") {
			t.Error("line truncation should trigger when output exceeds the line limit")
		}
		if !strings.HasPrefix(result, "output-line-001") || !strings.HasSuffix(result, "output-line-300") {
			t.Error("line-truncated output should preserve the first and last lines")
		}
	})

	t.Run("shell line limit is exactly 256", func(t *testing.T) {
		at := make([]string, 256)
		for i := range at {
			at[i] = fmt.Sprintf("sh-%03d", i+1)
		}
		if result := TruncateToolOutput(strings.Join(at, "\n"), "shell", nil); strings.Contains(result, "lines omitted") {
			t.Error("shell output of exactly 256 lines should not be line-truncated")
		}

		over := make([]string, 257)
		for i := range over {
			over[i] = fmt.Sprintf("sh-%03d", i+1)
		}
		if result := TruncateToolOutput(strings.Join(over, "\n"), "shell", nil); !strings.Contains(result, "lines omitted") {
			t.Error("shell output of 257 lines should be line-truncated (limit is 256)")
		}
	})

	t.Run("grep line limit is exactly 200", func(t *testing.T) {
		at := make([]string, 200)
		for i := range at {
			at[i] = fmt.Sprintf("match-%03d", i+1)
		}
		if result := TruncateToolOutput(strings.Join(at, "\n"), "grep", nil); strings.Contains(result, "lines omitted") {
			t.Error("grep output of exactly 200 lines should not be line-truncated")
		}

		over := make([]string, 201)
		for i := range over {
			over[i] = fmt.Sprintf("match-%03d", i+1)
		}
		if result := TruncateToolOutput(strings.Join(over, "\n"), "grep", nil); !strings.Contains(result, "lines omitted") {
			t.Error("grep output of 201 lines should be line-truncated (limit is 200)")
		}
	})
}

// TestTruncateLines covers the standalone line-truncation helper directly:
// the head+tail preservation, omission marker, and the no-op thresholds.
func TestTruncateLines(t *testing.T) {
	t.Run("truncates middle lines with an omission marker", func(t *testing.T) {
		lines := make([]string, 20)
		for i := range lines {
			lines[i] = fmt.Sprintf("line-%02d", i+1)
		}
		result := TruncateLines(strings.Join(lines, "\n"), 10)

		if !strings.HasPrefix(result, "line-01\n") || !strings.HasSuffix(result, "line-20") {
			t.Error("truncated output should keep the first and last lines")
		}
		if !strings.Contains(result, "10 lines omitted") {
			t.Errorf("expected '10 lines omitted' in result, got:\n%s", result)
		}
		if strings.Contains(result, "line-08") {
			t.Error("truncated output should not contain middle lines")
		}
	})

	t.Run("no truncation when under the limit or unlimited", func(t *testing.T) {
		lines := make([]string, 5)
		for i := range lines {
			lines[i] = fmt.Sprintf("line-%02d", i+1)
		}
		input := strings.Join(lines, "\n")

		if result := TruncateLines(input, 10); result != input {
			t.Errorf("expected unchanged output when under line limit, got %q", result)
		}
		if result := TruncateLines(input, 0); result != input {
			t.Errorf("expected unchanged output when maxLines is 0 (unlimited), got %q", result)
		}
	})
}
