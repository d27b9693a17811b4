package workspace_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2389-research/lethe/workspace"
)

func TestWriteReadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	w := workspace.New(dir)

	if err := w.WriteFileAtomic("state.md", "hello world"); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	got := w.ReadFile("state.md", "fallback")
	if got != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", got)
	}
}

func TestReadFileMissingReturnsFallback(t *testing.T) {
	w := workspace.New(t.TempDir())
	got := w.ReadFile("nope.md", "default value")
	if got != "default value" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	w := workspace.New(dir)

	if err := w.WriteFileAtomic("log.md", "line one"); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
	if len(entries) != 1 || entries[0].Name() != "log.md" {
		t.Fatalf("expected exactly one file log.md, got %v", entries)
	}
}

func TestAppendFileAtomic(t *testing.T) {
	w := workspace.New(t.TempDir())

	if err := w.AppendFileAtomic("tags.md", "first"); err != nil {
		t.Fatalf("append 1: %v", err)
	}
	if err := w.AppendFileAtomic("tags.md", "second"); err != nil {
		t.Fatalf("append 2: %v", err)
	}

	got := w.ReadFile("tags.md", "")
	want := "first\nsecond"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCompactLogNoopUnderThreshold(t *testing.T) {
	w := workspace.New(t.TempDir())
	if err := w.WriteFileAtomic("tags.md", "short content"); err != nil {
		t.Fatalf("write: %v", err)
	}

	result, err := w.CompactLog("tags.md", 24000, 140)
	if err != nil {
		t.Fatalf("CompactLog: %v", err)
	}
	if result.Compacted {
		t.Fatal("expected no compaction under threshold")
	}
	if got := w.ReadFile("tags.md", ""); got != "short content" {
		t.Fatalf("expected file unchanged, got %q", got)
	}
}

func TestCompactLogMissingFileIsNoop(t *testing.T) {
	w := workspace.New(t.TempDir())
	result, err := w.CompactLog("missing.md", 10, 5)
	if err != nil {
		t.Fatalf("CompactLog: %v", err)
	}
	if result.Compacted {
		t.Fatal("expected no compaction for missing file")
	}
}

func TestCompactLogTruncatesToKeepLines(t *testing.T) {
	dir := t.TempDir()
	w := workspace.New(dir)

	lines := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		lines = append(lines, "tag line number with some padding to exceed threshold quickly "+string(rune('a'+i%26)))
	}
	content := strings.Join(lines, "\n")
	if err := w.WriteFileAtomic("emotional_tags.md", content); err != nil {
		t.Fatalf("write: %v", err)
	}

	result, err := w.CompactLog("emotional_tags.md", 2000, 10)
	if err != nil {
		t.Fatalf("CompactLog: %v", err)
	}
	if !result.Compacted {
		t.Fatal("expected compaction to trigger")
	}
	if result.PrunedLines != 490 {
		t.Fatalf("expected 490 pruned lines, got %d", result.PrunedLines)
	}

	got := w.ReadFile("emotional_tags.md", "")
	if !strings.HasPrefix(got, "# Emotional tags (compacted at ") {
		t.Fatalf("expected compaction header, got prefix: %q", got[:min(60, len(got))])
	}
	if !strings.Contains(got, "- pruned_lines: 490") {
		t.Fatalf("expected pruned_lines count in header, got: %q", got)
	}
	gotLines := strings.Split(got, "\n")
	lastKept := lines[len(lines)-10:]
	if gotLines[len(gotLines)-1] != lastKept[len(lastKept)-1] {
		t.Fatalf("expected last kept line to match original tail")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestPathJoinsWithinDir(t *testing.T) {
	w := workspace.New("/tmp/ws")
	if got := w.Path("state.md"); got != filepath.Join("/tmp/ws", "state.md") {
		t.Fatalf("unexpected path: %s", got)
	}
}
