// ABOUTME: Bounded append-only workspace files with atomic writes and byte-threshold compaction.
// ABOUTME: Error wrapping and path handling follow the local execution environment's style; the
// ABOUTME: write-temp-then-rename pattern itself is new — the teacher writes files directly (see DESIGN.md).

package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Workspace roots all file operations at a single absolute directory.
type Workspace struct {
	Dir string
}

// New returns a Workspace rooted at dir. It does not create the directory;
// callers should call EnsureDir before the first write.
func New(dir string) *Workspace {
	return &Workspace{Dir: dir}
}

// EnsureDir creates the workspace directory if it does not already exist.
func (w *Workspace) EnsureDir() error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fmt.Errorf("create workspace dir %s: %w", w.Dir, err)
	}
	return nil
}

// Path resolves a file name relative to the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// ReadFile returns the trimmed contents of a workspace file, or fallback
// if the file does not exist or is empty.
func (w *Workspace) ReadFile(name, fallback string) string {
	data, err := os.ReadFile(w.Path(name))
	if err != nil {
		return fallback
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

// WriteFileAtomic writes content to a workspace file atomically: it writes
// to a temp sibling in the same directory, then renames over the
// destination. This guarantees readers never observe a partially written
// file, which matters because the heartbeat and its internal actor may
// read and write the same files across overlapping rounds.
func (w *Workspace) WriteFileAtomic(name, content string) error {
	if err := w.EnsureDir(); err != nil {
		return err
	}
	dest := w.Path(name)

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", dest, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", dest, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file into %s: %w", dest, err)
	}
	return nil
}

// AppendFileAtomic reads the current content, appends text, and rewrites
// atomically. It is not safe against concurrent appenders to the same
// file — the contract is single-writer per file (see the heartbeat, the
// only owner of its workspace files).
func (w *Workspace) AppendFileAtomic(name, text string) error {
	current := w.ReadFile(name, "")
	var combined string
	if current == "" {
		combined = text
	} else {
		combined = current + "\n" + text
	}
	return w.WriteFileAtomic(name, combined)
}

// CompactResult reports the outcome of a CompactLog call.
type CompactResult struct {
	Compacted   bool
	PrunedLines int
}

// CompactLog keeps a log file bounded: if its content exceeds
// maxChars, it is truncated to the last keepLines lines, prefixed with a
// compaction header naming the prune count and an ISO timestamp.
// Compacting an already-compacted log under the threshold is a no-op.
func (w *Workspace) CompactLog(name string, maxChars, keepLines int) (CompactResult, error) {
	path := w.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return CompactResult{}, nil
		}
		return CompactResult{}, fmt.Errorf("read log %s: %w", path, err)
	}

	content := string(data)
	if len(content) <= maxChars {
		return CompactResult{}, nil
	}

	lines := strings.Split(content, "\n")
	keep := lines
	if len(lines) > keepLines {
		keep = lines[len(lines)-keepLines:]
	}
	pruned := len(lines) - len(keep)
	if pruned < 0 {
		pruned = 0
	}

	now := time.Now().UTC().Format("2006-01-02 15:04 MST")
	header := []string{
		fmt.Sprintf("# Emotional tags (compacted at %s)", now),
		"- pruned_lines: " + strconv.Itoa(pruned),
		"- note: keeping only recent rolling window",
		"",
	}

	rewritten := strings.TrimSpace(strings.Join(append(header, keep...), "\n")) + "\n"
	if err := w.WriteFileAtomic(name, rewritten); err != nil {
		return CompactResult{}, err
	}
	return CompactResult{Compacted: true, PrunedLines: pruned}, nil
}
