// ABOUTME: Tests for LocalExecutionEnvironment, the default local implementation.
// ABOUTME: Covers file ops, command execution, env filtering, grep, glob, and lifecycle.

package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalExecEnvFileOps(t *testing.T) {
	t.Run("ReadFile returns numbered lines", func(t *testing.T) {
		dir := t.TempDir()
		filePath := filepath.Join(dir, "hello.txt")
		if err := os.WriteFile(filePath, []byte("line one\nline two\nline three\n"), 0644); err != nil {
			t.Fatal(err)
		}
		env := NewLocalExecutionEnvironment(dir)
		result, err := env.ReadFile(filePath, 0, 0)
		if err != nil {
			t.Fatalf("ReadFile returned error: %v", err)
		}
		if !strings.Contains(result, "1\t") || !strings.Contains(result, "line one") ||
			!strings.Contains(result, "3\t") || !strings.Contains(result, "line three") {
			t.Errorf("result = %q", result)
		}
	})

	t.Run("ReadFile respects offset and limit", func(t *testing.T) {
		dir := t.TempDir()
		filePath := filepath.Join(dir, "lines.txt")
		var lines []string
		for i := 1; i <= 10; i++ {
			lines = append(lines, fmt.Sprintf("line %d", i))
		}
		if err := os.WriteFile(filePath, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		env := NewLocalExecutionEnvironment(dir)
		result, err := env.ReadFile(filePath, 3, 2)
		if err != nil {
			t.Fatalf("ReadFile returned error: %v", err)
		}
		if !strings.Contains(result, "line 3") || !strings.Contains(result, "line 4") {
			t.Errorf("result missing expected lines: %q", result)
		}
		if strings.Contains(result, "line 2") || strings.Contains(result, "line 5") {
			t.Errorf("result should be bounded to [3,4], got %q", result)
		}
	})

	t.Run("ReadFile errors on missing file", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		if _, err := env.ReadFile(filepath.Join(dir, "nonexistent.txt"), 0, 0); err == nil {
			t.Fatal("expected error for nonexistent file, got nil")
		}
	})

	t.Run("WriteFile creates the file", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		filePath := filepath.Join(dir, "output.txt")
		content := "hello world\n"
		if err := env.WriteFile(filePath, content); err != nil {
			t.Fatalf("WriteFile returned error: %v", err)
		}
		data, err := os.ReadFile(filePath)
		if err != nil || string(data) != content {
			t.Errorf("data = %q, err = %v", data, err)
		}
	})

	t.Run("WriteFile creates missing parent directories", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		filePath := filepath.Join(dir, "a", "b", "c", "deep.txt")
		content := "deep content\n"
		if err := env.WriteFile(filePath, content); err != nil {
			t.Fatalf("WriteFile returned error: %v", err)
		}
		data, err := os.ReadFile(filePath)
		if err != nil || string(data) != content {
			t.Errorf("data = %q, err = %v", data, err)
		}
	})

	t.Run("FileExists distinguishes present from absent", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)

		exists, err := env.FileExists(filepath.Join(dir, "nope.txt"))
		if err != nil || exists {
			t.Fatalf("exists = %v, err = %v, want false, nil", exists, err)
		}

		filePath := filepath.Join(dir, "yep.txt")
		if err := os.WriteFile(filePath, []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}
		exists, err = env.FileExists(filePath)
		if err != nil || !exists {
			t.Fatalf("exists = %v, err = %v, want true, nil", exists, err)
		}
	})

	t.Run("ListDirectory reports files and directories with sizes", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "file1.txt"), []byte("hello"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "file2.txt"), []byte("world!"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
			t.Fatal(err)
		}

		env := NewLocalExecutionEnvironment(dir)
		entries, err := env.ListDirectory(dir, 0)
		if err != nil {
			t.Fatalf("ListDirectory returned error: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}

		nameMap := make(map[string]DirEntry)
		for _, e := range entries {
			nameMap[e.Name] = e
		}
		if e, ok := nameMap["file1.txt"]; !ok || e.IsDir || e.Size != 5 {
			t.Errorf("file1.txt entry = %+v, ok=%v", e, ok)
		}
		if e, ok := nameMap["subdir"]; !ok || !e.IsDir {
			t.Errorf("subdir entry = %+v, ok=%v", e, ok)
		}
	})
}

func TestLocalExecEnvExecCommand(t *testing.T) {
	t.Run("captures stdout and exit code", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		result, err := env.ExecCommand("echo hello", 10000, "", nil)
		if err != nil {
			t.Fatalf("ExecCommand returned error: %v", err)
		}
		if !strings.Contains(result.Stdout, "hello") || result.ExitCode != 0 || result.TimedOut || result.DurationMs < 0 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("times out on overrunning commands", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		result, err := env.ExecCommand("sleep 30", 500, "", nil)
		if err != nil {
			t.Fatalf("ExecCommand returned error: %v", err)
		}
		if !result.TimedOut {
			t.Error("expected command to time out")
		}
	})

	t.Run("propagates a nonzero exit code", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		result, err := env.ExecCommand("exit 42", 10000, "", nil)
		if err != nil {
			t.Fatalf("ExecCommand returned error: %v", err)
		}
		if result.ExitCode != 42 {
			t.Errorf("ExitCode = %d, want 42", result.ExitCode)
		}
	})

	t.Run("runs in the given working directory", func(t *testing.T) {
		dir := t.TempDir()
		subDir := filepath.Join(dir, "subwork")
		if err := os.Mkdir(subDir, 0755); err != nil {
			t.Fatal(err)
		}
		env := NewLocalExecutionEnvironment(dir)
		result, err := env.ExecCommand("pwd", 10000, subDir, nil)
		if err != nil {
			t.Fatalf("ExecCommand returned error: %v", err)
		}
		got := strings.TrimSpace(result.Stdout)
		resolvedSubDir, _ := filepath.EvalSymlinks(subDir)
		resolvedGot, _ := filepath.EvalSymlinks(got)
		if resolvedGot != resolvedSubDir {
			t.Errorf("working dir = %q, want %q", resolvedGot, resolvedSubDir)
		}
	})
}

// TestLocalExecEnvEnvPolicy covers the three environment-variable
// inheritance policies: default secret-pattern filtering, inherit-all, and
// inherit-none.
func TestLocalExecEnvEnvPolicy(t *testing.T) {
	t.Run("default policy filters API key and token patterns", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		envVars := map[string]string{"MY_API_KEY": "secret123", "DATABASE_TOKEN": "dbtoken", "SAFE_VAR": "safe_value"}

		result, err := env.ExecCommand("env", 10000, "", envVars)
		if err != nil {
			t.Fatalf("ExecCommand returned error: %v", err)
		}
		output := result.Stdout + result.Stderr
		if strings.Contains(output, "secret123") || strings.Contains(output, "dbtoken") {
			t.Error("sensitive values should be filtered out")
		}
		if !strings.Contains(output, "safe_value") {
			t.Error("non-sensitive variable should be present")
		}
	})

	t.Run("InheritAll passes everything through", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir, WithEnvPolicy(EnvPolicyInheritAll))
		envVars := map[string]string{"MY_API_KEY": "secret123", "SAFE_VAR": "safe_value"}

		result, err := env.ExecCommand("env", 10000, "", envVars)
		if err != nil {
			t.Fatalf("ExecCommand returned error: %v", err)
		}
		output := result.Stdout + result.Stderr
		if !strings.Contains(output, "secret123") || !strings.Contains(output, "safe_value") {
			t.Error("InheritAll should include every variable, filtered or not")
		}
	})

	t.Run("InheritNone only exposes explicitly passed vars", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir, WithEnvPolicy(EnvPolicyInheritNone))
		envVars := map[string]string{"CUSTOM_VAR": "custom_value"}

		result, err := env.ExecCommand("env", 10000, "", envVars)
		if err != nil {
			t.Fatalf("ExecCommand returned error: %v", err)
		}
		output := result.Stdout + result.Stderr
		if !strings.Contains(output, "custom_value") {
			t.Error("InheritNone should include explicitly passed variables")
		}
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) > 10 {
			t.Errorf("InheritNone should have very few env vars, got %d lines", len(lines))
		}
	})
}

func TestLocalExecEnvSearch(t *testing.T) {
	t.Run("Grep matches across files and excludes non-matches", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("Hello World\nfoo bar\nHello Again\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("no match here\n"), 0644); err != nil {
			t.Fatal(err)
		}
		env := NewLocalExecutionEnvironment(dir)
		result, err := env.Grep("Hello", dir, GrepOptions{})
		if err != nil {
			t.Fatalf("Grep returned error: %v", err)
		}
		if !strings.Contains(result, "Hello World") || !strings.Contains(result, "Hello Again") {
			t.Errorf("result missing expected matches: %q", result)
		}
		if strings.Contains(result, "no match here") {
			t.Error("grep should not match 'no match here'")
		}
	})

	t.Run("Glob filters by extension pattern", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"a.txt", "b.txt", "c.go", "d.go"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("content"), 0644); err != nil {
				t.Fatal(err)
			}
		}
		env := NewLocalExecutionEnvironment(dir)
		matches, err := env.Glob("*.txt", dir)
		if err != nil {
			t.Fatalf("Glob returned error: %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected 2 matches for *.txt, got %d: %v", len(matches), matches)
		}
		for _, m := range matches {
			if !strings.HasSuffix(m, ".txt") {
				t.Errorf("expected .txt file, got %s", m)
			}
		}
	})
}

func TestLocalExecEnvLifecycle(t *testing.T) {
	t.Run("Initialize creates the working directory", func(t *testing.T) {
		dir := t.TempDir()
		newDir := filepath.Join(dir, "newworkdir")
		env := NewLocalExecutionEnvironment(newDir)
		if err := env.Initialize(); err != nil {
			t.Fatalf("Initialize returned error: %v", err)
		}
		info, err := os.Stat(newDir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected newDir to exist as a directory, err = %v", err)
		}
	})

	t.Run("Platform reports the host OS", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		if platform := env.Platform(); platform != runtime.GOOS {
			t.Errorf("Platform() = %q, want %q", platform, runtime.GOOS)
		}
	})

	t.Run("WorkingDirectory reflects the configured root", func(t *testing.T) {
		dir := t.TempDir()
		env := NewLocalExecutionEnvironment(dir)
		if env.WorkingDirectory() != dir {
			t.Errorf("WorkingDirectory() = %q, want %q", env.WorkingDirectory(), dir)
		}
	})
}
