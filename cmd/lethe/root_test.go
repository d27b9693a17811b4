// ABOUTME: Tests for the cobra root command wiring.
package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCommand()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "setup", "version"} {
		if !names[want] {
			t.Errorf("expected root command to register %q subcommand", want)
		}
	}
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "lethe") {
		t.Errorf("expected version output to mention lethe, got %q", buf.String())
	}
}
