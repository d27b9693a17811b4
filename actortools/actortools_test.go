package actortools_test

import (
	"strings"
	"testing"

	"github.com/2389-research/lethe/actor"
	"github.com/2389-research/lethe/actortools"
	"github.com/2389-research/lethe/tools"
)

func findTool(bound []*tools.RegisteredTool, name string) *tools.RegisteredTool {
	for _, tool := range bound {
		if tool.Definition.Name == name {
			return tool
		}
	}
	return nil
}

func TestSendMessageToUnknownActor(t *testing.T) {
	registry := actor.NewRegistry()
	alice, err := registry.Spawn(actor.DefaultConfig("alice", ""), "", false)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	bound := actortools.BindAll(alice, registry)
	sendMessage := findTool(bound, "send_message")
	if sendMessage == nil {
		t.Fatal("expected send_message tool to be bound")
	}

	out, err := sendMessage.Execute(map[string]any{"actor_id": "nope", "content": "hi"}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "not found") {
		t.Fatalf("expected 'not found' in output, got %q", out)
	}
}

func TestSendMessageDelivers(t *testing.T) {
	registry := actor.NewRegistry()
	alice, _ := registry.Spawn(actor.DefaultConfig("alice", ""), "", false)
	bob, _ := registry.Spawn(actor.DefaultConfig("bob", ""), "", false)

	bound := actortools.BindAll(alice, registry)
	sendMessage := findTool(bound, "send_message")

	out, err := sendMessage.Execute(map[string]any{"actor_id": bob.ID, "content": "hello bob"}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, bob.ID) {
		t.Fatalf("expected confirmation to reference %s, got %q", bob.ID, out)
	}

	msgs := bob.DrainInbox()
	if len(msgs) != 1 || msgs[0].Content != "hello bob" {
		t.Fatalf("expected bob to receive the message, got %v", msgs)
	}
}

func TestDiscoverActorsDefaultsToOwnGroup(t *testing.T) {
	registry := actor.NewRegistry()
	cfg := actor.DefaultConfig("alice", "")
	cfg.Group = "team"
	alice, _ := registry.Spawn(cfg, "", false)

	bound := actortools.BindAll(alice, registry)
	discover := findTool(bound, "discover_actors")

	out, err := discover.Execute(map[string]any{}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "(you)") {
		t.Fatalf("expected self to be marked '(you)', got %q", out)
	}
}

func TestTerminateTool(t *testing.T) {
	registry := actor.NewRegistry()
	alice, _ := registry.Spawn(actor.DefaultConfig("alice", ""), "", false)

	bound := actortools.BindAll(alice, registry)
	terminate := findTool(bound, "terminate")

	if _, err := terminate.Execute(map[string]any{"result": "all done"}, nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if alice.State() != actor.Terminated {
		t.Fatalf("expected actor to be terminated, got %s", alice.State())
	}
	if alice.Result() != "all done" {
		t.Fatalf("expected result 'all done', got %q", alice.Result())
	}
}

func TestSpawnSubagentOnlyForPrincipalOrPermitted(t *testing.T) {
	registry := actor.NewRegistry()
	subagent, _ := registry.Spawn(actor.DefaultConfig("helper", ""), "", false)

	bound := actortools.BindAll(subagent, registry)
	if findTool(bound, "spawn_subagent") != nil {
		t.Fatal("expected spawn_subagent to be withheld from a plain subagent")
	}

	cfg := actor.DefaultConfig("delegator", "")
	cfg.Tools = []string{"spawn"}
	delegator, _ := registry.Spawn(cfg, "", false)
	bound = actortools.BindAll(delegator, registry)
	if findTool(bound, "spawn_subagent") == nil {
		t.Fatal("expected spawn_subagent to be bound when 'spawn' is a permitted tool")
	}
}

func TestSpawnSubagentInvokesHook(t *testing.T) {
	registry := actor.NewRegistry()
	cfg := actor.DefaultConfig("delegator", "")
	cfg.Tools = []string{"spawn"}
	delegator, _ := registry.Spawn(cfg, "", false)

	var spawned *actor.Actor
	bound := actortools.BindAllWithSpawnHook(delegator, registry, func(child *actor.Actor) {
		spawned = child
	})
	spawn := findTool(bound, "spawn_subagent")
	if spawn == nil {
		t.Fatal("expected spawn_subagent to be bound")
	}

	out, err := spawn.Execute(map[string]any{"name": "helper", "goals": "do the thing"}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if spawned == nil {
		t.Fatal("expected onSpawn hook to be invoked with the new child actor")
	}
	if !strings.Contains(out, spawned.ID) {
		t.Fatalf("expected confirmation to reference %s, got %q", spawned.ID, out)
	}
}
