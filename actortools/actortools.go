// ABOUTME: Tool constructors bound to a specific actor and registry, modeled on the subagent tool
// ABOUTME: constructors that closed over a SubAgentManager/profile/client and returned *tools.RegisteredTool.

package actortools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2389-research/lethe/actor"
	"github.com/2389-research/lethe/llm"
	"github.com/2389-research/lethe/tools"
)

// defaultWaitTimeout is used when wait_for_response omits timeout_seconds.
const defaultWaitTimeout = 60 * time.Second

// BindAll returns every tool bound to this actor: send_message,
// wait_for_response, discover_actors, and terminate, plus spawn_subagent
// when the actor is the principal or has been granted "spawn".
func BindAll(a *actor.Actor, registry *actor.Registry) []*tools.RegisteredTool {
	return bindAll(a, registry, nil)
}

// BindAllWithSpawnHook is BindAll, but onSpawn (when non-nil) is invoked with
// every child actor spawn_subagent successfully creates, so a caller can
// drive the child's own run loop instead of leaving it parked in the registry.
func BindAllWithSpawnHook(a *actor.Actor, registry *actor.Registry, onSpawn func(child *actor.Actor)) []*tools.RegisteredTool {
	return bindAll(a, registry, onSpawn)
}

func bindAll(a *actor.Actor, registry *actor.Registry, onSpawn func(child *actor.Actor)) []*tools.RegisteredTool {
	bound := []*tools.RegisteredTool{
		newSendMessageTool(a, registry),
		newWaitForResponseTool(a, registry),
		newDiscoverActorsTool(a, registry),
		newTerminateTool(a),
	}
	if a.Principal || containsSpawn(a.Config.Tools) {
		bound = append(bound, newSpawnSubagentTool(a, registry, onSpawn))
	}
	return bound
}

func containsSpawn(permitted []string) bool {
	for _, name := range permitted {
		if name == "spawn" {
			return true
		}
	}
	return false
}

func newSendMessageTool(a *actor.Actor, registry *actor.Registry) *tools.RegisteredTool {
	return &tools.RegisteredTool{
		Definition: llmToolDefinition(
			"send_message",
			"Send a message to another actor. Use discover_actors() to find available actors.",
			`{
				"type": "object",
				"properties": {
					"actor_id": {"type": "string", "description": "ID of the actor to send to"},
					"content": {"type": "string", "description": "Message content"},
					"reply_to": {"type": "string", "description": "Optional message ID this replies to"}
				},
				"required": ["actor_id", "content"]
			}`,
		),
		Execute: func(args map[string]any, _ tools.ExecutionEnvironment) (string, error) {
			actorID, _ := args["actor_id"].(string)
			content, _ := args["content"].(string)
			replyTo, _ := args["reply_to"].(string)

			target := registry.Get(actorID)
			if target == nil {
				return fmt.Sprintf("Error: actor %s not found. Use discover_actors() to find available actors.", actorID), nil
			}
			if target.State() == actor.Terminated {
				return fmt.Sprintf("Error: actor %s (%s) is terminated.", actorID, target.Config.Name), nil
			}

			msg, err := a.SendTo(actorID, content, replyTo)
			if err != nil {
				return fmt.Sprintf("Error: %s", err), nil
			}
			return fmt.Sprintf("Message sent (id=%s) to %s (%s)", msg.ID, target.Config.Name, actorID), nil
		},
	}
}

func newWaitForResponseTool(a *actor.Actor, registry *actor.Registry) *tools.RegisteredTool {
	return &tools.RegisteredTool{
		Definition: llmToolDefinition(
			"wait_for_response",
			"Block until a message arrives from another actor, or until the timeout elapses. Use after sending a message when you need the reply before continuing.",
			`{
				"type": "object",
				"properties": {
					"timeout_seconds": {"type": "integer", "description": "Seconds to wait (default 60)"}
				}
			}`,
		),
		Execute: func(args map[string]any, _ tools.ExecutionEnvironment) (string, error) {
			timeout := defaultWaitTimeout
			if v, ok := args["timeout_seconds"]; ok {
				if secs, err := coerceInt(v); err == nil && secs > 0 {
					timeout = time.Duration(secs) * time.Second
				}
			}

			msg, ok := a.WaitForReply(timeout)
			if !ok {
				return "Timed out waiting for response.", nil
			}
			senderName := msg.Sender
			if sender := registry.Get(msg.Sender); sender != nil {
				senderName = sender.Config.Name
			}
			return fmt.Sprintf("[From %s] %s", senderName, msg.Content), nil
		},
	}
}

func newDiscoverActorsTool(a *actor.Actor, registry *actor.Registry) *tools.RegisteredTool {
	return &tools.RegisteredTool{
		Definition: llmToolDefinition(
			"discover_actors",
			"Discover other actors in a group. Empty group means your own group.",
			`{
				"type": "object",
				"properties": {
					"group": {"type": "string", "description": "Group name to search. Empty = same group as you."}
				}
			}`,
		),
		Execute: func(args map[string]any, _ tools.ExecutionEnvironment) (string, error) {
			group, _ := args["group"].(string)
			if group == "" {
				group = a.Config.Group
			}

			actors := registry.Discover(group)
			if len(actors) == 0 {
				return fmt.Sprintf("No active actors in group '%s'.", group), nil
			}

			lines := []string{fmt.Sprintf("Actors in group '%s':", group)}
			for _, info := range actors {
				marker := ""
				if info.ID == a.ID {
					marker = " (you)"
				}
				lines = append(lines, fmt.Sprintf("  %s (id=%s, state=%s)%s: %s", info.Name, info.ID, info.State.Label(), marker, info.Goals))
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

func newTerminateTool(a *actor.Actor) *tools.RegisteredTool {
	return &tools.RegisteredTool{
		Definition: llmToolDefinition(
			"terminate",
			"Terminate this actor and report results. Call when your task is complete. You can only terminate yourself, never another actor.",
			`{
				"type": "object",
				"properties": {
					"result": {"type": "string", "description": "Summary of what was accomplished"}
				}
			}`,
		),
		Execute: func(args map[string]any, _ tools.ExecutionEnvironment) (string, error) {
			result, _ := args["result"].(string)
			a.Terminate(result)
			return "Terminated. Result sent to parent.", nil
		},
	}
}

func newSpawnSubagentTool(a *actor.Actor, registry *actor.Registry, onSpawn func(child *actor.Actor)) *tools.RegisteredTool {
	return &tools.RegisteredTool{
		Definition: llmToolDefinition(
			"spawn_subagent",
			"Spawn a new subagent actor to handle a subtask. It works autonomously and reports back via a termination message when done.",
			`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Short name for the actor (e.g. researcher, coder)"},
					"goals": {"type": "string", "description": "What this actor should accomplish (be specific)"},
					"group": {"type": "string", "description": "Actor group for discovery (default: same as yours)"},
					"tools": {"type": "string", "description": "Comma-separated tool names available to this actor"},
					"model": {"type": "string", "description": "LLM model override (empty = default)"},
					"max_turns": {"type": "integer", "description": "Max LLM turns before forced termination (default 20)"}
				},
				"required": ["name", "goals"]
			}`,
		),
		Execute: func(args map[string]any, _ tools.ExecutionEnvironment) (string, error) {
			name, _ := args["name"].(string)
			goals, _ := args["goals"].(string)
			group, _ := args["group"].(string)
			model, _ := args["model"].(string)
			toolList, _ := args["tools"].(string)

			maxTurns := 20
			if v, ok := args["max_turns"]; ok {
				if n, err := coerceInt(v); err == nil && n > 0 {
					maxTurns = n
				}
			}

			cfg := actor.Config{
				Name:        name,
				Group:       group,
				Goals:       goals,
				Model:       model,
				Tools:       splitCSV(toolList),
				MaxTurns:    maxTurns,
				MaxMessages: 50,
			}
			if cfg.Group == "" {
				cfg.Group = a.Config.Group
			}

			child, err := registry.Spawn(cfg, a.ID, false)
			if err != nil {
				return "", err
			}
			if onSpawn != nil {
				onSpawn(child)
			}

			return fmt.Sprintf("Spawned actor '%s' (id=%s, group=%s).\nGoals: %s\nIt will send you a message when done.",
				name, child.ID, cfg.Group, goals), nil
		},
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func coerceInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	default:
		return 0, fmt.Errorf("unsupported numeric arg type %T", v)
	}
}

func llmToolDefinition(name, description, paramsJSON string) llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  json.RawMessage(paramsJSON),
	}
}
