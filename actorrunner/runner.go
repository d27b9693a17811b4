// ABOUTME: Runner drives one non-principal actor's LLM loop, modeled on the coding agent's
// ABOUTME: ProcessInput round loop but bound to an actor's inbox and turn budget instead of a session.

package actorrunner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389-research/lethe/actor"
	"github.com/2389-research/lethe/actortools"
	"github.com/2389-research/lethe/llm"
	"github.com/2389-research/lethe/tools"
)

// idleWaitTimeout is the pacing heuristic between turns when the model
// returned more than a bare acknowledgment: wait briefly for a new inbox
// message before starting the next turn. An implementer may remove this
// without violating any runner contract.
const idleWaitTimeout = 2 * time.Second

// ClientFactory creates an LLM client scoped to a single actor. Factories
// may honor actor.Config.Model to pick a provider/model override.
type ClientFactory func(a *actor.Actor) (*llm.Client, error)

// Runner drives a single actor's LLM loop to completion.
type Runner struct {
	Registry       *actor.Registry
	ClientFactory  ClientFactory
	AvailableTools *tools.ToolRegistry
	ExecEnv        tools.ExecutionEnvironment
	Logger         *slog.Logger
}

// New constructs a Runner. logger may be nil, in which case slog.Default is used.
func New(registry *actor.Registry, factory ClientFactory, available *tools.ToolRegistry, env tools.ExecutionEnvironment, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Registry: registry, ClientFactory: factory, AvailableTools: available, ExecEnv: env, Logger: logger}
}

// Run drives the actor's LLM loop until completion or config.MaxTurns is
// exceeded. It never surfaces an error to the caller — every failure path
// terminates the actor and records the reason in its result.
func (r *Runner) Run(ctx context.Context, a *actor.Actor) string {
	client, err := r.ClientFactory(a)
	if err != nil {
		a.Terminate(fmt.Sprintf("Error: %s", err))
		return a.Result()
	}

	registry := tools.NewToolRegistry()
	onSpawn := func(child *actor.Actor) {
		go r.Run(ctx, child)
	}
	for _, bound := range actortools.BindAllWithSpawnHook(a, r.Registry, onSpawn) {
		_ = registry.Register(bound)
	}
	for _, name := range a.Config.Tools {
		if name == "spawn" {
			continue // already reflected in BindAll's conditional spawn_subagent
		}
		if t := r.AvailableTools.Get(name); t != nil {
			_ = registry.Register(t)
		} else {
			r.Logger.Warn("actor requested unavailable tool", "actor", a.ID, "tool", name)
		}
	}

	systemPrompt := a.BuildSystemPrompt()

	initialMessage := fmt.Sprintf(
		"You are actor '%s'. Your goals:\n\n%s\n\nBegin working on your task. Use tools as needed. When done, call terminate(result) with a summary.",
		a.Config.Name, a.Config.Goals,
	)

	var toolSignatures []string
	var lastResponseText string
	var carried []actor.Message

	r.Logger.Info("actor starting", "actor", a.ID, "name", a.Config.Name)

	for turn := 0; turn < a.Config.MaxTurns; turn++ {
		a.SetTurns(turn + 1)

		if a.State() == actor.Terminated {
			break
		}

		incoming := append(carried, a.DrainInbox()...)
		carried = nil

		var turnInput string
		switch {
		case turn == 0:
			turnInput = initialMessage
		case len(incoming) > 0:
			parts := make([]string, 0, len(incoming))
			for _, msg := range incoming {
				sender := msg.Sender
				if s := r.Registry.Get(msg.Sender); s != nil {
					sender = s.Config.Name
				}
				parts = append(parts, fmt.Sprintf("[Message from %s]: %s", sender, msg.Content))
			}
			turnInput = strings.Join(parts, "\n")
		default:
			turnInput = "[System: Continue working on your goals. Call terminate(result) when done.]"
		}

		response, err := r.runTurn(ctx, client, systemPrompt, a, turnInput, registry, &toolSignatures)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			a.Terminate(fmt.Sprintf("Error: %s", err))
			return a.Result()
		}
		lastResponseText = response

		if a.State() == actor.Terminated {
			break
		}

		if isAcknowledgment(response) {
			continue
		}

		if msg, ok := a.WaitForReply(idleWaitTimeout); ok {
			carried = append(carried, msg)
		}
	}

	if a.State() != actor.Terminated {
		r.Logger.Warn("actor hit max turns", "actor", a.ID, "max_turns", a.Config.MaxTurns)
		a.Terminate(fmt.Sprintf("Max turns reached. Last response: %s", truncate(lastResponseText, 200)))
	}

	return a.Result()
}

// runTurn calls the LLM once, executes any tool calls it returns, and
// returns the assistant's text content for acknowledgment detection.
func (r *Runner) runTurn(ctx context.Context, client *llm.Client, systemPrompt string, a *actor.Actor, turnInput string, registry *tools.ToolRegistry, toolSignatures *[]string) (string, error) {
	messages := make([]llm.Message, 0, 2)
	messages = append(messages, llm.SystemMessage(systemPrompt))
	messages = append(messages, llm.UserMessage(turnInput))

	request := llm.Request{
		Model:      a.Config.Model,
		Messages:   messages,
		Tools:      registry.Definitions(),
		ToolChoice: &llm.ToolChoice{Mode: llm.ToolChoiceAuto},
	}

	for {
		response, err := client.Complete(ctx, request)
		if err != nil {
			return "", err
		}

		toolCalls := response.ToolCalls()
		text := response.TextContent()

		if len(toolCalls) == 0 {
			return text, nil
		}

		appendSignatures(toolSignatures, toolCalls)
		if detectLoop(*toolSignatures, 6) {
			r.Logger.Warn("tool call loop detected", "actor", a.ID)
		}

		request.Messages = append(request.Messages, response.Message)
		for _, tc := range toolCalls {
			result := r.executeTool(a, registry, tc)
			request.Messages = append(request.Messages, llm.ToolResultMessage(result.ToolCallID, result.Content, result.IsError))
		}

		if a.State() == actor.Terminated {
			return text, nil
		}
	}
}

func (r *Runner) executeTool(a *actor.Actor, registry *tools.ToolRegistry, tc llm.ToolCallData) llm.ToolResult {
	registered := registry.Get(tc.Name)
	if registered == nil {
		return llm.ToolResult{ToolCallID: tc.ID, Content: fmt.Sprintf("Unknown tool: %s", tc.Name), IsError: true}
	}

	var args map[string]any
	if len(tc.Arguments) > 0 {
		if err := json.Unmarshal(tc.Arguments, &args); err != nil {
			return llm.ToolResult{ToolCallID: tc.ID, Content: fmt.Sprintf("Tool error (%s): failed to parse arguments: %s", tc.Name, err), IsError: true}
		}
	} else {
		args = make(map[string]any)
	}

	output, err := registered.Execute(args, r.ExecEnv)
	if err != nil {
		return llm.ToolResult{ToolCallID: tc.ID, Content: fmt.Sprintf("Tool error (%s): %s", tc.Name, err), IsError: true}
	}

	return llm.ToolResult{ToolCallID: tc.ID, Content: tools.TruncateToolOutput(output, tc.Name, nil), IsError: false}
}

func isAcknowledgment(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "ok", "done", "understood":
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
