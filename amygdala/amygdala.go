// ABOUTME: Amygdala is the heartbeat-driven emotional salience actor — it runs short, bounded
// ABOUTME: rounds over an auxiliary model and notifies cortex only when escalation is warranted.

package amygdala

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389-research/lethe/actor"
	"github.com/2389-research/lethe/actortools"
	"github.com/2389-research/lethe/llm"
	"github.com/2389-research/lethe/tools"
	"github.com/2389-research/lethe/workspace"
)

const roundGoals = "Tag emotional salience, track arousal patterns, detect flashbacks, " +
	"and notify cortex only when escalation is warranted."

var roundTools = []string{
	"read_file", "write_file", "edit_file", "list_directory", "grep",
	"conversation_search", "memory_read",
}

// ClientFactory builds an LLM client scoped to one round, given the round's
// assembled system prompt. Implementations typically route to an auxiliary,
// cheaper model with a smaller context and output budget.
type ClientFactory func(systemPrompt string) (*llm.Client, error)

// SignalsProvider returns the recent user signal lines to seed a round.
type SignalsProvider func() string

// PrincipalContextProvider returns a snapshot of what the principal actor is
// currently doing, embedded (truncated) into the round's system prompt.
type PrincipalContextProvider func() string

// Amygdala runs bounded heartbeat rounds that tag emotional salience and
// escalate to cortex only when warranted. It never talks to the user
// directly — escalation is an actor message to CortexID, which the caller
// (the cortex actor's runner) is responsible for surfacing.
type Amygdala struct {
	Registry       *actor.Registry
	AvailableTools *tools.ToolRegistry
	CortexID       string
	ClientFactory  ClientFactory

	RecentSignals     SignalsProvider
	PrincipalContext  PrincipalContextProvider

	Workspace *workspace.Workspace
	Logger    *slog.Logger

	mu             sync.Mutex
	status         Status
	roundHistory   []RoundRecord
	activePatterns []string
}

// New constructs an Amygdala. logger may be nil, in which case slog.Default is used.
func New(registry *actor.Registry, available *tools.ToolRegistry, cortexID string, factory ClientFactory, ws *workspace.Workspace, logger *slog.Logger) *Amygdala {
	if logger == nil {
		logger = slog.Default()
	}
	return &Amygdala{
		Registry:       registry,
		AvailableTools: available,
		CortexID:       cortexID,
		ClientFactory:  factory,
		Workspace:      ws,
		Logger:         logger,
		status:         Status{State: "idle"},
	}
}

// Status returns a snapshot of the amygdala's current run state.
func (am *Amygdala) Status() Status {
	am.mu.Lock()
	defer am.mu.Unlock()
	s := am.status
	s.RoundHistory = append([]RoundRecord(nil), am.roundHistory...)
	s.ActivePatterns = append([]string(nil), am.activePatterns...)
	return s
}

// extractUserNotification returns the last [USER_NOTIFY]/[AMYGDALA_ALERT]
// tagged message the round actor sent to cortex, or "" if none.
func extractUserNotification(history []actor.Message, cortexID string) string {
	var last string
	for _, m := range history {
		if m.Recipient != cortexID || m.Sender == cortexID {
			continue
		}
		text := strings.TrimSpace(m.Content)
		switch {
		case strings.HasPrefix(text, userNotifyPrefix):
			last = strings.TrimSpace(strings.TrimPrefix(text, userNotifyPrefix))
		case strings.HasPrefix(text, alertPrefix):
			last = text
		}
	}
	return last
}

// RunRound executes one bounded heartbeat round: spawns a short-lived actor,
// drives it through up to MaxTurnsPerRound turns, and returns any user
// notification it raised to cortex along the way.
func (am *Amygdala) RunRound(ctx context.Context) (string, error) {
	startedAt := time.Now().UTC()
	timestamp := startedAt.Format("2006-01-02 15:04 UTC")

	am.mu.Lock()
	am.status.State = "running"
	am.status.LastStartedAt = startedAt.Format(time.RFC3339)
	am.status.LastError = ""
	am.mu.Unlock()

	am.compactTagLog()

	previousState := am.Workspace.ReadFile(stateFileName, "(none)")
	recentSignals := am.recentSignals()
	seedTagsJSON, seedTags := heuristicSeedTags(recentSignals)

	config := actor.Config{
		Name:     "amygdala",
		Group:    "main",
		Goals:    roundGoals,
		Tools:    roundTools,
		MaxTurns: MaxTurnsPerRound,
	}

	a, err := am.Registry.Spawn(config, am.CortexID, false)
	if err != nil {
		am.mu.Lock()
		am.status.State = "idle"
		am.status.LastError = err.Error()
		am.mu.Unlock()
		return "", fmt.Errorf("spawn amygdala actor: %w", err)
	}

	principalContext := am.principalContext()
	systemPrompt := buildSystemPrompt(am.Workspace.Dir, truncate(principalContext, 4000))

	client, err := am.ClientFactory(systemPrompt)
	if err != nil {
		a.Terminate(fmt.Sprintf("Error: %s", err))
		am.finishRound(a, startedAt, seedTags, "")
		return "", fmt.Errorf("create amygdala client: %w", err)
	}

	registry := tools.NewToolRegistry()
	for _, bound := range actortools.BindAll(a, am.Registry) {
		_ = registry.Register(bound)
	}
	for _, name := range roundTools {
		if t := am.AvailableTools.Get(name); t != nil {
			_ = registry.Register(t)
		}
	}

	am.Registry.CleanupTerminated()
	am.Logger.Info("amygdala round starting", "tools", registry.Count())

	message := buildRoundMessage(timestamp, recentSignals, seedTagsJSON, previousState)

	var userMessage string
	for turn := 0; turn < config.MaxTurns; turn++ {
		a.SetTurns(turn + 1)
		if a.State() == actor.Terminated {
			break
		}

		incoming := a.DrainInbox()

		var turnInput string
		switch {
		case turn == 0:
			turnInput = message
		case len(incoming) > 0:
			parts := make([]string, 0, len(incoming))
			for _, m := range incoming {
				parts = append(parts, fmt.Sprintf("[From %s]: %s", m.Sender, m.Content))
			}
			turnInput = strings.Join(parts, "\n")
		default:
			turnInput = "[Continue. If complete, call terminate(result).]"
		}

		if _, err := am.runTurn(ctx, client, systemPrompt, a, turnInput, registry); err != nil {
			am.Logger.Error("amygdala LLM error", "error", err)
			am.mu.Lock()
			am.status.LastError = err.Error()
			am.mu.Unlock()
			break
		}

		if notify := extractUserNotification(a.History(), am.CortexID); notify != "" {
			userMessage = notify
		}

		if a.State() == actor.Terminated {
			break
		}
	}

	if a.State() != actor.Terminated {
		a.Terminate(fmt.Sprintf("Amygdala round complete (turn %d)", a.Turns()))
	}

	am.finishRound(a, startedAt, seedTags, userMessage)
	am.compactTagLog()

	return userMessage, nil
}

func (am *Amygdala) finishRound(a *actor.Actor, startedAt time.Time, seedTags []SeedTag, userMessage string) {
	completedAt := time.Now().UTC()
	duration := completedAt.Sub(startedAt).Seconds()
	result := a.Result()
	if result == "" {
		result = "No result"
	}

	am.mu.Lock()
	am.status.RoundsTotal++
	am.status.LastCompletedAt = completedAt.Format(time.RFC3339)
	am.status.LastTurns = a.Turns()
	am.status.LastResult = truncate(result, 240)
	if userMessage != "" {
		am.status.LastAlert = truncate(userMessage, 240)
	}
	am.status.State = "idle"
	lastErr := am.status.LastError
	am.roundHistory = pushRoundHistory(am.roundHistory, RoundRecord{
		StartedAt:       startedAt.Format(time.RFC3339),
		CompletedAt:     completedAt.Format(time.RFC3339),
		Turns:           a.Turns(),
		DurationSeconds: roundTo2(duration),
		Alert:           userMessage != "",
		Error:           lastErr,
		Result:          truncate(result, 240),
	})
	am.mu.Unlock()

	am.updateActivePatterns(seedTags)
}

func (am *Amygdala) updateActivePatterns(seedTags []SeedTag) {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, tag := range seedTags {
		if !tag.HighArousal || len(tag.Tags) == 0 {
			continue
		}
		am.activePatterns = pushActivePattern(am.activePatterns, tag.Tags[0])
	}
}

func (am *Amygdala) recentSignals() string {
	if am.RecentSignals == nil {
		return "(no signal provider)"
	}
	text := strings.TrimSpace(am.RecentSignals())
	if text == "" {
		return "(no recent user signals)"
	}
	return text
}

func (am *Amygdala) principalContext() string {
	if am.PrincipalContext == nil {
		return ""
	}
	return am.PrincipalContext()
}

func (am *Amygdala) compactTagLog() {
	result, err := am.Workspace.CompactLog(tagsFileName, TagLogMaxChars, TagLogKeepLines)
	if err != nil {
		am.Logger.Warn("amygdala: failed to compact tag log", "error", err)
		return
	}
	if result.Compacted {
		am.mu.Lock()
		am.status.TagsPrunedTotal += result.PrunedLines
		am.mu.Unlock()
	}
}

// runTurn calls the LLM and executes any tool calls it returns, looping
// until the model returns pure text; after 4 LLM calls that all requested
// tools (and left the actor running) it returns an error. It mirrors the actor runner's
// turn loop but is kept separate: rounds are short, bespoke, and bounded by
// MaxTurnsPerRound rather than the generic runner's pacing/ack heuristics.
func (am *Amygdala) runTurn(ctx context.Context, client *llm.Client, systemPrompt string, a *actor.Actor, turnInput string, registry *tools.ToolRegistry) (string, error) {
	messages := []llm.Message{llm.SystemMessage(systemPrompt), llm.UserMessage(turnInput)}
	request := llm.Request{
		Model:      a.Config.Model,
		Messages:   messages,
		Tools:      registry.Definitions(),
		ToolChoice: &llm.ToolChoice{Mode: llm.ToolChoiceAuto},
	}

	for iterations := 0; iterations < 4; iterations++ {
		response, err := client.Complete(ctx, request)
		if err != nil {
			return "", err
		}

		toolCalls := response.ToolCalls()
		text := response.TextContent()
		if len(toolCalls) == 0 {
			return text, nil
		}

		request.Messages = append(request.Messages, response.Message)
		for _, tc := range toolCalls {
			result := am.executeTool(a, registry, tc)
			request.Messages = append(request.Messages, llm.ToolResultMessage(result.ToolCallID, result.Content, result.IsError))
		}

		if a.State() == actor.Terminated {
			return text, nil
		}
	}
	return "", fmt.Errorf("amygdala turn exceeded tool-call iteration budget")
}

func (am *Amygdala) executeTool(a *actor.Actor, registry *tools.ToolRegistry, tc llm.ToolCallData) llm.ToolResult {
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

	output, err := registered.Execute(args, nil)
	if err != nil {
		return llm.ToolResult{ToolCallID: tc.ID, Content: fmt.Sprintf("Tool error (%s): %s", tc.Name, err), IsError: true}
	}
	return llm.ToolResult{ToolCallID: tc.ID, Content: tools.TruncateToolOutput(output, tc.Name, nil), IsError: false}
}

// GetContextView renders a compact human-readable view of the amygdala's
// current state, suitable for embedding into cortex's own context window.
func (am *Amygdala) GetContextView(maxChars int) string {
	if maxChars <= 0 {
		maxChars = 5000
	}
	stateText := am.Workspace.ReadFile(stateFileName, "(amygdala_state.md not found)")
	tagsText := am.Workspace.ReadFile(tagsFileName, "(emotional_tags.md not found)")

	s := am.Status()
	activePatterns := "(none)"
	if len(s.ActivePatterns) > 0 {
		activePatterns = strings.Join(s.ActivePatterns, ", ")
	}

	lines := []string{
		"# Amygdala Context",
		"",
		fmt.Sprintf("- state: %s", orDash(s.State, "idle")),
		fmt.Sprintf("- rounds_total: %d", s.RoundsTotal),
		fmt.Sprintf("- last_turns: %d", s.LastTurns),
		fmt.Sprintf("- last_started_at: %s", orDash(s.LastStartedAt, "-")),
		fmt.Sprintf("- last_completed_at: %s", orDash(s.LastCompletedAt, "-")),
		fmt.Sprintf("- last_error: %s", orDash(s.LastError, "-")),
		fmt.Sprintf("- tags_pruned_total: %d", s.TagsPrunedTotal),
		"",
		"## Active patterns",
		activePatterns,
		"",
		"## amygdala_state.md",
		truncate(stateText, maxChars/2),
		"",
		"## emotional_tags.md",
		truncate(tagsText, maxChars/2),
	}
	return strings.Join(lines, "\n")
}

func orDash(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
