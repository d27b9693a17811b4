// ABOUTME: Analyzer runs the two hippocampus decisions — pre-send recall and post-response
// ABOUTME: judgment — as lightweight-model JSON-contract LLM calls, robust to chatty output.

package hippocampus

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389-research/lethe/llm"
)

const persona = `You are a memory retrieval assistant. Your job is to decide if looking up memories would benefit the current conversation.

When given a user message, think: would remembering something from past conversations or archival memory help here?

Look for:
- References to people, places, projects, or things mentioned before
- Questions that might have been answered previously
- Credentials, API keys, configurations discussed before
- Patterns, preferences, or decisions made in the past
- Anything where prior context would improve the response

Respond ONLY with valid JSON:
{"should_recall": true/false, "search_query": "query string or null", "reason": "brief reason or null"}

Rules:
- should_recall: true if memory lookup would genuinely help
- search_query: concise query (2-5 words) to search memories
- reason: brief explanation of what you're looking for

Examples:
- "Deploy the app to the server" -> {"should_recall": true, "search_query": "server deployment credentials", "reason": "may need server details from before"}
- "What did we decide about the API design?" -> {"should_recall": true, "search_query": "API design decisions", "reason": "explicit reference to past decision"}
- "Hello!" -> {"should_recall": false, "search_query": null, "reason": null}
- "Fix the bug in auth.py" -> {"should_recall": true, "search_query": "auth.py bugs issues", "reason": "may have discussed this file before"}
- "What's 2+2?" -> {"should_recall": false, "search_query": null, "reason": null}

Be pragmatic - recall when it would actually help, skip for simple or self-contained requests.`

// Analyzer drives the hippocampus decisions against a lightweight model.
type Analyzer struct {
	Client  *llm.Client
	Model   string
	Enabled bool
}

// New returns an Analyzer. Enabled defaults to true; callers that want the
// analyzer disabled should set Enabled = false directly.
func New(client *llm.Client, model string) *Analyzer {
	return &Analyzer{Client: client, Model: model, Enabled: true}
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.Client.Complete(ctx, llm.Request{
		Model: a.Model,
		Messages: []llm.Message{
			llm.SystemMessage(persona),
			llm.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	return resp.TextContent(), nil
}

// AnalyzeForRecall decides whether a memory lookup would benefit the
// current turn. Returns nil if disabled, or on any failure — callers
// should treat nil as "proceed unaugmented."
func (a *Analyzer) AnalyzeForRecall(ctx context.Context, newMessage string, recent []Turn) *RecallDecision {
	if !a.Enabled {
		return nil
	}

	recentContext := formatRecentContext(recent)
	prompt := fmt.Sprintf(`RECENT CONTEXT:
%s

NEW USER MESSAGE:
%s

Would looking up memories (past conversations, archival notes, credentials, previous decisions) benefit the response to this message?

Think about:
- Does this reference something from before?
- Would past context improve the answer?
- Are there credentials/configs/patterns we discussed?

JSON only:`, recentContext, newMessage)

	text, err := a.complete(ctx, prompt)
	if err != nil || text == "" {
		return nil
	}

	obj, ok := parseJSONObject(text)
	if !ok {
		return nil
	}

	return &RecallDecision{
		ShouldRecall: asBool(obj, "should_recall", false),
		SearchQuery:  asString(obj, "search_query", ""),
		Reason:       asString(obj, "reason", ""),
	}
}

func formatRecentContext(recent []Turn) string {
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	if len(recent) == 0 {
		return "(new conversation)"
	}
	lines := make([]string, 0, len(recent))
	for _, t := range recent {
		content := t.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, content))
	}
	return strings.Join(lines, "\n")
}

// CompressMemories summarizes long memory search results using the same
// persona, preserving facts/names/dates without adding new information.
// Returns the original text unchanged on any failure.
func (a *Analyzer) CompressMemories(ctx context.Context, memories, query string) string {
	prompt := fmt.Sprintf(`The following memories were retrieved for the query "%s".
They are too long to include in full. Summarize the key relevant information concisely.
Preserve important facts, names, dates, and context. Do not add information that isn't present.

MEMORIES:
%s

SUMMARY (be concise but preserve key details):`, query, memories)

	text, err := a.complete(ctx, prompt)
	if err != nil || text == "" {
		return memories
	}
	return fmt.Sprintf("[Compressed summary] %s", text)
}

// compressionThreshold is the combined memory-result length above which
// CompressMemories is invoked before augmenting a message.
const compressionThreshold = 3000

// AugmentMessage appends recalled memories after the user message, framed
// exactly as the downstream prompt-matching contract expects. If memories
// exceeds the compression threshold, it is compressed first.
func (a *Analyzer) AugmentMessage(ctx context.Context, newMessage, reason, query, memories string) string {
	if memories == "" {
		return newMessage
	}
	if len(memories) > compressionThreshold {
		memories = a.CompressMemories(ctx, memories, query)
	}
	if reason == "" {
		reason = "potentially relevant context"
	}
	return fmt.Sprintf("%s\n\n---\n[Memory recall: %s]\n%s\n[End of recall]", newMessage, reason, memories)
}

// JudgeResponse decides whether an agent's response should reach the user
// and whether the agent should keep working. The no-response and binding
// override rules are applied regardless of what the model returns.
func (a *Analyzer) JudgeResponse(ctx context.Context, originalRequest, agentResponse string, iteration int, isContinuation, duringToolExecution bool) ResponseJudgment {
	if !a.Enabled {
		return defaultJudgment
	}

	if agentResponse == "" {
		if iteration <= 2 {
			return ResponseJudgment{SendToUser: false, ContinueTask: true, Reason: "no response early iteration"}
		}
		return ResponseJudgment{SendToUser: false, ContinueTask: false, Reason: "no response late iteration"}
	}

	prompt := fmt.Sprintf(`USER REQUEST:
%s

AGENT'S LATEST RESPONSE:
%s

ITERATION: %d
IS_CONTINUATION_RESPONSE: %t

Judge this response:

1. SEND_TO_USER: Should this response be shown to the user?
   - YES if: agent is talking TO the user (direct address, "you", "your", answers, confirmations)
   - NO if: agent is talking ABOUT the user in third person (using their name instead of "you") - this is internal reflection
   - NO if: meta-commentary about the task itself, thinking out loud

2. CONTINUE_TASK: Should the agent continue working?
   - YES if: agent expressed clear intent to do more AND task is obviously incomplete
   - NO if: action completed, natural stopping point, or nothing more to do
   - NO if: send_to_user is false (if we're not sending the response, there's no point continuing)

IMPORTANT: If the response shouldn't be sent to user, almost always set continue_task=false too.
The only exception is during active tool execution where agent is working but hasn't reported yet.

Respond with JSON only:
{"send_to_user": true/false, "continue_task": true/false, "reason": "brief explanation"}`, originalRequest, agentResponse, iteration, isContinuation)

	text, err := a.complete(ctx, prompt)
	if err != nil || text == "" {
		return defaultJudgment
	}

	obj, ok := parseJSONObject(text)
	if !ok {
		return defaultJudgment
	}

	judgment := ResponseJudgment{
		SendToUser:   asBool(obj, "send_to_user", true),
		ContinueTask: asBool(obj, "continue_task", false),
		Reason:       asString(obj, "reason", ""),
	}

	if !judgment.SendToUser && !duringToolExecution {
		judgment.ContinueTask = false
	}

	return judgment
}
