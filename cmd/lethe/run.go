// ABOUTME: "run" subcommand — wires the actor registry, conversation manager, actor runner,
// ABOUTME: and amygdala heartbeat together behind a stdin/stdout chat transport.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389-research/lethe/actor"
	"github.com/2389-research/lethe/actorrunner"
	"github.com/2389-research/lethe/amygdala"
	"github.com/2389-research/lethe/conversation"
	"github.com/2389-research/lethe/hippocampus"
	"github.com/2389-research/lethe/llm"
	"github.com/2389-research/lethe/tools"
	"github.com/2389-research/lethe/workspace"
)

// defaultHeartbeatInterval is how often the amygdala heartbeat runs a
// salience round; rounds tick on this interval whether or not the principal
// actor is busy.
const defaultHeartbeatInterval = 15 * time.Minute

func newRunCommand() *cobra.Command {
	var workspaceDir string
	var heartbeat time.Duration
	var model string
	var goals string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the principal actor and chat on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveWorkspaceDir(workspaceDir)
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), runOptions{
				workspaceDir:      dir,
				heartbeatInterval: heartbeat,
				model:             model,
				goals:             goals,
				in:                os.Stdin,
				out:               cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Workspace directory (default: $WORKSPACE_DIR or XDG data dir)")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", defaultHeartbeatInterval, "Interval between amygdala salience rounds")
	cmd.Flags().StringVar(&model, "model", "", "LLM model override for the principal actor")
	cmd.Flags().StringVar(&goals, "goals", "Be a helpful, attentive personal assistant to the user.", "Goals directive for the principal actor")
	return cmd
}

type runOptions struct {
	workspaceDir      string
	heartbeatInterval time.Duration
	model             string
	goals             string
	in                io.Reader
	out               io.Writer
}

// signalRing tracks the user's most recent messages so the amygdala
// heartbeat's heuristic scoring has something to look at between turns.
type signalRing struct {
	mu    sync.Mutex
	lines []string
}

func (s *signalRing) add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	if len(s.lines) > 50 {
		s.lines = s.lines[len(s.lines)-50:]
	}
}

func (s *signalRing) snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return ""
	}
	return strings.Join(s.lines, "\n")
}

func runChat(ctx context.Context, opts runOptions) error {
	logger := slog.Default()

	ws := workspace.New(opts.workspaceDir)
	if err := ws.EnsureDir(); err != nil {
		return fmt.Errorf("prepare workspace: %w", err)
	}

	client, err := llm.FromEnv()
	if err != nil {
		return fmt.Errorf("configure LLM provider: %w (run `lethe setup` to configure API keys)", err)
	}

	model := opts.model

	registry := actor.NewRegistry()
	principal, err := registry.Spawn(actor.Config{
		Name:        "cortex",
		Group:       "principal",
		Goals:       opts.goals,
		Model:       model,
		Tools:       []string{"read_file", "write_file", "edit_file", "list_directory", "grep", "shell", "spawn"},
		MaxTurns:    40,
		MaxMessages: 80,
	}, "", true)
	if err != nil {
		return fmt.Errorf("spawn principal actor: %w", err)
	}

	available := tools.NewToolRegistry()
	tools.RegisterCoreTools(available)
	execEnv := tools.NewLocalExecutionEnvironment(ws.Dir)

	runner := actorrunner.New(registry, func(a *actor.Actor) (*llm.Client, error) {
		return client, nil
	}, available, execEnv, logger)

	analyzer := hippocampus.New(client, model)

	signals := &signalRing{}
	heart := amygdala.New(registry, available, principal.ID, func(systemPrompt string) (*llm.Client, error) {
		return client, nil
	}, ws, logger)
	heart.RecentSignals = signals.snapshot
	heart.PrincipalContext = func() string { return principal.Result() }

	convo := conversation.New(logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(opts.out, "\nshutting down...")
		cancel()
	}()

	interval := opts.heartbeatInterval
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	go runHeartbeat(ctx, heart, interval, logger, opts.out)

	fmt.Fprintln(opts.out, dimStyle.Render("lethe is listening. Type a message and press enter; Ctrl-D to quit."))

	scanner := bufio.NewScanner(opts.in)
	var turn int
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		signals.add(line)
		turn++
		iteration := turn

		message := line
		if decision := analyzer.AnalyzeForRecall(ctx, line, nil); decision != nil && decision.ShouldRecall {
			logger.Info("hippocampus recall requested", "query", decision.SearchQuery, "reason", decision.Reason)
		}

		convo.Submit(ctx, 1, 1, message, nil, func(ctx context.Context, chatID, userID int64, combined string, metadata map[string]any, interruptCheck func() bool) error {
			msg := actor.NewMessage("user", principal.ID, combined, "")
			principal.Send(msg)

			result := runner.Run(ctx, principal)

			judgment := analyzer.JudgeResponse(ctx, combined, result, iteration, false, false)
			if judgment.SendToUser {
				fmt.Fprintf(opts.out, "%s %s\n", promptStyle.Render("lethe>"), result)
			}
			return nil
		})
	}

	cancel()
	return nil
}

// runHeartbeat ticks the amygdala salience round on a fixed interval until
// ctx is cancelled, surfacing any user-facing alert the round raised.
func runHeartbeat(ctx context.Context, heart *amygdala.Amygdala, interval time.Duration, logger *slog.Logger, out io.Writer) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			notification, err := heart.RunRound(ctx)
			if err != nil {
				logger.Warn("amygdala round failed", "error", err)
				continue
			}
			if notification != "" {
				fmt.Fprintf(out, "%s %s\n", alertStyle.Render("[amygdala]"), notification)
			}
		}
	}
}
