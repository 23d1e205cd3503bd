package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/orchestrator"
	"nathanbeddoewebdev/provctl/internal/tui"
	"nathanbeddoewebdev/provctl/internal/tui/styles"

	"github.com/spf13/cobra"
)

// pollReportEvery throttles convergence progress lines.
const pollReportEvery = 15

// session is one provisioning run: the orchestrator plus the progress
// reporter feeding it.
type session struct {
	cmd      *cobra.Command
	logger   *slog.Logger
	orch     *orchestrator.Orchestrator
	progress *reporter
	output   string
}

func newSession(cmd *cobra.Command) (*session, error) {
	output, err := cmdutil.Output(cmd)
	if err != nil {
		return nil, err
	}

	logger := cmdutil.Logger(cmd)
	pc, cfg, err := cmdutil.Platform(cmd, logger)
	if err != nil {
		return nil, err
	}

	rep := &reporter{w: cmd.ErrOrStderr(), live: !tui.IsTerminal(os.Stderr)}
	return &session{
		cmd:      cmd,
		logger:   logger,
		orch:     orchestrator.New(pc, cmdutil.OrchestratorOptions(cfg, logger, rep.handle)),
		progress: rep,
		output:   output,
	}, nil
}

// run executes action. On a terminal it runs under a spinner and the
// collected progress is printed afterwards; otherwise progress streams
// to stderr as it happens.
func (s *session) run(title string, action func(ctx context.Context) error) error {
	ctx := cmdutil.Context(s.cmd)
	if s.progress.live {
		return action(ctx)
	}

	err := tui.Spin(s.cmd.ErrOrStderr(), title, action)
	s.progress.flush()
	return err
}

// reporter renders orchestrator events.
type reporter struct {
	mu      sync.Mutex
	w       io.Writer
	live    bool
	pending []string
}

func (r *reporter) handle(e orchestrator.Event) {
	line, ok := formatEvent(e)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live {
		fmt.Fprintln(r.w, line)
		return
	}
	r.pending = append(r.pending, line)
}

func (r *reporter) flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range r.pending {
		fmt.Fprintln(r.w, line)
	}
	r.pending = nil
}

// formatEvent renders e as one line. Poll events are reported on the
// first attempt and every pollReportEvery attempts after that.
func formatEvent(e orchestrator.Event) (string, bool) {
	stage := styles.MutedText.Render("[" + e.Stage + "]")

	if e.Poll != nil {
		if e.Poll.Attempt != 1 && e.Poll.Attempt%pollReportEvery != 0 {
			return "", false
		}
		statuses := make([]string, 0, len(e.Poll.Handles))
		for _, h := range e.Poll.Handles {
			statuses = append(statuses, h.Name+" "+styles.StatusStyle(h.Status).Render(h.Status))
		}
		return fmt.Sprintf("%s waiting (%d/%d): %s", stage, e.Poll.Attempt, e.Poll.MaxAttempts, strings.Join(statuses, ", ")), true
	}

	if e.Warning {
		return stage + " " + styles.WarningText.Render("warning: "+e.Message), true
	}
	return stage + " " + e.Message, true
}
