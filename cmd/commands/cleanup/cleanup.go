package cleanup

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/cleanup"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/tui"
	"nathanbeddoewebdev/provctl/internal/tui/styles"

	"github.com/spf13/cobra"
)

// NewCommand returns the "cleanup" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete resources in dependency order",
		Long: `Delete every resource whose name starts with --prefix, or everything
with --all, in dependency order: servers, storage containers (with their
objects), DNS zones (with their records), load balancers, certificates,
images, databases, volumes and networks.

A failed delete is reported and the sweep continues. Provider-owned base
images and shared networks are never touched.

Without --yes the resources are listed first and you are asked to
confirm, which requires a terminal.

Examples:
  provctl cleanup --prefix demo --dry-run
  provctl cleanup --prefix demo --skip dns,images
  provctl cleanup --all --yes`,
		RunE:         cmdutil.Journaled(runCleanup),
		SilenceUsage: true,
	}

	cmd.Flags().String("prefix", "", "Delete resources whose name starts with this prefix")
	cmd.Flags().Bool("all", false, "Delete every resource the providers can list")
	cmd.Flags().Bool("dry-run", false, "List what would be deleted without deleting")
	cmd.Flags().StringSlice("skip", nil, "Kinds to leave alone: "+strings.Join(cleanup.SkipNames(), ", "))
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	cmdutil.OutputFlag(cmd)
	cmd.MarkFlagsMutuallyExclusive("prefix", "all")
	cmd.MarkFlagsOneRequired("prefix", "all")

	return cmd
}

func runCleanup(cmd *cobra.Command, args []string) (string, error) {
	prefix, _ := cmd.Flags().GetString("prefix")
	all, _ := cmd.Flags().GetBool("all")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	skip, _ := cmd.Flags().GetStringSlice("skip")
	yes, _ := cmd.Flags().GetBool("yes")

	if !all && strings.TrimSpace(prefix) == "" {
		return "", errors.New("--prefix must not be empty; use --all to delete everything")
	}
	kinds, err := cleanup.KindsWithout(skip)
	if err != nil {
		return "", err
	}
	output, err := cmdutil.Output(cmd)
	if err != nil {
		return "", err
	}

	logger := cmdutil.Logger(cmd)
	pc, _, err := cmdutil.Platform(cmd, logger)
	if err != nil {
		return "", err
	}
	ctx := cmdutil.Context(cmd)

	opts := cleanup.Options{Logger: logger}
	if ps, ok := cmdutil.Polling[domain.KindVolume]; ok {
		opts.VolumeInterval, opts.VolumeAttempts = ps.Interval, ps.MaxAttempts
	}
	plan := cleanup.Plan{Prefix: prefix, Kinds: kinds, DryRun: dryRun}

	if !dryRun && !yes {
		preview := cleanup.New(pc, opts).Clean(ctx, cleanup.Plan{Prefix: prefix, Kinds: kinds, DryRun: true})
		proceed, err := confirm(cmd, preview)
		if err != nil || !proceed {
			return "", err
		}
	}

	if output == "table" {
		opts.OnOutcome = func(o cleanup.Outcome) {
			fmt.Fprintln(cmd.OutOrStdout(), formatOutcome(o))
		}
	}
	outcomes := cleanup.New(pc, opts).Clean(ctx, plan)
	counts := cleanup.Summarize(outcomes)
	resources := journalSummary(counts)

	if output == "json" {
		if err := cmdutil.PrintJSON(cmd, outcomeViews(outcomes)); err != nil {
			return resources, err
		}
	} else {
		if len(outcomes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing matched.")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nSummary: %s\n", humanSummary(counts))
	}

	if n := counts[cleanup.Failed]; n > 0 {
		return resources, fmt.Errorf("%d cleanup step(s) failed", n)
	}
	return resources, nil
}

// confirm shows the resources a real run would delete and asks to go on.
// Without a terminal it refuses rather than deleting unattended.
func confirm(cmd *cobra.Command, preview []cleanup.Outcome) (bool, error) {
	var lines []string
	for _, o := range preview {
		if o.Action == cleanup.WouldDelete {
			lines = append(lines, fmt.Sprintf("%s %q (%s)", o.Kind, o.Name, o.ID))
		}
	}
	if len(lines) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to delete.")
		return false, nil
	}
	if !tui.IsTerminal(os.Stdin) {
		return false, fmt.Errorf("refusing to delete %d resource(s) without --yes (stdin is not a terminal)", len(lines))
	}

	ok, err := tui.Confirm(fmt.Sprintf("Delete %d resource(s)?", len(lines)), strings.Join(lines, "\n"), "Delete")
	if errors.Is(err, tui.ErrAborted) || (err == nil && !ok) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cleanup cancelled.")
		return false, nil
	}
	return ok, err
}

func formatOutcome(o cleanup.Outcome) string {
	action := styles.ActionStyle(o.Action.String()).Render(fmt.Sprintf("%-12s", o.Action))
	target := string(o.Kind)
	if o.Name != "" {
		target = fmt.Sprintf("%s %q", o.Kind, o.Name)
	}
	if o.ID != "" && o.ID != o.Name {
		target += " " + styles.MutedText.Render("("+o.ID+")")
	}
	if o.Cause != nil {
		target += ": " + o.Cause.Error()
	}
	return action + " " + target
}

var summaryOrder = []cleanup.Action{cleanup.Deleted, cleanup.WouldDelete, cleanup.Failed, cleanup.Skipped}

// journalSummary renders non-zero counts as "deleted=3 failed=1".
func journalSummary(counts map[cleanup.Action]int) string {
	var parts []string
	for _, a := range summaryOrder {
		if n := counts[a]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", strings.ReplaceAll(a.String(), " ", "_"), n))
		}
	}
	return strings.Join(parts, " ")
}

// humanSummary renders non-zero counts as "3 deleted, 1 failed".
func humanSummary(counts map[cleanup.Action]int) string {
	var parts []string
	for _, a := range summaryOrder {
		if n := counts[a]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, a))
		}
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, ", ")
}

type outcomeView struct {
	Kind   domain.Kind `json:"kind"`
	ID     string      `json:"id,omitempty"`
	Name   string      `json:"name,omitempty"`
	Action string      `json:"action"`
	Error  string      `json:"error,omitempty"`
}

func outcomeViews(outcomes []cleanup.Outcome) []outcomeView {
	views := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		v := outcomeView{Kind: o.Kind, ID: o.ID, Name: o.Name, Action: o.Action.String()}
		if o.Cause != nil {
			v.Error = o.Cause.Error()
		}
		views = append(views, v)
	}
	return views
}
