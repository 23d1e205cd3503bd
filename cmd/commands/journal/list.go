package journal

import (
	"fmt"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/journal"
	"nathanbeddoewebdev/provctl/internal/tui/styles"

	"github.com/spf13/cobra"
)

// maxDetail truncates error details in the table view.
const maxDetail = 60

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Long: `List recent runs, newest first.

Examples:
  provctl journal list
  provctl journal list --limit 50
  provctl journal list --command "provctl cleanup"
  provctl journal list -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().String("command", "", "Filter by exact command path")
	cmdutil.OutputFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	filter, _ := cmd.Flags().GetString("command")
	output, err := cmdutil.Output(cmd)
	if err != nil {
		return err
	}

	repo, err := cmdutil.OpenJournal()
	if err != nil {
		return err
	}
	defer repo.Close()

	var entries []journal.Entry
	if filter != "" {
		entries, err = repo.ListByCommand(filter, limit)
	} else {
		entries, err = repo.List(limit)
	}
	if err != nil {
		return err
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCOMMAND\tOUTCOME\tDURATION\tRESOURCES\tDETAIL")
	fmt.Fprintln(w, "----\t-------\t-------\t--------\t---------\t------")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			entry.Command,
			formatOutcome(entry.Outcome),
			formatDuration(entry.DurationMs),
			orDash(entry.Resources),
			orDash(truncate(entry.Detail, maxDetail)),
		)
	}
	return w.Flush()
}

func formatOutcome(outcome string) string {
	if outcome == journal.OutcomeError {
		return styles.ErrorText.Render(outcome)
	}
	return styles.SuccessText.Render(outcome)
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
