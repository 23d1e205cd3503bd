package cmdutil

import (
	"strings"
	"time"

	"nathanbeddoewebdev/provctl/internal/journal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// OpenJournal opens the run journal. Tests point it elsewhere.
var OpenJournal = func() (journal.Repository, error) {
	return journal.Open()
}

// JournaledFunc is a command body that reports a resource summary.
type JournaledFunc func(cmd *cobra.Command, args []string) (resources string, err error)

// Journaled wraps fn so every run, failed or not, is written to the
// journal. A journal failure is logged and never fails the command.
func Journaled(fn JournaledFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		resources, err := fn(cmd, args)
		Record(cmd, start, resources, err)
		return err
	}
}

// Record writes one journal entry for cmd.
func Record(cmd *cobra.Command, start time.Time, resources string, runErr error) {
	entry := &journal.Entry{
		Timestamp:  start.UTC(),
		Command:    cmd.CommandPath(),
		Args:       strings.Join(journal.SanitizeArgs(append(FlagArgs(cmd), cmd.Flags().Args()...)), " "),
		Outcome:    journal.OutcomeSuccess,
		Resources:  resources,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		entry.Outcome = journal.OutcomeError
		entry.Detail = runErr.Error()
	}

	repo, err := OpenJournal()
	if err != nil {
		Logger(cmd).Warn("journal unavailable", "error", err)
		return
	}
	defer repo.Close()
	if err := repo.Save(entry); err != nil {
		Logger(cmd).Warn("journal write failed", "error", err)
	}
}

// FlagArgs renders the flags set on cmd as "--name value" pairs.
func FlagArgs(cmd *cobra.Command) []string {
	var out []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Value.Type() == "bool" {
			out = append(out, "--"+f.Name)
			return
		}
		out = append(out, "--"+f.Name, flagValue(f))
	})
	return out
}

func flagValue(f *pflag.Flag) string {
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return strings.Join(sv.GetSlice(), ",")
	}
	return f.Value.String()
}
