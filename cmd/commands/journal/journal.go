package journal

import "github.com/spf13/cobra"

// NewCommand returns the "journal" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "View and manage the run journal",
		Long: "Every provision and cleanup run is recorded locally with its flags,\n" +
			"outcome, duration and a count of the resources it touched.\n\n" +
			"The journal is stored in ~/.config/provctl/journal.db.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}
