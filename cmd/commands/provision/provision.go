package provision

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the "provision" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Build cloud resources and wait for them to converge",
		Long: `Build cloud resources and wait for each stage to converge before
starting the next.

A failed stage stops the build. Resources created before the failure are
reported and left in place; remove them with "provctl cleanup".`,
	}

	cmd.AddCommand(ServersCommand())
	cmd.AddCommand(CloneCommand())
	cmd.AddCommand(DNSCommand())
	cmd.AddCommand(LoadBalancerCommand())
	cmd.AddCommand(StackCommand())
	cmd.AddCommand(DatabaseCommand())
	cmd.AddCommand(SiteCommand())
	cmd.AddCommand(UploadCommand())

	return cmd
}
