package config

import (
	"nathanbeddoewebdev/provctl/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage provctl configuration",
		Long: "View and modify persistent provctl settings.\n\n" +
			"Configuration is stored at ~/.config/provctl/config.json.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
