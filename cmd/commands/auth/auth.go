package auth

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider credentials",
		Long: `Manage provider credentials.

Credentials are stored in the OS keychain. Each can also be supplied through
an environment variable named PROVCTL_<NAME>_TOKEN, e.g. PROVCTL_HETZNER_TOKEN
or PROVCTL_PORKBUN_APIKEY_TOKEN.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(LogoutCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}
