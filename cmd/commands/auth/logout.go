package auth

import (
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/platform"
	"nathanbeddoewebdev/provctl/internal/services/auth"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <provider>",
		Short: "Remove stored credentials for a provider",
		Long: `Remove every keychain entry stored for a provider.

Environment variables are not touched; unset them yourself.`,
		Args:         cobra.ExactArgs(1),
		RunE:         runLogout,
		SilenceUsage: true,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	spec := platform.LookupCredentials(args[0])
	if spec == nil {
		return fmt.Errorf("unknown provider %q (valid: %s)", args[0], strings.Join(providerNames(), ", "))
	}

	store := cmdutil.Store()
	removed := 0
	for _, key := range spec.Keys {
		err := store.DeleteToken(spec.KeychainKey(key))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, auth.ErrTokenNotFound):
		default:
			return fmt.Errorf("failed to remove %s: %w", key.Prompt, err)
		}
	}

	if removed == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No stored credentials for %s\n", spec.DisplayName)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials for %s\n", spec.DisplayName)
	return nil
}
