package auth

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/platform"
	"nathanbeddoewebdev/provctl/internal/services/auth"
	"nathanbeddoewebdev/provctl/internal/tui/styles"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which providers have credentials",
		Long: `Show which providers have stored credentials.

Example:
  provctl auth status`,
		RunE:         runStatus,
		SilenceUsage: true,
	}

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	store := cmdutil.Store()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tNAME\tSTATUS")
	for _, spec := range platform.AllCredentials() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", spec.Provider, spec.DisplayName, credentialStatus(store, spec))
	}
	return w.Flush()
}

// credentialStatus is "logged in" only when every key of spec is stored.
func credentialStatus(store auth.Store, spec platform.CredentialSpec) string {
	found := 0
	for _, key := range spec.Keys {
		_, err := store.GetToken(spec.KeychainKey(key))
		switch {
		case err == nil:
			found++
		case errors.Is(err, auth.ErrTokenNotFound):
		default:
			return styles.ErrorText.Render(fmt.Sprintf("error (%v)", err))
		}
	}
	switch found {
	case len(spec.Keys):
		return styles.SuccessText.Render("logged in")
	case 0:
		return styles.MutedText.Render("not logged in")
	}
	return styles.WarningText.Render("incomplete")
}
