package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/platform"
	"nathanbeddoewebdev/provctl/internal/tui"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store credentials for a provider",
		Long: `Store credentials for a provider in the local keychain.

Providers: hetzner, cloudflare, porkbun, storage, aws.

"storage" holds the access key pair of the S3-compatible object storage and
"aws" the key pair used for Route 53 and RDS. Both are entered as
ACCESS:SECRET.

Without --token you are prompted for every credential the provider needs.
When stdin is not a terminal, one value per line is read from it.

Examples:
  provctl auth login hetzner
  provctl auth login cloudflare --token "$CF_TOKEN"
  printf '%s\n%s\n' "$KEY" "$SECRET" | provctl auth login porkbun`,
		Args:         cobra.ExactArgs(1),
		RunE:         runLogin,
		SilenceUsage: true,
	}

	cmd.Flags().String("token", "", "Credential value (single-credential providers only)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	spec := platform.LookupCredentials(args[0])
	if spec == nil {
		return fmt.Errorf("unknown provider %q (valid: %s)", args[0], strings.Join(providerNames(), ", "))
	}

	token, _ := cmd.Flags().GetString("token")
	token = strings.TrimSpace(token)
	if token != "" && len(spec.Keys) != 1 {
		return fmt.Errorf("%s needs %d credentials; omit --token to be prompted", spec.DisplayName, len(spec.Keys))
	}

	interactive := tui.IsTerminal(os.Stdin)
	lines := bufio.NewScanner(cmd.InOrStdin())
	store := cmdutil.Store()

	for _, key := range spec.Keys {
		value := token
		if value == "" {
			var err error
			value, err = readCredential(lines, interactive, spec.DisplayName+" "+key.Prompt)
			if err != nil {
				if errors.Is(err, tui.ErrAborted) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Login cancelled.")
					return nil
				}
				return err
			}
		}
		if value == "" {
			return fmt.Errorf("%s cannot be empty", key.Prompt)
		}
		if err := store.SetToken(spec.KeychainKey(key), value); err != nil {
			return fmt.Errorf("failed to store %s: %w", key.Prompt, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials for %s\n", spec.DisplayName)
	return nil
}

func readCredential(lines *bufio.Scanner, interactive bool, prompt string) (string, error) {
	if interactive {
		v, err := tui.Secret(prompt)
		return strings.TrimSpace(v), err
	}
	if !lines.Scan() {
		if err := lines.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no value for %s on stdin", prompt)
	}
	return strings.TrimSpace(lines.Text()), nil
}

func providerNames() []string {
	var names []string
	for _, spec := range platform.AllCredentials() {
		names = append(names, spec.Provider)
	}
	return names
}
