package config

import (
	"fmt"
	"slices"
	"strings"

	"nathanbeddoewebdev/provctl/internal/config"
	dnsproviders "nathanbeddoewebdev/provctl/internal/dns/providers"
	"nathanbeddoewebdev/provctl/internal/util"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value. An empty value clears the key.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  provctl config set dns-provider route53\n" +
			"  provctl config set storage-endpoint https://fsn1.your-objectstorage.com",
		Args:         cobra.ExactArgs(2),
		RunE:         runSet,
		SilenceUsage: true,
	}

	return cmd
}

// validators maps key names to optional pre-save validation functions.
// Keys not present in this map have no extra validation.
var validators = map[string]func(value string) error{
	"dns-provider": validateDNSProvider,
}

// caseInsensitive lists keys whose values are names the providers match
// in lower case. Other values are stored as given.
var caseInsensitive = []string{"dns-provider", "location", "server-type", "image", "load-balancer-type"}

func runSet(cmd *cobra.Command, args []string) error {
	spec := config.Lookup(util.NormalizeKey(args[0]))
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", args[0], strings.Join(config.KeyNames(), ", "))
	}

	value := strings.TrimSpace(args[1])
	if slices.Contains(caseInsensitive, spec.Name) {
		value = util.NormalizeKey(value)
	}

	if validate, ok := validators[spec.Name]; ok && value != "" {
		if err := validate(value); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	spec.Set(cfg, value)
	if err := cfg.Save(); err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s cleared\n", spec.Name)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, value)
	return nil
}

// validateDNSProvider checks that the given name is a registered DNS provider.
func validateDNSProvider(name string) error {
	known := dnsproviders.List()
	if slices.Contains(known, name) {
		return nil
	}
	return fmt.Errorf("unknown DNS provider %q (registered: %s)", name, strings.Join(known, ", "))
}
