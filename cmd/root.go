package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"nathanbeddoewebdev/provctl/cmd/commands/auth"
	"nathanbeddoewebdev/provctl/cmd/commands/cleanup"
	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	cfgcmd "nathanbeddoewebdev/provctl/cmd/commands/config"
	journalcmd "nathanbeddoewebdev/provctl/cmd/commands/journal"
	"nathanbeddoewebdev/provctl/cmd/commands/provision"
	computeproviders "nathanbeddoewebdev/provctl/internal/compute/providers"
	dnsproviders "nathanbeddoewebdev/provctl/internal/dns/providers"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "provctl",
		Short: "Provision and tear down cloud resources in dependency order",
		Long: `provctl builds servers, load balancers, DNS records, volumes, databases
and static sites, waiting for each stage to converge before starting the
next. It removes what it built in reverse dependency order.

Compute runs on Hetzner Cloud, DNS on Cloudflare, Route 53 or Porkbun,
object storage on any S3-compatible service and databases on Amazon RDS.

Quick start:
  provctl auth login hetzner                     # Store your API token
  provctl provision servers --name web --count 2 # Two servers, wait for IPs
  provctl provision stack -f stack.yaml          # Full load-balanced tier
  provctl cleanup --prefix web --dry-run         # Preview the teardown`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			_, err := cmdutil.ParseLevel(level)
			return err
		},
	}

	cmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(provision.NewCommand())
	cmd.AddCommand(cleanup.NewCommand())
	cmd.AddCommand(journalcmd.NewCommand())

	return cmd
}

// registerProviders fills the compute and DNS registries.
func registerProviders() {
	computeproviders.RegisterHetzner()
	dnsproviders.RegisterCloudflare()
	dnsproviders.RegisterPorkbun()
	dnsproviders.RegisterRoute53()
}

// Execute runs the root command. Ctrl-C cancels the running operation
// through the command context.
func Execute() {
	registerProviders()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
