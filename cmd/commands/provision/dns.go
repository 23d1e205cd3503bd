package provision

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	dnsdomain "nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/dns/services"
	"nathanbeddoewebdev/provctl/internal/journal"

	"github.com/spf13/cobra"
)

func DNSCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dns",
		Short: "Point a DNS name at a value",
		Long: `Create a DNS record in the zone that owns the name.

The zone is found by the exact name first, then by its parent domain.
When neither exists the provider is asked to create the zone.

Examples:
  provctl provision dns --fqdn www.example.com --value 203.0.113.7
  provctl provision dns --fqdn docs.example.com --type CNAME --value example.github.io --ttl 600`,
		RunE:         cmdutil.Journaled(runDNS),
		SilenceUsage: true,
	}

	cmd.Flags().String("fqdn", "", "Record name (required)")
	cmd.Flags().String("type", "A", "Record type: A, AAAA, CNAME, TXT or MX")
	cmd.Flags().String("value", "", "Record value (required)")
	cmd.Flags().Int("ttl", 0, "TTL in seconds (default 300)")
	cmdutil.OutputFlag(cmd)
	_ = cmd.MarkFlagRequired("fqdn")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func runDNS(cmd *cobra.Command, args []string) (string, error) {
	fqdn, _ := cmd.Flags().GetString("fqdn")
	recordType, _ := cmd.Flags().GetString("type")
	value, _ := cmd.Flags().GetString("value")
	ttl, _ := cmd.Flags().GetInt("ttl")

	if ttl < 0 {
		return "", fmt.Errorf("ttl must not be negative")
	}

	s, err := newSession(cmd)
	if err != nil {
		return "", err
	}

	req := services.ResolutionRequest{
		FQDN:  fqdn,
		Type:  dnsdomain.RecordType(strings.ToUpper(recordType)),
		Value: value,
		TTL:   ttl,
	}

	var res *services.Resolution
	err = s.run("Resolving "+fqdn+"...", func(ctx context.Context) error {
		var err error
		res, err = s.orch.ResolveDNS(ctx, req)
		return err
	})
	resources := journal.SummarizeHandles(resolutionHandles(res))
	if err != nil {
		return resources, fmt.Errorf("failed to create record: %w", err)
	}

	if s.output == "json" {
		return resources, cmdutil.PrintJSON(cmd, newResolutionView(res))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s now resolves to %s\n", res.Record.Name, res.Record.Value)
	printResolution(cmd, res)
	return resources, nil
}
