package provision

import (
	"context"
	"fmt"
	"os"
	"slices"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/journal"
	"nathanbeddoewebdev/provctl/internal/orchestrator"

	"github.com/spf13/cobra"
)

func LoadBalancerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "loadbalancer",
		Aliases: []string{"lb"},
		Short:   "Put a load balancer in front of existing servers",
		Long: `Create a load balancer named after --fqdn with the given servers as
nodes, install the default health check and point an A record for the
name at the load balancer's address.

Examples:
  provctl provision loadbalancer --fqdn www.example.com --servers 4711,4712
  provctl provision lb --fqdn shop.example.com --servers 4711 --tls --error-page 503.html`,
		RunE:         cmdutil.Journaled(runLoadBalancer),
		SilenceUsage: true,
	}

	cmd.Flags().String("fqdn", "", "Load balancer name and DNS record (required)")
	cmd.Flags().StringSlice("servers", nil, "Comma-separated server IDs (required)")
	cmd.Flags().String("location", "", "Location (default: the first server's)")
	cmd.Flags().Bool("tls", false, "Terminate HTTPS with a self-signed certificate")
	cmd.Flags().String("error-page", "", "HTML file served when no backend is healthy")
	cmdutil.OutputFlag(cmd)
	_ = cmd.MarkFlagRequired("fqdn")
	_ = cmd.MarkFlagRequired("servers")

	return cmd
}

func runLoadBalancer(cmd *cobra.Command, args []string) (string, error) {
	fqdn, _ := cmd.Flags().GetString("fqdn")
	serverIDs, _ := cmd.Flags().GetStringSlice("servers")
	location, _ := cmd.Flags().GetString("location")
	tls, _ := cmd.Flags().GetBool("tls")
	errorPagePath, _ := cmd.Flags().GetString("error-page")

	spec := orchestrator.LoadBalancerSpec{
		FQDN:      fqdn,
		ServerIDs: serverIDs,
		Location:  location,
		TLS:       tls,
	}
	if errorPagePath != "" {
		page, err := os.ReadFile(errorPagePath)
		if err != nil {
			return "", fmt.Errorf("failed to read error page: %w", err)
		}
		spec.ErrorPage = string(page)
	}

	s, err := newSession(cmd)
	if err != nil {
		return "", err
	}

	var topo *orchestrator.Topology
	err = s.run("Building load balancer "+fqdn+"...", func(ctx context.Context) error {
		var err error
		topo, err = s.orch.BuildLoadBalancer(ctx, spec)
		return err
	})
	return finishTopology(cmd, s, topo, true, err)
}

// topologyView is the JSON form of a built topology.
type topologyView struct {
	Resources       any             `json:"resources"`
	DNS             *resolutionView `json:"dns,omitempty"`
	BackupContainer string          `json:"backup_container,omitempty"`
}

// finishTopology reports a load balancer or stack build. When
// existingServers is set the servers were passed in, not created, and
// are left out of the journal summary and the partial-failure report.
func finishTopology(cmd *cobra.Command, s *session, topo *orchestrator.Topology, existingServers bool, buildErr error) (string, error) {
	if topo == nil {
		return "", buildErr
	}

	handles := topo.Handles()
	created := handles
	if existingServers {
		created = slices.DeleteFunc(slices.Clone(handles), func(h domain.Handle) bool {
			return h.Kind == domain.KindServer
		})
	}
	resources := journal.SummarizeHandles(append(slices.Clone(created), resolutionHandles(topo.DNS)...))
	if buildErr != nil {
		reportPartial(cmd, created)
		return resources, fmt.Errorf("build failed: %w", buildErr)
	}

	if s.output == "json" {
		return resources, cmdutil.PrintJSON(cmd, topologyView{
			Resources:       handles,
			DNS:             newResolutionView(topo.DNS),
			BackupContainer: topo.BackupContainer,
		})
	}
	printHandles(cmd, handles)
	printResolution(cmd, topo.DNS)
	if topo.BackupContainer != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n  Error page backup:  %s\n", topo.BackupContainer)
	}
	printRootPasswords(cmd, topo.Servers)
	return resources, nil
}
