package provision

import (
	"context"
	"fmt"
	"io"
	"os"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/journal"
	"nathanbeddoewebdev/provctl/internal/orchestrator"

	"github.com/spf13/cobra"
)

func SiteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Publish a static website from object storage",
		Long: `Create a storage container, upload an index page (and optional error
page), enable website hosting and point a CNAME for --fqdn at it.

Examples:
  provctl provision site --fqdn docs.example.com --index index.html
  provctl provision site --fqdn www.example.org --index dist/index.html --error-page dist/404.html`,
		RunE:         cmdutil.Journaled(runSite),
		SilenceUsage: true,
	}

	cmd.Flags().String("fqdn", "", "Site host name (required)")
	cmd.Flags().String("index", "", "Index page file (required)")
	cmd.Flags().String("error-page", "", "Error page file")
	cmd.Flags().String("container", "", "Container name (default: the fqdn)")
	cmdutil.OutputFlag(cmd)
	_ = cmd.MarkFlagRequired("fqdn")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}

func runSite(cmd *cobra.Command, args []string) (string, error) {
	fqdn, _ := cmd.Flags().GetString("fqdn")
	indexPath, _ := cmd.Flags().GetString("index")
	errorPath, _ := cmd.Flags().GetString("error-page")
	container, _ := cmd.Flags().GetString("container")

	index, err := os.Open(indexPath)
	if err != nil {
		return "", fmt.Errorf("failed to open index page: %w", err)
	}
	defer index.Close()

	spec := orchestrator.SiteSpec{FQDN: fqdn, Container: container, Index: index}
	if errorPath != "" {
		f, err := os.Open(errorPath)
		if err != nil {
			return "", fmt.Errorf("failed to open error page: %w", err)
		}
		defer f.Close()
		spec.ErrorPage = io.Reader(f)
	}

	s, err := newSession(cmd)
	if err != nil {
		return "", err
	}

	var site *orchestrator.Site
	err = s.run("Publishing "+fqdn+"...", func(ctx context.Context) error {
		var err error
		site, err = s.orch.BuildSite(ctx, spec)
		return err
	})
	if site == nil {
		return "", err
	}

	handles := []domain.Handle{{ID: site.Container, Kind: domain.KindContainer, Name: site.Container}}
	resources := journal.SummarizeHandles(append(handles, resolutionHandles(site.DNS)...))
	if err != nil {
		reportPartial(cmd, handles)
		return resources, fmt.Errorf("failed to publish site: %w", err)
	}

	if s.output == "json" {
		return resources, cmdutil.PrintJSON(cmd, struct {
			Container   string          `json:"container"`
			WebsiteHost string          `json:"website_host"`
			DNS         *resolutionView `json:"dns,omitempty"`
		}{site.Container, site.WebsiteHost, newResolutionView(site.DNS)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Site published from container %q\n", site.Container)
	fmt.Fprintf(cmd.OutOrStdout(), "  Website host:  %s\n", site.WebsiteHost)
	printResolution(cmd, site.DNS)
	return resources, nil
}
