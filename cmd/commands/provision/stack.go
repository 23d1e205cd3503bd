package provision

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/orchestrator"
	"nathanbeddoewebdev/provctl/internal/stackfile"

	"github.com/spf13/cobra"
)

func StackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Build a load-balanced web tier from a stack file",
		Long: `Build a complete web tier described by a YAML stack file: an optional
private network, a batch of servers, a load balancer with health check
and optional TLS, a custom error page, an A record, per-server volumes
and an error page backup.

Example stack.yaml:
  fqdn: www.example.com
  servers:
    name: web
    count: 2
    type: cx22
  network: true
  tls: true
  error_page: 503.html
  volume_size_gb: 100

Example:
  provctl provision stack -f stack.yaml`,
		RunE:         cmdutil.Journaled(runStack),
		SilenceUsage: true,
	}

	cmd.Flags().StringP("file", "f", "", "Stack file (required)")
	cmdutil.OutputFlag(cmd)
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runStack(cmd *cobra.Command, args []string) (string, error) {
	path, _ := cmd.Flags().GetString("file")

	stack, err := stackfile.Load(path)
	if err != nil {
		return "", err
	}
	spec, err := stack.Spec()
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	s, err := newSession(cmd)
	if err != nil {
		return "", err
	}

	var topo *orchestrator.Topology
	err = s.run("Building "+spec.FQDN+"...", func(ctx context.Context) error {
		var err error
		topo, err = s.orch.BuildTopology(ctx, spec)
		return err
	})
	return finishTopology(cmd, s, topo, false, err)
}
