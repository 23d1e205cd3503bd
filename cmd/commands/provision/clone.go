package provision

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/journal"
	"nathanbeddoewebdev/provctl/internal/orchestrator"

	"github.com/spf13/cobra"
)

func CloneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone a server through a snapshot image",
		Long: `Snapshot a server, wait for the image, then boot a new server from it.

Images can take a long time to build; the wait allows up to an hour.

Examples:
  provctl provision clone --server 4711
  provctl provision clone --server 4711 --name web-staging`,
		RunE:         cmdutil.Journaled(runClone),
		SilenceUsage: true,
	}

	cmd.Flags().String("server", "", "ID of the server to clone (required)")
	cmd.Flags().String("name", "", "Name of the new server (default <source>-clone)")
	cmdutil.OutputFlag(cmd)
	_ = cmd.MarkFlagRequired("server")

	return cmd
}

func runClone(cmd *cobra.Command, args []string) (string, error) {
	serverID, _ := cmd.Flags().GetString("server")
	name, _ := cmd.Flags().GetString("name")

	s, err := newSession(cmd)
	if err != nil {
		return "", err
	}

	var result *orchestrator.CloneResult
	err = s.run("Cloning server "+serverID+"...", func(ctx context.Context) error {
		var err error
		result, err = s.orch.CloneServer(ctx, serverID, name)
		return err
	})

	var handles []domain.Handle
	if result != nil {
		if result.Image.ID != "" {
			handles = append(handles, result.Image)
		}
		if result.Server.ID != "" {
			handles = append(handles, result.Server)
		}
	}
	resources := journal.SummarizeHandles(handles)
	if err != nil {
		reportPartial(cmd, handles)
		return resources, fmt.Errorf("failed to clone server: %w", err)
	}

	if s.output == "json" {
		return resources, cmdutil.PrintJSON(cmd, struct {
			Image  domain.Handle `json:"image"`
			Server domain.Handle `json:"server"`
		}{result.Image, result.Server})
	}
	printHandles(cmd, handles)
	printRootPasswords(cmd, []domain.Handle{result.Server})
	return resources, nil
}
