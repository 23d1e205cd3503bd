package provision

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/orchestrator"

	"github.com/spf13/cobra"
)

func UploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a directory into a storage container",
		Long: `Upload every file under --dir into --container, keyed by its path
relative to the directory. The container is created when missing.

Example:
  provctl provision upload --dir ./public --container docs.example.com`,
		RunE:         cmdutil.Journaled(runUpload),
		SilenceUsage: true,
	}

	cmd.Flags().String("dir", "", "Directory to upload (required)")
	cmd.Flags().String("container", "", "Target container (required)")
	cmdutil.OutputFlag(cmd)
	_ = cmd.MarkFlagRequired("dir")
	_ = cmd.MarkFlagRequired("container")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	container, _ := cmd.Flags().GetString("container")

	s, err := newSession(cmd)
	if err != nil {
		return "", err
	}

	var result *orchestrator.UploadResult
	err = s.run("Uploading "+dir+"...", func(ctx context.Context) error {
		var err error
		result, err = s.orch.Upload(ctx, dir, container)
		return err
	})
	var resources string
	if result != nil {
		resources = fmt.Sprintf("objects=%d", result.Files)
	}
	if err != nil {
		if result != nil && result.Files > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d file(s) were uploaded before the failure.\n", result.Files)
		}
		return resources, fmt.Errorf("upload failed: %w", err)
	}

	if s.output == "json" {
		return resources, cmdutil.PrintJSON(cmd, struct {
			Container string `json:"container"`
			Files     int    `json:"files"`
			Bytes     int64  `json:"bytes"`
		}{result.Container, result.Files, result.Bytes})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d file(s), %d bytes, to %s\n", result.Files, result.Bytes, result.Container)
	return resources, nil
}
