package provision

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/journal"
	"nathanbeddoewebdev/provctl/internal/orchestrator"
	"nathanbeddoewebdev/provctl/internal/sshkeys"
	"nathanbeddoewebdev/provctl/internal/util"

	"github.com/spf13/cobra"
)

func ServersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Create a batch of identical servers",
		Long: `Create a batch of identical servers and wait for them.

A count of 1 uses --name as is. Larger batches are named <name>1..<name>N.
With --wait addresses (the default) the command returns once every server
has an IP address; --wait build also waits for the servers to be running.

--ssh-key-file uploads a local public key to the account first, unless the
account already holds the same key.

Examples:
  provctl provision servers --name web --count 3
  provctl provision servers --name db --type cx32 --ssh-key deploy --wait build
  provctl provision servers --name app --ssh-key-file ~/.ssh/id_ed25519.pub`,
		RunE:         cmdutil.Journaled(runServers),
		SilenceUsage: true,
	}

	cmd.Flags().String("name", "", "Server name, or base name for a batch (required)")
	cmd.Flags().Int("count", 1, "Number of servers")
	cmd.Flags().String("wait", "addresses", "Wait for: addresses or build")
	cmd.Flags().String("type", "", "Server type (default from config)")
	cmd.Flags().String("image", "", "Image name or ID (default from config)")
	cmd.Flags().String("location", "", "Location (default from config)")
	cmd.Flags().StringArray("ssh-key", nil, "SSH key name or ID (repeatable)")
	cmd.Flags().StringArray("ssh-key-file", nil, "Path to an SSH public key to upload and use (repeatable)")
	cmd.Flags().StringArray("label", nil, "Label in key=value format (repeatable)")
	cmdutil.OutputFlag(cmd)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runServers(cmd *cobra.Command, args []string) (string, error) {
	name, _ := cmd.Flags().GetString("name")
	count, _ := cmd.Flags().GetInt("count")
	waitFlag, _ := cmd.Flags().GetString("wait")
	serverType, _ := cmd.Flags().GetString("type")
	image, _ := cmd.Flags().GetString("image")
	location, _ := cmd.Flags().GetString("location")
	sshKeys, _ := cmd.Flags().GetStringArray("ssh-key")
	keyFiles, _ := cmd.Flags().GetStringArray("ssh-key-file")
	labelFlags, _ := cmd.Flags().GetStringArray("label")

	if err := util.ValidateServerName(name); err != nil {
		return "", err
	}
	wait, err := orchestrator.ParseWaitMode(waitFlag)
	if err != nil {
		return "", err
	}
	labels, err := parseLabels(labelFlags)
	if err != nil {
		return "", err
	}
	localKeys, err := readKeyFiles(keyFiles)
	if err != nil {
		return "", err
	}

	s, err := newSession(cmd)
	if err != nil {
		return "", err
	}

	spec := orchestrator.BatchSpec{
		BaseName:   name,
		Count:      count,
		ServerType: serverType,
		Image:      image,
		Location:   location,
		SSHKeys:    sshKeys,
		Labels:     labels,
	}

	var servers []domain.Handle
	err = s.run(fmt.Sprintf("Creating %d server(s)...", count), func(ctx context.Context) error {
		for _, k := range localKeys {
			h, err := s.orch.EnsureSSHKey(ctx, k.name, k.publicKey)
			if err != nil {
				return err
			}
			spec.SSHKeys = append(spec.SSHKeys, h.ID)
		}
		var err error
		servers, err = s.orch.BuildServers(ctx, spec, wait)
		return err
	})
	resources := journal.SummarizeHandles(servers)
	if err != nil {
		reportPartial(cmd, servers)
		return resources, fmt.Errorf("failed to build servers: %w", err)
	}

	if s.output == "json" {
		return resources, cmdutil.PrintJSON(cmd, servers)
	}
	printHandles(cmd, servers)
	printRootPasswords(cmd, servers)
	return resources, nil
}

type localKey struct {
	name      string
	publicKey string
}

// readKeyFiles reads and validates every key before anything is uploaded.
func readKeyFiles(paths []string) ([]localKey, error) {
	keys := make([]localKey, 0, len(paths))
	for _, path := range paths {
		publicKey, err := sshkeys.ReadAndValidatePublicKey(path)
		if err != nil {
			return nil, fmt.Errorf("--ssh-key-file %s: %w", path, err)
		}
		keys = append(keys, localKey{name: sshkeys.SuggestKeyName(path), publicKey: publicKey})
	}
	return keys, nil
}

// parseLabels parses key=value pairs.
func parseLabels(labels []string) (map[string]string, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	result := make(map[string]string, len(labels))
	for _, l := range labels {
		k, v, ok := strings.Cut(l, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid label %q (want key=value)", l)
		}
		result[k] = v
	}
	return result, nil
}
