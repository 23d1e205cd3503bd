// Package cmdutil holds what the provctl commands share: logger setup,
// platform construction, output formats and run journaling.
package cmdutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"nathanbeddoewebdev/provctl/internal/config"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/orchestrator"
	"nathanbeddoewebdev/provctl/internal/platform"
	"nathanbeddoewebdev/provctl/internal/services/auth"

	"github.com/spf13/cobra"
)

// Seams replaced by tests.
var (
	Store         = auth.DefaultStore
	BuildPlatform = platform.Build

	// Polling overrides orchestrator wait bounds when non-nil.
	Polling map[domain.Kind]orchestrator.PollSettings
)

// ParseLevel parses a --log-level value.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
	}
	return level, nil
}

// Logger returns a text logger on the command's stderr at the level
// named by --log-level. It defaults to warn.
func Logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if f := cmd.Flag("log-level"); f != nil {
		if l, err := ParseLevel(f.Value.String()); err == nil {
			level = l
		}
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Context returns the command's context, or Background.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Platform loads the configuration and builds the provider context.
func Platform(cmd *cobra.Command, logger *slog.Logger) (*platform.Context, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	eff := cfg.Effective()
	pc, err := BuildPlatform(Context(cmd), eff, Store(), logger)
	if err != nil {
		return nil, eff, err
	}
	return pc, eff, nil
}

// OrchestratorOptions fills orchestrator defaults from cfg.
func OrchestratorOptions(cfg config.Config, logger *slog.Logger, progress func(orchestrator.Event)) orchestrator.Options {
	return orchestrator.Options{
		Polling:          Polling,
		Location:         cfg.Location,
		ServerType:       cfg.ServerType,
		Image:            cfg.Image,
		LoadBalancerType: cfg.LoadBalancerType,
		Logger:           logger,
		Progress:         progress,
	}
}

// OutputFlag adds -o/--output.
func OutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}

// Output returns the validated --output value.
func Output(cmd *cobra.Command) (string, error) {
	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "", "table":
		return "table", nil
	case "json":
		return "json", nil
	}
	return "", fmt.Errorf("unsupported output format %q", output)
}

// PrintJSON writes v as indented JSON to stdout.
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
