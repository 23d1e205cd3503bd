package provision

import (
	"context"
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/provctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/journal"
	"nathanbeddoewebdev/provctl/internal/orchestrator"

	"github.com/spf13/cobra"
)

func DatabaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "database",
		Aliases: []string{"db"},
		Short:   "Create a hosted database with one schema and user",
		Long: `Create a hosted database instance with one schema and one user, and
wait until it accepts connections. The generated password is printed once.

Examples:
  provctl provision database --name shop-db --db shop --user shop
  provctl provision db --name analytics --db events --user etl --size 50 --engine postgres`,
		RunE:         cmdutil.Journaled(runDatabase),
		SilenceUsage: true,
	}

	cmd.Flags().String("name", "", "Instance name (required)")
	cmd.Flags().String("db", "", "Database (schema) name (required)")
	cmd.Flags().String("user", "", "Database user (required)")
	cmd.Flags().Int("size", 20, fmt.Sprintf("Storage in GB (%d-%d)", orchestrator.MinDatabaseSizeGB, orchestrator.MaxDatabaseSizeGB))
	cmd.Flags().String("engine", "", "Engine (default mysql)")
	cmd.Flags().String("class", "", "Instance class (default db.t3.micro)")
	cmdutil.OutputFlag(cmd)
	for _, name := range []string{"name", "db", "user"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runDatabase(cmd *cobra.Command, args []string) (string, error) {
	spec := orchestrator.DatabaseSpec{}
	spec.Name, _ = cmd.Flags().GetString("name")
	spec.DBName, _ = cmd.Flags().GetString("db")
	spec.Username, _ = cmd.Flags().GetString("user")
	spec.SizeGB, _ = cmd.Flags().GetInt("size")
	spec.Engine, _ = cmd.Flags().GetString("engine")
	spec.InstanceClass, _ = cmd.Flags().GetString("class")

	s, err := newSession(cmd)
	if err != nil {
		return "", err
	}

	var result *orchestrator.DatabaseResult
	err = s.run("Creating database "+spec.Name+"...", func(ctx context.Context) error {
		var err error
		result, err = s.orch.BuildDatabase(ctx, spec)
		return err
	})
	if result == nil {
		return "", err
	}
	resources := journal.SummarizeHandles([]domain.Handle{result.Instance})
	if err != nil {
		reportPartial(cmd, []domain.Handle{result.Instance})
		printDatabasePassword(cmd, result)
		return resources, fmt.Errorf("failed to build database: %w", err)
	}

	if s.output == "json" {
		return resources, cmdutil.PrintJSON(cmd, struct {
			Instance domain.Handle `json:"instance"`
			Password string        `json:"password"`
		}{result.Instance, result.Password})
	}
	printHandles(cmd, []domain.Handle{result.Instance})
	printDatabasePassword(cmd, result)
	return resources, nil
}

// printDatabasePassword shows the generated password. It is printed even
// when the wait failed, since the instance may still come up.
func printDatabasePassword(cmd *cobra.Command, result *orchestrator.DatabaseResult) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Password:\t%s\n", result.Password)
	fmt.Fprintln(w, "  Save this now - it will not be shown again.")
	w.Flush()
}
