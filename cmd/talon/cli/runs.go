package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/talon-framework/talon/internal/core"
	"github.com/talon-framework/talon/internal/module"
)

// RegisterRunCommands adds run history commands.
func RegisterRunCommands(root *cobra.Command) {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "View module run history",
	}
	runsCmd.AddCommand(newRunsListCmd())
	runsCmd.AddCommand(newRunsShowCmd())

	root.AddCommand(runsCmd)
}

func newRunsListCmd() *cobra.Command {
	var (
		moduleFilter string
		statusFilter string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List module run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := loadEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			runner := module.NewRunner(builtinRegistry(), engine.RunsDB, engine.AuditLogger, engine.Logger)
			runs, err := runner.ListRuns(moduleFilter, statusFilter)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No module runs recorded yet.")
				return nil
			}

			printRunTable(runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&moduleFilter, "module", "", "Filter by module ID")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (success, error, empty)")

	return cmd
}

func printRunTable(runs []core.RunRecord) {
	fmt.Printf("%-36s %-20s %-8s %s\n", "UUID", "MODULE", "STATUS", "STARTED")
	for _, run := range runs {
		fmt.Printf("%-36s %-20s %-8s %s\n",
			run.UUID, run.ModuleID, run.Status, run.StartedAt.Format(time.RFC3339))
	}
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-uuid>",
		Short: "Show details of a module run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := loadEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			runner := module.NewRunner(builtinRegistry(), engine.RunsDB, engine.AuditLogger, engine.Logger)
			run, err := runner.GetRun(args[0])
			if err != nil {
				return err
			}

			printRunRecord(run)
			return nil
		},
	}
}

func printRunRecord(run *core.RunRecord) {
	fmt.Printf("Run %s\n", run.UUID)
	fmt.Printf("  Module:   %s (%s)\n", run.ModuleID, run.ModuleVersion)
	fmt.Printf("  Status:   %s\n", run.Status)
	fmt.Printf("  Operator: %s\n", run.Operator)
	fmt.Printf("  Started:  %s\n", run.StartedAt.Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Printf("  Ended:    %s\n", run.CompletedAt.Format(time.RFC3339))
	}
	if run.ErrorDetail != nil {
		fmt.Printf("  Error:    %s\n", *run.ErrorDetail)
	}
	if len(run.Answers) > 0 {
		raw, _ := json.MarshalIndent(run.Answers, "  ", "  ")
		fmt.Printf("  Answers:  %s\n", raw)
	}
	if len(run.Outputs) > 0 {
		raw, _ := json.MarshalIndent(run.Outputs, "  ", "  ")
		fmt.Printf("  Outputs:  %s\n", raw)
	}
}
