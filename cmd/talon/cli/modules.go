package cli

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/talon-framework/talon/internal/module"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// RegisterModuleCommands adds module inspection commands.
func RegisterModuleCommands(root *cobra.Command) {
	modCmd := &cobra.Command{
		Use:   "modules",
		Short: "Search and inspect modules",
	}

	modCmd.AddCommand(newModuleListCmd())
	modCmd.AddCommand(newModuleSearchCmd())
	modCmd.AddCommand(newModuleInfoCmd())

	root.AddCommand(modCmd)
}

func builtinRegistry() *module.Registry {
	reg := module.NewRegistry(zerolog.Nop())
	module.RegisterBuiltinModules(reg, zerolog.Nop())
	return reg
}

func printModuleTable(metas []sdk.ModuleMeta) {
	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })
	fmt.Printf("%-20s %-10s %-10s %s\n", "ID", "SERVICE", "RISK", "NAME")
	for _, meta := range metas {
		fmt.Printf("%-20s %-10s %-10s %s\n", meta.ID, meta.Service, meta.RiskClass, meta.Name)
	}
}

func newModuleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			printModuleTable(builtinRegistry().List())
			return nil
		},
	}
}

func newModuleSearchCmd() *cobra.Command {
	var (
		service string
		risk    string
	)

	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search for modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) > 0 {
				keyword = args[0]
			}

			results := builtinRegistry().Search(keyword, service, risk)
			if len(results) == 0 {
				fmt.Println("No modules matched.")
				return nil
			}
			printModuleTable(results)
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "Filter by service (ssh, ftp, http, tcp)")
	cmd.Flags().StringVar(&risk, "risk", "", "Filter by risk class (read_only, intrusive, noisy)")

	return cmd
}

func newModuleInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <module-id>",
		Short: "Show detailed module information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, ok := builtinRegistry().Get(args[0])
			if !ok {
				return fmt.Errorf("module not found: %s", args[0])
			}
			printModuleMeta(mod.Meta())
			return nil
		},
	}
}
