package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/talon-framework/talon/internal/config"
)

// RegisterConfigCommands adds configuration commands.
func RegisterConfigCommands(root *cobra.Command) {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "View and change console configuration",
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadGlobalConfig()
			if err != nil {
				return err
			}
			fmt.Printf("log_level:        %s\n", cfg.LogLevel)
			fmt.Printf("data_dir:         %s\n", cfg.DataDir)
			fmt.Printf("operator:         %s\n", cfg.Operator)
			fmt.Printf("default_delay_ms: %d\n", cfg.DefaultDelayMs)
			fmt.Printf("report_title:     %s\n", cfg.ReportTitle)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadGlobalConfig()
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			switch key {
			case "log_level":
				cfg.LogLevel = value
			case "data_dir":
				cfg.DataDir = value
			case "operator":
				cfg.Operator = value
			case "default_delay_ms":
				n, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("default_delay_ms must be an integer: %w", err)
				}
				cfg.DefaultDelayMs = n
			case "report_title":
				cfg.ReportTitle = value
			default:
				return fmt.Errorf("unknown config key: %s", key)
			}

			if err := config.SaveGlobalConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", key, value)
			return nil
		},
	})

	root.AddCommand(cfgCmd)
}
