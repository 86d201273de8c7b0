package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/talon-framework/talon/internal/audit"
	"github.com/talon-framework/talon/internal/report"
	"github.com/talon-framework/talon/internal/session"
)

// RegisterReportCommands adds report generation commands.
func RegisterReportCommands(root *cobra.Command, version string) {
	var output string

	cmd := &cobra.Command{
		Use:   "report <session-file>",
		Short: "Render a saved session into an HTML report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, err := loadEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			store := session.NewStore()
			if err := store.LoadFile(args[0]); err != nil {
				return fmt.Errorf("loading session: %w", err)
			}

			if output == "" {
				name := fmt.Sprintf("report-%s.html", time.Now().UTC().Format("20060102-150405"))
				output = filepath.Join(cfg.DataDir, "reports", name)
			}

			if err := report.WriteHTML(output, cfg.ReportTitle, store.Data(), version); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			engine.AuditLogger.Log(audit.EventReportGenerated, cfg.Operator, "", map[string]string{
				"session": args[0],
				"output":  output,
			})

			fmt.Printf("Report written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: data dir reports/)")

	root.AddCommand(cmd)
}
