package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/talon-framework/talon/internal/audit"
)

// RegisterAuditCommands adds audit log commands.
func RegisterAuditCommands(root *cobra.Command) {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the tamper-evident audit log",
	}

	auditCmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Verify the audit log hash chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := loadEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ok, count, err := audit.Verify(engine.AuditDB)
			if err != nil || !ok {
				return fmt.Errorf("audit log FAILED verification: %w", err)
			}
			fmt.Printf("Audit log verified: %d records, hash chain intact.\n", count)
			return nil
		},
	})

	root.AddCommand(auditCmd)
}
