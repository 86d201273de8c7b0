// TALON — Interactive Network Credential Assessment Console
// Authorized security testing use only.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/talon-framework/talon/cmd/talon/cli"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "talon",
		Short: "TALON — Interactive Network Credential Assessment Console",
		Long: `TALON is an operator-focused console for authorized credential assessment.
It provides an interactive module console, schema-driven option prompting,
throttled brute-force execution, tamper-evident audit logging, and encrypted
credential storage.

For authorized engagements only.`,
		Version:      version,
		SilenceUsage: true,
	}

	cli.RegisterConsoleCommand(rootCmd, version)
	cli.RegisterModuleCommands(rootCmd)
	cli.RegisterRunCommands(rootCmd)
	cli.RegisterAuditCommands(rootCmd)
	cli.RegisterReportCommands(rootCmd, version)
	cli.RegisterConfigCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
