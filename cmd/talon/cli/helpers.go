package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/talon-framework/talon/internal/config"
	"github.com/talon-framework/talon/internal/core"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
	"golang.org/x/term"
)

// loadEngine opens the engine backed by the configured data directory.
func loadEngine() (*core.Engine, config.GlobalConfig, error) {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, cfg, fmt.Errorf("loading config: %w", err)
	}

	engine, err := core.Open(cfg.DataDir, cfg.LogLevel)
	if err != nil {
		return nil, cfg, fmt.Errorf("opening data directory: %w", err)
	}
	return engine, cfg, nil
}

// readPassphrase reads a passphrase without echo when attached to a
// terminal, falling back to plain reads otherwise.
func readPassphrase(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return line, nil
}

func printModuleMeta(meta sdk.ModuleMeta) {
	fmt.Printf("%s (%s)\n", meta.Name, meta.ID)
	fmt.Printf("  Version:    %s\n", meta.Version)
	fmt.Printf("  Service:    %s\n", meta.Service)
	fmt.Printf("  Risk class: %s\n", meta.RiskClass)
	fmt.Printf("  Author:     %s\n", meta.Author)
	fmt.Printf("  %s\n", meta.Description)

	if len(meta.Options) > 0 {
		fmt.Println("  Options:")
		for _, opt := range meta.Options {
			def := ""
			if opt.Default != nil {
				def = fmt.Sprintf(" (default: %v)", opt.Default)
			}
			cond := ""
			if opt.When != nil {
				cond = fmt.Sprintf(" [when %s is %s]", opt.When.Option, strings.Join(opt.When.AnyOf, "|"))
			}
			fmt.Printf("    %-14s %-7s %s%s%s\n", opt.Name, opt.Kind, opt.Description, def, cond)
		}
	}
	if len(meta.References) > 0 {
		fmt.Println("  References:")
		for _, ref := range meta.References {
			fmt.Printf("    %s\n", ref)
		}
	}
}
