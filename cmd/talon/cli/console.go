package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/talon-framework/talon/internal/audit"
	"github.com/talon-framework/talon/internal/config"
	"github.com/talon-framework/talon/internal/core"
	"github.com/talon-framework/talon/internal/loot"
	"github.com/talon-framework/talon/internal/module"
	"github.com/talon-framework/talon/internal/progress"
	"github.com/talon-framework/talon/internal/prompt"
	"github.com/talon-framework/talon/internal/report"
	"github.com/talon-framework/talon/internal/scope"
	"github.com/talon-framework/talon/internal/session"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
	"golang.org/x/term"
)

const banner = `
  _____  _    _     ___  _  _
 |_   _|/ \  | |   / _ \| \| |
   | | / _ \ | |__| (_) | .  |
   |_|/_/ \_\|____|\___/|_|\_|

 Interactive Network Credential Assessment Console
 Authorized engagements only. Type 'help' for commands.
`

// RegisterConsoleCommand adds the interactive console command.
func RegisterConsoleCommand(root *cobra.Command, version string) {
	root.AddCommand(&cobra.Command{
		Use:   "console",
		Short: "Start the interactive module console",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, err := loadEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			c := newConsole(engine, cfg, version)
			return c.loop()
		},
	})
}

// console holds the state of one interactive session: the selected module,
// the global parameter store, accumulated results, and the optional loot
// vault and target scope.
type console struct {
	engine   *core.Engine
	cfg      config.GlobalConfig
	registry *module.Registry
	runner   *module.Runner
	params   *session.Params
	store    *session.Store
	channel  *progress.Channel
	vault    *loot.Vault
	scope    core.Scope
	version  string

	current   sdk.Module
	currentID string

	in *bufio.Reader
}

func newConsole(engine *core.Engine, cfg config.GlobalConfig, version string) *console {
	registry := module.NewRegistry(engine.Logger)
	module.RegisterBuiltinModules(registry, engine.Logger)

	runner := module.NewRunner(registry, engine.RunsDB, engine.AuditLogger, engine.Logger)

	params := session.NewParams()
	params.Set("delay_ms", cfg.DefaultDelayMs)

	channel := progress.NewChannel()
	channel.Subscribe(func(f sdk.Finding) {
		marker := "[-]"
		if f.Valid {
			marker = "[+]"
		}
		fmt.Printf("%s %s\n", marker, strings.Join(f.Values, " "))
	})

	return &console{
		engine:   engine,
		cfg:      cfg,
		registry: registry,
		runner:   runner,
		params:   params,
		store:    session.NewStore(),
		channel:  channel,
		version:  version,
		in:       bufio.NewReader(os.Stdin),
	}
}

func (c *console) loop() error {
	fmt.Print(banner)
	c.engine.AuditLogger.Log(audit.EventConsoleStarted, c.cfg.Operator, "", map[string]string{
		"version": c.version,
	})

	for {
		fmt.Print(c.promptString())

		line, err := c.in.ReadString('\n')
		if err != nil {
			fmt.Println()
			return c.shutdown()
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if quit := c.dispatch(fields[0], fields[1:]); quit {
			return c.shutdown()
		}
	}
}

func (c *console) promptString() string {
	if c.currentID != "" {
		return fmt.Sprintf("talon (%s) > ", c.currentID)
	}
	return "talon > "
}

func (c *console) shutdown() error {
	if c.vault != nil {
		if err := c.vault.Close(); err != nil {
			fmt.Printf("[!] closing loot vault: %v\n", err)
		}
	}
	fmt.Println("Goodbye.")
	return nil
}

// dispatch executes one console command and reports whether the loop should
// exit. A panic in a command is contained so one misbehaving module cannot
// take the console down.
func (c *console) dispatch(cmd string, args []string) (quit bool) {
	defer func() {
		if r := recover(); r != nil {
			c.engine.Logger.Error().Interface("panic", r).Str("command", cmd).Msg("console command panicked")
			fmt.Printf("[!] command crashed (%v); console recovered\n", r)
		}
	}()

	switch cmd {
	case "help", "?":
		c.cmdHelp()
	case "modules", "search":
		c.cmdModules(args)
	case "use":
		c.cmdUse(args)
	case "back":
		c.current = nil
		c.currentID = ""
	case "info":
		c.cmdInfo(args)
	case "options":
		c.cmdOptions()
	case "set":
		c.cmdSet(args)
	case "unset":
		c.cmdUnset(args)
	case "env":
		c.cmdEnv()
	case "scope":
		c.cmdScope(args)
	case "run":
		c.cmdRun()
	case "runs":
		c.cmdRuns()
	case "sessions":
		c.cmdSessions(args)
	case "report":
		c.cmdReport(args)
	case "loot":
		c.cmdLoot(args)
	case "version":
		fmt.Printf("talon %s\n", c.version)
	case "exit", "quit":
		return true
	default:
		fmt.Printf("Unknown command: %s (try 'help')\n", cmd)
	}
	return false
}

func (c *console) cmdHelp() {
	fmt.Print(`Commands:
  modules [keyword]         List or search modules
  use <module-id>           Select a module
  back                      Deselect the current module
  info [module-id]          Show module details
  options                   Show the current module's prompt sequence
  set <name> <value>        Set a global parameter (highest-precedence default)
  unset <name>              Remove a global parameter
  env                       Show global parameters
  scope add|show|clear      Manage the target scope guard
  run                       Run the current module (prompts for options)
  runs                      Show recent run history
  sessions save|load [file] Save or load collected results
  report [file]             Render collected results to an HTML report
  loot open|list|show|close Encrypted credential store
  version                   Show console version
  exit                      Leave the console
`)
}

func (c *console) cmdModules(args []string) {
	keyword := ""
	if len(args) > 0 {
		keyword = args[0]
	}

	metas := c.registry.Search(keyword, "", "")
	if len(metas) == 0 {
		fmt.Println("No modules matched.")
		return
	}
	printModuleTable(metas)
}

func (c *console) cmdUse(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: use <module-id>")
		return
	}
	mod, ok := c.registry.Get(args[0])
	if !ok {
		fmt.Printf("Module not found: %s\n", args[0])
		return
	}
	c.current = mod
	c.currentID = args[0]
}

func (c *console) cmdInfo(args []string) {
	id := c.currentID
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		fmt.Println("No module selected. Usage: info <module-id>")
		return
	}
	mod, ok := c.registry.Get(id)
	if !ok {
		fmt.Printf("Module not found: %s\n", id)
		return
	}
	printModuleMeta(mod.Meta())
}

// cmdOptions previews the prompt sequence with effective defaults, marking
// options whose visibility depends on earlier answers.
func (c *console) cmdOptions() {
	if c.current == nil {
		fmt.Println("No module selected. Use 'use <module-id>' first.")
		return
	}

	meta := c.current.Meta()
	fmt.Printf("Options for %s (prompted in this order):\n", meta.ID)
	for _, opt := range meta.Options {
		spec := prompt.Compile(opt, c.params)
		def := "(no default)"
		if spec.HasDefault {
			def = fmt.Sprintf("default: %v", spec.Default)
		}
		cond := ""
		if opt.When != nil {
			cond = fmt.Sprintf("  [asked when %s is %s]", opt.When.Option, strings.Join(opt.When.AnyOf, "|"))
		}
		fmt.Printf("  %-14s %-7s %s%s\n", spec.Name, spec.Kind, def, cond)
	}
}

func (c *console) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: set <name> <value>")
		return
	}
	value := strings.Join(args[1:], " ")
	c.params.Set(args[0], value)
	c.engine.AuditLogger.Log(audit.EventParamSet, c.cfg.Operator, "", map[string]string{
		"name": args[0],
	})
	fmt.Printf("%s => %s\n", args[0], value)
}

func (c *console) cmdUnset(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: unset <name>")
		return
	}
	c.params.Unset(args[0])
}

func (c *console) cmdEnv() {
	names := c.params.Names()
	if len(names) == 0 {
		fmt.Println("No global parameters set.")
		return
	}
	env := c.params.Env()
	for _, name := range names {
		fmt.Printf("  %s = %v\n", name, env[name])
	}
}

func (c *console) cmdScope(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: scope add <host|cidr> | scope show | scope clear")
		return
	}

	switch args[0] {
	case "add":
		if len(args) != 2 {
			fmt.Println("Usage: scope add <host|cidr>")
			return
		}
		if strings.Contains(args[1], "/") {
			c.scope.CIDRs = append(c.scope.CIDRs, args[1])
		} else {
			c.scope.Hosts = append(c.scope.Hosts, args[1])
		}
		c.runner.SetScope(scope.NewChecker(c.scope))
		fmt.Printf("Scope now: %d hosts, %d CIDRs\n", len(c.scope.Hosts), len(c.scope.CIDRs))
	case "show":
		if len(c.scope.Hosts) == 0 && len(c.scope.CIDRs) == 0 {
			fmt.Println("Scope is empty: all targets allowed.")
			return
		}
		for _, h := range c.scope.Hosts {
			fmt.Printf("  host %s\n", h)
		}
		for _, cidr := range c.scope.CIDRs {
			fmt.Printf("  cidr %s\n", cidr)
		}
	case "clear":
		c.scope = core.Scope{}
		c.runner.SetScope(nil)
		fmt.Println("Scope cleared.")
	default:
		fmt.Println("Usage: scope add <host|cidr> | scope show | scope clear")
	}
}

// ask implements the interactive prompt for one compiled option. Secrets are
// read without echo when stdin is a terminal.
func (c *console) ask(spec prompt.Spec) (string, error) {
	label := spec.Label
	if label == "" {
		label = spec.Name
	}
	if spec.HasDefault {
		fmt.Printf("  %s (%s) [%v]: ", label, spec.Name, spec.Default)
	} else {
		fmt.Printf("  %s (%s): ", label, spec.Name)
	}

	fd := int(os.Stdin.Fd())
	if spec.Kind == sdk.KindSecret && term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := c.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *console) cmdRun() {
	if c.current == nil {
		fmt.Println("No module selected. Use 'use <module-id>' first.")
		return
	}

	meta := c.current.Meta()

	run, err := c.runner.Execute(module.RunConfig{
		ModuleID: c.currentID,
		Params:   c.params,
		Ask:      c.ask,
		Progress: c.channel,
		Operator: c.cfg.Operator,
	})
	if err != nil {
		fmt.Printf("[!] %v\n", err)
		return
	}

	switch run.Status {
	case core.RunSuccess:
		fmt.Printf("[+] Run %s completed.\n", run.UUID)
		c.store.Record(meta.ID, run.Outputs)
		c.storeLoot(meta, run)
	case core.RunEmpty:
		fmt.Printf("[*] Run %s completed: no results.\n", run.UUID)
	case core.RunError:
		detail := ""
		if run.ErrorDetail != nil {
			detail = *run.ErrorDetail
		}
		fmt.Printf("[!] Run %s failed: %s\n", run.UUID, detail)
	}
}

// storeLoot files confirmed credential pairs into the open vault.
func (c *console) storeLoot(meta sdk.ModuleMeta, run *core.RunRecord) {
	if c.vault == nil {
		return
	}

	pairs, ok := run.Outputs["valid_pairs"].([]string)
	if !ok || len(pairs) == 0 {
		return
	}

	host, _ := run.Answers["host"].(string)
	port, _ := run.Answers["port"].(int)

	stored := 0
	for _, pair := range pairs {
		user, pass, found := strings.Cut(pair, ":")
		if !found {
			continue
		}
		cred := loot.Credential{
			Service:  meta.Service,
			Host:     host,
			Port:     port,
			User:     user,
			Password: pass,
			ModuleID: meta.ID,
			FoundAt:  time.Now().UTC(),
		}
		if err := c.vault.Put(cred); err != nil {
			fmt.Printf("[!] storing credential: %v\n", err)
			continue
		}
		stored++
	}

	if stored > 0 {
		c.engine.AuditLogger.Log(audit.EventLootStored, c.cfg.Operator, run.UUID, map[string]any{
			"module_id": meta.ID,
			"count":     stored,
		})
		fmt.Printf("[+] %d credential(s) filed in the loot vault.\n", stored)
	}
}

func (c *console) cmdRuns() {
	runs, err := c.runner.ListRuns("", "")
	if err != nil {
		fmt.Printf("[!] %v\n", err)
		return
	}
	if len(runs) == 0 {
		fmt.Println("No module runs recorded yet.")
		return
	}
	if len(runs) > 20 {
		runs = runs[:20]
	}
	printRunTable(runs)
}

func (c *console) sessionPath(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	name := fmt.Sprintf("session-%s.json", time.Now().UTC().Format("20060102-150405"))
	return filepath.Join(c.cfg.DataDir, "sessions", name)
}

func (c *console) cmdSessions(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: sessions save [file] | sessions load <file>")
		return
	}

	switch args[0] {
	case "save":
		path := c.sessionPath(args)
		if err := c.store.SaveFile(path); err != nil {
			fmt.Printf("[!] saving session: %v\n", err)
			return
		}
		c.engine.AuditLogger.Log(audit.EventSessionExport, c.cfg.Operator, "", map[string]string{"path": path})
		fmt.Printf("Session saved to %s (%d result sets).\n", path, c.store.Len())
	case "load":
		if len(args) != 2 {
			fmt.Println("Usage: sessions load <file>")
			return
		}
		if err := c.store.LoadFile(args[1]); err != nil {
			fmt.Printf("[!] loading session: %v\n", err)
			return
		}
		c.engine.AuditLogger.Log(audit.EventSessionImport, c.cfg.Operator, "", map[string]string{"path": args[1]})
		fmt.Printf("Session loaded: %d result sets.\n", c.store.Len())
	default:
		fmt.Println("Usage: sessions save [file] | sessions load <file>")
	}
}

func (c *console) cmdReport(args []string) {
	if c.store.Len() == 0 {
		fmt.Println("Nothing to report yet: run a module first.")
		return
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		name := fmt.Sprintf("report-%s.html", time.Now().UTC().Format("20060102-150405"))
		path = filepath.Join(c.cfg.DataDir, "reports", name)
	}

	if err := report.WriteHTML(path, c.cfg.ReportTitle, c.store.Data(), c.version); err != nil {
		fmt.Printf("[!] writing report: %v\n", err)
		return
	}
	c.engine.AuditLogger.Log(audit.EventReportGenerated, c.cfg.Operator, "", map[string]string{"path": path})
	fmt.Printf("Report written to %s\n", path)
}

func (c *console) cmdLoot(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: loot open | loot list | loot show <key> | loot close")
		return
	}

	switch args[0] {
	case "open":
		if c.vault != nil {
			fmt.Println("Loot vault already open.")
			return
		}
		pass, err := readPassphrase("Vault passphrase")
		if err != nil {
			fmt.Printf("[!] %v\n", err)
			return
		}
		vaultPath := filepath.Join(c.cfg.DataDir, loot.VaultFileName)
		vault, err := loot.OpenOrCreate(vaultPath, pass)
		if err != nil {
			fmt.Printf("[!] opening vault: %v\n", err)
			return
		}
		c.vault = vault
		fmt.Println("Loot vault open. Confirmed credentials will be filed automatically.")
	case "list":
		if c.vault == nil {
			fmt.Println("Loot vault is closed. Use 'loot open' first.")
			return
		}
		keys := c.vault.Keys()
		if len(keys) == 0 {
			fmt.Println("Vault is empty.")
			return
		}
		for _, key := range keys {
			fmt.Printf("  %s\n", key)
		}
	case "show":
		if c.vault == nil {
			fmt.Println("Loot vault is closed. Use 'loot open' first.")
			return
		}
		if len(args) != 2 {
			fmt.Println("Usage: loot show <key>")
			return
		}
		cred, err := c.vault.Get(args[1])
		if err != nil {
			fmt.Printf("[!] %v\n", err)
			return
		}
		fmt.Printf("  service:  %s\n", cred.Service)
		fmt.Printf("  host:     %s:%d\n", cred.Host, cred.Port)
		fmt.Printf("  user:     %s\n", cred.User)
		fmt.Printf("  password: %s\n", cred.Password)
		fmt.Printf("  module:   %s\n", cred.ModuleID)
		fmt.Printf("  found:    %s\n", cred.FoundAt.Format(time.RFC3339))
	case "close":
		if c.vault == nil {
			fmt.Println("Loot vault is not open.")
			return
		}
		if err := c.vault.Close(); err != nil {
			fmt.Printf("[!] closing vault: %v\n", err)
		}
		c.vault = nil
		fmt.Println("Loot vault closed.")
	default:
		fmt.Println("Usage: loot open | loot list | loot show <key> | loot close")
	}
}
