// Package sdk provides the module developer interface for TALON modules.
// Every module implements the Module interface and declares its metadata,
// including its ordered option schema, via ModuleMeta.
package sdk

// RiskClass constants for module classification.
const (
	RiskReadOnly  = "read_only"
	RiskIntrusive = "intrusive"
	RiskNoisy     = "noisy"
)

// Option value kinds understood by the prompt layer.
const (
	KindString = "string"
	KindInt    = "int"
	KindBool   = "bool"
	KindSecret = "secret" // prompted without echo
)

// WhenEquals is a visibility predicate: the option is prompted only when the
// referenced option has already been answered with one of the accepted values
// (compared case-insensitively). A nil predicate means always visible.
type WhenEquals struct {
	Option string   `json:"option"`
	AnyOf  []string `json:"any_of"`
}

// OptionSpec describes one configurable module input.
// Default is presence-flagged: nil means no default, so zero values like
// 0 or false are honored as real defaults.
type OptionSpec struct {
	Name        string      `json:"name"`
	Kind        string      `json:"kind"`
	Default     any         `json:"default,omitempty"`
	Description string      `json:"description"`
	When        *WhenEquals `json:"when,omitempty"`
}

// ModuleMeta declares everything the runtime needs to know about a module
// before running it. Metadata is immutable once the module is registered.
type ModuleMeta struct {
	ID          string       `json:"id"`      // e.g., ssh.login-brute
	Name        string       `json:"name"`    // Human-readable name
	Version     string       `json:"version"` // semver
	Description string       `json:"description"`
	Service     string       `json:"service"` // Target protocol/service (ssh, ftp, http, tcp)
	RiskClass   string       `json:"risk_class"`
	Options     []OptionSpec `json:"options"` // Declaration order is prompt order
	References  []string     `json:"references,omitempty"`
	Author      string       `json:"author"`
}

// RunContext provides a module with its resolved answers for one execution.
// Options skipped by a visibility predicate are absent from Answers.
type RunContext struct {
	Answers map[string]any
	RunID   string
}

// AnswerString returns a string answer, or "" when absent.
func (ctx RunContext) AnswerString(name string) string {
	if v, ok := ctx.Answers[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AnswerInt returns an int answer, or 0 when absent.
func (ctx RunContext) AnswerInt(name string) int {
	if v, ok := ctx.Answers[name]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// AnswerBool returns a bool answer, or false when absent.
func (ctx RunContext) AnswerBool(name string) bool {
	if v, ok := ctx.Answers[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Finding is one interim result reported by a running module: a candidate
// pair (one or two values) and whether it was confirmed valid.
type Finding struct {
	Values []string `json:"values"`
	Valid  bool     `json:"valid"`
}

// Progress carries live findings from a running module to the presentation layer.
type Progress interface {
	Finding(f Finding)
}

// RunResult is the output of a module execution.
type RunResult struct {
	Outputs  map[string]any `json:"outputs,omitempty"`
	Error    error          `json:"-"`
	ErrorMsg string         `json:"error,omitempty"`
}

// ErrResult creates a RunResult from an error.
func ErrResult(err error) RunResult {
	return RunResult{Error: err, ErrorMsg: err.Error()}
}

// Module is the interface that all TALON modules must implement.
type Module interface {
	Meta() ModuleMeta
	Run(ctx RunContext, progress Progress) RunResult
}

type noOpProgress struct{}

func (noOpProgress) Finding(Finding) {}

// NoOpProgress is a singleton progress reporter that discards findings.
var NoOpProgress Progress = noOpProgress{}
