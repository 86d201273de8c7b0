// Package prompt turns a module's declarative option schema into an ordered,
// conditionally visible interactive resolution sequence. Options are resolved
// strictly in declaration order because later visibility predicates may
// reference earlier answers.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/talon-framework/talon/internal/session"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// Spec is one compiled prompt presented to the operator. Label carries the
// option description and degrades to an empty string for a malformed
// descriptor rather than raising an error.
type Spec struct {
	Name       string
	Label      string
	Kind       string
	Default    any  // effective default; meaningful only when HasDefault
	HasDefault bool // presence-flagged: a default of 0 or false is still a default
}

// Asker suspends resolution at one visible prompt and returns the operator's
// raw input. An empty string accepts the effective default.
type Asker func(Spec) (string, error)

// EffectiveDefault computes the highest-precedence default for an option:
// the session parameter if present, else the option's own default if
// defined, else none. Presence is what matters, never truthiness.
func EffectiveDefault(opt sdk.OptionSpec, params *session.Params) (any, bool) {
	if params != nil {
		if v, ok := params.Get(opt.Name); ok {
			return v, true
		}
	}
	if opt.Default != nil {
		return opt.Default, true
	}
	return nil, false
}

// Visible evaluates an option's visibility predicate against the answers
// resolved so far. An absent predicate means always visible. A predicate
// referencing an unresolved option, or one whose answer is outside the
// accepted set, hides the option entirely.
func Visible(when *sdk.WhenEquals, answers map[string]any) bool {
	if when == nil {
		return true
	}
	answered, ok := answers[when.Option]
	if !ok {
		return false
	}
	got := fmt.Sprint(answered)
	for _, accepted := range when.AnyOf {
		if strings.EqualFold(got, accepted) {
			return true
		}
	}
	return false
}

// Compile produces the prompt spec for one option given the session store.
func Compile(opt sdk.OptionSpec, params *session.Params) Spec {
	def, hasDef := EffectiveDefault(opt, params)
	return Spec{
		Name:       opt.Name,
		Label:      opt.Description,
		Kind:       opt.Kind,
		Default:    def,
		HasDefault: hasDef,
	}
}

// Resolve walks the option schema in declaration order, asking for each
// visible option and collecting typed answers. Options skipped by their
// predicate are absent from the result, not nil. The only errors returned
// are the asker's own (input stream failures); malformed values degrade
// silently to the default or the kind's zero value.
func Resolve(opts []sdk.OptionSpec, params *session.Params, ask Asker) (map[string]any, error) {
	answers := make(map[string]any, len(opts))
	for _, opt := range opts {
		if !Visible(opt.When, answers) {
			continue
		}

		spec := Compile(opt, params)
		raw, err := ask(spec)
		if err != nil {
			return nil, err
		}
		answers[opt.Name] = coerce(opt.Kind, strings.TrimSpace(raw), spec)
	}
	return answers, nil
}

// coerce converts raw operator input to the option's kind. Empty input
// accepts the effective default; unparseable input falls back the same way.
func coerce(kind, raw string, spec Spec) any {
	if raw == "" {
		if spec.HasDefault {
			return coerceDefault(kind, spec.Default)
		}
		return zeroOf(kind)
	}

	switch kind {
	case sdk.KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			if spec.HasDefault {
				return coerceDefault(kind, spec.Default)
			}
			return 0
		}
		return n
	case sdk.KindBool:
		switch strings.ToLower(raw) {
		case "true", "yes", "y", "1":
			return true
		case "false", "no", "n", "0":
			return false
		}
		if spec.HasDefault {
			return coerceDefault(kind, spec.Default)
		}
		return false
	default:
		return raw
	}
}

// coerceDefault normalizes an effective default to the option's kind.
// Session globals arrive as raw console strings, so a default like "1000"
// for an int option must become 1000 before it reaches the module, or the
// typed answer accessors would read it as the kind's zero value.
func coerceDefault(kind string, def any) any {
	switch kind {
	case sdk.KindInt:
		switch n := def.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			if v, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return v
			}
			return 0
		default:
			return 0
		}
	case sdk.KindBool:
		switch b := def.(type) {
		case bool:
			return b
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "yes", "y", "1":
				return true
			}
			return false
		default:
			return false
		}
	default:
		if s, ok := def.(string); ok {
			return s
		}
		return fmt.Sprint(def)
	}
}

func zeroOf(kind string) any {
	switch kind {
	case sdk.KindInt:
		return 0
	case sdk.KindBool:
		return false
	default:
		return ""
	}
}
