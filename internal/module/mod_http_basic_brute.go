package module

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/talon-framework/talon/internal/brute"
	"github.com/talon-framework/talon/internal/proto"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// HTTPBasicBruteModule guesses HTTP Basic credentials against a URL.
type HTTPBasicBruteModule struct {
	log     zerolog.Logger
	attempt func(targetURL string, timeout time.Duration) brute.AttemptFunc
}

func (m *HTTPBasicBruteModule) Meta() sdk.ModuleMeta {
	return sdk.ModuleMeta{
		ID:          "http.basic-brute",
		Name:        "HTTP Basic Auth Brute Force",
		Version:     "1.0.0",
		Description: "Attempts username/password pairs against an HTTP Basic protected URL. A 401 or 403 response counts as a rejection; 2xx and 3xx confirm the pair.",
		Service:     "http",
		RiskClass:   sdk.RiskNoisy,
		Options: []sdk.OptionSpec{
			{Name: "url", Kind: sdk.KindString, Description: "Target URL, including scheme"},
			{Name: "users", Kind: sdk.KindString, Description: "Username, or path to a username wordlist"},
			{Name: "passwords", Kind: sdk.KindString, Description: "Password, or path to a password wordlist"},
			{Name: "user_as_pass", Kind: sdk.KindBool, Default: false, Description: "Also try each username as its own password"},
			{Name: "delay_ms", Kind: sdk.KindInt, Default: 500, Description: "Delay between attempts in milliseconds"},
			{Name: "timeout_ms", Kind: sdk.KindInt, Default: 10000, Description: "Per-request timeout in milliseconds"},
		},
		References: []string{
			"https://attack.mitre.org/techniques/T1110/001/",
		},
		Author: "TALON Core",
	}
}

func (m *HTTPBasicBruteModule) Run(ctx sdk.RunContext, prog sdk.Progress) sdk.RunResult {
	target := ctx.AnswerString("url")
	if target == "" {
		return sdk.ErrResult(fmt.Errorf("url is required"))
	}
	if _, err := url.ParseRequestURI(target); err != nil {
		return sdk.ErrResult(fmt.Errorf("invalid url %q: %w", target, err))
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
		attemptFactory = proto.HTTPBasicAttempt
	}
	timeout := time.Duration(ctx.AnswerInt("timeout_ms")) * time.Millisecond
	attempt := attemptFactory(target, timeout)

	delay := time.Duration(ctx.AnswerInt("delay_ms")) * time.Millisecond
	exec := brute.NewExecutor(delay, prog, m.log)

	valid, err := exec.Run(pairs, attempt)
	if err != nil {
		return sdk.ErrResult(fmt.Errorf("http brute aborted after %d valid pairs: %w", len(valid), err))
	}
	if len(valid) == 0 {
		return sdk.RunResult{}
	}

	return sdk.RunResult{
		Outputs: map[string]any{
			"valid_pairs":   pairStrings(valid),
			"valid_count":   len(valid),
			"attempt_count": len(pairs),
			"url":           target,
		},
	}
}
