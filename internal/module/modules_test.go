package module

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"testing"

	"github.com/rs/zerolog"
	"github.com/talon-framework/talon/internal/brute"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// stubAttempt accepts exactly the pairs listed in valid and rejects the rest.
func stubAttempt(valid map[string]bool) brute.AttemptFunc {
	return func(p brute.Pair) error {
		if valid[p.User+":"+p.Password] {
			return nil
		}
		return fmt.Errorf("%s: %w", p.User, brute.ErrRejected)
	}
}

func bruteAnswers(extra map[string]any) map[string]any {
	answers := map[string]any{
		"host":         "10.0.0.5",
		"port":         22,
		"users":        "root",
		"passwords":    "toor",
		"user_as_pass": false,
		"delay_ms":     0,
		"timeout_ms":   50,
	}
	for k, v := range extra {
		answers[k] = v
	}
	return answers
}

func TestSSHBruteModuleFindsValidPair(t *testing.T) {
	mod := &SSHBruteModule{
		log: zerolog.Nop(),
		attempt: func(host string, port int, timeout time.Duration) brute.AttemptFunc {
			return stubAttempt(map[string]bool{"root:toor": true})
		},
	}

	result := mod.Run(sdk.RunContext{Answers: bruteAnswers(nil)}, sdk.NoOpProgress)
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}

	pairs, _ := result.Outputs["valid_pairs"].([]string)
	if len(pairs) != 1 || pairs[0] != "root:toor" {
		t.Errorf("valid_pairs = %v", pairs)
	}
	if result.Outputs["attempt_count"] != 1 {
		t.Errorf("attempt_count = %v", result.Outputs["attempt_count"])
	}
}

func TestSSHBruteModuleExhaustedIsEmpty(t *testing.T) {
	mod := &SSHBruteModule{
		log: zerolog.Nop(),
		attempt: func(host string, port int, timeout time.Duration) brute.AttemptFunc {
			return stubAttempt(nil)
		},
	}

	result := mod.Run(sdk.RunContext{Answers: bruteAnswers(nil)}, sdk.NoOpProgress)
	if result.Error != nil {
		t.Fatalf("exhaustion is not a failure: %v", result.Error)
	}
	if len(result.Outputs) != 0 {
		t.Errorf("outputs = %v, want none", result.Outputs)
	}
}

func TestSSHBruteModuleFatalErrorAborts(t *testing.T) {
	mod := &SSHBruteModule{
		log: zerolog.Nop(),
		attempt: func(host string, port int, timeout time.Duration) brute.AttemptFunc {
			return func(p brute.Pair) error {
				return errors.New("connection reset")
			}
		},
	}

	result := mod.Run(sdk.RunContext{Answers: bruteAnswers(nil)}, sdk.NoOpProgress)
	if result.Error == nil {
		t.Fatal("expected transport failure to surface")
	}
}

func TestSSHBruteModuleRequiresHost(t *testing.T) {
	mod := &SSHBruteModule{}
	result := mod.Run(sdk.RunContext{Answers: bruteAnswers(map[string]any{"host": ""})}, sdk.NoOpProgress)
	if result.Error == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestFTPBruteModuleUserAsPass(t *testing.T) {
	var attempted []brute.Pair
	mod := &FTPBruteModule{
		log: zerolog.Nop(),
		attempt: func(host string, port int, timeout time.Duration) brute.AttemptFunc {
			return func(p brute.Pair) error {
				attempted = append(attempted, p)
				return fmt.Errorf("%w", brute.ErrRejected)
			}
		},
	}

	answers := bruteAnswers(map[string]any{"port": 21, "user_as_pass": true})
	result := mod.Run(sdk.RunContext{Answers: answers}, sdk.NoOpProgress)
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}

	want := []brute.Pair{{User: "root", Password: "root"}, {User: "root", Password: "toor"}}
	if len(attempted) != len(want) {
		t.Fatalf("attempted %d pairs, want %d", len(attempted), len(want))
	}
	for i, p := range want {
		if attempted[i] != p {
			t.Errorf("pair %d = %v, want %v", i, attempted[i], p)
		}
	}
}

func TestHTTPBasicBruteModuleRejectsBadURL(t *testing.T) {
	mod := &HTTPBasicBruteModule{}
	answers := map[string]any{
		"url": "not a url", "users": "a", "passwords": "b",
		"delay_ms": 0, "timeout_ms": 50,
	}
	result := mod.Run(sdk.RunContext{Answers: answers}, sdk.NoOpProgress)
	if result.Error == nil {
		t.Fatal("expected error for malformed url")
	}
}

func TestTCPBannerModule(t *testing.T) {
	var gotProbe string
	mod := &TCPBannerModule{
		log: zerolog.Nop(),
		grab: func(host string, port int, probe string, timeout time.Duration) (string, error) {
			gotProbe = probe
			return "220 ftp ready", nil
		},
	}

	answers := map[string]any{
		"host": "10.0.0.5", "port": 21,
		"send_probe": false, "timeout_ms": 50,
	}
	result := mod.Run(sdk.RunContext{Answers: answers}, sdk.NoOpProgress)
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}
	if result.Outputs["banner"] != "220 ftp ready" {
		t.Errorf("banner = %v", result.Outputs["banner"])
	}
	if gotProbe != "" {
		t.Errorf("probe sent without send_probe: %q", gotProbe)
	}
}

func TestSSHBruteModuleLogsAttempts(t *testing.T) {
	var buf bytes.Buffer
	mod := &SSHBruteModule{
		log: zerolog.New(&buf),
		attempt: func(host string, port int, timeout time.Duration) brute.AttemptFunc {
			return stubAttempt(map[string]bool{"root:toor": true})
		},
	}

	result := mod.Run(sdk.RunContext{Answers: bruteAnswers(nil)}, sdk.NoOpProgress)
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}
	if !strings.Contains(buf.String(), "valid credentials found") {
		t.Errorf("executor logging not wired through the module logger: %q", buf.String())
	}
}

func TestTCPBannerModuleSilentService(t *testing.T) {
	mod := &TCPBannerModule{
		log: zerolog.Nop(),
		grab: func(host string, port int, probe string, timeout time.Duration) (string, error) {
			return "", nil
		},
	}

	answers := map[string]any{"host": "10.0.0.5", "port": 9999, "send_probe": false, "timeout_ms": 50}
	result := mod.Run(sdk.RunContext{Answers: answers}, sdk.NoOpProgress)
	if result.Error != nil {
		t.Fatalf("silent service is not a failure: %v", result.Error)
	}
	if len(result.Outputs) != 0 {
		t.Errorf("outputs = %v, want none", result.Outputs)
	}
}
