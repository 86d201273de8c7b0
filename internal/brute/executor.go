package brute

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// ErrRejected is the explicit "credentials rejected" signal. Collaborators
// wrap or return it when the remote service refused the pair; any other
// error is treated as a transport failure and aborts the run.
var ErrRejected = errors.New("credentials rejected")

// AttemptFunc tries a single pair against the target service. A nil return
// means the pair is valid. Cancellation and timeouts of the individual
// attempt are the collaborator's responsibility.
type AttemptFunc func(p Pair) error

// Executor drives a pair sequence through an AttemptFunc strictly one at a
// time. Sequential execution is deliberate: it bounds the request rate
// against the target and protects per-attempt connection state held by the
// collaborator.
type Executor struct {
	Delay    time.Duration // wait between attempts; zero disables throttling
	Progress sdk.Progress
	Logger   zerolog.Logger

	// sleep is replaceable for tests.
	sleep func(time.Duration)
}

// NewExecutor creates an executor publishing findings to progress.
func NewExecutor(delay time.Duration, progress sdk.Progress, logger zerolog.Logger) *Executor {
	if progress == nil {
		progress = sdk.NoOpProgress
	}
	return &Executor{
		Delay:    delay,
		Progress: progress,
		Logger:   logger,
		sleep:    time.Sleep,
	}
}

// Run attempts every pair in order and returns the pairs classified valid.
// A rejected pair is terminal for that pair only; any other failure aborts
// the run immediately, returning the valid pairs accumulated so far together
// with the error. Exhausting all pairs is a successful outcome even when no
// pair was valid.
func (e *Executor) Run(pairs []Pair, attempt AttemptFunc) ([]Pair, error) {
	sleep := e.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var valid []Pair

	for i, p := range pairs {
		err := attempt(p)
		switch {
		case err == nil:
			valid = append(valid, p)
			e.Progress.Finding(sdk.Finding{Values: []string{p.User, p.Password}, Valid: true})
			e.Logger.Info().Str("user", p.User).Msg("valid credentials found")
		case errors.Is(err, ErrRejected):
			e.Progress.Finding(sdk.Finding{Values: []string{p.User, p.Password}, Valid: false})
			e.Logger.Debug().Str("user", p.User).Msg("credentials rejected")
		default:
			e.Logger.Error().Err(err).Str("user", p.User).Msg("attempt failed, aborting run")
			return valid, err
		}

		if e.Delay > 0 && i < len(pairs)-1 {
			sleep(e.Delay)
		}
	}

	return valid, nil
}
