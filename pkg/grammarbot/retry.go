package grammarbot

import (
	"time"

	"github.com/pkg/errors"
)

// BackoffMode selects how the delay between two attempts grows.
type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// Policy encapsulates retry/backoff settings for transient failures.
type Policy struct {
	Mode       BackoffMode
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // maximum retry attempts after the first failure
}

// DefaultPolicy returns the default policy (linear, 1s initial, 30s cap, 2 retries).
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy from raw settings; zero or unknown values fall back to defaults.
func NewPolicy(mode BackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	pol := DefaultPolicy()
	if maxRetries >= 0 {
		pol.MaxRetries = maxRetries
	}
	if initial > 0 {
		pol.Initial = initial
	}
	if maxDuration > 0 {
		pol.Max = maxDuration
	}
	switch mode {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		pol.Mode = mode
	}
	if pol.Initial > pol.Max {
		pol.Initial = pol.Max
	}

	return pol
}

// Delay returns the backoff delay for the given retry number (the first retry is 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}

	var delay time.Duration
	switch p.Mode {
	case BackoffFixed:
		delay = p.Initial
	case BackoffExponential:
		// stop shifting once the cap is reached to avoid overflowing
		delay = p.Initial
		for i := 1; i < retryCount && delay < p.Max; i++ {
			delay *= 2
		}
	default:
		delay = time.Duration(retryCount) * p.Initial
	}

	if delay > p.Max {
		return p.Max
	}

	return delay
}

// Validate returns an error if the policy cannot be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return errors.New("initial must be >0")
	}
	if p.Max <= 0 {
		return errors.New("max must be >0")
	}
	if p.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}

	return nil
}
