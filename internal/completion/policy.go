package completion

import "time"

// Policy controls how many times a failed attempt is retried and how long to
// wait between attempts.
type Policy struct {
	// Attempts is the number of retries after the initial attempt.
	Attempts int
	// InitialDelay is the wait before the first retry. It doubles after each retry.
	InitialDelay time.Duration
	// AttemptTimeout bounds a single upstream call. Zero means no per-attempt limit.
	AttemptTimeout time.Duration
}

// MaxDelay caps the backoff between attempts. Doubling stops once it is reached.
const MaxDelay = 5 * time.Minute

// DefaultPolicy returns 3 retries starting at 500ms (500ms, 1s, 2s).
func DefaultPolicy() Policy {
	return Policy{
		Attempts:     3,
		InitialDelay: 500 * time.Millisecond,
	}
}

// CallOption overrides the caller's policy for a single Complete call.
type CallOption func(*Policy)

// WithAttempts overrides the retry count for one call.
func WithAttempts(n int) CallOption {
	return func(p *Policy) { p.Attempts = n }
}

// WithInitialDelay overrides the first backoff delay for one call.
func WithInitialDelay(d time.Duration) CallOption {
	return func(p *Policy) { p.InitialDelay = d }
}

// WithAttemptTimeout overrides the per-attempt timeout for one call.
func WithAttemptTimeout(d time.Duration) CallOption {
	return func(p *Policy) { p.AttemptTimeout = d }
}
