package watch

import (
	"context"
	"time"
)

// Extractor produces the raw candidate records for one run. Implementations
// own page fetching, noise filtering, and the per-run item cap; the pipeline
// only fingerprints, dedups, and delivers what it receives.
type Extractor interface {
	Extract(ctx context.Context) ([]RawRecord, error)
}

// Notifier sends one outbound message to the sink. A returned error means
// that single message failed; the pipeline treats it as non-fatal.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// StateStore loads and persists the dedup state. Load must tolerate a
// missing or damaged backing file by returning a fresh default state.
type StateStore interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// Clock returns the current time (useful for testing prune TTLs).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs for log correlation.
type IDGenerator interface {
	NewID() (string, error)
}
