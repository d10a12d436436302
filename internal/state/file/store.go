// Package file persists watch state as a JSON document on local disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/request-watch/internal/watch"
)

// Store reads and writes the state file. The filename embeds the state
// schema version so a future schema bump starts from a fresh file instead
// of misreading the old one.
type Store struct {
	path   string
	logger *zap.Logger
}

// New creates the state directory if needed and returns a Store for it.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return &Store{
		path:   filepath.Join(dir, fmt.Sprintf("requests-%s.json", watch.StateVersion)),
		logger: logger,
	}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// rawState mirrors watch.State but defers Sent value decoding, so one
// malformed timestamp does not reject the whole file.
type rawState struct {
	Version       string                     `json:"version"`
	Initialized   bool                       `json:"initialized"`
	InitializedAt *time.Time                 `json:"initialized_at"`
	Sent          map[string]json.RawMessage `json:"sent"`
}

// Load reads the state file. A missing, unreadable, or malformed file is
// never fatal: the run proceeds from a fresh default state. Sent entries
// whose timestamp is not a number are kept with an unknown (zero) age so
// the next prune drops them.
func (s *Store) Load(ctx context.Context) (watch.State, error) {
	if err := ctx.Err(); err != nil {
		return watch.State{}, fmt.Errorf("context canceled: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("State file unreadable; starting fresh", zap.String("path", s.path), zap.Error(err))
		}
		return watch.NewState(), nil
	}

	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("State file corrupt; starting fresh", zap.String("path", s.path), zap.Error(err))
		return watch.NewState(), nil
	}

	state := watch.NewState()
	if raw.Version != "" {
		state.Version = raw.Version
	}
	state.Initialized = raw.Initialized
	state.InitializedAt = raw.InitializedAt
	for fp, val := range raw.Sent {
		var ts int64
		if err := json.Unmarshal(val, &ts); err != nil {
			s.logger.Warn("Ledger entry has non-numeric timestamp; marking prune-eligible",
				zap.String("fingerprint", fp))
			ts = 0
		}
		state.Sent[fp] = ts
	}
	return state, nil
}

// Save writes the state atomically: marshal to a temp file in the same
// directory, then rename over the destination. A crash mid-write leaves the
// previous file intact.
func (s *Store) Save(ctx context.Context, state watch.State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".requests-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file %s: %w", s.path, err)
	}
	return nil
}
