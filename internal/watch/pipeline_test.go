package watch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	state   State
	saved   *State
	loadErr error
	saveErr error
}

func (s *fakeStore) Load(context.Context) (State, error) {
	if s.loadErr != nil {
		return State{}, s.loadErr
	}
	return s.state.Clone(), nil
}

func (s *fakeStore) Save(_ context.Context, state State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	snapshot := state.Clone()
	s.saved = &snapshot
	return nil
}

type fakeExtractor struct {
	raws []RawRecord
	err  error
}

func (e *fakeExtractor) Extract(context.Context) ([]RawRecord, error) {
	return e.raws, e.err
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, text)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeIDGen struct{}

func (fakeIDGen) NewID() (string, error) { return "test-run", nil }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestPipeline(store *fakeStore, extractor *fakeExtractor, notifier *fakeNotifier, cfg Config) *Pipeline {
	if cfg.LedgerTTL == 0 {
		cfg.LedgerTTL = 60 * 24 * time.Hour
	}
	return New(store, extractor, notifier, &fakeClock{now: testNow}, fakeIDGen{}, cfg, zap.NewNop())
}

func rawPair() []RawRecord {
	return []RawRecord{
		{Title: "$50 reward", User: "alice", Price: "$50", Link: "https://x/1"},
		{Title: "walk my dog", User: "bob", Price: "$20", Link: "https://x/2"},
	}
}

func initializedState(records ...Record) State {
	state := NewState()
	state.Initialized = true
	ts := testNow.Add(-24 * time.Hour)
	state.InitializedAt = &ts
	for _, rec := range records {
		state.MarkAll(rec, ts)
	}
	return state
}

func TestPipelineSeedBroadcast(t *testing.T) {
	t.Parallel()

	store := &fakeStore{state: NewState()}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{raws: rawPair()}, notifier, Config{FirstRun: true, SeedIfEmpty: true})

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, notifier.messages, 1, "one summary message, zero per-item messages")
	require.True(t, strings.HasPrefix(notifier.messages[0], "Currently listed requests: 2"))

	require.NotNil(t, store.saved)
	require.True(t, store.saved.Initialized)
	require.Equal(t, testNow, *store.saved.InitializedAt)
	for _, raw := range rawPair() {
		for _, fp := range Fingerprints(NewRecord(raw)) {
			require.Contains(t, store.saved.Sent, fp)
		}
	}
}

func TestPipelineSeedBroadcastNothingFound(t *testing.T) {
	t.Parallel()

	store := &fakeStore{state: NewState()}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{}, notifier, Config{FirstRun: true})

	require.NoError(t, p.Run(context.Background()))

	require.Equal(t, []string{NothingFoundMessage}, notifier.messages)
	require.True(t, store.saved.Initialized)
}

func TestPipelineSilentSeed(t *testing.T) {
	t.Parallel()

	store := &fakeStore{state: NewState()}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{raws: rawPair()}, notifier, Config{SeedIfEmpty: true})

	require.NoError(t, p.Run(context.Background()))

	require.Empty(t, notifier.messages, "silent seed must not deliver")
	require.True(t, store.saved.Initialized)
	for _, raw := range rawPair() {
		require.True(t, store.saved.IsSeen(NewRecord(raw)).Seen)
	}
}

// TestPipelineFirstRunIdempotent checks that a forgotten first-run flag on
// an already-initialized ledger falls through to the incremental path.
func TestPipelineFirstRunIdempotent(t *testing.T) {
	t.Parallel()

	raws := rawPair()
	seen := NewRecord(raws[0])
	store := &fakeStore{state: initializedState(seen)}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{raws: raws}, notifier, Config{FirstRun: true})

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	require.NotContains(t, notifier.messages[0], "Currently listed requests", "no duplicate summary")
	require.Equal(t, FormatRecord(NewRecord(raws[1])), notifier.messages[0])
}

func TestPipelineIncrementalDelivery(t *testing.T) {
	t.Parallel()

	raws := rawPair()
	seen := NewRecord(raws[0])
	unseen := NewRecord(raws[1])
	store := &fakeStore{state: initializedState(seen)}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{raws: raws}, notifier, Config{})

	require.NoError(t, p.Run(context.Background()))

	require.Equal(t, []string{FormatRecord(unseen)}, notifier.messages)
	require.True(t, store.saved.IsSeen(seen).Seen)
	require.True(t, store.saved.IsSeen(unseen).Seen)
}

// TestPipelineInRunDuplicate covers the duplicate-pair scenario: the same
// record twice in one run produces one delivery and one ledger entry per
// generation, not two.
func TestPipelineInRunDuplicate(t *testing.T) {
	t.Parallel()

	raw := RawRecord{Title: "$50 reward", User: "alice", Link: "https://x/1"}
	store := &fakeStore{state: initializedState()}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{raws: []RawRecord{raw, raw}}, notifier, Config{})

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	require.Len(t, store.saved.Sent, len(Generations()))
	require.Contains(t, store.saved.Sent, PrimaryFingerprint(NewRecord(raw)))
}

// TestPipelineLegacyMigration ensures a record known only under a legacy
// generation is not re-announced, and the ledger silently gains the primary
// fingerprint with the legacy timestamp.
func TestPipelineLegacyMigration(t *testing.T) {
	t.Parallel()

	raw := rawPair()[0]
	rec := NewRecord(raw)
	legacyFP := Fingerprints(rec)[1]
	legacyTS := testNow.Add(-10 * 24 * time.Hour).UnixMilli()

	state := initializedState()
	state.Sent[legacyFP] = legacyTS
	store := &fakeStore{state: state}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{raws: []RawRecord{raw}}, notifier, Config{})

	require.NoError(t, p.Run(context.Background()))

	require.Empty(t, notifier.messages, "migration must not trigger delivery")
	require.Equal(t, legacyTS, store.saved.Sent[PrimaryFingerprint(rec)], "old timestamp preserved")
	require.Equal(t, legacyTS, store.saved.Sent[legacyFP])
}

// TestPipelineDeliveryFailureStillMarks verifies the anti-spam tradeoff: a
// failed send does not unmark the record, and the run still succeeds.
func TestPipelineDeliveryFailureStillMarks(t *testing.T) {
	t.Parallel()

	raw := rawPair()[0]
	store := &fakeStore{state: initializedState()}
	notifier := &fakeNotifier{err: errors.New("webhook returned 500")}
	p := newTestPipeline(store, &fakeExtractor{raws: []RawRecord{raw}}, notifier, Config{})

	require.NoError(t, p.Run(context.Background()))

	require.Empty(t, notifier.messages)
	require.NotNil(t, store.saved)
	require.True(t, store.saved.IsSeen(NewRecord(raw)).Seen, "failed delivery still marked seen")
}

// TestPipelineNothingNewStillPersists checks the "nothing new" path keeps
// pruning effects by persisting anyway.
func TestPipelineNothingNewStillPersists(t *testing.T) {
	t.Parallel()

	raw := rawPair()[0]
	state := initializedState(NewRecord(raw))
	state.Sent["expired"] = testNow.Add(-90 * 24 * time.Hour).UnixMilli()
	store := &fakeStore{state: state}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{raws: []RawRecord{raw}}, notifier, Config{})

	require.NoError(t, p.Run(context.Background()))

	require.Empty(t, notifier.messages)
	require.NotNil(t, store.saved, "state persisted even with nothing new")
	require.NotContains(t, store.saved.Sent, "expired")
}

// TestPipelinePrunedRecordReannounced checks an expired fingerprint reads
// as new again.
func TestPipelinePrunedRecordReannounced(t *testing.T) {
	t.Parallel()

	raw := rawPair()[0]
	rec := NewRecord(raw)
	state := initializedState()
	expired := testNow.Add(-90 * 24 * time.Hour)
	state.MarkAll(rec, expired)
	store := &fakeStore{state: state}
	notifier := &fakeNotifier{}
	p := newTestPipeline(store, &fakeExtractor{raws: []RawRecord{raw}}, notifier, Config{})

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, notifier.messages, 1, "expired record announced again")
	require.Equal(t, testNow.UnixMilli(), store.saved.Sent[PrimaryFingerprint(rec)])
}

func TestPipelineExtractErrorAborts(t *testing.T) {
	t.Parallel()

	store := &fakeStore{state: initializedState()}
	p := newTestPipeline(store, &fakeExtractor{err: errors.New("boom")}, &fakeNotifier{}, Config{})

	err := p.Run(context.Background())
	require.Error(t, err)
	require.Nil(t, store.saved, "aborted run must not overwrite persisted state")
}

func TestPipelinePersistErrorIsFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{state: initializedState(), saveErr: errors.New("disk full")}
	p := newTestPipeline(store, &fakeExtractor{raws: rawPair()}, &fakeNotifier{}, Config{})

	require.ErrorContains(t, p.Run(context.Background()), "persist state")
}

func TestResolveMode(t *testing.T) {
	t.Parallel()

	uninitNonEmpty := NewState()
	uninitNonEmpty.Sent["leftover"] = 1

	tests := []struct {
		name  string
		state State
		cfg   Config
		want  runMode
	}{
		{name: "initialized always incremental", state: initializedState(), cfg: Config{FirstRun: true, SeedIfEmpty: true}, want: modeIncremental},
		{name: "fresh with first run", state: NewState(), cfg: Config{FirstRun: true}, want: modeSeedBroadcast},
		{name: "fresh silent seed", state: NewState(), cfg: Config{SeedIfEmpty: true}, want: modeSeedSilent},
		{name: "uninitialized but non-empty ledger", state: uninitNonEmpty, cfg: Config{SeedIfEmpty: true}, want: modeIncremental},
		{name: "all seeding disabled", state: NewState(), cfg: Config{}, want: modeIncremental},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newTestPipeline(&fakeStore{}, &fakeExtractor{}, &fakeNotifier{}, tt.cfg)
			require.Equal(t, tt.want, p.resolveMode(tt.state))
		})
	}
}
