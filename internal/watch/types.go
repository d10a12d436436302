// Package watch implements the change-detection and delivery pipeline: it
// normalizes records extracted from the watched page, fingerprints them,
// dedups against a persisted ledger, and relays genuinely new ones to the
// notification sink.
package watch

import "time"

// StateVersion is the persisted state schema version. State stores namespace
// their on-disk location with it so a schema change never misreads an older
// file.
const StateVersion = "v3"

// RawRecord is one candidate posting as delivered by the page extractor.
// Fields may be empty when the extractor could not resolve them; Link is
// always set (falling back to the page URL).
type RawRecord struct {
	Title       string
	User        string
	Price       string
	Description string
	When        string
	Link        string
}

// Record is a normalized posting. All string fields have collapsed
// whitespace and no leading/trailing space. Records are immutable after
// construction and live only for the duration of one run.
type Record struct {
	Title       string
	User        string
	Price       string
	Description string
	When        string
	Link        string
}

// NewRecord normalizes a raw record into its canonical form.
func NewRecord(raw RawRecord) Record {
	return Record{
		Title:       NormalizeField(raw.Title),
		User:        NormalizeField(raw.User),
		Price:       NormalizeField(raw.Price),
		Description: NormalizeField(raw.Description),
		When:        NormalizeField(raw.When),
		Link:        NormalizeField(raw.Link),
	}
}

// State is the persisted dedup ledger plus its seeding flags.
// Sent maps fingerprint hex to first-seen epoch milliseconds; an entry with
// a non-positive timestamp has an unknown age and is prune-eligible.
type State struct {
	Version       string           `json:"version"`
	Initialized   bool             `json:"initialized"`
	InitializedAt *time.Time       `json:"initialized_at,omitempty"`
	Sent          map[string]int64 `json:"sent"`
}

// NewState returns an empty, uninitialized state at the current version.
func NewState() State {
	return State{Version: StateVersion, Sent: make(map[string]int64)}
}

// Clone returns a deep copy so stores can hand out state without aliasing.
func (s State) Clone() State {
	out := s
	out.Sent = make(map[string]int64, len(s.Sent))
	for k, v := range s.Sent {
		out.Sent[k] = v
	}
	if s.InitializedAt != nil {
		t := *s.InitializedAt
		out.InitializedAt = &t
	}
	return out
}
