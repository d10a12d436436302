package watch

import "time"

// SeenResult reports the outcome of a ledger lookup for one record.
type SeenResult struct {
	Seen        bool
	Generation  string // generation whose fingerprint matched
	Fingerprint string // the matched fingerprint
	Primary     string // current-generation fingerprint, always set
}

// Prune removes ledger entries whose first-seen timestamp is unknown or
// older than now minus ttl, and returns how many were dropped. Callers run
// it before seen-checks so an expired fingerprint reads as new again.
func (s *State) Prune(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl).UnixMilli()
	removed := 0
	for fp, ts := range s.Sent {
		if ts <= 0 || ts < cutoff {
			delete(s.Sent, fp)
			removed++
		}
	}
	return removed
}

// IsSeen evaluates the record's candidate fingerprints in generation
// priority order and returns the first match, or an unseen result.
func (s *State) IsSeen(r Record) SeenResult {
	res := SeenResult{Primary: PrimaryFingerprint(r)}
	fps := Fingerprints(r)
	for i, fp := range fps {
		if _, ok := s.Sent[fp]; ok {
			res.Seen = true
			res.Generation = generations[i].ID
			res.Fingerprint = fp
			return res
		}
	}
	return res
}

// MarkAll records every generation's fingerprint for r with the same
// timestamp, so the record stays recognized even if a future release keys
// lookups differently.
func (s *State) MarkAll(r Record, ts time.Time) {
	ms := ts.UnixMilli()
	for _, fp := range Fingerprints(r) {
		s.Sent[fp] = ms
	}
}

// MigrateToPrimary lazily upgrades the ledger when a record matched only a
// legacy generation: the primary fingerprint is added with the legacy
// entry's timestamp. No delivery is implied; the record is still "seen".
func (s *State) MigrateToPrimary(res SeenResult) bool {
	if !res.Seen || res.Fingerprint == res.Primary {
		return false
	}
	if _, ok := s.Sent[res.Primary]; ok {
		return false
	}
	s.Sent[res.Primary] = s.Sent[res.Fingerprint]
	return true
}
