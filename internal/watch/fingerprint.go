package watch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// fingerprintHexLen is the truncated digest length. Sixteen hex characters
// (64 bits) keep the ledger compact while collisions stay far out of reach
// for the handful of postings a page carries.
const fingerprintHexLen = 16

// Generation is one historically fixed field-subset formula for computing a
// record fingerprint. The extraction schema changed across releases; every
// formula ever shipped stays in the list so records recorded under an old
// one are still recognized today.
type Generation struct {
	ID     string
	fields func(Record) []string
}

// generations is evaluated in priority order, current formula first.
// generations[0] defines the primary fingerprint.
var generations = []Generation{
	{
		ID: "v2",
		fields: func(r Record) []string {
			return []string{r.Price, r.User, capRunes(r.Description, descriptionFingerprintCap), r.When, r.Link}
		},
	},
	{
		ID: "v1",
		fields: func(r Record) []string {
			// The second element was a "meta" field that current-format
			// records no longer carry. It stays in the formula so digests of
			// historically recorded entries keep matching.
			return []string{r.Title, "", r.When, r.Price, r.Link}
		},
	},
}

// Generations returns the IDs of all known formulas, current first.
func Generations() []string {
	ids := make([]string, len(generations))
	for i, g := range generations {
		ids[i] = g.ID
	}
	return ids
}

// Fingerprints computes every generation's fingerprint for r, current
// generation first. Deterministic for identical normalized field values.
func Fingerprints(r Record) []string {
	out := make([]string, len(generations))
	for i, g := range generations {
		out[i] = digest(g.fields(r))
	}
	return out
}

// PrimaryFingerprint is the current generation's fingerprint for r. New
// ledger entries are always keyed by it.
func PrimaryFingerprint(r Record) string {
	return digest(generations[0].fields(r))
}

// digest serializes the field tuple as a JSON array (fixed order, no key
// enumeration involved) and returns the truncated SHA-256 hex.
func digest(fields []string) string {
	payload, err := json.Marshal(fields)
	if err != nil {
		// A []string cannot fail to marshal; guard anyway.
		payload = []byte{}
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:fingerprintHexLen]
}
