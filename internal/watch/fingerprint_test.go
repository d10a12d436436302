package watch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return NewRecord(RawRecord{
		Title:       "$50 reward",
		User:        "alice",
		Price:       "$50",
		Description: "fix my fence",
		When:        "this weekend",
		Link:        "https://x/1",
	})
}

func TestFingerprintsDeterministic(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	first := Fingerprints(rec)
	second := Fingerprints(rec)
	require.Equal(t, first, second)
	require.Len(t, first, len(Generations()))
	for _, fp := range first {
		require.Len(t, fp, fingerprintHexLen)
	}
}

func TestPrimaryFingerprintIsFirstGeneration(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	require.Equal(t, Fingerprints(rec)[0], PrimaryFingerprint(rec))
}

// TestFingerprintsVaryByField confirms each generation reacts to changes in
// the fields it keys on and ignores the rest.
func TestFingerprintsVaryByField(t *testing.T) {
	t.Parallel()

	base := sampleRecord()

	tests := []struct {
		name          string
		mutate        func(Record) Record
		primaryDiffer bool
		legacyDiffer  bool
	}{
		{
			name:          "price changes both",
			mutate:        func(r Record) Record { r.Price = "$75"; return r },
			primaryDiffer: true,
			legacyDiffer:  true,
		},
		{
			name:          "user changes only primary",
			mutate:        func(r Record) Record { r.User = "bob"; return r },
			primaryDiffer: true,
			legacyDiffer:  false,
		},
		{
			name:          "description changes only primary",
			mutate:        func(r Record) Record { r.Description = "other text"; return r },
			primaryDiffer: true,
			legacyDiffer:  false,
		},
		{
			name:          "title changes only legacy",
			mutate:        func(r Record) Record { r.Title = "$75 reward"; return r },
			primaryDiffer: false,
			legacyDiffer:  true,
		},
		{
			name:          "link changes both",
			mutate:        func(r Record) Record { r.Link = "https://x/2"; return r },
			primaryDiffer: true,
			legacyDiffer:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Fingerprints(tt.mutate(base))
			want := Fingerprints(base)
			require.Equal(t, tt.primaryDiffer, got[0] != want[0], "primary")
			require.Equal(t, tt.legacyDiffer, got[1] != want[1], "legacy")
		})
	}
}

// TestFingerprintIgnoresDescriptionPastCap checks the capped description
// prefix is what participates in hashing.
func TestFingerprintIgnoresDescriptionPastCap(t *testing.T) {
	t.Parallel()

	prefix := strings.Repeat("a ", descriptionFingerprintCap) // normalizes well past the cap
	r1 := sampleRecord()
	r1.Description = NormalizeField(prefix + "tail one")
	r2 := sampleRecord()
	r2.Description = NormalizeField(prefix + "tail two")

	require.Equal(t, PrimaryFingerprint(r1), PrimaryFingerprint(r2))
}

func TestGenerationsOrder(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"v2", "v1"}, Generations())
}
