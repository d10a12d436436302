package watch

import (
	"fmt"
	"strings"
)

const (
	// MessageChunkLimit bounds one outbound message. Discord caps content at
	// 2000 characters; staying at 1900 leaves slack for markup the sink may
	// add.
	MessageChunkLimit = 1900

	// summaryLineCap truncates one compact summary line so a single
	// pathological record cannot blow a chunk past the limit.
	summaryLineCap = 300
)

// FormatRecord renders one new record as a standalone message. Absent
// fields are omitted entirely rather than emitted as empty lines.
func FormatRecord(r Record) string {
	var lines []string
	if r.Title != "" {
		lines = append(lines, fmt.Sprintf("**%s**", r.Title))
	}
	if r.Price != "" {
		lines = append(lines, "Bounty: "+r.Price)
	}
	if r.User != "" {
		lines = append(lines, "Posted by: "+r.User)
	}
	if r.When != "" {
		lines = append(lines, "When: "+r.When)
	}
	if r.Description != "" {
		lines = append(lines, r.Description)
	}
	if r.Link != "" {
		lines = append(lines, r.Link)
	}
	return strings.Join(lines, "\n")
}

// NothingFoundMessage is sent when a first-run broadcast finds zero records.
const NothingFoundMessage = "No requests are currently listed on the page."

// SummaryChunks renders the first-run broadcast: a count header followed by
// one compact line per record, split into chunks that each stay under
// limit. Records appear exactly once, in input order.
func SummaryChunks(records []Record, limit int) []string {
	if len(records) == 0 {
		return []string{NothingFoundMessage}
	}
	header := fmt.Sprintf("Currently listed requests: %d", len(records))

	var chunks []string
	var b strings.Builder
	b.WriteString(header)
	for _, r := range records {
		line := summaryLine(r)
		if b.Len()+1+len(line) > limit {
			chunks = append(chunks, b.String())
			b.Reset()
			b.WriteString(line)
			continue
		}
		b.WriteByte('\n')
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

func summaryLine(r Record) string {
	parts := make([]string, 0, 3)
	if r.Title != "" {
		parts = append(parts, r.Title)
	}
	if r.Price != "" {
		parts = append(parts, r.Price)
	}
	if r.User != "" {
		parts = append(parts, r.User)
	}
	line := "- " + strings.Join(parts, " | ")
	if r.Link != "" {
		line += " <" + r.Link + ">"
	}
	return capRunes(line, summaryLineCap)
}
