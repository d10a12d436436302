package watch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalRuns counts completed pipeline runs by outcome.
	TotalRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "requestwatch_runs_total",
		Help: "The total number of pipeline runs, labeled by outcome.",
	}, []string{"outcome"})
	// RecordsExtracted counts records received from the page extractor.
	RecordsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestwatch_records_extracted_total",
		Help: "The total number of candidate records extracted from the page.",
	})
	// RecordsNew counts records the ledger had never seen.
	RecordsNew = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestwatch_records_new_total",
		Help: "The total number of records detected as new.",
	})
	// RecordsDuplicate counts records skipped as already seen.
	RecordsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestwatch_records_duplicate_total",
		Help: "The total number of records skipped as duplicates.",
	})
	// MessagesSent counts successful sink deliveries.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestwatch_messages_sent_total",
		Help: "The total number of messages delivered to the sink.",
	})
	// MessageFailures counts per-message delivery failures.
	MessageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestwatch_message_failures_total",
		Help: "The total number of failed message deliveries.",
	})
	// LedgerPruned counts expired ledger entries dropped during pruning.
	LedgerPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestwatch_ledger_pruned_total",
		Help: "The total number of ledger entries removed by TTL pruning.",
	})
	// LedgerMigrated counts lazy legacy-to-primary fingerprint migrations.
	LedgerMigrated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestwatch_ledger_migrated_total",
		Help: "The total number of ledger entries migrated to the current fingerprint generation.",
	})
)
