package watch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds the pipeline knobs for one run.
type Config struct {
	// FirstRun selects the broadcast seeding path for an uninitialized
	// ledger. Once the ledger is initialized the flag is ignored, so leaving
	// it enabled across runs cannot re-broadcast history.
	FirstRun bool
	// SeedIfEmpty silently absorbs the current page into an uninitialized,
	// empty ledger instead of announcing the backlog.
	SeedIfEmpty bool
	// LedgerTTL is how long a fingerprint stays in the ledger before an
	// unchanged posting would be announced again.
	LedgerTTL time.Duration
	// SendDelay is the mandatory pause between consecutive sink messages.
	SendDelay time.Duration
}

// Pipeline executes one normalize/fingerprint/dedup/deliver pass over the
// records of a single page fetch. Runs are strictly sequential; the state
// it mutates has a single writer and no concurrent readers.
type Pipeline struct {
	store     StateStore
	extractor Extractor
	notifier  Notifier
	clock     Clock
	idGen     IDGenerator
	limiter   *rate.Limiter
	cfg       Config
	logger    *zap.Logger
}

// runMode is the seeding controller's decision for one run.
type runMode int

const (
	modeIncremental runMode = iota
	modeSeedBroadcast
	modeSeedSilent
)

// New constructs a Pipeline.
func New(
	store StateStore,
	extractor Extractor,
	notifier Notifier,
	clock Clock,
	idGen IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	limit := rate.Inf
	if cfg.SendDelay > 0 {
		limit = rate.Every(cfg.SendDelay)
	}
	return &Pipeline{
		store:     store,
		extractor: extractor,
		notifier:  notifier,
		clock:     clock,
		idGen:     idGen,
		limiter:   rate.NewLimiter(limit, 1),
		cfg:       cfg,
		logger:    logger,
	}
}

// Run performs one complete pass: load state, prune, extract, dedup,
// deliver, persist. Per-message delivery failures are logged and skipped;
// extraction and persistence failures abort the run, leaving the previously
// persisted state untouched.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := p.logger
	if runID, err := p.idGen.NewID(); err == nil {
		logger = logger.With(zap.String("run_id", runID))
	}

	state, err := p.store.Load(ctx)
	if err != nil {
		TotalRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("load state: %w", err)
	}

	if pruned := state.Prune(p.clock.Now(), p.cfg.LedgerTTL); pruned > 0 {
		LedgerPruned.Add(float64(pruned))
		logger.Info("Pruned expired ledger entries", zap.Int("count", pruned))
	}

	raws, err := p.extractor.Extract(ctx)
	if err != nil {
		TotalRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("extract records: %w", err)
	}
	RecordsExtracted.Add(float64(len(raws)))

	records := make([]Record, len(raws))
	for i, raw := range raws {
		records[i] = NewRecord(raw)
	}
	logger.Info("Extracted records", zap.Int("count", len(records)))

	switch p.resolveMode(state) {
	case modeSeedBroadcast:
		p.seedBroadcast(ctx, &state, records, logger)
	case modeSeedSilent:
		p.seedSilent(&state, records, logger)
	default:
		p.incremental(ctx, &state, records, logger)
	}

	if err := p.store.Save(ctx, state); err != nil {
		TotalRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("persist state: %w", err)
	}
	TotalRuns.WithLabelValues("ok").Inc()
	return nil
}

// resolveMode maps the persisted flags onto the three-state seeding
// machine. An initialized ledger always runs incrementally, whatever the
// first-run flag says.
func (p *Pipeline) resolveMode(state State) runMode {
	switch {
	case state.Initialized:
		return modeIncremental
	case p.cfg.FirstRun:
		return modeSeedBroadcast
	case p.cfg.SeedIfEmpty && len(state.Sent) == 0:
		return modeSeedSilent
	default:
		return modeIncremental
	}
}

// seedBroadcast announces everything currently visible as one chunked
// summary, then absorbs it all into the ledger. No per-item messages.
func (p *Pipeline) seedBroadcast(ctx context.Context, state *State, records []Record, logger *zap.Logger) {
	logger.Info("First run: broadcasting summary of current records", zap.Int("count", len(records)))
	for _, chunk := range SummaryChunks(records, MessageChunkLimit) {
		p.send(ctx, chunk, logger)
	}
	p.absorb(state, records)
}

// seedSilent absorbs the current records without any delivery, for fresh
// deployments that should start incremental from day one.
func (p *Pipeline) seedSilent(state *State, records []Record, logger *zap.Logger) {
	logger.Info("Empty ledger: seeding silently", zap.Int("count", len(records)))
	p.absorb(state, records)
}

func (p *Pipeline) absorb(state *State, records []Record) {
	now := p.clock.Now()
	for _, rec := range records {
		state.MarkAll(rec, now)
	}
	state.Initialized = true
	state.InitializedAt = &now
}

// incremental is the steady state: migrate legacy matches, collect unseen
// records, deliver them one message each. Marking happens in the same pass
// that decides "new", before any delivery attempt, so a failed send still
// suppresses the record on the next run.
func (p *Pipeline) incremental(ctx context.Context, state *State, records []Record, logger *zap.Logger) {
	now := p.clock.Now()
	fresh := make([]Record, 0, len(records))
	for _, rec := range records {
		res := state.IsSeen(rec)
		if res.Seen {
			if state.MigrateToPrimary(res) {
				LedgerMigrated.Inc()
				logger.Debug("Migrated ledger entry to current generation",
					zap.String("matched_generation", res.Generation),
					zap.String("primary", res.Primary))
			}
			RecordsDuplicate.Inc()
			logger.Debug("Skipping seen record",
				zap.String("title", rec.Title),
				zap.String("fingerprint", res.Fingerprint),
				zap.String("generation", res.Generation))
			continue
		}
		state.MarkAll(rec, now)
		RecordsNew.Inc()
		fresh = append(fresh, rec)
	}

	if len(fresh) == 0 {
		logger.Info("No new records")
		return
	}
	logger.Info("Delivering new records", zap.Int("count", len(fresh)))
	for _, rec := range fresh {
		p.send(ctx, FormatRecord(rec), logger)
	}
}

// send pushes one message through the inter-send throttle. Failures are
// logged and swallowed: delivery is best-effort per message and must never
// block ledger persistence.
func (p *Pipeline) send(ctx context.Context, text string, logger *zap.Logger) {
	if err := p.limiter.Wait(ctx); err != nil {
		MessageFailures.Inc()
		logger.Warn("Send throttle interrupted", zap.Error(err))
		return
	}
	if err := p.notifier.Send(ctx, text); err != nil {
		MessageFailures.Inc()
		logger.Warn("Message delivery failed", zap.Error(err))
		return
	}
	MessagesSent.Inc()
}
