// Package scrape fetches the watched page and extracts raw candidate
// records from it. It owns every page-side concern: probe fetch, headless
// promotion for JS-rendered pages, DOM extraction, keyword scoping, and the
// per-run item cap. The core pipeline never re-filters what it emits.
package scrape

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/request-watch/internal/watch"
)

// Config controls fetching and extraction.
type Config struct {
	PageURL         string
	UserAgent       string
	Timeout         time.Duration
	RenderEnabled   bool
	RenderTimeout   time.Duration
	MaxItems        int
	SectionSelector string
	Keywords        []string
	MinHTMLBytes    int
}

// Scraper implements watch.Extractor against a single page.
type Scraper struct {
	cfg      Config
	probe    *probeFetcher
	detector *heuristicDetector
	base     *url.URL
	logger   *zap.Logger
}

// New validates the page URL and builds a Scraper.
func New(cfg Config, logger *zap.Logger) (*Scraper, error) {
	base, err := url.Parse(cfg.PageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("page url %q must be absolute", cfg.PageURL)
	}
	return &Scraper{
		cfg:      cfg,
		probe:    newProbeFetcher(cfg),
		detector: newHeuristicDetector(cfg.MinHTMLBytes),
		base:     base,
		logger:   logger,
	}, nil
}

// Extract fetches the page (promoting to a headless render when the probe
// result looks like an unhydrated app shell) and returns the extracted raw
// records, capped at MaxItems.
func (s *Scraper) Extract(ctx context.Context) ([]watch.RawRecord, error) {
	html, err := s.probe.fetch(ctx, s.cfg.PageURL)
	if err != nil {
		return nil, fmt.Errorf("probe fetch: %w", err)
	}

	if s.cfg.RenderEnabled && s.detector.needsJS(html) {
		s.logger.Info("Probe result looks JS-rendered; promoting to headless fetch")
		rendered, rerr := renderPage(ctx, s.cfg)
		if rerr != nil {
			// Fall back to the probe HTML; a degraded extraction beats none.
			s.logger.Warn("Headless render failed; using probe HTML", zap.Error(rerr))
		} else {
			html = rendered
		}
	}

	records, err := extractRecords(html, s.base, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("extract records: %w", err)
	}
	s.logger.Debug("Extraction finished",
		zap.Int("records", len(records)),
		zap.Int("html_bytes", len(html)))
	return records, nil
}
