package scrape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// probeFetcher performs the fast-path HTTP GET of the watched page using a
// Colly collector.
type probeFetcher struct {
	userAgent string
	timeout   time.Duration
	base      *colly.Collector
}

func newProbeFetcher(cfg Config) *probeFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &probeFetcher{
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		base:      colly.NewCollector(colly.Async(false)),
	}
}

// fetch GETs rawURL and returns the response body. The collector is cloned
// per call so callback state never leaks between runs.
func (f *probeFetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled: %w", err)
	}

	collector := f.base.Clone()
	if f.userAgent != "" {
		collector.UserAgent = f.userAgent
	}
	collector.SetRequestTimeout(f.timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, status)
	}
	return body, nil
}
