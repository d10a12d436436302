package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// renderPage fetches the page with a headless browser so client-side
// rendered content is present in the returned HTML. A fresh browser is
// launched per call; the watcher fetches one page per run, so keeping a
// warm browser around buys nothing.
func renderPage(ctx context.Context, cfg Config) ([]byte, error) {
	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	taskCtx, cancelTask := context.WithTimeout(browserCtx, timeout)
	defer cancelTask()

	var html string
	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(cfg.UserAgent),
		chromedp.Navigate(cfg.PageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return nil, fmt.Errorf("chromedp run: %w", err)
	}
	return []byte(html), nil
}
