package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/request-watch/internal/watch"
)

// defaultSectionSelector matches the containers a posting typically lives
// in when no site-specific selector is configured.
const defaultSectionSelector = "article, .request, .post, li.request"

// priceRe finds an embedded currency amount when no dedicated element
// carries it.
var priceRe = regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d+)?`)

// extractRecords parses the page HTML and pulls one raw record per posting
// container, scoped by the configured keywords and capped at MaxItems.
func extractRecords(html []byte, base *url.URL, cfg Config) ([]watch.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	selector := cfg.SectionSelector
	if strings.TrimSpace(selector) == "" {
		selector = defaultSectionSelector
	}
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	var out []watch.RawRecord
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if cfg.MaxItems > 0 && len(out) >= cfg.MaxItems {
			return false
		}
		text := sel.Text()
		if !matchesKeywords(text, keywords) {
			return true
		}
		rec := recordFromSelection(sel, text, base)
		if rec.Title == "" && rec.Description == "" {
			return true
		}
		out = append(out, rec)
		return true
	})
	return out, nil
}

func matchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func recordFromSelection(sel *goquery.Selection, text string, base *url.URL) watch.RawRecord {
	rec := watch.RawRecord{
		Title:       firstText(sel, "h1, h2, h3, h4, .title"),
		User:        firstText(sel, ".user, .author, .username, [data-user]"),
		Price:       firstText(sel, ".price, .bounty, .reward"),
		Description: firstText(sel, ".description, .body, p"),
		When:        extractWhen(sel),
		Link:        resolveLink(sel, base),
	}
	if rec.Price == "" {
		rec.Price = priceRe.FindString(text)
	}
	return rec
}

func firstText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(sel.Find(selector).First().Text())
}

func extractWhen(sel *goquery.Selection) string {
	t := sel.Find("time").First()
	if dt, ok := t.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return dt
	}
	if v := strings.TrimSpace(t.Text()); v != "" {
		return v
	}
	return firstText(sel, ".when, .date, .posted")
}

// resolveLink returns the posting's first hyperlink as an absolute URL,
// falling back to the page URL itself when none resolves.
func resolveLink(sel *goquery.Selection, base *url.URL) string {
	href, ok := sel.Find("a[href]").First().Attr("href")
	if ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			return base.ResolveReference(ref).String()
		}
	}
	return base.String()
}
