package scrape

import "bytes"

// spaMarkers are HTML fragments that indicate the page is an unhydrated
// single-page-app shell and needs a JS render to show its content.
var spaMarkers = [][]byte{
	[]byte("__next_data__"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
	[]byte("window.__apollo_state__"),
	[]byte("ng-app"),
}

// heuristicDetector decides whether the probe HTML warrants a headless
// render.
type heuristicDetector struct {
	minHTMLBytes int
}

func newHeuristicDetector(minBytes int) *heuristicDetector {
	if minBytes <= 0 {
		minBytes = 2048
	}
	return &heuristicDetector{minHTMLBytes: minBytes}
}

// needsJS flags suspiciously small documents and known SPA markers.
func (d *heuristicDetector) needsJS(body []byte) bool {
	if len(body) < d.minHTMLBytes {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range spaMarkers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}
