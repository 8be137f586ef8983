// Package extract reads the vote histogram the site embeds in title pages.
//
// Every way the histogram can be unusable (absent, unparsable, empty) is a
// Verdict, not an error: the caller renders the no-data state for all of them.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/shikirating/rating"
)

const (
	// StatsSelector locates the node carrying the histogram.
	StatsSelector = "#rates_scores_stats"
	// StatsAttr holds the JSON-encoded [[score, count], ...] histogram.
	StatsAttr = "data-stats"
)

// Verdict classifies what was found in the stats attribute.
type Verdict string

const (
	VerdictFound     Verdict = "found"
	VerdictMissing   Verdict = "no score data found"
	VerdictMalformed Verdict = "error parsing score data"
	VerdictEmpty     Verdict = "empty score data"
)

// Found reports whether a usable histogram was extracted.
func (v Verdict) Found() bool { return v == VerdictFound }

// Histogram extracts the histogram from doc. The histogram is only non-nil
// when the verdict is VerdictFound.
func Histogram(doc *goquery.Document) (rating.Histogram, Verdict) {
	raw, _ := doc.Find(StatsSelector).First().Attr(StatsAttr)
	return Parse(raw)
}

// Parse decodes an attribute value.
func Parse(raw string) (rating.Histogram, Verdict) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, VerdictMissing
	}
	if !json.Valid([]byte(raw)) {
		return nil, VerdictMalformed
	}
	if falsy(raw) {
		return nil, VerdictEmpty
	}

	var h rating.Histogram
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return nil, VerdictMalformed
	}
	_, votes, err := h.Sums()
	if err != nil {
		return nil, VerdictMalformed
	}
	if votes == 0 {
		return nil, VerdictEmpty
	}
	return h, VerdictFound
}

// falsy matches the JSON literals that decode to nothing worth aggregating.
func falsy(raw string) bool {
	switch raw {
	case "null", "false", "0", `""`:
		return true
	}
	return false
}
