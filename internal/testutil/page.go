// Package testutil builds title pages shaped like the site's markup for tests.
package testutil

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// Page describes a title page.
type Page struct {
	Locale    string // body data-locale; empty omits the attribute
	Stats     string // data-stats attribute value
	NoStats   bool   // omit the #rates_scores_stats node entirely
	NoNative  bool   // omit the native .b-rate widget
	NoValue   bool   // drop div.score-value from the native widget
	NoNotice  bool   // drop div.score-notice from the native widget
	NoStars   bool   // drop the star element from the native widget
	Injected  bool   // include an existing #shiki-score node
	Extra     string // extra markup appended inside .scores after the widget
	NativeVal string // native score text, default "8.47"
}

// NativeWidget is the site's rating widget markup.
func (p Page) NativeWidget() string {
	val := p.NativeVal
	if val == "" {
		val = "8.47"
	}
	var b strings.Builder
	b.WriteString(`<div class="b-rate">`)
	if !p.NoStars {
		b.WriteString(`<div class="stars-container"><div class="hoverable-trigger"></div>` +
			`<div class="stars score score-8"></div><div class="stars hover"></div>` +
			`<div class="stars background"></div></div>`)
	}
	b.WriteString(`<div class="text-score">`)
	if !p.NoValue {
		fmt.Fprintf(&b, `<div class="score-value score-8">%s</div>`, val)
	}
	if !p.NoNotice {
		b.WriteString(`<div class="score-notice">Excellent</div>`)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

// HTML renders the full document.
func (p Page) HTML() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Cowboy Bebop</title></head>")
	if p.Locale != "" {
		fmt.Fprintf(&b, `<body data-locale="%s">`, html.EscapeString(p.Locale))
	} else {
		b.WriteString("<body>")
	}
	b.WriteString(`<div class="b-db_entry"><div class="c-info-right"><div class="block">`)
	b.WriteString(`<div class="scores">`)
	if !p.NoNative {
		b.WriteString(p.NativeWidget())
	}
	if p.Injected {
		b.WriteString(`<div class="b-rate" id="shiki-score"></div>`)
	}
	b.WriteString(p.Extra)
	b.WriteString(`</div></div></div>`)
	if !p.NoStats {
		fmt.Fprintf(&b, `<div id="rates_scores_stats" data-stats="%s"></div>`, html.EscapeString(p.Stats))
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// Document parses the page into a goquery document.
func (p Page) Document(t testing.TB) *goquery.Document {
	t.Helper()
	return ParseHTML(t, []byte(p.HTML()))
}

// ParseHTML parses the provided HTML payload into a goquery document for assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}
