// Package gate decides whether a page gets a rating widget.
package gate

import (
	"slices"

	"github.com/PuerkitoBio/goquery"
)

const (
	// WidgetID marks the injected widget and doubles as the "already done" flag.
	WidgetID = "shiki-score"

	// NativeSelector locates the site's own rating widget.
	NativeSelector = ".scores > .b-rate"

	prefixLen = 7
)

// Prefixes are the title sections carrying a vote histogram.
var Prefixes = []string{"/animes", "/mangas", "/ranobe"}

// Reasons reported when a check fails.
const (
	ReasonPath     = "wrong page"
	ReasonInjected = "already created"
	ReasonNoNative = "can't find default rating"
)

// PathQualifies reports whether the first seven characters of path name a
// title section.
func PathQualifies(path string) bool {
	if len(path) > prefixLen {
		path = path[:prefixLen]
	}
	return slices.Contains(Prefixes, path)
}

// Injected reports whether the widget is already in the document.
func Injected(doc *goquery.Document) bool {
	return doc.Find("#" + WidgetID).Length() > 0
}

// NativeWidget returns the first native rating widget, if present.
func NativeWidget(doc *goquery.Document) (*goquery.Selection, bool) {
	sel := doc.Find(NativeSelector).First()
	return sel, sel.Length() > 0
}

// Check runs the document checks in order and returns the first failing
// reason, or "" when the page qualifies.
func Check(path string, doc *goquery.Document) (native *goquery.Selection, reason string) {
	if !PathQualifies(path) {
		return nil, ReasonPath
	}
	if Injected(doc) {
		return nil, ReasonInjected
	}
	native, ok := NativeWidget(doc)
	if !ok {
		return nil, ReasonNoNative
	}
	return native, ""
}
