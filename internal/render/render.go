// Package render builds the computed rating widget from a copy of the site's
// native one.
//
// Nothing here touches the page. Renderers return a Patch holding the markup
// to attach; if any expected sub-element is missing the render fails before a
// Patch exists, so an aborted run never leaves a half-rewritten widget behind.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hazyhaar/shikirating/internal/gate"
	"github.com/hazyhaar/shikirating/locale"
	"github.com/hazyhaar/shikirating/rating"
)

// Sub-element selectors inside a .b-rate widget.
const (
	ValueSelector  = "div.text-score > div.score-value"
	NoticeSelector = "div.text-score > div.score-notice"
	StarsSelector  = "div.stars-container > div.stars.score"
)

// Caption classes.
const (
	SourceClass  = "score-source"
	CounterClass = "score-counter"
	NoDataClass  = "b-nothing_here"
)

// Colors applied inline.
const (
	MutedColor = "#7b8084"
	StarColor  = "#456"
)

// ErrMarkupChanged means the native widget no longer has the expected shape.
var ErrMarkupChanged = errors.New("render: rating widget markup changed")

var scoreClass = regexp.MustCompile(`^score-\d+$`)

// captionPolicy keeps the count emphasis and nothing else.
var captionPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong")
	return p
}()

// Patch is the markup to attach next to the native widget.
type Patch struct {
	State rating.State

	// SourceCaption goes right after the native widget. Empty for no-data.
	SourceCaption string
	// Widget is the rewritten clone, appended to the scores container.
	Widget string
	// CounterCaption goes right after Widget. Empty for no-data.
	CounterCaption string
}

// Trailing returns everything appended to the scores container, in order.
func (p Patch) Trailing() string {
	return p.Widget + p.CounterCaption
}

// NoData renders the placeholder widget for pages without usable votes.
func NoData(native *goquery.Selection, loc locale.Locale) (Patch, error) {
	clone := cloneWidget(native)
	clone.Empty()
	clone.AppendHtml(paragraph(NoDataClass, html.EscapeString(loc.NoData()),
		decl("text-align", "center"),
		decl("color", MutedColor),
		decl("margin-top", "15px"),
	))

	widget, err := goquery.OuterHtml(clone)
	if err != nil {
		return Patch{}, fmt.Errorf("render: no-data widget: %w", err)
	}
	return Patch{State: rating.StateNoData, Widget: widget}, nil
}

// Scored renders the widget for a computed score.
func Scored(native *goquery.Selection, res rating.Result, loc locale.Locale) (Patch, error) {
	clone := cloneWidget(native)

	value, err := find(clone, ValueSelector)
	if err != nil {
		return Patch{}, err
	}
	notice, err := find(clone, NoticeSelector)
	if err != nil {
		return Patch{}, err
	}
	stars, err := find(clone, StarsSelector)
	if err != nil {
		return Patch{}, err
	}

	class := "score-" + strconv.Itoa(res.Rounded)

	value.SetText(strconv.FormatFloat(res.Mean, 'f', 2, 64))
	replaceScoreClass(value, class)

	replaceScoreClass(stars, class)
	stars.SetAttr("style", mergeStyle(stars.AttrOr("style", ""), decl("color", StarColor)))

	notice.SetText(loc.Label(res.Rounded))

	widget, err := goquery.OuterHtml(clone)
	if err != nil {
		return Patch{}, fmt.Errorf("render: scored widget: %w", err)
	}

	count := "<strong>" + strconv.Itoa(res.Votes) + "</strong>"
	return Patch{
		State: rating.StateScored,
		SourceCaption: paragraph(SourceClass, captionPolicy.Sanitize(loc.SourceCaption()),
			decl("margin-bottom", "15px"),
			decl("text-align", "center"),
			decl("color", MutedColor),
		),
		Widget: widget,
		CounterCaption: paragraph(CounterClass, captionPolicy.Sanitize(loc.CounterCaption(res.Votes, count)),
			decl("text-align", "center"),
			decl("color", MutedColor),
		),
	}, nil
}

func cloneWidget(native *goquery.Selection) *goquery.Selection {
	clone := native.First().Clone()
	clone.SetAttr("id", gate.WidgetID)
	return clone
}

func find(root *goquery.Selection, selector string) (*goquery.Selection, error) {
	sel := root.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: missing %q", ErrMarkupChanged, selector)
	}
	return sel, nil
}

// replaceScoreClass drops a trailing score-N class and appends class.
func replaceScoreClass(sel *goquery.Selection, class string) {
	classes := strings.Fields(sel.AttrOr("class", ""))
	if n := len(classes); n > 0 && scoreClass.MatchString(classes[n-1]) {
		classes = classes[:n-1]
	}
	if !slices.Contains(classes, class) {
		classes = append(classes, class)
	}
	sel.SetAttr("class", strings.Join(classes, " "))
}

// paragraph renders <p class=... style=...>inner</p>. inner must already be
// safe markup.
func paragraph(class, inner string, style ...declaration) string {
	return fmt.Sprintf(`<p class="%s" style="%s">%s</p>`,
		html.EscapeString(class), html.EscapeString(mergeStyle("", style...)), inner)
}
