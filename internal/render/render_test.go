package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/shikirating/internal/gate"
	"github.com/hazyhaar/shikirating/internal/testutil"
	"github.com/hazyhaar/shikirating/locale"
	"github.com/hazyhaar/shikirating/rating"
)

func nativeOf(t *testing.T, p testutil.Page) (*goquery.Document, *goquery.Selection) {
	t.Helper()
	doc := p.Document(t)
	native, ok := gate.NativeWidget(doc)
	if !ok {
		t.Fatal("fixture has no native widget")
	}
	return doc, native
}

func fragment(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	return testutil.ParseHTML(t, []byte(markup))
}

var example = rating.Result{Mean: 9.3, Rounded: 9, Votes: 10, Total: 93}

func TestScored_Widget(t *testing.T) {
	doc, native := nativeOf(t, testutil.Page{})
	before, _ := goquery.OuterHtml(native)

	patch, err := Scored(native, example, locale.Default)
	if err != nil {
		t.Fatal(err)
	}
	if patch.State != rating.StateScored {
		t.Errorf("state %q", patch.State)
	}

	w := fragment(t, patch.Widget)
	root := w.Find("#" + gate.WidgetID)
	if root.Length() != 1 || !root.HasClass("b-rate") {
		t.Fatalf("widget root not found in %s", patch.Widget)
	}

	value := root.Find(ValueSelector)
	if got := value.Text(); got != "9.30" {
		t.Errorf("value text %q, want 9.30", got)
	}
	if got, _ := value.Attr("class"); got != "score-value score-9" {
		t.Errorf("value class %q", got)
	}

	stars := root.Find(StarsSelector)
	if got, _ := stars.Attr("class"); got != "stars score score-9" {
		t.Errorf("stars class %q", got)
	}
	if got, _ := stars.Attr("style"); got != "color: #456;" {
		t.Errorf("stars style %q", got)
	}

	if got := root.Find(NoticeSelector).Text(); got != "Great" {
		t.Errorf("label %q, want Great", got)
	}

	after, _ := goquery.OuterHtml(native)
	if before != after {
		t.Error("native widget was modified")
	}
	if gate.Injected(doc) {
		t.Error("render must not attach anything to the document")
	}
}

func TestScored_Captions(t *testing.T) {
	_, native := nativeOf(t, testutil.Page{})

	patch, err := Scored(native, example, locale.Default)
	if err != nil {
		t.Fatal(err)
	}

	src := fragment(t, patch.SourceCaption).Find("p." + SourceClass)
	if src.Text() != "From MAL users" {
		t.Errorf("source caption %q", src.Text())
	}
	if got, _ := src.Attr("style"); got != "margin-bottom: 15px; text-align: center; color: #7b8084;" {
		t.Errorf("source style %q", got)
	}

	counter := fragment(t, patch.CounterCaption).Find("p." + CounterClass)
	if counter.Text() != "From 10 shiki users" {
		t.Errorf("counter caption %q", counter.Text())
	}
	if counter.Find("strong").Text() != "10" {
		t.Error("vote count should be emphasised")
	}
	if got, _ := counter.Attr("style"); got != "text-align: center; color: #7b8084;" {
		t.Errorf("counter style %q", got)
	}

	if patch.Trailing() != patch.Widget+patch.CounterCaption {
		t.Error("trailing markup order")
	}
}

func TestScored_Russian(t *testing.T) {
	_, native := nativeOf(t, testutil.Page{Locale: "ru"})

	res := rating.Result{Mean: 9.3, Rounded: 9, Votes: 21, Total: 195}
	patch, err := Scored(native, res, locale.Russian)
	if err != nil {
		t.Fatal(err)
	}
	if got := fragment(t, patch.Widget).Find(NoticeSelector).Text(); got != "Великолепно" {
		t.Errorf("label %q", got)
	}
	if got := fragment(t, patch.SourceCaption).Text(); got != "На основе оценок mal" {
		t.Errorf("source %q", got)
	}
	if got := fragment(t, patch.CounterCaption).Text(); got != "На основе 21 оценки shiki" {
		t.Errorf("counter %q", got)
	}
}

func TestScored_ZeroHasNoLabel(t *testing.T) {
	_, native := nativeOf(t, testutil.Page{})
	patch, err := Scored(native, rating.Result{Mean: 0.2, Rounded: 0, Votes: 5, Total: 1}, locale.Default)
	if err != nil {
		t.Fatal(err)
	}
	w := fragment(t, patch.Widget)
	if got := w.Find(NoticeSelector).Text(); got != "" {
		t.Errorf("label %q, want empty", got)
	}
	if got, _ := w.Find(ValueSelector).Attr("class"); got != "score-value score-0" {
		t.Errorf("value class %q", got)
	}
}

func TestScored_MissingSubElements(t *testing.T) {
	for name, p := range map[string]testutil.Page{
		"value":  {NoValue: true},
		"notice": {NoNotice: true},
		"stars":  {NoStars: true},
	} {
		t.Run(name, func(t *testing.T) {
			_, native := nativeOf(t, p)
			patch, err := Scored(native, example, locale.Default)
			if !errors.Is(err, ErrMarkupChanged) {
				t.Fatalf("expected ErrMarkupChanged, got %v", err)
			}
			if patch.Widget != "" || patch.SourceCaption != "" {
				t.Error("failed render must not produce markup")
			}
		})
	}
}

func TestNoData(t *testing.T) {
	for _, c := range []struct {
		loc  locale.Locale
		text string
	}{
		{locale.Default, "Insufficient data"},
		{locale.Russian, "Недостаточно данных"},
	} {
		_, native := nativeOf(t, testutil.Page{})
		patch, err := NoData(native, c.loc)
		if err != nil {
			t.Fatal(err)
		}
		if patch.State != rating.StateNoData {
			t.Errorf("state %q", patch.State)
		}
		if patch.SourceCaption != "" || patch.CounterCaption != "" {
			t.Error("no-data state has no captions")
		}

		root := fragment(t, patch.Widget).Find("#" + gate.WidgetID)
		if root.Children().Length() != 1 {
			t.Fatalf("expected only the placeholder, got %s", patch.Widget)
		}
		p := root.Find("p." + NoDataClass)
		if p.Text() != c.text {
			t.Errorf("placeholder %q, want %q", p.Text(), c.text)
		}
		if got, _ := p.Attr("style"); got != "text-align: center; color: #7b8084; margin-top: 15px;" {
			t.Errorf("placeholder style %q", got)
		}
	}
}

func TestReplaceScoreClass(t *testing.T) {
	cases := []struct{ in, want string }{
		{"score-value score-8", "score-value score-3"},
		{"score-value", "score-value score-3"},
		{"", "score-3"},
		{"stars score score-10", "stars score score-3"},
		{"score-value score-3", "score-value score-3"},
		{"score-value score-8 extra", "score-value score-8 extra score-3"},
	}
	for _, c := range cases {
		doc := fragment(t, `<div class="`+c.in+`"></div>`)
		sel := doc.Find("body > div")
		replaceScoreClass(sel, "score-3")
		if got, _ := sel.Attr("class"); got != c.want {
			t.Errorf("%q: got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMergeStyle(t *testing.T) {
	got := mergeStyle("width: 80%; color: red", decl("color", StarColor))
	if got != "width: 80%; color: #456;" {
		t.Errorf("merge: %q", got)
	}
	got = mergeStyle("", decl("text-align", "center"), decl("color", MutedColor))
	if got != "text-align: center; color: #7b8084;" {
		t.Errorf("fresh: %q", got)
	}
	if !strings.Contains(mergeStyle("COLOR: blue", decl("color", "#456")), "#456") {
		t.Error("property match should ignore case")
	}
}
