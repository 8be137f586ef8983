package gate

import (
	"testing"

	"github.com/hazyhaar/shikirating/internal/testutil"
)

func TestPathQualifies(t *testing.T) {
	cases := map[string]bool{
		"/animes":                        true,
		"/animes/1-cowboy-bebop":         true,
		"/mangas/2-berserk":              true,
		"/ranobe/9115-ore-no-imouto":     true,
		"/animesque":                     true, // only the first seven characters count
		"/anime":                         false,
		"/users/42":                      false,
		"/":                              false,
		"":                               false,
		"/characters/1":                  false,
		"/Animes/1":                      false,
		"/forum/animanga/animes-1-topic": false,
	}
	for path, want := range cases {
		if got := PathQualifies(path); got != want {
			t.Errorf("PathQualifies(%q): got %v, want %v", path, got, want)
		}
	}
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		page   testutil.Page
		reason string
	}{
		{"qualifies", "/animes/1", testutil.Page{}, ""},
		{"wrong path", "/users/42", testutil.Page{}, ReasonPath},
		{"already injected", "/animes/1", testutil.Page{Injected: true}, ReasonInjected},
		{"no native widget", "/mangas/2", testutil.Page{NoNative: true}, ReasonNoNative},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := c.page.Document(t)
			native, reason := Check(c.path, doc)
			if reason != c.reason {
				t.Fatalf("reason: got %q, want %q", reason, c.reason)
			}
			if c.reason == "" && native.Length() != 1 {
				t.Fatalf("expected one native widget, got %d", native.Length())
			}
		})
	}
}

func TestNativeWidget_FirstOnly(t *testing.T) {
	p := testutil.Page{Extra: `<div class="b-rate"></div>`}
	native, ok := NativeWidget(p.Document(t))
	if !ok || native.Length() != 1 {
		t.Fatalf("expected the first widget only, got %d", native.Length())
	}
	if native.Find(".score-value").Length() != 1 {
		t.Error("expected the populated widget")
	}
}
