package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/shikirating/internal/gate"
	"github.com/hazyhaar/shikirating/internal/render"
)

// DocumentHost is an in-memory page. Document returns the live document, so
// applied patches are visible to later runs.
type DocumentHost struct {
	pageURL string
	path    string
	doc     *goquery.Document
}

// NewDocumentHost parses an HTML page served at pageURL. pageURL may be a bare
// path such as "/animes/1".
func NewDocumentHost(pageURL string, r io.Reader) (*DocumentHost, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parse url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parse html: %w", err)
	}
	return &DocumentHost{pageURL: pageURL, path: u.Path, doc: doc}, nil
}

func (h *DocumentHost) URL() string { return h.pageURL }

func (h *DocumentHost) Path(context.Context) (string, error) { return h.path, nil }

func (h *DocumentHost) Document(context.Context) (*goquery.Document, error) { return h.doc, nil }

// Apply inserts the source caption after the native widget and appends the
// widget and its counter caption to the scores container.
func (h *DocumentHost) Apply(_ context.Context, patch render.Patch) (bool, error) {
	if gate.Injected(h.doc) {
		return false, nil
	}
	native, ok := gate.NativeWidget(h.doc)
	if !ok {
		return false, fmt.Errorf("pipeline: native widget disappeared")
	}

	native.Parent().AppendHtml(patch.Trailing())
	if patch.SourceCaption != "" {
		native.AfterHtml(patch.SourceCaption)
	}
	return true, nil
}

// HTML renders the current document.
func (h *DocumentHost) HTML() (string, error) {
	return h.doc.Html()
}
