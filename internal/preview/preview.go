// Package preview extracts the rating block from a rewritten page for
// terminal output.
package preview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
)

// ContainerSelector is the block holding the native and injected widgets.
const ContainerSelector = ".scores"

// ErrNoContainer is returned when the page has no rating block.
var ErrNoContainer = errors.New("preview: no rating block on page")

// Format selects the preview rendering.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "html" and "markdown" ("md" for short).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("preview: unknown format %q", s)
}

// Renderer turns the rating block into text.
type Renderer struct {
	md *converter.Converter
}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Block returns the outer HTML of the first rating block under root.
func Block(root *goquery.Selection) (string, error) {
	block := root.Find(ContainerSelector).First()
	if block.Length() == 0 {
		return "", ErrNoContainer
	}
	html, err := goquery.OuterHtml(block)
	if err != nil {
		return "", fmt.Errorf("preview: render block: %w", err)
	}
	return html, nil
}

// Render returns the rating block under root in the given format.
// pageURL resolves relative links in markdown output.
func (r *Renderer) Render(root *goquery.Selection, pageURL string, f Format) (string, error) {
	html, err := Block(root)
	if err != nil {
		return "", err
	}
	if f != FormatMarkdown {
		return html, nil
	}

	var md string
	if pageURL != "" {
		md, err = r.md.ConvertString(html, converter.WithDomain(pageURL))
	} else {
		md, err = r.md.ConvertString(html)
	}
	if err != nil {
		return "", fmt.Errorf("preview: markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
