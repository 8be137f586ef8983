// Package pipeline runs one injection pass over a page: gate, extract,
// aggregate, render, apply.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/shikirating/idgen"
	"github.com/hazyhaar/shikirating/internal/extract"
	"github.com/hazyhaar/shikirating/internal/gate"
	"github.com/hazyhaar/shikirating/internal/render"
	"github.com/hazyhaar/shikirating/locale"
	"github.com/hazyhaar/shikirating/rating"
)

// Host is the page a pipeline runs against.
type Host interface {
	// Path returns the current location path.
	Path(ctx context.Context) (string, error)
	// Document returns a snapshot of the current DOM.
	Document(ctx context.Context) (*goquery.Document, error)
	// URL is the full address of the page as of the last Path call.
	URL() string
	// Apply attaches the patch in one step. It returns false without
	// changing anything when the widget is already present.
	Apply(ctx context.Context, patch render.Patch) (bool, error)
}

// Pipeline carries the run configuration. It holds no per-page state.
type Pipeline struct {
	logger *slog.Logger
	newID  idgen.Generator
	now    func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithIDGenerator sets the run ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(p *Pipeline) { p.newID = gen }
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: slog.Default(),
		newID:  idgen.Prefixed("run_", idgen.Default),
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes one pass. Non-qualifying pages and missing data end in an
// Outcome, not an error. An error means the run was aborted (host failure or
// incompatible markup) and nothing was attached.
func (p *Pipeline) Run(ctx context.Context, host Host, trigger string) (rating.Outcome, error) {
	out := rating.Outcome{
		RunID:     p.newID(),
		Trigger:   trigger,
		State:     rating.StateSkipped,
		Timestamp: p.now().UnixMilli(),
	}
	log := p.logger.With("run_id", out.RunID, "trigger", trigger)

	path, err := host.Path(ctx)
	if err != nil {
		return p.fail(out, fmt.Errorf("pipeline: path: %w", err))
	}
	out.Path = path
	out.PageURL = host.URL()
	log.Debug("pipeline: run", "path", path)

	if !gate.PathQualifies(path) {
		out.Reason = gate.ReasonPath
		log.Debug("pipeline: " + out.Reason)
		return out, nil
	}

	doc, err := host.Document(ctx)
	if err != nil {
		return p.fail(out, fmt.Errorf("pipeline: document: %w", err))
	}

	native, reason := gate.Check(path, doc)
	if reason != "" {
		out.Reason = reason
		log.Debug("pipeline: " + reason)
		return out, nil
	}

	loc := locale.Parse(doc.Find("body").AttrOr(locale.Attr, ""))
	out.Locale = loc.String()

	patch, res, err := p.render(log, doc, native, loc)
	if err != nil {
		return p.fail(out, err)
	}

	applied, err := host.Apply(ctx, patch)
	if err != nil {
		return p.fail(out, fmt.Errorf("pipeline: apply: %w", err))
	}
	if !applied {
		out.Reason = gate.ReasonInjected
		log.Debug("pipeline: " + out.Reason)
		return out, nil
	}

	out.State = patch.State
	out.Score = res
	log.Debug("pipeline: applied", "state", out.State)
	return out, nil
}

func (p *Pipeline) render(log *slog.Logger, doc *goquery.Document, native *goquery.Selection, loc locale.Locale) (render.Patch, *rating.Result, error) {
	h, verdict := extract.Histogram(doc)
	if !verdict.Found() {
		log.Debug("pipeline: " + string(verdict))
		patch, err := render.NoData(native, loc)
		return patch, nil, err
	}

	res, err := rating.Aggregate(h)
	if err != nil {
		return render.Patch{}, nil, fmt.Errorf("pipeline: aggregate: %w", err)
	}
	log.Debug("pipeline: score", "mean", res.Mean, "votes", res.Votes)

	patch, err := render.Scored(native, res, loc)
	if err != nil {
		return render.Patch{}, nil, err
	}
	return patch, &res, nil
}

func (p *Pipeline) fail(out rating.Outcome, err error) (rating.Outcome, error) {
	out.State = rating.StateFailed
	out.Reason = err.Error()
	return out, err
}
