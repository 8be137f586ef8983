// Package shikirating adds a second rating widget to shikimori title pages:
// the mean of the site's own users' votes, next to the MyAnimeList score the
// page shows natively.
//
// Pages are rewritten either offline (RewriteHTML, from saved HTML) or live
// in Chrome (WatchPage), where the widget is re-injected on every full load
// and turbolinks navigation. Each run ends in a rating.Outcome that is
// reported to the configured sinks.
package shikirating

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"

	"github.com/hazyhaar/shikirating/idgen"
	"github.com/hazyhaar/shikirating/internal/browser"
	"github.com/hazyhaar/shikirating/internal/config"
	"github.com/hazyhaar/shikirating/internal/lifecycle"
	"github.com/hazyhaar/shikirating/internal/pipeline"
	"github.com/hazyhaar/shikirating/internal/sink"
	"github.com/hazyhaar/shikirating/rating"
)

// Injector is the top-level orchestrator. It owns the browser, the open
// tabs, and the sinks.
type Injector struct {
	cfg    *config.Config
	mgr    *browser.Manager
	pipe   *pipeline.Pipeline
	sinkR  *sink.Router
	tabs   map[string]*browser.Tab // keyed by page ID
	pages  map[string]config.PageConfig
	mu     sync.Mutex
	logger *slog.Logger
}

// Page is a rewritten page and the outcome of its first run.
type Page struct {
	URL      string
	Outcome  rating.Outcome
	Document *goquery.Document
}

// HTML renders the rewritten document.
func (p *Page) HTML() (string, error) {
	return p.Document.Html()
}

// New creates an Injector. cfg may be nil for offline use.
func New(cfg *config.Config, logger *slog.Logger, sinks ...sink.Sink) *Injector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Mode:             browser.ParseMode(cfg.Browser.Stealth),
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})

	return &Injector{
		cfg: cfg,
		mgr: mgr,
		pipe: pipeline.New(
			pipeline.WithLogger(logger),
			pipeline.WithIDGenerator(idgen.Prefixed("run_", idgen.Default)),
		),
		sinkR:  sink.NewRouter(logger, sinks...),
		tabs:   make(map[string]*browser.Tab),
		pages:  make(map[string]config.PageConfig),
		logger: logger,
	}
}

// Start launches the browser and opens every configured page.
func (in *Injector) Start(ctx context.Context) error {
	if _, err := in.mgr.Start(ctx); err != nil {
		return fmt.Errorf("shikirating: start browser: %w", err)
	}
	in.mgr.OnRecycle(func(*rod.Browser) { in.reopenTabs(ctx) })

	for _, page := range in.cfg.Pages {
		if err := in.WatchPage(ctx, page); err != nil {
			in.logger.Error("shikirating: failed to watch page", "url", page.URL, "error", err)
		}
	}
	return nil
}

// WatchPage opens a tab on the page and keeps the widget injected across
// navigations until Stop.
func (in *Injector) WatchPage(ctx context.Context, page config.PageConfig) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.watchLocked(ctx, page)
}

func (in *Injector) watchLocked(ctx context.Context, page config.PageConfig) error {
	if old, ok := in.tabs[page.ID]; ok {
		old.Close()
		delete(in.tabs, page.ID)
	}

	logger := in.logger.With("page_id", page.ID)
	var boot *lifecycle.Bootstrap
	onDocument := func(ctx context.Context, tab *browser.Tab) error {
		// Runs on the tab's event loop only.
		if boot == nil {
			boot = lifecycle.New(in.runner(tab, nil), logger)
		}
		return boot.Attach(ctx, tab)
	}

	tab, err := browser.OpenTab(ctx, in.mgr, page.URL, page.ID, onDocument)
	if err != nil {
		return fmt.Errorf("shikirating: open tab: %w", err)
	}
	in.tabs[page.ID] = tab
	in.pages[page.ID] = page

	logger.Info("shikirating: watching page", "url", page.URL)
	return nil
}

// Inject opens pageURL once, waits for the first run, and returns the
// rewritten DOM. The browser must be started.
func (in *Injector) Inject(ctx context.Context, pageURL string) (*Page, error) {
	first := make(chan rating.Outcome, 1)
	onDocument := func(ctx context.Context, tab *browser.Tab) error {
		return lifecycle.New(in.runner(tab, first), in.logger).Attach(ctx, tab)
	}

	tab, err := browser.OpenTab(ctx, in.mgr, pageURL, "inject_"+idgen.New(), onDocument)
	if err != nil {
		return nil, fmt.Errorf("shikirating: open tab: %w", err)
	}
	defer tab.Close()

	var out rating.Outcome
	select {
	case out = <-first:
	case <-ctx.Done():
		return nil, fmt.Errorf("shikirating: waiting for run: %w", ctx.Err())
	}

	doc, err := tab.Document(ctx)
	if err != nil {
		return nil, err
	}
	return &Page{URL: tab.URL(), Outcome: out, Document: doc}, nil
}

// RewriteHTML runs the injection over a saved page as if it had just
// finished loading at pageURL.
func (in *Injector) RewriteHTML(ctx context.Context, pageURL string, r io.Reader) (*Page, error) {
	host, err := pipeline.NewDocumentHost(pageURL, r)
	if err != nil {
		return nil, err
	}

	first := make(chan rating.Outcome, 1)
	boot := lifecycle.New(in.runner(host, first), in.logger)
	if err := boot.Attach(ctx, lifecycle.NewDispatcher(lifecycle.ReadyComplete)); err != nil {
		return nil, err
	}

	select {
	case out := <-first:
		doc, _ := host.Document(ctx)
		return &Page{URL: pageURL, Outcome: out, Document: doc}, nil
	default:
		return nil, fmt.Errorf("shikirating: no run for %s", pageURL)
	}
}

// runner returns the lifecycle run for host. Every outcome goes to the
// sinks; the first one also goes to first when it is non-nil.
func (in *Injector) runner(host pipeline.Host, first chan<- rating.Outcome) lifecycle.RunFunc {
	return func(ctx context.Context, t lifecycle.Trigger) error {
		out, err := in.pipe.Run(ctx, host, string(t))
		if serr := in.sinkR.Send(ctx, out); serr != nil {
			in.logger.Warn("shikirating: report outcome", "run_id", out.RunID, "error", serr)
		}
		if first != nil {
			select {
			case first <- out:
			default:
			}
		}
		if out.Changed() {
			in.logger.Info("shikirating: widget injected",
				"url", out.PageURL, "state", out.State, "trigger", t)
		}
		return err
	}
}

// Stop closes all tabs, the sinks, and the browser.
func (in *Injector) Stop() {
	in.mu.Lock()
	defer in.mu.Unlock()

	for id, tab := range in.tabs {
		tab.Close()
		in.logger.Info("shikirating: closed tab", "id", id)
	}
	in.tabs = make(map[string]*browser.Tab)

	in.sinkR.Close()
	in.mgr.Close()
}

// Tabs returns the IDs of the pages being watched.
func (in *Injector) Tabs() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	ids := make([]string, 0, len(in.tabs))
	for id := range in.tabs {
		ids = append(ids, id)
	}
	return ids
}

func (in *Injector) reopenTabs(ctx context.Context) {
	in.mu.Lock()
	defer in.mu.Unlock()

	for _, tab := range in.tabs {
		tab.Close()
	}
	in.tabs = make(map[string]*browser.Tab)
	for _, page := range in.pages {
		if err := in.watchLocked(ctx, page); err != nil {
			in.logger.Error("shikirating: reopen tab failed", "url", page.URL, "error", err)
		}
	}
}
