package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/shikirating/internal/gate"
	"github.com/hazyhaar/shikirating/internal/lifecycle"
	"github.com/hazyhaar/shikirating/internal/render"
)

const (
	bindingName = "__shikirating_binding"
	opDocument  = "__document"
)

//go:embed hook.js
var hookJS string

// applyJS mirrors pipeline.DocumentHost.Apply inside the page.
var applyJS = fmt.Sprintf(`(source, trailing) => {
	if (document.querySelector('#%s')) return false;
	const native = document.querySelector('%s');
	if (!native) return false;
	native.parentElement.insertAdjacentHTML('beforeend', trailing);
	if (source) native.insertAdjacentHTML('afterend', source);
	return true;
}`, gate.WidgetID, gate.NativeSelector)

// DocumentFunc is called on the tab's event loop each time a new top-level
// document starts. Listeners registered through On before it returns see
// every event of that document.
type DocumentFunc func(ctx context.Context, t *Tab) error

// hookEvent is one message from hook.js.
type hookEvent struct {
	Op    string `json:"op"`
	Value string `json:"value"`
}

func parseHookEvent(payload string) (hookEvent, error) {
	var ev hookEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, fmt.Errorf("browser: parse binding payload: %w", err)
	}
	if ev.Op == "" {
		return ev, fmt.Errorf("browser: binding payload without op")
	}
	return ev, nil
}

// Tab is a Rod page with the event hook installed. It serves as the live
// page for the injection pipeline and as the event source for the lifecycle
// bootstrap. Events are handled one at a time on a single goroutine.
type Tab struct {
	Page   *rod.Page
	PageID string

	logger     *slog.Logger
	onDocument DocumentFunc
	router     *rod.HijackRouter
	events     chan hookEvent
	ctx        context.Context
	cancel     context.CancelFunc

	mu        sync.Mutex
	pageURL   string
	listeners map[lifecycle.Trigger][]func(lifecycle.Trigger)
}

func newTab(ctx context.Context, page *rod.Page, pageURL, pageID string, logger *slog.Logger, onDocument DocumentFunc) *Tab {
	tctx, cancel := context.WithCancel(ctx)
	return &Tab{
		Page:       page,
		PageID:     pageID,
		logger:     logger.With("page_id", pageID),
		onDocument: onDocument,
		events:     make(chan hookEvent, 64),
		ctx:        tctx,
		cancel:     cancel,
		pageURL:    pageURL,
		listeners:  make(map[lifecycle.Trigger][]func(lifecycle.Trigger)),
	}
}

// OpenTab creates a stealth tab, installs the event hook, and navigates to
// pageURL. onDocument runs for the first document and every full load after.
func OpenTab(ctx context.Context, mgr *Manager, pageURL, pageID string, onDocument DocumentFunc) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	t := newTab(ctx, page, pageURL, pageID, mgr.cfg.Logger, onDocument)

	if len(mgr.cfg.ResourceBlocking) > 0 {
		t.router = applyResourceBlocking(page, mgr.cfg.ResourceBlocking)
	}

	if err := t.installHook(); err != nil {
		t.Close()
		return nil, err
	}
	go t.loop()

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		t.logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return t, nil
}

// installHook wires the JS to Go channel. The subscription is made before
// the hook script is registered so no early event is lost.
func (t *Tab) installHook() error {
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(t.Page); err != nil {
		return fmt.Errorf("browser: add binding: %w", err)
	}

	wait := t.Page.Context(t.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		ev, err := parseHookEvent(e.Payload)
		if err != nil {
			t.logger.Warn(err.Error())
			return
		}
		select {
		case t.events <- ev:
		case <-t.ctx.Done():
		}
	})
	go wait()

	if _, err := t.Page.EvalOnNewDocument(hookJS); err != nil {
		return fmt.Errorf("browser: install hook: %w", err)
	}
	return nil
}

func (t *Tab) loop() {
	for {
		select {
		case <-t.ctx.Done():
			return
		case ev := <-t.events:
			t.dispatch(ev)
		}
	}
}

func (t *Tab) dispatch(ev hookEvent) {
	if ev.Op == opDocument {
		t.mu.Lock()
		if ev.Value != "" {
			t.pageURL = ev.Value
		}
		t.listeners = make(map[lifecycle.Trigger][]func(lifecycle.Trigger))
		t.mu.Unlock()

		t.logger.Debug("browser: new document", "url", ev.Value)
		if t.onDocument != nil {
			if err := t.onDocument(t.ctx, t); err != nil {
				t.logger.Warn("browser: attach failed", "url", ev.Value, "error", err)
			}
		}
		return
	}

	trig := lifecycle.Trigger(ev.Op)
	t.mu.Lock()
	fns := append(([]func(lifecycle.Trigger))(nil), t.listeners[trig]...)
	t.mu.Unlock()

	for _, fn := range fns {
		fn(trig)
	}
}

// On registers fn for a page event of the current document.
func (t *Tab) On(trig lifecycle.Trigger, fn func(lifecycle.Trigger)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners[trig] = append(t.listeners[trig], fn)
}

// ReadyState reads document.readyState.
func (t *Tab) ReadyState(ctx context.Context) (lifecycle.ReadyState, error) {
	res, err := t.Page.Context(ctx).Eval(`() => document.readyState`)
	if err != nil {
		return "", fmt.Errorf("browser: ready state: %w", err)
	}
	return lifecycle.ReadyState(res.Value.Str()), nil
}

// URL returns the address seen by the last Path call or document event.
func (t *Tab) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pageURL
}

// Path returns the current location path. Soft navigations change it
// without a new document, so it is read from the target every time.
func (t *Tab) Path(ctx context.Context) (string, error) {
	info, err := t.Page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("browser: target info: %w", err)
	}
	u, err := url.Parse(info.URL)
	if err != nil {
		return "", fmt.Errorf("browser: parse url: %w", err)
	}
	t.mu.Lock()
	t.pageURL = info.URL
	t.mu.Unlock()
	return u.Path, nil
}

// Document snapshots the live DOM.
func (t *Tab) Document(ctx context.Context) (*goquery.Document, error) {
	raw, err := t.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("browser: parse DOM: %w", err)
	}
	return doc, nil
}

// Apply inserts the patch with a single evaluation, so the page never shows
// a partial widget.
func (t *Tab) Apply(ctx context.Context, patch render.Patch) (bool, error) {
	res, err := t.Page.Context(ctx).Eval(applyJS, patch.SourceCaption, patch.Trailing())
	if err != nil {
		return false, fmt.Errorf("browser: apply: %w", err)
	}
	return res.Value.Bool(), nil
}

// HTML serialises the complete DOM as outer HTML.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	res, err := t.Page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// Close stops event delivery and closes the tab.
func (t *Tab) Close() error {
	t.cancel()
	if t.router != nil {
		t.router.Stop()
	}
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
