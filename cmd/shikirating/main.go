// Command shikirating injects the shiki users' score widget into shikimori
// title pages.
//
// Usage:
//
//	shikirating -config shikirating.yaml                  # keep configured tabs injected
//	shikirating -url https://shikimori.one/animes/1       # inject once, print the rating block
//	shikirating -file page.html -path /animes/1           # rewrite a saved page offline
//	shikirating -file page.html -path /animes/1 -format markdown
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/shikirating"
	"github.com/hazyhaar/shikirating/internal/preview"
)

func main() {
	configPath := flag.String("config", "", "path to shikirating.yaml config file")
	singleURL := flag.String("url", "", "inject into a single URL once and print the rating block")
	file := flag.String("file", "", "rewrite a saved HTML page (- for stdin)")
	pagePath := flag.String("path", "", "address the saved page was served at, e.g. /animes/1")
	format := flag.String("format", "html", "output for -url and -file: html, markdown")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	debug := flag.Bool("debug", false, "log why pages are skipped (same as -log-level debug)")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if *debug {
		level = slog.LevelDebug
	}
	logLevelVar := new(slog.LevelVar)
	logLevelVar.Set(level)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevelVar}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := preview.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	switch {
	case *file != "":
		err = runFile(ctx, logger, *file, *pagePath, f)
	case *singleURL != "":
		err = runSingle(ctx, logger, *singleURL, f)
	case *configPath != "":
		err = runConfig(ctx, logger, logLevelVar, *configPath)
	default:
		fmt.Fprintln(os.Stderr, "usage: shikirating -config <file> | -url <url> | -file <page.html> -path <path>")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("shikirating: fatal", "error", err)
		os.Exit(1)
	}
}

func runFile(ctx context.Context, logger *slog.Logger, path, pagePath string, f preview.Format) error {
	if pagePath == "" {
		return errors.New("-file needs -path")
	}
	in := os.Stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fh.Close()
		in = fh
	}

	inj := shikirating.New(nil, logger)
	page, err := inj.RewriteHTML(ctx, pagePath, in)
	if err != nil {
		return err
	}
	return emit(logger, page, f)
}

func runSingle(ctx context.Context, logger *slog.Logger, url string, f preview.Format) error {
	cfg := defaultConfig()
	inj := shikirating.New(cfg, logger)
	if err := inj.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer inj.Stop()

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	page, err := inj.Inject(runCtx, url)
	if err != nil {
		return err
	}
	return emit(logger, page, f)
}

func runConfig(ctx context.Context, logger *slog.Logger, level *slog.LevelVar, path string) error {
	cfg, err := shikirating.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		level.Set(slog.LevelDebug)
	}

	sinks, err := shikirating.SinksFromConfig(cfg, os.Stdout)
	if err != nil {
		return err
	}

	inj := shikirating.New(cfg, logger, sinks...)
	if err := inj.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	logger.Info("shikirating: started", "tabs", inj.Tabs())

	<-ctx.Done()
	inj.Stop()
	return nil
}

// emit logs the outcome and prints the rating block. Pages without a rating
// block are printed whole in html format.
func emit(logger *slog.Logger, page *shikirating.Page, f preview.Format) error {
	out := page.Outcome
	logger.Info("shikirating: outcome",
		"run_id", out.RunID, "url", out.PageURL, "state", out.State, "reason", out.Reason)

	text, err := preview.New().Render(page.Document.Selection, page.URL, f)
	if errors.Is(err, preview.ErrNoContainer) && f == preview.FormatHTML {
		text, err = page.HTML()
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}

func defaultConfig() *shikirating.Config {
	cfg := &shikirating.Config{
		Browser: shikirating.BrowserConfig{
			Stealth:          "headless",
			ResourceBlocking: []string{"images", "fonts", "media"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}
