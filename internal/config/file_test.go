package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
pages:
  - url: https://shikimori.one/animes/1-cowboy-bebop
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.Stealth != "headless" {
		t.Errorf("stealth %q", cfg.Browser.Stealth)
	}
	if cfg.Browser.MemoryLimit != 1<<30 || cfg.Browser.RecycleInterval != 4*time.Hour {
		t.Errorf("browser defaults %+v", cfg.Browser)
	}
	if cfg.Pages[0].ID != "page-1" {
		t.Errorf("page id %q", cfg.Pages[0].ID)
	}
	if len(cfg.Sinks) != 1 || cfg.Sinks[0].Type != "stdout" {
		t.Errorf("sinks %+v", cfg.Sinks)
	}
	if cfg.Debug {
		t.Error("debug should default to false")
	}
}

func TestParse_Full(t *testing.T) {
	cfg, err := Parse([]byte(`
debug: true
browser:
  remote: ws://127.0.0.1:9222/devtools/browser/abc
  stealth: headful
  recycle_interval: 30m
  resource_blocking: [images, fonts]
pages:
  - id: bebop
    url: https://shikimori.one/animes/1
sinks:
  - type: stdout
    skipped: true
`))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug || cfg.Browser.Stealth != "headful" || cfg.Browser.RecycleInterval != 30*time.Minute {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Browser.ResourceBlocking) != 2 {
		t.Errorf("resource blocking %v", cfg.Browser.ResourceBlocking)
	}
	if cfg.Pages[0].ID != "bebop" || !cfg.Sinks[0].Skipped {
		t.Errorf("pages/sinks %+v %+v", cfg.Pages, cfg.Sinks)
	}
}

func TestParse_Invalid(t *testing.T) {
	for name, in := range map[string]string{
		"stealth":  "browser:\n  stealth: invisible\n",
		"no url":   "pages:\n  - id: x\n",
		"bad yaml": "pages: [",
	} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shikirating.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug not loaded")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
