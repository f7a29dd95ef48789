package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-creds/config"
)

func TestRootCommandHasStages(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"scrape", "normalize", "run"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("missing %q subcommand: %v", name, err)
		}
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "intermediate_path: from-file.jsonl\nmax_retries: 4\ndelay: 1s\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CREDSCRAPER_MAX_RETRIES", "6")

	root := NewRootCmd()
	scrape, _, err := root.Find([]string{"scrape"})
	if err != nil {
		t.Fatalf("find scrape: %v", err)
	}
	if err := scrape.ParseFlags([]string{"--config", cfgPath, "--delay", "250ms"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := loadConfig(scrape)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.IntermediatePath != "from-file.jsonl" {
		t.Fatalf("intermediate=%q, want value from file", cfg.IntermediatePath)
	}
	if cfg.MaxRetries != 6 {
		t.Fatalf("max retries=%d, want env value 6", cfg.MaxRetries)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Fatalf("delay=%v, want flag value 250ms", cfg.Delay)
	}
}

func TestNormalizeCommand(t *testing.T) {
	dir := t.TempDir()
	intermediate := filepath.Join(dir, "responses.jsonl")
	output := filepath.Join(dir, "out", "data.js")

	lines := strings.Join([]string{
		`{"brand_id":3,"brand_name":"ADB / Pirelli","model_id":9,"model_name":"WS325 &#65279;","username":"admin","password":"n/a"}`,
		`garbage`,
		`{"brand_id":1,"brand_name":"Linksys","model_id":4,"model_name":"WRT54G","username":"","password":"admin","reference":"/foo/bar"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(intermediate, []byte(lines), 0o644); err != nil {
		t.Fatalf("write intermediate: %v", err)
	}

	root := NewRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"normalize", "--intermediate", intermediate, "--output", output, "--format", "dual"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	module, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read module: %v", err)
	}
	for _, want := range []string{`"vendor": "pirelli"`, `"product": "ws325"`, `"http://192-168-1-1-ip.co/foo/bar"`, "module.exports = {"} {
		if !strings.Contains(string(module), want) {
			t.Fatalf("module missing %s:\n%s", want, module)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "data.json")); err != nil {
		t.Fatalf("dual format should also write data.json: %v", err)
	}
	if !strings.Contains(stdout.String(), "Rows:          2") {
		t.Fatalf("unexpected summary:\n%s", stdout.String())
	}
}

func TestNormalizeCommandMissingInput(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"normalize", "--intermediate", filepath.Join(t.TempDir(), "missing.jsonl")})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for missing intermediate file")
	}
}

func TestScrapeCommandBadManufacturers(t *testing.T) {
	dir := t.TempDir()
	manufacturers := filepath.Join(dir, "manufacturers.txt")
	if err := os.WriteFile(manufacturers, []byte("1 no tab here\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"scrape", "--manufacturers", manufacturers, "--intermediate", filepath.Join(dir, "r.jsonl")})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "load manufacturers") {
		t.Fatalf("expected manufacturer load failure, got %v", err)
	}
}

func TestNormalizeFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.IntermediatePath = filepath.Join(dir, "responses.jsonl")
	cfg.OutputPath = filepath.Join(dir, "data.js")
	line := `{"brand_id":1,"brand_name":"Linksys","model_id":4,"model_name":"WRT54G","username":"admin","password":"admin"}` + "\n"
	if err := os.WriteFile(cfg.IntermediatePath, []byte(line), 0o644); err != nil {
		t.Fatalf("write intermediate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runNormalize(ctx, cfg, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(cfg.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("output should not exist after a failed normalize, stat err=%v", err)
	}
}
