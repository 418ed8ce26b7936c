package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/theimaginaryfoundation/dimabsa/absa"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("va-stats", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-in", "dataset/zho_restaurant_train_alltasks.jsonl",
		"-valence-out", "v.jsonl",
		"-arousal-out", "a.jsonl",
		"-log-level", "warn",
		"-log-json",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.InputPath != filepath.FromSlash("dataset/zho_restaurant_train_alltasks.jsonl") {
		t.Fatalf("InputPath=%q", cfg.InputPath)
	}
	if cfg.ValenceOut != "v.jsonl" || cfg.ArousalOut != "a.jsonl" {
		t.Fatalf("outputs=%q %q", cfg.ValenceOut, cfg.ArousalOut)
	}
	if cfg.LogLevel != "warn" || !cfg.LogJSON {
		t.Fatalf("LogLevel=%q LogJSON=%v", cfg.LogLevel, cfg.LogJSON)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	same := defaultConfig()
	same.ArousalOut = same.ValenceOut
	if err := same.Validate(); err == nil {
		t.Fatalf("expected error for identical outputs")
	}
}

func TestExtractExamples_WritesBothDimensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lines := []string{
		`{"ID": "A", "Text": "a", "Quadruplet": [{"Aspect": "x", "Category": "LAPTOP#GENERAL", "Opinion": "o", "VA": "2.00#9.00"}]}`,
		`{"ID": "B", "Text": "b", "Quadruplet": [{"Aspect": "x", "Category": "LAPTOP#GENERAL", "Opinion": "o", "VA": "5.00#8.00"}]}`,
		`{"ID": "C", "Text": "c", "Quadruplet": [{"Aspect": "x", "Category": "LAPTOP#GENERAL", "Opinion": "o", "VA": "5.00#5.00"}]}`,
		`{"ID": "D", "Text": "d", "Quadruplet": [{"Aspect": "x", "Category": "LAPTOP#GENERAL", "Opinion": "o", "VA": "8.00#5.00"}]}`,
		`{"ID": "E", "Text": "e", "Quadruplet": [{"Aspect": "x", "Category": "LAPTOP#GENERAL", "Opinion": "o", "VA": "9.00#2.00"}]}`,
		`not json`,
	}
	in := filepath.Join(dir, "train.jsonl")
	if err := os.WriteFile(in, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := Config{InputPath: in, ValenceOut: filepath.Join(dir, "v.jsonl"), ArousalOut: filepath.Join(dir, "a.jsonl"), LogLevel: "info"}

	res, err := extractExamples(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("extractExamples: %v", err)
	}
	if res.Rows != 5 || res.Records != 5 || len(res.Outputs) != 2 {
		t.Fatalf("res=%+v", res)
	}

	v, err := os.ReadFile(cfg.ValenceOut)
	if err != nil {
		t.Fatalf("read valence: %v", err)
	}
	wantV := lines[0] + "\n" + lines[1] + "\n" + lines[3] + "\n" + lines[4] + "\n"
	if string(v) != wantV {
		t.Fatalf("valence file=\n%s\nwant=\n%s", v, wantV)
	}
	if res.Selected[absa.Valence] != 4 {
		t.Fatalf("valence selected=%d, want 4", res.Selected[absa.Valence])
	}

	// Arousal sorted: E(2) C(5) D(5) B(8) A(9); the tie at 5 keeps C, the earlier input row.
	a, err := os.ReadFile(cfg.ArousalOut)
	if err != nil {
		t.Fatalf("read arousal: %v", err)
	}
	wantA := lines[4] + "\n" + lines[2] + "\n" + lines[1] + "\n" + lines[0] + "\n"
	if string(a) != wantA {
		t.Fatalf("arousal file=\n%s\nwant=\n%s", a, wantA)
	}
}

func TestExtractExamples_NoRowsWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "train.jsonl")
	if err := os.WriteFile(in, []byte(`{"ID": "A", "Text": "a", "Quadruplet": [{"VA": "n/a"}]}`+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := Config{InputPath: in, ValenceOut: filepath.Join(dir, "v.jsonl"), ArousalOut: filepath.Join(dir, "a.jsonl")}

	res, err := extractExamples(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("extractExamples: %v", err)
	}
	if len(res.Outputs) != 0 || res.Records != 1 {
		t.Fatalf("res=%+v", res)
	}
	if _, err := os.Stat(cfg.ValenceOut); !os.IsNotExist(err) {
		t.Fatalf("valence file should not exist, err=%v", err)
	}
}

func TestExtractExamples_MissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := Config{InputPath: filepath.Join(dir, "nope.jsonl"), ValenceOut: filepath.Join(dir, "v.jsonl"), ArousalOut: filepath.Join(dir, "a.jsonl")}
	if _, err := extractExamples(cfg, zerolog.Nop()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v, want not exist", err)
	}
}
