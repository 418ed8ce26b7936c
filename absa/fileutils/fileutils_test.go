package fileutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONLinesAtomic_LiteralUnicodeAndRaw(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "out", "lines.jsonl")

	type row struct {
		ID   string `json:"ID"`
		Text string `json:"Text"`
	}
	if err := WriteJSONLinesAtomic(p, []row{{ID: "a", Text: "咖哩<香>"}, {ID: "b", Text: "x"}}); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "{\"ID\":\"a\",\"Text\":\"咖哩<香>\"}\n{\"ID\":\"b\",\"Text\":\"x\"}\n"
	if string(b) != want {
		t.Fatalf("content=%q, want %q", string(b), want)
	}

	raw := []json.RawMessage{json.RawMessage(`  {"ID": "r1", "Text": "主餐"}  `)}
	if err := WriteJSONLinesAtomic(p, raw); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	b, _ = os.ReadFile(p)
	if string(b) != "{\"ID\": \"r1\", \"Text\": \"主餐\"}\n" {
		t.Fatalf("raw content=%q", string(b))
	}

	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteJSONLinesAtomic_EmptyWritesEmptyFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := WriteJSONLinesAtomic[json.RawMessage](p, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Size() != 0 {
		t.Fatalf("size=%d, want 0", fi.Size())
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	t.Parallel()

	if got := Truncate("  咖哩一上桌超級香  ", 3); got != "咖哩一…" {
		t.Fatalf("got=%q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got=%q", got)
	}
	if got := Truncate(" x ", 0); got != "x" {
		t.Fatalf("got=%q", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"```json\n[{\"a\":1}]\n```": `[{"a":1}]`,
		"```\n[]\n```":              `[]`,
		"  [1]  ":                   `[1]`,
		"```json\n```":              ``,
		"[]```":                     `[]`,
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Fatalf("StripCodeFence(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if FileExists(dir) {
		t.Fatalf("directory reported as file")
	}
	p := filepath.Join(dir, "f")
	if FileExists(p) {
		t.Fatalf("missing file reported as existing")
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !FileExists(p) {
		t.Fatalf("expected file to exist")
	}
}
