package fileutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// SanitizeNewlines folds a multi-line model response onto one log line.
func SanitizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// Truncate trims s and cuts it to at most max runes, so CJK text is never split mid-character.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

// MarshalJSONLine encodes v as a single compact JSON line with non-ASCII and HTML characters left
// literal. The trailing newline added by json.Encoder is kept.
func MarshalJSONLine(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSONLinesAtomic writes one JSON object per line. Items that are already encoded
// (json.RawMessage) are written as-is.
func WriteJSONLinesAtomic[T any](path string, items []T) error {
	var buf bytes.Buffer
	for i, item := range items {
		if raw, ok := any(item).(json.RawMessage); ok {
			buf.Write(bytes.TrimSpace(raw))
			buf.WriteByte('\n')
			continue
		}
		line, err := MarshalJSONLine(item)
		if err != nil {
			return fmt.Errorf("marshal line %d: %w", i+1, err)
		}
		buf.Write(line)
	}
	if err := WriteFileAtomicSameDir(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write jsonl: %w", err)
	}
	return nil
}

// WriteFileAtomicSameDir writes data to a temp file next to path and renames it into place.
func WriteFileAtomicSameDir(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_"+filepath.Base(path)+"_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
