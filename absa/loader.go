package absa

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/theimaginaryfoundation/dimabsa/absa/fileutils"
	"github.com/tidwall/gjson"
)

// ErrInputNotFound is returned when neither candidate input path exists.
var ErrInputNotFound = errors.New("input file not found")

// maxLineBytes bounds a single JSONL line; review sentences are short but the annotated training
// lines can carry dozens of quadruplets.
const maxLineBytes = 4 * 1024 * 1024

// LoadStats counts what a load pass kept and dropped.
type LoadStats struct {
	Lines        int
	Blank        int
	Malformed    int
	MissingField int
	Loaded       int

	Quadruplets        int
	SkippedQuadruplets int
}

// TrainingSet is the result of one load pass over a labeled file: the records in file order, the
// ID -> record cache, and the flattened score rows derived from the cached records.
type TrainingSet struct {
	Records []Record
	Cache   RecordCache
	Rows    []ScoreRow
	Stats   LoadStats
}

// ResolveInputPath returns dataDir/name when it exists, otherwise name itself when it exists.
func ResolveInputPath(dataDir, name string) (string, error) {
	if name == "" {
		return "", errors.New("ResolveInputPath: name is empty")
	}
	candidates := []string{filepath.Join(dataDir, name), name}
	for _, p := range candidates {
		if fileutils.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s or %s", ErrInputNotFound, candidates[0], candidates[1])
}

// LoadInferenceItems reads {"ID","Text"} lines. Blank lines are ignored; malformed JSON and lines
// without a non-empty ID and Text are skipped and logged.
func LoadInferenceItems(path string, log zerolog.Logger) ([]InferenceItem, LoadStats, error) {
	var (
		items []InferenceItem
		stats LoadStats
	)
	err := scanJSONL(path, &stats, func(lineNo int, line []byte) {
		if !gjson.ValidBytes(line) {
			stats.Malformed++
			log.Warn().Int("line", lineNo).Str("content", fileutils.Truncate(string(line), 120)).Msg("skipping malformed line (JSON decode error)")
			return
		}
		id := gjson.GetBytes(line, "ID").String()
		text := gjson.GetBytes(line, "Text").String()
		if id == "" || text == "" {
			stats.MissingField++
			log.Warn().Int("line", lineNo).Msg("skipping line without ID or Text")
			return
		}
		items = append(items, InferenceItem{ID: id, Text: text})
		stats.Loaded++
	})
	if err != nil {
		return nil, stats, fmt.Errorf("LoadInferenceItems: %w", err)
	}
	return items, stats, nil
}

// LoadTrainingSet reads labeled {"ID","Text","Quadruplet"} lines into a TrainingSet.
//
// Unparseable lines and lines without an ID are skipped. Every other record is cached (a later line
// with the same ID replaces the earlier one). A quadruplet whose VA is missing or not "V#A" is left
// out of Rows only; the record itself still keeps it.
func LoadTrainingSet(path string, log zerolog.Logger) (TrainingSet, error) {
	ts := TrainingSet{Cache: RecordCache{}}
	err := scanJSONL(path, &ts.Stats, func(lineNo int, line []byte) {
		if !gjson.ValidBytes(line) {
			ts.Stats.Malformed++
			log.Debug().Int("line", lineNo).Msg("skipping malformed line")
			return
		}
		doc := gjson.ParseBytes(line)
		id := doc.Get("ID").String()
		if id == "" {
			ts.Stats.MissingField++
			log.Debug().Int("line", lineNo).Msg("skipping line without ID")
			return
		}

		rec := Record{
			ID:   id,
			Text: doc.Get("Text").String(),
			raw:  append(json.RawMessage(nil), line...),
		}
		doc.Get("Quadruplet").ForEach(func(_, q gjson.Result) bool {
			if !q.IsObject() {
				return true
			}
			quad := Quadruplet{
				Aspect:   q.Get("Aspect").String(),
				Category: q.Get("Category").String(),
				Opinion:  q.Get("Opinion").String(),
				VA:       q.Get("VA").String(),
			}
			rec.Quadruplet = append(rec.Quadruplet, quad)
			ts.Stats.Quadruplets++

			vaField := q.Get("VA")
			if vaField.Type != gjson.String {
				ts.Stats.SkippedQuadruplets++
				return true
			}
			v, a, err := ParseVA(vaField.Str)
			if err != nil {
				ts.Stats.SkippedQuadruplets++
				log.Debug().Int("line", lineNo).Str("id", id).Err(err).Msg("quadruplet excluded from score table")
				return true
			}
			ts.Rows = append(ts.Rows, ScoreRow{ID: id, Valence: v, Arousal: a})
			return true
		})

		ts.Records = append(ts.Records, rec)
		ts.Cache[id] = rec
		ts.Stats.Loaded++
	})
	if err != nil {
		return TrainingSet{}, fmt.Errorf("LoadTrainingSet: %w", err)
	}
	return ts, nil
}

func scanJSONL(path string, stats *LoadStats, fn func(lineNo int, line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scanJSONLReader(f, stats, fn)
}

func scanJSONLReader(r io.Reader, stats *LoadStats, fn func(lineNo int, line []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		stats.Lines++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			stats.Blank++
			continue
		}
		fn(lineNo, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan line %d: %w", lineNo+1, err)
	}
	return nil
}

