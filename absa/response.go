package absa

import (
	"errors"
	"fmt"

	"github.com/theimaginaryfoundation/dimabsa/absa/fileutils"
	"github.com/tidwall/gjson"
)

// ErrUnparseableResponse marks a model response that is not valid JSON once fences are removed.
var ErrUnparseableResponse = errors.New("unparseable model response")

// Candidate is one quadruplet object as the model returned it. Scores are kept as raw JSON values so
// the formatter can apply its coercion rules.
type Candidate struct {
	Aspect   string
	Opinion  string
	Category string
	Valence  gjson.Result
	Arousal  gjson.Result

	// VA is the combined "V#A" field some few-shot sets teach the model to emit instead of separate
	// scores.
	VA gjson.Result
}

// DecodeCandidates parses a model response into candidates.
//
// A ```json fence is stripped first. An empty payload yields no candidates. A payload that is not valid
// JSON returns ErrUnparseableResponse. Valid JSON that is not an array yields no candidates, and array
// elements that are not objects are ignored.
func DecodeCandidates(outputText string) ([]Candidate, error) {
	payload := fileutils.StripCodeFence(outputText)
	if payload == "" {
		return nil, nil
	}
	if !gjson.Valid(payload) {
		return nil, fmt.Errorf("%w (len=%d): %s", ErrUnparseableResponse, len(payload), fileutils.Truncate(payload, 50))
	}

	root := gjson.Parse(payload)
	if !root.IsArray() {
		return nil, nil
	}

	var out []Candidate
	root.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		out = append(out, Candidate{
			Aspect:   textField(item.Get("Aspect")),
			Opinion:  textField(item.Get("Opinion")),
			Category: textField(item.Get("Category")),
			Valence:  item.Get("Valence"),
			Arousal:  item.Get("Arousal"),
			VA:       item.Get("VA"),
		})
		return true
	})
	return out, nil
}

// textField reads a string field; non-string scalars keep their JSON text, null and missing become "".
func textField(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Null:
		return ""
	default:
		return r.Raw
	}
}
