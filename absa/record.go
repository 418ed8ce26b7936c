package absa

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Quadruplet is one labeled (aspect, opinion, category, valence#arousal) tuple as it appears in the
// DimABSA training files.
type Quadruplet struct {
	Aspect   string `json:"Aspect"`
	Category string `json:"Category"`
	Opinion  string `json:"Opinion"`
	VA       string `json:"VA"`
}

// Record is one review sentence with its labeled quadruplets.
// raw holds the source line so the record can be written back out verbatim.
type Record struct {
	ID         string       `json:"ID"`
	Text       string       `json:"Text"`
	Quadruplet []Quadruplet `json:"Quadruplet"`

	raw json.RawMessage
}

// Raw returns the JSON line the record was loaded from, or nil for records built in memory.
func (r Record) Raw() json.RawMessage {
	return r.raw
}

// ScoreRow is the flattened projection of one quadruplet: its record ID plus both parsed scores.
type ScoreRow struct {
	ID      string
	Valence float64
	Arousal float64
}

// Value returns the row's score for dim.
func (r ScoreRow) Value(dim Dimension) float64 {
	if dim == Arousal {
		return r.Arousal
	}
	return r.Valence
}

// RecordCache maps a record ID to the full original record.
type RecordCache map[string]Record

// Dimension selects which of the two VA scores an operation works on.
type Dimension int

const (
	Valence Dimension = iota
	Arousal
)

func (d Dimension) String() string {
	switch d {
	case Valence:
		return "Valence"
	case Arousal:
		return "Arousal"
	default:
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
}

var ErrMalformedVA = errors.New("malformed VA")

// ParseVA splits a "V#A" string into its two scores. Exactly one '#' separating two numbers is required.
func ParseVA(s string) (valence, arousal float64, err error) {
	parts := strings.Split(strings.TrimSpace(s), "#")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedVA, s)
	}
	valence, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: valence %q", ErrMalformedVA, parts[0])
	}
	arousal, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: arousal %q", ErrMalformedVA, parts[1])
	}
	return valence, arousal, nil
}

// InferenceItem is one unlabeled sentence to run extraction on.
type InferenceItem struct {
	ID   string `json:"ID"`
	Text string `json:"Text"`
}

// PredictedQuad is one output quadruplet. Field order is the order written to the prediction file.
type PredictedQuad struct {
	Aspect   string `json:"Aspect"`
	Category string `json:"Category"`
	Opinion  string `json:"Opinion"`
	VA       string `json:"VA"`
}

// Prediction is one line of the prediction file.
type Prediction struct {
	ID         string          `json:"ID"`
	Quadruplet []PredictedQuad `json:"Quadruplet"`
}
