package absa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"
)

// DefaultVA is written when a candidate's valence or arousal cannot be read as a number.
const DefaultVA = "0.00#0.00"

// FormatVA renders both scores with exactly two decimals, joined by '#'.
func FormatVA(valence, arousal float64) string {
	return fmt.Sprintf("%.2f#%.2f", valence, arousal)
}

// FormatPrediction turns decoded model candidates into one prediction line.
//
// Missing text fields become "". A missing score counts as 0; a score that is neither a number, a
// numeric string, nor a boolean turns the whole VA into DefaultVA. A candidate with no separate scores
// but a "V#A" string uses that string's scores (DefaultVA if it does not parse).
func FormatPrediction(id string, candidates []Candidate) Prediction {
	pred := Prediction{ID: id, Quadruplet: make([]PredictedQuad, 0, len(candidates))}
	for _, c := range candidates {
		q := PredictedQuad{
			Aspect:   c.Aspect,
			Category: NormalizeCategory(c.Category),
			Opinion:  c.Opinion,
			VA:       DefaultVA,
		}
		if !c.Valence.Exists() && !c.Arousal.Exists() && c.VA.Type == gjson.String {
			if v, a, err := ParseVA(c.VA.Str); err == nil {
				q.VA = FormatVA(v, a)
			}
			pred.Quadruplet = append(pred.Quadruplet, q)
			continue
		}
		v, vok := coerceScore(c.Valence)
		a, aok := coerceScore(c.Arousal)
		if vok && aok {
			q.VA = FormatVA(v, a)
		}
		pred.Quadruplet = append(pred.Quadruplet, q)
	}
	return pred
}

// NormalizeCategory folds full-width and compatibility characters (ＦＯＯＤ＃ＱＵＡＬＩＴＹ) to their ASCII
// forms and trims surrounding space. It does not check the label against any taxonomy.
func NormalizeCategory(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func coerceScore(r gjson.Result) (float64, bool) {
	if !r.Exists() {
		return 0, true
	}
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case gjson.True:
		return 1, true
	case gjson.False:
		return 0, true
	default:
		return 0, false
	}
}
