package absa

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// LandmarkPercentiles are the five statistical landmarks: minimum, Q1, median, Q3, maximum.
var LandmarkPercentiles = []float64{0, 25, 50, 75, 100}

// ErrEmptyRows is returned when there is nothing to compute percentiles over.
var ErrEmptyRows = errors.New("no score rows")

// Percentile returns the p-th percentile (0..100) of sorted using linear interpolation between the two
// nearest ranks (numpy's default "linear" method). sorted must be ascending and non-empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	idx := float64(n-1) * (p / 100)
	lo := math.Floor(idx)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return lerp(sorted[i], sorted[i+1], idx-lo)
}

// lerp matches numpy's two-sided formulation so results agree bit-for-bit near the upper neighbour.
func lerp(a, b, t float64) float64 {
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}

// Percentiles computes each of ps over values (which need not be sorted).
func Percentiles(values []float64, ps []float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, ErrEmptyRows
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := make([]float64, len(ps))
	for i, p := range ps {
		if p < 0 || p > 100 || math.IsNaN(p) {
			return nil, fmt.Errorf("percentile %v out of range [0,100]", p)
		}
		out[i] = Percentile(sorted, p)
	}
	return out, nil
}

// Landmark records how one percentile was resolved to a row.
type Landmark struct {
	Percentile float64
	Target     float64

	// Row is the chosen row; zero when Skipped.
	Row ScoreRow

	// Skipped is set when no row has a value >= Target.
	Skipped bool

	// DuplicateValue is set when Row's value was already claimed by an earlier landmark, so this
	// landmark contributed no record.
	DuplicateValue bool
}

// Selection is the outcome of SelectRepresentatives for one dimension.
type Selection struct {
	Dimension Dimension
	Landmarks []Landmark

	// IDs are the selected record IDs in first-claim order.
	IDs []string

	// Records are the cached records for IDs; IDs missing from the cache are dropped.
	Records []Record
}

// SelectRepresentatives picks one representative record for each of the minimum, quartiles, and
// maximum of dim across rows.
//
// Rows are stably sorted by value, so among equal values the earliest input row wins. The minimum and
// maximum take the first and last sorted rows; each quartile takes the first row whose value is >= the
// interpolated percentile. A value already claimed by an earlier landmark is not claimed again, even by
// a different row.
func SelectRepresentatives(rows []ScoreRow, cache RecordCache, dim Dimension) (Selection, error) {
	sel := Selection{Dimension: dim}
	if len(rows) == 0 {
		return sel, ErrEmptyRows
	}

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Value(dim)
	}
	targets, err := Percentiles(values, LandmarkPercentiles)
	if err != nil {
		return sel, fmt.Errorf("SelectRepresentatives: %w", err)
	}

	sorted := append([]ScoreRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value(dim) < sorted[j].Value(dim)
	})

	claimedValues := make(map[float64]struct{}, len(LandmarkPercentiles))
	claimedIDs := make(map[string]struct{}, len(LandmarkPercentiles))

	for i, p := range LandmarkPercentiles {
		lm := Landmark{Percentile: p, Target: targets[i]}

		var idx int
		switch p {
		case 0:
			idx = 0
		case 100:
			idx = len(sorted) - 1
		default:
			target := targets[i]
			idx = sort.Search(len(sorted), func(k int) bool {
				return sorted[k].Value(dim) >= target
			})
			if idx == len(sorted) {
				lm.Skipped = true
				sel.Landmarks = append(sel.Landmarks, lm)
				continue
			}
		}

		lm.Row = sorted[idx]
		v := lm.Row.Value(dim)
		if _, dup := claimedValues[v]; dup {
			lm.DuplicateValue = true
			sel.Landmarks = append(sel.Landmarks, lm)
			continue
		}
		claimedValues[v] = struct{}{}
		if _, seen := claimedIDs[lm.Row.ID]; !seen {
			claimedIDs[lm.Row.ID] = struct{}{}
			sel.IDs = append(sel.IDs, lm.Row.ID)
		}
		sel.Landmarks = append(sel.Landmarks, lm)
	}

	for _, id := range sel.IDs {
		rec, ok := cache[id]
		if !ok {
			continue
		}
		sel.Records = append(sel.Records, rec)
	}
	return sel, nil
}
