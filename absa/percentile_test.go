package absa

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rowsOf(dim Dimension, pairs ...any) []ScoreRow {
	var rows []ScoreRow
	for i := 0; i+1 < len(pairs); i += 2 {
		r := ScoreRow{ID: pairs[i].(string)}
		v := pairs[i+1].(float64)
		if dim == Arousal {
			r.Arousal = v
		} else {
			r.Valence = v
		}
		rows = append(rows, r)
	}
	return rows
}

func cacheFor(ids ...string) RecordCache {
	c := RecordCache{}
	for _, id := range ids {
		c[id] = Record{ID: id, Text: "text " + id}
	}
	return c
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	t.Parallel()

	sorted := []float64{1, 2, 3, 4}
	cases := map[float64]float64{0: 1, 25: 1.75, 50: 2.5, 75: 3.25, 100: 4}
	for p, want := range cases {
		if got := Percentile(sorted, p); math.Abs(got-want) > 1e-12 {
			t.Fatalf("Percentile(%v)=%v, want %v", p, got, want)
		}
	}
	if got := Percentile([]float64{7}, 50); got != 7 {
		t.Fatalf("single value percentile=%v, want 7", got)
	}
	if !math.IsNaN(Percentile(nil, 50)) {
		t.Fatalf("empty percentile should be NaN")
	}
}

func TestPercentiles_UnsortedInputAndRange(t *testing.T) {
	t.Parallel()

	got, err := Percentiles([]float64{9, 2, 5, 8, 5}, LandmarkPercentiles)
	if err != nil {
		t.Fatalf("Percentiles: %v", err)
	}
	if diff := cmp.Diff([]float64{2, 5, 5, 8, 9}, got); diff != "" {
		t.Fatalf("percentiles mismatch (-want +got):\n%s", diff)
	}
	if _, err := Percentiles(nil, LandmarkPercentiles); !errors.Is(err, ErrEmptyRows) {
		t.Fatalf("err=%v, want ErrEmptyRows", err)
	}
	if _, err := Percentiles([]float64{1}, []float64{101}); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestSelectRepresentatives_TiesCollapseByValue(t *testing.T) {
	t.Parallel()

	rows := rowsOf(Valence, "A", 2.0, "B", 5.0, "C", 5.0, "D", 8.0, "E", 9.0)
	sel, err := SelectRepresentatives(rows, cacheFor("A", "B", "C", "D", "E"), Valence)
	if err != nil {
		t.Fatalf("SelectRepresentatives: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "D", "E"}, sel.IDs); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
	if len(sel.Records) != 4 {
		t.Fatalf("records=%d, want 4", len(sel.Records))
	}
	if len(sel.Landmarks) != 5 {
		t.Fatalf("landmarks=%d, want 5", len(sel.Landmarks))
	}
	median := sel.Landmarks[2]
	if median.Target != 5 || median.Row.ID != "B" || !median.DuplicateValue {
		t.Fatalf("median landmark=%+v, want duplicate of B at 5", median)
	}
}

func TestSelectRepresentatives_SingleRow(t *testing.T) {
	t.Parallel()

	sel, err := SelectRepresentatives(rowsOf(Arousal, "only", 4.5), cacheFor("only"), Arousal)
	if err != nil {
		t.Fatalf("SelectRepresentatives: %v", err)
	}
	if diff := cmp.Diff([]string{"only"}, sel.IDs); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
	for _, lm := range sel.Landmarks[1:] {
		if !lm.DuplicateValue {
			t.Fatalf("landmark p%v should repeat the single value: %+v", lm.Percentile, lm)
		}
	}
}

func TestSelectRepresentatives_AllEqualValues(t *testing.T) {
	t.Parallel()

	rows := rowsOf(Valence, "a", 6.0, "b", 6.0, "c", 6.0)
	sel, err := SelectRepresentatives(rows, cacheFor("a", "b", "c"), Valence)
	if err != nil {
		t.Fatalf("SelectRepresentatives: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, sel.IDs); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectRepresentatives_FiveDistinctValues(t *testing.T) {
	t.Parallel()

	rows := rowsOf(Arousal, "e", 5.0, "c", 3.0, "a", 1.0, "d", 4.0, "b", 2.0)
	sel, err := SelectRepresentatives(rows, cacheFor("a", "b", "c", "d", "e"), Arousal)
	if err != nil {
		t.Fatalf("SelectRepresentatives: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, sel.IDs); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectRepresentatives_SameRecordTwiceIsOneID(t *testing.T) {
	t.Parallel()

	// X owns both 1 and 5; Q1 lands on X(5), a new value but an already selected record.
	rows := rowsOf(Valence, "X", 1.0, "X", 5.0, "Y", 9.0)
	sel, err := SelectRepresentatives(rows, cacheFor("X", "Y"), Valence)
	if err != nil {
		t.Fatalf("SelectRepresentatives: %v", err)
	}
	if diff := cmp.Diff([]string{"X", "Y"}, sel.IDs); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
	if q1 := sel.Landmarks[1]; q1.Row.Valence != 5 || q1.DuplicateValue {
		t.Fatalf("Q1 landmark=%+v, want X at 5 claimed", q1)
	}
}

func TestSelectRepresentatives_MissingCacheEntryDropped(t *testing.T) {
	t.Parallel()

	rows := rowsOf(Valence, "A", 1.0, "B", 9.0)
	sel, err := SelectRepresentatives(rows, cacheFor("B"), Valence)
	if err != nil {
		t.Fatalf("SelectRepresentatives: %v", err)
	}
	if len(sel.IDs) != 2 || len(sel.Records) != 1 || sel.Records[0].ID != "B" {
		t.Fatalf("ids=%v records=%d, want both IDs and only B's record", sel.IDs, len(sel.Records))
	}
}

func TestSelectRepresentatives_Empty(t *testing.T) {
	t.Parallel()

	if _, err := SelectRepresentatives(nil, RecordCache{}, Valence); !errors.Is(err, ErrEmptyRows) {
		t.Fatalf("err=%v, want ErrEmptyRows", err)
	}
}

func TestSelectRepresentatives_SizeBounds(t *testing.T) {
	t.Parallel()

	values := []float64{3.5, 7.25, 1.0, 9.0, 5.5, 5.5, 2.75, 8.0, 6.0, 4.25, 3.5}
	var rows []ScoreRow
	cache := RecordCache{}
	for i, v := range values {
		id := string(rune('a' + i))
		rows = append(rows, ScoreRow{ID: id, Valence: v, Arousal: 10 - v})
		cache[id] = Record{ID: id}
	}
	for _, dim := range []Dimension{Valence, Arousal} {
		sel, err := SelectRepresentatives(rows, cache, dim)
		if err != nil {
			t.Fatalf("%s: %v", dim, err)
		}
		if n := len(sel.IDs); n < 1 || n > len(LandmarkPercentiles) {
			t.Fatalf("%s: selected %d ids, want 1..5", dim, n)
		}
		seen := map[float64]bool{}
		for _, lm := range sel.Landmarks {
			if lm.Skipped || lm.DuplicateValue {
				continue
			}
			v := lm.Row.Value(dim)
			if seen[v] {
				t.Fatalf("%s: value %v claimed twice", dim, v)
			}
			seen[v] = true
		}
	}
}
