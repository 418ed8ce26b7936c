package absa

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Score range of the annotation scale, used as the default histogram domain.
const (
	MinScore = 1.0
	MaxScore = 9.0
)

// Bin is one right-closed histogram interval (Lo, Hi].
type Bin struct {
	Lo, Hi float64
	Count  int
}

// Label renders the interval as "(lo-hi]" with one decimal.
func (b Bin) Label() string {
	return fmt.Sprintf("(%.1f-%.1f]", b.Lo, b.Hi)
}

// BinEdges returns lo, lo+w, ... up to and including hi+w.
func BinEdges(lo, hi, width float64) ([]float64, error) {
	if !(width > 0) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("BinEdges: width must be positive, got %v", width)
	}
	if !(hi > lo) {
		return nil, errors.New("BinEdges: hi must be greater than lo")
	}
	n := int(math.Round((hi-lo)/width)) + 2
	edges := make([]float64, n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	return edges, nil
}

// BinScores counts values into right-closed bins over BinEdges(lo, hi, width). The first bin also
// takes values equal to lo. Values outside the edges are dropped. Empty bins are omitted.
func BinScores(values []float64, lo, hi, width float64) ([]Bin, error) {
	edges, err := BinEdges(lo, hi, width)
	if err != nil {
		return nil, err
	}
	counts := make([]int, len(edges)-1)
	for _, v := range values {
		j := sort.SearchFloat64s(edges, v)
		switch {
		case j == len(edges):
			continue
		case j == 0:
			if v != edges[0] {
				continue
			}
			counts[0]++
		default:
			counts[j-1]++
		}
	}

	bins := make([]Bin, 0, len(counts))
	for i, c := range counts {
		if c == 0 {
			continue
		}
		bins = append(bins, Bin{Lo: edges[i], Hi: edges[i+1], Count: c})
	}
	return bins, nil
}
