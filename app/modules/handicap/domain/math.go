// Package handicapmath implements the handicap numeric pipeline: score
// differentials, equitable stroke control, best-of-N index selection, and
// course/playing handicap conversion. Everything here is pure and
// deterministic; callers own all I/O.
package handicapmath

import (
	"math"
	"sort"
)

const (
	// StandardSlope is the slope rating of a course of standard difficulty.
	StandardSlope = 113.0

	// MaxHandicapIndex is the ceiling applied to a computed index.
	MaxHandicapIndex = 54.0

	// DefaultHandicapIndex is used for players with no recorded index and no
	// differential history, wherever a playing handicap is needed.
	DefaultHandicapIndex = 20.0

	// MinDifferentialsForIndex is the smallest history that yields an index.
	MinDifferentialsForIndex = 3

	// MaxDifferentialsConsidered bounds the rolling history window.
	MaxDifferentialsConsidered = 20
)

// HoleScore pairs a recorded stroke count with the hole's par. Strokes of
// zero means no score was recorded for the hole.
type HoleScore struct {
	Strokes int
	Par     int
}

// roundTo1 rounds half away from zero to one decimal, matching how governing
// bodies publish differentials and indexes.
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ScoreDifferential computes the 18-hole score differential:
// (113 / slope) * (adjustedGross - courseRating), rounded to one decimal.
// Negative results are legal and returned as-is.
func ScoreDifferential(adjustedGross int, courseRating float64, slopeRating int) float64 {
	return roundTo1(StandardSlope / float64(slopeRating) * (float64(adjustedGross) - courseRating))
}

// NineHoleScoreDifferential converts a nine-hole adjusted gross into an
// 18-hole-equivalent differential. The course rating supplied is the
// 18-hole rating for the tee: it is halved for the nine actually played and
// the resulting nine-hole differential is doubled. Doubling (rather than
// halving the full-formula output) is used uniformly throughout this engine.
func NineHoleScoreDifferential(adjustedGross int, courseRating float64, slopeRating int) float64 {
	nine := StandardSlope / float64(slopeRating) * (float64(adjustedGross) - courseRating/2)
	return roundTo1(nine * 2)
}

// maxHoleScore returns the per-hole score cap for a course handicap, per the
// equitable stroke control table.
func maxHoleScore(courseHandicap, par int) int {
	switch {
	case courseHandicap <= 9:
		return par + 2
	case courseHandicap <= 19:
		return 7
	case courseHandicap <= 29:
		return 8
	case courseHandicap <= 39:
		return 9
	default:
		return 10
	}
}

// EquitableStrokeControl sums per-hole scores with each hole capped at the
// maximum allowed for the player's course handicap. The cap is a maximum
// score, not strokes over par. Holes without a recorded score are excluded;
// callers validating a full round must check completeness first.
func EquitableStrokeControl(holes []HoleScore, courseHandicap int) int {
	adjusted := 0
	for _, h := range holes {
		if h.Strokes <= 0 {
			continue
		}
		capped := maxHoleScore(courseHandicap, h.Par)
		if h.Strokes < capped {
			capped = h.Strokes
		}
		adjusted += capped
	}
	return adjusted
}

// selection describes how many of the lowest differentials are averaged and
// what flat adjustment is applied, for a given history size.
type selection struct {
	use        int
	adjustment float64
}

func selectionFor(count int) selection {
	switch {
	case count == 3:
		return selection{use: 1, adjustment: -2.0}
	case count == 4:
		return selection{use: 1, adjustment: -1.0}
	case count == 5:
		return selection{use: 1}
	case count == 6:
		return selection{use: 2, adjustment: -1.0}
	case count <= 8:
		return selection{use: 2}
	case count <= 11:
		return selection{use: 3}
	case count <= 14:
		return selection{use: 4}
	case count <= 16:
		return selection{use: 5}
	case count <= 18:
		return selection{use: 6}
	case count == 19:
		return selection{use: 7}
	default:
		return selection{use: 8}
	}
}

// HandicapIndex derives an index from differentials ordered newest first.
// Only the most recent 20 are considered. ok is false when fewer than 3
// differentials exist. The result is capped at MaxHandicapIndex and rounded
// to one decimal.
func HandicapIndex(differentials []float64) (index float64, ok bool) {
	if len(differentials) < MinDifferentialsForIndex {
		return 0, false
	}

	window := differentials
	if len(window) > MaxDifferentialsConsidered {
		window = window[:MaxDifferentialsConsidered]
	}

	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)

	sel := selectionFor(len(sorted))
	sum := 0.0
	for _, d := range sorted[:sel.use] {
		sum += d
	}

	index = sum/float64(sel.use) + sel.adjustment
	if index > MaxHandicapIndex {
		index = MaxHandicapIndex
	}
	return roundTo1(index), true
}

// CourseHandicap converts an index to the whole-stroke allowance for a tee.
func CourseHandicap(handicapIndex float64, slopeRating int) int {
	return int(math.Round(handicapIndex * float64(slopeRating) / StandardSlope))
}

// PlayingHandicap converts an index to a playing handicap, including the
// rating-minus-par correction.
func PlayingHandicap(handicapIndex float64, slopeRating int, courseRating float64, par int) int {
	return int(math.Round(handicapIndex*float64(slopeRating)/StandardSlope + (courseRating - float64(par))))
}
