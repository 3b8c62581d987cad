// Package scoring reduces an answer sequence into per-dimension raw and
// normalized scores.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/assess/internal/domain/catalog"
)

const maxScoreValue = 100

// Sentinel error kinds for this package.
var (
	ErrAnswerCount      = errors.New("answer count does not match question count")
	ErrAnswerOutOfScale = errors.New("answer outside the test scale")
)

// DimensionScore is the score of one dimension.
type DimensionScore struct {
	Code       string `json:"code"`
	Raw        int    `json:"raw"`
	Normalized int    `json:"normalized"`
}

// Sheet holds dimension scores in definition order.
type Sheet struct {
	Scores []DimensionScore `json:"scores"`
}

// Get returns the score for code.
func (s Sheet) Get(code string) (DimensionScore, bool) {
	for _, d := range s.Scores {
		if d.Code == code {
			return d, true
		}
	}
	return DimensionScore{}, false
}

// Normalized returns code -> normalized score.
func (s Sheet) Normalized() map[string]int {
	out := make(map[string]int, len(s.Scores))
	for _, d := range s.Scores {
		out[d.Code] = d.Normalized
	}
	return out
}

// Ranked returns scores ordered by raw descending. Ties keep definition order.
func (s Sheet) Ranked() []DimensionScore {
	out := append([]DimensionScore(nil), s.Scores...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Raw > out[j].Raw })
	return out
}

// Top returns the n highest normalized scores. Ties keep definition order.
func (s Sheet) Top(n int) []DimensionScore {
	out := append([]DimensionScore(nil), s.Scores...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Normalized > out[j].Normalized })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Score computes the sheet for answers. A nil answer contributes nothing;
// completeness is the caller's concern.
func Score(def *catalog.Definition, answers []*int) (Sheet, error) {
	if len(answers) != len(def.Questions) {
		return Sheet{}, fmt.Errorf("%w: got %d, want %d", ErrAnswerCount, len(answers), len(def.Questions))
	}
	scale := def.Meta.Scale

	index := make(map[string]int, len(def.Dimensions))
	sheet := Sheet{Scores: make([]DimensionScore, len(def.Dimensions))}
	floors := make([]int, len(def.Dimensions))
	ranges := make([]int, len(def.Dimensions))
	for i, d := range def.Dimensions {
		index[d.Code] = i
		sheet.Scores[i].Code = d.Code
	}

	for i, q := range def.Questions {
		slot, ok := index[q.Dim]
		if !ok {
			continue
		}
		w := q.EffectiveWeight()
		floors[slot] += w * scale.Min
		ranges[slot] += w * (scale.Max - scale.Min)

		a := answers[i]
		if a == nil {
			continue
		}
		if *a < scale.Min || *a > scale.Max {
			return Sheet{}, fmt.Errorf("%w: question %d answered %d, scale %d..%d", ErrAnswerOutOfScale, i, *a, scale.Min, scale.Max)
		}
		v := *a
		if q.Reverse {
			v = scale.Max + scale.Min - v
		}
		sheet.Scores[slot].Raw += v * w
	}

	for i := range sheet.Scores {
		floor, span := floors[i], ranges[i]
		if n := def.Scoring.Normalization; n != nil {
			floor, span = n.RawFloor, n.RawCeiling-n.RawFloor
		}
		sheet.Scores[i].Normalized = normalize(sheet.Scores[i].Raw, floor, span)
	}
	return sheet, nil
}

// FromNormalized builds a sheet from stored normalized scores. Raw scores
// are not recoverable and stay zero. Codes unknown to def are dropped.
func FromNormalized(def *catalog.Definition, normalized map[string]int) Sheet {
	sheet := Sheet{Scores: make([]DimensionScore, 0, len(def.Dimensions))}
	for _, d := range def.Dimensions {
		sheet.Scores = append(sheet.Scores, DimensionScore{Code: d.Code, Normalized: normalized[d.Code]})
	}
	return sheet
}

// FirstUnanswered returns the index of the first nil answer, or -1.
func FirstUnanswered(answers []*int) int {
	for i, a := range answers {
		if a == nil {
			return i
		}
	}
	return -1
}

// Answers is a convenience constructor for a fully answered sequence.
func Answers(values ...int) []*int {
	out := make([]*int, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

// RoundHalfUp rounds to the nearest integer with halves toward +Inf, so
// results are stable for negative values too.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func normalize(raw, floor, span int) int {
	if span == 0 {
		return 0
	}
	return RoundHalfUp(float64(raw-floor) / float64(span) * maxScoreValue)
}
