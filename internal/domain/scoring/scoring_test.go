package scoring_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const doc = `
key: weighted
meta:
  title: Weighted
  scale: { min: 1, max: 5 }
dimensions:
  - { code: A, name: Alpha }
  - { code: B, name: Beta }
  - { code: C, name: Gamma }
questions:
  - { id: a1, dim: A, text: one }
  - { id: a2, dim: A, text: two, reverse: true }
  - { id: b1, dim: B, text: three, weight: 2 }
  - { id: c1, dim: C, text: four }
results:
  mixTemplates: { title: "{{primary.name}}" }
`

func mustParse(doc string) *catalog.Definition {
	def, err := catalog.Parse([]byte(doc))
	if err != nil {
		panic(err)
	}
	return def
}

func TestScore(t *testing.T) {
	Convey("Given a definition with reverse and weighted questions", t, func() {
		def := mustParse(doc)

		Convey("When every question is answered", func() {
			sheet, err := scoring.Score(def, scoring.Answers(5, 1, 4, 3))

			Convey("Then raw totals sum reverse-mapped weighted values", func() {
				So(err, ShouldBeNil)
				want := []scoring.DimensionScore{
					{Code: "A", Raw: 10, Normalized: 100},
					{Code: "B", Raw: 8, Normalized: 75},
					{Code: "C", Raw: 3, Normalized: 50},
				}
				So(cmp.Diff(want, sheet.Scores), ShouldBeEmpty)
			})

			Convey("And scoring is deterministic", func() {
				again, err := scoring.Score(def, scoring.Answers(5, 1, 4, 3))
				So(err, ShouldBeNil)
				So(cmp.Diff(sheet, again), ShouldBeEmpty)
			})
		})

		Convey("When an answer is missing", func() {
			answers := scoring.Answers(5, 1, 4, 3)
			answers[1] = nil
			sheet, err := scoring.Score(def, answers)

			Convey("Then it contributes nothing", func() {
				So(err, ShouldBeNil)
				a, ok := sheet.Get("A")
				So(ok, ShouldBeTrue)
				So(a.Raw, ShouldEqual, 5)
				So(a.Normalized, ShouldEqual, 38)
				So(scoring.FirstUnanswered(answers), ShouldEqual, 1)
			})
		})

		Convey("When the answer count is wrong", func() {
			_, err := scoring.Score(def, scoring.Answers(1, 2))
			So(errors.Is(err, scoring.ErrAnswerCount), ShouldBeTrue)
		})

		Convey("When an answer is outside the scale", func() {
			_, err := scoring.Score(def, scoring.Answers(5, 1, 6, 3))
			So(errors.Is(err, scoring.ErrAnswerOutOfScale), ShouldBeTrue)
		})

		Convey("When the definition declares its own normalization", func() {
			def.Scoring.Normalization = &catalog.Normalization{RawFloor: 2, RawCeiling: 6}
			sheet, err := scoring.Score(def, scoring.Answers(5, 1, 5, 1))

			Convey("Then scores are not clamped", func() {
				So(err, ShouldBeNil)
				So(sheet.Normalized(), ShouldResemble, map[string]int{"A": 200, "B": 200, "C": -25})
			})
		})
	})
}

func TestSheet(t *testing.T) {
	Convey("Given a sheet with tied scores", t, func() {
		sheet := scoring.Sheet{Scores: []scoring.DimensionScore{
			{Code: "A", Raw: 4, Normalized: 40},
			{Code: "B", Raw: 9, Normalized: 90},
			{Code: "C", Raw: 4, Normalized: 90},
		}}

		Convey("Then ranking is by raw with ties in definition order", func() {
			var codes []string
			for _, s := range sheet.Ranked() {
				codes = append(codes, s.Code)
			}
			So(codes, ShouldResemble, []string{"B", "A", "C"})
		})

		Convey("Then top is by normalized with ties in definition order", func() {
			top := sheet.Top(2)
			So(len(top), ShouldEqual, 2)
			So(top[0].Code, ShouldEqual, "B")
			So(top[1].Code, ShouldEqual, "C")
			So(len(sheet.Top(10)), ShouldEqual, 3)
		})

		Convey("Then the sheet itself is left in order", func() {
			sheet.Ranked()
			So(sheet.Scores[0].Code, ShouldEqual, "A")
		})
	})

	Convey("Given stored normalized scores", t, func() {
		def := mustParse(doc)
		sheet := scoring.FromNormalized(def, map[string]int{"A": 10, "C": 30, "X": 99})

		Convey("Then every definition dimension is present and unknown codes are dropped", func() {
			So(sheet.Normalized(), ShouldResemble, map[string]int{"A": 10, "B": 0, "C": 30})
		})
	})
}

func TestRoundHalfUp(t *testing.T) {
	Convey("Halves round toward positive infinity", t, func() {
		So(scoring.RoundHalfUp(2.5), ShouldEqual, 3)
		So(scoring.RoundHalfUp(2.49), ShouldEqual, 2)
		So(scoring.RoundHalfUp(-2.5), ShouldEqual, -2)
		So(scoring.RoundHalfUp(37.5), ShouldEqual, 38)
	})
}

func TestFirstUnanswered(t *testing.T) {
	Convey("A complete sequence has no unanswered index", t, func() {
		So(scoring.FirstUnanswered(scoring.Answers(1, 2, 3)), ShouldEqual, -1)
		So(scoring.FirstUnanswered([]*int{nil}), ShouldEqual, 0)
	})
}
