package classify_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/classify"
	"github.com/okian/assess/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var builtin = catalog.MustBuiltin()

func definition(key string) *catalog.Definition {
	def, err := builtin.Get(key)
	if err != nil {
		panic(err)
	}
	return def
}

// relationshipAnswers answers TIME and WORD as given and every other
// dimension for a raw total of 3.
func relationshipAnswers(timeDim, wordDim [3]int) []*int {
	values := append(timeDim[:], wordDim[:]...)
	for i := 0; i < 4; i++ {
		values = append(values, 1, 1, 5)
	}
	return scoring.Answers(values...)
}

func classifyRelationship(timeDim, wordDim [3]int) classify.Result {
	def := definition("relationship")
	sheet, err := scoring.Score(def, relationshipAnswers(timeDim, wordDim))
	if err != nil {
		panic(err)
	}
	return classify.Classify(def, sheet)
}

func TestRanked(t *testing.T) {
	Convey("Given the relationship test", t, func() {
		Convey("When the top two raw totals differ by exactly the threshold", func() {
			res := classifyRelationship([3]int{5, 5, 1}, [3]int{5, 3, 1})

			Convey("Then the result is a mix", func() {
				So(res.Kind, ShouldEqual, classify.KindMix)
				So(res.Code, ShouldEqual, "TIMExWORD")
				So(res.Outcome.Ranked.Diff, ShouldEqual, 2)
				So(res.Outcome.Ranked.Primary, ShouldEqual, "TIME")
				So(res.Outcome.Ranked.Secondary, ShouldEqual, "WORD")
			})

			Convey("And the mix content is rendered from both dimensions", func() {
				So(res.Content.Title, ShouldEqual, "Security code: Presence x Reassurance")
				So(res.Content.Subtitle, ShouldEqual, "You lead with steady, predictable time together, backed by hearing that you matter.")
				So(res.Content.Repair, ShouldResemble, []string{
					"Agree on one fixed weekly slot that nobody cancels.",
					"Treat Words as a bonus, not a test",
				})
				So(res.Content.Poster.Title, ShouldEqual, "Security code: Presence x Words")
				So(res.Content.Caption, ShouldEqual,
					"My security code is Presence x Reassurance. What helps me most: steady, predictable time together.\n#securitycode #relationships")
				So(res.Fallbacks, ShouldBeEmpty)
			})

			Convey("And the summary lists the top three dimensions by short name", func() {
				So(res.Content.Summary, ShouldResemble, []string{"Presence: 100", "Words: 83", "Acts: 0"})
			})
		})

		Convey("When the gap is one above the threshold", func() {
			res := classifyRelationship([3]int{5, 5, 1}, [3]int{5, 2, 1})

			Convey("Then the result is a single", func() {
				So(res.Kind, ShouldEqual, classify.KindSingle)
				So(res.Code, ShouldEqual, "TIME")
				So(res.Outcome.Ranked.Diff, ShouldEqual, 3)
			})

			Convey("And the authored content is used", func() {
				So(res.Content.Title, ShouldEqual, "Security code: The Steady Anchor")
				So(res.Content.Tagline, ShouldEqual, "Security, for you, is measured in time shown up for.")
				So(res.Content.Caption, ShouldEqual,
					"My security code is The Steady Anchor. What helps me most: steady, predictable time together.\n#securitycode #relationships")
				So(res.Content.Hashtags, ShouldEqual, "#securitycode #relationships")
			})
		})

		Convey("When every dimension ties", func() {
			res := classifyRelationship([3]int{1, 1, 5}, [3]int{1, 1, 5})

			Convey("Then catalog order breaks the tie", func() {
				So(res.Kind, ShouldEqual, classify.KindMix)
				So(res.Code, ShouldEqual, "TIMExWORD")
				So(res.Outcome.Ranked.Diff, ShouldEqual, 0)
			})
		})

		Convey("When the single type for the primary is not authored", func() {
			def := *definition("relationship")
			def.Results.SingleTypes = map[string]catalog.SingleType{}
			sheet, err := scoring.Score(&def, relationshipAnswers([3]int{5, 5, 1}, [3]int{1, 1, 5}))
			So(err, ShouldBeNil)
			res := classify.Ranked(&def, sheet)

			Convey("Then the mix template stands in and the fallback is recorded", func() {
				So(res.Kind, ShouldEqual, classify.KindSingle)
				So(res.Code, ShouldEqual, "TIME")
				So(res.Content.Title, ShouldEqual, "Security code: Presence x Reassurance")
				So(res.Fallbacks, ShouldResemble, []classify.Fallback{classify.FallbackSingleTypeMissing})
			})
		})

		Convey("When the same sheet is classified twice", func() {
			a := classifyRelationship([3]int{4, 5, 2}, [3]int{3, 5, 1})
			b := classifyRelationship([3]int{4, 5, 2}, [3]int{3, 5, 1})

			Convey("Then the results are identical", func() {
				So(cmp.Diff(a, b), ShouldBeEmpty)
			})
		})
	})
}

const eightQuestions = `
key: six
meta:
  title: Six
  scale: { min: 1, max: 5 }
dimensions:
  - { code: A, name: Alpha }
  - { code: B, name: Beta }
  - { code: C, name: Gamma }
  - { code: D, name: Delta }
  - { code: E, name: Epsilon }
  - { code: F, name: Zeta }
questions:
  - { id: a1, dim: A, text: a1 }
  - { id: a2, dim: A, text: a2 }
  - { id: a3, dim: A, text: a3, reverse: true }
  - { id: b1, dim: B, text: b1 }
  - { id: c1, dim: C, text: c1 }
  - { id: d1, dim: D, text: d1 }
  - { id: e1, dim: E, text: e1 }
  - { id: f1, dim: F, text: f1 }
results:
  singleTypes:
    A: { name: "All Alpha" }
  mixTemplates:
    title: "{{primary.name}} x {{secondary.name}}"
`

func TestEndToEnd(t *testing.T) {
	Convey("Given six dimensions scored from eight questions", t, func() {
		def, err := catalog.Parse([]byte(eightQuestions))
		So(err, ShouldBeNil)

		Convey("When one dimension is answered high and everything else neutral", func() {
			sheet, err := scoring.Score(def, scoring.Answers(5, 5, 1, 3, 3, 3, 3, 3))
			So(err, ShouldBeNil)
			res := classify.Classify(def, sheet)

			Convey("Then that dimension dominates as a single", func() {
				a, _ := sheet.Get("A")
				b, _ := sheet.Get("B")
				So(a.Raw-b.Raw, ShouldBeGreaterThan, def.MixThreshold())
				So(res.Kind, ShouldEqual, classify.KindSingle)
				So(res.Outcome.Ranked.Primary, ShouldEqual, "A")
				So(res.Content.Title, ShouldEqual, "All Alpha")
			})
		})
	})
}

func emotionalSheet(scores map[string]int) scoring.Sheet {
	return scoring.FromNormalized(definition("emotional"), scores)
}

func TestArchetype(t *testing.T) {
	Convey("Given the emotional labor test", t, func() {
		def := definition("emotional")

		Convey("When several rules would match", func() {
			res := classify.Classify(def, emotionalSheet(map[string]int{
				"OUT": 80, "MASK": 50, "FIX": 75, "BND": 30, "REC": 60, "EXP": 50,
			}))

			Convey("Then the first rule in catalog order wins", func() {
				So(res.Kind, ShouldEqual, classify.KindArchetype)
				So(res.Code, ShouldEqual, "SPONGE")
				So(res.Fallbacks, ShouldBeEmpty)
			})

			Convey("And the index facts are derived from the groups", func() {
				So(cmp.Diff(&classify.IndexFacts{
					Archetype:  "SPONGE",
					Index:      64,
					Exhaustion: 68,
					Protection: 47,
					Tier:       "Heavy",
					Driver:     "OUT",
					Weak:       "BND",
				}, res.Outcome.Index), ShouldBeEmpty)
			})

			Convey("And the chips and caption are rendered", func() {
				So(res.Content.Title, ShouldEqual, "The Emotional Sponge")
				So(res.Content.Lines, ShouldResemble, []string{
					"Index: 64 (Heavy)",
					"Biggest drain: Over-output, giving more care than you take back",
					"Weakest shield: Boundaries. Try: Set one reply-later window for messages.",
				})
				So(res.Content.Caption, ShouldEqual,
					"My emotional labor index is 64 (Heavy), I'm The Emotional Sponge. Biggest drain: Over-output. One thing I'll try: Leave one feeling with its owner today.\n#emotionallabor #selfcare")
				So(res.Content.Poster.Title, ShouldEqual, "The Emotional Sponge")
				So(res.Content.Summary, ShouldBeNil)
			})
		})

		Convey("When no rule matches", func() {
			res := classify.Classify(def, emotionalSheet(map[string]int{
				"OUT": 55, "MASK": 58, "FIX": 50, "BND": 40, "REC": 40, "EXP": 40,
			}))

			Convey("Then the driver mapping picks the archetype", func() {
				So(res.Code, ShouldEqual, "SMILER")
				So(res.Outcome.Index.Driver, ShouldEqual, "MASK")
				So(res.Outcome.Index.Index, ShouldEqual, 56)
				So(res.Fallbacks, ShouldResemble, []classify.Fallback{classify.FallbackRuleUnmatched})
			})
		})

		Convey("When every score ties at zero", func() {
			res := classify.Classify(def, emotionalSheet(map[string]int{}))

			Convey("Then group order breaks ties for driver and weak", func() {
				So(res.Outcome.Index.Driver, ShouldEqual, "OUT")
				So(res.Outcome.Index.Weak, ShouldEqual, "BND")
				So(res.Outcome.Index.Index, ShouldEqual, 30)
				So(res.Outcome.Index.Tier, ShouldEqual, "Moderate")
				So(res.Code, ShouldEqual, "GIVER")
			})
		})

		Convey("When the driver has no mapping", func() {
			cp := *def
			cp.Results.Fallback = catalog.Fallback{}
			res := classify.Archetype(&cp, emotionalSheet(map[string]int{}))

			Convey("Then the first archetype is the last resort", func() {
				So(res.Code, ShouldEqual, "SPONGE")
				So(res.Fallbacks, ShouldResemble, []classify.Fallback{
					classify.FallbackRuleUnmatched,
					classify.FallbackDriverUnmapped,
				})
			})
		})

		Convey("When no tier covers the index", func() {
			cp := *def
			cp.Scoring.Indexes.Tiers = nil
			res := classify.Archetype(&cp, emotionalSheet(map[string]int{"BND": 60, "REC": 60}))

			Convey("Then the tier is unknown", func() {
				So(res.Code, ShouldEqual, "BALANCED")
				So(res.Outcome.Index.Tier, ShouldEqual, classify.UnknownTier)
				So(res.Content.Lines[0], ShouldEqual, "Index: 18 (unknown)")
			})
		})
	})
}

func TestMaterialize(t *testing.T) {
	Convey("Given an outcome naming an archetype the catalog lacks", t, func() {
		def := definition("emotional")
		facts := &classify.IndexFacts{Archetype: "GONE", Index: 10, Tier: "Light", Driver: "OUT", Weak: "REC"}
		res := classify.Materialize(def, classify.Outcome{Kind: classify.KindArchetype, Index: facts}, scoring.Sheet{})

		Convey("Then the first archetype is rendered and the fallback recorded", func() {
			So(res.Code, ShouldEqual, "SPONGE")
			So(res.Outcome.Index.Archetype, ShouldEqual, "SPONGE")
			So(res.Fallbacks, ShouldResemble, []classify.Fallback{classify.FallbackArchetypeUnknown})
		})

		Convey("And the caller's facts are left alone", func() {
			So(facts.Archetype, ShouldEqual, "GONE")
		})
	})
}

func TestRules(t *testing.T) {
	scores := map[string]int{"X": 50, "Y": 10}

	Convey("Comparisons use normalized scores", t, func() {
		So(classify.Matches(catalog.Condition{Dim: "X", Op: catalog.OpGTE, Value: 50}, scores), ShouldBeTrue)
		So(classify.Matches(catalog.Condition{Dim: "X", Op: catalog.OpGT, Value: 50}, scores), ShouldBeFalse)
		So(classify.Matches(catalog.Condition{Dim: "X", Op: catalog.OpEQ, Value: 50}, scores), ShouldBeTrue)
		So(classify.Matches(catalog.Condition{Dim: "Y", Op: catalog.OpLT, Value: 11}, scores), ShouldBeTrue)
		So(classify.Matches(catalog.Condition{Dim: "Y", Op: catalog.OpLTE, Value: 9}, scores), ShouldBeFalse)
	})

	Convey("Unknown dimensions and operators never match", t, func() {
		So(classify.Matches(catalog.Condition{Dim: "Z", Op: catalog.OpGTE, Value: 0}, scores), ShouldBeFalse)
		So(classify.Matches(catalog.Condition{Dim: "X", Op: "~", Value: 0}, scores), ShouldBeFalse)
	})

	Convey("Empty groups are vacuously true", t, func() {
		So(classify.Matches(catalog.Condition{}, scores), ShouldBeTrue)
	})

	Convey("All needs every child and any needs one", t, func() {
		hit := catalog.Condition{Dim: "X", Op: catalog.OpGTE, Value: 40}
		miss := catalog.Condition{Dim: "Y", Op: catalog.OpGTE, Value: 40}
		So(classify.Matches(catalog.Condition{All: []catalog.Condition{hit, miss}}, scores), ShouldBeFalse)
		So(classify.Matches(catalog.Condition{Any: []catalog.Condition{miss, hit}}, scores), ShouldBeTrue)
		So(classify.Matches(catalog.Condition{All: []catalog.Condition{hit}, Any: []catalog.Condition{miss}}, scores), ShouldBeFalse)
	})

	Convey("Tiers are inclusive and first match wins", t, func() {
		tiers := []catalog.Tier{{Min: 0, Max: 10, Label: "low"}, {Min: 10, Max: 20, Label: "mid"}}
		So(classify.PickTier(10, tiers), ShouldEqual, "low")
		So(classify.PickTier(20, tiers), ShouldEqual, "mid")
		So(classify.PickTier(21, tiers), ShouldEqual, classify.UnknownTier)
	})

	Convey("The composite index weighs exhaustion against missing protection", t, func() {
		So(classify.CompositeIndex(68, 47, 0.7), ShouldEqual, 64)
		So(classify.CompositeIndex(100, 0, 0.7), ShouldEqual, 100)
		So(classify.CompositeIndex(50, 50, 0.5), ShouldEqual, 50)
	})
}
