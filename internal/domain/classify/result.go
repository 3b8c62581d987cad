// Package classify turns a score sheet into a result: a single dominant
// dimension, a mix of the top two, or a rule-matched archetype with a
// composite index. Classification never fails; catalog gaps resolve
// through fallbacks recorded on the result.
package classify

import (
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/scoring"
)

// Kind tags the result variant.
type Kind string

// Result variants.
const (
	KindSingle    Kind = "single"
	KindMix       Kind = "mix"
	KindArchetype Kind = "archetype"
)

// UnknownTier labels an index that no tier range covers.
const UnknownTier = "unknown"

// Fallback names a catalog gap that was bridged during classification.
type Fallback string

// Fallback reasons.
const (
	FallbackSingleTypeMissing Fallback = "single_type_missing"
	FallbackRuleUnmatched     Fallback = "archetype_rule_unmatched"
	FallbackDriverUnmapped    Fallback = "archetype_driver_unmapped"
	FallbackArchetypeUnknown  Fallback = "archetype_unknown"
)

// Outcome is the set of classification facts. Content is a pure function
// of an Outcome and its definition.
type Outcome struct {
	Kind       Kind           `json:"kind"`
	Ranked     *RankedFacts   `json:"ranked,omitempty"`
	Index      *IndexFacts    `json:"index,omitempty"`
	Normalized map[string]int `json:"normalized"`
}

// RankedFacts are the facts of a single or mix result.
type RankedFacts struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Diff      int    `json:"diff"`
}

// IndexFacts are the facts of an archetype result.
type IndexFacts struct {
	Archetype  string `json:"archetype"`
	Index      int    `json:"index"`
	Exhaustion int    `json:"exhaustion"`
	Protection int    `json:"protection"`
	Tier       string `json:"tier"`
	Driver     string `json:"driver"`
	Weak       string `json:"weak"`
}

// Content is the rendered copy of a result.
type Content struct {
	Title     string          `json:"title"`
	Subtitle  string          `json:"subtitle"`
	Tagline   string          `json:"tagline,omitempty"`
	Body      []string        `json:"body,omitempty"`
	Comfort   string          `json:"comfort,omitempty"`
	Strengths []string        `json:"strengths,omitempty"`
	Pitfalls  []string        `json:"pitfalls,omitempty"`
	Repair    []string        `json:"repair,omitempty"`
	Lines     []string        `json:"lines,omitempty"`
	Summary   []string        `json:"summary,omitempty"`
	Caption   string          `json:"caption"`
	Hashtags  string          `json:"hashtags"`
	Poster    *catalog.Poster `json:"poster,omitempty"`
}

// Result is a classified, rendered outcome. It is never modified after it
// is produced.
type Result struct {
	TestKey   string        `json:"testKey"`
	Kind      Kind          `json:"kind"`
	Code      string        `json:"code"`
	Outcome   Outcome       `json:"outcome"`
	Scores    scoring.Sheet `json:"scores"`
	Content   Content       `json:"content"`
	Fallbacks []Fallback    `json:"fallbacks,omitempty"`
}

// Classify dispatches on the definition's result family.
func Classify(def *catalog.Definition, sheet scoring.Sheet) Result {
	if def.Family() == catalog.FamilyArchetype {
		return Archetype(def, sheet)
	}
	return Ranked(def, sheet)
}
