package classify

import (
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/scoring"
)

// weightScale turns the exhaustion weight into an integer share so the
// index is computed exactly.
const weightScale = 1000

// Archetype classifies by composite index and the first matching rule.
func Archetype(def *catalog.Definition, sheet scoring.Sheet) Result {
	normalized := sheet.Normalized()
	groups := def.Scoring.Indexes

	facts := &IndexFacts{
		Exhaustion: mean(groups.CostDims, normalized),
		Protection: mean(groups.ProtectiveDims, normalized),
		Driver:     extreme(groups.CostDims, normalized, func(a, b int) bool { return a > b }),
		Weak:       extreme(groups.ProtectiveDims, normalized, func(a, b int) bool { return a < b }),
	}
	facts.Index = CompositeIndex(facts.Exhaustion, facts.Protection, def.ExhaustionWeight())
	facts.Tier = PickTier(facts.Index, groups.Tiers)

	var fallbacks []Fallback
	if a, ok := FirstMatch(def.Results.Archetypes, normalized); ok {
		facts.Archetype = a.Code
	} else {
		fallbacks = append(fallbacks, FallbackRuleUnmatched)
		if code, mapped := def.Results.Fallback.DriverToArchetype[facts.Driver]; mapped {
			facts.Archetype = code
		} else {
			fallbacks = append(fallbacks, FallbackDriverUnmapped)
			if len(def.Results.Archetypes) > 0 {
				facts.Archetype = def.Results.Archetypes[0].Code
			}
		}
	}

	res := Materialize(def, Outcome{
		Kind:       KindArchetype,
		Index:      facts,
		Normalized: normalized,
	}, sheet)
	res.Fallbacks = append(fallbacks, res.Fallbacks...)
	return res
}

// CompositeIndex weighs exhaustion against missing protection.
func CompositeIndex(exhaustion, protection int, weight float64) int {
	w := scoring.RoundHalfUp(weight * weightScale)
	num := w*exhaustion + (weightScale-w)*(100-protection)
	return scoring.RoundHalfUp(float64(num) / weightScale)
}

func mean(codes []string, normalized map[string]int) int {
	if len(codes) == 0 {
		return 0
	}
	sum := 0
	for _, c := range codes {
		sum += normalized[c]
	}
	return scoring.RoundHalfUp(float64(sum) / float64(len(codes)))
}

// extreme returns the code with the best score under better. Ties keep the
// earliest code in group order.
func extreme(codes []string, normalized map[string]int, better func(a, b int) bool) string {
	best := ""
	for _, c := range codes {
		if best == "" || better(normalized[c], normalized[best]) {
			best = c
		}
	}
	return best
}
