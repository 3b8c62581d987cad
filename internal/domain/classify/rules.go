package classify

import "github.com/okian/assess/internal/domain/catalog"

// Matches evaluates a rule tree against normalized scores. Comparisons on
// a dimension that has no score, or with an unknown operator, are false.
func Matches(c catalog.Condition, normalized map[string]int) bool {
	if c.IsComparison() {
		return compare(c, normalized)
	}
	for _, child := range c.All {
		if !Matches(child, normalized) {
			return false
		}
	}
	if len(c.Any) == 0 {
		return true
	}
	for _, child := range c.Any {
		if Matches(child, normalized) {
			return true
		}
	}
	return false
}

func compare(c catalog.Condition, normalized map[string]int) bool {
	score, ok := normalized[c.Dim]
	if !ok {
		return false
	}
	v := float64(score)
	switch c.Op {
	case catalog.OpGTE:
		return v >= c.Value
	case catalog.OpLTE:
		return v <= c.Value
	case catalog.OpGT:
		return v > c.Value
	case catalog.OpLT:
		return v < c.Value
	case catalog.OpEQ:
		return v == c.Value
	default:
		return false
	}
}

// FirstMatch returns the first archetype, in catalog order, whose rule
// holds. Later rules are never consulted once one matches.
func FirstMatch(archetypes []catalog.Archetype, normalized map[string]int) (catalog.Archetype, bool) {
	for _, a := range archetypes {
		if Matches(a.When, normalized) {
			return a, true
		}
	}
	return catalog.Archetype{}, false
}

// PickTier returns the label of the first inclusive range containing
// index, or UnknownTier.
func PickTier(index int, tiers []catalog.Tier) string {
	for _, t := range tiers {
		if index >= t.Min && index <= t.Max {
			return t.Label
		}
	}
	return UnknownTier
}
