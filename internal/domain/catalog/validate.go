package catalog

import (
	"errors"
	"fmt"
)

const minRankedDimensions = 2

// Validate checks the structural invariants of a definition. All problems
// are reported together, each wrapping ErrInvalidDefinition.
func Validate(d *Definition) error {
	v := &validator{def: d}
	v.header()
	codes := v.dimensions()
	v.questions(codes)
	v.normalization()
	switch {
	case len(d.Results.Archetypes) > 0 && (len(d.Results.SingleTypes) > 0 || d.Results.MixTemplates != nil):
		v.failf("results must declare either singleTypes/mixTemplates or archetypes, not both")
	case d.Family() == FamilyArchetype:
		v.archetypes(codes)
	default:
		v.ranked(codes)
	}
	return errors.Join(v.errs...)
}

type validator struct {
	def  *Definition
	errs []error
}

func (v *validator) failf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, v.def.Key, fmt.Sprintf(format, args...)))
}

func (v *validator) header() {
	if v.def.Key == "" {
		v.failf("key must not be empty")
	}
	if s := v.def.Meta.Scale; s.Min >= s.Max {
		v.failf("scale min %d must be below max %d", s.Min, s.Max)
	}
	if n := v.def.Meta.QuestionCount; n != 0 && n != len(v.def.Questions) {
		v.failf("meta.questionCount %d does not match %d questions", n, len(v.def.Questions))
	}
}

func (v *validator) dimensions() map[string]bool {
	codes := make(map[string]bool, len(v.def.Dimensions))
	if len(v.def.Dimensions) == 0 {
		v.failf("at least one dimension is required")
	}
	for i, dim := range v.def.Dimensions {
		if dim.Code == "" {
			v.failf("dimension %d has no code", i)
			continue
		}
		if codes[dim.Code] {
			v.failf("dimension %q declared twice", dim.Code)
		}
		codes[dim.Code] = true
	}
	return codes
}

func (v *validator) questions(codes map[string]bool) {
	if len(v.def.Questions) == 0 {
		v.failf("at least one question is required")
	}
	for i, q := range v.def.Questions {
		if !codes[q.Dim] {
			v.failf("question %d (%s) references unknown dimension %q", i, q.ID, q.Dim)
		}
	}
}

func (v *validator) normalization() {
	if n := v.def.Scoring.Normalization; n != nil && n.RawCeiling <= n.RawFloor {
		v.failf("normalization rawCeiling %d must exceed rawFloor %d", n.RawCeiling, n.RawFloor)
	}
}

func (v *validator) ranked(codes map[string]bool) {
	if len(v.def.Dimensions) < minRankedDimensions {
		v.failf("ranked tests need at least %d dimensions", minRankedDimensions)
	}
	if v.def.Results.MixTemplates == nil {
		v.failf("ranked tests need mixTemplates")
	}
	for code := range v.def.Results.SingleTypes {
		if !codes[code] {
			v.failf("singleTypes entry %q is not a dimension", code)
		}
	}
	if t := v.def.Scoring.Ranking.MixThresholdRawDiff; t != nil && *t < 0 {
		v.failf("mixThresholdRawDiff must not be negative")
	}
}

func (v *validator) archetypes(codes map[string]bool) {
	idx := v.def.Scoring.Indexes
	if len(idx.CostDims) == 0 || len(idx.ProtectiveDims) == 0 {
		v.failf("archetype tests need costDims and protectiveDims")
	}
	for _, code := range append(append([]string{}, idx.CostDims...), idx.ProtectiveDims...) {
		if !codes[code] {
			v.failf("index group references unknown dimension %q", code)
		}
	}
	if w := idx.ExhaustionWeight; w != nil && (*w < 0 || *w > 1) {
		v.failf("exhaustionWeight %v must be within [0,1]", *w)
	}
	for _, t := range idx.Tiers {
		if t.Min > t.Max {
			v.failf("tier %q has min %d above max %d", t.Label, t.Min, t.Max)
		}
	}

	seen := make(map[string]bool, len(v.def.Results.Archetypes))
	for i, a := range v.def.Results.Archetypes {
		if a.Code == "" {
			v.failf("archetype %d has no code", i)
		}
		if seen[a.Code] {
			v.failf("archetype %q declared twice", a.Code)
		}
		seen[a.Code] = true
		a.When.walk(func(c Condition) {
			if !c.IsComparison() {
				return
			}
			if !codes[c.Dim] {
				v.failf("archetype %q condition references unknown dimension %q", a.Code, c.Dim)
			}
			if !c.Op.Valid() {
				v.failf("archetype %q condition has unsupported operator %q", a.Code, c.Op)
			}
		})
	}
	for driver, target := range v.def.Results.Fallback.DriverToArchetype {
		if !codes[driver] {
			v.failf("fallback key %q is not a dimension", driver)
		}
		if !seen[target] {
			v.failf("fallback for %q targets unknown archetype %q", driver, target)
		}
	}
}
