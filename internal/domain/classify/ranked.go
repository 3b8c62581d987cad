package classify

import (
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/scoring"
)

// Ranked classifies by the top two raw scores. A raw gap at or below the
// mix threshold yields a mix; a wider gap yields a single.
func Ranked(def *catalog.Definition, sheet scoring.Sheet) Result {
	ranked := sheet.Ranked()
	facts := &RankedFacts{}
	kind := KindSingle

	if len(ranked) > 0 {
		facts.Primary = ranked[0].Code
	}
	if len(ranked) > 1 {
		facts.Secondary = ranked[1].Code
		facts.Diff = ranked[0].Raw - ranked[1].Raw
		if facts.Diff <= def.MixThreshold() {
			kind = KindMix
		}
	}

	return Materialize(def, Outcome{
		Kind:       kind,
		Ranked:     facts,
		Normalized: sheet.Normalized(),
	}, sheet)
}
