package share

import (
	"fmt"

	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/classify"
	"github.com/okian/assess/internal/domain/scoring"
)

// Reconstruct rebuilds the result a payload was made from. Content is
// rendered from the current definition. Raw scores are not carried by the
// payload and come back as zero.
func Reconstruct(reg *catalog.Registry, p Payload) (classify.Result, error) {
	def, err := reg.Get(p.TestKey)
	if err != nil {
		return classify.Result{}, unreadable(catalog.ErrUnknownTest, p.TestKey)
	}
	if def.Family() == catalog.FamilyArchetype {
		return reconstructArchetype(def, p)
	}
	return reconstructRanked(def, p)
}

func reconstructRanked(def *catalog.Definition, p Payload) (classify.Result, error) {
	if p.Primary == "" {
		return classify.Result{}, unreadable(ErrInvalidPayload, "missing primary")
	}
	diff := 0
	if p.Diff != nil {
		diff = *p.Diff
	}

	kind := p.Kind
	switch kind {
	case classify.KindSingle, classify.KindMix:
	case "":
		kind = classify.KindSingle
		if p.Secondary != "" && diff <= def.MixThreshold() {
			kind = classify.KindMix
		}
	default:
		return classify.Result{}, unreadable(ErrInvalidPayload, fmt.Sprintf("kind %q for a ranked test", kind))
	}
	if kind == classify.KindMix && p.Secondary == "" {
		return classify.Result{}, unreadable(ErrInvalidPayload, "mix without secondary")
	}
	if err := knownDims(def, p.Primary, p.Secondary); err != nil {
		return classify.Result{}, err
	}

	sheet := scoring.FromNormalized(def, p.Dims100)
	return classify.Materialize(def, classify.Outcome{
		Kind: kind,
		Ranked: &classify.RankedFacts{
			Primary:   p.Primary,
			Secondary: p.Secondary,
			Diff:      diff,
		},
		Normalized: sheet.Normalized(),
	}, sheet), nil
}

func reconstructArchetype(def *catalog.Definition, p Payload) (classify.Result, error) {
	if p.ELI == nil {
		return classify.Result{}, unreadable(ErrInvalidPayload, "missing ELI")
	}
	if p.Kind != "" && p.Kind != classify.KindArchetype {
		return classify.Result{}, unreadable(ErrInvalidPayload, fmt.Sprintf("kind %q for an archetype test", p.Kind))
	}
	if err := knownDims(def, p.Driver, p.Weak); err != nil {
		return classify.Result{}, err
	}

	sheet := scoring.FromNormalized(def, p.Dim100)
	normalized := sheet.Normalized()
	// Group means are not on the wire.
	derived := classify.Archetype(def, sheet).Outcome.Index

	facts := &classify.IndexFacts{
		Archetype:  p.ArchetypeCode,
		Index:      *p.ELI,
		Exhaustion: derived.Exhaustion,
		Protection: derived.Protection,
		Tier:       p.Tier,
		Driver:     p.Driver,
		Weak:       p.Weak,
	}
	if facts.Tier == "" {
		facts.Tier = classify.PickTier(facts.Index, def.Scoring.Indexes.Tiers)
	}
	if facts.Driver == "" {
		facts.Driver = derived.Driver
	}
	if facts.Weak == "" {
		facts.Weak = derived.Weak
	}

	return classify.Materialize(def, classify.Outcome{
		Kind:       classify.KindArchetype,
		Index:      facts,
		Normalized: normalized,
	}, sheet), nil
}

// knownDims rejects any non-empty code the definition does not declare.
func knownDims(def *catalog.Definition, codes ...string) error {
	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, ok := def.Dimension(code); !ok {
			return unreadable(ErrInvalidPayload, fmt.Sprintf("unknown dimension %q", code))
		}
	}
	return nil
}
