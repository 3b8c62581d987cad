package classify

import (
	"slices"
	"strconv"
	"strings"

	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/render"
	"github.com/okian/assess/internal/domain/scoring"
)

// Default copy used when a definition leaves a template unset.
const (
	defaultRankedCaption    = "My result: {{resultTitle}}\n{{hashtags}}"
	defaultArchetypeCaption = "My index: {{index}} ({{tier}})\n{{hashtags}}"
	defaultIndexLine        = "Index: {{index}} ({{tier}})"
	defaultDriverLine       = "Biggest drain: {{driverName}}"
	defaultWeakLine         = "Weakest shield: {{weakName}}"
	defaultWeakFix          = "Start with one small step."
	defaultSummaryLine      = "{{label}}: {{score}}"
	summaryTop              = 3
	mixCodeSeparator        = "x"
)

// Materialize renders the content of an outcome. It reads nothing but the
// outcome and the definition, so a stored outcome always renders the same
// copy for the same definition.
func Materialize(def *catalog.Definition, o Outcome, sheet scoring.Sheet) Result {
	res := Result{
		TestKey: def.Key,
		Kind:    o.Kind,
		Outcome: o,
		Scores:  sheet,
	}
	switch o.Kind {
	case KindArchetype:
		materializeArchetype(def, &res)
	default:
		materializeRanked(def, &res)
	}
	return res
}

func materializeRanked(def *catalog.Definition, res *Result) {
	facts := &RankedFacts{}
	if res.Outcome.Ranked != nil {
		*facts = *res.Outcome.Ranked
	}
	res.Outcome.Ranked = facts
	primary := dimension(def, facts.Primary)

	var content Content
	single, ok := def.Results.SingleTypes[facts.Primary]
	switch {
	case res.Kind == KindSingle && ok:
		res.Code = facts.Primary
		content = singleContent(def, single)
	case res.Kind == KindSingle:
		res.Code = facts.Primary
		res.Fallbacks = append(res.Fallbacks, FallbackSingleTypeMissing)
		content = mixContent(def, primary, dimension(def, facts.Secondary))
	default:
		res.Code = facts.Primary + mixCodeSeparator + facts.Secondary
		content = mixContent(def, primary, dimension(def, facts.Secondary))
	}

	needLine := ""
	if primary != nil {
		needLine = primary.CoreNeed
	}
	content.Summary = summary(def, res.Scores)
	content.Hashtags = hashtags(def)
	content.Caption = render.Render(captionTemplate(def, defaultRankedCaption), map[string]string{
		"resultTitle": strings.TrimPrefix(content.Title, def.Share.StripTitlePrefix),
		"needLine":    needLine,
		"hashtags":    content.Hashtags,
	})
	res.Content = content
}

// summary lists the highest normalized dimensions, strongest first.
func summary(def *catalog.Definition, sheet scoring.Sheet) []string {
	top := sheet.Top(summaryTop)
	if len(top) == 0 {
		return nil
	}
	out := make([]string, 0, len(top))
	for _, s := range top {
		label := s.Code
		if d, ok := def.Dimension(s.Code); ok {
			label = d.Label()
		}
		out = append(out, render.Render(defaultSummaryLine, map[string]string{
			"label": label,
			"score": strconv.Itoa(s.Normalized),
		}))
	}
	return out
}

func singleContent(def *catalog.Definition, t catalog.SingleType) Content {
	title := t.Name
	if t.Poster != nil && t.Poster.Title != "" {
		title = t.Poster.Title
	}
	subtitle := t.Tagline
	if subtitle == "" {
		subtitle = def.Meta.Subtitle
	}
	return Content{
		Title:     title,
		Subtitle:  subtitle,
		Tagline:   t.Tagline,
		Body:      slices.Clone(t.Body),
		Comfort:   t.Comfort,
		Strengths: slices.Clone(t.Strengths),
		Pitfalls:  slices.Clone(t.Pitfalls),
		Repair:    slices.Clone(t.Repair),
		Poster:    clonePoster(t.Poster),
	}
}

func mixContent(def *catalog.Definition, primary, secondary *catalog.Dimension) Content {
	mt := def.Results.MixTemplates
	if mt == nil {
		mt = &catalog.MixTemplates{}
	}
	ctx := map[string]any{"primary": primary, "secondary": secondary}
	c := Content{
		Title:     render.Render(mt.Title, ctx),
		Subtitle:  render.Render(mt.Subtitle, ctx),
		Body:      render.Each(mt.Body, ctx),
		Comfort:   render.Render(mt.Comfort, ctx),
		Strengths: render.Each(mt.Strengths, ctx),
		Pitfalls:  render.Each(mt.Pitfalls, ctx),
		Repair:    render.Each(mt.Repair, ctx),
	}
	if p := mt.Poster; p != nil {
		c.Poster = &catalog.Poster{
			Title:    render.Render(p.Title, ctx),
			Subtitle: render.Render(p.Subtitle, ctx),
			Lines:    render.Each(p.Lines, ctx),
			Hashtags: slices.Clone(p.Hashtags),
			Footer:   p.Footer,
		}
	}
	return c
}

func materializeArchetype(def *catalog.Definition, res *Result) {
	facts := &IndexFacts{Tier: UnknownTier}
	if res.Outcome.Index != nil {
		*facts = *res.Outcome.Index
	}
	res.Outcome.Index = facts

	arche, ok := def.Archetype(facts.Archetype)
	if !ok {
		res.Fallbacks = append(res.Fallbacks, FallbackArchetypeUnknown)
		if len(def.Results.Archetypes) > 0 {
			arche = def.Results.Archetypes[0]
		}
		facts.Archetype = arche.Code
	}
	res.Code = arche.Code

	driver, weak := dimension(def, facts.Driver), dimension(def, facts.Weak)
	driverName, driverMeaning := facts.Driver, ""
	if driver != nil {
		driverName, driverMeaning = nonEmpty(driver.Name, facts.Driver), driver.Meaning
	}
	weakName, weakFix := facts.Weak, defaultWeakFix
	if weak != nil {
		weakName = nonEmpty(weak.Name, facts.Weak)
		if len(weak.MicroFix) > 0 {
			weakFix = weak.MicroFix[0]
		}
	}
	index := strconv.Itoa(facts.Index)

	chips := def.Results.PersonalizationChips
	chipCtx := map[string]string{
		"driverName":    driverName,
		"driverMeaning": driverMeaning,
		"weakName":      weakName,
		"weakFix":       weakFix,
		"index":         index,
		"tier":          facts.Tier,
	}

	oneAction := weakFix
	if len(arche.Repair) > 0 {
		oneAction = arche.Repair[0]
	}
	tags := hashtags(def)

	res.Content = Content{
		Title:    arche.Name,
		Subtitle: nonEmpty(arche.Tagline, def.Meta.Subtitle),
		Tagline:  arche.Tagline,
		Body:     slices.Clone(arche.Description),
		Repair:   slices.Clone(arche.Repair),
		Lines: []string{
			render.Render(nonEmpty(chips.IndexLineTemplate, defaultIndexLine), chipCtx),
			render.Render(nonEmpty(chips.DriverLineTemplate, defaultDriverLine), chipCtx),
			render.Render(nonEmpty(chips.WeakLineTemplate, defaultWeakLine), chipCtx),
		},
		Caption: render.Render(captionTemplate(def, defaultArchetypeCaption), map[string]string{
			"index":         index,
			"tier":          facts.Tier,
			"archetypeName": arche.Name,
			"driverName":    driverName,
			"weakName":      weakName,
			"oneAction":     oneAction,
			"hashtags":      tags,
		}),
		Hashtags: tags,
		Poster:   clonePoster(arche.Poster),
	}
}

func dimension(def *catalog.Definition, code string) *catalog.Dimension {
	if d, ok := def.Dimension(code); ok {
		return &d
	}
	return nil
}

func captionTemplate(def *catalog.Definition, fallback string) string {
	if len(def.Share.CaptionTemplates) > 0 {
		return def.Share.CaptionTemplates[0]
	}
	return fallback
}

func hashtags(def *catalog.Definition) string {
	return strings.Join(def.Share.DefaultHashtags, " ")
}

func nonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func clonePoster(p *catalog.Poster) *catalog.Poster {
	if p == nil {
		return nil
	}
	out := *p
	out.Lines = slices.Clone(p.Lines)
	out.Hashtags = slices.Clone(p.Hashtags)
	return &out
}
