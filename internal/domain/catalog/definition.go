// Package catalog holds the immutable test definitions the engine scores
// against: dimensions, questions, scoring policy, result catalog and share
// configuration.
package catalog

// Family selects which classifier a definition is scored with.
type Family string

// Known result families.
const (
	FamilyRanked    Family = "ranked"
	FamilyArchetype Family = "archetype"
)

// Defaults applied when a definition leaves a policy unset.
const (
	DefaultMixThreshold     = 2
	DefaultExhaustionWeight = 0.7
	DefaultWeight           = 1
)

// Definition is a complete questionnaire. It is read-only once loaded.
type Definition struct {
	Key        string      `yaml:"key" json:"key"`
	Meta       Meta        `yaml:"meta" json:"meta"`
	Dimensions []Dimension `yaml:"dimensions" json:"dimensions"`
	Questions  []Question  `yaml:"questions" json:"questions"`
	Scoring    Scoring     `yaml:"scoring" json:"scoring"`
	Results    Results     `yaml:"results" json:"results"`
	Share      Share       `yaml:"share" json:"share"`
}

// Meta is the descriptive header shown before a test starts.
type Meta struct {
	Title                string `yaml:"title" json:"title"`
	Subtitle             string `yaml:"subtitle" json:"subtitle"`
	QuestionCount        int    `yaml:"questionCount" json:"questionCount"`
	EstimatedTimeMinutes int    `yaml:"estimatedTimeMinutes" json:"estimatedTimeMinutes"`
	Scale                Scale  `yaml:"scale" json:"scale"`
}

// Scale is the ordinal answer range shared by every question.
type Scale struct {
	Min     int      `yaml:"min" json:"min"`
	Max     int      `yaml:"max" json:"max"`
	Choices []Choice `yaml:"choices" json:"choices"`
}

// Choice labels one point of the scale.
type Choice struct {
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Dimension is one scoring axis. The optional semantic fields feed result
// copy through templates.
type Dimension struct {
	Code      string   `yaml:"code" json:"code"`
	Name      string   `yaml:"name" json:"name"`
	ShortName string   `yaml:"shortName" json:"shortName,omitempty"`
	Meaning   string   `yaml:"meaning" json:"meaning,omitempty"`
	CoreNeed  string   `yaml:"coreNeed" json:"coreNeed,omitempty"`
	MicroFix  []string `yaml:"microFix" json:"microFix,omitempty"`
}

// Label returns the short name, falling back to name and then code.
func (d Dimension) Label() string {
	switch {
	case d.ShortName != "":
		return d.ShortName
	case d.Name != "":
		return d.Name
	default:
		return d.Code
	}
}

// Question maps one prompt onto a dimension.
type Question struct {
	ID      string `yaml:"id" json:"id"`
	Text    string `yaml:"text" json:"text"`
	Dim     string `yaml:"dim" json:"dim"`
	Weight  int    `yaml:"weight" json:"weight,omitempty"`
	Reverse bool   `yaml:"reverse" json:"reverse,omitempty"`
}

// EffectiveWeight treats an unset weight as 1.
func (q Question) EffectiveWeight() int {
	if q.Weight == 0 {
		return DefaultWeight
	}
	return q.Weight
}

// Scoring groups the numeric policies of a definition.
type Scoring struct {
	Ranking       Ranking        `yaml:"ranking" json:"ranking"`
	Normalization *Normalization `yaml:"normalization" json:"normalization,omitempty"`
	Indexes       Indexes        `yaml:"indexes" json:"indexes"`
}

// Ranking configures the single/mix split.
type Ranking struct {
	MixThresholdRawDiff *int `yaml:"mixThresholdRawDiff" json:"mixThresholdRawDiff,omitempty"`
}

// Normalization overrides the per-dimension raw floor and ceiling that are
// otherwise derived from the scale and question weights.
type Normalization struct {
	RawFloor   int `yaml:"rawFloor" json:"rawFloor"`
	RawCeiling int `yaml:"rawCeiling" json:"rawCeiling"`
}

// Indexes configures the composite index of the archetype family.
type Indexes struct {
	CostDims         []string `yaml:"costDims" json:"costDims,omitempty"`
	ProtectiveDims   []string `yaml:"protectiveDims" json:"protectiveDims,omitempty"`
	ExhaustionWeight *float64 `yaml:"exhaustionWeight" json:"exhaustionWeight,omitempty"`
	Tiers            []Tier   `yaml:"tiers" json:"tiers,omitempty"`
}

// Tier labels an inclusive index range.
type Tier struct {
	Min   int    `yaml:"min" json:"min"`
	Max   int    `yaml:"max" json:"max"`
	Label string `yaml:"label" json:"label"`
}

// Results is the result catalog. Exactly one of the two shapes is populated.
type Results struct {
	SingleTypes  map[string]SingleType `yaml:"singleTypes" json:"singleTypes,omitempty"`
	MixTemplates *MixTemplates         `yaml:"mixTemplates" json:"mixTemplates,omitempty"`

	Archetypes           []Archetype `yaml:"archetypes" json:"archetypes,omitempty"`
	Fallback             Fallback    `yaml:"fallback" json:"fallback"`
	PersonalizationChips Chips       `yaml:"personalizationChips" json:"personalizationChips"`
}

// SingleType is fully authored copy for one dominant dimension.
type SingleType struct {
	Name      string   `yaml:"name" json:"name"`
	Tagline   string   `yaml:"tagline" json:"tagline,omitempty"`
	Body      []string `yaml:"body" json:"body,omitempty"`
	Comfort   string   `yaml:"comfort" json:"comfort,omitempty"`
	Strengths []string `yaml:"strengths" json:"strengths,omitempty"`
	Pitfalls  []string `yaml:"pitfalls" json:"pitfalls,omitempty"`
	Repair    []string `yaml:"repair" json:"repair,omitempty"`
	Poster    *Poster  `yaml:"poster" json:"poster,omitempty"`
}

// MixTemplates is copy rendered against a primary/secondary pair.
type MixTemplates struct {
	Title     string   `yaml:"title" json:"title"`
	Subtitle  string   `yaml:"subtitle" json:"subtitle"`
	Body      []string `yaml:"body" json:"body,omitempty"`
	Comfort   string   `yaml:"comfort" json:"comfort,omitempty"`
	Strengths []string `yaml:"strengths" json:"strengths,omitempty"`
	Pitfalls  []string `yaml:"pitfalls" json:"pitfalls,omitempty"`
	Repair    []string `yaml:"repair" json:"repair,omitempty"`
	Poster    *Poster  `yaml:"poster" json:"poster,omitempty"`
}

// Poster is the short copy laid out on a shareable image.
type Poster struct {
	Title    string   `yaml:"title" json:"title"`
	Subtitle string   `yaml:"subtitle" json:"subtitle,omitempty"`
	Lines    []string `yaml:"lines" json:"lines,omitempty"`
	Hashtags []string `yaml:"hashtags" json:"hashtags,omitempty"`
	Footer   string   `yaml:"footer" json:"footer,omitempty"`
}

// Archetype is a rule-matched profile.
type Archetype struct {
	Code        string    `yaml:"code" json:"code"`
	Name        string    `yaml:"name" json:"name"`
	Tagline     string    `yaml:"tagline" json:"tagline,omitempty"`
	Description []string  `yaml:"description" json:"description,omitempty"`
	Repair      []string  `yaml:"repair" json:"repair,omitempty"`
	Poster      *Poster   `yaml:"poster" json:"poster,omitempty"`
	When        Condition `yaml:"when" json:"when"`
}

// Fallback resolves an archetype when no rule matches.
type Fallback struct {
	DriverToArchetype map[string]string `yaml:"driverToArchetype" json:"driverToArchetype,omitempty"`
}

// Chips holds the one-line personalization templates.
type Chips struct {
	IndexLineTemplate  string `yaml:"indexLineTemplate" json:"indexLineTemplate,omitempty"`
	DriverLineTemplate string `yaml:"driverLineTemplate" json:"driverLineTemplate,omitempty"`
	WeakLineTemplate   string `yaml:"weakLineTemplate" json:"weakLineTemplate,omitempty"`
}

// Share configures captions and hashtags.
type Share struct {
	DefaultHashtags  []string `yaml:"defaultHashtags" json:"defaultHashtags,omitempty"`
	CaptionTemplates []string `yaml:"captionTemplates" json:"captionTemplates,omitempty"`
	StripTitlePrefix string   `yaml:"stripTitlePrefix" json:"stripTitlePrefix,omitempty"`
}

// Family reports which classifier applies.
func (d *Definition) Family() Family {
	if len(d.Results.Archetypes) > 0 {
		return FamilyArchetype
	}
	return FamilyRanked
}

// Dimension looks up a dimension by code.
func (d *Definition) Dimension(code string) (Dimension, bool) {
	for _, dim := range d.Dimensions {
		if dim.Code == code {
			return dim, true
		}
	}
	return Dimension{}, false
}

// MixThreshold returns the configured raw diff tolerance.
func (d *Definition) MixThreshold() int {
	if t := d.Scoring.Ranking.MixThresholdRawDiff; t != nil {
		return *t
	}
	return DefaultMixThreshold
}

// ExhaustionWeight returns the cost share of the composite index.
func (d *Definition) ExhaustionWeight() float64 {
	if w := d.Scoring.Indexes.ExhaustionWeight; w != nil {
		return *w
	}
	return DefaultExhaustionWeight
}

// Archetype looks up an archetype by code.
func (d *Definition) Archetype(code string) (Archetype, bool) {
	for _, a := range d.Results.Archetypes {
		if a.Code == code {
			return a, true
		}
	}
	return Archetype{}, false
}

// Summary is the listing shape of a definition.
type Summary struct {
	Key                  string `json:"key"`
	Title                string `json:"title"`
	Subtitle             string `json:"subtitle"`
	Family               Family `json:"family"`
	QuestionCount        int    `json:"questionCount"`
	EstimatedTimeMinutes int    `json:"estimatedTimeMinutes"`
}

// Summarize returns the listing shape.
func (d *Definition) Summarize() Summary {
	return Summary{
		Key:                  d.Key,
		Title:                d.Meta.Title,
		Subtitle:             d.Meta.Subtitle,
		Family:               d.Family(),
		QuestionCount:        len(d.Questions),
		EstimatedTimeMinutes: d.Meta.EstimatedTimeMinutes,
	}
}
