// Package share encodes a result into a compact URL-safe token and rebuilds
// the result from a token on the receiving side.
package share

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/assess/internal/domain/classify"
)

const (
	// Version is the only payload version Decode accepts.
	Version = 1
	// MaxNickname is the longest nickname, in characters, a payload carries.
	MaxNickname = 12
	// TimeLayout formats the payload timestamp.
	TimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Payload is the wire form of a shared result. Field names are part of the
// token format.
type Payload struct {
	V        int    `json:"v"`
	TestKey  string `json:"testKey"`
	Nickname string `json:"nickname"`
	TS       string `json:"ts"`

	// Ranked family.
	Kind      classify.Kind  `json:"kind,omitempty"`
	Primary   string         `json:"primary,omitempty"`
	Secondary string         `json:"secondary,omitempty"`
	Diff      *int           `json:"diff,omitempty"`
	Dims100   map[string]int `json:"dims100,omitempty"`

	// Archetype family.
	ELI           *int           `json:"ELI,omitempty"`
	Tier          string         `json:"tier,omitempty"`
	ArchetypeCode string         `json:"archetypeCode,omitempty"`
	Driver        string         `json:"driver,omitempty"`
	Weak          string         `json:"weak,omitempty"`
	Dim100        map[string]int `json:"dim100,omitempty"`
}

// IsArchetype reports whether the payload carries archetype facts.
func (p Payload) IsArchetype() bool {
	return p.ELI != nil || p.Kind == classify.KindArchetype
}

// FromResult builds the payload for r.
func FromResult(r classify.Result, nickname string, ts time.Time) Payload {
	p := Payload{
		V:        Version,
		TestKey:  r.TestKey,
		Nickname: Nickname(nickname),
		TS:       ts.UTC().Format(TimeLayout),
	}
	normalized := make(map[string]int, len(r.Outcome.Normalized))
	for k, v := range r.Outcome.Normalized {
		normalized[k] = v
	}

	if f := r.Outcome.Index; r.Kind == classify.KindArchetype && f != nil {
		eli := f.Index
		p.ELI = &eli
		p.Tier = f.Tier
		p.ArchetypeCode = f.Archetype
		p.Driver = f.Driver
		p.Weak = f.Weak
		p.Dim100 = normalized
		return p
	}

	p.Kind = r.Kind
	if f := r.Outcome.Ranked; f != nil {
		diff := f.Diff
		p.Primary = f.Primary
		p.Secondary = f.Secondary
		p.Diff = &diff
	}
	p.Dims100 = normalized
	return p
}

// Nickname trims surrounding space and keeps at most MaxNickname characters.
func Nickname(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxNickname {
		return s
	}
	return string([]rune(s)[:MaxNickname])
}
