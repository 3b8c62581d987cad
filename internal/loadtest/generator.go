package loadtest

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Answer profiles cycled through by the generator.
const (
	profileUniform = iota // every answer random
	profileLean           // one dimension at the top of the scale
	profileFlat           // every answer the same value
	profileCount
)

// nicknameLen keeps generated nicknames inside the share limit.
const nicknameLen = 8

// definition is the subset of GET /tests/{key} the generator needs.
type definition struct {
	Key  string `json:"key"`
	Meta struct {
		Scale struct {
			Min int `json:"min"`
			Max int `json:"max"`
		} `json:"scale"`
	} `json:"meta"`
	Dimensions []struct {
		Code string `json:"code"`
	} `json:"dimensions"`
	Questions []struct {
		Dim string `json:"dim"`
	} `json:"questions"`
}

type submission struct {
	Nickname string `json:"nickname"`
	Answers  []int  `json:"answers"`
}

// generate creates n complete submissions. The answers are a pure function
// of the definition, n and seed.
func generate(def definition, n int, seed uint64) []submission {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	lo, hi := def.Meta.Scale.Min, def.Meta.Scale.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	pick := func() int { return lo + rng.IntN(hi-lo+1) }

	out := make([]submission, n)
	for i := range out {
		answers := make([]int, len(def.Questions))
		switch i % profileCount {
		case profileLean:
			lead := ""
			if len(def.Dimensions) > 0 {
				lead = def.Dimensions[rng.IntN(len(def.Dimensions))].Code
			}
			for q, question := range def.Questions {
				if question.Dim == lead {
					answers[q] = hi
				} else {
					answers[q] = pick()
				}
			}
		case profileFlat:
			v := pick()
			for q := range answers {
				answers[q] = v
			}
		default:
			for q := range answers {
				answers[q] = pick()
			}
		}
		out[i] = submission{
			Nickname: uuid.NewString()[:nicknameLen],
			Answers:  answers,
		}
	}
	return out
}
