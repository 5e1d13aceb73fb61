package agents

import (
	"fmt"
	"math"
)

// TraitKind names one personality trait.
type TraitKind uint8

const (
	TraitAggression TraitKind = iota
	TraitGreed
	TraitCourage
	TraitLoyalty
	TraitVengefulness
	TraitImpulsiveness
	TraitSociability
	TraitAmbition
	numTraits
)

var traitNames = [numTraits]string{
	"aggression", "greed", "courage", "loyalty",
	"vengefulness", "impulsiveness", "sociability", "ambition",
}

func (t TraitKind) String() string {
	if t < numTraits {
		return traitNames[t]
	}
	return fmt.Sprintf("trait(%d)", uint8(t))
}

// Personality is an actor's fixed trait vector. Every value lies in [0, 1].
// It is set at creation and only changes through Adjust, which is reserved
// for explicit story events.
type Personality struct {
	Aggression    float64 `json:"aggression"`
	Greed         float64 `json:"greed"`
	Courage       float64 `json:"courage"`
	Loyalty       float64 `json:"loyalty"`
	Vengefulness  float64 `json:"vengefulness"`
	Impulsiveness float64 `json:"impulsiveness"`
	Sociability   float64 `json:"sociability"`
	Ambition      float64 `json:"ambition"`
}

// NewPersonality builds a clamped personality from traits in TraitKind
// order. Missing traits are zero; extras are ignored.
func NewPersonality(traits ...float64) Personality {
	var p Personality
	for i, v := range traits {
		if TraitKind(i) >= numTraits {
			break
		}
		*p.field(TraitKind(i)) = v
	}
	p.Clamp()
	return p
}

func (p *Personality) field(t TraitKind) *float64 {
	switch t {
	case TraitAggression:
		return &p.Aggression
	case TraitGreed:
		return &p.Greed
	case TraitCourage:
		return &p.Courage
	case TraitLoyalty:
		return &p.Loyalty
	case TraitVengefulness:
		return &p.Vengefulness
	case TraitImpulsiveness:
		return &p.Impulsiveness
	case TraitSociability:
		return &p.Sociability
	case TraitAmbition:
		return &p.Ambition
	}
	return nil
}

// Trait returns the value of t, or 0 for an unknown trait.
func (p Personality) Trait(t TraitKind) float64 {
	if f := p.field(t); f != nil {
		return *f
	}
	return 0
}

// Clamp forces every trait into [0, 1]. NaN becomes 0.
func (p *Personality) Clamp() {
	for t := TraitKind(0); t < numTraits; t++ {
		f := p.field(t)
		*f = clamp01(*f)
	}
}

// Adjust shifts one trait by delta and clamps the result.
func (p *Personality) Adjust(t TraitKind, delta float64) error {
	f := p.field(t)
	if f == nil {
		return fmt.Errorf("adjust %s: %w", t, ErrInvalidTrait)
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("adjust %s by %v: %w", t, delta, ErrInvalidIntensity)
	}
	*f = clamp01(*f + delta)
	return nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
