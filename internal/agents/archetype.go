// Archetypes: personality templates the spawner draws actors from.
// Each archetype fixes a trait profile and a habitual ambient action.
package agents

import (
	"math/rand/v2"
	"sort"
)

// The eight townsfolk templates.
const (
	ArchThug     = "Thug"
	ArchMerchant = "Merchant"
	ArchGuard    = "Guard"
	ArchDrunkard = "Drunkard"
	ArchSchemer  = "Schemer"
	ArchLaborer  = "Laborer"
	ArchWanderer = "Wanderer"
	ArchZealot   = "Zealot"
)

// BehaviorTemplate defines an archetype's trait profile and habits.
type BehaviorTemplate struct {
	// Base trait values before jitter.
	Base Personality

	// Jitter is the maximum +/- shift applied to each trait at spawn.
	Jitter float64

	// Preferred is the ambient action the archetype falls back to.
	Preferred ActionKind

	// Habit is the chance per idle tick of taking the preferred action.
	Habit float64

	// StartingGold is the mean gold an actor spawns with.
	StartingGold int64

	// Weight is the archetype's share of a spawned population.
	Weight float64
}

// archetypeTemplates maps archetype name to its behavior template.
var archetypeTemplates = map[string]BehaviorTemplate{
	ArchThug: {
		Base: Personality{
			Aggression: 0.8, Greed: 0.7, Courage: 0.6, Loyalty: 0.4,
			Vengefulness: 0.7, Impulsiveness: 0.6, Sociability: 0.4, Ambition: 0.5,
		},
		Jitter: 0.15, Preferred: ActionIdle, Habit: 0.2, StartingGold: 15, Weight: 0.12,
	},
	ArchMerchant: {
		Base: Personality{
			Aggression: 0.2, Greed: 0.8, Courage: 0.3, Loyalty: 0.4,
			Vengefulness: 0.3, Impulsiveness: 0.2, Sociability: 0.6, Ambition: 0.6,
		},
		Jitter: 0.1, Preferred: ActionTrade, Habit: 0.6, StartingGold: 120, Weight: 0.12,
	},
	ArchGuard: {
		Base: Personality{
			Aggression: 0.5, Greed: 0.3, Courage: 0.8, Loyalty: 0.8,
			Vengefulness: 0.4, Impulsiveness: 0.2, Sociability: 0.4, Ambition: 0.3,
		},
		Jitter: 0.1, Preferred: ActionPatrol, Habit: 0.7, StartingGold: 40, Weight: 0.1,
	},
	ArchDrunkard: {
		Base: Personality{
			Aggression: 0.4, Greed: 0.3, Courage: 0.4, Loyalty: 0.5,
			Vengefulness: 0.4, Impulsiveness: 0.8, Sociability: 0.8, Ambition: 0.1,
		},
		Jitter: 0.15, Preferred: ActionIdle, Habit: 0.3, StartingGold: 10, Weight: 0.12,
	},
	ArchSchemer: {
		Base: Personality{
			Aggression: 0.4, Greed: 0.6, Courage: 0.5, Loyalty: 0.3,
			Vengefulness: 0.6, Impulsiveness: 0.3, Sociability: 0.7, Ambition: 0.85,
		},
		Jitter: 0.1, Preferred: ActionTrade, Habit: 0.3, StartingGold: 60, Weight: 0.08,
	},
	ArchLaborer: {
		Base: Personality{
			Aggression: 0.3, Greed: 0.4, Courage: 0.5, Loyalty: 0.6,
			Vengefulness: 0.4, Impulsiveness: 0.3, Sociability: 0.5, Ambition: 0.3,
		},
		Jitter: 0.15, Preferred: ActionWork, Habit: 0.7, StartingGold: 25, Weight: 0.3,
	},
	ArchWanderer: {
		Base: Personality{
			Aggression: 0.3, Greed: 0.3, Courage: 0.7, Loyalty: 0.3,
			Vengefulness: 0.3, Impulsiveness: 0.6, Sociability: 0.3, Ambition: 0.4,
		},
		Jitter: 0.2, Preferred: ActionWork, Habit: 0.4, StartingGold: 30, Weight: 0.08,
	},
	ArchZealot: {
		Base: Personality{
			Aggression: 0.5, Greed: 0.1, Courage: 0.8, Loyalty: 0.9,
			Vengefulness: 0.8, Impulsiveness: 0.4, Sociability: 0.5, Ambition: 0.5,
		},
		Jitter: 0.1, Preferred: ActionPatrol, Habit: 0.4, StartingGold: 20, Weight: 0.08,
	},
}

// Archetypes returns every archetype name in sorted order.
func Archetypes() []string {
	names := make([]string, 0, len(archetypeTemplates))
	for n := range archetypeTemplates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Template returns the behavior template for an archetype.
func Template(name string) (BehaviorTemplate, bool) {
	t, ok := archetypeTemplates[name]
	return t, ok
}

// Personality draws a jittered personality from the template.
func (t BehaviorTemplate) Personality(rng *rand.Rand) Personality {
	p := t.Base
	for k := TraitKind(0); k < numTraits; k++ {
		f := p.field(k)
		*f += (rng.Float64()*2 - 1) * t.Jitter
	}
	p.Clamp()
	return p
}

// pickArchetype chooses an archetype by weight.
func pickArchetype(rng *rand.Rand) string {
	names := Archetypes()
	total := 0.0
	for _, n := range names {
		total += archetypeTemplates[n].Weight
	}
	r := rng.Float64() * total
	for _, n := range names {
		r -= archetypeTemplates[n].Weight
		if r < 0 {
			return n
		}
	}
	return names[len(names)-1]
}
