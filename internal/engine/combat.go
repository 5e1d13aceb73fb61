package engine

import (
	"fmt"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/entropy"
)

// CombatOutcome is the result of one fight.
type CombatOutcome struct {
	Winner agents.ActorID             `json:"winner"`
	Loser  agents.ActorID             `json:"loser"`
	Rounds int                        `json:"rounds"`
	Damage map[agents.ActorID]float64 `json:"damage"` // Health lost per combatant
	Log    []string                   `json:"log,omitempty"`
}

// CombatResolver decides fights. Implementations must not mutate the
// actors; the simulation applies the outcome.
type CombatResolver interface {
	ResolveCombat(attacker, defender *agents.Actor) CombatOutcome
}

// MaxRounds caps the length of a fight.
const MaxRounds = 5

// DiceResolver rolls d20-style exchanges weighted by level, health, and
// temperament. Rolls come from a stream keyed by the pair and the
// attacker's memory clock, so replays produce the same fights.
type DiceResolver struct {
	src *entropy.Source
}

// NewDiceResolver creates a resolver drawing from src.
func NewDiceResolver(src *entropy.Source) *DiceResolver {
	if src == nil {
		src = entropy.New(0)
	}
	return &DiceResolver{src: src}
}

func (d *DiceResolver) ResolveCombat(attacker, defender *agents.Actor) CombatOutcome {
	rng := d.src.Stream(entropy.SaltCombat, string(attacker.ID)+">"+string(defender.ID), attacker.Memory.Now())

	hp := map[agents.ActorID]float64{attacker.ID: attacker.Health, defender.ID: defender.Health}
	out := CombatOutcome{Damage: map[agents.ActorID]float64{attacker.ID: 0, defender.ID: 0}}

	bonus := func(a *agents.Actor) float64 {
		return float64(a.Level)*2 + a.Personality.Aggression*4 + a.Personality.Courage*2 + hp[a.ID]/25
	}

	for out.Rounds < MaxRounds {
		out.Rounds++
		ra := float64(1+rng.IntN(20)) + bonus(attacker)
		rd := float64(1+rng.IntN(20)) + bonus(defender)
		hitter, hit := attacker, defender
		if rd > ra {
			hitter, hit = defender, attacker
		}
		dmg := float64(4+rng.IntN(9)) + float64(hitter.Level)
		dmg = min(dmg, hp[hit.ID])
		hp[hit.ID] -= dmg
		out.Damage[hit.ID] += dmg
		out.Log = append(out.Log, fmt.Sprintf("round %d: %s hits %s for %.0f", out.Rounds, hitter.Name, hit.Name, dmg))
		if hp[hit.ID] <= 0 {
			break
		}
		// The side that is badly hurt and not brave gives up.
		if hp[hit.ID] < 25 && hit.Personality.Courage < 0.5 {
			out.Log = append(out.Log, fmt.Sprintf("%s gives up", hit.Name))
			break
		}
	}

	if out.Damage[attacker.ID] > out.Damage[defender.ID] ||
		(out.Damage[attacker.ID] == out.Damage[defender.ID] && defender.Level >= attacker.Level) {
		out.Winner, out.Loser = defender.ID, attacker.ID
	} else {
		out.Winner, out.Loser = attacker.ID, defender.ID
	}
	return out
}
