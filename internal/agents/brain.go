// Actor brain: the per-tick decision loop.
// Every tick an actor folds in what happened to it, re-ranks its goals, and
// takes exactly one action.
package agents

import (
	"math/rand/v2"

	"github.com/talgya/cutthroat/internal/entropy"
	"github.com/talgya/cutthroat/internal/world"
)

// Brain drives one actor. It holds no cognition state of its own beyond
// bookkeeping of what it has already processed; everything else lives on
// the actor.
type Brain struct {
	actor   *Actor
	entropy *entropy.Source

	cursor      uint64 // Next memory sequence not yet folded into emotions
	lastTick    uint64 // Last tick emotions were decayed for
	initialized bool
}

// NewBrain creates a brain for a. Memories already recorded are treated as
// processed.
func NewBrain(a *Actor, src *entropy.Source) *Brain {
	a.ensure()
	if src == nil {
		src = entropy.New(0)
	}
	return &Brain{actor: a, entropy: src, cursor: a.Memory.NextSeq()}
}

// Actor returns the actor this brain drives.
func (b *Brain) Actor() *Actor {
	return b.actor
}

// ProcessHourlyUpdate runs one full tick of cognition and returns the
// chosen action. Calling it again for a tick already processed does not
// decay emotions a second time.
func (b *Brain) ProcessHourlyUpdate(snap WorldSnapshot) (Action, []GoalTransition) {
	a := b.actor
	if !a.Alive {
		return Idle(a.ID), nil
	}

	a.Memory.Advance(snap.Tick)
	b.foldMemories()

	if !b.initialized {
		b.initialized = true
		b.lastTick = snap.Tick
	} else if snap.Tick > b.lastTick {
		a.Emotions.Update(float64(snap.Tick - b.lastTick))
		b.lastTick = snap.Tick
	}

	transitions := b.UpdateGoals(snap)
	return b.DecideNextAction(snap), transitions
}

// foldMemories feeds events recorded since the last tick into emotions.
func (b *Brain) foldMemories() {
	a := b.actor
	for _, e := range a.Memory.Since(b.cursor) {
		// Significance runs up to ~3; importance is its share of that.
		_ = a.Emotions.ProcessInteraction(e.Kind, e.Other, e.Significance()/2)
		b.cursor = e.Seq + 1
	}
}

// UpdateGoals re-evaluates the actor's goals against snap.
func (b *Brain) UpdateGoals(snap WorldSnapshot) []GoalTransition {
	a := b.actor
	if snap.Self.ID == "" {
		snap.Self = b.selfView()
	}
	return a.Goals.UpdateGoals(GoalContext{
		Personality: a.Personality,
		Memory:      a.Memory,
		Emotions:    a.Emotions,
		Snapshot:    snap,
	})
}

func (b *Brain) selfView() SelfView {
	a := b.actor
	return SelfView{ID: a.ID, Health: a.Health, Gold: a.Gold, Level: a.Level, GangID: a.GangID}
}

// DecideNextAction maps the priority goal onto an action the current
// location supports, or falls back to ambient behaviour. For a fixed seed it
// depends only on the actor's personality, goals, emotions, and snap.
func (b *Brain) DecideNextAction(snap WorldSnapshot) Action {
	a := b.actor
	if !a.Alive {
		return Idle(a.ID)
	}
	rng := b.entropy.Stream(entropy.SaltDecision, string(a.ID), snap.Tick)

	if g, ok := a.Goals.GetPriorityGoal(); ok {
		if act, ok := b.pursue(g, snap, rng); ok {
			act.ActorID = a.ID
			act.Motive = g.Type
			return act
		}
	}
	act := b.ambient(snap, rng)
	act.ActorID = a.ID
	return act
}

// pursue turns a goal into an action. It reports false when the goal has no
// sensible step this tick.
func (b *Brain) pursue(g Goal, snap WorldSnapshot, rng *rand.Rand) (Action, bool) {
	p := b.actor.Personality

	switch g.Type {
	case GoalGetRevenge:
		if snap.IsNearby(g.Target) {
			// A frightened coward waits for a better moment.
			fear := b.actor.Emotions.Intensity(EmotionFear)
			if fear > 0.5 && p.Courage < 0.3 {
				return Action{}, false
			}
			return Action{Kind: ActionFight, Target: g.Target, Detail: "settles a score"}, true
		}
		return b.hunt(g.Target, snap)

	case GoalRecover:
		return b.doAt(world.AffordRest, ActionRest, snap, "rests to recover")

	case GoalAccumulateWealth:
		if p.Greed >= 0.6 && p.Aggression >= 0.6 {
			if victim, ok := b.pickVictim(snap); ok && rng.Float64() < p.Impulsiveness {
				return Action{Kind: ActionFight, Target: victim, Detail: "tries to rob someone"}, true
			}
		}
		if snap.Affordances.Has(world.AffordTrade) && snap.Self.Gold > PovertyLine && rng.Float64() < 0.3 {
			return Action{Kind: ActionTrade, Detail: "haggles at the stalls"}, true
		}
		return b.doAt(world.AffordWork, ActionWork, snap, "works for coin")

	case GoalFindBetterWeapon:
		return b.doAt(world.AffordTrade, ActionTrade, snap, "shops for a better blade")

	case GoalSeekCompany, GoalGainInfluence:
		if target, ok := b.pickCompanion(snap, rng); ok {
			return Action{Kind: ActionSocialize, Target: target, Detail: "makes conversation"}, true
		}
		// Nobody here. A tavern is worth waiting in unless a real crowd
		// has gathered elsewhere; a lone stranger is only sometimes worth
		// the walk, so two loners do not keep trading places.
		crowd, ok := snap.busiest()
		if ok && (crowd.Crowd >= 2 || (!snap.Affordances.Has(world.AffordDrink) && rng.Float64() < 0.5)) {
			return Action{Kind: ActionMoveTo, Destination: crowd.ID, Detail: "goes where the people are"}, true
		}
		if snap.Affordances.Has(world.AffordDrink) {
			return Action{Kind: ActionIdle, Detail: "nurses a drink"}, true
		}
		if dest, ok := snap.nearest(world.AffordDrink); ok {
			return Action{Kind: ActionMoveTo, Destination: dest, Detail: "heads for the tavern"}, true
		}
		return Action{}, false

	case GoalJoinGang, GoalSupportGang:
		if snap.IsNearby(g.Target) {
			return Action{Kind: ActionSocialize, Target: g.Target, Detail: "keeps close to the boss"}, true
		}
		return b.hunt(g.Target, snap)

	case GoalBecomeRuler:
		if snap.Affordances.Has(world.AffordPatrol) {
			return Action{Kind: ActionPatrol, Detail: "walks the streets with purpose"}, true
		}
		if dest, ok := snap.nearest(world.AffordPatrol); ok {
			return Action{Kind: ActionMoveTo, Destination: dest, Detail: "goes to show the colours"}, true
		}
		return Action{}, false
	}
	return Action{}, false
}

// hunt moves toward target's last known location.
func (b *Brain) hunt(target ActorID, snap WorldSnapshot) (Action, bool) {
	loc, ok := snap.Whereabouts[target]
	if !ok || loc == "" || loc == snap.Location {
		return Action{}, false
	}
	return Action{Kind: ActionMoveTo, Destination: loc, Target: target, Detail: "goes looking for someone"}, true
}

// doAt performs kind here if the location allows it, else travels to the
// nearest place that does.
func (b *Brain) doAt(want world.Affordance, kind ActionKind, snap WorldSnapshot, detail string) (Action, bool) {
	if snap.Affordances.Has(want) {
		return Action{Kind: kind, Detail: detail}, true
	}
	if dest, ok := snap.nearest(want); ok {
		return Action{Kind: ActionMoveTo, Destination: dest, Detail: "sets off to " + kind.String()}, true
	}
	return Action{}, false
}

// pickCompanion chooses who to talk to: the best-liked non-enemy nearby,
// else a random stranger.
func (b *Brain) pickCompanion(snap WorldSnapshot, rng *rand.Rand) (ActorID, bool) {
	mem := b.actor.Memory
	var best ActorID
	bestF := -1.0
	var strangers []ActorID
	for _, n := range snap.Nearby {
		if n.ID == b.actor.ID {
			continue
		}
		r := mem.GetRelationship(n.ID)
		if r.Status == StatusEnemy {
			continue
		}
		if r.Friendship > 0 && r.Friendship > bestF {
			best, bestF = n.ID, r.Friendship
		}
		strangers = append(strangers, n.ID)
	}
	if best != "" && (len(strangers) == 1 || rng.Float64() < 0.7) {
		return best, true
	}
	if len(strangers) == 0 {
		return "", false
	}
	return strangers[rng.IntN(len(strangers))], true
}

// pickVictim finds a weaker, non-allied actor nearby.
func (b *Brain) pickVictim(snap WorldSnapshot) (ActorID, bool) {
	a := b.actor
	for _, n := range snap.Nearby {
		if n.ID == a.ID {
			continue
		}
		if snap.Self.GangID != nil && n.GangID != nil && *n.GangID == *snap.Self.GangID {
			continue
		}
		if a.Memory.GetRelationship(n.ID).Status.AtLeastFriend() {
			continue
		}
		if n.Health < snap.Self.Health && n.Level <= snap.Self.Level {
			return n.ID, true
		}
	}
	return "", false
}

// ambient is what an actor does with nothing pressing: sleep at night,
// brawl on impulse, otherwise follow its temperament.
func (b *Brain) ambient(snap WorldSnapshot, rng *rand.Rand) Action {
	p := b.actor.Personality

	if snap.Hour >= 23 || snap.Hour < 6 {
		if snap.Affordances.Has(world.AffordRest) || snap.Location == "" {
			return Action{Kind: ActionRest, Detail: "sleeps"}
		}
		return Action{Kind: ActionIdle, Detail: "dozes where they stand"}
	}

	// Impulsive, aggressive actors pick fights with enemies in reach.
	if p.Aggression*p.Impulsiveness > 0.25 {
		for _, id := range b.actor.Memory.GetEnemies() {
			if snap.IsNearby(id) && rng.Float64() < p.Aggression*p.Impulsiveness {
				return Action{Kind: ActionFight, Target: id, Detail: "starts a brawl"}
			}
		}
	}

	if tmpl, ok := archetypeTemplates[b.actor.Archetype]; ok && rng.Float64() < tmpl.Habit {
		switch tmpl.Preferred {
		case ActionPatrol:
			if snap.Affordances.Has(world.AffordPatrol) {
				return Action{Kind: ActionPatrol, Detail: "keeps watch"}
			}
		case ActionWork:
			if snap.Affordances.Has(world.AffordWork) {
				return Action{Kind: ActionWork, Detail: "goes about their work"}
			}
		case ActionTrade:
			if snap.Affordances.Has(world.AffordTrade) && snap.Self.Gold > PovertyLine {
				return Action{Kind: ActionTrade, Detail: "peddles wares"}
			}
		}
	}

	if p.Sociability >= 0.5 {
		if target, ok := b.pickCompanion(snap, rng); ok {
			return Action{Kind: ActionSocialize, Target: target, Detail: "chats with a neighbour"}
		}
	}
	if snap.Affordances.Has(world.AffordWork) {
		return Action{Kind: ActionWork, Detail: "goes about their work"}
	}
	return Action{Kind: ActionIdle}
}
