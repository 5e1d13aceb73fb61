// Apply phase: turns decided actions into state changes, one actor at a
// time in ID order.
package engine

import (
	"fmt"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/entropy"
	"github.com/talgya/cutthroat/internal/world"
)

// Economy and recovery constants.
const (
	WorkWage         = 4   // Gold per hour of work, before level bonus
	RestHeal         = 8.0 // Health per hour resting somewhere restful
	PassiveHeal      = 0.5 // Health every living actor regains per hour
	RobberyShare     = 0.3 // Share of the loser's purse a robber takes
	CharityGift      = 10  // Gold a generous actor gives a poor friend
	SightingCooldown = 24  // Ticks before a familiar face is noted again

	TreasureFindChance = 0.1 // Hourly odds a worker turns up loot where treasure is rumoured
	TreasureFindBonus  = 15
)

// apply executes one action. Errors mean the action was skipped; the tick
// carries on regardless.
func (s *Simulation) apply(a *agents.Actor, act agents.Action, tick uint64) error {
	switch act.Kind {
	case agents.ActionIdle:
		return nil
	case agents.ActionMoveTo:
		return s.applyMove(a, act)
	case agents.ActionSocialize:
		return s.applySocialize(a, act, tick)
	case agents.ActionFight:
		return s.applyFight(a, act, tick)
	case agents.ActionTrade:
		return s.applyTrade(a, act, tick)
	case agents.ActionRest:
		heal := RestHeal / 2
		if loc, ok := s.catalog.Get(a.Location); ok && loc.Affordances.Has(world.AffordRest) {
			heal = RestHeal
		}
		a.Health = min(agents.MaxHealth, a.Health+heal)
		return nil
	case agents.ActionPatrol:
		return s.applyPatrol(a, tick)
	case agents.ActionWork:
		return s.applyWork(a, tick)
	}
	return fmt.Errorf("%s: %w", act.Kind, ErrInvalidAction)
}

func (s *Simulation) applyMove(a *agents.Actor, act agents.Action) error {
	if act.Destination == a.Location {
		return nil
	}
	if _, ok := s.catalog.Get(act.Destination); !ok {
		return fmt.Errorf("move to %q: unknown destination: %w", act.Destination, ErrInvalidAction)
	}
	s.leave(a)
	a.Location = act.Destination
	s.occupancy[a.Location] = insertSorted(s.occupancy[a.Location], a.ID)
	return nil
}

// target resolves a co-located living target.
func (s *Simulation) target(a *agents.Actor, id agents.ActorID) (*agents.Actor, error) {
	t, ok := s.index[id]
	if !ok || !t.Alive || id == a.ID {
		return nil, fmt.Errorf("target %q: %w", id, ErrUnknownActor)
	}
	if t.Location != a.Location {
		return nil, fmt.Errorf("target %q not at %s: %w", id, a.Location, ErrInvalidAction)
	}
	return t, nil
}

func (s *Simulation) applySocialize(a *agents.Actor, act agents.Action, tick uint64) error {
	t, err := s.target(a, act.Target)
	if err != nil {
		return err
	}
	d := agents.SocialDetail{Location: a.Location}
	_ = a.Memory.RecordEvent(agents.NewEvent(agents.EventSharedDrink, t.ID, tick, d))
	_ = t.Memory.RecordEvent(agents.NewEvent(agents.EventSharedDrink, a.ID, tick, d))

	// Charity: the kind-hearted help friends who have fallen on hard times.
	p := a.Personality
	if p.Sociability >= 0.6 && p.Greed <= 0.4 &&
		t.Gold < agents.PovertyLine && a.Gold >= 2*agents.PovertyLine &&
		a.Memory.GetRelationship(t.ID).Status.AtLeastFriend() {
		a.Gold -= CharityGift
		t.Gold += CharityGift
		_ = t.Memory.RecordEvent(agents.NewEvent(agents.EventWasHelped, a.ID, tick, agents.FavorDetail{Gold: CharityGift}))
		s.emit(tick, EventCharity, a.Location, fmt.Sprintf("%s slipped %s a few coins", a.Name, t.Name), a.ID, t.ID)
	}
	return nil
}

func (s *Simulation) applyFight(a *agents.Actor, act agents.Action, tick uint64) error {
	t, err := s.target(a, act.Target)
	if err != nil {
		return err
	}
	out := s.combat.ResolveCombat(a, t)

	fighter := func(id agents.ActorID) *agents.Actor {
		switch id {
		case a.ID:
			return a
		case t.ID:
			return t
		}
		return nil
	}
	winner, loser := fighter(out.Winner), fighter(out.Loser)
	if winner == nil || loser == nil || winner == loser {
		return fmt.Errorf("combat returned unknown actors: %w", ErrInvalidAction)
	}
	s.stats.Fights++
	for id, dmg := range out.Damage {
		if c := fighter(id); c != nil {
			c.Health = max(0, c.Health-dmg)
		}
	}

	// The defender remembers being attacked whatever the outcome.
	_ = t.Memory.RecordEvent(agents.NewEvent(agents.EventWasAttacked, a.ID, tick,
		agents.CombatDetail{Damage: out.Damage[t.ID], Rounds: out.Rounds}))
	_ = winner.Memory.RecordEvent(agents.NewEvent(agents.EventWonAgainst, loser.ID, tick,
		agents.CombatDetail{Damage: out.Damage[winner.ID], Rounds: out.Rounds}))
	_ = loser.Memory.RecordEvent(agents.NewEvent(agents.EventLostTo, winner.ID, tick,
		agents.CombatDetail{Damage: out.Damage[loser.ID], Rounds: out.Rounds}))

	kind, desc := EventFight, fmt.Sprintf("%s attacked %s; %s came out on top", a.Name, t.Name, winner.Name)
	if act.Motive == agents.GoalGetRevenge {
		kind, desc = EventRevenge, fmt.Sprintf("%s sought revenge on %s; %s came out on top", a.Name, t.Name, winner.Name)
	}
	s.emit(tick, kind, a.Location, desc, a.ID, t.ID)

	// A successful robber helps themselves to the loser's purse.
	if act.Motive == agents.GoalAccumulateWealth && winner == a && loser.Gold > 0 {
		loot := max(1, int64(float64(loser.Gold)*RobberyShare))
		loser.Gold -= loot
		a.Gold += loot
		s.emit(tick, EventRobbery, a.Location, fmt.Sprintf("%s robbed %s of %d gold", a.Name, loser.Name, loot), a.ID, loser.ID)
	}

	for _, c := range []*agents.Actor{t, a} {
		if c.Alive && c.Health <= 0 {
			killer := a.ID
			if c == a {
				killer = t.ID
			}
			// The killer takes what the dead carried.
			if k := s.index[killer]; k != nil {
				k.Gold += c.Gold
				c.Gold = 0
			}
			s.relations.recordKill(killer, c.ID, tick)
		}
	}
	return nil
}

func (s *Simulation) applyTrade(a *agents.Actor, act agents.Action, tick uint64) error {
	loc, ok := s.catalog.Get(a.Location)
	if !ok || !loc.Affordances.Has(world.AffordTrade) {
		return fmt.Errorf("trade at %s: %w", a.Location, ErrInvalidAction)
	}

	if act.Motive == agents.GoalFindBetterWeapon {
		if a.Gold < agents.WeaponPrice {
			return fmt.Errorf("weapon costs %d, has %d: %w", agents.WeaponPrice, a.Gold, ErrInvalidAction)
		}
		a.Gold -= agents.WeaponPrice
		a.Level++
		_ = a.Memory.RecordEvent(agents.NewEvent(agents.EventPurchased, "", tick, agents.FavorDetail{Gold: agents.WeaponPrice}))
		s.emit(tick, EventPurchase, a.Location, fmt.Sprintf("%s bought a better blade", a.Name), a.ID)
		return nil
	}

	// Haggling: shrewd traders come out ahead more often than not.
	r := s.entropy.Float(entropy.SaltWorld, "trade/"+string(a.ID), tick)
	gain := int64((r - 0.45 + 0.2*a.Personality.Greed) * 12)
	a.Gold = max(0, a.Gold+gain)

	for _, id := range s.occupancy[a.Location] {
		if id == a.ID {
			continue
		}
		t := s.index[id]
		d := agents.FavorDetail{Gold: max(gain, 0)}
		_ = a.Memory.RecordEvent(agents.NewEvent(agents.EventTraded, t.ID, tick, d))
		_ = t.Memory.RecordEvent(agents.NewEvent(agents.EventTraded, a.ID, tick, d))
		break
	}
	return nil
}

func (s *Simulation) applyWork(a *agents.Actor, tick uint64) error {
	loc, ok := s.catalog.Get(a.Location)
	if !ok || !loc.Affordances.Has(world.AffordWork) {
		return fmt.Errorf("work at %s: %w", a.Location, ErrInvalidAction)
	}
	wage := int64(WorkWage+a.Level) + int64(loc.Danger*4)
	if loc.Treasure && s.entropy.Float(entropy.SaltWorld, "find/"+string(a.ID), tick) < TreasureFindChance {
		wage += TreasureFindBonus
	}
	a.Gold += wage
	return nil
}

// applyPatrol lets a watchful actor size up whoever is around.
func (s *Simulation) applyPatrol(a *agents.Actor, tick uint64) error {
	loc, ok := s.catalog.Get(a.Location)
	if !ok || !loc.Affordances.Has(world.AffordPatrol) {
		return fmt.Errorf("patrol at %s: %w", a.Location, ErrInvalidAction)
	}
	for _, id := range s.occupancy[a.Location] {
		if id != a.ID {
			s.noteSighting(a, id, tick)
		}
	}
	return nil
}

// passiveRecovery heals every survivor a little each hour.
func (s *Simulation) passiveRecovery(living []*agents.Actor) {
	for _, a := range living {
		if a.Alive {
			a.Health = min(agents.MaxHealth, a.Health+PassiveHeal)
		}
	}
}

// noticeStrangers records sightings of co-located actors not met recently.
func (s *Simulation) noticeStrangers(tick uint64) {
	for _, a := range s.actors {
		if !a.Alive {
			continue
		}
		for _, other := range s.occupancy[a.Location] {
			if other != a.ID {
				s.noteSighting(a, other, tick)
			}
		}
	}
}

func (s *Simulation) noteSighting(a *agents.Actor, other agents.ActorID, tick uint64) {
	if last, ok := a.Memory.LastInteraction(other); ok && tick < last+SightingCooldown {
		return
	}
	_ = a.Memory.RecordEvent(agents.NewEvent(agents.EventSawPerson, other, tick, agents.SocialDetail{Location: a.Location}))
}

// markDead removes a from play. Gang bookkeeping for a dead leader happens
// during gang evaluation.
func (s *Simulation) markDead(a *agents.Actor, tick uint64) {
	a.Alive = false
	a.Health = 0
	s.leave(a)
	delete(s.pending, a.ID)
	if a.GangID == nil {
		return
	}
	if g, ok := s.gangs.Get(*a.GangID); ok && g.LeaderID != a.ID {
		g.RemoveMember(a.ID, tick)
		a.GangID = nil
	}
}

func (s *Simulation) leave(a *agents.Actor) {
	ids := s.occupancy[a.Location]
	for i, id := range ids {
		if id == a.ID {
			s.occupancy[a.Location] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.occupancy[a.Location]) == 0 {
		delete(s.occupancy, a.Location)
	}
}

func insertSorted(ids []agents.ActorID, id agents.ActorID) []agents.ActorID {
	i := 0
	for i < len(ids) && ids[i] < id {
		i++
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
