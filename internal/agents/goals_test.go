package agents

import "testing"

func grudgeHolder() *Actor {
	return NewActor("a", "Avenger", Personality{
		Aggression: 0.3, Greed: 0.2, Courage: 0.5, Loyalty: 0.3,
		Vengefulness: 0.8, Impulsiveness: 0.3, Sociability: 0.2, Ambition: 0.2,
	}, "")
}

func ctxFor(a *Actor, snap WorldSnapshot) GoalContext {
	if snap.Self.ID == "" {
		snap.Self = SelfView{ID: a.ID, Health: a.Health, Gold: 50, Level: a.Level}
	}
	return GoalContext{Personality: a.Personality, Memory: a.Memory, Emotions: a.Emotions, Snapshot: snap}
}

func countGoals(gs *GoalSet, typ GoalType) int {
	n := 0
	for g := range gs.GetActiveGoals() {
		if g.Type == typ {
			n++
		}
	}
	return n
}

func TestRevengeGoalIsDeduplicated(t *testing.T) {
	a := grudgeHolder()
	record(t, a.Memory, EventWasAttacked, "b", 1, CombatDetail{Damage: 20})

	for tick := uint64(1); tick <= 3; tick++ {
		a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: tick}))
	}

	if got := countGoals(a.Goals, GoalGetRevenge); got != 1 {
		t.Fatalf("expected exactly one revenge goal, got %d", got)
	}
	if !a.Goals.Has(GoalGetRevenge, "b") {
		t.Fatalf("revenge goal should target b")
	}
	if !a.Memory.RemembersBeingAttackedBy("b") {
		t.Fatalf("attack should be remembered")
	}
	g, ok := a.Goals.GetPriorityGoal()
	if !ok || g.Type != GoalGetRevenge {
		t.Fatalf("expected revenge as priority goal, got %+v", g)
	}
}

func TestMildActorIgnoresGrudge(t *testing.T) {
	a := grudgeHolder()
	a.Personality.Vengefulness = 0.1
	record(t, a.Memory, EventWasAttacked, "b", 1, CombatDetail{Damage: 20})
	a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 1}))
	if a.Goals.Has(GoalGetRevenge, "b") {
		t.Fatalf("unvengeful actor should not seek revenge")
	}
}

func TestRevengeSatisfiedByVictory(t *testing.T) {
	a := grudgeHolder()
	record(t, a.Memory, EventWasAttacked, "b", 1, CombatDetail{Damage: 20})
	a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 1}))

	record(t, a.Memory, EventWonAgainst, "b", 2, CombatDetail{Rounds: 3})
	trans := a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 2}))

	found := false
	for _, tr := range trans {
		if tr.Goal.Type == GoalGetRevenge && tr.To == GoalSatisfied {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected revenge to be satisfied, transitions=%+v", trans)
	}
	if a.Goals.Has(GoalGetRevenge, "b") {
		t.Fatalf("satisfied revenge was proposed again in the same update")
	}

	// The grudge outlives the goal, but the score is settled.
	if r := a.Memory.GetRelationship("b"); r.Hostility < RevengeHostility {
		t.Fatalf("expected hostility to linger, got %v", r.Hostility)
	}
	for tick := uint64(3); tick <= 5; tick++ {
		a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: tick}))
		if a.Goals.Has(GoalGetRevenge, "b") {
			t.Fatalf("revenge on b came back at tick %d", tick)
		}
	}

	// A fresh wrong reopens it.
	record(t, a.Memory, EventWasAttacked, "b", 6, CombatDetail{Damage: 20})
	a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 6}))
	if !a.Goals.Has(GoalGetRevenge, "b") {
		t.Fatalf("expected revenge after a new attack")
	}
}

func TestRevengeInvalidatedWhenTargetGone(t *testing.T) {
	a := grudgeHolder()
	record(t, a.Memory, EventWasAttacked, "b", 1, CombatDetail{Damage: 20})
	a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 1}))

	gone := func(id ActorID) bool { return id != "b" }
	trans := a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 2, Living: gone}))
	if len(trans) != 1 || trans[0].To != GoalInvalidated {
		t.Fatalf("expected one invalidation, got %+v", trans)
	}
	if a.Goals.Len() != 0 {
		t.Fatalf("expected no goals left, got %d", a.Goals.Len())
	}
}

func TestActiveGoalsAreCapped(t *testing.T) {
	a := grudgeHolder()
	for _, id := range []ActorID{"b", "c", "d", "e", "f", "g", "h", "i"} {
		record(t, a.Memory, EventWasAttacked, id, 1, CombatDetail{Damage: 20})
	}
	trans := a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 1}))

	if a.Goals.Len() != MaxActiveGoals {
		t.Fatalf("expected %d goals, got %d", MaxActiveGoals, a.Goals.Len())
	}
	superseded := 0
	for _, tr := range trans {
		if tr.To == GoalSuperseded {
			superseded++
		}
	}
	if superseded != 2 {
		t.Fatalf("expected 2 superseded goals, got %d", superseded)
	}
}

func TestPriorityTieGoesToNewestGoal(t *testing.T) {
	a := grudgeHolder()
	record(t, a.Memory, EventWasAttacked, "b", 1, CombatDetail{Damage: 20})
	record(t, a.Memory, EventWasAttacked, "c", 1, CombatDetail{Damage: 20})
	a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 1}))

	g, ok := a.Goals.GetPriorityGoal()
	if !ok {
		t.Fatalf("expected a goal")
	}
	var newest Goal
	for other := range a.Goals.GetActiveGoals() {
		if other.Seq > newest.Seq {
			newest = other
		}
	}
	if g.Seq != newest.Seq {
		t.Fatalf("tie should go to seq %d, got %d", newest.Seq, g.Seq)
	}
}

func TestJoinGangKeepsOneTarget(t *testing.T) {
	a := NewActor("a", "Follower", Personality{Loyalty: 0.9, Sociability: 0.3, Greed: 0.1}, "")
	record(t, a.Memory, EventWasHelped, "l1", 1, FavorDetail{Gold: 50})
	record(t, a.Memory, EventWasHelped, "l2", 1, FavorDetail{Gold: 50})

	snap := WorldSnapshot{Tick: 1, GangLeaders: map[ActorID]uint64{"l1": 1, "l2": 2}}
	a.Goals.UpdateGoals(ctxFor(a, snap))
	if got := countGoals(a.Goals, GoalJoinGang); got != 1 {
		t.Fatalf("expected one join goal, got %d", got)
	}
}
