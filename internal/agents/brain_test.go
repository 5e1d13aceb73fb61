package agents

import (
	"reflect"
	"testing"

	"github.com/talgya/cutthroat/internal/entropy"
	"github.com/talgya/cutthroat/internal/world"
)

func TestEmptySnapshotYieldsValidAction(t *testing.T) {
	a := NewActor("a", "A", Personality{}, "")
	b := NewBrain(a, entropy.New(1))
	act, _ := b.ProcessHourlyUpdate(WorldSnapshot{})
	if !act.Kind.Valid() {
		t.Fatalf("invalid action %v", act.Kind)
	}
	if act.ActorID != a.ID {
		t.Fatalf("action not attributed: %q", act.ActorID)
	}
}

func TestDeadActorIdles(t *testing.T) {
	a := NewActor("a", "A", Personality{Aggression: 1}, "")
	a.Alive = false
	act, trans := NewBrain(a, nil).ProcessHourlyUpdate(WorldSnapshot{Tick: 3, Hour: 12})
	if act.Kind != ActionIdle || trans != nil {
		t.Fatalf("dead actor acted: %+v", act)
	}
}

func TestRevengeDrivesFight(t *testing.T) {
	a := grudgeHolder()
	record(t, a.Memory, EventWasAttacked, "b", 1, CombatDetail{Damage: 20})
	b := NewBrain(a, entropy.New(7))

	snap := WorldSnapshot{
		Tick: 2, Hour: 12,
		Self:   SelfView{ID: a.ID, Health: 100, Gold: 50, Level: 1},
		Nearby: []NearbyActor{{ID: "b", Health: 100, Level: 1}},
	}
	act, _ := b.ProcessHourlyUpdate(snap)
	if act.Kind != ActionFight || act.Target != "b" || act.Motive != GoalGetRevenge {
		t.Fatalf("expected revenge fight, got %+v", act)
	}
}

func TestRevengeHuntsAbsentTarget(t *testing.T) {
	a := grudgeHolder()
	record(t, a.Memory, EventWasAttacked, "b", 1, CombatDetail{Damage: 20})
	b := NewBrain(a, entropy.New(7))

	snap := WorldSnapshot{
		Tick: 2, Hour: 12, Location: "market",
		Self:        SelfView{ID: a.ID, Health: 100, Gold: 50, Level: 1},
		Whereabouts: map[ActorID]world.LocationID{"b": "docks"},
	}
	act, _ := b.ProcessHourlyUpdate(snap)
	if act.Kind != ActionMoveTo || act.Destination != "docks" {
		t.Fatalf("expected move to docks, got %+v", act)
	}
}

func TestEmotionsDecayOncePerTick(t *testing.T) {
	a := NewActor("a", "A", Personality{}, "")
	b := NewBrain(a, entropy.New(1))
	_ = a.Emotions.AddEmotion(EmotionAnger, 1, 10)

	b.ProcessHourlyUpdate(WorldSnapshot{Tick: 5})
	b.ProcessHourlyUpdate(WorldSnapshot{Tick: 6})
	b.ProcessHourlyUpdate(WorldSnapshot{Tick: 6})

	if got := a.Emotions.Remaining(EmotionAnger); got != 9 {
		t.Fatalf("expected 9 ticks remaining, got %v", got)
	}
}

func TestDecisionsAreDeterministic(t *testing.T) {
	run := func() []Action {
		a := NewActor("a", "A", Personality{
			Aggression: 0.7, Greed: 0.7, Impulsiveness: 0.7, Sociability: 0.6, Ambition: 0.4,
		}, "market")
		record(t, a.Memory, EventWasAttacked, "c", 0, CombatDetail{Damage: 5})
		b := NewBrain(a, entropy.New(99))
		var out []Action
		for tick := uint64(1); tick <= 24; tick++ {
			act, _ := b.ProcessHourlyUpdate(WorldSnapshot{
				Tick: tick, Hour: int(tick % 24), Location: "market",
				Affordances: world.AffordTrade | world.AffordWork,
				Self:        SelfView{ID: a.ID, Health: 90, Gold: 30, Level: 2},
				Nearby:      []NearbyActor{{ID: "b", Health: 40, Level: 1}, {ID: "c", Health: 80, Level: 2}},
			})
			out = append(out, act)
		}
		return out
	}
	if first, second := run(), run(); !reflect.DeepEqual(first, second) {
		t.Fatalf("decisions differ between runs")
	}
}

func TestSocialClimberGoesWhereThePeopleAre(t *testing.T) {
	town := func(marketCrowd int) WorldSnapshot {
		return WorldSnapshot{
			Tick: 2, Hour: 12, Location: "tavern", Affordances: world.AffordDrink,
			Self: SelfView{ID: "boss", Health: 100, Gold: 50, Level: 1},
			Locations: []LocationView{
				{ID: "tavern", Position: world.HexCoord{}, Affordances: world.AffordDrink},
				{ID: "market", Position: world.HexCoord{Q: 3}, Affordances: world.AffordWork, Crowd: marketCrowd},
				{ID: "docks", Position: world.HexCoord{Q: 1}, Affordances: world.AffordWork},
			},
		}
	}
	boss := func() *Brain {
		return NewBrain(NewActor("boss", "Boss", Personality{Ambition: 0.9, Sociability: 0.8, Loyalty: 0.7}, "tavern"), entropy.New(3))
	}

	act, _ := boss().ProcessHourlyUpdate(town(3))
	if act.Kind != ActionMoveTo || act.Destination != "market" || act.Motive != GoalGainInfluence {
		t.Fatalf("expected a walk to the busy market, got %+v", act)
	}

	act, _ = boss().ProcessHourlyUpdate(town(1))
	if act.Kind != ActionIdle || act.Motive != GoalGainInfluence {
		t.Fatalf("a lone stranger should not pull a climber out of the tavern, got %+v", act)
	}
}
