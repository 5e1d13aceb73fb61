package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/world"
)

const tavern = world.LocationID("rusty-anchor")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSim(t *testing.T, seed int64, sink EventSink) *Simulation {
	t.Helper()
	cfg := world.DefaultGenConfig()
	cfg.Seed = seed
	return New(Options{Seed: seed, Catalog: world.Generate(cfg), Sink: sink, Logger: quietLogger(), Workers: 4})
}

func spawnedSim(t *testing.T, seed int64, n int) *Simulation {
	t.Helper()
	s := newTestSim(t, seed, nil)
	if err := s.Initialize(s.Spawner().SpawnPopulation(n, s.Catalog(), 0)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func TestGangFormsFromFriendships(t *testing.T) {
	for _, seed := range []int64{1, 11, 42} {
		s := newTestSim(t, seed, nil)

		leader := agents.NewActor("leader", "Boss",
			agents.Personality{Ambition: 0.9, Sociability: 0.8, Loyalty: 0.7}, tavern)
		pop := []*agents.Actor{leader}
		for _, id := range []agents.ActorID{"f1", "f2", "f3"} {
			f := agents.NewActor(id, string(id), agents.Personality{Loyalty: 0.8}, tavern)
			if err := f.Memory.RecordEvent(agents.NewEvent(agents.EventWasHelped, leader.ID, 0, nil)); err != nil {
				t.Fatalf("seed memory: %v", err)
			}
			pop = append(pop, f)
		}
		if err := s.Initialize(pop); err != nil {
			t.Fatalf("initialize: %v", err)
		}

		if err := s.SimulateHours(context.Background(), 7*24); err != nil {
			t.Fatalf("seed %d: simulate: %v", seed, err)
		}

		members := 0
		for _, g := range s.Gangs() {
			if g.LeaderID == leader.ID {
				members = len(g.Members)
			}
		}
		if members < 1 {
			t.Fatalf("seed %d: leader has no gang members; gangs=%+v events=%v",
				seed, s.Gangs(), s.GetRecentEvents(20))
		}
	}
}

func TestSimulationIsDeterministic(t *testing.T) {
	run := func() []WorldEvent {
		s := spawnedSim(t, 2024, 30)
		if err := s.SimulateHours(context.Background(), 240); err != nil {
			t.Fatalf("simulate: %v", err)
		}
		return s.GetRecentEvents(0)
	}
	first, second := run(), run()
	if len(first) == 0 {
		t.Fatalf("expected some events in ten days")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("event streams differ: %d vs %d events", len(first), len(second))
	}
}

func TestMemoryStaysBounded(t *testing.T) {
	s := spawnedSim(t, 5, 20)
	if err := s.SimulateHours(context.Background(), 1100); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	limit := agents.DefaultMemoryConfig().MaxEvents
	for _, a := range s.Actors() {
		if a.Memory.Len() > limit {
			t.Fatalf("%s holds %d events, cap %d", a.ID, a.Memory.Len(), limit)
		}
	}
	if s.Tick() != 1100 {
		t.Fatalf("expected tick 1100, got %d", s.Tick())
	}
}

func TestCancelledContextChangesNothing(t *testing.T) {
	s := spawnedSim(t, 1, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SimulateHour(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.Tick() != 0 {
		t.Fatalf("tick advanced on cancelled context")
	}
}

func TestSinkPanicIsContained(t *testing.T) {
	calls := 0
	sink := SinkFunc(func(WorldEvent) {
		calls++
		panic("boom")
	})
	s := newTestSim(t, 3, sink)
	a := agents.NewActor("a", "A", agents.Personality{}, tavern)
	b := agents.NewActor("b", "B", agents.Personality{}, tavern)
	if err := s.Initialize([]*agents.Actor{a, b}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := s.Relations().UpdateKillStats("a", "b", 0); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if calls != 1 {
		t.Fatalf("sink should have been called once, got %d", calls)
	}
	if evs := s.GetRecentEvents(1); len(evs) != 1 || evs[0].Kind != EventDeath {
		t.Fatalf("death not recorded: %+v", evs)
	}
}

func TestKillNotifiesFriends(t *testing.T) {
	s := newTestSim(t, 3, nil)
	killer := agents.NewActor("killer", "K", agents.Personality{}, tavern)
	victim := agents.NewActor("victim", "V", agents.Personality{}, tavern)
	friend := agents.NewActor("friend", "F", agents.Personality{}, "docks")
	_ = friend.Memory.RecordEvent(agents.NewEvent(agents.EventWasHelped, "victim", 0, agents.FavorDetail{Gold: 100}))
	if err := s.Initialize([]*agents.Actor{killer, victim, friend}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := s.Relations().UpdateKillStats("killer", "victim", 1); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if victim.Alive {
		t.Fatalf("victim still alive")
	}
	if !friend.Memory.HasEventSince(agents.EventFriendKilled, "killer", 0) {
		t.Fatalf("friend did not learn of the killing")
	}
	if s.Relations().KillCount("killer") != 1 {
		t.Fatalf("kill not counted")
	}
	if enemies := s.Relations().Enemies("friend"); len(enemies) != 1 || enemies[0] != "killer" {
		t.Fatalf("a friend's killer should be an enemy, got %v", enemies)
	}
	if st := s.Relations().GetRelationshipStatus("nobody", "killer"); st.Status != agents.StatusNeutral {
		t.Fatalf("unknown actor should be neutral, got %s", st.Status)
	}
}

func TestPlayerActions(t *testing.T) {
	s := newTestSim(t, 9, nil)
	npc := agents.NewActor("npc", "N", agents.Personality{}, tavern)
	if err := s.Initialize([]*agents.Actor{npc}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	player := agents.NewActor("player", "P", agents.Personality{}, tavern)
	if err := s.AddPlayer(player); err != nil {
		t.Fatalf("add player: %v", err)
	}

	if err := s.SubmitPlayerAction("npc", agents.Action{Kind: agents.ActionIdle}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for npc, got %v", err)
	}
	if err := s.SubmitPlayerAction("ghost", agents.Action{}); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}
	if err := s.SubmitPlayerAction("player", agents.Action{Kind: agents.ActionMoveTo, Destination: "docks"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.SimulateHour(context.Background()); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if player.Location != "docks" {
		t.Fatalf("player did not move: %s", player.Location)
	}
	if got := len(s.GetAliveNPCs()); got != 1 {
		t.Fatalf("players are not NPCs: got %d", got)
	}
}

func TestInvalidActionIsSkipped(t *testing.T) {
	s := newTestSim(t, 9, nil)
	a := agents.NewActor("a", "A", agents.Personality{}, tavern)
	if err := s.Initialize([]*agents.Actor{a}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := s.apply(a, agents.Action{Kind: agents.ActionMoveTo, Destination: "atlantis"}, 0); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if err := s.apply(a, agents.Action{Kind: agents.ActionFight, Target: "ghost"}, 0); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}
	if a.Location != tavern {
		t.Fatalf("skipped move still moved the actor")
	}
}

func TestExportRestore(t *testing.T) {
	s := spawnedSim(t, 77, 15)
	if err := s.SimulateHours(context.Background(), 48); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	st, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	r := newTestSim(t, 77, nil)
	if err := r.Restore(st); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if r.Tick() != s.Tick() || len(r.Actors()) != len(s.Actors()) {
		t.Fatalf("restored tick/actors differ")
	}
	for _, a := range s.Actors() {
		b, ok := r.Actor(a.ID)
		if !ok {
			t.Fatalf("actor %s missing after restore", a.ID)
		}
		if !reflect.DeepEqual(a.Memory.Relationships(), b.Memory.Relationships()) {
			t.Fatalf("relationships of %s differ after restore", a.ID)
		}
	}
	if !reflect.DeepEqual(s.Gangs(), r.Gangs()) {
		t.Fatalf("gangs differ after restore")
	}
	if err := r.SimulateHour(context.Background()); err != nil {
		t.Fatalf("simulate after restore: %v", err)
	}
}

func TestResetClearsWorld(t *testing.T) {
	s := spawnedSim(t, 4, 10)
	_ = s.SimulateHours(context.Background(), 5)
	s.Reset()
	if s.Tick() != 0 || len(s.Actors()) != 0 || len(s.GetRecentEvents(0)) != 0 {
		t.Fatalf("reset left state behind")
	}
}

func TestActorViewsAreCopies(t *testing.T) {
	s := newTestSim(t, 12, nil)
	a := agents.NewActor("a", "A", agents.Personality{Vengefulness: 0.9}, tavern)
	b := agents.NewActor("b", "B", agents.Personality{}, tavern)
	_ = a.Memory.RecordEvent(agents.NewEvent(agents.EventWasAttacked, "b", 0, agents.CombatDetail{Damage: 30, Rounds: 2}))
	if err := s.Initialize([]*agents.Actor{a, b}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := s.SimulateHour(context.Background()); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	views := s.ActorViews(true)
	if len(views) != 2 || views[0].ID != "a" {
		t.Fatalf("unexpected views: %+v", views)
	}
	d, ok := s.ActorDetail("a")
	if !ok {
		t.Fatalf("detail missing")
	}
	if len(d.Relationships) == 0 || d.Relationships[0].Other != "b" {
		t.Fatalf("relationship with attacker missing: %+v", d.Relationships)
	}
	if len(d.Memories) == 0 {
		t.Fatalf("memories missing")
	}
	if _, ok := s.ActorDetail("ghost"); ok {
		t.Fatalf("unknown actor should not have a detail")
	}
}
