package agents

import (
	"errors"
	"testing"
)

func record(t *testing.T, m *MemoryStore, kind EventKind, other ActorID, tick uint64, d Detail) {
	t.Helper()
	if err := m.RecordEvent(NewEvent(kind, other, tick, d)); err != nil {
		t.Fatalf("record %s: %v", kind, err)
	}
}

func TestRecordEventRejectsInvalid(t *testing.T) {
	m := NewMemoryStore(DefaultMemoryConfig())
	if err := m.RecordEvent(MemoryEvent{Kind: EventInvalid, Other: "b"}); !errors.Is(err, ErrInvalidEventKind) {
		t.Fatalf("expected ErrInvalidEventKind, got %v", err)
	}
	err := m.RecordEvent(NewEvent(EventWasAttacked, "b", 1, FavorDetail{Gold: 5}))
	if !errors.Is(err, ErrDetailMismatch) {
		t.Fatalf("expected ErrDetailMismatch, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("rejected events were stored: %d", m.Len())
	}
}

func TestRecencyWeighting(t *testing.T) {
	m := NewMemoryStore(DefaultMemoryConfig())
	record(t, m, EventWasAttacked, "old", 0, CombatDetail{Damage: 10})
	record(t, m, EventWasAttacked, "new", 500, CombatDetail{Damage: 10})

	old := m.GetRelationship("old")
	fresh := m.GetRelationship("new")
	if old.Hostility >= fresh.Hostility {
		t.Fatalf("old grudge should be weaker: old=%v new=%v", old.Hostility, fresh.Hostility)
	}
	if old.Hostility <= 0 {
		t.Fatalf("old grudge should not vanish entirely, got %v", old.Hostility)
	}
}

func TestRelationshipScoresStayInRange(t *testing.T) {
	m := NewMemoryStore(DefaultMemoryConfig())
	for i := uint64(0); i < 40; i++ {
		record(t, m, EventWasBetrayed, "b", i, BetrayalDetail{Severity: 1})
		record(t, m, EventWasHelped, "c", i, FavorDetail{Gold: 200})
	}
	for _, r := range m.Relationships() {
		for _, v := range []float64{r.Friendship, r.Trust, r.Hostility} {
			if v < 0 || v > ScoreMax {
				t.Fatalf("%s score out of range: %+v", r.Other, r)
			}
		}
	}
	if got := m.GetRelationship("b").Status; got != StatusEnemy {
		t.Fatalf("expected enemy, got %s", got)
	}
	if got := m.GetRelationship("c").Status; got != StatusLover {
		t.Fatalf("expected lover, got %s", got)
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	cases := []struct {
		f, tr, h float64
		want     Status
	}{
		{90, 90, 31, StatusEnemy},
		{90, 80, 5, StatusLover},
		{90, 80, 6, StatusCloseFriend},
		{60, 60, 0, StatusCloseFriend},
		{25, 10, 10, StatusFriend},
		{25, 50, 25, StatusNeutral},
		{0, 50, 0, StatusNeutral},
	}
	for _, c := range cases {
		if got := Classify(c.f, c.tr, c.h); got != c.want {
			t.Fatalf("Classify(%v, %v, %v) = %s, want %s", c.f, c.tr, c.h, got, c.want)
		}
	}
}

func TestGetMemoriesAboutIsRestartable(t *testing.T) {
	m := NewMemoryStore(DefaultMemoryConfig())
	record(t, m, EventSharedDrink, "b", 1, nil)
	record(t, m, EventSawPerson, "c", 2, nil)
	record(t, m, EventTraded, "b", 3, nil)

	seq := m.GetMemoriesAbout("b")
	record(t, m, EventWasHelped, "b", 4, nil)

	for pass := 0; pass < 2; pass++ {
		n := 0
		for e := range seq {
			if e.Other != "b" {
				t.Fatalf("unexpected other %s", e.Other)
			}
			n++
		}
		if n != 2 {
			t.Fatalf("pass %d: expected 2 events, got %d", pass, n)
		}
	}
}

func TestLateEventKeepsTickOrder(t *testing.T) {
	m := NewMemoryStore(DefaultMemoryConfig())
	record(t, m, EventSawPerson, "b", 5, nil)
	record(t, m, EventSawPerson, "b", 2, nil)
	var last uint64
	for e := range m.All() {
		if e.Tick < last {
			t.Fatalf("events out of order")
		}
		last = e.Tick
	}
}

func TestPruneBoundsMemory(t *testing.T) {
	cfg := DefaultMemoryConfig()
	cfg.MaxEvents = 32
	cfg.RetentionHorizon = 48
	m := NewMemoryStore(cfg)
	others := []ActorID{"a", "b", "c", "d", "e"}
	for tick := uint64(0); tick < 500; tick++ {
		record(t, m, EventSawPerson, others[tick%5], tick, nil)
		m.Prune(tick, nil)
		if m.Len() > cfg.MaxEvents {
			t.Fatalf("tick %d: %d events exceed cap", tick, m.Len())
		}
	}
}

func TestPruneKeepsPinnedAndClassifying(t *testing.T) {
	cfg := DefaultMemoryConfig()
	cfg.RetentionHorizon = 10
	m := NewMemoryStore(cfg)
	record(t, m, EventWasAttacked, "enemy", 0, CombatDetail{Damage: 40})
	record(t, m, EventSawPerson, "pinned", 0, nil)
	record(t, m, EventSawPerson, "stranger", 0, nil)

	m.Prune(20, func(id ActorID) bool { return id == "pinned" })

	if !m.RemembersBeingAttackedBy("enemy") {
		t.Fatalf("grudge that defines an enemy was pruned")
	}
	if _, ok := m.LastInteraction("pinned"); !ok {
		t.Fatalf("pinned memory was pruned")
	}
	if _, ok := m.LastInteraction("stranger"); ok {
		t.Fatalf("stale sighting should be pruned")
	}
}

func TestAlliesMatchFriendStatus(t *testing.T) {
	m := NewMemoryStore(DefaultMemoryConfig())
	// Exactly the friend threshold.
	record(t, m, EventSharedDrink, "edge", 5, SocialDetail{Weight: 2.5})
	// Warm but also resentful.
	record(t, m, EventWasHelped, "mixed", 5, FavorDetail{Weight: 2})
	record(t, m, EventLostTo, "mixed", 5, CombatDetail{Damage: 30})
	record(t, m, EventSawPerson, "stranger", 5, nil)

	if r := m.GetRelationship("edge"); r.Friendship != FriendFriendship || r.Status != StatusFriend {
		t.Fatalf("expected edge at the friend threshold, got %+v", r)
	}
	allies := make(map[ActorID]bool)
	for _, id := range m.GetAllies() {
		allies[id] = true
	}
	for _, r := range m.Relationships() {
		if allies[r.Other] != r.Status.AtLeastFriend() {
			t.Fatalf("%s: ally=%v but status %s", r.Other, allies[r.Other], r.Status)
		}
	}
	if !allies["edge"] {
		t.Fatalf("a friend at the threshold should be an ally")
	}
}
