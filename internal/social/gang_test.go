package social

import (
	"testing"

	"github.com/talgya/cutthroat/internal/agents"
)

func TestGangMembership(t *testing.T) {
	g := NewGang(1, "The Iron Rats", "boss", 10)
	if !g.IsMember("boss") || g.Size() != 1 {
		t.Fatalf("leader should be the only member")
	}
	for i := 0; i < MaxMembers; i++ {
		if !g.AddMember(agents.ActorID(string(rune('a' + i)))) {
			t.Fatalf("add %d failed", i)
		}
	}
	if g.AddMember("overflow") {
		t.Fatalf("gang should be full")
	}
	if g.AddMember("boss") {
		t.Fatalf("leader must not be added as follower")
	}
	if !g.RemoveMember("c", 20) || g.IsMember("c") {
		t.Fatalf("remove failed")
	}
}

func TestGangGoesStale(t *testing.T) {
	g := NewGang(1, "x", "boss", 0)
	g.AddMember("a")
	if g.Stale(500) {
		t.Fatalf("gang with followers is never stale")
	}
	g.RemoveMember("a", 100)
	if g.Stale(100 + DissolveAfter - 1) {
		t.Fatalf("stale too early")
	}
	if !g.Stale(100 + DissolveAfter) {
		t.Fatalf("expected stale")
	}
}

func TestRegistryControl(t *testing.T) {
	r := NewRegistry()
	a := r.Found("boss-a", "A", 1)
	b := r.Found("boss-b", "B", 1)
	if a.ID == b.ID {
		t.Fatalf("ids must differ")
	}
	if !r.SetController("docks", a.ID) {
		t.Fatalf("first claim should change control")
	}
	if r.SetController("docks", a.ID) {
		t.Fatalf("same holder is not a change")
	}
	if !r.SetController("docks", b.ID) {
		t.Fatalf("new holder is a change")
	}
	r.Dissolve(b.ID)
	if _, ok := r.Controller("docks"); ok {
		t.Fatalf("dissolved gang still holds territory")
	}
}

func TestRegistryRestore(t *testing.T) {
	r := NewRegistry()
	g := &Gang{ID: 5, Name: "x", LeaderID: "boss", Members: []agents.ActorID{"b", "a"}}
	if err := r.Restore([]*Gang{g}, nil); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if next := r.Found("other", "y", 0); next.ID != 6 {
		t.Fatalf("expected next id 6, got %d", next.ID)
	}
	if !g.IsMember("a") {
		t.Fatalf("members should be searchable after restore")
	}
	if err := r.Restore([]*Gang{g, g}, nil); err == nil {
		t.Fatalf("expected duplicate error")
	}
}
