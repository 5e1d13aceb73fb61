package agents

import (
	"reflect"
	"slices"
	"testing"
)

func TestSerializeRoundTrip(t *testing.T) {
	a := grudgeHolder()
	a.Gold = 75
	gang := uint64(3)
	a.GangID = &gang
	record(t, a.Memory, EventWasAttacked, "b", 1, CombatDetail{Damage: 20, Rounds: 2})
	record(t, a.Memory, EventWasHelped, "c", 4, FavorDetail{Gold: 30})
	record(t, a.Memory, EventSharedDrink, "c", 6, SocialDetail{Location: "rusty-anchor"})
	record(t, a.Memory, EventFriendKilled, "d", 8, KillDetail{Victim: "c", Location: "docks"})
	a.Memory.Advance(30)
	_ = a.Emotions.AddEmotion(EmotionAnger, 0.7, 12)
	a.Goals.UpdateGoals(ctxFor(a, WorldSnapshot{Tick: 30}))

	data, err := Serialize(a)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	b, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if b.ID != a.ID || b.Gold != a.Gold || b.GangID == nil || *b.GangID != gang {
		t.Fatalf("identity fields lost: %+v", b)
	}
	if !reflect.DeepEqual(a.Memory.Relationships(), b.Memory.Relationships()) {
		t.Fatalf("relationships differ:\n%+v\n%+v", a.Memory.Relationships(), b.Memory.Relationships())
	}
	if !reflect.DeepEqual(slices.Collect(a.Goals.GetActiveGoals()), slices.Collect(b.Goals.GetActiveGoals())) {
		t.Fatalf("goals differ")
	}
	if !reflect.DeepEqual(a.Emotions.Snapshot(), b.Emotions.Snapshot()) {
		t.Fatalf("emotions differ")
	}
	if b.Memory.NextSeq() != a.Memory.NextSeq() {
		t.Fatalf("sequence counter lost: %d vs %d", b.Memory.NextSeq(), a.Memory.NextSeq())
	}
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	if _, err := Deserialize([]byte(`{"v":99,"actor":{}}`)); err == nil {
		t.Fatalf("expected version error")
	}
	if _, err := Deserialize([]byte(`not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
	bad := []byte(`{"v":1,"actor":{"id":"x","memory":{"events":[{"kind":0}]}}}`)
	if _, err := Deserialize(bad); err == nil {
		t.Fatalf("expected invalid event kind error")
	}
}
