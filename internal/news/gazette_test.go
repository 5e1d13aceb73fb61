package news

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/talgya/cutthroat/internal/engine"
)

type stubNarrator struct {
	text string
	err  error
	got  string
}

func (s *stubNarrator) Narrate(_ context.Context, _, prompt string, _ int) (string, error) {
	s.got = prompt
	return s.text, s.err
}

func TestGazetteTalliesAndResets(t *testing.T) {
	g := NewGazette(nil, nil)
	g.Publish(engine.WorldEvent{Kind: engine.EventDeath, Description: "Ned was killed by Mags at the docks"})
	g.Publish(engine.WorldEvent{Kind: engine.EventFight})
	g.Publish(engine.WorldEvent{Kind: engine.EventRevenge, Description: "Mags sought revenge"})
	g.Publish(engine.WorldEvent{Kind: engine.EventGangFormed, Description: "Mags founded The Red Knives"})

	if p := g.Pending(); p.Fights != 2 || len(p.Deaths) != 1 || len(p.Gangs) != 1 {
		t.Fatalf("unexpected tally: %+v", p)
	}

	ed := g.Print(context.Background(), Census{
		SimTime: "Day 2, 00:00", Alive: 1200, Dead: 3, Gangs: 1, TotalGold: 45000,
		Leaderboard: []engine.KillRecord{{Actor: "m", Name: "Mags", Kills: 2}},
	})
	if ed.Narrated {
		t.Fatalf("no narrator should mean a template edition")
	}
	for _, want := range []string{"GAZETTE, 1ST EDITION", "1,200", "Ned was killed", "The Red Knives", "Mags, 2 kills"} {
		if !strings.Contains(ed.Content, want) {
			t.Fatalf("edition missing %q:\n%s", want, ed.Content)
		}
	}
	if !g.Pending().Empty() {
		t.Fatalf("tally not reset after printing")
	}
	if latest, ok := g.Latest(); !ok || latest != ed {
		t.Fatalf("latest edition not kept")
	}
}

func TestGazetteUsesNarrator(t *testing.T) {
	n := &stubNarrator{text: "BLOOD ON THE DOCKS"}
	g := NewGazette(n, nil)
	g.Publish(engine.WorldEvent{Kind: engine.EventRobbery, Description: "Sly robbed Ned of 12 gold"})
	ed := g.Print(context.Background(), Census{SimTime: "Day 3, 00:00"})
	if !ed.Narrated || ed.Content != "BLOOD ON THE DOCKS" {
		t.Fatalf("expected narrated edition, got %+v", ed)
	}
	if !strings.Contains(n.got, "Sly robbed Ned") {
		t.Fatalf("prompt missing crime: %s", n.got)
	}
}

func TestGazetteFallsBackOnNarratorError(t *testing.T) {
	g := NewGazette(&stubNarrator{err: errors.New("down")}, nil)
	ed := g.Print(context.Background(), Census{SimTime: "Day 4, 00:00"})
	if ed.Narrated || !strings.Contains(ed.Content, "A quiet day") {
		t.Fatalf("expected quiet template edition, got %q", ed.Content)
	}
	if ed.Number != 1 {
		t.Fatalf("edition number = %d", ed.Number)
	}
}

func TestOpenAIDisabledWithoutKey(t *testing.T) {
	if o := NewOpenAI("", "", ""); o.Enabled() {
		t.Fatalf("narrator without key should be disabled")
	}
}
