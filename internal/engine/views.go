package engine

import (
	"sort"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/world"
)

// ActorView is a copy of an actor's public state, safe to hold after the
// lock is released.
type ActorView struct {
	ID        agents.ActorID   `json:"id"`
	Name      string           `json:"name"`
	Role      string           `json:"role"`
	Archetype string           `json:"archetype,omitempty"`
	Location  world.LocationID `json:"location"`
	Health    float64          `json:"health"`
	Gold      int64            `json:"gold"`
	Level     int              `json:"level"`
	GangID    *uint64          `json:"gang_id,omitempty"`
	Alive     bool             `json:"alive"`
	Mood      string           `json:"mood,omitempty"`
	Goal      string           `json:"goal,omitempty"`
}

// GoalView is one active goal.
type GoalView struct {
	Type     string         `json:"type"`
	Target   agents.ActorID `json:"target,omitempty"`
	Priority float64        `json:"priority"`
}

// MemoryView is one remembered event.
type MemoryView struct {
	Kind  string         `json:"kind"`
	Other agents.ActorID `json:"other,omitempty"`
	Tick  uint64         `json:"tick"`
}

// RelationshipView is how the actor regards someone.
type RelationshipView struct {
	Other      agents.ActorID `json:"other"`
	Name       string         `json:"name"`
	Friendship float64        `json:"friendship"`
	Trust      float64        `json:"trust"`
	Hostility  float64        `json:"hostility"`
	Status     string         `json:"status"`
}

// ActorDetail is an ActorView plus the actor's inner life.
type ActorDetail struct {
	ActorView
	Personality   agents.Personality `json:"personality"`
	Emotions      map[string]float64 `json:"emotions"`
	Goals         []GoalView         `json:"goals"`
	Relationships []RelationshipView `json:"relationships"`
	Memories      []MemoryView       `json:"recent_memories"`
	Kills         int                `json:"kills"`
}

// recentMemories caps the memories included in a detail view.
const recentMemories = 20

// ActorViews returns every tracked actor, in ID order.
func (s *Simulation) ActorViews(aliveOnly bool) []ActorView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ActorView, 0, len(s.actors))
	for _, a := range s.actors {
		if aliveOnly && !a.Alive {
			continue
		}
		out = append(out, viewOf(a))
	}
	return out
}

// ActorDetail describes one actor in depth.
func (s *Simulation) ActorDetail(id agents.ActorID) (ActorDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.index[id]
	if !ok {
		return ActorDetail{}, false
	}

	d := ActorDetail{
		ActorView:   viewOf(a),
		Personality: a.Personality,
		Emotions:    make(map[string]float64),
		Kills:       s.relations.kills[id],
	}
	for kind, e := range a.Emotions.Snapshot() {
		d.Emotions[kind.String()] = e.Current()
	}
	for g := range a.Goals.GetActiveGoals() {
		d.Goals = append(d.Goals, GoalView{Type: g.Type.String(), Target: g.Target, Priority: g.Priority})
	}
	for _, r := range a.Memory.Relationships() {
		d.Relationships = append(d.Relationships, RelationshipView{
			Other: r.Other, Name: s.nameOf(r.Other),
			Friendship: r.Friendship, Trust: r.Trust, Hostility: r.Hostility,
			Status: r.Status.String(),
		})
	}
	sort.Slice(d.Relationships, func(i, j int) bool {
		return d.Relationships[i].Other < d.Relationships[j].Other
	})

	var mems []MemoryView
	for ev := range a.Memory.All() {
		mems = append(mems, MemoryView{Kind: ev.Kind.String(), Other: ev.Other, Tick: ev.Tick})
	}
	if len(mems) > recentMemories {
		mems = mems[len(mems)-recentMemories:]
	}
	d.Memories = mems
	return d, true
}

func viewOf(a *agents.Actor) ActorView {
	v := ActorView{
		ID: a.ID, Name: a.Name, Role: a.Role.String(), Archetype: a.Archetype,
		Location: a.Location, Health: a.Health, Gold: a.Gold, Level: a.Level,
		Alive: a.Alive,
	}
	if a.GangID != nil {
		id := *a.GangID
		v.GangID = &id
	}
	if kind, _, ok := a.Emotions.Dominant(); ok {
		v.Mood = kind.String()
	}
	if g, ok := a.Goals.GetPriorityGoal(); ok {
		v.Goal = g.Type.String()
	}
	return v
}
