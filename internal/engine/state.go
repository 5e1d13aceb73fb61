package engine

import (
	"fmt"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/entropy"
	"github.com/talgya/cutthroat/internal/social"
	"github.com/talgya/cutthroat/internal/world"
)

// SavedActor is an actor in persisted form. Data holds agents.Serialize
// output; the other fields are copies for querying without decoding.
type SavedActor struct {
	ID       agents.ActorID
	Name     string
	Alive    bool
	Location world.LocationID
	Data     []byte
}

// State is everything needed to resume a simulation.
type State struct {
	Seed    int64
	Tick    uint64
	Actors  []SavedActor
	Gangs   []social.Gang
	Control map[world.LocationID]social.GangID
	Events  []WorldEvent
	Kills   map[agents.ActorID]int

	EventSeq uint64
}

// Export captures the simulation between ticks.
func (s *Simulation) Export() (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Seed:    s.seed,
		Tick:    s.tick,
		Control: s.gangs.Control(),
		Events:  s.events.recent(0),
		Kills:   s.relations.snapshotKills(),

		EventSeq: s.eventSeq,
	}
	for _, a := range s.actors {
		data, err := agents.Serialize(a)
		if err != nil {
			return State{}, fmt.Errorf("export: %w", err)
		}
		st.Actors = append(st.Actors, SavedActor{
			ID: a.ID, Name: a.Name, Alive: a.Alive, Location: a.Location, Data: data,
		})
	}
	for _, g := range s.gangs.All() {
		c := *g
		c.Members = append([]agents.ActorID(nil), g.Members...)
		st.Gangs = append(st.Gangs, c)
	}
	return st, nil
}

// Restore replaces all state with st. On error the simulation is left as
// it was.
func (s *Simulation) Restore(st State) error {
	population := make([]*agents.Actor, 0, len(st.Actors))
	seen := make(map[agents.ActorID]bool, len(st.Actors))
	for _, sa := range st.Actors {
		a, err := agents.Deserialize(sa.Data)
		if err != nil {
			return fmt.Errorf("restore %s: %w", sa.ID, err)
		}
		if seen[a.ID] {
			return fmt.Errorf("restore %s: %w", a.ID, ErrDuplicateID)
		}
		seen[a.ID] = true
		population = append(population, a)
	}
	gangs := make([]*social.Gang, 0, len(st.Gangs))
	for i := range st.Gangs {
		g := st.Gangs[i]
		gangs = append(gangs, &g)
	}
	registry := social.NewRegistry()
	if err := registry.Restore(gangs, st.Control); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	for _, a := range population {
		s.addActorLocked(a)
	}
	s.rebuildOccupancy()
	s.gangs = registry
	s.relations.restoreKills(st.Kills)
	for _, ev := range st.Events {
		s.events.push(ev)
	}
	s.tick = st.Tick
	s.eventSeq = max(st.EventSeq, uint64(len(st.Events)))
	// A fresh spawner stream so arrivals after a restore get new identities.
	s.spawner = agents.NewSpawner(entropy.New(s.seed+int64(st.Tick)), s.opts.Memory)
	s.updateStats()
	return nil
}
