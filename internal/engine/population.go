// Population upkeep: newcomers drift into town when too few remain.
package engine

import (
	"fmt"

	"github.com/talgya/cutthroat/internal/agents"
)

// immigrate tops the population back up to MinPopulation.
func (s *Simulation) immigrate(tick uint64) {
	if s.opts.MinPopulation <= 0 {
		return
	}
	alive := 0
	for _, a := range s.actors {
		if a.Alive {
			alive++
		}
	}
	if alive >= s.opts.MinPopulation {
		return
	}
	arrivals := s.spawnLocked(s.opts.MinPopulation-alive, tick)
	for _, a := range arrivals {
		s.emit(tick, EventArrival, a.Location, fmt.Sprintf("%s arrived in town", a.Name), a.ID)
	}
	s.log.Info("immigration", "tick", tick, "arrivals", len(arrivals), "alive", alive+len(arrivals))
}

// spawnLocked creates n actors and starts tracking them.
func (s *Simulation) spawnLocked(n int, tick uint64) []*agents.Actor {
	var added []*agents.Actor
	for _, a := range s.spawner.SpawnPopulation(n, s.catalog, tick) {
		if _, dup := s.index[a.ID]; dup {
			continue
		}
		s.addActorLocked(a)
		s.occupancy[a.Location] = insertSorted(s.occupancy[a.Location], a.ID)
		added = append(added, a)
	}
	s.stats.Arrivals += len(added)
	return added
}
