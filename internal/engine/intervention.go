package engine

import (
	"fmt"

	"github.com/talgya/cutthroat/internal/agents"
)

// GrantGold hands an actor gold from outside the simulation. A negative
// amount confiscates, never below zero.
func (s *Simulation) GrantGold(id agents.ActorID, amount int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.index[id]
	if !ok || !a.Alive {
		return "", fmt.Errorf("grant gold to %s: %w", id, ErrUnknownActor)
	}
	a.Gold = max(0, a.Gold+amount)

	desc := fmt.Sprintf("%s came into %d gold", a.Name, amount)
	if amount < 0 {
		desc = fmt.Sprintf("%s lost %d gold to the tax collector", a.Name, -amount)
	}
	s.log.Info("gold intervention", "actor", id, "amount", amount, "gold", a.Gold)
	return desc, nil
}

// SpawnNewcomers brings n new actors into town at once.
func (s *Simulation) SpawnNewcomers(n int) (string, error) {
	if n <= 0 || n > 100 {
		return "", fmt.Errorf("spawn %d newcomers: count must be 1-100", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	arrivals := s.spawnLocked(n, s.tick)
	for _, a := range arrivals {
		s.emit(s.tick, EventArrival, a.Location, fmt.Sprintf("%s arrived in town", a.Name), a.ID)
	}
	s.updateStats()

	desc := fmt.Sprintf("%d newcomers arrived in town", len(arrivals))
	s.log.Info("spawn intervention", "requested", n, "arrived", len(arrivals), "tick", s.tick)
	return desc, nil
}

// AddPlayer starts tracking a player-controlled actor.
func (s *Simulation) AddPlayer(a *agents.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil || a.ID == "" {
		return fmt.Errorf("add player: %w", ErrUnknownActor)
	}
	if _, dup := s.index[a.ID]; dup {
		return fmt.Errorf("add player %s: %w", a.ID, ErrDuplicateID)
	}
	a.Role = agents.RolePlayer
	s.addActorLocked(a)
	if a.Alive {
		s.occupancy[a.Location] = insertSorted(s.occupancy[a.Location], a.ID)
	}
	s.updateStats()
	return nil
}
