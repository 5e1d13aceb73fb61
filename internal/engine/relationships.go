// Relationship manager: cross-actor relationship queries and the
// consequences of a killing.
package engine

import (
	"fmt"
	"sort"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/world"
)

// RelationshipManager answers relationship questions across actors. It owns
// no relationship state: every answer is derived from the asking actor's
// memory. Kill statistics are the one thing it tracks itself.
type RelationshipManager struct {
	sim   *Simulation
	kills map[agents.ActorID]int
}

func newRelationshipManager(s *Simulation) *RelationshipManager {
	return &RelationshipManager{sim: s, kills: make(map[agents.ActorID]int)}
}

// GetRelationshipStatus returns how a regards b. Unknown actors yield a
// neutral relationship.
func (m *RelationshipManager) GetRelationshipStatus(a, b agents.ActorID) agents.Relationship {
	m.sim.mu.RLock()
	defer m.sim.mu.RUnlock()
	return m.relationship(a, b)
}

func (m *RelationshipManager) relationship(a, b agents.ActorID) agents.Relationship {
	actor, ok := m.sim.index[a]
	if !ok {
		return agents.Relationship{
			Other:  b,
			Trust:  agents.TrustNeutral,
			Status: agents.StatusNeutral,
		}
	}
	return actor.Memory.GetRelationship(b)
}

// Enemies returns the living actors a considers enemies.
func (m *RelationshipManager) Enemies(a agents.ActorID) []agents.ActorID {
	m.sim.mu.RLock()
	defer m.sim.mu.RUnlock()
	actor, ok := m.sim.index[a]
	if !ok {
		return nil
	}
	return m.living(actor.Memory.GetEnemies())
}

// Allies returns the living actors a considers allies.
func (m *RelationshipManager) Allies(a agents.ActorID) []agents.ActorID {
	m.sim.mu.RLock()
	defer m.sim.mu.RUnlock()
	actor, ok := m.sim.index[a]
	if !ok {
		return nil
	}
	return m.living(actor.Memory.GetAllies())
}

func (m *RelationshipManager) living(ids []agents.ActorID) []agents.ActorID {
	var out []agents.ActorID
	for _, id := range ids {
		if m.sim.isAlive(id) {
			out = append(out, id)
		}
	}
	return out
}

// UpdateKillStats records a killing outside the normal tick flow.
func (m *RelationshipManager) UpdateKillStats(killer, victim agents.ActorID, tick uint64) error {
	m.sim.mu.Lock()
	defer m.sim.mu.Unlock()
	if _, ok := m.sim.index[victim]; !ok {
		return fmt.Errorf("kill %s: %w", victim, ErrUnknownActor)
	}
	m.recordKill(killer, victim, tick)
	return nil
}

// recordKill writes the killing into every affected memory, marks the
// victim dead, and publishes the death. Callers hold the write lock.
func (m *RelationshipManager) recordKill(killer, victim agents.ActorID, tick uint64) {
	s := m.sim
	v := s.index[victim]
	loc := v.Location
	detail := agents.KillDetail{Victim: victim, Location: loc}

	// Mourners are those who counted the victim a friend, decided before
	// the victim's own memories change.
	var mourners []*agents.Actor
	for _, a := range s.actors {
		if !a.Alive || a.ID == victim || a.ID == killer {
			continue
		}
		if a.Memory.GetRelationship(victim).Status.AtLeastFriend() {
			mourners = append(mourners, a)
		}
	}

	if k, ok := s.index[killer]; ok && killer != victim {
		_ = k.Memory.RecordEvent(agents.NewEvent(agents.EventKilled, victim, tick, detail))
		m.kills[killer]++
	}
	_ = v.Memory.RecordEvent(agents.NewEvent(agents.EventWasKilled, killer, tick, detail))
	for _, a := range mourners {
		_ = a.Memory.RecordEvent(agents.NewEvent(agents.EventFriendKilled, killer, tick, detail))
	}

	s.markDead(v, tick)
	s.stats.Deaths++

	desc := fmt.Sprintf("%s died", v.Name)
	if k, ok := s.index[killer]; ok && killer != victim {
		desc = fmt.Sprintf("%s was killed by %s at %s", v.Name, k.Name, m.placeName(loc))
	}
	s.emit(tick, EventDeath, loc, desc, victim, killer)
}

func (m *RelationshipManager) placeName(id world.LocationID) string {
	if l, ok := m.sim.catalog.Get(id); ok {
		return l.Name
	}
	return string(id)
}

// KillCount returns how many actors id has killed.
func (m *RelationshipManager) KillCount(id agents.ActorID) int {
	m.sim.mu.RLock()
	defer m.sim.mu.RUnlock()
	return m.kills[id]
}

// KillRecord is one leaderboard entry.
type KillRecord struct {
	Actor agents.ActorID `json:"actor"`
	Name  string         `json:"name"`
	Kills int            `json:"kills"`
}

// Leaderboard returns the top n killers, most kills first.
func (m *RelationshipManager) Leaderboard(n int) []KillRecord {
	m.sim.mu.RLock()
	defer m.sim.mu.RUnlock()
	return m.leaderboard(n)
}

func (m *RelationshipManager) leaderboard(n int) []KillRecord {
	out := make([]KillRecord, 0, len(m.kills))
	for id, k := range m.kills {
		rec := KillRecord{Actor: id, Kills: k}
		if a, ok := m.sim.index[id]; ok {
			rec.Name = a.Name
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kills != out[j].Kills {
			return out[i].Kills > out[j].Kills
		}
		return out[i].Actor < out[j].Actor
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (m *RelationshipManager) topKiller() (string, int, bool) {
	top := m.leaderboard(1)
	if len(top) == 0 {
		return "", 0, false
	}
	return top[0].Name, top[0].Kills, true
}

// restoreKills replaces the kill tallies.
func (m *RelationshipManager) restoreKills(kills map[agents.ActorID]int) {
	m.kills = make(map[agents.ActorID]int, len(kills))
	for id, k := range kills {
		m.kills[id] = k
	}
}

func (m *RelationshipManager) snapshotKills() map[agents.ActorID]int {
	out := make(map[agents.ActorID]int, len(m.kills))
	for id, k := range m.kills {
		out[id] = k
	}
	return out
}
