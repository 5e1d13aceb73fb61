package engine

import (
	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/world"
)

// DangerFlagAbove is the danger level actors see flagged.
const DangerFlagAbove = 0.6

// buildSnapshot assembles what a can perceive this tick. It only reads
// state, so every snapshot reflects the world before anyone acts.
func (s *Simulation) buildSnapshot(a *agents.Actor, tick uint64) agents.WorldSnapshot {
	snap := agents.WorldSnapshot{
		Tick:     tick,
		Hour:     int(tick % HoursPerDay),
		Location: a.Location,
		Self: agents.SelfView{
			ID:     a.ID,
			Health: a.Health,
			Gold:   a.Gold,
			Level:  a.Level,
			GangID: a.GangID,
		},
		Living: s.isAlive,
	}

	if loc, ok := s.catalog.Get(a.Location); ok {
		snap.Danger = loc.Danger
		snap.SocialCapacity = loc.SocialCapacity
		snap.Affordances = loc.Affordances
		snap.DangerFlag = loc.Danger > DangerFlagAbove
		snap.TreasureFlag = loc.Treasure
	}

	for _, id := range s.occupancy[a.Location] {
		if id == a.ID {
			continue
		}
		o := s.index[id]
		snap.Nearby = append(snap.Nearby, agents.NearbyActor{
			ID: o.ID, Health: o.Health, Level: o.Level, GangID: o.GangID,
		})
	}

	for _, l := range s.catalog.All() {
		crowd := len(s.occupancy[l.ID])
		if l.ID == a.Location {
			crowd--
		}
		snap.Locations = append(snap.Locations, agents.LocationView{
			ID: l.ID, Position: l.Position, Danger: l.Danger, Affordances: l.Affordances, Crowd: crowd,
		})
	}

	snap.Whereabouts = make(map[agents.ActorID]world.LocationID)
	for _, id := range a.Goals.Targets() {
		if o, ok := s.index[id]; ok && o.Alive {
			snap.Whereabouts[id] = o.Location
		}
	}

	snap.GangLeaders = make(map[agents.ActorID]uint64)
	for _, g := range s.gangs.All() {
		if g.LeaderID == a.ID {
			snap.Self.IsLeader = true
		}
		if a.GangID != nil && *a.GangID == g.ID {
			snap.Self.Leader = g.LeaderID
		}
		if !s.isAlive(g.LeaderID) {
			continue
		}
		if leader := s.index[g.LeaderID]; leader != nil {
			snap.Whereabouts[g.LeaderID] = leader.Location
		}
		if g.HasSlot() {
			snap.GangLeaders[g.LeaderID] = g.ID
		}
	}
	return snap
}
