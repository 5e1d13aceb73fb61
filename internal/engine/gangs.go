// Gang dynamics and the fight for territory. Everything here runs after the
// apply phase, in actor ID order, so the first valid claim wins.
package engine

import (
	"fmt"
	"sort"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/entropy"
	"github.com/talgya/cutthroat/internal/social"
	"github.com/talgya/cutthroat/internal/world"
)

const (
	// JoinStreak is how many consecutive ticks a recruit must share a
	// location with a leader before joining.
	JoinStreak = 2

	// ControlPresence is the number of members a gang needs on site to
	// take a location.
	ControlPresence = 3
)

// streakKey pairs a recruit with a leader.
type streakKey struct {
	recruit, leader agents.ActorID
}

// evaluateGangs runs every gang rule for the tick.
func (s *Simulation) evaluateGangs(tick uint64) {
	s.updateStreaks()
	s.processDesertions(tick)
	s.processDissolutions(tick)
	s.processFoundings(tick)
	s.processRecruitment(tick)
}

// updateStreaks counts how long each gangless actor has shared a location
// with each living leader.
func (s *Simulation) updateStreaks() {
	next := make(map[streakKey]int)
	for _, g := range s.gangs.All() {
		leader, ok := s.index[g.LeaderID]
		if !ok || !leader.Alive {
			continue
		}
		for _, id := range s.occupancy[leader.Location] {
			a := s.index[id]
			if id == leader.ID || a.InGang() {
				continue
			}
			k := streakKey{recruit: id, leader: leader.ID}
			next[k] = s.streaks[k] + 1
		}
	}
	s.streaks = next
}

// processDesertions drops members who have turned on their leader.
func (s *Simulation) processDesertions(tick uint64) {
	for _, g := range s.gangs.All() {
		for _, id := range append([]agents.ActorID(nil), g.Members...) {
			m := s.index[id]
			if m == nil || !m.Alive {
				g.RemoveMember(id, tick)
				continue
			}
			if m.Memory.GetRelationship(g.LeaderID).Status != agents.StatusEnemy {
				continue
			}
			g.RemoveMember(id, tick)
			m.GangID = nil
			s.emit(tick, EventGangLeft, m.Location,
				fmt.Sprintf("%s turned on %s and left %s", m.Name, s.nameOf(g.LeaderID), g.Name), id, g.LeaderID)
		}
	}
}

// processDissolutions disbands gangs whose leader died or that have sat
// empty for too long.
func (s *Simulation) processDissolutions(tick uint64) {
	for _, g := range s.gangs.All() {
		reason := ""
		switch {
		case !s.isAlive(g.LeaderID):
			reason = "its leader is dead"
		case g.Stale(tick):
			reason = "nobody followed"
		default:
			continue
		}
		for _, id := range g.Roster() {
			if a, ok := s.index[id]; ok && a.GangID != nil && *a.GangID == g.ID {
				a.GangID = nil
			}
		}
		s.gangs.Dissolve(g.ID)
		loc := world.LocationID("")
		if leader, ok := s.index[g.LeaderID]; ok {
			loc = leader.Location
		}
		s.emit(tick, EventGangDissolved, loc, fmt.Sprintf("%s broke up: %s", g.Name, reason), g.Roster()...)
	}
}

// processFoundings lets ambitious, well-liked actors start a gang.
func (s *Simulation) processFoundings(tick uint64) {
	for _, a := range s.actors {
		if !a.Alive || a.InGang() {
			continue
		}
		p := a.Personality
		if p.Ambition < agents.LeaderAmbition || p.Sociability < agents.LeaderSociability {
			continue
		}
		if len(s.relations.living(a.Memory.GetAllies())) < agents.FoundingAllies {
			continue
		}
		rng := s.entropy.Stream(entropy.SaltWorld, "gang-name/"+string(a.ID), tick)
		g := s.gangs.Found(a.ID, social.GenerateName(rng), tick)
		id := g.ID
		a.GangID = &id
		s.emit(tick, EventGangFormed, a.Location, fmt.Sprintf("%s founded %s", a.Name, g.Name), a.ID)
	}
}

// processRecruitment lets loyal actors join the leader they like best.
func (s *Simulation) processRecruitment(tick uint64) {
	for _, a := range s.actors {
		if !a.Alive || a.InGang() || a.Personality.Loyalty < agents.JoinLoyalty {
			continue
		}

		var best *social.Gang
		bestF := 0.0
		for _, g := range s.gangs.All() {
			if !g.HasSlot() || !s.isAlive(g.LeaderID) || s.streaks[streakKey{a.ID, g.LeaderID}] < JoinStreak {
				continue
			}
			r := a.Memory.GetRelationship(g.LeaderID)
			if r.Status == agents.StatusEnemy || r.Friendship < agents.JoinFriendship {
				continue
			}
			if best == nil || r.Friendship > bestF {
				best, bestF = g, r.Friendship
			}
		}
		if best == nil || !best.AddMember(a.ID) {
			continue
		}

		id := best.ID
		a.GangID = &id
		leader := s.index[best.LeaderID]
		d := agents.SocialDetail{Location: a.Location}
		_ = a.Memory.RecordEvent(agents.NewEvent(agents.EventJoinedGang, leader.ID, tick, d))
		_ = leader.Memory.RecordEvent(agents.NewEvent(agents.EventJoinedGang, a.ID, tick, d))
		s.emit(tick, EventGangJoined, a.Location, fmt.Sprintf("%s joined %s under %s", a.Name, best.Name, leader.Name), a.ID, leader.ID)
	}
}

// updateControl hands each location to the gang with a clear majority of
// at least ControlPresence members on site. Without one, control stands.
func (s *Simulation) updateControl(tick uint64) {
	locs := make([]world.LocationID, 0, len(s.occupancy))
	for loc := range s.occupancy {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })

	for _, loc := range locs {
		counts := make(map[social.GangID]int)
		for _, id := range s.occupancy[loc] {
			if a := s.index[id]; a.GangID != nil {
				counts[*a.GangID]++
			}
		}
		ranked := make([]social.GangID, 0, len(counts))
		for id := range counts {
			ranked = append(ranked, id)
		}
		sort.Slice(ranked, func(i, j int) bool {
			if counts[ranked[i]] != counts[ranked[j]] {
				return counts[ranked[i]] > counts[ranked[j]]
			}
			return ranked[i] < ranked[j]
		})
		if len(ranked) == 0 || counts[ranked[0]] < ControlPresence {
			continue
		}
		top := ranked[0]
		if len(ranked) > 1 && counts[ranked[1]] == counts[top] {
			continue
		}
		if !s.gangs.SetController(loc, top) {
			continue
		}
		g, _ := s.gangs.Get(top)
		place := string(loc)
		if l, ok := s.catalog.Get(loc); ok {
			place = l.Name
		}
		s.emit(tick, EventControl, loc, fmt.Sprintf("%s took control of %s", g.Name, place), g.LeaderID)
	}
}

func (s *Simulation) nameOf(id agents.ActorID) string {
	if a, ok := s.index[id]; ok {
		return a.Name
	}
	return string(id)
}
