// Package social provides gangs: emergent groups formed around a leader,
// and the territory they hold.
package social

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/world"
)

// GangID is a unique identifier for a gang.
type GangID = uint64

const (
	// MaxMembers is the number of followers a gang can hold, leader excluded.
	MaxMembers = 8

	// DissolveAfter is how long a gang may sit without followers before it
	// disbands.
	DissolveAfter = 72
)

// Gang is a group of actors following one leader.
type Gang struct {
	ID       GangID           `json:"id"`
	Name     string           `json:"name"`
	LeaderID agents.ActorID   `json:"leader_id"`
	Members  []agents.ActorID `json:"members"` // Followers, sorted; never includes the leader

	FoundedTick uint64 `json:"founded_tick"`
	EmptySince  uint64 `json:"empty_since"` // Tick the gang last lost its final follower
	Kills       int    `json:"kills"`
}

// NewGang creates a gang with only its leader.
func NewGang(id GangID, name string, leader agents.ActorID, tick uint64) *Gang {
	return &Gang{ID: id, Name: name, LeaderID: leader, FoundedTick: tick, EmptySince: tick}
}

// Size counts the leader and followers.
func (g *Gang) Size() int {
	return len(g.Members) + 1
}

// HasSlot reports whether another follower fits.
func (g *Gang) HasSlot() bool {
	return len(g.Members) < MaxMembers
}

// IsMember reports whether id belongs to the gang, leader included.
func (g *Gang) IsMember(id agents.ActorID) bool {
	if id == g.LeaderID {
		return true
	}
	_, found := slices.BinarySearch(g.Members, id)
	return found
}

// AddMember adds a follower. It reports false when the gang is full or the
// actor already belongs.
func (g *Gang) AddMember(id agents.ActorID) bool {
	if !g.HasSlot() || g.IsMember(id) {
		return false
	}
	i, _ := slices.BinarySearch(g.Members, id)
	g.Members = slices.Insert(g.Members, i, id)
	return true
}

// RemoveMember drops a follower. tick marks when the gang went empty.
func (g *Gang) RemoveMember(id agents.ActorID, tick uint64) bool {
	i, found := slices.BinarySearch(g.Members, id)
	if !found {
		return false
	}
	g.Members = slices.Delete(g.Members, i, i+1)
	if len(g.Members) == 0 {
		g.EmptySince = tick
	}
	return true
}

// Roster returns the leader followed by the followers.
func (g *Gang) Roster() []agents.ActorID {
	out := make([]agents.ActorID, 0, g.Size())
	out = append(out, g.LeaderID)
	return append(out, g.Members...)
}

// Stale reports whether the gang has had no followers for DissolveAfter
// ticks.
func (g *Gang) Stale(tick uint64) bool {
	return len(g.Members) == 0 && tick >= g.EmptySince+DissolveAfter
}

// Registry tracks every gang and which gang controls each location.
type Registry struct {
	gangs   map[GangID]*Gang
	control map[world.LocationID]GangID
	nextID  GangID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		gangs:   make(map[GangID]*Gang),
		control: make(map[world.LocationID]GangID),
		nextID:  1,
	}
}

// Found creates a gang led by leader.
func (r *Registry) Found(leader agents.ActorID, name string, tick uint64) *Gang {
	g := NewGang(r.nextID, name, leader, tick)
	r.nextID++
	r.gangs[g.ID] = g
	return g
}

// Get returns a gang by ID.
func (r *Registry) Get(id GangID) (*Gang, bool) {
	g, ok := r.gangs[id]
	return g, ok
}

// All returns every gang ordered by ID.
func (r *Registry) All() []*Gang {
	out := make([]*Gang, 0, len(r.gangs))
	for _, g := range r.gangs {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of gangs.
func (r *Registry) Len() int {
	return len(r.gangs)
}

// Dissolve removes a gang and releases its territory.
func (r *Registry) Dissolve(id GangID) (*Gang, bool) {
	g, ok := r.gangs[id]
	if !ok {
		return nil, false
	}
	delete(r.gangs, id)
	for loc, holder := range r.control {
		if holder == id {
			delete(r.control, loc)
		}
	}
	return g, true
}

// Controller returns the gang holding loc.
func (r *Registry) Controller(loc world.LocationID) (GangID, bool) {
	id, ok := r.control[loc]
	return id, ok
}

// SetController records loc as held by id, or unheld when id is zero. It
// reports whether control changed.
func (r *Registry) SetController(loc world.LocationID, id GangID) bool {
	prev, had := r.control[loc]
	if id == 0 {
		delete(r.control, loc)
		return had
	}
	r.control[loc] = id
	return !had || prev != id
}

// Territory returns the locations held by id, sorted.
func (r *Registry) Territory(id GangID) []world.LocationID {
	var out []world.LocationID
	for loc, holder := range r.control {
		if holder == id {
			out = append(out, loc)
		}
	}
	slices.Sort(out)
	return out
}

// Restore replaces the registry contents with previously saved gangs.
func (r *Registry) Restore(gangs []*Gang, control map[world.LocationID]GangID) error {
	fresh := NewRegistry()
	for _, g := range gangs {
		if g == nil || g.ID == 0 {
			return fmt.Errorf("restore gangs: invalid gang")
		}
		if _, dup := fresh.gangs[g.ID]; dup {
			return fmt.Errorf("restore gangs: duplicate id %d", g.ID)
		}
		slices.Sort(g.Members)
		fresh.gangs[g.ID] = g
		if g.ID >= fresh.nextID {
			fresh.nextID = g.ID + 1
		}
	}
	for loc, id := range control {
		if _, ok := fresh.gangs[id]; ok {
			fresh.control[loc] = id
		}
	}
	*r = *fresh
	return nil
}

// Control returns a copy of the location → gang map.
func (r *Registry) Control() map[world.LocationID]GangID {
	out := make(map[world.LocationID]GangID, len(r.control))
	for k, v := range r.control {
		out[k] = v
	}
	return out
}

var (
	gangAdjectives = []string{
		"Crimson", "Black", "Iron", "Rusty", "Silent", "Drowned", "Copper",
		"Broken", "Grey", "Hollow", "Bloody", "Gilded",
	}
	gangNouns = []string{
		"Knives", "Hounds", "Crows", "Hands", "Lanterns", "Rats", "Fangs",
		"Brotherhood", "Boys", "Saints", "Anchors", "Hammers",
	}
)

// GenerateName picks a gang name.
func GenerateName(rng *rand.Rand) string {
	return "The " + gangAdjectives[rng.IntN(len(gangAdjectives))] + " " + gangNouns[rng.IntN(len(gangNouns))]
}
