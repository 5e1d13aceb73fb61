package agents

import (
	"fmt"

	"github.com/talgya/cutthroat/internal/world"
)

// WorldSnapshot is the read-only view an actor decides from. It is rebuilt
// every tick and never persisted. Any field may be left zero: a zero
// snapshot means "nothing notable nearby".
type WorldSnapshot struct {
	Tick     uint64           `json:"tick"`
	Hour     int              `json:"hour"` // 0–23
	Location world.LocationID `json:"location"`

	// Coarse attributes of the current location.
	Danger         float64          `json:"danger"`
	SocialCapacity int              `json:"social_capacity"`
	Affordances    world.Affordance `json:"affordances"`
	DangerFlag     bool             `json:"danger_flag"`
	TreasureFlag   bool             `json:"treasure_flag"`

	Self   SelfView      `json:"self"`
	Nearby []NearbyActor `json:"nearby,omitempty"`

	// Places the actor could travel to, in stable order.
	Locations []LocationView `json:"locations,omitempty"`

	// Last known location of the actors the brain cares about (goal targets).
	Whereabouts map[ActorID]world.LocationID `json:"whereabouts,omitempty"`

	// Leader of every existing gang with a free slot, mapped to its gang.
	GangLeaders map[ActorID]uint64 `json:"gang_leaders,omitempty"`

	// Living reports whether an actor still exists. Nil means "assume so".
	Living func(ActorID) bool `json:"-"`
}

// SelfView carries the acting actor's own attributes.
type SelfView struct {
	ID       ActorID `json:"id"`
	Health   float64 `json:"health"`
	Gold     int64   `json:"gold"`
	Level    int     `json:"level"`
	GangID   *uint64 `json:"gang_id,omitempty"`
	IsLeader bool    `json:"is_leader"`
	Leader   ActorID `json:"leader,omitempty"` // Own gang's leader
}

// NearbyActor is another actor sharing the location.
type NearbyActor struct {
	ID     ActorID `json:"id"`
	Health float64 `json:"health"`
	Level  int     `json:"level"`
	GangID *uint64 `json:"gang_id,omitempty"`
}

// LocationView is a travel option.
type LocationView struct {
	ID          world.LocationID `json:"id"`
	Position    world.HexCoord   `json:"position"`
	Danger      float64          `json:"danger"`
	Affordances world.Affordance `json:"affordances"`
	Crowd       int              `json:"crowd"` // Other actors there at the start of the tick
}

// IsNearby reports whether id shares the location.
func (s WorldSnapshot) IsNearby(id ActorID) bool {
	_, ok := s.nearby(id)
	return ok
}

func (s WorldSnapshot) nearby(id ActorID) (NearbyActor, bool) {
	for _, n := range s.Nearby {
		if n.ID == id {
			return n, true
		}
	}
	return NearbyActor{}, false
}

// alive applies the Living predicate, defaulting to true.
func (s WorldSnapshot) alive(id ActorID) bool {
	if s.Living == nil {
		return true
	}
	return s.Living(id)
}

// nearest returns the closest travel option offering want, not counting
// the current location. Ties break on lower danger, then ID order.
func (s WorldSnapshot) nearest(want world.Affordance) (world.LocationID, bool) {
	var here world.HexCoord
	for _, l := range s.Locations {
		if l.ID == s.Location {
			here = l.Position
			break
		}
	}
	var best LocationView
	found := false
	bestDist := 0
	for _, l := range s.Locations {
		if l.ID == s.Location || !l.Affordances.Has(want) {
			continue
		}
		d := world.Distance(here, l.Position)
		if !found || d < bestDist || (d == bestDist && l.Danger < best.Danger) {
			best, bestDist, found = l, d, true
		}
	}
	return best.ID, found
}

// busiest returns the travel option with the most people, not counting
// the current location. Ties break on distance, then danger.
func (s WorldSnapshot) busiest() (LocationView, bool) {
	var here world.HexCoord
	for _, l := range s.Locations {
		if l.ID == s.Location {
			here = l.Position
			break
		}
	}
	var best LocationView
	found := false
	bestDist := 0
	for _, l := range s.Locations {
		if l.ID == s.Location || l.Crowd == 0 {
			continue
		}
		d := world.Distance(here, l.Position)
		switch {
		case !found, l.Crowd > best.Crowd,
			l.Crowd == best.Crowd && (d < bestDist || (d == bestDist && l.Danger < best.Danger)):
			best, bestDist, found = l, d, true
		}
	}
	return best, found
}

// ActionKind enumerates what an actor can do in one tick.
type ActionKind uint8

const (
	ActionIdle ActionKind = iota
	ActionMoveTo
	ActionSocialize
	ActionFight
	ActionTrade
	ActionRest
	ActionPatrol
	ActionWork
	numActions
)

var actionNames = [numActions]string{
	"idle", "move_to", "socialize", "fight", "trade", "rest", "patrol", "work",
}

// Valid reports whether k is a known action.
func (k ActionKind) Valid() bool {
	return k < numActions
}

func (k ActionKind) String() string {
	if k.Valid() {
		return actionNames[k]
	}
	return fmt.Sprintf("action(%d)", uint8(k))
}

// ParseActionKind maps a name such as "move_to" to its kind.
func ParseActionKind(name string) (ActionKind, bool) {
	for i, n := range actionNames {
		if n == name {
			return ActionKind(i), true
		}
	}
	return ActionIdle, false
}

// Action is what an actor decided to do this tick.
type Action struct {
	ActorID     ActorID          `json:"actor_id"`
	Kind        ActionKind       `json:"kind"`
	Target      ActorID          `json:"target,omitempty"`
	Destination world.LocationID `json:"destination,omitempty"`
	Motive      GoalType         `json:"motive"` // Goal that drove the choice; GoalNone for ambient behaviour
	Detail      string           `json:"detail,omitempty"`
}

// Idle returns the do-nothing action for id.
func Idle(id ActorID) Action {
	return Action{ActorID: id, Kind: ActionIdle}
}
