package world

import (
	"fmt"
	"sort"
)

// LocationID is the opaque identifier of a place in the town.
type LocationID string

// LocationKind is the coarse category of a location.
type LocationKind uint8

const (
	KindTavern LocationKind = iota
	KindMarket
	KindSmithy
	KindDocks
	KindSlums
	KindBarracks
	KindTemple
	KindSquare
	KindForest
	KindMine
)

var kindNames = [...]string{
	KindTavern:   "tavern",
	KindMarket:   "market",
	KindSmithy:   "smithy",
	KindDocks:    "docks",
	KindSlums:    "slums",
	KindBarracks: "barracks",
	KindTemple:   "temple",
	KindSquare:   "square",
	KindForest:   "forest",
	KindMine:     "mine",
}

func (k LocationKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Affordance is a bitmask of what actors can do at a location.
type Affordance uint16

const (
	AffordWork Affordance = 1 << iota
	AffordTrade
	AffordDrink
	AffordRest
	AffordPatrol
)

// Has reports whether every bit of want is present.
func (a Affordance) Has(want Affordance) bool {
	return want != 0 && a&want == want
}

// Location is a place actors can occupy.
type Location struct {
	ID             LocationID   `json:"id"`
	Name           string       `json:"name"`
	Kind           LocationKind `json:"kind"`
	Position       HexCoord     `json:"position"`
	Danger         float64      `json:"danger"`          // 0.0–1.0
	SocialCapacity int          `json:"social_capacity"` // Comfortable head count
	Affordances    Affordance   `json:"affordances"`
	Treasure       bool         `json:"treasure"` // Rumoured loot worth fighting over
}

// Catalog is an immutable set of locations.
type Catalog struct {
	locations []Location
	index     map[LocationID]int
}

// NewCatalog builds a catalog. Locations are kept sorted by ID so every
// iteration order is stable. Duplicate IDs are rejected.
func NewCatalog(locs []Location) (*Catalog, error) {
	sorted := make([]Location, len(locs))
	copy(sorted, locs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	index := make(map[LocationID]int, len(sorted))
	for i, l := range sorted {
		if l.ID == "" {
			return nil, fmt.Errorf("location %d has empty id", i)
		}
		if _, dup := index[l.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %q", l.ID)
		}
		index[l.ID] = i
	}
	return &Catalog{locations: sorted, index: index}, nil
}

// Get returns the location with the given ID.
func (c *Catalog) Get(id LocationID) (Location, bool) {
	if c == nil {
		return Location{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Location{}, false
	}
	return c.locations[i], true
}

// All returns a copy of every location in ID order.
func (c *Catalog) All() []Location {
	if c == nil {
		return nil
	}
	out := make([]Location, len(c.locations))
	copy(out, c.locations)
	return out
}

// Len returns the number of locations.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.locations)
}

// Nearest returns the closest location to from that offers want.
// Ties break on lower danger, then ID.
func (c *Catalog) Nearest(from LocationID, want Affordance) (Location, bool) {
	origin, ok := c.Get(from)
	if !ok {
		return Location{}, false
	}
	var best Location
	found := false
	bestDist := 0
	for _, l := range c.locations {
		if !l.Affordances.Has(want) {
			continue
		}
		d := Distance(origin.Position, l.Position)
		if !found || d < bestDist || (d == bestDist && l.Danger < best.Danger) {
			best, bestDist, found = l, d, true
		}
	}
	return best, found
}

// String returns a summary of the catalog.
func (c *Catalog) String() string {
	return fmt.Sprintf("Catalog(locations=%d)", c.Len())
}
