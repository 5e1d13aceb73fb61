// Town generation using layered simplex noise.
// District danger and treasure rumours are sampled from noise fields so a
// seed always yields the same town.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds town generation parameters.
type GenConfig struct {
	Seed          int64   // Random seed (0 = random)
	Spacing       int     // Hex distance between neighbouring districts
	DangerJitter  float64 // Max noise shift applied to a district's base danger
	TreasureLevel float64 // Noise threshold above which a district has treasure
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:          0,
		Spacing:       3,
		DangerJitter:  0.2,
		TreasureLevel: 0.7,
	}
}

// district is one entry of the town plan.
type district struct {
	id          LocationID
	name        string
	kind        LocationKind
	danger      float64
	capacity    int
	affordances Affordance
}

// townPlan lists every district, center outward.
var townPlan = []district{
	{"town-square", "Town Square", KindSquare, 0.15, 25, AffordPatrol | AffordTrade},
	{"rusty-anchor", "The Rusty Anchor", KindTavern, 0.25, 12, AffordDrink | AffordRest},
	{"market", "Lantern Market", KindMarket, 0.15, 20, AffordTrade | AffordWork},
	{"smithy-row", "Smithy Row", KindSmithy, 0.10, 6, AffordWork | AffordTrade},
	{"barracks", "Watch Barracks", KindBarracks, 0.05, 10, AffordPatrol | AffordRest},
	{"old-chapel", "Old Chapel", KindTemple, 0.05, 8, AffordRest},
	{"docks", "Saltwater Docks", KindDocks, 0.40, 10, AffordWork},
	{"the-warrens", "The Warrens", KindSlums, 0.60, 15, AffordRest | AffordDrink},
	{"copper-mine", "Copper Mine", KindMine, 0.50, 8, AffordWork},
	{"blackwood", "Blackwood", KindForest, 0.70, 6, AffordWork},
}

// Generate creates the town catalog.
func Generate(cfg GenConfig) *Catalog {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	spacing := cfg.Spacing
	if spacing < 1 {
		spacing = 1
	}

	dangerNoise := opensimplex.NewNormalized(seed)
	lootNoise := opensimplex.NewNormalized(seed + 1)

	locs := make([]Location, 0, len(townPlan))
	for i, d := range townPlan {
		pos := districtPosition(i, spacing)

		// Hex axial → cartesian for noise sampling.
		x := float64(pos.Q) + float64(pos.R)*0.5
		y := float64(pos.R) * math.Sqrt(3.0) / 2.0

		shift := (octaveNoise(dangerNoise, x, y, 3, 0.15, 0.5) - 0.5) * 2 * cfg.DangerJitter
		loot := octaveNoise(lootNoise, x, y, 2, 0.2, 0.5)

		locs = append(locs, Location{
			ID:             d.id,
			Name:           d.name,
			Kind:           d.kind,
			Position:       pos,
			Danger:         clamp01(d.danger + shift),
			SocialCapacity: d.capacity,
			Affordances:    d.affordances,
			Treasure:       loot > cfg.TreasureLevel || (d.kind == KindMine && loot > cfg.TreasureLevel-0.1),
		})
	}

	// Plan IDs are unique, so this cannot fail.
	c, _ := NewCatalog(locs)
	return c
}

// districtPosition spirals districts outward from the square: the first sits
// at the origin, the next six on the first ring, the rest on the second.
func districtPosition(i, spacing int) HexCoord {
	if i == 0 {
		return HexCoord{}
	}
	ring := 1 + (i-1)/6
	dir := HexNeighborDirections[(i-1)%6]
	return HexCoord{Q: dir.Q * ring * spacing, R: dir.R * ring * spacing}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
