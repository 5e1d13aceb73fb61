// Actor spawning from archetype templates.
package agents

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/talgya/cutthroat/internal/entropy"
	"github.com/talgya/cutthroat/internal/world"
)

// Spawner creates actors for the simulation. Identity, names, and traits all
// come from one seeded stream, so a seed reproduces the same population.
type Spawner struct {
	rng    *rand.Rand
	memory MemoryConfig
}

// NewSpawner creates a spawner drawing from src.
func NewSpawner(src *entropy.Source, mem MemoryConfig) *Spawner {
	if src == nil {
		src = entropy.New(0)
	}
	return &Spawner{
		rng:    src.Stream(entropy.SaltSpawn, "spawner", 0),
		memory: mem,
	}
}

// SpawnPopulation creates count actors spread over the catalog.
func (s *Spawner) SpawnPopulation(count int, catalog *world.Catalog, tick uint64) []*Actor {
	actors := make([]*Actor, 0, count)
	for i := 0; i < count; i++ {
		arch := pickArchetype(s.rng)
		actors = append(actors, s.Spawn(arch, s.homeFor(arch, catalog), tick))
	}
	return actors
}

// Spawn creates one actor of the given archetype at loc. An unknown
// archetype yields a middling personality.
func (s *Spawner) Spawn(archetype string, loc world.LocationID, tick uint64) *Actor {
	tmpl, ok := archetypeTemplates[archetype]
	if !ok {
		tmpl = BehaviorTemplate{
			Base: Personality{
				Aggression: 0.5, Greed: 0.5, Courage: 0.5, Loyalty: 0.5,
				Vengefulness: 0.5, Impulsiveness: 0.5, Sociability: 0.5, Ambition: 0.5,
			},
			Jitter: 0.25, StartingGold: 30,
		}
		archetype = ""
	}

	a := NewActor(s.newID(), s.generateName(), tmpl.Personality(s.rng), loc)
	a.Archetype = archetype
	a.Memory = NewMemoryStore(s.memory)
	a.Health = MaxHealth * (0.8 + s.rng.Float64()*0.2)
	a.Level = 1 + s.rng.IntN(3)
	a.Gold = startingGold(tmpl.StartingGold, s.rng)
	a.SpawnTick = tick
	return a
}

func (s *Spawner) newID() ActorID {
	id, err := uuid.NewRandomFromReader(rngReader{s.rng})
	if err != nil {
		// rngReader never fails; keep the zero UUID's shape just in case.
		return ActorID(uuid.Nil.String())
	}
	return ActorID(id.String())
}

// homeFor picks a spawn location matching the archetype's habits.
func (s *Spawner) homeFor(archetype string, catalog *world.Catalog) world.LocationID {
	want := world.AffordDrink
	switch archetype {
	case ArchGuard, ArchZealot:
		want = world.AffordPatrol
	case ArchMerchant:
		want = world.AffordTrade
	case ArchLaborer, ArchWanderer:
		want = world.AffordWork
	}

	var options []world.LocationID
	for _, l := range catalog.All() {
		if l.Affordances.Has(want) {
			options = append(options, l.ID)
		}
	}
	if len(options) == 0 {
		all := catalog.All()
		if len(all) == 0 {
			return ""
		}
		return all[s.rng.IntN(len(all))].ID
	}
	return options[s.rng.IntN(len(options))]
}

func (s *Spawner) generateName() string {
	var firsts []string
	if s.rng.Float64() < 0.5 {
		firsts = maleNames
	} else {
		firsts = femaleNames
	}
	first := firsts[s.rng.IntN(len(firsts))]
	last := lastNames[s.rng.IntN(len(lastNames))]
	return first + " " + last
}

func startingGold(mean int64, rng *rand.Rand) int64 {
	g := float64(mean) * (0.5 + rng.Float64())
	if g < 0 {
		return 0
	}
	return int64(g)
}

// rngReader adapts a seeded generator to io.Reader for uuid.
type rngReader struct {
	r *rand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.r.Uint32())
	}
	return len(p), nil
}

// Name pools for procedural generation.
var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
	"Varen", "Wren", "Yorick", "Zander", "Arlen", "Beric", "Cade",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
	"Willa", "Yara", "Zara", "Ava", "Birgit", "Cora", "Dagny",
}

var lastNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Stormcrow", "Hearthstone", "Millward", "Copperfield", "Ravenmoor",
	"Wolfsbane", "Stoneheart", "Deepwell", "Redforge", "Marshwood",
	"Nightingale", "Steelworth", "Embercroft", "Holloway", "Farrow",
	"Thatcher", "Briar", "Caldwell", "Harper", "Mercer", "Ward", "Cross",
}
