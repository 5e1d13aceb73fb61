// Simulation ties actors, brains, gangs, and the location catalog together
// and advances them one hour at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/entropy"
	"github.com/talgya/cutthroat/internal/social"
	"github.com/talgya/cutthroat/internal/world"
)

// Sentinel errors returned by the simulation boundary.
var (
	ErrUnknownActor  = errors.New("unknown actor")
	ErrInvalidAction = errors.New("invalid action")
	ErrDuplicateID   = errors.New("duplicate actor id")
)

// Options configures a simulation. Zero values select defaults.
type Options struct {
	Seed    int64
	Catalog *world.Catalog
	Combat  CombatResolver
	Sink    EventSink
	Memory  agents.MemoryConfig
	Workers int
	Logger  *slog.Logger

	// MinPopulation triggers daily immigration when the living population
	// falls below it. Zero disables immigration.
	MinPopulation int
}

// Stats tracks aggregate world statistics.
type Stats struct {
	Tick      uint64 `json:"tick"`
	Alive     int    `json:"alive"`
	Dead      int    `json:"dead"`
	Gangs     int    `json:"gangs"`
	Fights    int    `json:"fights"`
	Deaths    int    `json:"deaths"`
	Arrivals  int    `json:"arrivals"`
	TotalGold int64  `json:"total_gold"`
	Events    int    `json:"events"`
}

// Simulation holds the complete world state.
//
// The mutex guards everything below it. SimulateHour holds the write lock
// for a whole tick; readers such as the HTTP API see state between ticks.
type Simulation struct {
	seed    int64
	opts    Options
	log     *slog.Logger
	entropy *entropy.Source
	catalog *world.Catalog
	combat  CombatResolver
	sink    EventSink
	spawner *agents.Spawner

	mu        sync.RWMutex
	tick      uint64 // Next tick to simulate
	actors    []*agents.Actor
	index     map[agents.ActorID]*agents.Actor
	brains    map[agents.ActorID]*agents.Brain
	occupancy map[world.LocationID][]agents.ActorID
	gangs     *social.Registry
	relations *RelationshipManager
	events    *eventLog
	eventSeq  uint64
	streaks   map[streakKey]int
	pending   map[agents.ActorID]agents.Action
	stats     Stats
}

// New creates a simulation with no actors.
func New(opts Options) *Simulation {
	if opts.Catalog == nil {
		cfg := world.DefaultGenConfig()
		cfg.Seed = opts.Seed
		opts.Catalog = world.Generate(cfg)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	src := entropy.New(opts.Seed)
	if opts.Combat == nil {
		opts.Combat = NewDiceResolver(src)
	}

	s := &Simulation{
		seed:    opts.Seed,
		opts:    opts,
		log:     opts.Logger,
		entropy: src,
		catalog: opts.Catalog,
		combat:  opts.Combat,
		sink:    opts.Sink,
	}
	s.resetLocked()
	return s
}

// resetLocked clears all mutable state. Callers hold mu or own s exclusively.
func (s *Simulation) resetLocked() {
	s.tick = 0
	s.actors = nil
	s.index = make(map[agents.ActorID]*agents.Actor)
	s.brains = make(map[agents.ActorID]*agents.Brain)
	s.occupancy = make(map[world.LocationID][]agents.ActorID)
	s.gangs = social.NewRegistry()
	s.relations = newRelationshipManager(s)
	s.events = newEventLog(MaxRecentEvents)
	s.eventSeq = 0
	s.streaks = make(map[streakKey]int)
	s.pending = make(map[agents.ActorID]agents.Action)
	s.stats = Stats{}
	s.spawner = agents.NewSpawner(s.entropy, s.opts.Memory)
}

// Reset clears every actor, gang, and event and rewinds the clock.
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Seed returns the seed the simulation was created with.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// Catalog returns the location catalog.
func (s *Simulation) Catalog() *world.Catalog {
	return s.catalog
}

// Relations returns the relationship manager.
func (s *Simulation) Relations() *RelationshipManager {
	return s.relations
}

// Spawner returns the simulation's seeded spawner.
func (s *Simulation) Spawner() *agents.Spawner {
	return s.spawner
}

// Initialize replaces the tracked population. Actors at unknown locations
// are placed at the first location in the catalog.
func (s *Simulation) Initialize(population []*agents.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[agents.ActorID]bool, len(population))
	for _, a := range population {
		if a == nil || a.ID == "" {
			return fmt.Errorf("initialize: %w: empty", ErrUnknownActor)
		}
		if seen[a.ID] {
			return fmt.Errorf("initialize %s: %w", a.ID, ErrDuplicateID)
		}
		seen[a.ID] = true
	}

	s.actors = s.actors[:0:0]
	s.index = make(map[agents.ActorID]*agents.Actor, len(population))
	s.brains = make(map[agents.ActorID]*agents.Brain, len(population))
	s.pending = make(map[agents.ActorID]agents.Action)
	s.streaks = make(map[streakKey]int)
	for _, a := range population {
		s.addActorLocked(a)
	}
	s.rebuildOccupancy()
	s.updateStats()
	s.log.Debug("population initialized", "actors", len(s.actors), "tick", s.tick)
	return nil
}

// addActorLocked tracks a, keeping s.actors sorted by ID.
func (s *Simulation) addActorLocked(a *agents.Actor) {
	if _, ok := s.catalog.Get(a.Location); !ok {
		if all := s.catalog.All(); len(all) > 0 {
			a.Location = all[0].ID
		}
	}
	if a.Memory == nil {
		a.Memory = agents.NewMemoryStore(s.opts.Memory)
	}
	i := sort.Search(len(s.actors), func(i int) bool { return s.actors[i].ID >= a.ID })
	s.actors = append(s.actors, nil)
	copy(s.actors[i+1:], s.actors[i:])
	s.actors[i] = a
	s.index[a.ID] = a
	s.brains[a.ID] = agents.NewBrain(a, s.entropy)
}

func (s *Simulation) rebuildOccupancy() {
	s.occupancy = make(map[world.LocationID][]agents.ActorID)
	for _, a := range s.actors {
		if a.Alive {
			s.occupancy[a.Location] = append(s.occupancy[a.Location], a.ID)
		}
	}
}

// Tick returns the next tick to be simulated.
func (s *Simulation) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Actor returns the tracked actor with id. The pointer is live: callers
// outside the simulation goroutine must not mutate it.
func (s *Simulation) Actor(id agents.ActorID) (*agents.Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.index[id]
	return a, ok
}

// GetAliveNPCs returns the living AI-controlled actors in ID order.
func (s *Simulation) GetAliveNPCs() []*agents.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*agents.Actor
	for _, a := range s.actors {
		if a.Alive && a.Role == agents.RoleAI {
			out = append(out, a)
		}
	}
	return out
}

// Actors returns every tracked actor, dead ones included, in ID order.
func (s *Simulation) Actors() []*agents.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*agents.Actor, len(s.actors))
	copy(out, s.actors)
	return out
}

// GetRecentEvents returns up to n of the newest events, oldest first. n <= 0
// returns all retained events.
func (s *Simulation) GetRecentEvents(n int) []WorldEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.recent(n)
}

// Gangs returns copies of every gang, ordered by ID.
func (s *Simulation) Gangs() []social.Gang {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.gangs.All()
	out := make([]social.Gang, 0, len(all))
	for _, g := range all {
		c := *g
		c.Members = append([]agents.ActorID(nil), g.Members...)
		out = append(out, c)
	}
	return out
}

// Territory returns which gang controls each location.
func (s *Simulation) Territory() map[world.LocationID]social.GangID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gangs.Control()
}

// Stats returns the latest aggregate statistics.
func (s *Simulation) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// SubmitPlayerAction queues the next action for a player-controlled actor.
// A later submission before the tick replaces the earlier one.
func (s *Simulation) SubmitPlayerAction(id agents.ActorID, act agents.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.index[id]
	if !ok || !a.Alive {
		return fmt.Errorf("submit action for %s: %w", id, ErrUnknownActor)
	}
	if a.Role != agents.RolePlayer {
		return fmt.Errorf("submit action for %s: not player controlled: %w", id, ErrInvalidAction)
	}
	if !act.Kind.Valid() {
		return fmt.Errorf("submit %s for %s: %w", act.Kind, id, ErrInvalidAction)
	}
	act.ActorID = id
	s.pending[id] = act
	return nil
}

// SimulateHours runs n ticks, stopping early if ctx is cancelled.
func (s *Simulation) SimulateHours(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := s.SimulateHour(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SimulateHour advances the world by one tick. A context cancelled before
// the tick starts returns its error with no state change; once started, the
// tick always completes.
func (s *Simulation) SimulateHour(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tick := s.tick
	living := s.livingActors()

	// Snapshots are built before anyone decides, from authoritative state.
	snaps := make([]agents.WorldSnapshot, len(living))
	for i, a := range living {
		snaps[i] = s.buildSnapshot(a, tick)
	}

	actions := s.decide(living, snaps)

	for i, a := range living {
		if !a.Alive {
			continue
		}
		if err := s.apply(a, actions[i], tick); err != nil {
			s.log.Debug("action skipped", "actor", a.ID, "action", actions[i].Kind, "tick", tick, "err", err)
		}
	}

	s.passiveRecovery(living)
	s.noticeStrangers(tick)
	s.evaluateGangs(tick)
	s.updateControl(tick)
	s.pruneMemories(tick)

	if tick > 0 && tick%HoursPerDay == 0 {
		s.immigrate(tick)
	}

	s.tick++
	s.updateStats()
	return nil
}

// decide runs every brain in parallel. Each brain touches only its own
// actor and reads an immutable snapshot, so workers never share state.
func (s *Simulation) decide(living []*agents.Actor, snaps []agents.WorldSnapshot) []agents.Action {
	actions := make([]agents.Action, len(living))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, a := range living {
		brain := s.brains[a.ID]
		g.Go(func() error {
			act, _ := brain.ProcessHourlyUpdate(snaps[i])
			actions[i] = act
			return nil
		})
	}
	_ = g.Wait()

	// Player actors keep their cognition but act from the queue.
	for i, a := range living {
		if a.Role != agents.RolePlayer {
			continue
		}
		if act, ok := s.pending[a.ID]; ok {
			actions[i] = act
			delete(s.pending, a.ID)
		} else {
			actions[i] = agents.Idle(a.ID)
		}
	}
	return actions
}

func (s *Simulation) livingActors() []*agents.Actor {
	out := make([]*agents.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		if a.Alive {
			out = append(out, a)
		}
	}
	return out
}

func (s *Simulation) isAlive(id agents.ActorID) bool {
	a, ok := s.index[id]
	return ok && a.Alive
}

// emit records a world event and forwards it to the sink.
func (s *Simulation) emit(tick uint64, kind EventKind, loc world.LocationID, desc string, actors ...agents.ActorID) WorldEvent {
	ev := WorldEvent{
		ID:          eventID(s.seed, tick, s.eventSeq),
		Tick:        tick,
		Kind:        kind,
		Actors:      actors,
		Location:    loc,
		Description: desc,
	}
	s.eventSeq++
	s.events.push(ev)
	publish(s.sink, ev, s.log)
	return ev
}

// pruneMemories bounds every store. Goal targets and gang mates are pinned.
func (s *Simulation) pruneMemories(tick uint64) {
	limit := s.opts.Memory.MaxEvents
	if limit <= 0 {
		limit = agents.DefaultMemoryConfig().MaxEvents
	}
	for _, a := range s.actors {
		if !a.Alive || (tick%HoursPerDay != 0 && a.Memory.Len() <= limit) {
			continue
		}
		pinned := s.pinnedFor(a)
		a.Memory.Prune(tick, func(id agents.ActorID) bool { return pinned[id] })
	}
}

func (s *Simulation) pinnedFor(a *agents.Actor) map[agents.ActorID]bool {
	pinned := make(map[agents.ActorID]bool)
	for _, id := range a.Goals.Targets() {
		pinned[id] = true
	}
	if a.GangID != nil {
		if g, ok := s.gangs.Get(*a.GangID); ok {
			for _, id := range g.Roster() {
				pinned[id] = true
			}
		}
	}
	return pinned
}

func (s *Simulation) updateStats() {
	st := Stats{
		Tick:     s.tick,
		Gangs:    s.gangs.Len(),
		Fights:   s.stats.Fights,
		Deaths:   s.stats.Deaths,
		Arrivals: s.stats.Arrivals,
		Events:   s.events.len(),
	}
	for _, a := range s.actors {
		if a.Alive {
			st.Alive++
			st.TotalGold += a.Gold
		} else {
			st.Dead++
		}
	}
	s.stats = st
}

// DailyReport logs a summary of the world.
func (s *Simulation) DailyReport() {
	s.mu.RLock()
	st := s.stats
	leader, kills, _ := s.relations.topKiller()
	s.mu.RUnlock()

	s.log.Info("daily report",
		"time", SimTime(st.Tick),
		"alive", st.Alive,
		"dead", st.Dead,
		"gangs", st.Gangs,
		"fights", humanize.Comma(int64(st.Fights)),
		"total_gold", humanize.Comma(st.TotalGold),
		"top_killer", leader,
		"kills", kills,
	)
}
