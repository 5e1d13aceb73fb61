// Actor memory: an append-only event log from which relationships are derived.
package agents

import (
	"encoding/json"
	"iter"
	"sort"
)

// MemoryConfig controls recency weighting and pruning.
type MemoryConfig struct {
	RetentionHorizon uint64  `json:"retention_horizon" yaml:"retention_horizon"` // Ticks before an event may be pruned
	FavorHalfLife    float64 `json:"favor_half_life" yaml:"favor_half_life"`     // Ticks for friendship/trust to halve
	GrudgeHalfLife   float64 `json:"grudge_half_life" yaml:"grudge_half_life"`   // Ticks for hostility to halve
	MaxEvents        int     `json:"max_events" yaml:"max_events"`               // Hard cap enforced by Prune
}

// DefaultMemoryConfig keeps a month of memories; favours halve in ten days,
// grudges in two weeks.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		RetentionHorizon: 30 * 24,
		FavorHalfLife:    10 * 24,
		GrudgeHalfLife:   14 * 24,
		MaxEvents:        256,
	}
}

func (c MemoryConfig) normalized() MemoryConfig {
	def := DefaultMemoryConfig()
	if c.RetentionHorizon == 0 {
		c.RetentionHorizon = def.RetentionHorizon
	}
	if c.FavorHalfLife <= 0 {
		c.FavorHalfLife = def.FavorHalfLife
	}
	if c.GrudgeHalfLife <= 0 {
		c.GrudgeHalfLife = def.GrudgeHalfLife
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = def.MaxEvents
	}
	return c
}

// MemoryStore is one actor's event log, kept in tick order.
//
// The backing slice is never modified in place: appends only write past the
// length any earlier reader captured, and out-of-order inserts and pruning
// build a fresh slice. Views handed out by GetMemoriesAbout therefore stay
// consistent.
type MemoryStore struct {
	cfg     MemoryConfig
	events  []MemoryEvent
	now     uint64
	nextSeq uint64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	return &MemoryStore{cfg: cfg.normalized(), nextSeq: 1}
}

// Config returns the store's configuration.
func (m *MemoryStore) Config() MemoryConfig {
	return m.cfg
}

// Now returns the store clock: the latest tick it has observed.
func (m *MemoryStore) Now() uint64 {
	return m.now
}

// Advance moves the store clock forward. It never moves backward.
func (m *MemoryStore) Advance(tick uint64) {
	if tick > m.now {
		m.now = tick
	}
}

// Len returns the number of retained events.
func (m *MemoryStore) Len() int {
	return len(m.events)
}

// NextSeq returns the sequence number the next recorded event will get.
func (m *MemoryStore) NextSeq() uint64 {
	return m.nextSeq
}

// RecordEvent appends one event. It fails only for an invalid kind or a
// detail that does not belong to the kind.
func (m *MemoryStore) RecordEvent(ev MemoryEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.Detail == nil {
		ev.Detail = defaultDetail(ev.Kind)
	}
	ev.Seq = m.nextSeq
	m.nextSeq++
	m.Advance(ev.Tick)

	n := len(m.events)
	if n == 0 || m.events[n-1].Tick <= ev.Tick {
		m.events = append(m.events, ev)
		return nil
	}

	// Late arrival: insert after every event at or before its tick.
	i := sort.Search(n, func(i int) bool { return m.events[i].Tick > ev.Tick })
	fresh := make([]MemoryEvent, 0, n+1)
	fresh = append(fresh, m.events[:i]...)
	fresh = append(fresh, ev)
	fresh = append(fresh, m.events[i:]...)
	m.events = fresh
	return nil
}

// All returns every retained event in time order.
func (m *MemoryStore) All() iter.Seq[MemoryEvent] {
	events := m.events
	return func(yield func(MemoryEvent) bool) {
		for _, e := range events {
			if !yield(e) {
				return
			}
		}
	}
}

// GetMemoriesAbout returns the events involving other in time order. The
// sequence can be ranged over any number of times and always yields the
// events present when it was created.
func (m *MemoryStore) GetMemoriesAbout(other ActorID) iter.Seq[MemoryEvent] {
	events := m.events
	return func(yield func(MemoryEvent) bool) {
		for _, e := range events {
			if e.Other != other || other == "" {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Since returns events recorded with a sequence number >= seq, in
// recording order.
func (m *MemoryStore) Since(seq uint64) []MemoryEvent {
	var out []MemoryEvent
	for _, e := range m.events {
		if e.Seq >= seq {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// GetRelationship derives friendship, trust, and hostility toward other.
func (m *MemoryStore) GetRelationship(other ActorID) Relationship {
	var about []MemoryEvent
	for e := range m.GetMemoriesAbout(other) {
		about = append(about, e)
	}
	return score(other, about, m.now, m.cfg)
}

// Relationships returns the relationship with every remembered actor,
// sorted by actor ID.
func (m *MemoryStore) Relationships() []Relationship {
	groups := m.byOther()
	out := make([]Relationship, 0, len(groups))
	for _, id := range sortedKeys(groups) {
		out = append(out, score(id, groups[id], m.now, m.cfg))
	}
	return out
}

// RemembersBeingAttackedBy reports whether an unpruned WasAttacked event
// from other exists.
func (m *MemoryStore) RemembersBeingAttackedBy(other ActorID) bool {
	return m.HasEventSince(EventWasAttacked, other, 0)
}

// HasEventSince reports whether an event of kind involving other was
// recorded at or after tick. An empty other matches events with no other.
func (m *MemoryStore) HasEventSince(kind EventKind, other ActorID, tick uint64) bool {
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if e.Tick < tick {
			break
		}
		if e.Kind == kind && e.Other == other {
			return true
		}
	}
	return false
}

// Unsettled reports whether other has wronged this actor since the actor
// last beat or killed them.
func (m *MemoryStore) Unsettled(other ActorID) bool {
	var wronged, settled uint64
	for e := range m.GetMemoriesAbout(other) {
		switch e.Kind {
		case EventWasAttacked, EventWasBetrayed, EventLostTo, EventFriendKilled:
			wronged = max(wronged, e.Seq)
		case EventWonAgainst, EventKilled:
			settled = max(settled, e.Seq)
		}
	}
	return wronged > settled
}

// LastInteraction returns the tick of the latest event involving other.
func (m *MemoryStore) LastInteraction(other ActorID) (uint64, bool) {
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Other == other {
			return m.events[i].Tick, true
		}
	}
	return 0, false
}

// LastSocial returns the tick of the most recent shared drink or help.
func (m *MemoryStore) LastSocial() (uint64, bool) {
	for i := len(m.events) - 1; i >= 0; i-- {
		switch m.events[i].Kind {
		case EventSharedDrink, EventWasHelped, EventJoinedGang:
			return m.events[i].Tick, true
		}
	}
	return 0, false
}

// Others returns every remembered actor, sorted.
func (m *MemoryStore) Others() []ActorID {
	return sortedKeys(m.byOther())
}

// GetEnemies returns actors whose hostility exceeds EnemyHostility.
func (m *MemoryStore) GetEnemies() []ActorID {
	var out []ActorID
	for _, r := range m.Relationships() {
		if r.Hostility > EnemyHostility {
			out = append(out, r.Other)
		}
	}
	return out
}

// GetAllies returns actors classified as friends or closer.
func (m *MemoryStore) GetAllies() []ActorID {
	var out []ActorID
	for _, r := range m.Relationships() {
		if r.Status.AtLeastFriend() {
			out = append(out, r.Other)
		}
	}
	return out
}

// Prune discards events older than the retention horizon, then enforces the
// hard cap. Old events survive the horizon when pinned reports their other
// actor as load-bearing (an active goal target) or when dropping them would
// change how that relationship classifies. Returns the number removed.
func (m *MemoryStore) Prune(now uint64, pinned func(ActorID) bool) int {
	m.Advance(now)
	before := len(m.events)
	if before == 0 {
		return 0
	}
	if pinned == nil {
		pinned = func(ActorID) bool { return false }
	}

	kept := m.events
	if now > m.cfg.RetentionHorizon {
		cutoff := now - m.cfg.RetentionHorizon
		if m.events[0].Tick < cutoff {
			kept = m.pruneHorizon(cutoff, pinned)
		}
	}

	if over := len(kept) - m.cfg.MaxEvents; over > 0 {
		kept = evictOldest(kept, over, pinned)
	}

	if len(kept) != before {
		m.events = kept
	}
	return before - len(kept)
}

func (m *MemoryStore) pruneHorizon(cutoff uint64, pinned func(ActorID) bool) []MemoryEvent {
	// Decide per other actor whether its expired events may go.
	protect := make(map[ActorID]bool)
	for other, evs := range m.byOther() {
		if pinned(other) {
			protect[other] = true
			continue
		}
		var recent []MemoryEvent
		for _, e := range evs {
			if e.Tick >= cutoff {
				recent = append(recent, e)
			}
		}
		if len(recent) == len(evs) {
			continue
		}
		full := score(other, evs, m.now, m.cfg)
		trimmed := score(other, recent, m.now, m.cfg)
		if full.Status != trimmed.Status {
			protect[other] = true
		}
	}

	kept := make([]MemoryEvent, 0, len(m.events))
	for _, e := range m.events {
		if e.Tick >= cutoff || (e.Other != "" && protect[e.Other]) {
			kept = append(kept, e)
		}
	}
	return kept
}

// evictOldest removes n events, preferring the oldest unpinned ones.
func evictOldest(events []MemoryEvent, n int, pinned func(ActorID) bool) []MemoryEvent {
	drop := make(map[int]bool, n)
	for i, e := range events {
		if len(drop) == n {
			break
		}
		if e.Other == "" || !pinned(e.Other) {
			drop[i] = true
		}
	}
	for i := range events {
		if len(drop) == n {
			break
		}
		drop[i] = true
	}

	kept := make([]MemoryEvent, 0, len(events)-n)
	for i, e := range events {
		if !drop[i] {
			kept = append(kept, e)
		}
	}
	return kept
}

func (m *MemoryStore) byOther() map[ActorID][]MemoryEvent {
	groups := make(map[ActorID][]MemoryEvent)
	for _, e := range m.events {
		if e.Other == "" {
			continue
		}
		groups[e.Other] = append(groups[e.Other], e)
	}
	return groups
}

func sortedKeys[V any](m map[ActorID]V) []ActorID {
	keys := make([]ActorID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

type memoryJSON struct {
	Config  MemoryConfig  `json:"config"`
	Now     uint64        `json:"now"`
	NextSeq uint64        `json:"next_seq"`
	Events  []MemoryEvent `json:"events"`
}

// MarshalJSON serializes the full store, clock included, so derived
// relationships come back identical.
func (m *MemoryStore) MarshalJSON() ([]byte, error) {
	return json.Marshal(memoryJSON{Config: m.cfg, Now: m.now, NextSeq: m.nextSeq, Events: m.events})
}

// UnmarshalJSON restores a store written by MarshalJSON.
func (m *MemoryStore) UnmarshalJSON(data []byte) error {
	var in memoryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	sort.SliceStable(in.Events, func(i, j int) bool { return in.Events[i].Tick < in.Events[j].Tick })
	*m = MemoryStore{cfg: in.Config.normalized(), events: in.Events, now: in.Now, nextSeq: in.NextSeq}
	if m.nextSeq == 0 {
		m.nextSeq = 1
	}
	for _, e := range m.events {
		if e.Seq >= m.nextSeq {
			m.nextSeq = e.Seq + 1
		}
	}
	return nil
}
