// Goal system: what an actor wants, re-ranked every tick.
package agents

import (
	"encoding/json"
	"fmt"
	"iter"
	"sort"
)

// GoalType enumerates what an actor can strive for.
type GoalType uint8

const (
	GoalNone GoalType = iota
	GoalAccumulateWealth
	GoalGetRevenge
	GoalBecomeRuler
	GoalGainInfluence
	GoalJoinGang
	GoalSupportGang
	GoalFindBetterWeapon
	GoalSeekCompany
	GoalRecover
	numGoalTypes
)

var goalNames = [numGoalTypes]string{
	"none", "accumulate_wealth", "get_revenge", "become_ruler", "gain_influence",
	"join_gang", "support_gang", "find_better_weapon", "seek_company", "recover",
}

func (g GoalType) String() string {
	if g < numGoalTypes {
		return goalNames[g]
	}
	return fmt.Sprintf("goal(%d)", uint8(g))
}

// GoalStatus is a goal's lifecycle state. Only Active goals are held; the
// terminal states appear in transitions.
type GoalStatus uint8

const (
	GoalProposed GoalStatus = iota
	GoalActive
	GoalSatisfied
	GoalInvalidated
	GoalSuperseded
)

var goalStatusNames = [...]string{"proposed", "active", "satisfied", "invalidated", "superseded"}

func (s GoalStatus) String() string {
	if int(s) < len(goalStatusNames) {
		return goalStatusNames[s]
	}
	return "unknown"
}

// Thresholds and constants of the goal triggers.
const (
	MaxActiveGoals = 6

	VengefulnessFloor = 0.3  // Below this a grudge alone does not start revenge
	AvengerLoyalty    = 0.5  // Loyal actors avenge dead friends regardless
	PovertyLine       = 20   // Gold below which anyone wants money
	WeaponPrice       = 40   // Gold a better weapon costs
	RecoverBelow      = 35.0 // Health that starts a Recover goal
	RecoveredAt       = 75.0 // Health that satisfies it
	LonelyAfter       = 24   // Ticks without company before seeking it
	GrievanceWindow   = 72   // Ticks a defeat keeps rankling

	LeaderAmbition    = 0.7 // Founding a gang needs this ambition…
	LeaderSociability = 0.6 // …this sociability…
	FoundingAllies    = 2   // …and this many living allies.
	JoinLoyalty       = 0.5 // A follower needs this loyalty to join…
	JoinFriendship    = 20.0
	SupportLoyalty    = 0.4
	InfluenceAllies   = 6 // Allies at which an influence goal is met
)

// WealthTarget is the gold an actor of the given greed considers enough.
func WealthTarget(greed float64) int64 {
	return 100 + int64(greed*400)
}

// singleSlot goal types keep at most one target at a time.
func singleSlot(t GoalType) bool {
	return t == GoalJoinGang
}

// Goal is one objective.
type Goal struct {
	Type        GoalType   `json:"type"`
	Target      ActorID    `json:"target,omitempty"`
	Priority    float64    `json:"priority"` // 0–1
	Status      GoalStatus `json:"status"`
	CreatedTick uint64     `json:"created_tick"`
	Seq         uint64     `json:"seq"` // Creation order; breaks priority ties
}

// Key returns the (type, target) pair goals are deduplicated on.
func (g Goal) Key() GoalKey {
	return GoalKey{Type: g.Type, Target: g.Target}
}

// GoalKey identifies a goal for deduplication.
type GoalKey struct {
	Type   GoalType
	Target ActorID
}

// GoalTransition records a goal changing state during an update.
type GoalTransition struct {
	Goal Goal       `json:"goal"`
	From GoalStatus `json:"from"`
	To   GoalStatus `json:"to"`
}

// GoalContext is everything goal evaluation reads.
type GoalContext struct {
	Personality Personality
	Memory      *MemoryStore
	Emotions    *EmotionalState
	Snapshot    WorldSnapshot
}

// GoalSet holds an actor's active goals.
type GoalSet struct {
	goals   []Goal
	nextSeq uint64
}

// NewGoalSet returns an empty set.
func NewGoalSet() *GoalSet {
	return &GoalSet{nextSeq: 1}
}

// ranked reports whether a outranks b: higher priority first, then the more
// recently created goal.
func ranked(a, b Goal) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Seq > b.Seq
}

func (gs *GoalSet) sorted() []Goal {
	out := make([]Goal, len(gs.goals))
	copy(out, gs.goals)
	sort.Slice(out, func(i, j int) bool { return ranked(out[i], out[j]) })
	return out
}

// GetActiveGoals returns the active goals, best first. The sequence reflects
// the set at call time and can be ranged over repeatedly.
func (gs *GoalSet) GetActiveGoals() iter.Seq[Goal] {
	goals := gs.sorted()
	return func(yield func(Goal) bool) {
		for _, g := range goals {
			if !yield(g) {
				return
			}
		}
	}
}

// GetPriorityGoal returns the best active goal.
func (gs *GoalSet) GetPriorityGoal() (Goal, bool) {
	if len(gs.goals) == 0 {
		return Goal{}, false
	}
	best := gs.goals[0]
	for _, g := range gs.goals[1:] {
		if ranked(g, best) {
			best = g
		}
	}
	return best, true
}

// Len returns the number of active goals.
func (gs *GoalSet) Len() int {
	return len(gs.goals)
}

// Has reports whether an active goal with this key exists.
func (gs *GoalSet) Has(t GoalType, target ActorID) bool {
	for _, g := range gs.goals {
		if g.Type == t && g.Target == target {
			return true
		}
	}
	return false
}

// Targets returns the distinct actors targeted by active goals.
func (gs *GoalSet) Targets() []ActorID {
	seen := make(map[ActorID]bool)
	var out []ActorID
	for _, g := range gs.goals {
		if g.Target != "" && !seen[g.Target] {
			seen[g.Target] = true
			out = append(out, g.Target)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UpdateGoals re-evaluates every trigger and every active goal against ctx
// and returns the state changes it made.
func (gs *GoalSet) UpdateGoals(ctx GoalContext) []GoalTransition {
	if ctx.Memory == nil {
		ctx.Memory = NewMemoryStore(DefaultMemoryConfig())
	}
	if ctx.Emotions == nil {
		ctx.Emotions = NewEmotionalState()
	}
	tick := ctx.Snapshot.Tick
	desired := proposeGoals(ctx)

	var transitions []GoalTransition
	kept := gs.goals[:0:0]

	// Re-score or retire existing goals.
	for _, g := range gs.goals {
		status, priority := assessGoal(g, ctx)
		if status != GoalActive {
			delete(desired, g.Key())
			g.Status = status
			transitions = append(transitions, GoalTransition{Goal: g, From: GoalActive, To: status})
			continue
		}
		if p, ok := desired[g.Key()]; ok {
			priority = p
			delete(desired, g.Key())
		}
		g.Priority = priority
		kept = append(kept, g)
	}

	// Merge new goals in a stable order so sequence numbers are reproducible.
	keys := make([]GoalKey, 0, len(desired))
	for k := range desired {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Target < keys[j].Target
	})
	for _, k := range keys {
		g := Goal{
			Type:        k.Type,
			Target:      k.Target,
			Priority:    desired[k],
			Status:      GoalActive,
			CreatedTick: tick,
			Seq:         gs.nextSeq,
		}
		gs.nextSeq++
		kept = append(kept, g)
		transitions = append(transitions, GoalTransition{Goal: g, From: GoalProposed, To: GoalActive})
	}

	// Best first, then enforce single-slot types and the overall cap.
	sort.Slice(kept, func(i, j int) bool { return ranked(kept[i], kept[j]) })
	slotTaken := make(map[GoalType]bool)
	final := kept[:0:0]
	for _, g := range kept {
		if (singleSlot(g.Type) && slotTaken[g.Type]) || len(final) >= MaxActiveGoals {
			g.Status = GoalSuperseded
			transitions = append(transitions, GoalTransition{Goal: g, From: GoalActive, To: GoalSuperseded})
			continue
		}
		slotTaken[g.Type] = true
		final = append(final, g)
	}

	gs.goals = final
	return transitions
}

// proposeGoals evaluates every trigger and returns the goals that should be
// active, keyed by (type, target), with their priority.
func proposeGoals(ctx GoalContext) map[GoalKey]float64 {
	p := ctx.Personality
	snap := ctx.Snapshot
	self := snap.Self
	out := make(map[GoalKey]float64)

	// Revenge: grudges held by vengeful actors, and friends' killers for
	// loyal ones. A score already settled by a win needs a fresh wrong.
	for _, r := range ctx.Memory.Relationships() {
		if r.Other == self.ID || !snap.alive(r.Other) || !ctx.Memory.Unsettled(r.Other) {
			continue
		}
		avenger := p.Loyalty >= AvengerLoyalty && ctx.Memory.HasEventSince(EventFriendKilled, r.Other, 0)
		if r.Hostility >= RevengeHostility && (p.Vengefulness >= VengefulnessFloor || avenger) {
			out[GoalKey{GoalGetRevenge, r.Other}] = revengePriority(r, ctx)
		}
	}

	if self.Health > 0 && self.Health < RecoverBelow {
		out[GoalKey{Type: GoalRecover}] = recoverPriority(self)
	}

	if self.Gold < PovertyLine || (p.Greed >= 0.5 && self.Gold < WealthTarget(p.Greed)) {
		out[GoalKey{Type: GoalAccumulateWealth}] = wealthPriority(p, self)
	}

	if p.Aggression >= 0.5 && self.Gold >= WeaponPrice && recentDefeat(ctx) &&
		!ctx.Memory.HasEventSince(EventPurchased, "", sub(snap.Tick, GrievanceWindow)) {
		out[GoalKey{Type: GoalFindBetterWeapon}] = weaponPriority(p)
	}

	if p.Sociability >= 0.5 && lonely(ctx) {
		out[GoalKey{Type: GoalSeekCompany}] = companyPriority(p)
	}

	allies := livingAllies(ctx)
	switch {
	case self.GangID == nil:
		if p.Ambition >= 0.5 && p.Sociability >= 0.4 && allies < FoundingAllies+1 {
			out[GoalKey{Type: GoalGainInfluence}] = influencePriority(p)
		}
		if p.Loyalty >= JoinLoyalty {
			if leader, f, ok := bestLeader(ctx); ok {
				out[GoalKey{GoalJoinGang, leader}] = joinPriority(p, f)
			}
		}
	case self.IsLeader:
		if p.Ambition >= LeaderAmbition {
			out[GoalKey{Type: GoalBecomeRuler}] = rulerPriority(p)
		}
		if p.Sociability >= 0.4 && allies < InfluenceAllies {
			out[GoalKey{Type: GoalGainInfluence}] = influencePriority(p)
		}
	default:
		if p.Loyalty >= SupportLoyalty && self.Leader != "" && snap.alive(self.Leader) {
			out[GoalKey{GoalSupportGang, self.Leader}] = supportPriority(p)
		}
	}

	return out
}

// assessGoal decides whether an active goal stays active and re-scores it.
func assessGoal(g Goal, ctx GoalContext) (GoalStatus, float64) {
	p := ctx.Personality
	snap := ctx.Snapshot
	self := snap.Self
	mem := ctx.Memory

	if g.Target != "" && !snap.alive(g.Target) {
		// A revenge target killed by this actor counts as done.
		if g.Type == GoalGetRevenge && mem.HasEventSince(EventKilled, g.Target, g.CreatedTick) {
			return GoalSatisfied, 0
		}
		return GoalInvalidated, 0
	}

	switch g.Type {
	case GoalGetRevenge:
		if mem.HasEventSince(EventWonAgainst, g.Target, g.CreatedTick) ||
			mem.HasEventSince(EventKilled, g.Target, g.CreatedTick) {
			return GoalSatisfied, 0
		}
		r := mem.GetRelationship(g.Target)
		if r.Hostility < RevengeFade {
			return GoalInvalidated, 0
		}
		return GoalActive, revengePriority(r, ctx)

	case GoalRecover:
		if self.Health >= RecoveredAt {
			return GoalSatisfied, 0
		}
		return GoalActive, recoverPriority(self)

	case GoalAccumulateWealth:
		if self.Gold >= WealthTarget(p.Greed) {
			return GoalSatisfied, 0
		}
		return GoalActive, wealthPriority(p, self)

	case GoalFindBetterWeapon:
		if mem.HasEventSince(EventPurchased, "", g.CreatedTick) {
			return GoalSatisfied, 0
		}
		if self.Gold < WeaponPrice {
			return GoalInvalidated, 0
		}
		return GoalActive, weaponPriority(p)

	case GoalSeekCompany:
		if t, ok := mem.LastSocial(); ok && t >= g.CreatedTick && t > 0 {
			return GoalSatisfied, 0
		}
		return GoalActive, companyPriority(p)

	case GoalGainInfluence:
		need := FoundingAllies + 1
		if self.IsLeader {
			need = InfluenceAllies
		} else if self.GangID != nil {
			return GoalInvalidated, 0
		}
		if livingAllies(ctx) >= need {
			return GoalSatisfied, 0
		}
		return GoalActive, influencePriority(p)

	case GoalJoinGang:
		if self.GangID != nil {
			return GoalSatisfied, 0
		}
		if _, ok := snap.GangLeaders[g.Target]; !ok {
			return GoalInvalidated, 0
		}
		return GoalActive, joinPriority(p, mem.GetRelationship(g.Target).Friendship)

	case GoalSupportGang:
		if self.GangID == nil || self.IsLeader || self.Leader != g.Target {
			return GoalInvalidated, 0
		}
		return GoalActive, supportPriority(p)

	case GoalBecomeRuler:
		if !self.IsLeader {
			return GoalInvalidated, 0
		}
		return GoalActive, rulerPriority(p)
	}
	return GoalInvalidated, 0
}

// Priority functions. Each returns a value in [0, 1].

func revengePriority(r Relationship, ctx GoalContext) float64 {
	p := ctx.Personality
	anger := ctx.Emotions.Intensity(EmotionAnger)
	fear := ctx.Emotions.Intensity(EmotionFear)
	v := 0.4*r.Hostility/ScoreMax + 0.35*p.Vengefulness + 0.25*anger
	v *= 1 - 0.5*fear*(1-p.Courage)
	return clamp01(v)
}

func recoverPriority(self SelfView) float64 {
	return clamp01(0.5 + 0.5*(1-self.Health/MaxHealth))
}

func wealthPriority(p Personality, self SelfView) float64 {
	v := 0.25 + 0.35*p.Greed
	if self.Gold < PovertyLine {
		v += 0.2
	}
	return clamp01(v)
}

func weaponPriority(p Personality) float64 {
	return clamp01(0.3 + 0.3*p.Aggression)
}

func companyPriority(p Personality) float64 {
	return clamp01(0.2 + 0.3*p.Sociability)
}

func influencePriority(p Personality) float64 {
	return clamp01(0.3 + 0.3*p.Ambition)
}

func joinPriority(p Personality, friendship float64) float64 {
	return clamp01(0.3 + 0.3*p.Loyalty + friendship/(2*ScoreMax))
}

func supportPriority(p Personality) float64 {
	return clamp01(0.2 + 0.4*p.Loyalty)
}

func rulerPriority(p Personality) float64 {
	return clamp01(0.25 + 0.35*p.Ambition)
}

// bestLeader picks the gang leader this actor likes most, provided the
// liking clears half the join threshold and they are not enemies.
func bestLeader(ctx GoalContext) (ActorID, float64, bool) {
	leaders := make([]ActorID, 0, len(ctx.Snapshot.GangLeaders))
	for id := range ctx.Snapshot.GangLeaders {
		leaders = append(leaders, id)
	}
	sort.Slice(leaders, func(i, j int) bool { return leaders[i] < leaders[j] })

	var best ActorID
	bestF := JoinFriendship / 2
	found := false
	for _, id := range leaders {
		if id == ctx.Snapshot.Self.ID || !ctx.Snapshot.alive(id) {
			continue
		}
		r := ctx.Memory.GetRelationship(id)
		if r.Status == StatusEnemy || r.Friendship < bestF {
			continue
		}
		if !found || r.Friendship > bestF {
			best, bestF, found = id, r.Friendship, true
		}
	}
	return best, bestF, found
}

func livingAllies(ctx GoalContext) int {
	n := 0
	for _, id := range ctx.Memory.GetAllies() {
		if ctx.Snapshot.alive(id) {
			n++
		}
	}
	return n
}

func recentDefeat(ctx GoalContext) bool {
	since := sub(ctx.Snapshot.Tick, GrievanceWindow)
	for e := range ctx.Memory.All() {
		if e.Kind == EventLostTo && e.Tick >= since {
			return true
		}
	}
	return false
}

func lonely(ctx GoalContext) bool {
	t, ok := ctx.Memory.LastSocial()
	if !ok {
		return ctx.Snapshot.Tick >= LonelyAfter
	}
	return ctx.Snapshot.Tick-t >= LonelyAfter
}

func sub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

type goalSetJSON struct {
	Goals   []Goal `json:"goals"`
	NextSeq uint64 `json:"next_seq"`
}

// MarshalJSON writes the active goals and the sequence counter.
func (gs *GoalSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(goalSetJSON{Goals: gs.goals, NextSeq: gs.nextSeq})
}

// UnmarshalJSON restores a goal set, keeping the first goal per key.
func (gs *GoalSet) UnmarshalJSON(data []byte) error {
	var in goalSetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	seen := make(map[GoalKey]bool)
	gs.goals = gs.goals[:0:0]
	gs.nextSeq = in.NextSeq
	if gs.nextSeq == 0 {
		gs.nextSeq = 1
	}
	for _, g := range in.Goals {
		if g.Type == GoalNone || g.Type >= numGoalTypes || seen[g.Key()] {
			continue
		}
		seen[g.Key()] = true
		g.Status = GoalActive
		g.Priority = clamp01(g.Priority)
		gs.goals = append(gs.goals, g)
		if g.Seq >= gs.nextSeq {
			gs.nextSeq = g.Seq + 1
		}
	}
	return nil
}
