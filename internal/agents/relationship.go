package agents

import "math"

// Relationship scores share one scale: [0, 100]. Trust starts at the
// midpoint. Every threshold that classifies a relationship or triggers a
// goal lives here so display and behaviour agree.
const (
	ScoreMax     = 100.0
	TrustNeutral = 50.0

	EnemyHostility = 30.0 // hostility above this ⇒ enemy

	FriendFriendship      = 20.0
	CloseFriendFriendship = 55.0
	CloseFriendTrust      = 60.0
	LoverFriendship       = 85.0
	LoverTrust            = 75.0
	LoverMaxHostility     = 5.0


	// RevengeHostility is the grudge at which a vengeful actor wants revenge.
	RevengeHostility = EnemyHostility
	// RevengeFade is the grudge below which a revenge goal is dropped.
	RevengeFade = EnemyHostility / 2
)

// Status is the coarse classification of a relationship.
type Status uint8

const (
	StatusNeutral Status = iota
	StatusEnemy
	StatusFriend
	StatusCloseFriend
	StatusLover
)

var statusNames = [...]string{"neutral", "enemy", "friend", "close_friend", "lover"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// AtLeastFriend reports whether s is friend, close friend, or lover.
func (s Status) AtLeastFriend() bool {
	return s == StatusFriend || s == StatusCloseFriend || s == StatusLover
}

// Relationship is the derived view one actor holds of another. It is
// recomputed from memory on every query and never stored.
type Relationship struct {
	Other      ActorID `json:"other"`
	Friendship float64 `json:"friendship"`
	Trust      float64 `json:"trust"`
	Hostility  float64 `json:"hostility"`
	Status     Status  `json:"status"`
}

// Classify maps the three scores to a status. First match wins.
func Classify(friendship, trust, hostility float64) Status {
	switch {
	case hostility > EnemyHostility:
		return StatusEnemy
	case friendship >= LoverFriendship && trust >= LoverTrust && hostility <= LoverMaxHostility:
		return StatusLover
	case friendship >= CloseFriendFriendship && trust >= CloseFriendTrust:
		return StatusCloseFriend
	case friendship >= FriendFriendship && friendship > hostility:
		return StatusFriend
	default:
		return StatusNeutral
	}
}

// eventWeight is how one event of a kind shifts the three scores before
// significance and recency scaling.
type eventWeight struct {
	friendship, trust, hostility float64
}

var eventWeights = [numEventKinds]eventWeight{
	EventWasAttacked:  {friendship: -8, trust: -15, hostility: 25},
	EventWasHelped:    {friendship: 15, trust: 10},
	EventSharedDrink:  {friendship: 8, trust: 3},
	EventWasBetrayed:  {friendship: -20, trust: -40, hostility: 30},
	EventLostTo:       {trust: -5, hostility: 12},
	EventWonAgainst:   {friendship: -2, hostility: 4},
	EventSawPerson:    {friendship: 0.5},
	EventTraded:       {friendship: 3, trust: 4},
	EventKilled:       {hostility: 10},
	EventWasKilled:    {trust: -50, hostility: 50},
	EventFriendKilled: {friendship: -15, trust: -20, hostility: 20},
	EventJoinedGang:   {friendship: 15, trust: 15},
}

// grudge reports whether a kind's main effect is hostility, which decays
// on the slower grudge half-life.
func (w eventWeight) grudge() bool {
	return w.hostility > 0
}

// decay returns the recency weight of an event age ticks old.
func decay(age uint64, halfLife float64) float64 {
	if halfLife <= 0 {
		return 1
	}
	return math.Exp(-math.Ln2 * float64(age) / halfLife)
}

// score folds events into a relationship.
func score(other ActorID, events []MemoryEvent, now uint64, cfg MemoryConfig) Relationship {
	var f, t, h float64
	for _, e := range events {
		w := eventWeights[e.Kind]
		age := uint64(0)
		if now > e.Tick {
			age = now - e.Tick
		}
		hl := cfg.FavorHalfLife
		if w.grudge() {
			hl = cfg.GrudgeHalfLife
		}
		k := e.Significance() * decay(age, hl)
		f += w.friendship * k
		t += w.trust * k
		h += w.hostility * k
	}
	r := Relationship{
		Other:      other,
		Friendship: clamp(f, 0, ScoreMax),
		Trust:      clamp(TrustNeutral+t, 0, ScoreMax),
		Hostility:  clamp(h, 0, ScoreMax),
	}
	r.Status = Classify(r.Friendship, r.Trust, r.Hostility)
	return r
}
