// Package agents provides the actor data model and the per-actor cognition
// stack: personality, emotional state, memory, relationships, goals, and the
// brain that turns them into one action per tick.
package agents

import (
	"errors"

	"github.com/talgya/cutthroat/internal/world"
)

// ActorID identifies an actor. Other actors and goals hold it as a weak
// reference: it may outlive the actor it names.
type ActorID string

// Role tags who controls an actor. The cognition stack runs identically for
// both; only the source of the chosen action differs.
type Role uint8

const (
	RoleAI     Role = 0
	RolePlayer Role = 1
)

func (r Role) String() string {
	if r == RolePlayer {
		return "player"
	}
	return "ai"
}

// MaxHealth is the ceiling for Actor.Health.
const MaxHealth = 100.0

// Sentinel errors returned at the package boundary.
var (
	ErrInvalidEventKind = errors.New("invalid memory event kind")
	ErrDetailMismatch   = errors.New("memory event detail does not match kind")
	ErrInvalidEmotion   = errors.New("invalid emotion kind")
	ErrInvalidIntensity = errors.New("intensity must be a finite number")
	ErrInvalidTrait     = errors.New("invalid personality trait")
)

// Actor is any entity participating in the simulation.
type Actor struct {
	ID   ActorID `json:"id"`
	Name string  `json:"name"`
	Role Role    `json:"role"`

	// Archetype the personality was generated from, if any.
	Archetype string `json:"archetype,omitempty"`

	// Location
	Location world.LocationID `json:"location"`

	// Character attributes. The stat model proper is external; the
	// simulation only reads and nudges these.
	Health float64 `json:"health"` // 0–100
	Gold   int64   `json:"gold"`
	Level  int     `json:"level"`

	// Social
	GangID *uint64 `json:"gang_id,omitempty"`

	// Cognition, owned exclusively by this actor.
	Personality Personality     `json:"personality"`
	Memory      *MemoryStore    `json:"memory"`
	Emotions    *EmotionalState `json:"emotions"`
	Goals       *GoalSet        `json:"goals"`

	// Metadata
	SpawnTick uint64 `json:"spawn_tick"`
	Alive     bool   `json:"alive"`
}

// NewActor creates a living actor with empty cognition state.
func NewActor(id ActorID, name string, p Personality, loc world.LocationID) *Actor {
	p.Clamp()
	return &Actor{
		ID:          id,
		Name:        name,
		Location:    loc,
		Health:      MaxHealth,
		Level:       1,
		Personality: p,
		Memory:      NewMemoryStore(DefaultMemoryConfig()),
		Emotions:    NewEmotionalState(),
		Goals:       NewGoalSet(),
		Alive:       true,
	}
}

// InGang reports whether the actor belongs to a gang.
func (a *Actor) InGang() bool {
	return a.GangID != nil
}

// ensure fills in cognition components that a hand-built or decoded actor
// may be missing.
func (a *Actor) ensure() {
	if a.Memory == nil {
		a.Memory = NewMemoryStore(DefaultMemoryConfig())
	}
	if a.Emotions == nil {
		a.Emotions = NewEmotionalState()
	}
	if a.Goals == nil {
		a.Goals = NewGoalSet()
	}
}
