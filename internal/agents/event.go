package agents

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/talgya/cutthroat/internal/world"
)

// EventKind enumerates what an actor can remember. Zero is invalid.
type EventKind uint8

const (
	EventInvalid EventKind = iota
	EventWasAttacked
	EventWasHelped
	EventSharedDrink
	EventWasBetrayed
	EventLostTo
	EventWonAgainst
	EventSawPerson
	EventTraded
	EventPurchased
	EventKilled
	EventWasKilled
	EventFriendKilled
	EventJoinedGang
	numEventKinds
)

var eventNames = [numEventKinds]string{
	"invalid", "was_attacked", "was_helped", "shared_drink", "was_betrayed",
	"lost_to", "won_against", "saw_person", "traded", "purchased",
	"killed", "was_killed", "friend_killed", "joined_gang",
}

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	return k > EventInvalid && k < numEventKinds
}

func (k EventKind) String() string {
	if k < numEventKinds {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// Detail is the kind-specific payload of a memory event. Each event kind
// accepts exactly one detail type.
type Detail interface {
	// Significance scales how strongly the event moves relationships and
	// emotions. 1.0 is an ordinary occurrence.
	Significance() float64
	detailKind() detailKind
}

type detailKind uint8

const (
	detailCombat detailKind = iota + 1
	detailFavor
	detailSocial
	detailBetrayal
	detailKill
)

// CombatDetail describes a fight.
type CombatDetail struct {
	Damage float64 `json:"damage"` // Health lost by the remembering actor
	Rounds int     `json:"rounds"`
}

// Significance grows with damage: a scratch counts half, a beating up to 2.5.
func (d CombatDetail) Significance() float64 {
	return clamp(0.5+d.Damage/20, 0.5, 2.5)
}

func (CombatDetail) detailKind() detailKind { return detailCombat }

// FavorDetail describes help, trade, or a purchase.
type FavorDetail struct {
	Gold   int64   `json:"gold"`
	Weight float64 `json:"weight,omitempty"`
}

// Significance defaults to 1 and grows slowly with the gold involved.
func (d FavorDetail) Significance() float64 {
	w := d.Weight
	if w <= 0 {
		w = 1
	}
	return clamp(w+float64(d.Gold)/100, 0.25, 3)
}

func (FavorDetail) detailKind() detailKind { return detailFavor }

// SocialDetail describes a shared moment or a sighting.
type SocialDetail struct {
	Location world.LocationID `json:"location,omitempty"`
	Weight   float64          `json:"weight,omitempty"`
}

// Significance is the recorded weight, defaulting to 1.
func (d SocialDetail) Significance() float64 {
	if d.Weight <= 0 {
		return 1
	}
	return clamp(d.Weight, 0.1, 3)
}

func (SocialDetail) detailKind() detailKind { return detailSocial }

// BetrayalDetail describes a broken trust.
type BetrayalDetail struct {
	Severity float64 `json:"severity"` // 0–1
}

// Significance ranges from 0.5 to 2.
func (d BetrayalDetail) Significance() float64 {
	return 0.5 + clamp01(d.Severity)*1.5
}

func (BetrayalDetail) detailKind() detailKind { return detailBetrayal }

// KillDetail describes a death.
type KillDetail struct {
	Victim   ActorID          `json:"victim"`
	Location world.LocationID `json:"location,omitempty"`
}

// Significance of a death is always maximal.
func (KillDetail) Significance() float64 { return 2 }

func (KillDetail) detailKind() detailKind { return detailKill }

// detailFor returns the detail type each kind carries.
func detailFor(k EventKind) detailKind {
	switch k {
	case EventWasAttacked, EventLostTo, EventWonAgainst:
		return detailCombat
	case EventWasHelped, EventTraded, EventPurchased:
		return detailFavor
	case EventSharedDrink, EventSawPerson, EventJoinedGang:
		return detailSocial
	case EventWasBetrayed:
		return detailBetrayal
	case EventKilled, EventWasKilled, EventFriendKilled:
		return detailKill
	}
	return 0
}

// defaultDetail returns the zero detail for kind.
func defaultDetail(k EventKind) Detail {
	switch detailFor(k) {
	case detailCombat:
		return CombatDetail{}
	case detailFavor:
		return FavorDetail{}
	case detailSocial:
		return SocialDetail{}
	case detailBetrayal:
		return BetrayalDetail{Severity: 0.5}
	case detailKill:
		return KillDetail{}
	}
	return nil
}

// MemoryEvent is an immutable record of something that happened to an actor.
type MemoryEvent struct {
	Kind   EventKind `json:"kind"`
	Other  ActorID   `json:"other,omitempty"`
	Tick   uint64    `json:"tick"`
	Seq    uint64    `json:"seq"`
	Detail Detail    `json:"detail"`
}

// NewEvent builds an event, filling a zero detail when d is nil.
func NewEvent(kind EventKind, other ActorID, tick uint64, d Detail) MemoryEvent {
	if d == nil {
		d = defaultDetail(kind)
	}
	return MemoryEvent{Kind: kind, Other: other, Tick: tick, Detail: d}
}

// Significance returns the detail's weight, or 1 when no detail is set.
func (e MemoryEvent) Significance() float64 {
	if e.Detail == nil {
		return 1
	}
	s := e.Detail.Significance()
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	return s
}

// Validate checks kind and detail agreement.
func (e MemoryEvent) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("kind %d: %w", uint8(e.Kind), ErrInvalidEventKind)
	}
	if e.Detail != nil && e.Detail.detailKind() != detailFor(e.Kind) {
		return fmt.Errorf("%s with %T: %w", e.Kind, e.Detail, ErrDetailMismatch)
	}
	return nil
}

type eventJSON struct {
	Kind   EventKind       `json:"kind"`
	Other  ActorID         `json:"other,omitempty"`
	Tick   uint64          `json:"tick"`
	Seq    uint64          `json:"seq"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

// MarshalJSON writes the detail inline; the kind tells the decoder its type.
func (e MemoryEvent) MarshalJSON() ([]byte, error) {
	out := eventJSON{Kind: e.Kind, Other: e.Other, Tick: e.Tick, Seq: e.Seq}
	if e.Detail != nil {
		raw, err := json.Marshal(e.Detail)
		if err != nil {
			return nil, fmt.Errorf("marshal %s detail: %w", e.Kind, err)
		}
		out.Detail = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the detail into the type the kind requires.
func (e *MemoryEvent) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("kind %d: %w", uint8(in.Kind), ErrInvalidEventKind)
	}

	var d Detail
	var err error
	switch detailFor(in.Kind) {
	case detailCombat:
		d, err = decodeDetail[CombatDetail](in.Detail)
	case detailFavor:
		d, err = decodeDetail[FavorDetail](in.Detail)
	case detailSocial:
		d, err = decodeDetail[SocialDetail](in.Detail)
	case detailBetrayal:
		d, err = decodeDetail[BetrayalDetail](in.Detail)
	case detailKill:
		d, err = decodeDetail[KillDetail](in.Detail)
	}
	if err != nil {
		return fmt.Errorf("decode %s detail: %w", in.Kind, err)
	}

	*e = MemoryEvent{Kind: in.Kind, Other: in.Other, Tick: in.Tick, Seq: in.Seq, Detail: d}
	return nil
}

func decodeDetail[T Detail](raw json.RawMessage) (Detail, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
