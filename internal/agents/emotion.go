package agents

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// EmotionKind enumerates the moods an actor can hold.
type EmotionKind uint8

const (
	EmotionAnger EmotionKind = iota + 1
	EmotionFear
	EmotionJoy
	EmotionSadness
	EmotionGratitude
	EmotionPride
	EmotionShame
	numEmotions
)

var emotionNames = [numEmotions]string{
	"", "anger", "fear", "joy", "sadness", "gratitude", "pride", "shame",
}

// Valid reports whether k is a known emotion.
func (k EmotionKind) Valid() bool {
	return k > 0 && k < numEmotions
}

func (k EmotionKind) String() string {
	if k.Valid() {
		return emotionNames[k]
	}
	return fmt.Sprintf("emotion(%d)", uint8(k))
}

// DefaultEmotionDuration is the lifetime, in ticks, of an emotion added
// without an explicit duration.
const DefaultEmotionDuration = 6.0

// Emotion is one active mood.
type Emotion struct {
	Intensity float64 `json:"intensity"` // Base intensity, 0–1
	Duration  float64 `json:"duration"`  // Lifetime when set
	Remaining float64 `json:"remaining"` // Ticks left
}

// Current returns intensity scaled by the fraction of lifetime remaining.
func (e Emotion) Current() float64 {
	if e.Duration <= 0 || e.Remaining <= 0 {
		return 0
	}
	return e.Intensity * e.Remaining / e.Duration
}

// EmotionalState maps emotion kinds to their intensity and remaining time.
// An emotion whose remaining time reaches zero is removed.
type EmotionalState struct {
	emotions map[EmotionKind]Emotion
}

// NewEmotionalState returns a calm state.
func NewEmotionalState() *EmotionalState {
	return &EmotionalState{emotions: make(map[EmotionKind]Emotion)}
}

// AddEmotion sets or refreshes an emotion. Intensity is clamped to [0, 1];
// a duration <= 0 means DefaultEmotionDuration. Refreshing keeps the
// stronger intensity and the longer remaining time.
func (s *EmotionalState) AddEmotion(kind EmotionKind, intensity, duration float64) error {
	if !kind.Valid() {
		return fmt.Errorf("add %s: %w", kind, ErrInvalidEmotion)
	}
	if math.IsNaN(intensity) || math.IsInf(intensity, 0) || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return fmt.Errorf("add %s: %w", kind, ErrInvalidIntensity)
	}
	if duration <= 0 {
		duration = DefaultEmotionDuration
	}
	intensity = clamp01(intensity)
	if intensity == 0 {
		return nil
	}

	next := Emotion{Intensity: intensity, Duration: duration, Remaining: duration}
	if cur, ok := s.emotions[kind]; ok {
		if cur.Current() > next.Intensity {
			// Keep the stronger mood but restart its clock from what it
			// is felt at now, so intensity stays continuous.
			next.Intensity = cur.Current()
		}
		if cur.Remaining > next.Remaining {
			next.Remaining = cur.Remaining
			next.Duration = cur.Remaining
		}
	}
	s.emotions[kind] = next
	return nil
}

// Update decays every emotion by dt ticks and drops the expired ones.
// Decay is additive: Update(a) then Update(b) equals Update(a+b).
// Negative or non-finite dt is ignored.
func (s *EmotionalState) Update(dt float64) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}
	for k, e := range s.emotions {
		e.Remaining -= dt
		if e.Remaining <= 0 {
			delete(s.emotions, k)
			continue
		}
		s.emotions[k] = e
	}
}

// Intensity returns the current intensity of kind, 0 when absent.
func (s *EmotionalState) Intensity(kind EmotionKind) float64 {
	return s.emotions[kind].Current()
}

// Remaining returns the ticks left for kind, 0 when absent.
func (s *EmotionalState) Remaining(kind EmotionKind) float64 {
	return s.emotions[kind].Remaining
}

// Has reports whether kind is active.
func (s *EmotionalState) Has(kind EmotionKind) bool {
	_, ok := s.emotions[kind]
	return ok
}

// Len returns the number of active emotions.
func (s *EmotionalState) Len() int {
	return len(s.emotions)
}

// Dominant returns the strongest active emotion. Ties go to the lower kind.
func (s *EmotionalState) Dominant() (EmotionKind, float64, bool) {
	var best EmotionKind
	bestVal := 0.0
	for _, k := range s.kinds() {
		if v := s.emotions[k].Current(); v > bestVal {
			best, bestVal = k, v
		}
	}
	return best, bestVal, best != 0
}

// Snapshot returns a copy of the active emotions.
func (s *EmotionalState) Snapshot() map[EmotionKind]Emotion {
	out := make(map[EmotionKind]Emotion, len(s.emotions))
	for k, e := range s.emotions {
		out[k] = e
	}
	return out
}

// interactionEmotion is one emotional response to a remembered event.
type interactionEmotion struct {
	kind      EmotionKind
	intensity float64
	duration  float64
}

var interactionEmotions = map[EventKind][]interactionEmotion{
	EventWasAttacked:  {{EmotionAnger, 0.7, 8}, {EmotionFear, 0.4, 4}},
	EventWasHelped:    {{EmotionGratitude, 0.6, 12}, {EmotionJoy, 0.3, 4}},
	EventSharedDrink:  {{EmotionJoy, 0.4, 4}},
	EventWasBetrayed:  {{EmotionAnger, 0.9, 24}, {EmotionSadness, 0.5, 12}},
	EventLostTo:       {{EmotionShame, 0.6, 12}, {EmotionFear, 0.5, 6}},
	EventWonAgainst:   {{EmotionPride, 0.6, 8}},
	EventTraded:       {{EmotionJoy, 0.2, 2}},
	EventPurchased:    {{EmotionPride, 0.3, 4}},
	EventKilled:       {{EmotionPride, 0.5, 12}, {EmotionFear, 0.3, 12}},
	EventFriendKilled: {{EmotionSadness, 0.9, 48}, {EmotionAnger, 0.8, 24}},
	EventJoinedGang:   {{EmotionPride, 0.5, 12}, {EmotionJoy, 0.5, 6}},
}

// ProcessInteraction derives emotions from a memory event kind, scaled by
// importance in [0, 1]. Kinds with no emotional weight are ignored.
func (s *EmotionalState) ProcessInteraction(kind EventKind, other ActorID, importance float64) error {
	if !kind.Valid() {
		return fmt.Errorf("interaction from %s: %w", other, ErrInvalidEventKind)
	}
	importance = clamp01(importance)
	for _, r := range interactionEmotions[kind] {
		if err := s.AddEmotion(r.kind, r.intensity*importance, r.duration); err != nil {
			return err
		}
	}
	return nil
}

func (s *EmotionalState) kinds() []EmotionKind {
	keys := make([]EmotionKind, 0, len(s.emotions))
	for k := range s.emotions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MarshalJSON writes the active emotions.
func (s *EmotionalState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.emotions)
}

// UnmarshalJSON restores the active emotions, dropping invalid or expired
// entries.
func (s *EmotionalState) UnmarshalJSON(data []byte) error {
	var in map[EmotionKind]Emotion
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.emotions = make(map[EmotionKind]Emotion, len(in))
	for k, e := range in {
		if !k.Valid() || e.Remaining <= 0 {
			continue
		}
		e.Intensity = clamp01(e.Intensity)
		s.emotions[k] = e
	}
	return nil
}
