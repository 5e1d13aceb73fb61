package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/world"
)

// EventKind categorises a world event.
type EventKind string

const (
	EventDeath         EventKind = "death"
	EventFight         EventKind = "fight"
	EventRevenge       EventKind = "revenge"
	EventGangFormed    EventKind = "gang_formed"
	EventGangJoined    EventKind = "gang_joined"
	EventGangLeft      EventKind = "gang_left"
	EventGangDissolved EventKind = "gang_dissolved"
	EventControl       EventKind = "control"
	EventPurchase      EventKind = "purchase"
	EventRobbery       EventKind = "robbery"
	EventCharity       EventKind = "charity"
	EventArrival       EventKind = "arrival"
)

// MaxRecentEvents is how many events the simulation keeps in memory.
const MaxRecentEvents = 1000

// WorldEvent is a notable occurrence, visible to observers.
type WorldEvent struct {
	ID          uuid.UUID        `json:"id"`
	Tick        uint64           `json:"tick"`
	Kind        EventKind        `json:"kind"`
	Actors      []agents.ActorID `json:"actors"`
	Location    world.LocationID `json:"location,omitempty"`
	Description string           `json:"description"`
}

// EventSink receives every world event. Publish must not block for long;
// the simulation calls it inline during the apply phase.
type EventSink interface {
	Publish(ev WorldEvent)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(WorldEvent)

func (f SinkFunc) Publish(ev WorldEvent) { f(ev) }

// MultiSink fans events out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Publish(ev WorldEvent) {
	for _, s := range m {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// eventNamespace scopes event IDs so equal (seed, tick, seq) triples in
// other systems never collide with ours.
var eventNamespace = uuid.MustParse("6f1c2a9e-7c43-4b8e-9d4a-2f5e8b1c0a77")

// eventID derives a stable ID: the same seed replays to the same IDs.
func eventID(seed int64, tick, seq uint64) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, fmt.Appendf(nil, "%d/%d/%d", seed, tick, seq))
}

// eventLog is a fixed-size ring of recent events.
type eventLog struct {
	buf   []WorldEvent
	start int
	n     int
}

func newEventLog(size int) *eventLog {
	return &eventLog{buf: make([]WorldEvent, size)}
}

func (l *eventLog) push(ev WorldEvent) {
	if l.n < len(l.buf) {
		l.buf[(l.start+l.n)%len(l.buf)] = ev
		l.n++
		return
	}
	l.buf[l.start] = ev
	l.start = (l.start + 1) % len(l.buf)
}

// recent returns up to n of the newest events, oldest first.
func (l *eventLog) recent(n int) []WorldEvent {
	if n <= 0 || n > l.n {
		n = l.n
	}
	out := make([]WorldEvent, 0, n)
	for i := l.n - n; i < l.n; i++ {
		out = append(out, l.buf[(l.start+i)%len(l.buf)])
	}
	return out
}

func (l *eventLog) len() int { return l.n }

// publish forwards ev to sink, swallowing sink panics.
func publish(sink EventSink, ev WorldEvent, log *slog.Logger) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("event sink panicked", "kind", ev.Kind, "tick", ev.Tick, "panic", r)
		}
	}()
	sink.Publish(ev)
}
