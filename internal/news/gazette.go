// Package news keeps the town's daily gazette: a tally of the day's World
// Events rendered as a broadsheet, narrated by a language model when one is
// configured.
package news

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/cutthroat/internal/engine"
)

// Section caps keep an edition readable.
const (
	maxDeaths = 5
	maxItems  = 3
)

// Tally collects one day's events.
type Tally struct {
	Deaths   []string `json:"deaths"`
	Revenge  []string `json:"revenge"`
	Crimes   []string `json:"crimes"`
	Gangs    []string `json:"gangs"`
	Control  []string `json:"control"`
	Charity  []string `json:"charity"`
	Fights   int      `json:"fights"`
	Arrivals int      `json:"arrivals"`
	Purchase int      `json:"purchases"`
}

// Empty reports whether nothing happened.
func (t Tally) Empty() bool {
	return len(t.Deaths)+len(t.Revenge)+len(t.Crimes)+len(t.Gangs)+len(t.Control)+len(t.Charity) == 0 &&
		t.Fights+t.Arrivals+t.Purchase == 0
}

// Census is the state of the town at press time.
type Census struct {
	SimTime     string
	Alive       int
	Dead        int
	Gangs       int
	TotalGold   int64
	Leaderboard []engine.KillRecord
}

// Edition is one printed issue.
type Edition struct {
	Number      int       `json:"number"`
	GeneratedAt time.Time `json:"generated_at"`
	SimTime     string    `json:"sim_time"`
	Content     string    `json:"content"`
	Narrated    bool      `json:"narrated"`
	Tally       Tally     `json:"tally"`
}

// Gazette is an engine.EventSink that tallies events between editions.
type Gazette struct {
	narrator Narrator
	log      *slog.Logger

	mu      sync.Mutex
	tally   Tally
	latest  *Edition
	printed int
}

// NewGazette creates a gazette. A nil narrator prints from the template.
func NewGazette(narrator Narrator, log *slog.Logger) *Gazette {
	if log == nil {
		log = slog.Default()
	}
	if o, ok := narrator.(*OpenAI); ok && !o.Enabled() {
		narrator = nil
	}
	return &Gazette{narrator: narrator, log: log}
}

// Publish files ev under the right column.
func (g *Gazette) Publish(ev engine.WorldEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := &g.tally
	switch ev.Kind {
	case engine.EventDeath:
		t.Deaths = append(t.Deaths, ev.Description)
	case engine.EventFight:
		t.Fights++
	case engine.EventRevenge:
		t.Fights++
		t.Revenge = append(t.Revenge, ev.Description)
	case engine.EventRobbery:
		t.Crimes = append(t.Crimes, ev.Description)
	case engine.EventGangFormed, engine.EventGangJoined, engine.EventGangLeft, engine.EventGangDissolved:
		t.Gangs = append(t.Gangs, ev.Description)
	case engine.EventControl:
		t.Control = append(t.Control, ev.Description)
	case engine.EventCharity:
		t.Charity = append(t.Charity, ev.Description)
	case engine.EventArrival:
		t.Arrivals++
	case engine.EventPurchase:
		t.Purchase++
	}
}

// Pending returns a copy of the tally collected since the last edition.
func (g *Gazette) Pending() Tally {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyTally(g.tally)
}

// Latest returns the most recent edition.
func (g *Gazette) Latest() (*Edition, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest, g.latest != nil
}

// Print closes the current tally and renders an edition from it. Narration
// failures fall back to the template.
func (g *Gazette) Print(ctx context.Context, c Census) *Edition {
	g.mu.Lock()
	tally := g.tally
	g.tally = Tally{}
	g.printed++
	number := g.printed
	g.mu.Unlock()

	ed := &Edition{
		Number:      number,
		GeneratedAt: time.Now(),
		SimTime:     c.SimTime,
		Tally:       tally,
	}
	if g.narrator != nil {
		content, err := g.narrator.Narrate(ctx, editorBrief, buildPrompt(number, c, tally), 900)
		if err == nil && strings.TrimSpace(content) != "" {
			ed.Content, ed.Narrated = content, true
		} else if err != nil {
			g.log.Warn("gazette narration failed, using template", "error", err)
		}
	}
	if !ed.Narrated {
		ed.Content = renderTemplate(number, c, tally)
	}

	g.mu.Lock()
	g.latest = ed
	g.mu.Unlock()
	return ed
}

func copyTally(t Tally) Tally {
	c := t
	c.Deaths = append([]string(nil), t.Deaths...)
	c.Revenge = append([]string(nil), t.Revenge...)
	c.Crimes = append([]string(nil), t.Crimes...)
	c.Gangs = append([]string(nil), t.Gangs...)
	c.Control = append([]string(nil), t.Control...)
	c.Charity = append([]string(nil), t.Charity...)
	return c
}

const editorBrief = `You are the editor of "The Gallows Gazette", the only broadsheet in a lawless port town where gangs fight over the docks and the taverns. Write the day's edition in lurid penny-dreadful prose: lead with the deaths, then the gang news, then the crime blotter. Name names. Keep it under 400 words. Do not break character or mention that the town is simulated.`

func buildPrompt(number int, c Census, t Tally) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the %s edition of The Gallows Gazette.\n\n", humanize.Ordinal(number))
	fmt.Fprintf(&b, "DATE: %s\n", c.SimTime)
	fmt.Fprintf(&b, "TOWN: %s living, %s buried, %d gangs, %s gold in circulation.\n",
		humanize.Comma(int64(c.Alive)), humanize.Comma(int64(c.Dead)), c.Gangs, humanize.Comma(c.TotalGold))
	fmt.Fprintf(&b, "TODAY: %d fights, %d newcomers, %d blades sold.\n\n", t.Fights, t.Arrivals, t.Purchase)
	writeList(&b, "DEATHS", t.Deaths, maxDeaths)
	writeList(&b, "REVENGE", t.Revenge, maxItems)
	writeList(&b, "GANG NEWS", append(append([]string(nil), t.Gangs...), t.Control...), maxDeaths)
	writeList(&b, "CRIMES", t.Crimes, maxItems)
	writeList(&b, "KINDNESSES", t.Charity, maxItems)
	writeLeaderboard(&b, c.Leaderboard)
	return b.String()
}

func renderTemplate(number int, c Census, t Tally) string {
	var b strings.Builder
	fmt.Fprintf(&b, "THE GALLOWS GAZETTE, %s EDITION\n", strings.ToUpper(humanize.Ordinal(number)))
	fmt.Fprintf(&b, "================================\n")
	fmt.Fprintf(&b, "%s\n\n", c.SimTime)

	fmt.Fprintf(&b, "The town counts %s souls above ground and %s below.\n",
		humanize.Comma(int64(c.Alive)), humanize.Comma(int64(c.Dead)))
	fmt.Fprintf(&b, "%d gangs walk the streets; %s gold changes hands.\n\n", c.Gangs, humanize.Comma(c.TotalGold))

	if t.Empty() {
		b.WriteString("A quiet day. Nobody worth mentioning died.\n\n")
	}
	writeList(&b, "OBITUARIES", t.Deaths, maxDeaths)
	writeList(&b, "SCORES SETTLED", t.Revenge, maxItems)
	writeList(&b, "GANG AFFAIRS", t.Gangs, maxDeaths)
	writeList(&b, "TERRITORY", t.Control, maxItems)
	writeList(&b, "CRIME BLOTTER", t.Crimes, maxItems)
	writeList(&b, "SMALL MERCIES", t.Charity, maxItems)
	if t.Fights > 0 {
		fmt.Fprintf(&b, "Brawls reported: %d.\n", t.Fights)
	}
	if t.Arrivals > 0 {
		fmt.Fprintf(&b, "Fresh faces off the boats: %d.\n", t.Arrivals)
	}
	if t.Fights+t.Arrivals > 0 {
		b.WriteString("\n")
	}
	writeLeaderboard(&b, c.Leaderboard)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n", title)
	for i, it := range items {
		if i >= limit {
			fmt.Fprintf(b, "...and %d more.\n", len(items)-limit)
			break
		}
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func writeLeaderboard(b *strings.Builder, board []engine.KillRecord) {
	if len(board) == 0 {
		return
	}
	b.WriteString("MOST FEARED\n")
	for i, r := range board {
		name := r.Name
		if name == "" {
			name = string(r.Actor)
		}
		fmt.Fprintf(b, "%s. %s, %d kills\n", humanize.Ordinal(i+1), name, r.Kills)
	}
}
