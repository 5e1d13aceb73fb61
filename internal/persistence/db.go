// Package persistence provides SQLite-based world state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/engine"
	"github.com/talgya/cutthroat/internal/social"
	"github.com/talgya/cutthroat/internal/world"
)

// Meta keys.
const (
	metaSeed     = "seed"
	metaTick     = "last_tick"
	metaEventSeq = "event_seq"
	metaControl  = "control_json"
	metaKills    = "kills_json"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		alive INTEGER NOT NULL,
		location TEXT NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gangs (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		leader_id TEXT NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		location TEXT NOT NULL,
		actors_json TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_world_events_tick ON world_events(tick);
	CREATE INDEX IF NOT EXISTS idx_actors_alive ON actors(alive);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type actorRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Alive    bool   `db:"alive"`
	Location string `db:"location"`
	Data     []byte `db:"data"`
}

type gangRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	LeaderID string `db:"leader_id"`
	Data     string `db:"data"`
}

type eventRow struct {
	ID          string `db:"id"`
	Tick        int64  `db:"tick"`
	Kind        string `db:"kind"`
	Location    string `db:"location"`
	ActorsJSON  string `db:"actors_json"`
	Description string `db:"description"`
}

// SaveActors writes all actors (full replace).
func (db *DB) SaveActors(tx *sqlx.Tx, actors []engine.SavedActor) error {
	if _, err := tx.Exec("DELETE FROM actors"); err != nil {
		return err
	}
	stmt, err := tx.PrepareNamed(`INSERT INTO actors (id, name, alive, location, data)
		VALUES (:id, :name, :alive, :location, :data)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range actors {
		row := actorRow{ID: string(a.ID), Name: a.Name, Alive: a.Alive, Location: string(a.Location), Data: a.Data}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert actor %s: %w", a.ID, err)
		}
	}
	return nil
}

// SaveGangs writes all gangs (full replace).
func (db *DB) SaveGangs(tx *sqlx.Tx, gangs []social.Gang) error {
	if _, err := tx.Exec("DELETE FROM gangs"); err != nil {
		return err
	}
	for _, g := range gangs {
		data, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("encode gang %d: %w", g.ID, err)
		}
		if _, err := tx.Exec("INSERT INTO gangs (id, name, leader_id, data) VALUES (?, ?, ?, ?)",
			int64(g.ID), g.Name, string(g.LeaderID), string(data)); err != nil {
			return fmt.Errorf("insert gang %d: %w", g.ID, err)
		}
	}
	return nil
}

// SaveEvents appends events; ones already stored are skipped.
func (db *DB) SaveEvents(tx *sqlx.Tx, events []engine.WorldEvent) error {
	for _, e := range events {
		actors, err := json.Marshal(e.Actors)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT OR IGNORE INTO world_events
			(id, tick, kind, location, actors_json, description) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID.String(), int64(e.Tick), string(e.Kind), string(e.Location), string(actors), e.Description,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}
	return nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	return saveMeta(db.conn, key, value)
}

func saveMeta(ex sqlx.Execer, key, value string) error {
	_, err := ex.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a save exists.
func (db *DB) HasWorldState() (bool, error) {
	_, err := db.GetMeta(metaTick)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// SaveWorldState performs a full save of st in one transaction.
func (db *DB) SaveWorldState(st engine.State) error {
	slog.Info("saving world state", "tick", st.Tick, "actors", len(st.Actors), "gangs", len(st.Gangs))

	control, err := json.Marshal(st.Control)
	if err != nil {
		return fmt.Errorf("encode control: %w", err)
	}
	kills, err := json.Marshal(st.Kills)
	if err != nil {
		return fmt.Errorf("encode kills: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := db.SaveActors(tx, st.Actors); err != nil {
		return fmt.Errorf("save actors: %w", err)
	}
	if err := db.SaveGangs(tx, st.Gangs); err != nil {
		return fmt.Errorf("save gangs: %w", err)
	}
	if err := db.SaveEvents(tx, st.Events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	meta := map[string]string{
		metaSeed:     strconv.FormatInt(st.Seed, 10),
		metaTick:     strconv.FormatUint(st.Tick, 10),
		metaEventSeq: strconv.FormatUint(st.EventSeq, 10),
		metaControl:  string(control),
		metaKills:    string(kills),
	}
	for k, v := range meta {
		if err := saveMeta(tx, k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("world state saved")
	return nil
}

// LoadWorldState reads the last save. Only the newest
// engine.MaxRecentEvents events are loaded.
func (db *DB) LoadWorldState() (engine.State, error) {
	var st engine.State

	seed, err := db.metaUint("seed", metaSeed)
	if err != nil {
		return st, err
	}
	st.Seed = int64(seed)
	if st.Tick, err = db.metaUint("tick", metaTick); err != nil {
		return st, err
	}
	if st.EventSeq, err = db.metaUint("event seq", metaEventSeq); err != nil {
		return st, err
	}
	if err := db.metaJSON(metaControl, &st.Control); err != nil {
		return st, err
	}
	if err := db.metaJSON(metaKills, &st.Kills); err != nil {
		return st, err
	}

	var actors []actorRow
	if err := db.conn.Select(&actors, "SELECT id, name, alive, location, data FROM actors ORDER BY id"); err != nil {
		return st, fmt.Errorf("load actors: %w", err)
	}
	for _, r := range actors {
		st.Actors = append(st.Actors, engine.SavedActor{
			ID: agents.ActorID(r.ID), Name: r.Name, Alive: r.Alive, Location: world.LocationID(r.Location), Data: r.Data,
		})
	}

	var gangs []gangRow
	if err := db.conn.Select(&gangs, "SELECT id, name, leader_id, data FROM gangs ORDER BY id"); err != nil {
		return st, fmt.Errorf("load gangs: %w", err)
	}
	for _, r := range gangs {
		var g social.Gang
		if err := json.Unmarshal([]byte(r.Data), &g); err != nil {
			return st, fmt.Errorf("decode gang %d: %w", r.ID, err)
		}
		st.Gangs = append(st.Gangs, g)
	}

	events, err := db.RecentEvents(engine.MaxRecentEvents)
	if err != nil {
		return st, err
	}
	// RecentEvents is newest first; the simulation wants oldest first.
	for i := len(events) - 1; i >= 0; i-- {
		st.Events = append(st.Events, events[i])
	}
	return st, nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.WorldEvent, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT id, tick, kind, location, actors_json, description FROM world_events ORDER BY seq DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	out := make([]engine.WorldEvent, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("event id %q: %w", r.ID, err)
		}
		ev := engine.WorldEvent{
			ID:          id,
			Tick:        uint64(r.Tick),
			Kind:        engine.EventKind(r.Kind),
			Location:    world.LocationID(r.Location),
			Description: r.Description,
		}
		if err := json.Unmarshal([]byte(r.ActorsJSON), &ev.Actors); err != nil {
			return nil, fmt.Errorf("event %s actors: %w", r.ID, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (db *DB) metaUint(what, key string) (uint64, error) {
	v, err := db.GetMeta(key)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", what, err)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		// Seeds may be negative.
		i, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil {
			return 0, fmt.Errorf("parse %s %q: %w", what, v, err)
		}
		return uint64(i), nil
	}
	return n, nil
}

func (db *DB) metaJSON(key string, target any) error {
	v, err := db.GetMeta(key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(v), target); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
