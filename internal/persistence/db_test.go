package persistence

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/cutthroat/internal/engine"
	"github.com/talgya/cutthroat/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "world.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func runSim(t *testing.T, seed int64) *engine.Simulation {
	t.Helper()
	cfg := world.DefaultGenConfig()
	cfg.Seed = seed
	s := engine.New(engine.Options{Seed: seed, Catalog: world.Generate(cfg), Workers: 2})
	if err := s.Initialize(s.Spawner().SpawnPopulation(12, s.Catalog(), 0)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := s.SimulateHours(context.Background(), 72); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return s
}

func TestEmptyDatabaseHasNoState(t *testing.T) {
	db := openTestDB(t)
	ok, err := db.HasWorldState()
	if err != nil || ok {
		t.Fatalf("fresh db: ok=%v err=%v", ok, err)
	}
}

func TestWorldStateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := runSim(t, -13)
	st, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := db.SaveWorldState(st); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Saving twice must not duplicate events.
	if err := db.SaveWorldState(st); err != nil {
		t.Fatalf("second save: %v", err)
	}

	ok, err := db.HasWorldState()
	if err != nil || !ok {
		t.Fatalf("expected saved state: ok=%v err=%v", ok, err)
	}
	got, err := db.LoadWorldState()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Seed != st.Seed || got.Tick != st.Tick || got.EventSeq != st.EventSeq {
		t.Fatalf("meta mismatch: got seed=%d tick=%d seq=%d", got.Seed, got.Tick, got.EventSeq)
	}
	if len(got.Actors) != len(st.Actors) || len(got.Events) != len(st.Events) {
		t.Fatalf("counts differ: actors %d/%d events %d/%d",
			len(got.Actors), len(st.Actors), len(got.Events), len(st.Events))
	}
	if !reflect.DeepEqual(got.Events, st.Events) {
		t.Fatalf("events differ after load")
	}

	r := engine.New(engine.Options{Seed: got.Seed, Catalog: s.Catalog(), Workers: 2})
	if err := r.Restore(got); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(r.GetAliveNPCs()) != len(s.GetAliveNPCs()) {
		t.Fatalf("alive counts differ after restore")
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("k", "v1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveMeta("k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, err := db.GetMeta("k"); err != nil || v != "v2" {
		t.Fatalf("GetMeta = %q, %v", v, err)
	}
}
