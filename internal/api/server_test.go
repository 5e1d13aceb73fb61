package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/engine"
	"github.com/talgya/cutthroat/internal/news"
	"github.com/talgya/cutthroat/internal/world"
)

type memSaver struct {
	saved []engine.State
	err   error
}

func (m *memSaver) SaveWorldState(st engine.State) error {
	m.saved = append(m.saved, st)
	return m.err
}

func newTestServer(t *testing.T) (*Server, *memSaver) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := world.DefaultGenConfig()
	cfg.Seed = 21
	gazette := news.NewGazette(nil, nil)
	sim := engine.New(engine.Options{Seed: 21, Catalog: world.Generate(cfg), Sink: gazette, Workers: 2})
	if err := sim.Initialize(sim.Spawner().SpawnPopulation(10, sim.Catalog(), 0)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := sim.SimulateHours(context.Background(), 24); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	db := &memSaver{}
	return &Server{
		Sim:      sim,
		Eng:      engine.NewEngine(sim, time.Second),
		Gazette:  gazette,
		DB:       db,
		AdminKey: "secret",
	}, db
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublicEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	for _, path := range []string{
		"/api/v1/status", "/api/v1/actors", "/api/v1/events?limit=5", "/api/v1/gangs",
		"/api/v1/territory", "/api/v1/leaderboard", "/api/v1/locations", "/api/v1/newspaper",
	} {
		if rec := do(t, h, http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d: %s", path, rec.Code, rec.Body.String())
		}
	}

	var status struct {
		Tick  uint64       `json:"tick"`
		Stats engine.Stats `json:"stats"`
	}
	rec := do(t, h, http.MethodGet, "/api/v1/status", "", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Tick != 24 || status.Stats.Alive == 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestActorDetail(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	id := s.Sim.ActorViews(true)[0].ID

	rec := do(t, h, http.MethodGet, "/api/v1/actors/"+string(id), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail = %d", rec.Code)
	}
	var d engine.ActorDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.ID != id {
		t.Fatalf("got actor %s, want %s", d.ID, id)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/actors/nobody", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing actor = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/relationship?from="+string(id), "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("relationship without to = %d", rec.Code)
	}
}

func TestAdminRequiresToken(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/pause", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/pause", "wrong", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/pause", "secret", nil); rec.Code != http.StatusOK || !s.Eng.Paused() {
		t.Fatalf("pause = %d paused=%v", rec.Code, s.Eng.Paused())
	}

	s.AdminKey = ""
	if rec := do(t, s.Router(), http.MethodPost, "/api/v1/admin/resume", "", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("disabled admin = %d", rec.Code)
	}
}

func TestAdminActions(t *testing.T) {
	s, db := newTestServer(t)
	h := s.Router()

	if rec := do(t, h, http.MethodPost, "/api/v1/admin/save", "secret", nil); rec.Code != http.StatusOK || len(db.saved) != 1 {
		t.Fatalf("save = %d (%d saves)", rec.Code, len(db.saved))
	}
	db.err = errors.New("disk full")
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/save", "secret", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("failing save = %d", rec.Code)
	}

	before := len(s.Sim.ActorViews(false))
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/spawn", "secret", gin.H{"count": 3}); rec.Code != http.StatusOK {
		t.Fatalf("spawn = %d: %s", rec.Code, rec.Body.String())
	}
	if got := len(s.Sim.ActorViews(false)); got != before+3 {
		t.Fatalf("actors after spawn = %d, want %d", got, before+3)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/spawn", "secret", gin.H{"count": 500}); rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized spawn = %d", rec.Code)
	}

	target := s.Sim.ActorViews(true)[0]
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/grant", "secret", gin.H{"actor": target.ID, "amount": 25}); rec.Code != http.StatusOK {
		t.Fatalf("grant = %d", rec.Code)
	}
	if d, _ := s.Sim.ActorDetail(target.ID); d.Gold != target.Gold+25 {
		t.Fatalf("gold = %d, want %d", d.Gold, target.Gold+25)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/grant", "secret", gin.H{"actor": "ghost", "amount": 5}); rec.Code != http.StatusNotFound {
		t.Fatalf("grant to ghost = %d", rec.Code)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/admin/speed", "secret", gin.H{"speed": 4}); rec.Code != http.StatusOK || s.Eng.Speed() != 4 {
		t.Fatalf("speed = %d (%v)", rec.Code, s.Eng.Speed())
	}
}

func TestPlayerActionEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	player := agents.NewActor("hero", "Hero", agents.Personality{}, "rusty-anchor")
	if err := s.Sim.AddPlayer(player); err != nil {
		t.Fatalf("add player: %v", err)
	}

	path := "/api/v1/admin/actors/hero/action"
	if rec := do(t, h, http.MethodPost, path, "secret", gin.H{"kind": "dance"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, path, "secret", gin.H{"kind": "move_to", "destination": "docks"}); rec.Code != http.StatusAccepted {
		t.Fatalf("move = %d: %s", rec.Code, rec.Body.String())
	}
	npc := s.Sim.GetAliveNPCs()[0].ID
	if rec := do(t, h, http.MethodPost, "/api/v1/admin/actors/"+string(npc)+"/action", "secret", gin.H{"kind": "rest"}); rec.Code != http.StatusConflict {
		t.Fatalf("npc action = %d", rec.Code)
	}
}

func TestNewspaperIsRateLimited(t *testing.T) {
	s, _ := newTestServer(t)
	s.NewspaperLimit = 2
	h := s.Router()
	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodGet, "/api/v1/newspaper", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, "/api/v1/newspaper", "", nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("third request = %d", rec.Code)
	}
}
