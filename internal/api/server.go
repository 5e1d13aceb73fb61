// Package api provides the HTTP API for watching the town.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talgya/cutthroat/internal/agents"
	"github.com/talgya/cutthroat/internal/engine"
	"github.com/talgya/cutthroat/internal/news"
	"github.com/talgya/cutthroat/internal/world"
)

const (
	defaultEventLimit = 50
	defaultBoardSize  = 10
)

// Saver persists a world snapshot.
type Saver interface {
	SaveWorldState(engine.State) error
}

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	Gazette  *news.Gazette
	DB       Saver
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// NewspaperLimit caps newspaper reads per client per hour.
	NewspaperLimit int
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	limit := s.NewspaperLimit
	if limit <= 0 {
		limit = 30
	}
	newspaperLimiter := NewRateLimiter(limit, time.Hour)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	v1 := r.Group("/api/v1")
	{
		// Public endpoints.
		v1.GET("/status", s.handleStatus)
		v1.GET("/actors", s.handleActors)
		v1.GET("/actors/:id", s.handleActor)
		v1.GET("/relationship", s.handleRelationship)
		v1.GET("/events", s.handleEvents)
		v1.GET("/gangs", s.handleGangs)
		v1.GET("/territory", s.handleTerritory)
		v1.GET("/leaderboard", s.handleLeaderboard)
		v1.GET("/locations", s.handleLocations)
		v1.GET("/newspaper", RateLimit(newspaperLimiter), s.handleNewspaper)
	}

	admin := v1.Group("/admin", s.adminOnly())
	{
		admin.POST("/save", s.handleSave)
		admin.POST("/pause", s.handlePause)
		admin.POST("/resume", s.handleResume)
		admin.POST("/speed", s.handleSpeed)
		admin.POST("/spawn", s.handleSpawn)
		admin.POST("/grant", s.handleGrant)
		admin.POST("/actors/:id/action", s.handlePlayerAction)
	}
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// adminOnly requires a bearer token matching AdminKey.
func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.AdminKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin endpoints disabled (no admin key set)"})
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	tick := s.Sim.Tick()
	status := gin.H{
		"name":     "Cutthroat",
		"tick":     tick,
		"sim_time": engine.SimTime(tick),
		"stats":    s.Sim.Stats(),
	}
	if s.Eng != nil {
		status["paused"] = s.Eng.Paused()
		status["speed"] = s.Eng.Speed()
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleActors(c *gin.Context) {
	alive := c.Query("alive") != "false"
	views := s.Sim.ActorViews(alive)
	if loc := c.Query("location"); loc != "" {
		filtered := views[:0]
		for _, v := range views {
			if string(v.Location) == loc {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "actors": views})
}

func (s *Server) handleActor(c *gin.Context) {
	d, ok := s.Sim.ActorDetail(agents.ActorID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "actor not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleRelationship(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}
	r := s.Sim.Relations().GetRelationshipStatus(agents.ActorID(from), agents.ActorID(to))
	c.JSON(http.StatusOK, gin.H{
		"from": from, "to": to,
		"friendship": r.Friendship, "trust": r.Trust, "hostility": r.Hostility,
		"status": r.Status.String(),
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	limit := queryInt(c, "limit", defaultEventLimit)
	limit = min(max(limit, 1), engine.MaxRecentEvents)
	events := s.Sim.GetRecentEvents(limit)
	if kind := c.Query("kind"); kind != "" {
		filtered := events[:0]
		for _, e := range events {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

func (s *Server) handleGangs(c *gin.Context) {
	gangs := s.Sim.Gangs()
	held := make(map[uint64]int)
	for _, id := range s.Sim.Territory() {
		held[id]++
	}
	out := make([]gin.H, 0, len(gangs))
	for _, g := range gangs {
		out = append(out, gin.H{
			"id":           g.ID,
			"name":         g.Name,
			"leader_id":    g.LeaderID,
			"members":      g.Members,
			"size":         g.Size(),
			"founded_tick": g.FoundedTick,
			"territory":    held[g.ID],
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "gangs": out})
}

func (s *Server) handleTerritory(c *gin.Context) {
	c.JSON(http.StatusOK, s.Sim.Territory())
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	n := queryInt(c, "limit", defaultBoardSize)
	c.JSON(http.StatusOK, gin.H{"leaderboard": s.Sim.Relations().Leaderboard(n)})
}

func (s *Server) handleLocations(c *gin.Context) {
	locs := s.Sim.Catalog().All()
	c.JSON(http.StatusOK, gin.H{"count": len(locs), "locations": locs})
}

func (s *Server) handleNewspaper(c *gin.Context) {
	if s.Gazette == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gazette not running"})
		return
	}
	ed, ok := s.Gazette.Latest()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"edition": nil, "pending": s.Gazette.Pending()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"edition": ed, "pending": s.Gazette.Pending()})
}

func (s *Server) handleSave(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not available"})
		return
	}
	st, err := s.Sim.Export()
	if err == nil {
		err = s.DB.SaveWorldState(st)
	}
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tick": st.Tick, "message": "snapshot saved"})
}

func (s *Server) handlePause(c *gin.Context) {
	if !s.requireEngine(c) {
		return
	}
	s.Eng.Pause()
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (s *Server) handleResume(c *gin.Context) {
	if !s.requireEngine(c) {
		return
	}
	s.Eng.Resume()
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func (s *Server) handleSpeed(c *gin.Context) {
	if !s.requireEngine(c) {
		return
	}
	var req struct {
		Speed float64 `json:"speed" binding:"required,gt=0,lte=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.Eng.SetSpeed(req.Speed)
	c.JSON(http.StatusOK, gin.H{"speed": s.Eng.Speed()})
}

func (s *Server) handleSpawn(c *gin.Context) {
	var req struct {
		Count int `json:"count" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	desc, err := s.Sim.SpawnNewcomers(req.Count)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "details": desc})
}

func (s *Server) handleGrant(c *gin.Context) {
	var req struct {
		Actor  string `json:"actor" binding:"required"`
		Amount int64  `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	desc, err := s.Sim.GrantGold(agents.ActorID(req.Actor), req.Amount)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "details": desc})
}

func (s *Server) handlePlayerAction(c *gin.Context) {
	var req struct {
		Kind        string `json:"kind" binding:"required"`
		Target      string `json:"target"`
		Destination string `json:"destination"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, ok := agents.ParseActionKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action kind " + strconv.Quote(req.Kind)})
		return
	}
	id := agents.ActorID(c.Param("id"))
	act := agents.Action{
		ActorID:     id,
		Kind:        kind,
		Target:      agents.ActorID(req.Target),
		Destination: world.LocationID(req.Destination),
	}
	if err := s.Sim.SubmitPlayerAction(id, act); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": act.Kind.String(), "tick": s.Sim.Tick()})
}

func (s *Server) requireEngine(c *gin.Context) bool {
	if s.Eng == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine not running"})
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownActor):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidAction):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
