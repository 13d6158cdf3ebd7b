// Package api provides the HTTP API for observing and steering a session.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/statecraft/internal/ai"
	"github.com/talgya/statecraft/internal/economy"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/persistence"
)

// Server serves the session over HTTP.
type Server struct {
	Eng      *engine.Engine
	Clock    *engine.Clock   // Nil when the session is not running in real time
	DB       *persistence.DB // Nil disables POST /snapshot
	Metrics  http.Handler    // Mounted at /metrics when set
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// SnapshotKeep bounds stored snapshots. Zero keeps all.
	SnapshotKeep int

	// Actions is the per-client budget for POST /actions. Nil allows 60 a minute.
	Actions *RateLimiter
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	actions := s.Actions
	if actions == nil {
		actions = NewRateLimiter(60, time.Minute)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/indicators", s.handleIndicators)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/countries", s.handleCountries)
	mux.HandleFunc("/api/v1/country/", s.handleCountryDetail)
	mux.HandleFunc("/api/v1/relations", s.handleRelations)
	mux.HandleFunc("/api/v1/companies", s.handleCompanies)
	mux.HandleFunc("/api/v1/sectors", s.handleSectors)
	mux.HandleFunc("/api/v1/departments", s.handleDepartments)
	mux.HandleFunc("/api/v1/statistics", s.handleStatistics)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/actions", s.adminOnly(RateLimitMiddleware(actions, s.handleActions)))
	mux.HandleFunc("/api/v1/policy-impact", s.adminOnly(s.handlePolicyImpact))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server is
// for Shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "metrics", s.Metrics != nil)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// Shutdown stops srv, waiting up to five seconds for open requests.
func Shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly gates POST behind the admin token. Other methods pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no STATECRAFT_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	month := s.Eng.Month()
	ind := s.Eng.Indicators()
	status := map[string]any{
		"name":        "Statecraft",
		"player":      s.Eng.Player(),
		"month":       month,
		"date":        engine.SimDate(month),
		"gdp":         ind.GDP,
		"gdp_growth":  ind.GDPGrowth,
		"inflation":   ind.Inflation,
		"ai_failures": s.Eng.AIFailures(),
		"speed":       0.0,
		"running":     false,
	}
	if s.Clock != nil {
		status["speed"] = s.Clock.Speed()
		status["running"] = s.Clock.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	state, err := s.Eng.EconomicState()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, state)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.Eng.History()
	limit := queryLimit(r, len(history), len(history))
	writeJSON(w, history[len(history)-limit:])
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	type countrySummary struct {
		Name        string  `json:"name"`
		Government  string  `json:"government"`
		GDP         float64 `json:"gdp"`
		Population  float64 `json:"population"`
		GDPGrowth   float64 `json:"gdp_growth"`
		Inflation   float64 `json:"inflation"`
		Stability   float64 `json:"political_stability"`
		MilitaryStr float64 `json:"military_strength"`
		Player      bool    `json:"player"`
	}

	player := s.Eng.Player()
	countries := s.Eng.Countries()
	result := make([]countrySummary, 0, len(countries))
	for _, c := range countries {
		result = append(result, countrySummary{
			Name:        c.Name,
			Government:  c.Government.String(),
			GDP:         c.GDP,
			Population:  c.Population,
			GDPGrowth:   c.Conditions.GDPGrowth,
			Inflation:   c.Conditions.Inflation,
			Stability:   c.Conditions.PoliticalStability,
			MilitaryStr: c.MilitaryStrength,
			Player:      c.Name == player,
		})
	}
	writeJSON(w, result)
}

// handleCountryDetail serves /api/v1/country/:name and
// /api/v1/country/:name/{diplomacy,decisions}.
func (s *Server) handleCountryDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/country/")
	name, view, _ := strings.Cut(rest, "/")
	if name == "" {
		http.Error(w, "missing country name", http.StatusBadRequest)
		return
	}

	var (
		result any
		err    error
	)
	switch view {
	case "":
		result, err = s.Eng.CountryState(name)
	case "diplomacy":
		result, err = s.Eng.DiplomaticStatus(name)
	case "decisions":
		result, err = s.Eng.DecisionLog(name)
	default:
		http.Error(w, "unknown view", http.StatusNotFound)
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleRelations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.Relations())
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies := s.Eng.Companies()
	country := r.URL.Query().Get("country")
	sector := r.URL.Query().Get("sector")
	if country == "" && sector == "" {
		writeJSON(w, companies)
		return
	}
	filtered := make([]economy.Company, 0, len(companies))
	for _, c := range companies {
		if (country == "" || c.Country == country) && (sector == "" || c.Sector == sector) {
			filtered = append(filtered, c)
		}
	}
	writeJSON(w, filtered)
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.SectorMetrics())
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	policies, err := s.Eng.Policies()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, policies)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.Statistics())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)

	var evs []events.Event
	if r.URL.Query().Get("source") == "db" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		stored, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("event query failed", "error", err)
			http.Error(w, "event query failed", http.StatusInternalServerError)
			return
		}
		evs = stored
	} else {
		// Optional type filter, matched hierarchically ("economy" covers "economy.*").
		evs = s.Eng.Bus().History(r.URL.Query().Get("type"))
	}

	start := 0
	if len(evs) > limit {
		start = len(evs) - limit
	}
	writeJSON(w, evs[start:])
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var a engine.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Eng.ApplyPlayerAction(a); err != nil {
		writeEngineError(w, err)
		return
	}

	slog.Info("player action queued", "kind", a.Kind, "target", a.Target)
	writeJSON(w, map[string]any{
		"queued":    true,
		"kind":      a.Kind,
		"for_month": s.Eng.Month() + 1,
	})
}

func (s *Server) handlePolicyImpact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, s.Eng.Multipliers())
		return
	}

	var req struct {
		Kind   string              `json:"kind"`
		Impact engine.PolicyImpact `json:"impact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	kind, ok := engine.ParsePolicyKind(req.Kind)
	if !ok {
		writeJSON(w, map[string]any{"accepted": false})
		return
	}
	writeJSON(w, map[string]any{"accepted": s.Eng.ApplyPolicyImpact(kind, req.Impact)})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Clock == nil {
		http.Error(w, "clock not running", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Clock.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Clock.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	month, id, err := SaveSession(s.Eng, s.DB, s.SnapshotKeep)
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"id":      id,
		"month":   month,
		"message": "snapshot saved",
	})
}

// SaveSession stores a snapshot of eng and its event history in db.
func SaveSession(eng *engine.Engine, db *persistence.DB, keep int) (month int, id int64, err error) {
	raw, err := eng.Snapshot()
	if err != nil {
		return 0, 0, fmt.Errorf("snapshot: %w", err)
	}
	var head struct {
		Economy struct {
			Month int `json:"month"`
		} `json:"economy"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return 0, 0, fmt.Errorf("reading snapshot month: %w", err)
	}
	month = head.Economy.Month

	if id, err = db.SaveSnapshot(month, raw, keep); err != nil {
		return 0, 0, err
	}
	if err := db.SaveEvents(eng.Bus().History("")); err != nil {
		return 0, 0, fmt.Errorf("save events: %w", err)
	}
	return month, id, nil
}

// writeEngineError maps engine and AI errors to status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ai.ErrUnknownCountry):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrNotInitialized), errors.Is(err, ai.ErrNotInitialized):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// queryLimit reads ?limit=, falling back to def and capping at max.
func queryLimit(r *http.Request, def, max int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= max {
			return n
		}
	}
	if def > max {
		return max
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
