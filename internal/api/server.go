// Package api serves the courier session over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (the session control plane).
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/courier-life/internal/dialogue"
	"github.com/talgya/courier-life/internal/engine"
	"github.com/talgya/courier-life/internal/lottery"
	"github.com/talgya/courier-life/internal/persistence"
	"github.com/talgya/courier-life/internal/school"
)

// Server exposes one Session over HTTP plus a websocket event stream.
type Server struct {
	Session  *engine.Session
	DB       *persistence.DB
	Addr     string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	upgrader websocket.Upgrader
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// The online dialogue path calls out to the LLM provider.
	interactLimiter := NewRateLimiter(60, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/orders", s.handleOrders)
	mux.HandleFunc("/api/v1/stocks", s.handleStocks)
	mux.HandleFunc("/api/v1/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/v1/expenses", s.handleExpenses)
	mux.HandleFunc("/api/v1/gear", s.handleGear)
	mux.HandleFunc("/api/v1/courses", s.handleCourses)
	mux.HandleFunc("/api/v1/careers", s.handleCareers)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/dialogue/options", s.handleDialogueOptions)
	mux.HandleFunc("/api/v1/dialogue/history", s.handleDialogueHistory)
	mux.HandleFunc("/api/v1/dialogue/analysis", s.handleDialogueAnalysis)

	// Command endpoints (POST, bearer token).
	mux.HandleFunc("/api/v1/orders/refresh", s.adminOnly(s.handleRefreshOrders))
	mux.HandleFunc("/api/v1/orders/accept", s.adminOnly(s.handleAcceptOrder))
	mux.HandleFunc("/api/v1/orders/reject", s.adminOnly(s.handleRejectOrder))
	mux.HandleFunc("/api/v1/deliver", s.adminOnly(s.handleDeliver))
	mux.HandleFunc("/api/v1/interact", s.adminOnly(RateLimitMiddleware(interactLimiter, s.handleInteract)))
	mux.HandleFunc("/api/v1/trade/buy", s.adminOnly(s.handleBuyStock))
	mux.HandleFunc("/api/v1/trade/sell", s.adminOnly(s.handleSellStock))
	mux.HandleFunc("/api/v1/lottery", s.adminOnly(s.handleLottery))
	mux.HandleFunc("/api/v1/school/enroll", s.adminOnly(s.handleEnroll))
	mux.HandleFunc("/api/v1/school/study", s.adminOnly(s.handleStudy))
	mux.HandleFunc("/api/v1/school/exam", s.adminOnly(s.handleExam))
	mux.HandleFunc("/api/v1/career/attempt", s.adminOnly(s.handleCareerAttempt))
	mux.HandleFunc("/api/v1/expenses/pay", s.adminOnly(s.handlePayExpenses))
	mux.HandleFunc("/api/v1/debt/pay", s.adminOnly(s.handlePayDebt))
	mux.HandleFunc("/api/v1/insurance/buy", s.adminOnly(s.handleBuyInsurance))
	mux.HandleFunc("/api/v1/gear/buy", s.adminOnly(s.handleBuyGear))
	mux.HandleFunc("/api/v1/rest", s.adminOnly(s.handleRest))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	// Websocket event stream (GET).
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(s.Addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list; localhost dev servers are
// always allowed.
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

// checkBearerToken reports whether the request carries the admin token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires bearer token auth and the POST method.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "command endpoints disabled (no admin token set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// --- read-only handlers ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Session.State()
	clk := s.Session.Clock()

	writeJSON(w, map[string]any{
		"name":         "Courier Life",
		"player":       st.PlayerName,
		"game_time":    clk.FormattedTime(),
		"game_day":     clk.Day(),
		"day_part":     clk.Part().String(),
		"peak_hour":    clk.IsPeakHour(),
		"weather":      st.Weather.String(),
		"district":     st.District.String(),
		"level":        st.Attributes.Level,
		"stamina":      st.Attributes.Stamina,
		"fatigue":      st.FatigueLevel,
		"credit_score": st.Attributes.CreditScore,
		"balance":      st.Finances.DeliveryCoins,
		"debt":         st.Finances.Debt,
		"career":       s.Session.Career(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.State())
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"available": s.Session.Orders(),
		"active":    s.Session.ActiveOrder(),
	})
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, s.Session.SearchStocks(q))
		return
	}
	writeJSON(w, s.Session.Stocks())
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "history", 50)
	writeJSON(w, s.Session.Portfolio(limit))
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	breakdown := s.Session.ExpenseBreakdown()
	writeJSON(w, map[string]any{
		"breakdown": breakdown,
		"total":     breakdown.Total(),
	})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.Courses())
}

func (s *Server) handleCareers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.Careers())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	writeJSON(w, s.Session.Events(limit))
}

func (s *Server) handleDialogueOptions(w http.ResponseWriter, r *http.Request) {
	trigger := dialogue.Trigger(r.URL.Query().Get("trigger"))
	if trigger == "" {
		trigger = dialogue.TriggerDelivered
	}
	writeJSON(w, s.Session.DialogueOptions(trigger))
}

func (s *Server) handleDialogueHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	writeJSON(w, s.Session.DialogueHistory(limit))
}

func (s *Server) handleDialogueAnalysis(w http.ResponseWriter, r *http.Request) {
	stats := s.Session.AnalyzeDialogue()
	out := make(map[string]dialogue.PatternStats, len(stats))
	for ctype, ps := range stats {
		out[ctype.String()] = ps
	}
	writeJSON(w, out)
}

// --- command handlers ---

func (s *Server) handleRefreshOrders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	decodeJSON(r, &req)
	writeJSON(w, s.Session.RefreshOrders(req.Count))
}

func (s *Server) handleAcceptOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		http.Error(w, "order id required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.AcceptOrder(req.ID))
}

func (s *Server) handleRejectOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		http.Error(w, "order id required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.RejectOrder(req.ID))
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.Deliver())
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Trigger string `json:"trigger"`
		Choice  *int   `json:"choice"`
	}
	decodeJSON(r, &req)

	trigger := dialogue.Trigger(req.Trigger)
	if trigger == "" {
		trigger = dialogue.TriggerDelivered
	}
	choice := -1
	if req.Choice != nil {
		choice = *req.Choice
	}
	writeJSON(w, s.Session.Interact(trigger, choice))
}

func (s *Server) handleBuyStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol   string  `json:"symbol"`
		Shares   int     `json:"shares"`
		Leverage float64 `json:"leverage"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Symbol == "" || req.Shares <= 0 {
		http.Error(w, "symbol and positive shares required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.BuyStock(req.Symbol, req.Shares, req.Leverage))
}

func (s *Server) handleSellStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
		Shares int    `json:"shares"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Symbol == "" || req.Shares <= 0 {
		http.Error(w, "symbol and positive shares required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.SellStock(req.Symbol, req.Shares))
}

func (s *Server) handleLottery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Variant string `json:"variant"`
		Numbers []int  `json:"numbers"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Variant == "" {
		http.Error(w, "variant required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.PlayLottery(lottery.Variant(req.Variant), req.Numbers))
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Course string `json:"course"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Course == "" {
		http.Error(w, "course required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.Enroll(school.CourseID(req.Course)))
}

func (s *Server) handleStudy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Course  string `json:"course"`
		Minutes int    `json:"minutes"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Course == "" || req.Minutes <= 0 {
		http.Error(w, "course and positive minutes required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.Study(school.CourseID(req.Course), req.Minutes))
}

func (s *Server) handleExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Course string `json:"course"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Course == "" {
		http.Error(w, "course required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.TakeExam(school.CourseID(req.Course)))
}

func (s *Server) handleCareerAttempt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		http.Error(w, "career name required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.AttemptCareer(req.Name))
}

func (s *Server) handlePayExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.PayExpenses())
}

func (s *Server) handlePayDebt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Amount <= 0 {
		http.Error(w, "positive amount required", http.StatusBadRequest)
		return
	}
	ok, reason := s.Session.PayDebt(req.Amount)
	writeJSON(w, map[string]any{"ok": ok, "reason": reason})
}

func (s *Server) handleBuyInsurance(w http.ResponseWriter, r *http.Request) {
	ok, reason := s.Session.BuyInsurance()
	writeJSON(w, map[string]any{"ok": ok, "reason": reason})
}

func (s *Server) handleGear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.GearShop())
}

func (s *Server) handleBuyGear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		http.Error(w, "gear id required", http.StatusBadRequest)
		return
	}
	ok, reason := s.Session.BuyGear(req.ID)
	writeJSON(w, map[string]any{"ok": ok, "reason": reason})
}

func (s *Server) handleRest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Minutes <= 0 {
		http.Error(w, "positive minutes required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Session.Rest(req.Minutes))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}
	if err := s.DB.SaveSnapshot(s.Session.Export()); err != nil {
		slog.Error("snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved": true})
}

// handleStream upgrades to a websocket and pushes engine events as they
// happen. Slow consumers are disconnected rather than blocking the session.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := s.Session.Subscribe()
	defer unsubscribe()

	// Reader goroutine: only to detect the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		}
	}
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
