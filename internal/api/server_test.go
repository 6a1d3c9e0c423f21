package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/talgya/courier-life/internal/engine"
	"github.com/talgya/courier-life/internal/order"
)

// stillSource keeps every subsystem deterministic: all probability rolls
// miss, all index picks take the first entry.
type stillSource struct{}

func (stillSource) Float64() float64 { return 0.99 }
func (stillSource) Intn(n int) int   { return 0 }

func newTestServer() *Server {
	rng := stillSource{}
	session := engine.NewSession(engine.Config{PlayerName: "rider", TimeMultiplier: 60, Seed: 1}, rng, rng, nil)
	return &Server{Session: session, AdminKey: "secret"}
}

func get(t *testing.T, s *Server, handler http.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func postAuthed(t *testing.T, s *Server, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.adminOnly(handler)(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer()

	rec := get(t, s, s.handleStatus, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["player"] != "rider" {
		t.Fatalf("player %v", body["player"])
	}
	if body["balance"].(float64) != 100.0 {
		t.Fatalf("balance %v", body["balance"])
	}
}

func TestAdminOnlyGate(t *testing.T) {
	s := newTestServer()
	inner := func(w http.ResponseWriter, r *http.Request) { writeJSON(w, map[string]any{"ok": true}) }

	// GET is never a command.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/deliver", nil)
	rec := httptest.NewRecorder()
	s.adminOnly(inner)(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET code %d, want 405", rec.Code)
	}

	// No token header.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/deliver", nil)
	rec = httptest.NewRecorder()
	s.adminOnly(inner)(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token code %d, want 401", rec.Code)
	}

	// Wrong token.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/deliver", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	s.adminOnly(inner)(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token code %d, want 401", rec.Code)
	}

	// Right token.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/deliver", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.adminOnly(inner)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token code %d, want 200", rec.Code)
	}
}

func TestAdminOnlyDisabledWithoutKey(t *testing.T) {
	s := newTestServer()
	s.AdminKey = ""

	req := httptest.NewRequest(http.MethodPost, "/api/v1/deliver", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	s.adminOnly(s.handleDeliver)(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("disabled commands code %d, want 403", rec.Code)
	}
}

func TestOrderFlowOverHTTP(t *testing.T) {
	s := newTestServer()

	rec := postAuthed(t, s, s.handleRefreshOrders, "/api/v1/orders/refresh", `{"count": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh code %d", rec.Code)
	}
	var pool []*order.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &pool); err != nil {
		t.Fatalf("decode pool: %v", err)
	}
	if len(pool) != 3 {
		t.Fatalf("pool size %d", len(pool))
	}

	rec = postAuthed(t, s, s.handleAcceptOrder, "/api/v1/orders/accept", `{"id": "`+pool[0].ID+`"}`)
	var accept engine.OrderResult
	if err := json.Unmarshal(rec.Body.Bytes(), &accept); err != nil {
		t.Fatalf("decode accept: %v", err)
	}
	if !accept.OK {
		t.Fatalf("accept: %+v", accept)
	}

	rec = postAuthed(t, s, s.handleDeliver, "/api/v1/deliver", "")
	var outcome engine.DeliveryOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !outcome.OK || outcome.Order.ID != pool[0].ID {
		t.Fatalf("deliver: %+v", outcome)
	}

	// The orders view reflects the run.
	rec = get(t, s, s.handleOrders, "/api/v1/orders")
	var view struct {
		Available []*order.Order `json:"available"`
		Active    *order.Order   `json:"active"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(view.Available) != 2 || view.Active != nil {
		t.Fatalf("view: %d available, active %v", len(view.Available), view.Active)
	}
}

func TestBadRequestValidation(t *testing.T) {
	s := newTestServer()

	cases := []struct {
		handler http.HandlerFunc
		body    string
	}{
		{s.handleAcceptOrder, `{}`},
		{s.handleRejectOrder, `{"id": ""}`},
		{s.handleBuyStock, `{"symbol": "000001", "shares": 0}`},
		{s.handleSellStock, `{"shares": 5}`},
		{s.handleLottery, `{}`},
		{s.handleEnroll, `{}`},
		{s.handleStudy, `{"course": "first-aid", "minutes": 0}`},
		{s.handleExam, `{"course": ""}`},
		{s.handleCareerAttempt, `{}`},
		{s.handlePayDebt, `{"amount": -5}`},
		{s.handleBuyGear, `{}`},
		{s.handleRest, `{"minutes": 0}`},
	}
	for i, c := range cases {
		rec := postAuthed(t, s, c.handler, "/api/v1/x", c.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: code %d, want 400", i, rec.Code)
		}
	}
}

func TestStocksEndpointSearch(t *testing.T) {
	s := newTestServer()

	rec := get(t, s, s.handleStocks, "/api/v1/stocks")
	var all []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("catalog size %d, want 10", len(all))
	}

	rec = get(t, s, s.handleStocks, "/api/v1/stocks?q=moutai")
	var hits []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("search hits %d, want 1", len(hits))
	}
}

func TestExpensesEndpoint(t *testing.T) {
	s := newTestServer()

	rec := get(t, s, s.handleExpenses, "/api/v1/expenses")
	var body struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 4600.0 {
		t.Fatalf("total %f, want 4600", body.Total)
	}
}

func TestGearEndpoints(t *testing.T) {
	s := newTestServer()

	rec := get(t, s, s.handleGear, "/api/v1/gear")
	var items []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode shop: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("shop size %d, want 4", len(items))
	}

	// A fresh courier's 100 coins buy nothing.
	rec = postAuthed(t, s, s.handleBuyGear, "/api/v1/gear/buy", `{"id": "rain_cover"}`)
	var body struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode buy: %v", err)
	}
	if body.OK || body.Reason != "insufficient_funds" {
		t.Fatalf("broke purchase: %+v", body)
	}
}

func TestSnapshotWithoutDB(t *testing.T) {
	s := newTestServer()

	rec := postAuthed(t, s, s.handleSnapshot, "/api/v1/snapshot", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("snapshot without db code %d, want 503", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := corsMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allowed origin header %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unknown origin got header %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight code %d, want 204", rec.Code)
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?limit=7&bad=x&neg=-3", nil)

	if got := queryInt(req, "limit", 50); got != 7 {
		t.Fatalf("limit %d", got)
	}
	if got := queryInt(req, "missing", 50); got != 50 {
		t.Fatalf("missing %d", got)
	}
	if got := queryInt(req, "bad", 50); got != 50 {
		t.Fatalf("bad %d", got)
	}
	if got := queryInt(req, "neg", 50); got != 50 {
		t.Fatalf("neg %d", got)
	}
}
