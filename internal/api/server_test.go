package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cadencio-app/cadencio/internal/app/ledger"
	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
	"github.com/cadencio-app/cadencio/internal/infra/sqlite"
	"github.com/cadencio-app/cadencio/internal/logger"
)

func init() { logger.IsTest = true }

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

// ─── Helpers ────────────────────────────────────────────────────────────────

func setupServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tracer := observability.NewTracer(observability.DefaultTracerConfig())
	svc := ledger.New(db,
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithTracer(tracer),
	)
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := NewServer(svc)
	srv.SetTracer(tracer)
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	decode(t, w, &resp)
	if resp.Error.Type != "error" {
		t.Errorf("error type = %q, want %q", resp.Error.Type, "error")
	}
	return resp.Error.Message
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestHealthAndVersion(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/version", "")
	var resp map[string]string
	decode(t, w, &resp)
	if resp["version"] != Version {
		t.Errorf("version = %q, want %q", resp["version"], Version)
	}
}

func TestTransactions_CreateAndList(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodPost, "/api/transactions",
		`{"amount":"120000.6","direction":"OUT","category_id":"cat_food","note":" lunch "}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var tx domain.Transaction
	decode(t, w, &tx)
	if tx.Amount != 120001 {
		t.Errorf("amount = %d, want 120001", tx.Amount)
	}
	if tx.Date != "2024-05-10" {
		t.Errorf("date = %q, want today", tx.Date)
	}
	if tx.Note != "lunch" {
		t.Errorf("note = %q, want trimmed", tx.Note)
	}

	w = do(t, h, http.MethodGet, "/api/transactions", "")
	var list struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	decode(t, w, &list)
	if len(list.Transactions) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(list.Transactions))
	}
}

func TestTransactions_InvalidAmount(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodPost, "/api/transactions",
		`{"amount":0,"direction":"IN","category_id":"cat_salary"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != domain.ErrInvalidAmount.Error() {
		t.Errorf("message = %q", msg)
	}

	w = do(t, h, http.MethodPost, "/api/transactions", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", w.Code)
	}
}

func TestTransfer_SameZoneRejected(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodPost, "/api/transfers",
		`{"amount":1000,"from_zone_id":"zone_hq","to_zone_id":"zone_hq"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/transfers",
		`{"amount":1000,"from_zone_id":"zone_hq","to_zone_id":"zone_nope"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown zone: expected 404, got %d", w.Code)
	}
}

func TestObligation_ScheduleAndConfirm(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodPost, "/api/obligations",
		`{"name":"Card","total_amount":9000000,"priority":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var obl domain.Obligation
	decode(t, w, &obl)

	w = do(t, h, http.MethodPost, "/api/obligations/"+obl.ID+"/schedule",
		`{"type":"monthly","monthly_amount":2500000,"due_day":5,"start_month":"2024-06-01"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var exp ledger.Expansion
	decode(t, w, &exp)
	if len(exp.Cycles) != 4 || exp.Truncated {
		t.Fatalf("expected 4 cycles untruncated, got %d truncated=%v", len(exp.Cycles), exp.Truncated)
	}
	if exp.Cycles[3].Amount != 1_500_000 {
		t.Errorf("last cycle = %d, want 1500000", exp.Cycles[3].Amount)
	}

	w = do(t, h, http.MethodPost, "/api/obligations/"+obl.ID+"/cycles/"+exp.Cycles[0].ID+"/confirm",
		`{"amount":2500000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var c ledger.Confirmation
	decode(t, w, &c)
	if c.Obligation.TotalAmount != 6_500_000 {
		t.Errorf("total = %d, want 6500000", c.Obligation.TotalAmount)
	}
	if c.Transaction.Direction != domain.DirectionOut || c.Transaction.CategoryID != domain.CatObligations {
		t.Errorf("unexpected payment transaction %+v", c.Transaction)
	}

	w = do(t, h, http.MethodGet, "/api/obligations?tab=upcoming", "")
	if w.Code != http.StatusOK {
		t.Fatalf("tab: expected 200, got %d", w.Code)
	}
	var view struct {
		Rows []json.RawMessage `json:"rows"`
	}
	decode(t, w, &view)
	if len(view.Rows) != 3 {
		t.Errorf("upcoming rows = %d, want 3", len(view.Rows))
	}
}

func TestObligation_Errors(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodPost, "/api/obligations/obl_missing/cycles/cyc_x/confirm", `{"amount":1}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("confirm missing: expected 404, got %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/obligations/obl_missing/schedule", `{"type":"weekly"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad plan type: expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/obligations?tab=archived", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown tab: expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/obligations/obl_missing/suggestion", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("suggest missing: expected 404, got %d", w.Code)
	}
}

func TestUndoLatest_Stale(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodPost, "/api/activities/undo-latest", `{"expected_id":""}`)
	if w.Code != http.StatusConflict {
		t.Errorf("empty log: expected 409, got %d", w.Code)
	}

	do(t, h, http.MethodPost, "/api/transactions", `{"amount":5000,"direction":"OUT","category_id":"cat_food"}`)

	w = do(t, h, http.MethodPost, "/api/activities/undo-latest", `{"expected_id":"act_other"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale: expected 409, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != domain.StaleUndoMessage {
		t.Errorf("message = %q, want %q", msg, domain.StaleUndoMessage)
	}

	w = do(t, h, http.MethodGet, "/api/activities", "")
	var list struct {
		Activities []domain.Activity `json:"activities"`
	}
	decode(t, w, &list)
	if len(list.Activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(list.Activities))
	}

	body, _ := json.Marshal(undoLatestRequest{ExpectedID: list.Activities[0].ID})
	w = do(t, h, http.MethodPost, "/api/activities/undo-latest", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("undo: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/transactions", "")
	var txs struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	decode(t, w, &txs)
	if len(txs.Transactions) != 0 {
		t.Errorf("expected transaction removed, got %d", len(txs.Transactions))
	}
}

func TestDashboard_Window(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodGet, "/api/dashboard?window=45", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("window 45: expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/dashboard?window=30", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var d struct {
		Today   string            `json:"today"`
		Zones   []json.RawMessage `json:"zones"`
		Heatmap []json.RawMessage `json:"heatmap"`
	}
	decode(t, w, &d)
	if d.Today != "2024-05-10" {
		t.Errorf("today = %q", d.Today)
	}
	if len(d.Zones) != 1 {
		t.Errorf("expected the seeded zone, got %d zones", len(d.Zones))
	}
	// Not onboarded yet, so the heatmap spans the whole window.
	if len(d.Heatmap) != 30 {
		t.Errorf("heatmap days = %d, want 30", len(d.Heatmap))
	}
}

func TestOnboarding_WithQuest(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodGet, "/api/quests/options", "")
	if w.Code != http.StatusOK {
		t.Fatalf("options: expected 200, got %d", w.Code)
	}
	var menu struct {
		EarnedClimb []json.RawMessage `json:"earned_climb"`
	}
	decode(t, w, &menu)
	if len(menu.EarnedClimb) != 3 {
		t.Errorf("earned climb options = %d, want 3", len(menu.EarnedClimb))
	}

	w = do(t, h, http.MethodPost, "/api/onboarding",
		`{"settings":{"monthly_income":20000000},"quest":{"kind":"earned_climb","tier":2}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("onboarding: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var st domain.Settings
	decode(t, w, &st)
	if st.ActiveQuestID == "" {
		t.Error("expected an active quest")
	}
	if st.OnboardingCompletedAt == nil {
		t.Error("expected onboarding timestamp")
	}
	if st.Income() != 20_000_000 {
		t.Errorf("income = %d", st.Income())
	}

	w = do(t, h, http.MethodPost, "/api/onboarding", `{"quest":{"kind":"earned_climb","tier":9}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad tier: expected 400, got %d", w.Code)
	}
}

func TestSettings_Patch(t *testing.T) {
	_, h := setupServer(t)

	w := do(t, h, http.MethodPatch, "/api/settings", `{"hours_per_week":0}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero hours: expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodPatch, "/api/settings", `{"monthly_cap":9000000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodGet, "/api/settings", "")
	var st domain.Settings
	decode(t, w, &st)
	if st.MonthlyCap != 9_000_000 {
		t.Errorf("cap = %d, want 9000000", st.MonthlyCap)
	}
}

func TestDebugSpans(t *testing.T) {
	_, h := setupServer(t)

	do(t, h, http.MethodPost, "/api/transfers", `{"amount":1000,"from_zone_id":"zone_hq","to_zone_id":"zone_hq"}`)

	w := do(t, h, http.MethodGet, "/api/debug/spans", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	decode(t, w, &resp)
	if resp.Total < 1 {
		t.Errorf("expected recorded spans, got %d", resp.Total)
	}
}

func TestDashboardHub_BroadcastsOnCommit(t *testing.T) {
	srv, h := setupServer(t)
	hub := NewDashboardHub()

	ch, unsub := hub.Subscribe()
	defer unsub()

	stop := hub.Run(context.Background(), srv.ledger.Store(), srv.DashboardOptions)
	defer stop()

	next := func() map[string]json.RawMessage {
		select {
		case data := <-ch:
			var m map[string]json.RawMessage
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("decode: %v", err)
			}
			return m
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for dashboard")
			return nil
		}
	}

	first := next()
	if string(first["earned_net"]) != "0" {
		t.Errorf("earned_net = %s, want 0", first["earned_net"])
	}

	do(t, h, http.MethodPost, "/api/transactions", `{"amount":700,"direction":"IN","category_id":"cat_salary"}`)
	second := next()
	if string(second["earned_net"]) != "700" {
		t.Errorf("earned_net = %s, want 700", second["earned_net"])
	}

	// A late subscriber gets the latest snapshot straight away.
	late, unsubLate := hub.Subscribe()
	defer unsubLate()
	select {
	case data := <-late:
		if !bytes.Contains(data, []byte(`"earned_net":700`)) {
			t.Errorf("late snapshot missing latest state: %s", data)
		}
	default:
		t.Error("late subscriber got nothing")
	}

	if hub.ClientCount() != 2 {
		t.Errorf("clients = %d, want 2", hub.ClientCount())
	}
}
