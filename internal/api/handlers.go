package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cadencio-app/cadencio/internal/app/insights"
	"github.com/cadencio-app/cadencio/internal/app/ledger"
	"github.com/cadencio-app/cadencio/internal/app/quest"
	"github.com/cadencio-app/cadencio/internal/domain"
)

// ─── Request bodies ─────────────────────────────────────────────────────────
// Amounts arrive as JSON numbers or strings and are rounded to whole units.

type transactionRequest struct {
	Amount     decimal.Decimal  `json:"amount"`
	Direction  domain.Direction `json:"direction"`
	CategoryID string           `json:"category_id"`
	Note       string           `json:"note"`
	Tags       []string         `json:"tags"`
	Date       string           `json:"date"`
}

type transferRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	FromZoneID string          `json:"from_zone_id"`
	ToZoneID   string          `json:"to_zone_id"`
	Note       string          `json:"note"`
	Date       string          `json:"date"`
}

type zoneRequest struct {
	Name string          `json:"name"`
	Kind domain.ZoneKind `json:"kind"`
}

type obligationRequest struct {
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Priority    domain.Priority `json:"priority"`
}

type confirmRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type borrowRequest struct {
	ObligationID string          `json:"obligation_id"`
	Name         string          `json:"name"`
	Priority     domain.Priority `json:"priority"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"`
	Date         string          `json:"date"`
}

type undoRequest struct {
	IDs []string `json:"ids"`
}

type undoLatestRequest struct {
	ExpectedID string `json:"expected_id"`
}

type onboardingRequest struct {
	Settings domain.SettingsPatch `json:"settings"`
	Quest    *struct {
		Kind domain.QuestKind `json:"kind"`
		Tier int              `json:"tier"`
	} `json:"quest"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, domain.ErrInvalidInput)
	}
	return n, nil
}

// ─── Dashboard & settings ───────────────────────────────────────────────────

// GET /api/dashboard?window=30|60|90
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	opt := s.DashboardOptions()
	window, err := queryInt(r, "window", opt.HeatmapDays)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	switch window {
	case 30, 60, 90:
	default:
		writeError(w, http.StatusBadRequest, "window must be 30, 60 or 90")
		return
	}
	opt.HeatmapDays = window

	d, err := insights.Build(r.Context(), s.ledger.Store(), opt)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Settings(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	st, err := s.ledger.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ─── Transactions & zones ───────────────────────────────────────────────────

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := ledger.RoundAmount(req.Amount)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	t, err := s.ledger.CreateTransaction(r.Context(), ledger.TransactionInput{
		Amount:     amount,
		Direction:  req.Direction,
		CategoryID: req.CategoryID,
		Note:       req.Note,
		Tags:       req.Tags,
		Date:       req.Date,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := ledger.RoundAmount(req.Amount)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	tr, err := s.ledger.CreateTransfer(r.Context(), ledger.TransferInput{
		Amount:     amount,
		FromZoneID: req.FromZoneID,
		ToZoneID:   req.ToZoneID,
		Note:       req.Note,
		Date:       req.Date,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tr)
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.ledger.ListZones(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"zones": zones})
}

func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	z, err := s.ledger.CreateZone(r.Context(), req.Name, req.Kind)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, z)
}

// ─── Obligations ────────────────────────────────────────────────────────────

// GET /api/obligations?tab=unplanned|upcoming|overdue|paid|all
func (s *Server) handleListObligations(w http.ResponseWriter, r *http.Request) {
	obls, err := s.ledger.ListObligations(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	tab := r.URL.Query().Get("tab")
	if tab == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"obligations": obls})
		return
	}
	st, err := s.ledger.Settings(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	view, ok := insights.ObligationTab(obls, insights.Tab(tab), s.ledger.Now(), st.Timezone)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tab %q", tab))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateObligation(w http.ResponseWriter, r *http.Request) {
	var req obligationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	total, err := ledger.RoundAmount(req.TotalAmount)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	o, err := s.ledger.CreateObligation(r.Context(), ledger.ObligationInput{
		Name:        req.Name,
		TotalAmount: total,
		Priority:    req.Priority,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleSuggestPlan(w http.ResponseWriter, r *http.Request) {
	sug, err := s.ledger.SuggestPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var spec domain.PlanSpec
	if !decodeBody(w, r, &spec) {
		return
	}
	plan, err := spec.Plan()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	exp, err := s.ledger.ScheduleObligation(r.Context(), chi.URLParam(r, "id"), plan)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleConfirmPaid(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := ledger.RoundAmount(req.Amount)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	c, err := s.ledger.ConfirmObligationPaid(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "cycleID"), amount)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRefreshMissed(w http.ResponseWriter, r *http.Request) {
	n, err := s.ledger.RefreshMissedCycles(r.Context(), s.ledger.Now())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"changed": n})
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := ledger.RoundAmount(req.Amount)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	c, err := s.ledger.RecordBorrow(r.Context(), ledger.BorrowInput{
		ObligationID: req.ObligationID,
		Name:         req.Name,
		Priority:     req.Priority,
		Amount:       amount,
		Note:         req.Note,
		Date:         req.Date,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ─── Activities ─────────────────────────────────────────────────────────────

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	acts, err := s.ledger.RecentActivities(r.Context(), limit)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activities": acts})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := s.ledger.UndoActivities(r.Context(), req.IDs)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"undone": n})
}

func (s *Server) handleUndoLatest(w http.ResponseWriter, r *http.Request) {
	var req undoLatestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.ledger.UndoLatest(r.Context(), req.ExpectedID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ─── Onboarding ─────────────────────────────────────────────────────────────

// questMenu builds the quest options for st, with patch applied on top.
func (s *Server) questMenu(r *http.Request, patch domain.SettingsPatch) (quest.Menu, error) {
	st, err := s.ledger.Settings(r.Context())
	if err != nil {
		return quest.Menu{}, err
	}
	st = patch.Apply(st)
	obls, err := s.ledger.ListObligations(r.Context())
	if err != nil {
		return quest.Menu{}, err
	}
	in := quest.Input{
		MonthlyIncome:    st.Income(),
		MonthlyCap:       st.MonthlyCap,
		ObligationsTotal: insights.ObligationsTotal(obls),
	}
	if st.SelfReportedDebt != nil {
		in.SelfReportedDebt = *st.SelfReportedDebt
	}
	return quest.Options(in), nil
}

func (s *Server) handleQuestOptions(w http.ResponseWriter, r *http.Request) {
	menu, err := s.questMenu(r, domain.SettingsPatch{})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in := ledger.OnboardingInput{Settings: req.Settings}
	if req.Quest != nil {
		menu, err := s.questMenu(r, req.Settings)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		opt, err := menu.Find(req.Quest.Kind, req.Quest.Tier)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		q := menu.Quest(opt)
		in.Quest = &q
	}
	st, err := s.ledger.CompleteOnboarding(r.Context(), in)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ─── Debug ──────────────────────────────────────────────────────────────────

func (s *Server) handleSpans(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": s.tracer.SpanCount(),
		"spans": s.tracer.Spans(limit),
	})
}
