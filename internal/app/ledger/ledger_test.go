package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/sqlite"
	"github.com/cadencio-app/cadencio/internal/logger"
)

func init() { logger.IsTest = true }

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := New(db, WithClock(func() time.Time { return testNow }))
	require.NoError(t, svc.Seed(context.Background()))
	return svc
}

type snapshot struct {
	Transactions []domain.Transaction
	Obligations  []domain.Obligation
	Activities   []domain.Activity
}

func takeSnapshot(t *testing.T, svc *Service) snapshot {
	t.Helper()
	var snap snapshot
	err := svc.Store().View(context.Background(), func(tx domain.Tx) error {
		var err error
		if snap.Transactions, err = tx.ListTransactions(); err != nil {
			return err
		}
		if snap.Obligations, err = tx.ListObligations(); err != nil {
			return err
		}
		snap.Activities, err = tx.ListActivities(0)
		return err
	})
	require.NoError(t, err)
	return snap
}

func sumCycles(cycles []domain.Cycle) int64 {
	var n int64
	for _, c := range cycles {
		n += c.Amount
	}
	return n
}

func newObligation(t *testing.T, svc *Service, name string, total int64, p domain.Priority) domain.Obligation {
	t.Helper()
	obl, err := svc.CreateObligation(context.Background(), ObligationInput{Name: name, TotalAmount: total, Priority: p})
	require.NoError(t, err)
	return obl
}

// ─── Transactions ───────────────────────────────────────────────────────────

func TestCreateTransaction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	txn, err := svc.CreateTransaction(ctx, TransactionInput{
		Amount:     45_000,
		Direction:  domain.DirectionOut,
		CategoryID: domain.CatObligations,
		Note:       "  lunch  ",
		Tags:       []string{"a", " a", "", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", txn.Date)
	assert.Equal(t, "lunch", txn.Note)
	assert.Equal(t, []string{"a", "b"}, txn.Tags)

	acts, err := svc.RecentActivities(ctx, 0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, domain.ActivityTransactionAdded, acts[0].Type)
	assert.Equal(t, "Obligation logged", acts[0].Title)
	assert.Equal(t, domain.UndoTransaction{TxID: txn.ID}, acts[0].Undo)
}

func TestCreateTransaction_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, TransactionInput{Amount: 0, Direction: domain.DirectionIn, CategoryID: "cat_salary"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.CreateTransaction(ctx, TransactionInput{Amount: 10, Direction: "SIDEWAYS", CategoryID: "cat_salary"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CreateTransaction(ctx, TransactionInput{Amount: 10, Direction: domain.DirectionIn, CategoryID: "cat_salary", Date: "2024-13-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	snap := takeSnapshot(t, svc)
	assert.Empty(t, snap.Transactions)
	assert.Empty(t, snap.Activities)
}

func TestCreateTransfer_NeutralAndUndoable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	zone, err := svc.CreateZone(ctx, "Savings", domain.ZoneAsset)
	require.NoError(t, err)
	before := takeSnapshot(t, svc)

	tr, err := svc.CreateTransfer(ctx, TransferInput{Amount: 500_000, FromZoneID: domain.HQZoneID, ToZoneID: zone.ID, Note: "stash"})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionOut, tr.Out.Direction)
	assert.Equal(t, domain.DirectionIn, tr.In.Direction)
	assert.True(t, tr.Out.IsTransfer())
	assert.True(t, tr.In.IsTransfer())
	assert.Equal(t, tr.Out.Amount, tr.In.Amount)

	snap := takeSnapshot(t, svc)
	require.Len(t, snap.Transactions, 2)
	require.Len(t, snap.Activities, 1)
	assert.Equal(t, domain.ActivityTransferCreated, snap.Activities[0].Type)

	_, err = svc.UndoLatest(ctx, snap.Activities[0].ID)
	require.NoError(t, err)
	assert.Equal(t, before, takeSnapshot(t, svc))
}

func TestCreateTransfer_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTransfer(ctx, TransferInput{Amount: 10, FromZoneID: domain.HQZoneID, ToZoneID: domain.HQZoneID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CreateTransfer(ctx, TransferInput{Amount: -5, FromZoneID: domain.HQZoneID, ToZoneID: "zone_x"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.CreateTransfer(ctx, TransferInput{Amount: 10, FromZoneID: domain.HQZoneID, ToZoneID: "zone_missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, takeSnapshot(t, svc).Transactions)
}

// ─── Scheduling ─────────────────────────────────────────────────────────────

func TestScheduleObligation_Monthly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Card", 9_000_000, domain.PriorityCritical)

	exp, err := svc.ScheduleObligation(ctx, obl.ID, domain.MonthlyPlan{MonthlyAmount: 2_500_000, DueDay: 16, StartMonth: "2024-06-01"})
	require.NoError(t, err)
	require.Len(t, exp.Cycles, 4)
	assert.False(t, exp.Truncated)
	assert.Equal(t, int64(9_000_000), sumCycles(exp.Cycles))
	assert.Equal(t, "2024-06-16", exp.Cycles[0].DueDate)
	assert.Equal(t, "2024-09-16", exp.Cycles[3].DueDate)
	assert.Equal(t, int64(1_500_000), exp.Cycles[3].Amount)

	got, err := svc.GetObligation(ctx, obl.ID)
	require.NoError(t, err)
	assert.Len(t, got.Cycles, 4)
	assert.Equal(t, int64(9_000_000), got.TotalAmount)
}

func TestScheduleObligation_SplitMergesByDueDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Loan", 29_000_000, domain.PriorityCritical)

	exp, err := svc.ScheduleObligation(ctx, obl.ID, domain.SplitPlan{
		UpfrontAmount:  9_000_000,
		UpfrontDueDate: "2024-06-16",
		MonthlyAmount:  4_000_000,
		DueDay:         16,
		StartMonth:     "2024-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(29_000_000), sumCycles(exp.Cycles))

	got, err := svc.GetObligation(ctx, obl.ID)
	require.NoError(t, err)
	require.Len(t, got.Cycles, 6)
	for i := 1; i < len(got.Cycles); i++ {
		assert.LessOrEqual(t, got.Cycles[i-1].DueDate, got.Cycles[i].DueDate)
	}
	// The May monthly cycle sorts ahead of the June upfront.
	assert.Equal(t, "2024-05-16", got.Cycles[0].DueDate)
	assert.Equal(t, domain.CadenceMonthly, got.Cycles[0].Cadence)
}

func TestScheduleObligation_OneTimeCoversTotal(t *testing.T) {
	svc := newTestService(t)
	obl := newObligation(t, svc, "Friend", 3_000_000, domain.PriorityHigh)

	exp, err := svc.ScheduleObligation(context.Background(), obl.ID, domain.OneTimePlan{Amount: 2_000_000, DueDate: "2024-06-18"})
	require.NoError(t, err)
	require.Len(t, exp.Cycles, 1)
	assert.Equal(t, int64(3_000_000), exp.Cycles[0].Amount)
	assert.Equal(t, domain.CyclePlanned, exp.Cycles[0].Status)
}

func TestScheduleObligation_TruncatesAtBound(t *testing.T) {
	svc := newTestService(t)
	obl := newObligation(t, svc, "Mortgage", 10_000_000, domain.PriorityStandard)

	exp, err := svc.ScheduleObligation(context.Background(), obl.ID, domain.MonthlyPlan{MonthlyAmount: 100_000, DueDay: 5, StartMonth: "2024-06-01"})
	require.NoError(t, err)
	assert.True(t, exp.Truncated)
	require.Len(t, exp.Cycles, MaxMonthlyCycles)
	assert.Equal(t, int64(10_000_000), sumCycles(exp.Cycles))
	assert.Equal(t, int64(6_500_000), exp.Cycles[MaxMonthlyCycles-1].Amount)
	assert.Equal(t, "2027-05-05", exp.Cycles[MaxMonthlyCycles-1].DueDate)
}

func TestScheduleObligation_InvalidPlanWritesNothing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Card", 9_000_000, domain.PriorityCritical)
	before := takeSnapshot(t, svc)

	_, err := svc.ScheduleObligation(ctx, obl.ID, domain.MonthlyPlan{MonthlyAmount: 0, DueDay: 16, StartMonth: "2024-06-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.ScheduleObligation(ctx, obl.ID, domain.SplitPlan{UpfrontAmount: 1_000_000, UpfrontDueDate: "nope", MonthlyAmount: 1_000_000, DueDay: 1, StartMonth: "2024-06-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.ScheduleObligation(ctx, "obl_missing", domain.OneTimePlan{Amount: 1, DueDate: "2024-06-01"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, before, takeSnapshot(t, svc))
}

func TestScheduleObligation_UndoRestoresState(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Card", 9_000_000, domain.PriorityCritical)
	before := takeSnapshot(t, svc)

	_, err := svc.ScheduleObligation(ctx, obl.ID, domain.MonthlyPlan{MonthlyAmount: 2_500_000, DueDay: 16, StartMonth: "2024-06-01"})
	require.NoError(t, err)

	undone, err := svc.UndoLatest(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityObligationPlanned, undone.Type)
	assert.Equal(t, before, takeSnapshot(t, svc))
}

func TestRefreshMissedCycles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Card", 6_000_000, domain.PriorityStandard)

	_, err := svc.ScheduleObligation(ctx, obl.ID, domain.MonthlyPlan{MonthlyAmount: 1_000_000, DueDay: 16, StartMonth: "2024-01-01"})
	require.NoError(t, err)

	n, err := svc.RefreshMissedCycles(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := svc.GetObligation(ctx, obl.ID)
	require.NoError(t, err)
	for _, c := range got.Cycles {
		if c.DueDate < "2024-05-10" {
			assert.Equal(t, domain.CycleMissed, c.Status, c.DueDate)
		} else {
			assert.Equal(t, domain.CyclePlanned, c.Status, c.DueDate)
		}
	}

	n, err = svc.RefreshMissedCycles(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ─── Confirmation ───────────────────────────────────────────────────────────

func TestConfirmObligationPaid_AndUndo(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Card", 5_000_000, domain.PriorityHigh)

	exp, err := svc.ScheduleObligation(ctx, obl.ID, domain.MonthlyPlan{MonthlyAmount: 1_000_000, DueDay: 20, StartMonth: "2024-05-01"})
	require.NoError(t, err)
	require.Len(t, exp.Cycles, 5)
	before := takeSnapshot(t, svc)

	res, err := svc.ConfirmObligationPaid(ctx, obl.ID, exp.Cycles[0].ID, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(4_000_000), res.Obligation.TotalAmount)
	assert.Equal(t, domain.DirectionOut, res.Transaction.Direction)
	assert.Equal(t, domain.CatObligations, res.Transaction.CategoryID)
	assert.Equal(t, "Card", res.Transaction.Note)
	assert.True(t, res.Transaction.HasTag(domain.TagObligationPayment))
	assert.Equal(t, exp.Cycles[0].ID, res.Transaction.Meta.RelatedObligationCycleID)

	paid := res.Obligation.Cycles[res.Obligation.CycleIndex(exp.Cycles[0].ID)]
	assert.Equal(t, domain.CyclePaid, paid.Status)
	assert.Equal(t, res.Transaction.ID, paid.AutoCreatedTransactionID)
	require.NotNil(t, paid.ConfirmedAt)

	snap := takeSnapshot(t, svc)
	require.Len(t, snap.Activities, 2)
	assert.Equal(t, domain.ActivityConfirmedPaid, snap.Activities[0].Type)

	_, err = svc.UndoLatest(ctx, snap.Activities[0].ID)
	require.NoError(t, err)
	assert.Equal(t, before, takeSnapshot(t, svc))
}

func TestConfirmObligationPaid_FloorsAtZero(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Friend", 1_000_000, domain.PriorityHigh)
	exp, err := svc.ScheduleObligation(ctx, obl.ID, domain.OneTimePlan{Amount: 1_000_000, DueDate: "2024-06-01"})
	require.NoError(t, err)

	res, err := svc.ConfirmObligationPaid(ctx, obl.ID, exp.Cycles[0].ID, 1_200_000)
	require.NoError(t, err)
	assert.Zero(t, res.Obligation.TotalAmount)

	_, err = svc.ConfirmObligationPaid(ctx, obl.ID, exp.Cycles[0].ID, 100)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfirmObligationPaid_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Card", 5_000_000, domain.PriorityHigh)
	exp, err := svc.ScheduleObligation(ctx, obl.ID, domain.OneTimePlan{Amount: 5_000_000, DueDate: "2024-06-01"})
	require.NoError(t, err)
	before := takeSnapshot(t, svc)

	_, err = svc.ConfirmObligationPaid(ctx, obl.ID, exp.Cycles[0].ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = svc.ConfirmObligationPaid(ctx, obl.ID, "cycle_missing", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.ConfirmObligationPaid(ctx, "obl_missing", exp.Cycles[0].ID, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, before, takeSnapshot(t, svc))
}

// ─── Borrow ─────────────────────────────────────────────────────────────────

func TestRecordBorrow_NewObligation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	before := takeSnapshot(t, svc)

	res, err := svc.RecordBorrow(ctx, BorrowInput{Name: "Sister", Priority: domain.PriorityHigh, Amount: 2_000_000})
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), res.Obligation.TotalAmount)
	assert.Equal(t, domain.DirectionIn, res.Transaction.Direction)
	assert.Equal(t, domain.CatDebt, res.Transaction.CategoryID)
	assert.True(t, res.Transaction.HasTag(domain.TagDebtPrincipal))

	snap := takeSnapshot(t, svc)
	require.Len(t, snap.Activities, 1)
	assert.Equal(t, domain.ActivityDebtBorrowed, snap.Activities[0].Type)

	_, err = svc.UndoLatest(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, before, takeSnapshot(t, svc))
}

func TestRecordBorrow_ExistingObligation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	obl := newObligation(t, svc, "Card", 5_000_000, domain.PriorityHigh)

	res, err := svc.RecordBorrow(ctx, BorrowInput{ObligationID: obl.ID, Amount: 1_000_000, Note: "top-up"})
	require.NoError(t, err)
	assert.Equal(t, int64(6_000_000), res.Obligation.TotalAmount)
	assert.Equal(t, "top-up", res.Transaction.Note)

	_, err = svc.UndoLatest(ctx, "")
	require.NoError(t, err)
	got, err := svc.GetObligation(ctx, obl.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), got.TotalAmount)

	_, err = svc.RecordBorrow(ctx, BorrowInput{ObligationID: "obl_missing", Amount: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.RecordBorrow(ctx, BorrowInput{Name: "  ", Amount: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── Undo ───────────────────────────────────────────────────────────────────

func TestUndoLatest_Stale(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, amt := range []int64{100, 200} {
		_, err := svc.CreateTransaction(ctx, TransactionInput{Amount: amt, Direction: domain.DirectionOut, CategoryID: "cat_food"})
		require.NoError(t, err)
	}
	before := takeSnapshot(t, svc)
	oldest := before.Activities[1]

	_, err := svc.UndoLatest(ctx, oldest.ID)
	assert.ErrorIs(t, err, domain.ErrStaleUndo)
	assert.Equal(t, before, takeSnapshot(t, svc))

	undone, err := svc.UndoLatest(ctx, before.Activities[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), undone.Amount)
}

func TestUndoLatest_Empty(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.UndoLatest(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNoActivity)
}

func TestUndoActivities_Batch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	before := takeSnapshot(t, svc)

	obl, err := svc.RecordBorrow(ctx, BorrowInput{Name: "Bank", Amount: 3_000_000})
	require.NoError(t, err)
	exp, err := svc.ScheduleObligation(ctx, obl.Obligation.ID, domain.MonthlyPlan{MonthlyAmount: 1_000_000, DueDay: 20, StartMonth: "2024-05-01"})
	require.NoError(t, err)
	_, err = svc.ConfirmObligationPaid(ctx, obl.Obligation.ID, exp.Cycles[0].ID, 1_000_000)
	require.NoError(t, err)

	snap := takeSnapshot(t, svc)
	ids := []string{"act_unknown"}
	for _, a := range snap.Activities {
		ids = append(ids, a.ID)
	}

	n, err := svc.UndoActivities(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, before, takeSnapshot(t, svc))
}

// ─── Suggest / Settings ─────────────────────────────────────────────────────

func TestSuggestPlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	income, limit := int64(20_000_000), int64(10_000_000)
	_, err := svc.UpdateSettings(ctx, domain.SettingsPatch{MonthlyIncome: &income, MonthlyCap: &limit})
	require.NoError(t, err)
	obl := newObligation(t, svc, "Card", 9_000_000, domain.PriorityCritical)

	sug, err := svc.SuggestPlan(ctx, obl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestMonthly, sug.Kind)
	assert.Equal(t, domain.MonthlyPlan{MonthlyAmount: 2_500_000, DueDay: 16, StartMonth: "2024-06-01"}, sug.Plan)

	_, err = svc.SuggestPlan(ctx, "obl_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSuggestPlan_NoIncome(t *testing.T) {
	svc := newTestService(t)
	obl := newObligation(t, svc, "Card", 9_000_000, domain.PriorityCritical)

	sug, err := svc.SuggestPlan(context.Background(), obl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestNone, sug.Kind)
	assert.NotEmpty(t, sug.Reason)
}

func TestSeed_Idempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	zones, err := svc.ListZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, domain.HQZoneName, zones[0].Name)

	st, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings("UTC"), st)
}

func TestUpdateSettings_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bad := "Mars/Olympus"
	_, err := svc.UpdateSettings(ctx, domain.SettingsPatch{Timezone: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	day := 0
	_, err = svc.UpdateSettings(ctx, domain.SettingsPatch{SalaryDay: &day})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	quest := "quest_missing"
	_, err = svc.UpdateSettings(ctx, domain.SettingsPatch{ActiveQuestID: &quest})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tz := "Asia/Jakarta"
	st, err := svc.UpdateSettings(ctx, domain.SettingsPatch{Timezone: &tz})
	require.NoError(t, err)
	assert.Equal(t, tz, st.Timezone)
}

func TestCompleteOnboarding(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	income := int64(20_000_000)

	st, err := svc.CompleteOnboarding(ctx, OnboardingInput{
		Settings: domain.SettingsPatch{MonthlyIncome: &income},
		Quest:    &domain.Quest{Name: "Earned Climb: Surplus Month", TargetAmount: 5_000_000, Kind: domain.QuestEarnedClimb, Tier: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, st.OnboardingCompletedAt)
	assert.True(t, st.OnboardingCompletedAt.Equal(testNow))

	quests, err := svc.ListQuests(ctx)
	require.NoError(t, err)
	require.Len(t, quests, 1)
	assert.Equal(t, quests[0].ID, st.ActiveQuestID)
	assert.Equal(t, int64(20_000_000), st.Income())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1500000", 1_500_000, false},
		{"1,500,000", 1_500_000, false},
		{"1_000.5", 1_001, false},
		{"0.4", 0, true},
		{"-10", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
