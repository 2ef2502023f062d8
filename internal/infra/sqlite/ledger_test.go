package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Ledger collection tests
// ═══════════════════════════════════════════════════════════════════════════

func update(t *testing.T, db *DB, fn func(tx domain.Tx) error) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), fn))
}

func view(t *testing.T, db *DB, fn func(tx domain.Tx) error) {
	t.Helper()
	require.NoError(t, db.View(context.Background(), fn))
}

// ─── Transactions ───────────────────────────────────────────────────────────

func TestTransactions_PutGetDelete(t *testing.T) {
	db := newTestDB(t)
	confirmed := testNow.Add(time.Minute)
	want := domain.Transaction{
		ID: "tx_1", Date: "2024-05-10", Amount: 1_000_000, Direction: domain.DirectionOut,
		CategoryID: domain.CatObligations, Note: "Car loan",
		Tags:        []string{domain.TagConfirmed, domain.TagObligationPayment},
		ConfirmedAt: &confirmed, CreatedAt: testNow,
		Meta: &domain.TransactionMeta{RelatedObligationCycleID: "cyc_1"},
	}
	update(t, db, func(tx domain.Tx) error { return tx.PutTransaction(want) })

	view(t, db, func(tx domain.Tx) error {
		got, err := tx.GetTransaction("tx_1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, *got)

		missing, err := tx.GetTransaction("nope")
		assert.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})

	update(t, db, func(tx domain.Tx) error { return tx.DeleteTransactions("tx_1", "ghost") })
	view(t, db, func(tx domain.Tx) error {
		txs, err := tx.ListTransactions()
		require.NoError(t, err)
		assert.Empty(t, txs)
		return nil
	})
}

func TestTransactions_ListOrder(t *testing.T) {
	db := newTestDB(t)
	update(t, db, func(tx domain.Tx) error {
		for i, d := range []string{"2024-05-03", "2024-05-01", "2024-05-02"} {
			err := tx.PutTransaction(domain.Transaction{
				ID: d, Date: d, Amount: int64(i + 1), Direction: domain.DirectionIn,
				CategoryID: "cat_salary", CreatedAt: testNow,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	view(t, db, func(tx domain.Tx) error {
		txs, err := tx.ListTransactions()
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, "2024-05-01", txs[0].Date)
		assert.Equal(t, "2024-05-03", txs[2].Date)
		assert.Nil(t, txs[0].Tags)
		assert.Nil(t, txs[0].Meta)
		return nil
	})
}

// ─── Obligations ────────────────────────────────────────────────────────────

func TestObligations_CyclesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	paidAt := testNow
	want := domain.Obligation{
		ID: "obl_1", Name: "Card", TotalAmount: 4_000_000, Priority: domain.PriorityCritical,
		Cycles: []domain.Cycle{
			{ID: "cyc_1", Amount: 1_000_000, DueDate: "2024-05-16", Cadence: domain.CadenceMonthly,
				Status: domain.CyclePaid, ConfirmedAt: &paidAt, AutoCreatedTransactionID: "tx_1"},
			{ID: "cyc_2", Amount: 1_000_000, DueDate: "2024-06-16", Cadence: domain.CadenceMonthly, Status: domain.CyclePlanned},
		},
	}
	update(t, db, func(tx domain.Tx) error { return tx.PutObligation(want) })

	view(t, db, func(tx domain.Tx) error {
		got, err := tx.GetObligation("obl_1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
		return nil
	})
}

func TestObligations_EmptyCyclesAndDelete(t *testing.T) {
	db := newTestDB(t)
	update(t, db, func(tx domain.Tx) error {
		if err := tx.PutObligation(domain.Obligation{ID: "a", Name: "A", TotalAmount: 1, Priority: 2}); err != nil {
			return err
		}
		return tx.PutObligation(domain.Obligation{ID: "b", Name: "B", TotalAmount: 2, Priority: 3})
	})
	view(t, db, func(tx domain.Tx) error {
		list, err := tx.ListObligations()
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].ID)
		assert.NotNil(t, list[0].Cycles)
		assert.Empty(t, list[0].Cycles)
		return nil
	})
	update(t, db, func(tx domain.Tx) error { return tx.DeleteObligation("a") })
	view(t, db, func(tx domain.Tx) error {
		got, err := tx.GetObligation("a")
		assert.NoError(t, err)
		assert.Nil(t, got)
		return nil
	})
}

// ─── Quests & Zones ─────────────────────────────────────────────────────────

func TestQuests_OptionalFields(t *testing.T) {
	db := newTestDB(t)
	baseline := int64(5_000_000)
	q := domain.Quest{ID: "qst_1", Name: "Debt Cut: First Cut", TargetAmount: 1_000_000,
		Kind: domain.QuestDebtCut, Tier: 1, BaselineAmount: &baseline, CreatedAt: testNow}
	update(t, db, func(tx domain.Tx) error { return tx.PutQuest(q) })

	view(t, db, func(tx domain.Tx) error {
		got, err := tx.GetQuest("qst_1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, q, *got)
		assert.Nil(t, got.ShadowDebt)

		all, err := tx.ListQuests()
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	})
}

func TestZones_PutKeepsCreatedAt(t *testing.T) {
	db := newTestDB(t)
	update(t, db, func(tx domain.Tx) error {
		return tx.PutZone(domain.Zone{ID: domain.HQZoneID, Name: "Renamed", Kind: domain.ZoneAsset, CreatedAt: testNow})
	})
	update(t, db, func(tx domain.Tx) error {
		return tx.PutZone(domain.Zone{ID: domain.HQZoneID, Name: domain.HQZoneName, Kind: domain.ZoneAsset, CreatedAt: testNow.Add(time.Hour)})
	})
	view(t, db, func(tx domain.Tx) error {
		zones, err := tx.ListZones()
		require.NoError(t, err)
		require.Len(t, zones, 1)
		assert.Equal(t, domain.HQZoneName, zones[0].Name)
		assert.True(t, zones[0].CreatedAt.Equal(testNow))
		return nil
	})
}

// ─── Activities ─────────────────────────────────────────────────────────────

func TestActivities_OrderAndUndoPayload(t *testing.T) {
	db := newTestDB(t)
	update(t, db, func(tx domain.Tx) error {
		acts := []domain.Activity{
			{ID: "act_1", Type: domain.ActivityTransactionAdded, Title: "Income logged", CreatedAt: testNow,
				Amount: 10, Direction: domain.DirectionIn, Undo: domain.UndoTransaction{TxID: "tx_1"}},
			// Same timestamp as act_1; insertion order breaks the tie.
			{ID: "act_2", Type: domain.ActivityTransferCreated, Title: "Transfer created", CreatedAt: testNow,
				Undo: domain.UndoTransfer{TxIDs: []string{"a", "b"}}},
			{ID: "act_0", Type: domain.ActivityObligationPlanned, Title: "Planned obligation", CreatedAt: testNow.Add(-time.Hour),
				Meta: domain.ActivityMeta{ObligationName: "Loan", PlanType: domain.PlanMonthly}},
		}
		for _, a := range acts {
			if err := tx.AddActivity(a); err != nil {
				return err
			}
		}
		return nil
	})

	view(t, db, func(tx domain.Tx) error {
		list, err := tx.ListActivities(0)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"act_2", "act_1", "act_0"}, []string{list[0].ID, list[1].ID, list[2].ID})
		assert.Equal(t, domain.UndoTransfer{TxIDs: []string{"a", "b"}}, list[0].Undo)
		assert.Nil(t, list[2].Undo)
		assert.Equal(t, domain.PlanMonthly, list[2].Meta.PlanType)

		latest, err := tx.ListActivities(1)
		require.NoError(t, err)
		require.Len(t, latest, 1)
		assert.Equal(t, "act_2", latest[0].ID)

		some, err := tx.GetActivities("act_0", "missing")
		require.NoError(t, err)
		require.Len(t, some, 1)
		assert.Equal(t, "act_0", some[0].ID)
		return nil
	})

	update(t, db, func(tx domain.Tx) error { return tx.DeleteActivities("act_1", "act_2") })
	view(t, db, func(tx domain.Tx) error {
		list, err := tx.ListActivities(0)
		require.NoError(t, err)
		assert.Len(t, list, 1)
		return nil
	})
}

// ─── Settings ───────────────────────────────────────────────────────────────

func TestSettings_Singleton(t *testing.T) {
	db := newTestDB(t)
	view(t, db, func(tx domain.Tx) error {
		s, err := tx.GetSettings()
		assert.NoError(t, err)
		assert.Nil(t, s)
		return nil
	})

	income := int64(20_000_000)
	onboarded := testNow
	s := domain.DefaultSettings("Asia/Ho_Chi_Minh")
	s.MonthlyIncome = &income
	s.ActiveQuestID = "qst_1"
	s.OnboardingCompletedAt = &onboarded
	update(t, db, func(tx domain.Tx) error { return tx.PutSettings(s) })

	s.FocusMode = false
	update(t, db, func(tx domain.Tx) error { return tx.PutSettings(s) })

	view(t, db, func(tx domain.Tx) error {
		got, err := tx.GetSettings()
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, s, *got)
		return nil
	})
}
