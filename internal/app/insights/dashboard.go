package insights

import (
	"context"
	"time"

	"github.com/cadencio-app/cadencio/internal/app/planner"
	"github.com/cadencio-app/cadencio/internal/app/quest"
	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
)

// MaxHeatmapDays is the widest selectable heatmap window.
const MaxHeatmapDays = 90

// Options tunes the dashboard windows.
type Options struct {
	Now           time.Time
	HeatmapDays   int
	DueWindowDays int
	RecentLimit   int
	NetDays       int
	// Timezone applies until settings exist.
	Timezone string
}

// DefaultOptions returns the standard windows at now.
func DefaultOptions(now time.Time) Options {
	return Options{Now: now, HeatmapDays: MaxHeatmapDays, DueWindowDays: 30, RecentLimit: 5, NetDays: 30, Timezone: "UTC"}
}

// Snapshot is every record the dashboard reads, taken in one transaction.
type Snapshot struct {
	Settings     domain.Settings
	Transactions []domain.Transaction
	Obligations  []domain.Obligation
	Zones        []domain.Zone
	Activities   []domain.Activity
	ActiveQuest  *domain.Quest
}

// Dashboard is the derived home view.
type Dashboard struct {
	Today               string            `json:"today"`
	Zones               []ZoneBalance     `json:"zones"`
	Monthly             Monthly           `json:"monthly"`
	EarnedNet           int64             `json:"earned_net"`
	Quest               quest.Progress    `json:"quest"`
	ObligationsTotal    int64             `json:"obligations_total"`
	PendingPlans        int               `json:"pending_plans"`
	ExistingMonthlyLoad int64             `json:"existing_monthly_load"`
	DueSoon             []CycleRow        `json:"due_soon"`
	NetHistory          []DayNet          `json:"net_history"`
	Heatmap             []HeatDay         `json:"heatmap"`
	Streak              int               `json:"streak"`
	CapPercent          int               `json:"cap_percent"`
	WeeklyCap           []int             `json:"weekly_cap"`
	Cost                HourCost          `json:"cost"`
	Recent              []domain.Activity `json:"recent"`
}

// ReadSnapshot loads everything the dashboard needs inside tx.
func ReadSnapshot(tx domain.Tx, recentLimit int, defaultTZ string) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	st, err := tx.GetSettings()
	if err != nil {
		return Snapshot{}, err
	}
	if st != nil {
		s.Settings = *st
	} else {
		s.Settings = domain.DefaultSettings(defaultTZ)
	}
	if s.Transactions, err = tx.ListTransactions(); err != nil {
		return Snapshot{}, err
	}
	if s.Obligations, err = tx.ListObligations(); err != nil {
		return Snapshot{}, err
	}
	if s.Zones, err = tx.ListZones(); err != nil {
		return Snapshot{}, err
	}
	if recentLimit > 0 {
		if s.Activities, err = tx.ListActivities(recentLimit); err != nil {
			return Snapshot{}, err
		}
	}
	if s.Settings.ActiveQuestID != "" {
		if s.ActiveQuest, err = tx.GetQuest(s.Settings.ActiveQuestID); err != nil {
			return Snapshot{}, err
		}
	}
	return s, nil
}

// Build reads a consistent snapshot from store and computes the dashboard.
// It also refreshes the balance and outstanding-obligation gauges.
func Build(ctx context.Context, store domain.Store, opt Options) (Dashboard, error) {
	var snap Snapshot
	err := store.View(ctx, func(tx domain.Tx) error {
		var err error
		snap, err = ReadSnapshot(tx, opt.RecentLimit, opt.Timezone)
		return err
	})
	if err != nil {
		return Dashboard{}, err
	}
	d := Compute(snap, opt)

	for _, zb := range d.Zones {
		observability.ZoneBalance.WithLabelValues(zb.Zone.ID).Set(float64(zb.Balance))
	}
	observability.ObligationsOutstanding.Set(float64(d.ObligationsTotal))
	observability.DashboardBuilds.Inc()
	return d, nil
}

// Compute derives the dashboard from snap.
func Compute(snap Snapshot, opt Options) Dashboard {
	st := snap.Settings
	today := domain.TodayISO(opt.Now, st.Timezone)

	var onboardedOn string
	if st.OnboardingCompletedAt != nil {
		onboardedOn = domain.TodayISO(*st.OnboardingCompletedAt, st.Timezone)
	}

	full := Heatmap(snap.Transactions, today, MaxHeatmapDays, onboardedOn, st.MonthlyCap)
	window := full
	if opt.HeatmapDays > 0 && opt.HeatmapDays < len(window) {
		window = window[len(window)-opt.HeatmapDays:]
	}

	monthly := MonthlyTotals(snap.Transactions, today)
	earned := EarnedNet(snap.Transactions)
	total := ObligationsTotal(snap.Obligations)

	recent := snap.Activities
	if recent == nil {
		recent = []domain.Activity{}
	}

	return Dashboard{
		Today:     today,
		Zones:     ZoneBalances(snap.Zones, snap.Transactions),
		Monthly:   monthly,
		EarnedNet: earned,
		Quest: quest.Score(snap.ActiveQuest, quest.Standing{
			EarnedNet:        earned,
			ObligationsTotal: total,
			SelfReportedDebt: st.SelfReportedDebt,
		}),
		ObligationsTotal:    total,
		PendingPlans:        PendingPlans(snap.Obligations),
		ExistingMonthlyLoad: planner.ExistingMonthlyLoad(snap.Obligations, "", today),
		DueSoon:             DueSoon(snap.Obligations, today, opt.DueWindowDays),
		NetHistory:          NetHistory(snap.Transactions, today, opt.NetDays),
		Heatmap:             window,
		Streak:              Streak(window, st.MonthlyCap),
		CapPercent:          CapPercent(monthly.Spend, st.MonthlyCap),
		WeeklyCap:           WeeklyCap(full, st.MonthlyCap),
		Cost:                CostPerHour(st, snap.Transactions),
		Recent:              recent,
	}
}
