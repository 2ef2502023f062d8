// Package insights derives the dashboard from ledger state. Every function
// here is pure over the records and settings it is given.
package insights

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// ─── Zones ──────────────────────────────────────────────────────────────────

// ZoneBalance is a zone with its derived balance.
type ZoneBalance struct {
	Zone    domain.Zone `json:"zone"`
	Balance int64       `json:"balance"`
}

// ZoneBalances replays txs. A transfer leg with both zone ids moves money
// out of the from-zone on OUT and into the to-zone on IN; everything else
// lands in the HQ zone. Every zone starts at zero.
func ZoneBalances(zones []domain.Zone, txs []domain.Transaction) []ZoneBalance {
	bal := make(map[string]int64, len(zones)+1)
	for _, z := range zones {
		bal[z.ID] = 0
	}
	for _, t := range txs {
		signed := t.Amount
		if t.Direction == domain.DirectionOut {
			signed = -t.Amount
		}
		if t.IsTransfer() && t.Meta != nil && t.Meta.FromZoneID != "" && t.Meta.ToZoneID != "" {
			if t.Direction == domain.DirectionOut {
				bal[t.Meta.FromZoneID] += signed
			} else {
				bal[t.Meta.ToZoneID] += signed
			}
			continue
		}
		bal[domain.HQZoneID] += signed
	}

	out := make([]ZoneBalance, 0, len(zones))
	for _, z := range zones {
		out = append(out, ZoneBalance{Zone: z, Balance: bal[z.ID]})
	}
	return out
}

// ─── Money In / Out ─────────────────────────────────────────────────────────

// EarnedNet is non-transfer income, less borrowed principal, minus
// non-transfer spending.
func EarnedNet(txs []domain.Transaction) int64 {
	var in, borrowed, out int64
	for _, t := range txs {
		if t.IsTransfer() {
			continue
		}
		switch t.Direction {
		case domain.DirectionIn:
			in += t.Amount
			if t.HasTag(domain.TagDebtPrincipal) {
				borrowed += t.Amount
			}
		case domain.DirectionOut:
			out += t.Amount
		}
	}
	return in - borrowed - out
}

// Monthly holds the current-month totals.
type Monthly struct {
	In    int64 `json:"in"`
	Out   int64 `json:"out"`
	Spend int64 `json:"spend"`
	Net   int64 `json:"net"`
}

// MonthlyTotals sums the calendar month containing today, ignoring
// transfers. Spend also leaves out obligation payments.
func MonthlyTotals(txs []domain.Transaction, today string) Monthly {
	prefix := domain.MonthPrefix(today)
	var m Monthly
	for _, t := range txs {
		if t.IsTransfer() || !strings.HasPrefix(t.Date, prefix) {
			continue
		}
		if t.Direction == domain.DirectionIn {
			m.In += t.Amount
			continue
		}
		m.Out += t.Amount
		if t.CategoryID != domain.CatObligations {
			m.Spend += t.Amount
		}
	}
	m.Net = m.In - m.Out
	return m
}

// DayNet is one day of net movement.
type DayNet struct {
	Date string `json:"date"`
	Net  int64  `json:"net"`
}

// NetHistory returns the daily non-transfer net for the days ending today.
func NetHistory(txs []domain.Transaction, today string, days int) []DayNet {
	if days <= 0 {
		return nil
	}
	start, err := domain.AddDays(today, -(days - 1))
	if err != nil {
		return nil
	}
	net := make(map[string]int64, days)
	for _, t := range txs {
		if t.IsTransfer() || t.Date < start || t.Date > today {
			continue
		}
		if t.Direction == domain.DirectionIn {
			net[t.Date] += t.Amount
		} else {
			net[t.Date] -= t.Amount
		}
	}
	out := make([]DayNet, 0, days)
	for i := 0; i < days; i++ {
		d, _ := domain.AddDays(start, i)
		out = append(out, DayNet{Date: d, Net: net[d]})
	}
	return out
}

// ─── Discipline ─────────────────────────────────────────────────────────────

// HeatDay is one heatmap cell.
type HeatDay struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
	Level  int    `json:"level"`
}

// Heatmap sums discretionary spend (non-transfer OUT outside the
// obligations category) per day for the windowDays ending today. The window
// never starts before onboardedOn, and never after today.
func Heatmap(txs []domain.Transaction, today string, windowDays int, onboardedOn string, monthlyCap int64) []HeatDay {
	if windowDays <= 0 {
		return nil
	}
	start, err := domain.AddDays(today, -(windowDays - 1))
	if err != nil {
		return nil
	}
	if onboardedOn != "" && onboardedOn > start {
		start = onboardedOn
	}
	if start > today {
		start = today
	}
	span, _ := domain.DaysBetween(start, today)

	spend := make(map[string]int64, span+1)
	for i := 0; i <= span; i++ {
		d, _ := domain.AddDays(start, i)
		spend[d] = 0
	}
	for _, t := range txs {
		if t.Direction != domain.DirectionOut || t.IsTransfer() || t.CategoryID == domain.CatObligations {
			continue
		}
		if _, ok := spend[t.Date]; ok {
			spend[t.Date] += t.Amount
		}
	}

	dailyCap := DailyCap(monthlyCap)
	out := make([]HeatDay, 0, span+1)
	for i := 0; i <= span; i++ {
		d, _ := domain.AddDays(start, i)
		out = append(out, HeatDay{Date: d, Amount: spend[d], Level: HeatLevel(spend[d], dailyCap)})
	}
	return out
}

// DailyCap spreads the monthly cap over 30 days.
func DailyCap(monthlyCap int64) decimal.Decimal {
	if monthlyCap <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(monthlyCap).Div(decimal.NewFromInt(30))
}

var levelBounds = []decimal.Decimal{
	decimal.RequireFromString("0.5"),
	decimal.RequireFromString("0.9"),
	decimal.RequireFromString("1.1"),
}

// HeatLevel buckets amount against the daily cap into 0..4.
func HeatLevel(amount int64, dailyCap decimal.Decimal) int {
	if amount <= 0 || !dailyCap.IsPositive() {
		return 0
	}
	ratio := decimal.NewFromInt(amount).Div(dailyCap)
	for i, b := range levelBounds {
		if ratio.LessThanOrEqual(b) {
			return i + 1
		}
	}
	return 4
}

// Streak counts the trailing days at or under the daily cap.
func Streak(days []HeatDay, monthlyCap int64) int {
	dailyCap := DailyCap(monthlyCap)
	if !dailyCap.IsPositive() {
		return 0
	}
	n := 0
	for i := len(days) - 1; i >= 0; i-- {
		if decimal.NewFromInt(days[i].Amount).GreaterThan(dailyCap) {
			break
		}
		n++
	}
	return n
}

// CapPercent is spend as a whole percentage of the cap, at most 100.
func CapPercent(spend, monthlyCap int64) int {
	if monthlyCap <= 0 {
		return 0
	}
	return percent(spend, decimal.NewFromInt(monthlyCap))
}

// WeeklyCap groups the last 28 heatmap days into four 7-day buckets and
// reports each against a quarter of the monthly cap.
func WeeklyCap(days []HeatDay, monthlyCap int64) []int {
	last := days
	if len(last) > 28 {
		last = last[len(last)-28:]
	}
	spend := make([]int64, 4)
	for i, d := range last {
		spend[i/7] += d.Amount
	}
	out := make([]int, 4)
	if monthlyCap <= 0 {
		return out
	}
	weekly := decimal.NewFromInt(monthlyCap).Div(decimal.NewFromInt(4))
	for i, s := range spend {
		out[i] = percent(s, weekly)
	}
	return out
}

func percent(amount int64, of decimal.Decimal) int {
	p := decimal.NewFromInt(amount).Div(of).Mul(decimal.NewFromInt(100)).Round(0)
	return int(min(p.IntPart(), 100))
}

// ─── Cost Per Hour ──────────────────────────────────────────────────────────

// HourCost expresses the latest spend in hours of work.
type HourCost struct {
	Hourly    decimal.Decimal     `json:"hourly"`
	LastOut   *domain.Transaction `json:"last_out,omitempty"`
	LastHours decimal.Decimal     `json:"last_hours"`
}

// CostPerHour derives the hourly rate from income over four working weeks
// and converts the most recently created non-transfer OUT into hours.
func CostPerHour(st domain.Settings, txs []domain.Transaction) HourCost {
	var hc HourCost
	if st.Income() > 0 && st.HoursPerWeek > 0 {
		hc.Hourly = decimal.NewFromInt(st.Income()).Div(decimal.NewFromInt(int64(st.HoursPerWeek) * 4))
	}
	for i := range txs {
		t := txs[i]
		if t.Direction != domain.DirectionOut || t.IsTransfer() {
			continue
		}
		if hc.LastOut == nil || !t.CreatedAt.Before(hc.LastOut.CreatedAt) {
			hc.LastOut = &txs[i]
		}
	}
	if hc.LastOut != nil && hc.Hourly.IsPositive() {
		hc.LastHours = decimal.NewFromInt(hc.LastOut.Amount).Div(hc.Hourly).Round(2)
	}
	return hc
}

// ─── Obligations ────────────────────────────────────────────────────────────

// CycleRow is one cycle with its owning obligation.
type CycleRow struct {
	ObligationID   string          `json:"obligation_id"`
	ObligationName string          `json:"obligation_name"`
	Priority       domain.Priority `json:"priority"`
	Cycle          domain.Cycle    `json:"cycle"`
}

// ObligationsTotal sums the remaining totals.
func ObligationsTotal(obls []domain.Obligation) int64 {
	var n int64
	for _, o := range obls {
		n += o.TotalAmount
	}
	return n
}

// PendingPlans counts obligations with money owed and no cycles.
func PendingPlans(obls []domain.Obligation) int {
	n := 0
	for _, o := range obls {
		if o.TotalAmount > 0 && len(o.Cycles) == 0 {
			n++
		}
	}
	return n
}

// DueSoon lists PLANNED cycles due within [today, today+windowDays],
// ordered by due date then priority.
func DueSoon(obls []domain.Obligation, today string, windowDays int) []CycleRow {
	end, err := domain.AddDays(today, windowDays)
	if err != nil {
		return nil
	}
	return cycleRows(obls, func(c domain.Cycle) bool {
		return c.Status == domain.CyclePlanned && c.DueDate >= today && c.DueDate <= end
	})
}

func cycleRows(obls []domain.Obligation, keep func(domain.Cycle) bool) []CycleRow {
	rows := []CycleRow{}
	for _, o := range obls {
		for _, c := range o.Cycles {
			if keep(c) {
				rows = append(rows, CycleRow{ObligationID: o.ID, ObligationName: o.Name, Priority: o.Priority, Cycle: c})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Cycle.DueDate != rows[j].Cycle.DueDate {
			return rows[i].Cycle.DueDate < rows[j].Cycle.DueDate
		}
		return rows[i].Priority < rows[j].Priority
	})
	return rows
}

// Tab names an obligations view.
type Tab string

const (
	TabUnplanned Tab = "unplanned"
	TabUpcoming  Tab = "upcoming"
	TabOverdue   Tab = "overdue"
	TabPaid      Tab = "paid"
	TabAll       Tab = "all"
)

// PaidLookbackDays bounds the paid tab.
const PaidLookbackDays = 90

// TabView is the content of one obligations tab: whole obligations for
// unplanned and all, cycle rows for the rest.
type TabView struct {
	Tab         Tab                 `json:"tab"`
	Obligations []domain.Obligation `json:"obligations,omitempty"`
	Rows        []CycleRow          `json:"rows,omitempty"`
}

// ObligationTab builds one tab. now and tz place paid confirmations on a
// calendar day. ok is false for an unknown tab.
func ObligationTab(obls []domain.Obligation, tab Tab, now time.Time, tz string) (TabView, bool) {
	today := domain.TodayISO(now, tz)
	v := TabView{Tab: tab}
	switch tab {
	case TabUnplanned:
		v.Obligations = []domain.Obligation{}
		for _, o := range obls {
			if o.TotalAmount > 0 && len(o.Cycles) == 0 {
				v.Obligations = append(v.Obligations, o)
			}
		}
	case TabAll:
		v.Obligations = append([]domain.Obligation{}, obls...)
		sort.SliceStable(v.Obligations, func(i, j int) bool {
			a, b := v.Obligations[i], v.Obligations[j]
			if a.Priority != b.Priority {
				return a.Priority < b.Priority
			}
			return a.Name < b.Name
		})
	case TabUpcoming:
		v.Rows = cycleRows(obls, func(c domain.Cycle) bool {
			return c.Status == domain.CyclePlanned && c.DueDate >= today
		})
	case TabOverdue:
		v.Rows = cycleRows(obls, func(c domain.Cycle) bool {
			return c.Status != domain.CyclePaid && c.DueDate < today
		})
	case TabPaid:
		v.Rows = paidRows(obls, today, tz)
	default:
		return TabView{}, false
	}
	return v, true
}

func paidRows(obls []domain.Obligation, today, tz string) []CycleRow {
	type dated struct {
		row CycleRow
		on  string
	}
	var list []dated
	for _, o := range obls {
		for _, c := range o.Cycles {
			if c.Status != domain.CyclePaid {
				continue
			}
			on := c.DueDate
			if c.ConfirmedAt != nil {
				on = domain.TodayISO(*c.ConfirmedAt, tz)
			}
			if days, err := domain.DaysBetween(on, today); err != nil || days > PaidLookbackDays {
				continue
			}
			list = append(list, dated{CycleRow{ObligationID: o.ID, ObligationName: o.Name, Priority: o.Priority, Cycle: c}, on})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].on > list[j].on })
	rows := make([]CycleRow, 0, len(list))
	for _, d := range list {
		rows = append(rows, d.row)
	}
	return rows
}
