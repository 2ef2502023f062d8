// Package planner synthesizes repayment plans for obligations.
//
// Suggest is pure: it reads only its Input and never fails. Cases with no
// workable plan come back as a NONE suggestion carrying a reason.
package planner

import (
	"github.com/shopspring/decimal"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// Reasons attached to NONE suggestions.
const (
	ReasonMissingIncome = "Add monthly income and cap to generate a suggestion."
	ReasonNoHeadroom    = "Your monthly cap leaves no income for obligations. Lower the cap or raise income."
	ReasonNoCapacity    = "Your scheduled obligations already match your available income."
	ReasonNothingDue    = "Nothing left to pay on this obligation."
	ReasonInvalidDate   = "Today's date could not be read."
)

// Input is everything the synthesizer looks at.
type Input struct {
	Total               int64
	Priority            domain.Priority
	MonthlyIncome       *int64
	MonthlyCap          int64
	ExistingMonthlyLoad int64
	SalaryDay           int
	Today               string
}

// Policy holds the tunable ratios and thresholds.
type Policy struct {
	OneTimeCapacityRatio    decimal.Decimal
	OneTimeIncomeRatio      decimal.Decimal
	SplitMonthThreshold     int64
	SplitUpfrontRatio       decimal.Decimal
	SplitUpfrontCapRatio    decimal.Decimal
	MaxMonthlyCapacityRatio decimal.Decimal
	NiceOverflow            decimal.Decimal
	SmallDebtThreshold      int64
	FastTargetMonths        int64
	StandardTargetMonths    int64
	MinMonthly              int64

	// DueDayOffsets is indexed by priority; index 0 is unused.
	DueDayOffsets [4]int
	// A computed due date closer than MinLeadDays is pushed by PushDays.
	MinLeadDays int
	PushDays    int

	Rounding RoundingPolicy
}

// DefaultPolicy returns the standard heuristics.
func DefaultPolicy() Policy {
	return Policy{
		OneTimeCapacityRatio:    decimal.RequireFromString("0.5"),
		OneTimeIncomeRatio:      decimal.RequireFromString("0.4"),
		SplitMonthThreshold:     6,
		SplitUpfrontRatio:       decimal.RequireFromString("0.3"),
		SplitUpfrontCapRatio:    decimal.RequireFromString("1.5"),
		MaxMonthlyCapacityRatio: decimal.RequireFromString("0.4"),
		NiceOverflow:            decimal.RequireFromString("1.15"),
		SmallDebtThreshold:      30_000_000,
		FastTargetMonths:        4,
		StandardTargetMonths:    9,
		MinMonthly:              50_000,
		DueDayOffsets:           [4]int{0, 1, 3, 5},
		MinLeadDays:             14,
		PushDays:                30,
		Rounding:                DefaultRounding(),
	}
}

// Suggest runs the default policy.
func Suggest(in Input) domain.Suggestion {
	return DefaultPolicy().Suggest(in)
}

// Suggest computes a plan for in.
func (p Policy) Suggest(in Input) domain.Suggestion {
	if in.MonthlyIncome == nil || *in.MonthlyIncome <= 0 || in.MonthlyCap < 0 {
		return none(ReasonMissingIncome)
	}
	income := *in.MonthlyIncome
	available := income - in.MonthlyCap
	if available <= 0 {
		return none(ReasonNoHeadroom)
	}
	capacity := available - in.ExistingMonthlyLoad
	if capacity <= 0 {
		return none(ReasonNoCapacity)
	}
	if in.Total <= 0 {
		return none(ReasonNothingDue)
	}
	if !domain.ValidDate(in.Today) {
		return none(ReasonInvalidDate)
	}

	total := decimal.NewFromInt(in.Total)
	incomeD := decimal.NewFromInt(income)
	capacityD := decimal.NewFromInt(capacity)
	dueDay := p.DueDay(in.SalaryDay, in.Priority)

	if total.LessThanOrEqual(capacityD.Mul(p.OneTimeCapacityRatio)) ||
		total.LessThanOrEqual(incomeD.Mul(p.OneTimeIncomeRatio)) {
		return domain.Suggestion{
			Kind: domain.SuggestOneTime,
			Plan: domain.OneTimePlan{
				Amount:  p.Rounding.Nice(total),
				DueDate: p.OneTimeDueDate(in.Today, dueDay),
			},
			ClearsInMonths: 1,
		}
	}

	monthly, months := p.MonthlyAmount(in.Total, capacity)
	if in.Priority == domain.PriorityCritical && in.Total > monthly*p.SplitMonthThreshold {
		upfront := p.Rounding.Nice(decimal.Min(
			total.Mul(p.SplitUpfrontRatio),
			incomeD.Mul(p.SplitUpfrontCapRatio),
		))
		remMonthly, remMonths := p.MonthlyAmount(max(in.Total-upfront, 0), capacity)
		return domain.Suggestion{
			Kind: domain.SuggestSplit,
			Plan: domain.SplitPlan{
				UpfrontAmount:  upfront,
				UpfrontDueDate: p.OneTimeDueDate(in.Today, dueDay),
				MonthlyAmount:  remMonthly,
				DueDay:         dueDay,
				StartMonth:     p.StartMonth(in.Today, dueDay),
			},
			ClearsInMonths: int(1 + remMonths),
		}
	}

	return domain.Suggestion{
		Kind: domain.SuggestMonthly,
		Plan: domain.MonthlyPlan{
			MonthlyAmount: monthly,
			DueDay:        dueDay,
			StartMonth:    p.StartMonth(in.Today, dueDay),
		},
		ClearsInMonths: int(months),
	}
}

func none(reason string) domain.Suggestion {
	return domain.Suggestion{Kind: domain.SuggestNone, Reason: reason}
}

// DueDay offsets the salary day by priority and wraps into [1, 28].
func (p Policy) DueDay(salaryDay int, priority domain.Priority) int {
	if !priority.Valid() {
		priority = domain.PriorityStandard
	}
	offset := p.DueDayOffsets[priority]
	return domain.ClampDueDay(((salaryDay+offset-1)%domain.MaxDueDay+domain.MaxDueDay)%domain.MaxDueDay + 1)
}

// MonthlyAmount picks a per-month amount for total against capacity and
// returns it with the number of months it takes to clear total.
func (p Policy) MonthlyAmount(total, capacity int64) (monthly, months int64) {
	maxMonthly := decimal.NewFromInt(capacity).Mul(p.MaxMonthlyCapacityRatio)
	target := p.StandardTargetMonths
	if total < p.SmallDebtThreshold {
		target = p.FastTargetMonths
	}
	raw := decimal.Min(decimal.NewFromInt(total).Div(decimal.NewFromInt(target)), maxMonthly)

	monthly = p.Rounding.Nice(raw)
	if decimal.NewFromInt(monthly).GreaterThan(maxMonthly.Mul(p.NiceOverflow)) {
		monthly = p.Rounding.NiceDown(raw)
	}
	monthly = max(p.MinMonthly, monthly)
	if monthly <= 0 {
		return monthly, target
	}
	return monthly, ceilDiv(total, monthly)
}

// OneTimeDueDate lands on dueDay of the month after today, pushed out when
// that is closer than MinLeadDays.
func (p Policy) OneTimeDueDate(today string, dueDay int) string {
	base, err := domain.ParseDate(today)
	if err != nil {
		return today
	}
	next := base.AddDate(0, 1, 0)
	due := dateOn(next.Year(), int(next.Month()), domain.ClampDueDay(dueDay))
	days, _ := domain.DaysBetween(today, due)
	if days < p.MinLeadDays {
		pushed, _ := domain.AddDays(due, p.PushDays)
		return pushed
	}
	return due
}

// StartMonth returns the first month whose dueDay is at least MinLeadDays
// away from today: the current month or the next one.
func (p Policy) StartMonth(today string, dueDay int) string {
	first, err := domain.FirstOfMonth(today)
	if err != nil {
		return today
	}
	due, _ := domain.DateWithDay(first, dueDay)
	days, _ := domain.DaysBetween(today, due)
	if days < p.MinLeadDays {
		next, _ := domain.AddMonths(first, 1)
		return next
	}
	return first
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
