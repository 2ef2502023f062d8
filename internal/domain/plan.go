package domain

import (
	"encoding/json"
	"fmt"
)

// ─── Repayment Plans ────────────────────────────────────────────────────────

// PlanType tags a repayment plan.
type PlanType string

const (
	PlanOneTime PlanType = "one_time"
	PlanMonthly PlanType = "monthly"
	PlanSplit   PlanType = "split"
)

// Plan is a closed sum type of repayment plans.
type Plan interface {
	Type() PlanType
	isPlan()
}

// OneTimePlan pays the obligation in a single cycle.
type OneTimePlan struct {
	Amount  int64
	DueDate string
}

// MonthlyPlan amortizes the obligation from StartMonth on DueDay.
type MonthlyPlan struct {
	MonthlyAmount int64
	DueDay        int
	StartMonth    string
}

// SplitPlan pays an upfront cycle and amortizes the remainder monthly.
type SplitPlan struct {
	UpfrontAmount  int64
	UpfrontDueDate string
	MonthlyAmount  int64
	DueDay         int
	StartMonth     string
}

func (OneTimePlan) Type() PlanType { return PlanOneTime }
func (MonthlyPlan) Type() PlanType { return PlanMonthly }
func (SplitPlan) Type() PlanType   { return PlanSplit }

func (OneTimePlan) isPlan() {}
func (MonthlyPlan) isPlan() {}
func (SplitPlan) isPlan()   {}

// PlanSpec is the flat wire form of a Plan.
type PlanSpec struct {
	Type           PlanType `json:"type"`
	Amount         int64    `json:"amount,omitempty"`
	DueDate        string   `json:"due_date,omitempty"`
	UpfrontAmount  int64    `json:"upfront_amount,omitempty"`
	UpfrontDueDate string   `json:"upfront_due_date,omitempty"`
	MonthlyAmount  int64    `json:"monthly_amount,omitempty"`
	DueDay         int      `json:"due_day,omitempty"`
	StartMonth     string   `json:"start_month,omitempty"`
}

// SpecOf flattens p. A nil plan yields the zero spec.
func SpecOf(p Plan) PlanSpec {
	switch v := p.(type) {
	case OneTimePlan:
		return PlanSpec{Type: PlanOneTime, Amount: v.Amount, DueDate: v.DueDate}
	case MonthlyPlan:
		return PlanSpec{Type: PlanMonthly, MonthlyAmount: v.MonthlyAmount, DueDay: v.DueDay, StartMonth: v.StartMonth}
	case SplitPlan:
		return PlanSpec{
			Type:           PlanSplit,
			UpfrontAmount:  v.UpfrontAmount,
			UpfrontDueDate: v.UpfrontDueDate,
			MonthlyAmount:  v.MonthlyAmount,
			DueDay:         v.DueDay,
			StartMonth:     v.StartMonth,
		}
	default:
		return PlanSpec{}
	}
}

// Plan converts the spec into its typed variant.
func (s PlanSpec) Plan() (Plan, error) {
	switch s.Type {
	case PlanOneTime:
		return OneTimePlan{Amount: s.Amount, DueDate: s.DueDate}, nil
	case PlanMonthly:
		return MonthlyPlan{MonthlyAmount: s.MonthlyAmount, DueDay: s.DueDay, StartMonth: s.StartMonth}, nil
	case PlanSplit:
		return SplitPlan{
			UpfrontAmount:  s.UpfrontAmount,
			UpfrontDueDate: s.UpfrontDueDate,
			MonthlyAmount:  s.MonthlyAmount,
			DueDay:         s.DueDay,
			StartMonth:     s.StartMonth,
		}, nil
	default:
		return nil, fmt.Errorf("plan type %q: %w", s.Type, ErrInvalidInput)
	}
}

// ─── Suggestions ────────────────────────────────────────────────────────────

// SuggestionKind classifies a synthesized plan.
type SuggestionKind string

const (
	SuggestNone    SuggestionKind = "NONE"
	SuggestOneTime SuggestionKind = "ONE_TIME"
	SuggestMonthly SuggestionKind = "MONTHLY"
	SuggestSplit   SuggestionKind = "SPLIT"
)

// Suggestion is the Plan Synthesizer's result. Kind NONE carries Reason
// and a nil Plan; every other kind carries a Plan.
type Suggestion struct {
	Kind           SuggestionKind
	Reason         string
	Plan           Plan
	ClearsInMonths int
}

// MarshalJSON flattens the plan into the suggestion body.
func (s Suggestion) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind           SuggestionKind `json:"kind"`
		Reason         string         `json:"reason,omitempty"`
		Plan           *PlanSpec      `json:"plan,omitempty"`
		ClearsInMonths int            `json:"clears_in_months,omitempty"`
	}{Kind: s.Kind, Reason: s.Reason, ClearsInMonths: s.ClearsInMonths}
	if s.Plan != nil {
		spec := SpecOf(s.Plan)
		out.Plan = &spec
	}
	return json.Marshal(out)
}
