// Package quest generates the onboarding quest menu and scores progress
// against the active quest.
package quest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// Fallbacks used when the user has not answered a question yet.
const (
	DefaultIncome     int64 = 10_000_000
	DefaultCap        int64 = 15_000_000
	DefaultObligation int64 = 1_000_000

	minSurplus int64 = 1_000_000
)

// Input is what the onboarding flow knows about the user.
type Input struct {
	MonthlyIncome    int64
	MonthlyCap       int64
	ObligationsTotal int64
	SelfReportedDebt int64
}

// Option is one pickable quest.
type Option struct {
	Kind         domain.QuestKind `json:"kind"`
	Tier         int              `json:"tier"`
	Title        string           `json:"title"`
	Subtitle     string           `json:"subtitle"`
	TargetAmount int64            `json:"target_amount"`
	TargetLabel  string           `json:"target_label"`
	RuleTag      string           `json:"rule_tag"`
	Description  string           `json:"description"`
	ETAMonths    *int64           `json:"eta_months,omitempty"`
}

// Meta holds the derived baselines shared by every option.
type Meta struct {
	BaseDebt         int64 `json:"base_debt"`
	RecoveryBaseDebt int64 `json:"recovery_base_debt"`
	ShadowDebt       int64 `json:"shadow_debt"`
	EffectiveCap     int64 `json:"effective_cap"`
	CanEstimate      bool  `json:"can_estimate"`
}

// Menu is the full option set, three tiers per kind.
type Menu struct {
	DebtCut     []Option `json:"debt_cut"`
	EarnedClimb []Option `json:"earned_climb"`
	RecoveryMap []Option `json:"recovery_map"`
	Meta        Meta     `json:"meta"`
}

type tierText struct {
	title, subtitle, description string
}

var (
	debtText = [3]tierText{
		{"First Cut", "Shrink what you owe fast", "Progress only moves when you confirm obligation payments."},
		{"Half the Monster", "Cut total debt in half", "A medium-length grind focused on pure debt reduction."},
		{"Debt Zero", "Close every obligation fully", "Finish the loop completely. No obligations left standing."},
	}
	earnedText = [3]tierText{
		{"Surplus Month", "Prove one strong month of earned net", "Borrowed cash never advances this ring."},
		{"Quarter-Year", "Three months of surplus momentum", "A balanced climb that rewards consistency."},
		{"Half-Year", "Six months of surplus earned", "A serious commitment to sustained surplus."},
	}
	recoveryText = [3]tierText{
		{"Break Even", "Debt cleared on paper, clean slate", "Score rises with earned net and debt cleared."},
		{"Safe Ground", "Debt cleared plus 3 month buffer", "Add a safety buffer after clearing the debt line."},
		{"Shielded", "Debt cleared plus 6 month runway", "Aim for stability beyond recovery."},
	}
	surplusMultipliers = [3]int64{1, 3, 6}
)

// Options builds the quest menu for in.
func Options(in Input) Menu {
	income := in.MonthlyIncome
	if income <= 0 {
		income = DefaultIncome
	}
	limit := in.MonthlyCap
	if limit <= 0 {
		limit = DefaultCap
	}
	safeSurplus := max(minSurplus, income-limit)
	selfDebt := max(0, in.SelfReportedDebt)

	baseDebt := max(in.ObligationsTotal, DefaultObligation)
	recoveryBase := max(selfDebt, in.ObligationsTotal, DefaultObligation)

	meta := Meta{
		BaseDebt:         baseDebt,
		RecoveryBaseDebt: recoveryBase,
		ShadowDebt:       max(0, selfDebt-in.ObligationsTotal),
		EffectiveCap:     limit,
		CanEstimate:      in.MonthlyIncome > 0 && in.MonthlyCap > 0 && in.MonthlyIncome > in.MonthlyCap,
	}
	eta := func(target int64) *int64 {
		if !meta.CanEstimate {
			return nil
		}
		m := max(1, (target+safeSurplus-1)/safeSurplus)
		return &m
	}

	base := decimal.NewFromInt(baseDebt)
	debtTargets := [3]int64{
		max(0, base.Mul(decimal.RequireFromString("0.2")).Round(0).IntPart()),
		max(0, base.Mul(decimal.RequireFromString("0.5")).Round(0).IntPart()),
		baseDebt,
	}

	var m Menu
	m.Meta = meta
	for i := 0; i < 3; i++ {
		earned := safeSurplus * surplusMultipliers[i]
		recovery := recoveryBase + safeSurplus*surplusMultipliers[i]
		m.DebtCut = append(m.DebtCut, option(domain.QuestDebtCut, i, debtText[i], debtTargets[i], "Target debt cleared", "Debt Only", eta))
		m.EarnedClimb = append(m.EarnedClimb, option(domain.QuestEarnedClimb, i, earnedText[i], earned, "Target earned net", "Earned Net", eta))
		m.RecoveryMap = append(m.RecoveryMap, option(domain.QuestRecoveryMap, i, recoveryText[i], recovery, "Target recovery score", "Full Map", eta))
	}
	return m
}

func option(kind domain.QuestKind, i int, txt tierText, target int64, label, rule string, eta func(int64) *int64) Option {
	return Option{
		Kind:         kind,
		Tier:         i + 1,
		Title:        txt.title,
		Subtitle:     txt.subtitle,
		TargetAmount: target,
		TargetLabel:  label,
		RuleTag:      rule,
		Description:  txt.description,
		ETAMonths:    eta(target),
	}
}

// Find returns the option of kind at tier.
func (m Menu) Find(kind domain.QuestKind, tier int) (Option, error) {
	var list []Option
	switch kind {
	case domain.QuestDebtCut:
		list = m.DebtCut
	case domain.QuestEarnedClimb:
		list = m.EarnedClimb
	case domain.QuestRecoveryMap:
		list = m.RecoveryMap
	default:
		return Option{}, fmt.Errorf("quest kind %q: %w", kind, domain.ErrInvalidInput)
	}
	for _, o := range list {
		if o.Tier == tier {
			return o, nil
		}
	}
	return Option{}, fmt.Errorf("quest tier %d: %w", tier, domain.ErrInvalidInput)
}

// Quest turns a picked option into the quest record to store. Debt and
// recovery quests remember their starting baseline; only recovery carries
// shadow debt.
func (m Menu) Quest(o Option) domain.Quest {
	var baseline, shadow int64
	switch o.Kind {
	case domain.QuestDebtCut:
		baseline = m.Meta.BaseDebt
	case domain.QuestRecoveryMap:
		baseline = m.Meta.RecoveryBaseDebt
		shadow = m.Meta.ShadowDebt
	}
	return domain.Quest{
		Name:           modeLabel(o.Kind) + ": " + o.Title,
		TargetAmount:   o.TargetAmount,
		Kind:           o.Kind,
		Tier:           o.Tier,
		BaselineAmount: &baseline,
		ShadowDebt:     &shadow,
	}
}

func modeLabel(kind domain.QuestKind) string {
	switch kind {
	case domain.QuestDebtCut:
		return "Debt Cut"
	case domain.QuestRecoveryMap:
		return "Recovery Map"
	default:
		return "Earned Climb"
	}
}
