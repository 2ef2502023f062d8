package quest

import (
	"github.com/shopspring/decimal"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// Standing is the ledger state a quest is scored against.
type Standing struct {
	EarnedNet        int64
	ObligationsTotal int64
	SelfReportedDebt *int64
}

// Progress is how far along the active quest is.
type Progress struct {
	Kind   domain.QuestKind `json:"kind"`
	Name   string           `json:"name,omitempty"`
	Amount int64            `json:"amount"`
	Target int64            `json:"target"`
	Ratio  decimal.Decimal  `json:"ratio"`
}

// Score computes progress for q, which may be nil when no quest is active.
// The ratio is always within [0, 1].
func Score(q *domain.Quest, st Standing) Progress {
	kind := domain.QuestEarnedClimb
	var name string
	target := int64(0)
	if st.SelfReportedDebt != nil {
		target = *st.SelfReportedDebt
	}
	baseline := st.ObligationsTotal
	var shadow int64
	if q != nil {
		if q.Kind != "" {
			kind = q.Kind
		}
		name = q.Name
		target = q.TargetAmount
		if q.BaselineAmount != nil {
			baseline = *q.BaselineAmount
		}
		if q.ShadowDebt != nil {
			shadow = *q.ShadowDebt
		}
	}

	var amount int64
	switch kind {
	case domain.QuestDebtCut:
		start := baseline
		if start <= 0 {
			start = st.ObligationsTotal
		}
		amount = min(max(0, start-st.ObligationsTotal), max(1, target))
	case domain.QuestRecoveryMap:
		shifted := st.EarnedNet - (st.ObligationsTotal + shadow) + baseline
		amount = clamp(shifted, 0, max(1, target))
	default:
		amount = clamp(st.EarnedNet, 0, max(0, target))
	}

	return Progress{Kind: kind, Name: name, Amount: amount, Target: target, Ratio: Ratio(amount, target)}
}

// Ratio is amount/target clamped to [0, 1]; a non-positive target is 0.
func Ratio(amount, target int64) decimal.Decimal {
	if target <= 0 {
		return decimal.Zero
	}
	r := decimal.NewFromInt(amount).Div(decimal.NewFromInt(target))
	return decimal.Min(decimal.NewFromInt(1), decimal.Max(decimal.Zero, r))
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}
