package quest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencio-app/cadencio/internal/domain"
)

func targets(opts []Option) []int64 {
	out := make([]int64, len(opts))
	for i, o := range opts {
		out[i] = o.TargetAmount
	}
	return out
}

func TestOptions(t *testing.T) {
	m := Options(Input{
		MonthlyIncome:    20_000_000,
		MonthlyCap:       10_000_000,
		ObligationsTotal: 5_000_000,
		SelfReportedDebt: 8_000_000,
	})

	assert.Equal(t, []int64{1_000_000, 2_500_000, 5_000_000}, targets(m.DebtCut))
	assert.Equal(t, []int64{10_000_000, 30_000_000, 60_000_000}, targets(m.EarnedClimb))
	assert.Equal(t, []int64{18_000_000, 38_000_000, 68_000_000}, targets(m.RecoveryMap))

	assert.Equal(t, int64(3_000_000), m.Meta.ShadowDebt)
	assert.Equal(t, int64(8_000_000), m.Meta.RecoveryBaseDebt)
	assert.True(t, m.Meta.CanEstimate)

	require.NotNil(t, m.DebtCut[0].ETAMonths)
	assert.Equal(t, int64(1), *m.DebtCut[0].ETAMonths)
	require.NotNil(t, m.EarnedClimb[2].ETAMonths)
	assert.Equal(t, int64(6), *m.EarnedClimb[2].ETAMonths)
	assert.Equal(t, "Half the Monster", m.DebtCut[1].Title)
	assert.Equal(t, 3, m.RecoveryMap[2].Tier)
}

func TestOptions_Defaults(t *testing.T) {
	m := Options(Input{})

	assert.False(t, m.Meta.CanEstimate)
	assert.Equal(t, DefaultCap, m.Meta.EffectiveCap)
	assert.Equal(t, []int64{200_000, 500_000, 1_000_000}, targets(m.DebtCut))
	assert.Equal(t, []int64{1_000_000, 3_000_000, 6_000_000}, targets(m.EarnedClimb))
	for _, o := range m.EarnedClimb {
		assert.Nil(t, o.ETAMonths)
	}
}

func TestMenuQuest(t *testing.T) {
	m := Options(Input{MonthlyIncome: 20_000_000, MonthlyCap: 10_000_000, ObligationsTotal: 5_000_000, SelfReportedDebt: 8_000_000})

	o, err := m.Find(domain.QuestRecoveryMap, 2)
	require.NoError(t, err)
	q := m.Quest(o)
	assert.Equal(t, "Recovery Map: Safe Ground", q.Name)
	assert.Equal(t, int64(8_000_000), *q.BaselineAmount)
	assert.Equal(t, int64(3_000_000), *q.ShadowDebt)

	o, err = m.Find(domain.QuestEarnedClimb, 1)
	require.NoError(t, err)
	q = m.Quest(o)
	assert.Equal(t, "Earned Climb: Surplus Month", q.Name)
	assert.Zero(t, *q.BaselineAmount)
	assert.Zero(t, *q.ShadowDebt)

	_, err = m.Find(domain.QuestDebtCut, 4)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = m.Find("speedrun", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func ptr(v int64) *int64 { return &v }

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		quest  *domain.Quest
		st     Standing
		amount int64
		ratio  string
	}{
		{
			name:   "earned climb excludes borrowed",
			quest:  &domain.Quest{Kind: domain.QuestEarnedClimb, TargetAmount: 10_000_000},
			st:     Standing{EarnedNet: 3_000_000},
			amount: 3_000_000,
			ratio:  "0.3",
		},
		{
			name:   "earned climb negative net",
			quest:  &domain.Quest{Kind: domain.QuestEarnedClimb, TargetAmount: 10_000_000},
			st:     Standing{EarnedNet: -4_000_000},
			amount: 0,
			ratio:  "0",
		},
		{
			name:   "debt cut clamps to target",
			quest:  &domain.Quest{Kind: domain.QuestDebtCut, TargetAmount: 1_000_000, BaselineAmount: ptr(5_000_000)},
			st:     Standing{ObligationsTotal: 2_000_000},
			amount: 1_000_000,
			ratio:  "1",
		},
		{
			name:   "debt cut grew debt",
			quest:  &domain.Quest{Kind: domain.QuestDebtCut, TargetAmount: 1_000_000, BaselineAmount: ptr(5_000_000)},
			st:     Standing{ObligationsTotal: 7_000_000},
			amount: 0,
			ratio:  "0",
		},
		{
			name:   "recovery map",
			quest:  &domain.Quest{Kind: domain.QuestRecoveryMap, TargetAmount: 18_000_000, BaselineAmount: ptr(8_000_000), ShadowDebt: ptr(3_000_000)},
			st:     Standing{EarnedNet: 5_000_000, ObligationsTotal: 4_000_000},
			amount: 6_000_000,
			ratio:  "0.3333333333333333",
		},
		{
			name:   "no quest uses self-reported debt",
			st:     Standing{EarnedNet: 2_000_000, SelfReportedDebt: ptr(8_000_000)},
			amount: 2_000_000,
			ratio:  "0.25",
		},
		{
			name:   "no target",
			st:     Standing{EarnedNet: 2_000_000},
			amount: 0,
			ratio:  "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Score(tt.quest, tt.st)
			assert.Equal(t, tt.amount, p.Amount)
			assert.True(t, p.Ratio.Equal(decimal.RequireFromString(tt.ratio)), "ratio = %s, want %s", p.Ratio, tt.ratio)
			assert.True(t, p.Ratio.GreaterThanOrEqual(decimal.Zero) && p.Ratio.LessThanOrEqual(decimal.NewFromInt(1)))
		})
	}
}

func TestRatio_Bounds(t *testing.T) {
	for _, c := range [][2]int64{{-5, 10}, {0, 0}, {20, 10}, {5, -1}, {7, 7}} {
		r := Ratio(c[0], c[1])
		assert.True(t, r.GreaterThanOrEqual(decimal.Zero), "%v", c)
		assert.True(t, r.LessThanOrEqual(decimal.NewFromInt(1)), "%v", c)
	}
}
