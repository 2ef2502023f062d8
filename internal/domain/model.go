// Package domain contains pure domain types for Cadencio.
// Zero external dependencies, only stdlib.
package domain

import (
	"slices"
	"time"
)

// ─── Enumerations ───────────────────────────────────────────────────────────

// Direction is the sign of a money movement.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Valid reports whether d is IN or OUT.
func (d Direction) Valid() bool { return d == DirectionIn || d == DirectionOut }

// Priority ranks obligations. 1 is critical, 3 is standard.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityStandard Priority = 3
)

// Valid reports whether p is within 1..3.
func (p Priority) Valid() bool { return p >= PriorityCritical && p <= PriorityStandard }

// Cadence describes how a cycle was generated.
type Cadence string

const (
	CadenceOneTime Cadence = "one_time"
	CadenceMonthly Cadence = "monthly"
)

// CycleStatus is the state of one obligation cycle.
// PLANNED → MISSED (due passed) and PLANNED|MISSED → PAID. PAID is terminal.
type CycleStatus string

const (
	CyclePlanned CycleStatus = "PLANNED"
	CyclePaid    CycleStatus = "PAID"
	CycleMissed  CycleStatus = "MISSED"
)

// QuestKind selects the quest scoring mode.
type QuestKind string

const (
	QuestDebtCut     QuestKind = "debt_cut"
	QuestEarnedClimb QuestKind = "earned_climb"
	QuestRecoveryMap QuestKind = "recovery_map"
)

// ZoneKind classifies a money bucket.
type ZoneKind string

const (
	ZoneAsset     ZoneKind = "asset"
	ZoneFlow      ZoneKind = "flow"
	ZoneLiability ZoneKind = "liability"
)

// Valid reports whether k is a known zone kind.
func (k ZoneKind) Valid() bool {
	return k == ZoneAsset || k == ZoneFlow || k == ZoneLiability
}

// ActivityType names the user-facing action an activity records.
type ActivityType string

const (
	ActivityTransactionAdded  ActivityType = "transaction_added"
	ActivityTransferCreated   ActivityType = "transfer_created"
	ActivityObligationPlanned ActivityType = "obligation_planned"
	ActivityConfirmedPaid     ActivityType = "confirmed_paid"
	ActivityDebtBorrowed      ActivityType = "debt_borrowed"
)

// Well-known transaction tags.
const (
	TagInternalTransfer  = "internal_transfer"
	TagDebtPrincipal     = "debt_principal"
	TagObligationPayment = "obligation_payment"
	TagConfirmed         = "confirmed"
)

// ─── Transaction ────────────────────────────────────────────────────────────

// Transaction is an immutable money-movement record. Amount is in minor units.
type Transaction struct {
	ID          string           `json:"id"`
	Date        string           `json:"date"`
	Amount      int64            `json:"amount"`
	Direction   Direction        `json:"direction"`
	CategoryID  string           `json:"category_id"`
	Note        string           `json:"note,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	ConfirmedAt *time.Time       `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Meta        *TransactionMeta `json:"meta,omitempty"`
}

// TransactionMeta links a transaction to zones or an obligation cycle.
type TransactionMeta struct {
	FromZoneID               string `json:"from_zone_id,omitempty"`
	ToZoneID                 string `json:"to_zone_id,omitempty"`
	RelatedObligationCycleID string `json:"related_obligation_cycle_id,omitempty"`
}

// HasTag reports whether the transaction carries tag.
func (t Transaction) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// IsTransfer reports whether the transaction is one leg of an internal transfer.
func (t Transaction) IsTransfer() bool { return t.HasTag(TagInternalTransfer) }

// ─── Obligation ─────────────────────────────────────────────────────────────

// Obligation is a named debt with an embedded, ordered cycle list.
type Obligation struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TotalAmount int64    `json:"total_amount"`
	Priority    Priority `json:"priority"`
	Cycles      []Cycle  `json:"cycles"`
}

// Cycle is one expected or actual payment against an obligation.
type Cycle struct {
	ID                       string      `json:"id"`
	Amount                   int64       `json:"amount"`
	DueDate                  string      `json:"due_date"`
	Cadence                  Cadence     `json:"cadence"`
	Status                   CycleStatus `json:"status"`
	ConfirmedAt              *time.Time  `json:"confirmed_at,omitempty"`
	AutoCreatedTransactionID string      `json:"auto_created_transaction_id,omitempty"`
}

// CloneCycles deep-copies a cycle list so snapshots never alias live state.
func CloneCycles(cycles []Cycle) []Cycle {
	if cycles == nil {
		return []Cycle{}
	}
	out := make([]Cycle, len(cycles))
	for i, c := range cycles {
		out[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy of the cycle.
func (c Cycle) Clone() Cycle {
	if c.ConfirmedAt != nil {
		at := *c.ConfirmedAt
		c.ConfirmedAt = &at
	}
	return c
}

// CycleIndex returns the position of the cycle with id, or -1.
func (o Obligation) CycleIndex(id string) int {
	return slices.IndexFunc(o.Cycles, func(c Cycle) bool { return c.ID == id })
}

// ─── Quest ──────────────────────────────────────────────────────────────────

// Quest is a gamified goal. Immutable once created.
type Quest struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	TargetAmount   int64     `json:"target_amount"`
	Kind           QuestKind `json:"kind"`
	Tier           int       `json:"tier"`
	BaselineAmount *int64    `json:"baseline_amount,omitempty"`
	ShadowDebt     *int64    `json:"shadow_debt,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ─── Zone ───────────────────────────────────────────────────────────────────

// HQZoneID is the reserved default sink for non-transfer money movement.
const HQZoneID = "zone_hq"

// HQZoneName is the display name of the reserved zone.
const HQZoneName = "Money In"

// Zone is a named money bucket. Balances are derived, never stored.
type Zone struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      ZoneKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// ─── Activity ───────────────────────────────────────────────────────────────

// Activity is an undo-log entry for one user-facing action.
type Activity struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
	Amount    int64        `json:"amount,omitempty"`
	Direction Direction    `json:"direction,omitempty"`
	Meta      ActivityMeta `json:"meta"`
	Undo      Undo         `json:"-"`

	// Seq is assigned by the store and breaks CreatedAt ties.
	Seq int64 `json:"-"`
}

// ActivityMeta is free-form display data.
type ActivityMeta struct {
	Note           string   `json:"note,omitempty"`
	CategoryID     string   `json:"category_id,omitempty"`
	ObligationName string   `json:"obligation_name,omitempty"`
	PlanType       PlanType `json:"plan_type,omitempty"`
	FromZoneID     string   `json:"from_zone_id,omitempty"`
	ToZoneID       string   `json:"to_zone_id,omitempty"`
}

// Newer reports whether a sorts before b in newest-first order.
func (a Activity) Newer(b Activity) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Seq > b.Seq
}

// ─── Settings ───────────────────────────────────────────────────────────────

// Settings is the singleton user configuration record.
type Settings struct {
	FocusMode             bool       `json:"focus_mode"`
	FrictionEnabled       bool       `json:"friction_enabled"`
	MonthlyIncome         *int64     `json:"monthly_income,omitempty"`
	HoursPerWeek          int        `json:"hours_per_week"`
	MonthlyCap            int64      `json:"monthly_cap"`
	SalaryDay             int        `json:"salary_day"`
	Timezone              string     `json:"timezone"`
	SelfReportedDebt      *int64     `json:"self_reported_debt,omitempty"`
	ActiveQuestID         string     `json:"active_quest_id,omitempty"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`
}

// Income returns the monthly income, or 0 when unset.
func (s Settings) Income() int64 {
	if s.MonthlyIncome == nil {
		return 0
	}
	return *s.MonthlyIncome
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	FocusMode             *bool      `json:"focus_mode,omitempty"`
	FrictionEnabled       *bool      `json:"friction_enabled,omitempty"`
	MonthlyIncome         *int64     `json:"monthly_income,omitempty"`
	HoursPerWeek          *int       `json:"hours_per_week,omitempty"`
	MonthlyCap            *int64     `json:"monthly_cap,omitempty"`
	SalaryDay             *int       `json:"salary_day,omitempty"`
	Timezone              *string    `json:"timezone,omitempty"`
	SelfReportedDebt      *int64     `json:"self_reported_debt,omitempty"`
	ActiveQuestID         *string    `json:"active_quest_id,omitempty"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`
}

// Apply returns s with every non-nil patch field written over it.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.FocusMode != nil {
		s.FocusMode = *p.FocusMode
	}
	if p.FrictionEnabled != nil {
		s.FrictionEnabled = *p.FrictionEnabled
	}
	if p.MonthlyIncome != nil {
		v := *p.MonthlyIncome
		s.MonthlyIncome = &v
	}
	if p.HoursPerWeek != nil {
		s.HoursPerWeek = *p.HoursPerWeek
	}
	if p.MonthlyCap != nil {
		s.MonthlyCap = *p.MonthlyCap
	}
	if p.SalaryDay != nil {
		s.SalaryDay = *p.SalaryDay
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.SelfReportedDebt != nil {
		v := *p.SelfReportedDebt
		s.SelfReportedDebt = &v
	}
	if p.ActiveQuestID != nil {
		s.ActiveQuestID = *p.ActiveQuestID
	}
	if p.OnboardingCompletedAt != nil {
		at := *p.OnboardingCompletedAt
		s.OnboardingCompletedAt = &at
	}
	return s
}

// DefaultSettings returns the settings written on first launch.
func DefaultSettings(timezone string) Settings {
	if timezone == "" {
		timezone = "UTC"
	}
	return Settings{
		FocusMode:       true,
		FrictionEnabled: true,
		HoursPerWeek:    40,
		MonthlyCap:      15_000_000,
		SalaryDay:       15,
		Timezone:        timezone,
	}
}
