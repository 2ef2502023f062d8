package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// ledgerTx implements domain.Tx over one *sql.Tx.
type ledgerTx struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
	dirty    map[domain.Collection]bool
}

func (t *ledgerTx) touch(c domain.Collection) error {
	if t.readOnly {
		return errReadOnly
	}
	t.dirty[c] = true
	return nil
}

func (t *ledgerTx) exec(c domain.Collection, query string, args ...any) error {
	if err := t.touch(c); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx, query, args...)
	return err
}

// ─── Transactions ───────────────────────────────────────────────────────────

const txColumns = `id, date, amount, direction, category_id, note, tags, confirmed_at, created_at, meta`

// GetTransaction retrieves one transaction, or nil if it does not exist.
func (t *ledgerTx) GetTransaction(id string) (*domain.Transaction, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return &tx, nil
}

// ListTransactions returns every transaction ordered by date then creation.
func (t *ledgerTx) ListTransactions() ([]domain.Transaction, error) {
	rows, err := t.tx.QueryContext(t.ctx, `SELECT `+txColumns+` FROM transactions ORDER BY date, created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// PutTransaction inserts or replaces a transaction.
func (t *ledgerTx) PutTransaction(tx domain.Transaction) error {
	tags, err := json.Marshal(nonNilTags(tx.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	var meta any
	if tx.Meta != nil {
		b, err := json.Marshal(tx.Meta)
		if err != nil {
			return fmt.Errorf("encode meta: %w", err)
		}
		meta = string(b)
	}
	return t.exec(domain.CollTransactions, `
		INSERT INTO transactions (`+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date         = excluded.date,
			amount       = excluded.amount,
			direction    = excluded.direction,
			category_id  = excluded.category_id,
			note         = excluded.note,
			tags         = excluded.tags,
			confirmed_at = excluded.confirmed_at,
			created_at   = excluded.created_at,
			meta         = excluded.meta
	`, tx.ID, tx.Date, tx.Amount, string(tx.Direction), tx.CategoryID, tx.Note, string(tags),
		nullTime(tx.ConfirmedAt), tx.CreatedAt.UnixMilli(), meta)
}

// DeleteTransactions removes the named transactions. Missing ids are ignored.
func (t *ledgerTx) DeleteTransactions(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return t.exec(domain.CollTransactions,
		`DELETE FROM transactions WHERE id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...)
}

func scanTransaction(s scanner) (domain.Transaction, error) {
	var (
		tx          domain.Transaction
		direction   string
		tags        string
		confirmedAt sql.NullInt64
		createdAt   int64
		meta        sql.NullString
	)
	err := s.Scan(&tx.ID, &tx.Date, &tx.Amount, &direction, &tx.CategoryID, &tx.Note, &tags,
		&confirmedAt, &createdAt, &meta)
	if err != nil {
		return tx, err
	}
	tx.Direction = domain.Direction(direction)
	tx.CreatedAt = fromMillis(createdAt)
	tx.ConfirmedAt = timeFromNull(confirmedAt)
	if err := json.Unmarshal([]byte(tags), &tx.Tags); err != nil {
		return tx, fmt.Errorf("decode tags: %w", err)
	}
	if len(tx.Tags) == 0 {
		tx.Tags = nil
	}
	if meta.Valid {
		tx.Meta = &domain.TransactionMeta{}
		if err := json.Unmarshal([]byte(meta.String), tx.Meta); err != nil {
			return tx, fmt.Errorf("decode meta: %w", err)
		}
	}
	return tx, nil
}

// ─── Obligations ────────────────────────────────────────────────────────────

// GetObligation retrieves one obligation, or nil if it does not exist.
func (t *ledgerTx) GetObligation(id string) (*domain.Obligation, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT id, name, total_amount, priority, cycles FROM obligations WHERE id = ?
	`, id)
	o, err := scanObligation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get obligation %s: %w", id, err)
	}
	return &o, nil
}

// ListObligations returns all obligations in creation order.
func (t *ledgerTx) ListObligations() ([]domain.Obligation, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT id, name, total_amount, priority, cycles FROM obligations ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	defer rows.Close()

	var out []domain.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// PutObligation inserts or replaces an obligation with its cycle list.
func (t *ledgerTx) PutObligation(o domain.Obligation) error {
	cycles := o.Cycles
	if cycles == nil {
		cycles = []domain.Cycle{}
	}
	b, err := json.Marshal(cycles)
	if err != nil {
		return fmt.Errorf("encode cycles: %w", err)
	}
	return t.exec(domain.CollObligations, `
		INSERT INTO obligations (id, name, total_amount, priority, cycles)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name         = excluded.name,
			total_amount = excluded.total_amount,
			priority     = excluded.priority,
			cycles       = excluded.cycles
	`, o.ID, o.Name, o.TotalAmount, int(o.Priority), string(b))
}

// DeleteObligation removes an obligation. A missing id is ignored.
func (t *ledgerTx) DeleteObligation(id string) error {
	return t.exec(domain.CollObligations, `DELETE FROM obligations WHERE id = ?`, id)
}

func scanObligation(s scanner) (domain.Obligation, error) {
	var (
		o        domain.Obligation
		priority int
		cycles   string
	)
	if err := s.Scan(&o.ID, &o.Name, &o.TotalAmount, &priority, &cycles); err != nil {
		return o, err
	}
	o.Priority = domain.Priority(priority)
	if err := json.Unmarshal([]byte(cycles), &o.Cycles); err != nil {
		return o, fmt.Errorf("decode cycles: %w", err)
	}
	if o.Cycles == nil {
		o.Cycles = []domain.Cycle{}
	}
	return o, nil
}

// ─── Quests ─────────────────────────────────────────────────────────────────

const questColumns = `id, name, target_amount, kind, tier, baseline_amount, shadow_debt, created_at`

// GetQuest retrieves one quest, or nil if it does not exist.
func (t *ledgerTx) GetQuest(id string) (*domain.Quest, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+questColumns+` FROM quests WHERE id = ?`, id)
	q, err := scanQuest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quest %s: %w", id, err)
	}
	return &q, nil
}

// ListQuests returns all quests oldest first.
func (t *ledgerTx) ListQuests() ([]domain.Quest, error) {
	rows, err := t.tx.QueryContext(t.ctx, `SELECT `+questColumns+` FROM quests ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	var out []domain.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// PutQuest inserts or replaces a quest.
func (t *ledgerTx) PutQuest(q domain.Quest) error {
	return t.exec(domain.CollQuests, `
		INSERT INTO quests (`+questColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name            = excluded.name,
			target_amount   = excluded.target_amount,
			kind            = excluded.kind,
			tier            = excluded.tier,
			baseline_amount = excluded.baseline_amount,
			shadow_debt     = excluded.shadow_debt,
			created_at      = excluded.created_at
	`, q.ID, q.Name, q.TargetAmount, string(q.Kind), q.Tier,
		nullInt(q.BaselineAmount), nullInt(q.ShadowDebt), q.CreatedAt.UnixMilli())
}

func scanQuest(s scanner) (domain.Quest, error) {
	var (
		q         domain.Quest
		kind      string
		baseline  sql.NullInt64
		shadow    sql.NullInt64
		createdAt int64
	)
	if err := s.Scan(&q.ID, &q.Name, &q.TargetAmount, &kind, &q.Tier, &baseline, &shadow, &createdAt); err != nil {
		return q, err
	}
	q.Kind = domain.QuestKind(kind)
	q.BaselineAmount = intFromNull(baseline)
	q.ShadowDebt = intFromNull(shadow)
	q.CreatedAt = fromMillis(createdAt)
	return q, nil
}

// ─── Zones ──────────────────────────────────────────────────────────────────

// GetZone retrieves one zone, or nil if it does not exist.
func (t *ledgerTx) GetZone(id string) (*domain.Zone, error) {
	var (
		z         domain.Zone
		kind      string
		createdAt int64
	)
	err := t.tx.QueryRowContext(t.ctx, `SELECT id, name, kind, created_at FROM zones WHERE id = ?`, id).
		Scan(&z.ID, &z.Name, &kind, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get zone %s: %w", id, err)
	}
	z.Kind = domain.ZoneKind(kind)
	z.CreatedAt = fromMillis(createdAt)
	return &z, nil
}

// ListZones returns all zones in creation order.
func (t *ledgerTx) ListZones() ([]domain.Zone, error) {
	rows, err := t.tx.QueryContext(t.ctx, `SELECT id, name, kind, created_at FROM zones ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var out []domain.Zone
	for rows.Next() {
		var (
			z         domain.Zone
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&z.ID, &z.Name, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		z.Kind = domain.ZoneKind(kind)
		z.CreatedAt = fromMillis(createdAt)
		out = append(out, z)
	}
	return out, rows.Err()
}

// PutZone inserts or replaces a zone.
func (t *ledgerTx) PutZone(z domain.Zone) error {
	return t.exec(domain.CollZones, `
		INSERT INTO zones (id, name, kind, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind
	`, z.ID, z.Name, string(z.Kind), z.CreatedAt.UnixMilli())
}

// ─── Activities ─────────────────────────────────────────────────────────────

const activityColumns = `seq, id, type, title, created_at, amount, direction, meta, undo`

// GetActivities returns the existing activities among ids.
func (t *ledgerTx) GetActivities(ids ...string) ([]domain.Activity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return t.queryActivities(`SELECT `+activityColumns+` FROM activities WHERE id IN (`+
		placeholders(len(ids))+`)`, stringArgs(ids)...)
}

// ListActivities returns up to limit activities, newest first.
func (t *ledgerTx) ListActivities(limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = -1
	}
	return t.queryActivities(`SELECT `+activityColumns+` FROM activities
		ORDER BY created_at DESC, seq DESC LIMIT ?`, limit)
}

// AddActivity appends an activity. The store assigns Seq.
func (t *ledgerTx) AddActivity(a domain.Activity) error {
	meta, err := json.Marshal(a.Meta)
	if err != nil {
		return fmt.Errorf("encode activity meta: %w", err)
	}
	undo, err := domain.EncodeUndo(a.Undo)
	if err != nil {
		return err
	}
	var undoArg any
	if undo != nil {
		undoArg = string(undo)
	}
	return t.exec(domain.CollActivities, `
		INSERT INTO activities (id, type, title, created_at, amount, direction, meta, undo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, string(a.Type), a.Title, a.CreatedAt.UnixMilli(), a.Amount, string(a.Direction), string(meta), undoArg)
}

// DeleteActivities removes the named activities. Missing ids are ignored.
func (t *ledgerTx) DeleteActivities(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return t.exec(domain.CollActivities,
		`DELETE FROM activities WHERE id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...)
}

func (t *ledgerTx) queryActivities(query string, args ...any) ([]domain.Activity, error) {
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var (
			a         domain.Activity
			typ       string
			createdAt int64
			direction string
			meta      string
			undo      sql.NullString
		)
		if err := rows.Scan(&a.Seq, &a.ID, &typ, &a.Title, &createdAt, &a.Amount, &direction, &meta, &undo); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = domain.ActivityType(typ)
		a.CreatedAt = fromMillis(createdAt)
		a.Direction = domain.Direction(direction)
		if err := json.Unmarshal([]byte(meta), &a.Meta); err != nil {
			return nil, fmt.Errorf("decode activity meta: %w", err)
		}
		if undo.Valid {
			u, err := domain.DecodeUndo([]byte(undo.String))
			if err != nil {
				return nil, fmt.Errorf("activity %s: %w", a.ID, err)
			}
			a.Undo = u
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ─── Settings ───────────────────────────────────────────────────────────────

// GetSettings returns the singleton settings record, or nil before seeding.
func (t *ledgerTx) GetSettings() (*domain.Settings, error) {
	var (
		s            domain.Settings
		focus        int
		friction     int
		income       sql.NullInt64
		selfDebt     sql.NullInt64
		onboardingAt sql.NullInt64
	)
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT focus_mode, friction_enabled, monthly_income, hours_per_week, monthly_cap,
			salary_day, timezone, self_reported_debt, active_quest_id, onboarding_completed_at
		FROM settings WHERE id = 1
	`).Scan(&focus, &friction, &income, &s.HoursPerWeek, &s.MonthlyCap,
		&s.SalaryDay, &s.Timezone, &selfDebt, &s.ActiveQuestID, &onboardingAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	s.FocusMode = focus == 1
	s.FrictionEnabled = friction == 1
	s.MonthlyIncome = intFromNull(income)
	s.SelfReportedDebt = intFromNull(selfDebt)
	s.OnboardingCompletedAt = timeFromNull(onboardingAt)
	return &s, nil
}

// PutSettings writes the singleton settings record.
func (t *ledgerTx) PutSettings(s domain.Settings) error {
	return t.exec(domain.CollSettings, `
		INSERT INTO settings (id, focus_mode, friction_enabled, monthly_income, hours_per_week, monthly_cap,
			salary_day, timezone, self_reported_debt, active_quest_id, onboarding_completed_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			focus_mode              = excluded.focus_mode,
			friction_enabled        = excluded.friction_enabled,
			monthly_income          = excluded.monthly_income,
			hours_per_week          = excluded.hours_per_week,
			monthly_cap             = excluded.monthly_cap,
			salary_day              = excluded.salary_day,
			timezone                = excluded.timezone,
			self_reported_debt      = excluded.self_reported_debt,
			active_quest_id         = excluded.active_quest_id,
			onboarding_completed_at = excluded.onboarding_completed_at
	`, boolInt(s.FocusMode), boolInt(s.FrictionEnabled), nullInt(s.MonthlyIncome), s.HoursPerWeek,
		s.MonthlyCap, s.SalaryDay, s.Timezone, nullInt(s.SelfReportedDebt), s.ActiveQuestID,
		nullTime(s.OnboardingCompletedAt))
}

// ─── Helpers ────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func intFromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timeFromNull(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
