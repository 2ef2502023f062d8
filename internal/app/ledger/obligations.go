package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cadencio-app/cadencio/internal/app/planner"
	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
)

// MaxMonthlyCycles bounds how many monthly cycles one plan may generate.
// The last permitted cycle absorbs whatever is left.
const MaxMonthlyCycles = 36

// ObligationInput describes a new obligation.
type ObligationInput struct {
	Name        string
	TotalAmount int64
	Priority    domain.Priority
}

// Expansion is the set of cycles a plan produces for an obligation.
type Expansion struct {
	Cycles []domain.Cycle `json:"cycles"`
	// Truncated is set when the monthly bound was hit and the final cycle
	// carries more than the plan's monthly amount.
	Truncated bool `json:"truncated"`
}

// CreateObligation records a new obligation with no cycles.
func (s *Service) CreateObligation(ctx context.Context, in ObligationInput) (domain.Obligation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Obligation{}, fmt.Errorf("obligation name required: %w", domain.ErrInvalidInput)
	}
	if err := validAmount(in.TotalAmount); err != nil {
		return domain.Obligation{}, err
	}
	if in.Priority == 0 {
		in.Priority = domain.PriorityStandard
	}
	if !in.Priority.Valid() {
		return domain.Obligation{}, fmt.Errorf("priority %d: %w", in.Priority, domain.ErrInvalidInput)
	}

	obl := domain.Obligation{
		ID:          newID("obl"),
		Name:        name,
		TotalAmount: in.TotalAmount,
		Priority:    in.Priority,
		Cycles:      []domain.Cycle{},
	}
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		return tx.PutObligation(obl)
	})
	if err != nil {
		return domain.Obligation{}, err
	}
	return obl, nil
}

// GetObligation returns one obligation or ErrNotFound.
func (s *Service) GetObligation(ctx context.Context, id string) (domain.Obligation, error) {
	var out domain.Obligation
	err := s.store.View(ctx, func(tx domain.Tx) error {
		obl, err := tx.GetObligation(id)
		if err != nil {
			return err
		}
		if obl == nil {
			return fmt.Errorf("obligation %s: %w", id, domain.ErrNotFound)
		}
		out = *obl
		return nil
	})
	return out, err
}

// ListObligations returns every obligation.
func (s *Service) ListObligations(ctx context.Context) ([]domain.Obligation, error) {
	var out []domain.Obligation
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		out, err = tx.ListObligations()
		return err
	})
	return out, err
}

// ScheduleObligation expands plan into cycles for the obligation, merges
// them with any existing cycles ordered by due date, and records an
// obligation_planned activity. An obligation with nothing left is a no-op.
func (s *Service) ScheduleObligation(ctx context.Context, obligationID string, plan domain.Plan) (Expansion, error) {
	if plan == nil {
		return Expansion{}, fmt.Errorf("plan required: %w", domain.ErrInvalidInput)
	}

	var (
		exp  Expansion
		name string
	)
	attrs := map[string]string{"obligation": obligationID, "plan": string(plan.Type())}
	err := s.tracer.Trace(ctx, "ledger.schedule", attrs, func() error {
		return s.store.Update(ctx, func(tx domain.Tx) error {
			obl, err := tx.GetObligation(obligationID)
			if err != nil {
				return err
			}
			if obl == nil {
				return fmt.Errorf("obligation %s: %w", obligationID, domain.ErrNotFound)
			}
			if obl.TotalAmount <= 0 {
				return nil
			}

			exp, err = ExpandPlan(plan, obl.TotalAmount)
			if err != nil {
				return err
			}
			name = obl.Name

			undo := domain.UndoObligationPlanned{
				ObligationID:    obl.ID,
				PrevCycles:      domain.CloneCycles(obl.Cycles),
				PrevTotalAmount: obl.TotalAmount,
			}
			merged := append(domain.CloneCycles(obl.Cycles), exp.Cycles...)
			sort.SliceStable(merged, func(i, j int) bool {
				return merged[i].DueDate < merged[j].DueDate
			})
			obl.Cycles = merged
			if err := tx.PutObligation(*obl); err != nil {
				return err
			}

			return addActivity(tx, domain.Activity{
				Type:      domain.ActivityObligationPlanned,
				Title:     "Planned obligation",
				CreatedAt: s.clock(),
				Meta:      domain.ActivityMeta{ObligationName: obl.Name, PlanType: plan.Type()},
				Undo:      undo,
			})
		})
	})
	if err != nil {
		return Expansion{}, err
	}

	if len(exp.Cycles) > 0 {
		observability.CyclesScheduled.WithLabelValues(string(plan.Type())).Add(float64(len(exp.Cycles)))
	}
	if exp.Truncated {
		observability.ScheduleTruncations.Inc()
		s.log.Warnw("monthly plan hit the cycle bound; final cycle absorbs the remainder",
			"obligation", obligationID, "name", name, "max_cycles", MaxMonthlyCycles,
			"final_amount", exp.Cycles[len(exp.Cycles)-1].Amount)
	}
	return exp, nil
}

// ExpandPlan turns plan into cycles covering total. It validates the whole
// plan before producing anything. The generated amounts always sum to total.
func ExpandPlan(plan domain.Plan, total int64) (Expansion, error) {
	if total <= 0 {
		return Expansion{Cycles: []domain.Cycle{}}, nil
	}

	switch p := plan.(type) {
	case domain.OneTimePlan:
		if err := validAmount(p.Amount); err != nil {
			return Expansion{}, err
		}
		if !domain.ValidDate(p.DueDate) {
			return Expansion{}, fmt.Errorf("due date %q: %w", p.DueDate, domain.ErrInvalidInput)
		}
		return Expansion{Cycles: []domain.Cycle{newCycle(total, p.DueDate, domain.CadenceOneTime)}}, nil

	case domain.MonthlyPlan:
		if err := validAmount(p.MonthlyAmount); err != nil {
			return Expansion{}, err
		}
		start, err := domain.FirstOfMonth(p.StartMonth)
		if err != nil {
			return Expansion{}, err
		}
		cycles, truncated := monthlyCycles(total, p.MonthlyAmount, p.DueDay, start)
		return Expansion{Cycles: cycles, Truncated: truncated}, nil

	case domain.SplitPlan:
		if err := validAmount(p.UpfrontAmount); err != nil {
			return Expansion{}, err
		}
		if !domain.ValidDate(p.UpfrontDueDate) {
			return Expansion{}, fmt.Errorf("upfront due date %q: %w", p.UpfrontDueDate, domain.ErrInvalidInput)
		}
		if err := validAmount(p.MonthlyAmount); err != nil {
			return Expansion{}, err
		}
		start, err := domain.FirstOfMonth(p.StartMonth)
		if err != nil {
			return Expansion{}, err
		}
		upfront := min(p.UpfrontAmount, total)
		cycles := []domain.Cycle{newCycle(upfront, p.UpfrontDueDate, domain.CadenceOneTime)}
		rest, truncated := monthlyCycles(total-upfront, p.MonthlyAmount, p.DueDay, start)
		return Expansion{Cycles: append(cycles, rest...), Truncated: truncated}, nil

	default:
		return Expansion{}, fmt.Errorf("plan %T: %w", plan, domain.ErrInvalidInput)
	}
}

func monthlyCycles(remaining, monthly int64, dueDay int, start string) ([]domain.Cycle, bool) {
	cycles := []domain.Cycle{}
	truncated := false
	for i := 0; remaining > 0 && i < MaxMonthlyCycles; i++ {
		amount := min(remaining, monthly)
		if i == MaxMonthlyCycles-1 && remaining > amount {
			amount = remaining
			truncated = true
		}
		month, _ := domain.AddMonths(start, i)
		due, _ := domain.DateWithDay(month, dueDay)
		cycles = append(cycles, newCycle(amount, due, domain.CadenceMonthly))
		remaining -= amount
	}
	return cycles, truncated
}

func newCycle(amount int64, due string, cadence domain.Cadence) domain.Cycle {
	return domain.Cycle{
		ID:      newID("cyc"),
		Amount:  amount,
		DueDate: due,
		Cadence: cadence,
		Status:  domain.CyclePlanned,
	}
}

// RefreshMissedCycles marks every cycle due before today that is not PAID
// as MISSED and returns how many cycles changed. Only obligations with a
// changed cycle are written.
func (s *Service) RefreshMissedCycles(ctx context.Context, now time.Time) (int, error) {
	changed := 0
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		st, err := s.settingsIn(tx)
		if err != nil {
			return err
		}
		today := domain.TodayISO(now, st.Timezone)

		obls, err := tx.ListObligations()
		if err != nil {
			return err
		}
		for _, obl := range obls {
			dirty := false
			for i := range obl.Cycles {
				c := &obl.Cycles[i]
				if c.Status == domain.CyclePlanned && c.DueDate < today {
					c.Status = domain.CycleMissed
					dirty = true
					changed++
				}
			}
			if dirty {
				if err := tx.PutObligation(obl); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		observability.CyclesMissed.Add(float64(changed))
		s.log.Infow("cycles marked missed", "count", changed)
	}
	return changed, nil
}

// SuggestPlan synthesizes a plan for the obligation from the current
// settings and the load already scheduled on other obligations.
func (s *Service) SuggestPlan(ctx context.Context, obligationID string) (domain.Suggestion, error) {
	var out domain.Suggestion
	err := s.store.View(ctx, func(tx domain.Tx) error {
		obl, err := tx.GetObligation(obligationID)
		if err != nil {
			return err
		}
		if obl == nil {
			return fmt.Errorf("obligation %s: %w", obligationID, domain.ErrNotFound)
		}
		st, err := s.settingsIn(tx)
		if err != nil {
			return err
		}
		all, err := tx.ListObligations()
		if err != nil {
			return err
		}

		today := domain.TodayISO(s.clock(), st.Timezone)
		out = s.policy.Suggest(planner.Input{
			Total:               obl.TotalAmount,
			Priority:            obl.Priority,
			MonthlyIncome:       st.MonthlyIncome,
			MonthlyCap:          st.MonthlyCap,
			ExistingMonthlyLoad: planner.ExistingMonthlyLoad(all, obl.ID, today),
			SalaryDay:           st.SalaryDay,
			Today:               today,
		})
		return nil
	})
	if err != nil {
		return domain.Suggestion{}, err
	}
	observability.Suggestions.WithLabelValues(string(out.Kind)).Inc()
	return out, nil
}
