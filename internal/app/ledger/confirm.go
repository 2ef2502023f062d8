package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
)

// Confirmation is the result of confirming a cycle paid.
type Confirmation struct {
	Obligation  domain.Obligation  `json:"obligation"`
	Transaction domain.Transaction `json:"transaction"`
}

// ConfirmObligationPaid marks one cycle PAID for paidAmount, writes the
// matching OUT transaction and reduces the obligation's remaining total,
// floored at zero. Only a confirmed_paid activity is recorded.
func (s *Service) ConfirmObligationPaid(ctx context.Context, obligationID, cycleID string, paidAmount int64) (Confirmation, error) {
	var out Confirmation
	attrs := map[string]string{"obligation": obligationID, "cycle": cycleID}
	err := s.tracer.Trace(ctx, "ledger.confirm", attrs, func() error {
		return s.store.Update(ctx, func(tx domain.Tx) error {
			obl, err := tx.GetObligation(obligationID)
			if err != nil {
				return err
			}
			if obl == nil {
				return fmt.Errorf("obligation %s: %w", obligationID, domain.ErrNotFound)
			}
			idx := obl.CycleIndex(cycleID)
			if idx < 0 {
				return fmt.Errorf("cycle %s: %w", cycleID, domain.ErrNotFound)
			}
			if err := validAmount(paidAmount); err != nil {
				return err
			}
			if obl.Cycles[idx].Status == domain.CyclePaid {
				return fmt.Errorf("cycle %s already paid: %w", cycleID, domain.ErrInvalidInput)
			}

			now := s.clock()
			st, err := s.settingsIn(tx)
			if err != nil {
				return err
			}
			undo := domain.UndoConfirmedPaid{
				ObligationID:    obl.ID,
				CycleID:         cycleID,
				PrevCycle:       obl.Cycles[idx].Clone(),
				PrevTotalAmount: obl.TotalAmount,
			}

			confirmedAt := now
			txn, err := s.insertTransaction(tx, TransactionInput{
				Amount:           paidAmount,
				Direction:        domain.DirectionOut,
				CategoryID:       domain.CatObligations,
				Note:             obl.Name,
				Tags:             []string{domain.TagConfirmed, domain.TagObligationPayment},
				ConfirmedAt:      &confirmedAt,
				Meta:             &domain.TransactionMeta{RelatedObligationCycleID: cycleID},
				Date:             domain.TodayISO(now, st.Timezone),
				SuppressActivity: true,
			}, now)
			if err != nil {
				return err
			}
			undo.TxID = txn.ID

			c := &obl.Cycles[idx]
			c.Status = domain.CyclePaid
			c.ConfirmedAt = &confirmedAt
			c.Amount = paidAmount
			c.AutoCreatedTransactionID = txn.ID
			obl.TotalAmount = max(obl.TotalAmount-paidAmount, 0)
			if err := tx.PutObligation(*obl); err != nil {
				return err
			}

			out = Confirmation{Obligation: *obl, Transaction: txn}
			return addActivity(tx, domain.Activity{
				Type:      domain.ActivityConfirmedPaid,
				Title:     "Confirmed paid",
				CreatedAt: now,
				Amount:    paidAmount,
				Direction: domain.DirectionOut,
				Meta:      domain.ActivityMeta{ObligationName: obl.Name},
				Undo:      undo,
			})
		})
	})
	if err != nil {
		return Confirmation{}, err
	}
	observability.Confirmations.Inc()
	return out, nil
}

// BorrowInput records newly borrowed principal. Either ObligationID names
// an existing obligation whose total grows, or Name creates a new one.
type BorrowInput struct {
	ObligationID string
	Name         string
	Priority     domain.Priority
	Amount       int64
	Note         string
	Date         string
}

// RecordBorrow books borrowed money as IN income tagged debt_principal and
// adds it to the obligation it must be repaid through. The earned quest
// metric excludes this income.
func (s *Service) RecordBorrow(ctx context.Context, in BorrowInput) (Confirmation, error) {
	if err := validAmount(in.Amount); err != nil {
		return Confirmation{}, err
	}
	var out Confirmation
	err := s.tracer.Trace(ctx, "ledger.borrow", nil, func() error {
		return s.store.Update(ctx, func(tx domain.Tx) error {
			var (
				obl     domain.Obligation
				created bool
			)
			if in.ObligationID != "" {
				existing, err := tx.GetObligation(in.ObligationID)
				if err != nil {
					return err
				}
				if existing == nil {
					return fmt.Errorf("obligation %s: %w", in.ObligationID, domain.ErrNotFound)
				}
				obl = *existing
			} else {
				name := strings.TrimSpace(in.Name)
				if name == "" {
					return fmt.Errorf("obligation name required: %w", domain.ErrInvalidInput)
				}
				priority := in.Priority
				if priority == 0 {
					priority = domain.PriorityStandard
				}
				if !priority.Valid() {
					return fmt.Errorf("priority %d: %w", priority, domain.ErrInvalidInput)
				}
				obl = domain.Obligation{ID: newID("obl"), Name: name, Priority: priority, Cycles: []domain.Cycle{}}
				created = true
			}

			undo := domain.UndoBorrow{
				ObligationID:      obl.ID,
				PrevTotalAmount:   obl.TotalAmount,
				CreatedObligation: created,
			}
			obl.TotalAmount += in.Amount
			if err := tx.PutObligation(obl); err != nil {
				return err
			}

			now := s.clock()
			note := strings.TrimSpace(in.Note)
			if note == "" {
				note = obl.Name
			}
			txn, err := s.insertTransaction(tx, TransactionInput{
				Amount:           in.Amount,
				Direction:        domain.DirectionIn,
				CategoryID:       domain.CatDebt,
				Note:             note,
				Tags:             []string{domain.TagDebtPrincipal},
				Date:             in.Date,
				SuppressActivity: true,
			}, now)
			if err != nil {
				return err
			}
			undo.TxID = txn.ID

			out = Confirmation{Obligation: obl, Transaction: txn}
			return addActivity(tx, domain.Activity{
				Type:      domain.ActivityDebtBorrowed,
				Title:     "Borrowed",
				CreatedAt: now,
				Amount:    in.Amount,
				Direction: domain.DirectionIn,
				Meta:      domain.ActivityMeta{Note: note, CategoryID: domain.CatDebt, ObligationName: obl.Name},
				Undo:      undo,
			})
		})
	})
	if err != nil {
		return Confirmation{}, err
	}
	observability.Borrows.Inc()
	return out, nil
}
