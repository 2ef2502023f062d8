package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
)

func addActivity(tx domain.Tx, a domain.Activity) error {
	if a.ID == "" {
		a.ID = newID("act")
	}
	return tx.AddActivity(a)
}

// RecentActivities returns up to limit activities, newest first.
func (s *Service) RecentActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	var out []domain.Activity
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		out, err = tx.ListActivities(limit)
		return err
	})
	return out, err
}

// UndoActivities inverts the named activities newest first and deletes
// them, all in one transaction. Unknown ids are ignored.
func (s *Service) UndoActivities(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var undone []domain.Activity
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		acts, err := tx.GetActivities(ids...)
		if err != nil {
			return err
		}
		sort.SliceStable(acts, func(i, j int) bool { return acts[i].Newer(acts[j]) })
		for _, a := range acts {
			if err := applyUndo(tx, a.Undo); err != nil {
				return fmt.Errorf("undo %s: %w", a.ID, err)
			}
		}
		undone = acts
		return tx.DeleteActivities(ids...)
	})
	if err != nil {
		return 0, err
	}
	kinds := make([]string, 0, len(undone))
	for _, a := range undone {
		kinds = append(kinds, countUndo(a))
	}
	s.log.Infow("activities undone", "ids", ids, "kinds", kinds)
	return len(undone), nil
}

// UndoLatest undoes the newest activity. When expectedID is set and the
// newest activity is a different one, nothing changes and ErrStaleUndo is
// returned.
func (s *Service) UndoLatest(ctx context.Context, expectedID string) (domain.Activity, error) {
	var latest domain.Activity
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		acts, err := tx.ListActivities(1)
		if err != nil {
			return err
		}
		if len(acts) == 0 {
			return domain.ErrNoActivity
		}
		latest = acts[0]
		if expectedID != "" && latest.ID != expectedID {
			return fmt.Errorf("latest is %s, not %s: %w", latest.ID, expectedID, domain.ErrStaleUndo)
		}
		if err := applyUndo(tx, latest.Undo); err != nil {
			return fmt.Errorf("undo %s: %w", latest.ID, err)
		}
		return tx.DeleteActivities(latest.ID)
	})
	if err != nil {
		if expectedID != "" && latest.ID != "" && latest.ID != expectedID {
			observability.StaleUndos.Inc()
			s.log.Infow("stale undo rejected", "expected", expectedID, "latest", latest.ID)
		}
		return domain.Activity{}, err
	}
	countUndo(latest)
	return latest, nil
}

func countUndo(a domain.Activity) string {
	kind := "none"
	if a.Undo != nil {
		kind = string(a.Undo.Kind())
	}
	observability.Undos.WithLabelValues(kind).Inc()
	return kind
}

// applyUndo inverts one payload. Records it refers to that no longer exist
// are skipped.
func applyUndo(tx domain.Tx, u domain.Undo) error {
	switch v := u.(type) {
	case nil:
		return nil

	case domain.UndoTransaction:
		return tx.DeleteTransactions(v.TxID)

	case domain.UndoTransfer:
		return tx.DeleteTransactions(v.TxIDs...)

	case domain.UndoObligationPlanned:
		obl, err := tx.GetObligation(v.ObligationID)
		if err != nil || obl == nil {
			return err
		}
		obl.Cycles = domain.CloneCycles(v.PrevCycles)
		obl.TotalAmount = v.PrevTotalAmount
		return tx.PutObligation(*obl)

	case domain.UndoConfirmedPaid:
		if err := tx.DeleteTransactions(v.TxID); err != nil {
			return err
		}
		obl, err := tx.GetObligation(v.ObligationID)
		if err != nil || obl == nil {
			return err
		}
		if idx := obl.CycleIndex(v.CycleID); idx >= 0 {
			obl.Cycles[idx] = v.PrevCycle.Clone()
		}
		obl.TotalAmount = v.PrevTotalAmount
		return tx.PutObligation(*obl)

	case domain.UndoBorrow:
		if err := tx.DeleteTransactions(v.TxID); err != nil {
			return err
		}
		if v.CreatedObligation {
			return tx.DeleteObligation(v.ObligationID)
		}
		obl, err := tx.GetObligation(v.ObligationID)
		if err != nil || obl == nil {
			return err
		}
		obl.TotalAmount = v.PrevTotalAmount
		return tx.PutObligation(*obl)

	default:
		return fmt.Errorf("undo kind %T: %w", u, domain.ErrInvalidInput)
	}
}
