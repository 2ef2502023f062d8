package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
)

// TransactionInput describes a new transaction.
type TransactionInput struct {
	Amount      int64
	Direction   domain.Direction
	CategoryID  string
	Note        string
	Tags        []string
	ConfirmedAt *time.Time
	Meta        *domain.TransactionMeta
	// Date defaults to today in the settings timezone.
	Date string
	// SuppressActivity skips the transaction_added activity. Composite
	// commands set it and record one activity for the whole operation.
	SuppressActivity bool
}

// TransferInput describes a movement between two zones.
type TransferInput struct {
	Amount     int64
	FromZoneID string
	ToZoneID   string
	Note       string
	Date       string
}

// Transfer holds both legs of a created transfer.
type Transfer struct {
	Out domain.Transaction `json:"out"`
	In  domain.Transaction `json:"in"`
}

// CreateTransaction records one money movement.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (domain.Transaction, error) {
	var out domain.Transaction
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		var err error
		out, err = s.insertTransaction(tx, in, s.clock())
		return err
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	observability.TransactionsCreated.WithLabelValues(string(out.Direction)).Inc()
	return out, nil
}

// CreateTransfer records a balanced OUT/IN pair between two zones with a
// single transfer_created activity.
func (s *Service) CreateTransfer(ctx context.Context, in TransferInput) (Transfer, error) {
	if err := validAmount(in.Amount); err != nil {
		return Transfer{}, err
	}
	if in.FromZoneID == "" || in.ToZoneID == "" || in.FromZoneID == in.ToZoneID {
		return Transfer{}, fmt.Errorf("choose two different zones: %w", domain.ErrInvalidInput)
	}

	var out Transfer
	attrs := map[string]string{"from": in.FromZoneID, "to": in.ToZoneID}
	err := s.tracer.Trace(ctx, "ledger.transfer", attrs, func() error {
		return s.store.Update(ctx, func(tx domain.Tx) error {
			for _, id := range []string{in.FromZoneID, in.ToZoneID} {
				z, err := tx.GetZone(id)
				if err != nil {
					return err
				}
				if z == nil {
					return fmt.Errorf("zone %s: %w", id, domain.ErrNotFound)
				}
			}

			now := s.clock()
			note := strings.TrimSpace(in.Note)
			leg := func(dir domain.Direction) (domain.Transaction, error) {
				return s.insertTransaction(tx, TransactionInput{
					Amount:           in.Amount,
					Direction:        dir,
					CategoryID:       domain.CatTransfer,
					Note:             note,
					Tags:             []string{domain.TagInternalTransfer},
					Meta:             &domain.TransactionMeta{FromZoneID: in.FromZoneID, ToZoneID: in.ToZoneID},
					Date:             in.Date,
					SuppressActivity: true,
				}, now)
			}

			var err error
			if out.Out, err = leg(domain.DirectionOut); err != nil {
				return err
			}
			if out.In, err = leg(domain.DirectionIn); err != nil {
				return err
			}

			return addActivity(tx, domain.Activity{
				Type:      domain.ActivityTransferCreated,
				Title:     "Transfer created",
				CreatedAt: now,
				Amount:    in.Amount,
				Meta:      domain.ActivityMeta{FromZoneID: in.FromZoneID, ToZoneID: in.ToZoneID, Note: note},
				Undo:      domain.UndoTransfer{TxIDs: []string{out.Out.ID, out.In.ID}},
			})
		})
	})
	if err != nil {
		return Transfer{}, err
	}
	return out, nil
}

// ListTransactions returns all transactions, oldest first.
func (s *Service) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		out, err = tx.ListTransactions()
		return err
	})
	return out, err
}

// insertTransaction validates and writes one transaction inside tx.
func (s *Service) insertTransaction(tx domain.Tx, in TransactionInput, now time.Time) (domain.Transaction, error) {
	if err := validAmount(in.Amount); err != nil {
		return domain.Transaction{}, err
	}
	if !in.Direction.Valid() {
		return domain.Transaction{}, fmt.Errorf("direction %q: %w", in.Direction, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return domain.Transaction{}, fmt.Errorf("category required: %w", domain.ErrInvalidInput)
	}

	date := in.Date
	if date == "" {
		st, err := s.settingsIn(tx)
		if err != nil {
			return domain.Transaction{}, err
		}
		date = domain.TodayISO(now, st.Timezone)
	} else if !domain.ValidDate(date) {
		return domain.Transaction{}, fmt.Errorf("date %q: %w", date, domain.ErrInvalidInput)
	}

	t := domain.Transaction{
		ID:          newID("tx"),
		Date:        date,
		Amount:      in.Amount,
		Direction:   in.Direction,
		CategoryID:  strings.TrimSpace(in.CategoryID),
		Note:        strings.TrimSpace(in.Note),
		Tags:        uniqueTags(in.Tags),
		ConfirmedAt: in.ConfirmedAt,
		CreatedAt:   now,
		Meta:        in.Meta,
	}
	if err := tx.PutTransaction(t); err != nil {
		return domain.Transaction{}, err
	}

	if in.SuppressActivity || t.IsTransfer() {
		return t, nil
	}
	err := addActivity(tx, domain.Activity{
		Type:      domain.ActivityTransactionAdded,
		Title:     transactionTitle(t),
		CreatedAt: now,
		Amount:    t.Amount,
		Direction: t.Direction,
		Meta:      domain.ActivityMeta{Note: t.Note, CategoryID: t.CategoryID},
		Undo:      domain.UndoTransaction{TxID: t.ID},
	})
	return t, err
}

func transactionTitle(t domain.Transaction) string {
	switch {
	case t.CategoryID == domain.CatObligations:
		return "Obligation logged"
	case t.Direction == domain.DirectionIn:
		return "Income logged"
	default:
		return "Expense recorded"
	}
}

// uniqueTags trims tags and drops blanks and duplicates, keeping order.
func uniqueTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		tag := strings.TrimSpace(t)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
