package domain

import (
	"encoding/json"
	"fmt"
)

// ─── Undo Payloads ──────────────────────────────────────────────────────────
// Undo is a closed sum type. Every consumer switches over the concrete
// variants and treats anything else as an error.

// UndoKind tags an undo payload.
type UndoKind string

const (
	UndoKindTransaction       UndoKind = "transaction"
	UndoKindTransfer          UndoKind = "transfer"
	UndoKindObligationPlanned UndoKind = "obligation_planned"
	UndoKindConfirmedPaid     UndoKind = "confirmed_paid"
	UndoKindBorrow            UndoKind = "borrow"
)

// Undo carries exactly what is needed to invert one activity.
type Undo interface {
	Kind() UndoKind
	isUndo()
}

// UndoTransaction deletes one transaction.
type UndoTransaction struct {
	TxID string `json:"tx_id"`
}

// UndoTransfer deletes both legs of a transfer.
type UndoTransfer struct {
	TxIDs []string `json:"tx_ids"`
}

// UndoObligationPlanned replaces an obligation's cycles and total.
type UndoObligationPlanned struct {
	ObligationID    string  `json:"obligation_id"`
	PrevCycles      []Cycle `json:"prev_cycles"`
	PrevTotalAmount int64   `json:"prev_total_amount"`
}

// UndoConfirmedPaid deletes the payment and restores one cycle and the total.
type UndoConfirmedPaid struct {
	ObligationID    string `json:"obligation_id"`
	CycleID         string `json:"cycle_id"`
	PrevCycle       Cycle  `json:"prev_cycle"`
	PrevTotalAmount int64  `json:"prev_total_amount"`
	TxID            string `json:"tx_id"`
}

// UndoBorrow deletes the principal transaction and restores the total, or
// removes the obligation when the borrow created it.
type UndoBorrow struct {
	ObligationID      string `json:"obligation_id"`
	TxID              string `json:"tx_id"`
	PrevTotalAmount   int64  `json:"prev_total_amount"`
	CreatedObligation bool   `json:"created_obligation"`
}

func (UndoTransaction) Kind() UndoKind       { return UndoKindTransaction }
func (UndoTransfer) Kind() UndoKind          { return UndoKindTransfer }
func (UndoObligationPlanned) Kind() UndoKind { return UndoKindObligationPlanned }
func (UndoConfirmedPaid) Kind() UndoKind     { return UndoKindConfirmedPaid }
func (UndoBorrow) Kind() UndoKind            { return UndoKindBorrow }

func (UndoTransaction) isUndo()       {}
func (UndoTransfer) isUndo()          {}
func (UndoObligationPlanned) isUndo() {}
func (UndoConfirmedPaid) isUndo()     {}
func (UndoBorrow) isUndo()            {}

type undoEnvelope struct {
	Kind    UndoKind        `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeUndo serializes u as a {"kind","payload"} envelope.
// A nil payload encodes to nil.
func EncodeUndo(u Undo) ([]byte, error) {
	if u == nil {
		return nil, nil
	}
	switch u.(type) {
	case UndoTransaction, UndoTransfer, UndoObligationPlanned, UndoConfirmedPaid, UndoBorrow:
	default:
		return nil, fmt.Errorf("encode undo %T: %w", u, ErrInvalidInput)
	}
	payload, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode undo %s: %w", u.Kind(), err)
	}
	return json.Marshal(undoEnvelope{Kind: u.Kind(), Payload: payload})
}

// DecodeUndo parses an envelope written by EncodeUndo. Empty input yields nil.
func DecodeUndo(data []byte) (Undo, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env undoEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode undo envelope: %w", err)
	}

	var (
		u   Undo
		err error
	)
	switch env.Kind {
	case UndoKindTransaction:
		var v UndoTransaction
		err = json.Unmarshal(env.Payload, &v)
		u = v
	case UndoKindTransfer:
		var v UndoTransfer
		err = json.Unmarshal(env.Payload, &v)
		u = v
	case UndoKindObligationPlanned:
		var v UndoObligationPlanned
		err = json.Unmarshal(env.Payload, &v)
		if v.PrevCycles == nil {
			v.PrevCycles = []Cycle{}
		}
		u = v
	case UndoKindConfirmedPaid:
		var v UndoConfirmedPaid
		err = json.Unmarshal(env.Payload, &v)
		u = v
	case UndoKindBorrow:
		var v UndoBorrow
		err = json.Unmarshal(env.Payload, &v)
		u = v
	default:
		return nil, fmt.Errorf("decode undo: unknown kind %q: %w", env.Kind, ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("decode undo %s: %w", env.Kind, err)
	}
	return u, nil
}

// MarshalJSON renders the activity with its undo kind for API clients.
func (a Activity) MarshalJSON() ([]byte, error) {
	type plain Activity
	out := struct {
		plain
		UndoKind UndoKind `json:"undo_kind,omitempty"`
	}{plain: plain(a)}
	if a.Undo != nil {
		out.UndoKind = a.Undo.Kind()
	}
	return json.Marshal(out)
}
