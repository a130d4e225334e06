package token

import (
	"fmt"
	"math/big"

	"github.com/volcanocoin/backend/internal/models"
)

// globalRef resolves a ledger-wide payment id back to the owning
// account's local sequence.
type globalRef struct {
	owner models.Address
	local int
}

// PaymentLog owns the per-sender append-only record sequences and the
// global id index. It never touches balances. Like Ledger, it relies
// on the Service for serialization.
type PaymentLog struct {
	bySender map[models.Address][]*models.PaymentRecord
	index    []globalRef
}

func NewPaymentLog() *PaymentLog {
	return &PaymentLog{
		bySender: make(map[models.Address][]*models.PaymentRecord),
	}
}

// Record appends a fresh record to sender's sequence and the global
// index, returning the new global id. Ids are monotonic from 0.
func (pl *PaymentLog) Record(sender, recipient models.Address, amount *big.Int) uint64 {
	id := uint64(len(pl.index))
	rec := &models.PaymentRecord{
		ID:          id,
		Sender:      sender,
		Recipient:   recipient,
		Amount:      new(big.Int).Set(amount),
		PaymentType: models.PaymentTypeNone,
		Comment:     "",
		LocalIndex:  len(pl.bySender[sender]),
	}

	pl.bySender[sender] = append(pl.bySender[sender], rec)
	pl.index = append(pl.index, globalRef{owner: sender, local: rec.LocalIndex})
	return id
}

// UpdateDetails edits a record's type and comment. The record's own
// sender edits verbatim; an admin editing someone else's record gets
// the audit suffix appended to the stored comment. Anyone else is
// rejected with no change.
func (pl *PaymentLog) UpdateDetails(access *AccessControl, caller models.Address, id uint64, newType models.PaymentType, comment string) error {
	rec, err := pl.resolve(id)
	if err != nil {
		return err
	}

	switch {
	case caller == rec.Sender:
		rec.Comment = comment
	case access.IsAdmin(caller):
		rec.Comment = fmt.Sprintf("%s (updated by %s)", comment, caller)
	default:
		return ErrUnauthorized
	}

	rec.PaymentType = newType
	return nil
}

// PaymentFromID resolves a global payment id to a copy of its record.
func (pl *PaymentLog) PaymentFromID(id uint64) (models.PaymentRecord, error) {
	rec, err := pl.resolve(id)
	if err != nil {
		return models.PaymentRecord{}, err
	}
	return rec.Clone(), nil
}

// PaymentByAccount reads a record by owner and local index.
func (pl *PaymentLog) PaymentByAccount(account models.Address, localIndex int) (models.PaymentRecord, error) {
	seq := pl.bySender[account]
	if localIndex < 0 || localIndex >= len(seq) {
		return models.PaymentRecord{}, ErrNotFound
	}
	return seq[localIndex].Clone(), nil
}

// PaymentsByAccount returns copies of every record account has sent,
// oldest first.
func (pl *PaymentLog) PaymentsByAccount(account models.Address) []models.PaymentRecord {
	seq := pl.bySender[account]
	out := make([]models.PaymentRecord, len(seq))
	for i, rec := range seq {
		out[i] = rec.Clone()
	}
	return out
}

// Len reports how many records have ever been created.
func (pl *PaymentLog) Len() int {
	return len(pl.index)
}

func (pl *PaymentLog) resolve(id uint64) (*models.PaymentRecord, error) {
	if id >= uint64(len(pl.index)) {
		return nil, ErrNotFound
	}
	ref := pl.index[id]
	return pl.bySender[ref.owner][ref.local], nil
}
