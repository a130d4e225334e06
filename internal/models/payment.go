package models

import (
	"math/big"
)

// PaymentType classifies a payment record. New records start as
// PaymentTypeNone until the sender (or an admin) files details.
type PaymentType uint8

const (
	PaymentTypeNone PaymentType = iota
	PaymentTypeSupplies
	PaymentTypeTravel
	PaymentTypeSalary
)

// PaymentRecord documents one transfer. It is owned by the sender's
// per-account sequence; only PaymentType and Comment are mutable after
// creation, and records are never deleted.
type PaymentRecord struct {
	ID          uint64      `json:"id"`
	Sender      Address     `json:"sender"`
	Recipient   Address     `json:"recipient"`
	Amount      *big.Int    `json:"amount"`
	PaymentType PaymentType `json:"payment_type"`
	Comment     string      `json:"comment"`
	LocalIndex  int         `json:"local_index"`
}

// Clone returns a deep copy so callers never alias ledger-owned state.
func (r PaymentRecord) Clone() PaymentRecord {
	out := r
	if r.Amount != nil {
		out.Amount = new(big.Int).Set(r.Amount)
	}
	return out
}

// TransferEvent is the external notification emitted once per
// successful transfer.
type TransferEvent struct {
	From      Address  `json:"from"`
	To        Address  `json:"to"`
	Value     *big.Int `json:"value"`
	PaymentID uint64   `json:"payment_id"`
}
