package token

import (
	"math/big"

	"github.com/volcanocoin/backend/internal/models"
)

// Ledger owns the balance mapping and the total supply counter.
// Invariant: sum of all balances == total supply at every point a
// caller can observe. Ledger does no locking of its own; the Service
// serializes access.
type Ledger struct {
	balances    map[models.Address]*big.Int
	totalSupply *big.Int
}

// NewLedger credits the entire initial supply to owner.
func NewLedger(owner models.Address, initialSupply *big.Int) *Ledger {
	supply := new(big.Int).Set(initialSupply)
	return &Ledger{
		balances:    map[models.Address]*big.Int{owner: new(big.Int).Set(supply)},
		totalSupply: supply,
	}
}

// BalanceOf returns 0 for unknown accounts, never an error. The
// returned value is a copy.
func (l *Ledger) BalanceOf(account models.Address) *big.Int {
	if b, ok := l.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// TotalSupply returns a copy of the supply counter.
func (l *Ledger) TotalSupply() *big.Int {
	return new(big.Int).Set(l.totalSupply)
}

// Transfer debits sender and credits recipient. Both sides move or
// neither does; a balance never goes negative.
func (l *Ledger) Transfer(sender, recipient models.Address, amount *big.Int) error {
	from, ok := l.balances[sender]
	if !ok || from.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	from.Sub(from, amount)
	l.credit(recipient, amount)
	return nil
}

// Mint credits amount to account and grows the supply by the same
// amount, preserving conservation.
func (l *Ledger) Mint(account models.Address, amount *big.Int) {
	l.credit(account, amount)
	l.totalSupply.Add(l.totalSupply, amount)
}

func (l *Ledger) credit(account models.Address, amount *big.Int) {
	if b, ok := l.balances[account]; ok {
		b.Add(b, amount)
		return
	}
	l.balances[account] = new(big.Int).Set(amount)
}

// Accounts returns every account that has ever held a balance.
func (l *Ledger) Accounts() []models.Address {
	out := make([]models.Address, 0, len(l.balances))
	for a := range l.balances {
		out = append(out, a)
	}
	return out
}
