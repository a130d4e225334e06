package services

import (
	"database/sql"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/volcanocoin/backend/internal/models"
)

// JournalService writes an append-only Postgres journal of ledger
// activity: a debit/credit entry pair per transfer, supply changes and
// payment-detail edits. The journal is write-behind audit storage; the
// in-memory ledger remains the source of truth, so every method is
// nil-safe and a journal failure never fails the mutation it documents.
type JournalService struct {
	db *sql.DB
}

func NewJournalService(db *sql.DB) *JournalService {
	return &JournalService{db: db}
}

// EnsureSchema creates the journal tables when they are missing.
func (s *JournalService) EnsureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			journal_id UUID PRIMARY KEY,
			payment_id BIGINT NOT NULL,
			account VARCHAR(42) NOT NULL,
			counterparty VARCHAR(42) NOT NULL,
			amount NUMERIC(78,0) NOT NULL,
			entry_type VARCHAR(6) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS supply_changes (
			journal_id UUID PRIMARY KEY,
			account VARCHAR(42) NOT NULL,
			minted NUMERIC(78,0) NOT NULL,
			new_supply NUMERIC(78,0) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payment_updates (
			journal_id UUID PRIMARY KEY,
			payment_id BIGINT NOT NULL,
			editor VARCHAR(42) NOT NULL,
			payment_type SMALLINT NOT NULL,
			comment TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransfer journals one transfer as a DEBIT/CREDIT entry pair in
// a single database transaction.
func (s *JournalService) RecordTransfer(paymentID uint64, from, to models.Address, amount *big.Int) error {
	if s == nil || s.db == nil {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.createEntry(tx, paymentID, from, to, amount, "DEBIT"); err != nil {
		return err
	}
	if err := s.createEntry(tx, paymentID, to, from, amount, "CREDIT"); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *JournalService) createEntry(tx *sql.Tx, paymentID uint64, account, counterparty models.Address, amount *big.Int, entryType string) error {
	_, err := tx.Exec(`
		INSERT INTO ledger_entries (journal_id, payment_id, account, counterparty, amount, entry_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), int64(paymentID), account.String(), counterparty.String(),
		amount.String(), entryType, time.Now())
	return err
}

// RecordSupplyIncrease journals an owner mint.
func (s *JournalService) RecordSupplyIncrease(owner models.Address, minted, newSupply *big.Int) error {
	if s == nil || s.db == nil {
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO supply_changes (journal_id, account, minted, new_supply, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), owner.String(), minted.String(), newSupply.String(), time.Now())
	return err
}

// RecordDetailsUpdate journals a payment-record edit with the stored
// comment (audit suffix included for admin edits).
func (s *JournalService) RecordDetailsUpdate(editor models.Address, paymentID uint64, paymentType models.PaymentType, comment string) error {
	if s == nil || s.db == nil {
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO payment_updates (journal_id, payment_id, editor, payment_type, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), int64(paymentID), editor.String(), int(paymentType), comment, time.Now())
	return err
}

// LogJournalError is the shared warn path for write-behind failures.
func LogJournalError(op string, err error) {
	if err != nil {
		log.Printf("[JOURNAL] %s failed: %v", op, err)
	}
}
