package token

import (
	"math/big"
	"sync"

	"github.com/volcanocoin/backend/internal/models"
)

// Config carries the ledger's construction parameters. InitialSupply
// is in smallest units.
type Config struct {
	Owner         models.Address
	Admin         models.Address
	InitialSupply *big.Int
}

type subscriber struct {
	ch     chan models.TransferEvent
	filter *models.Address
}

// Service is the only component external callers touch. It composes
// AccessControl, Ledger and PaymentLog into the public operation set
// and serializes every mutation behind a single RWMutex: no caller
// ever observes a torn balance/supply/record update.
type Service struct {
	mu     sync.RWMutex
	access *AccessControl
	ledger *Ledger
	log    *PaymentLog

	subMu   sync.Mutex
	subs    map[int]subscriber
	nextSub int
}

// NewService validates the configuration and credits the whole initial
// supply to the owner. A zero initial supply is allowed; a nil or
// negative one is not.
func NewService(cfg Config) (*Service, error) {
	if cfg.Owner.IsZero() || cfg.Admin.IsZero() {
		return nil, ErrInvalidConfig
	}
	if cfg.Owner == cfg.Admin {
		return nil, ErrInvalidConfig
	}
	if cfg.InitialSupply == nil || cfg.InitialSupply.Sign() < 0 {
		return nil, ErrInvalidConfig
	}

	return &Service{
		access: NewAccessControl(cfg.Owner, cfg.Admin),
		ledger: NewLedger(cfg.Owner, cfg.InitialSupply),
		log:    NewPaymentLog(),
		subs:   make(map[int]subscriber),
	}, nil
}

// Access exposes the role set for callers that need authorization
// context (HTTP layer, tooling). The returned value is read-only.
func (s *Service) Access() *AccessControl {
	return s.access
}

// Transfer moves amount from sender to recipient, files the payment
// record and notifies subscribers. Returns the new record's global id.
func (s *Service) Transfer(sender, recipient models.Address, amount *big.Int) (uint64, error) {
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if recipient.IsZero() || recipient == sender {
		return 0, ErrInvalidRecipient
	}

	s.mu.Lock()
	if err := s.ledger.Transfer(sender, recipient, amount); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	id := s.log.Record(sender, recipient, amount)
	s.mu.Unlock()

	s.publish(models.TransferEvent{
		From:      sender,
		To:        recipient,
		Value:     new(big.Int).Set(amount),
		PaymentID: id,
	})
	return id, nil
}

// IncreaseSupply doubles the total supply, crediting the minted amount
// (exactly the pre-mint supply) to the owner. Owner only. Returns the
// new total supply.
func (s *Service) IncreaseSupply(caller models.Address) (*big.Int, error) {
	if !s.access.IsOwner(caller) {
		return nil, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	minted := s.ledger.TotalSupply()
	s.ledger.Mint(s.access.Owner(), minted)
	return s.ledger.TotalSupply(), nil
}

// UpdateDetails edits the payment record identified by its global id.
func (s *Service) UpdateDetails(caller models.Address, id uint64, newType models.PaymentType, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.UpdateDetails(s.access, caller, id, newType, comment)
}

// BalanceOf returns 0 for unknown accounts, never an error.
func (s *Service) BalanceOf(account models.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.BalanceOf(account)
}

func (s *Service) TotalSupply() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.TotalSupply()
}

func (s *Service) PaymentFromID(id uint64) (models.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.PaymentFromID(id)
}

func (s *Service) PaymentByAccount(account models.Address, localIndex int) (models.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.PaymentByAccount(account, localIndex)
}

func (s *Service) PaymentsByAccount(account models.Address) []models.PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.PaymentsByAccount(account)
}

// Subscribe registers for Transfer events, optionally filtered to
// events touching one account. Delivery is fire-and-forget: when the
// buffer is full the event is dropped for that subscriber rather than
// blocking the ledger. The returned cancel func closes the channel.
func (s *Service) Subscribe(filter *models.Address, buffer int) (<-chan models.TransferEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	ch := make(chan models.TransferEvent, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = subscriber{ch: ch, filter: filter}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub.ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Service) publish(ev models.TransferEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subs {
		if sub.filter != nil && *sub.filter != ev.From && *sub.filter != ev.To {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}
