// README: Card registry: registration against the finance ledger and
// balance top-ups.
package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"citypass/internal/modules/settlement"
	"citypass/internal/types"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("card not found")
	ErrCardNumberTaken = errors.New("finance card number already registered")
	ErrNotLinked       = errors.New("card is not linked to the finance system")
	ErrCardBlocked     = errors.New("card is blocked")
)

// Ledger is the slice of the finance ledger the registry needs.
type Ledger interface {
	CreateAccount(ctx context.Context, userID types.ID, cardNo string) error
}

// Settler runs credit intents against the ledger.
type Settler interface {
	Begin(ctx context.Context, kind settlement.Kind, cardID types.ID, accountRef string, amount types.Money) (*settlement.Intent, error)
	Execute(ctx context.Context, in *settlement.Intent) error
}

// Registry is the persistence the service needs; *Store implements it.
type Registry interface {
	Insert(ctx context.Context, c *Card) error
	Get(ctx context.Context, id types.ID) (*Card, error)
	ByFinanceCardNumber(ctx context.Context, cardNo string) (*Card, error)
	ListByUser(ctx context.Context, userID types.ID) ([]Card, error)
	ApplyTopUp(ctx context.Context, cardID types.ID, amount types.Money, intentID types.ID) error
}

type Service struct {
	store  Registry
	ledger Ledger
	settle Settler
	log    *logrus.Logger
}

func NewService(store Registry, ledger Ledger, settle Settler, log *logrus.Logger) *Service {
	return &Service{store: store, ledger: ledger, settle: settle, log: log}
}

type RegisterCommand struct {
	UserID            types.ID
	FinanceCardNumber string
}

// Register creates a digital card bound to a new ledger account. The ledger
// account reference must not already be bound to another card.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Card, error) {
	if cmd.UserID == "" || cmd.FinanceCardNumber == "" {
		return nil, ErrBadRequest
	}
	existing, err := s.store.ByFinanceCardNumber(ctx, cmd.FinanceCardNumber)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCardNumberTaken
	}

	if err := s.ledger.CreateAccount(ctx, cmd.UserID, cmd.FinanceCardNumber); err != nil {
		return nil, fmt.Errorf("create ledger account: %w", err)
	}

	c := &Card{
		ID:                types.NewID(),
		UserID:            cmd.UserID,
		FinanceCardNumber: cmd.FinanceCardNumber,
		Status:            StatusActive,
		Balance:           types.Baht(0),
		CreatedAt:         time.Now().UTC(),
	}
	c.UpdatedAt = c.CreatedAt
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"card_id": c.ID,
		"user_id": c.UserID,
	}).Info("digital card registered")
	return c, nil
}

type TopUpCommand struct {
	CardID types.ID
	Amount types.Money
}

// TopUp credits the card's ledger account and, only after the ledger
// confirms, increments the cached balance. The cache is a mirror: if the
// local increment fails after a confirmed credit, the divergence is logged
// for reconciliation rather than silently absorbed.
func (s *Service) TopUp(ctx context.Context, cmd TopUpCommand) (*Card, error) {
	if cmd.CardID == "" || !cmd.Amount.IsPositive() {
		return nil, ErrBadRequest
	}
	c, err := s.store.Get(ctx, cmd.CardID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive {
		return nil, ErrCardBlocked
	}
	if c.FinanceCardNumber == "" {
		return nil, ErrNotLinked
	}

	intent, err := s.settle.Begin(ctx, settlement.KindCredit, c.ID, c.FinanceCardNumber, cmd.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.settle.Execute(ctx, intent); err != nil {
		return nil, err
	}

	if err := s.store.ApplyTopUp(ctx, c.ID, cmd.Amount, intent.ID); err != nil {
		s.log.WithFields(logrus.Fields{
			"card_id":         c.ID,
			"intent_id":       intent.ID,
			"amount":          cmd.Amount.String(),
			"idempotency_key": intent.IdempotencyKey,
			"error":           err.Error(),
		}).Error("ledger credit confirmed but local balance commit failed")
		return nil, err
	}
	return s.store.Get(ctx, c.ID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Card, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID types.ID) ([]Card, error) {
	if userID == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListByUser(ctx, userID)
}
