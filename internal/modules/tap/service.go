// README: Tap service: the trip state machine. A tap on a card with no
// open transaction opens one (tap-in); a tap on a card with an open
// transaction prices the trip, settles the debit, and closes it (tap-out).
package tap

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"citypass/internal/modules/card"
	"citypass/internal/modules/fare"
	"citypass/internal/modules/settlement"
	"citypass/internal/types"
)

var (
	ErrBadRequest        = errors.New("bad request")
	ErrNotFound          = errors.New("transaction not found")
	ErrNoOpen            = errors.New("no open transaction")
	ErrOpenExists        = errors.New("card already has an open transaction")
	ErrInvalidState      = errors.New("transaction is not open")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// Transactions is the persistence the service needs; *Store implements it.
type Transactions interface {
	InsertOpen(ctx context.Context, t *Transaction) error
	OpenByCard(ctx context.Context, cardID types.ID) (*Transaction, error)
	Get(ctx context.Context, id types.ID) (*Transaction, error)
	History(ctx context.Context, cardID types.ID, limit int) ([]Transaction, error)
	Complete(ctx context.Context, p CompleteParams) error
}

// Cards is the slice of the card registry the service reads.
type Cards interface {
	Get(ctx context.Context, id types.ID) (*card.Card, error)
}

// Fares prices trips. *fare.Calculator implements it.
type Fares interface {
	Maximum(class fare.Class) types.Money
	TripTotal(ctx context.Context, from, to types.Point) (types.Money, []fare.Segment, error)
}

// Settler runs debit intents against the ledger.
type Settler interface {
	Begin(ctx context.Context, kind settlement.Kind, cardID types.ID, accountRef string, amount types.Money) (*settlement.Intent, error)
	Execute(ctx context.Context, in *settlement.Intent) error
}

type Service struct {
	store  Transactions
	cards  Cards
	fares  Fares
	settle Settler
	locker CardLocker
	log    *logrus.Logger
}

func NewService(store Transactions, cards Cards, fares Fares, settle Settler, locker CardLocker, log *logrus.Logger) *Service {
	return &Service{store: store, cards: cards, fares: fares, settle: settle, locker: locker, log: log}
}

type TapCommand struct {
	CardID      types.ID
	Location    types.Point
	VehicleType string
}

// Tap resolves a reader tap to its direction from the card's current state.
// The per-card lock serializes concurrent taps; the store's partial unique
// index backstops the single-open-trip invariant across instances.
func (s *Service) Tap(ctx context.Context, cmd TapCommand) (*TapResult, error) {
	if cmd.CardID == "" || !cmd.Location.Valid() {
		return nil, ErrBadRequest
	}

	release, err := s.locker.Lock(ctx, cmd.CardID)
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.cards.Get(ctx, cmd.CardID)
	if err != nil {
		return nil, err
	}
	if c.Status != card.StatusActive {
		return nil, card.ErrCardBlocked
	}

	open, err := s.store.OpenByCard(ctx, cmd.CardID)
	switch {
	case errors.Is(err, ErrNoOpen):
		return s.tapIn(ctx, c, cmd)
	case err != nil:
		return nil, err
	default:
		return s.tapOut(ctx, c, open, cmd.Location)
	}
}

// tapIn reserves the class maximum against the cached balance and opens the
// transaction. No ledger movement happens until tap-out.
func (s *Service) tapIn(ctx context.Context, c *card.Card, cmd TapCommand) (*TapResult, error) {
	if cmd.VehicleType == "" {
		return nil, ErrBadRequest
	}
	class := fare.ClassForVehicle(cmd.VehicleType)
	maxFare := s.fares.Maximum(class)
	if c.Balance.LessThan(maxFare) {
		return nil, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	t := &Transaction{
		ID:           types.NewID(),
		CardID:       c.ID,
		Status:       StatusOpen,
		VehicleClass: class,
		TapIn:        cmd.Location,
		Amount:       maxFare,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.store.InsertOpen(ctx, t)
	if errors.Is(err, ErrOpenExists) {
		// Lost an instance race: another tap opened the trip first. This
		// tap is then the complementary end of that trip.
		open, rErr := s.store.OpenByCard(ctx, c.ID)
		if rErr != nil {
			return nil, rErr
		}
		return s.tapOut(ctx, c, open, cmd.Location)
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"card_id":        c.ID,
		"transaction_id": t.ID,
		"vehicle_class":  class,
		"reserved":       maxFare.String(),
	}).Info("tap-in recorded")
	return &TapResult{Direction: DirectionIn, TransactionID: t.ID, Amount: maxFare}, nil
}

// tapOut prices the trip, debits the ledger, and closes the transaction.
// The transaction stays OPEN on any settlement failure so a later tap can
// retry the charge.
func (s *Service) tapOut(ctx context.Context, c *card.Card, open *Transaction, location types.Point) (*TapResult, error) {
	amount, segments, err := s.fares.TripTotal(ctx, open.TapIn, location)
	if err != nil {
		return nil, err
	}
	if c.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	intent, err := s.settle.Begin(ctx, settlement.KindDebit, c.ID, c.FinanceCardNumber, amount)
	if err != nil {
		return nil, err
	}
	if err := s.settle.Execute(ctx, intent); err != nil {
		return nil, err
	}

	if err := s.store.Complete(ctx, CompleteParams{
		TransactionID: open.ID,
		CardID:        c.ID,
		TapOut:        location,
		Amount:        amount,
		IntentID:      intent.ID,
	}); err != nil {
		s.log.WithFields(logrus.Fields{
			"card_id":         c.ID,
			"transaction_id":  open.ID,
			"intent_id":       intent.ID,
			"amount":          amount.String(),
			"idempotency_key": intent.IdempotencyKey,
			"error":           err.Error(),
		}).Error("ledger debit confirmed but local trip commit failed")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"card_id":        c.ID,
		"transaction_id": open.ID,
		"amount":         amount.String(),
		"segments":       len(segments),
	}).Info("tap-out settled")
	return &TapResult{Direction: DirectionOut, TransactionID: open.ID, Amount: amount}, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Transaction, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

// History returns the card's recent transactions, newest first.
func (s *Service) History(ctx context.Context, cardID types.ID, limit int) ([]Transaction, error) {
	if cardID == "" {
		return nil, ErrBadRequest
	}
	return s.store.History(ctx, cardID, limit)
}
