// README: Settlement service: intent lifecycle around external ledger calls.
package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"citypass/internal/ledger"
	"citypass/internal/types"
)

// LedgerClient is the slice of the finance ledger the service calls.
type LedgerClient interface {
	Settle(ctx context.Context, req ledger.SettleRequest) error
}

// Journal is the persistence the service needs; *Store implements it.
type Journal interface {
	Insert(ctx context.Context, in *Intent) error
	MarkFailed(ctx context.Context, id types.ID, message string) error
	Unresolved(ctx context.Context, olderThan time.Duration) ([]Intent, error)
}

type Service struct {
	journal Journal
	ledger  LedgerClient
	log     *logrus.Logger
}

func NewService(journal Journal, ledger LedgerClient, log *logrus.Logger) *Service {
	return &Service{journal: journal, ledger: ledger, log: log}
}

// Begin records a PENDING intent for a planned ledger movement. The intent
// carries a fresh idempotency key so the ledger can deduplicate retries.
func (s *Service) Begin(ctx context.Context, kind Kind, cardID types.ID, accountRef string, amount types.Money) (*Intent, error) {
	in := &Intent{
		ID:             types.NewID(),
		Kind:           kind,
		CardID:         cardID,
		AccountRef:     accountRef,
		Amount:         amount,
		IdempotencyKey: uuid.NewString(),
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.journal.Insert(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Execute performs the ledger call for an intent. On failure the intent is
// marked FAILED and the error is returned; the caller's local state must not
// change. On success the intent stays PENDING: the caller marks it SETTLED
// inside the same local commit that applies the money movement.
func (s *Service) Execute(ctx context.Context, in *Intent) error {
	dir := ledger.DirectionDebit
	if in.Kind == KindCredit {
		dir = ledger.DirectionCredit
	}
	err := s.ledger.Settle(ctx, ledger.SettleRequest{
		AccountRef:     in.AccountRef,
		Amount:         in.Amount,
		Direction:      dir,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		if mErr := s.journal.MarkFailed(ctx, in.ID, err.Error()); mErr != nil {
			s.log.WithFields(logrus.Fields{
				"intent_id": in.ID,
				"error":     mErr.Error(),
			}).Error("failed to mark settlement intent failed")
		}
		return err
	}
	return nil
}

// ReportUnresolved logs every PENDING intent older than the cutoff and
// returns them. A stuck PENDING intent means the ledger call may have landed
// without its local commit; resolution is an out-of-band operation because
// the ledger exposes no query API.
func (s *Service) ReportUnresolved(ctx context.Context, olderThan time.Duration) ([]Intent, error) {
	intents, err := s.journal.Unresolved(ctx, olderThan)
	if err != nil {
		return nil, err
	}
	for _, in := range intents {
		s.log.WithFields(logrus.Fields{
			"intent_id":       in.ID,
			"kind":            in.Kind,
			"card_id":         in.CardID,
			"account_ref":     in.AccountRef,
			"amount":          in.Amount.String(),
			"idempotency_key": in.IdempotencyKey,
			"created_at":      in.CreatedAt,
		}).Error("unresolved settlement intent requires reconciliation")
	}
	return intents, nil
}
