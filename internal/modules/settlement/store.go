// README: Settlement intent store backed by PostgreSQL.
package settlement

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"citypass/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, in *Intent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO settlement_intents (
			id, kind, card_id, account_ref, amount, idempotency_key, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(in.ID),
		string(in.Kind),
		string(in.CardID),
		in.AccountRef,
		in.Amount.Amount.String(),
		in.IdempotencyKey,
		string(in.Status),
		in.CreatedAt,
	)
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id types.ID, message string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE settlement_intents
		SET status = $1, message = $2, resolved_at = NOW()
		WHERE id = $3 AND status = $4`,
		string(StatusFailed), message, string(id), string(StatusPending),
	)
	return err
}

// Unresolved returns PENDING intents older than the cutoff. These are the
// rows where the ledger may have moved money without a matching local commit.
func (s *Store) Unresolved(ctx context.Context, olderThan time.Duration) ([]Intent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, kind, card_id, account_ref, amount::text, idempotency_key, status, COALESCE(message, ''), created_at
		FROM settlement_intents
		WHERE status = $1 AND created_at < NOW() - $2::interval
		ORDER BY created_at`,
		string(StatusPending), olderThan.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Intent
	for rows.Next() {
		var in Intent
		var amount string
		if err := rows.Scan(&in.ID, &in.Kind, &in.CardID, &in.AccountRef, &amount, &in.IdempotencyKey, &in.Status, &in.Message, &in.CreatedAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		in.Amount = types.FromDecimal(d)
		out = append(out, in)
	}
	return out, rows.Err()
}
