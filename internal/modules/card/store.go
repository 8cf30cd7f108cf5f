// README: Card store backed by PostgreSQL.
package card

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"citypass/internal/types"
)

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const cardColumns = `id, user_id, finance_card_number, status, balance::text, created_at, updated_at`

func (s *Store) Insert(ctx context.Context, c *Card) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO digital_cards (
			id, user_id, finance_card_number, status, balance, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		string(c.ID),
		string(c.UserID),
		c.FinanceCardNumber,
		string(c.Status),
		c.Balance.Amount.String(),
		c.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrCardNumberTaken
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Card, error) {
	row := s.db.QueryRow(ctx, `SELECT `+cardColumns+` FROM digital_cards WHERE id = $1`, string(id))
	return scanCard(row)
}

// ByFinanceCardNumber reports whether the ledger account reference is
// already bound to a local card.
func (s *Store) ByFinanceCardNumber(ctx context.Context, cardNo string) (*Card, error) {
	row := s.db.QueryRow(ctx, `SELECT `+cardColumns+` FROM digital_cards WHERE finance_card_number = $1`, cardNo)
	return scanCard(row)
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID) ([]Card, error) {
	rows, err := s.db.Query(ctx, `SELECT `+cardColumns+` FROM digital_cards WHERE user_id = $1 ORDER BY created_at`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ApplyTopUp increments the cached balance and marks the credit intent
// settled in one local transaction, after the ledger confirmed the credit.
func (s *Store) ApplyTopUp(ctx context.Context, cardID types.ID, amount types.Money, intentID types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE digital_cards
		SET balance = balance + $1::numeric, updated_at = NOW()
		WHERE id = $2`,
		amount.Amount.String(), string(cardID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `
		UPDATE settlement_intents
		SET status = 'SETTLED', resolved_at = NOW()
		WHERE id = $1`,
		string(intentID),
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*Card, error) {
	var c Card
	var balance string
	err := row.Scan(&c.ID, &c.UserID, &c.FinanceCardNumber, &c.Status, &balance, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	c.Balance = types.FromDecimal(d)
	return &c, nil
}
