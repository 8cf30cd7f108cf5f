// README: Tap transaction store backed by PostgreSQL. The partial unique
// index on (card_id) WHERE status = 'OPEN' is the hard single-open-trip
// guarantee; the service-level lock only serializes the happy path.
package tap

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

const defaultHistoryLimit = 6

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const txnColumns = `id, card_id, status, vehicle_class, tap_in_lat, tap_in_lng, tap_out_lat, tap_out_lng, amount::text, created_at, updated_at`

// InsertOpen records a tap-in. A concurrent open trip on the same card
// trips the partial unique index and surfaces as ErrOpenExists.
func (s *Store) InsertOpen(ctx context.Context, t *Transaction) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tap_transactions (
			id, card_id, status, vehicle_class, tap_in_lat, tap_in_lng, amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		string(t.ID),
		string(t.CardID),
		string(t.Status),
		string(t.VehicleClass),
		t.TapIn.Lat,
		t.TapIn.Lng,
		t.Amount.Amount.String(),
		t.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrOpenExists
	}
	return err
}

// OpenByCard returns the card's in-progress transaction, ErrNoOpen if the
// card is not currently on a trip.
func (s *Store) OpenByCard(ctx context.Context, cardID types.ID) (*Transaction, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+txnColumns+` FROM tap_transactions
		WHERE card_id = $1 AND status = 'OPEN'`,
		string(cardID),
	)
	t, err := scanTransaction(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoOpen
	}
	return t, err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+txnColumns+` FROM tap_transactions WHERE id = $1`, string(id))
	return scanTransaction(row)
}

// History lists the card's most recent transactions, newest first.
func (s *Store) History(ctx context.Context, cardID types.ID, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+txnColumns+` FROM tap_transactions
		WHERE card_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		string(cardID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type CompleteParams struct {
	TransactionID types.ID
	CardID        types.ID
	TapOut        types.Point
	Amount        types.Money
	IntentID      types.ID
}

// Complete closes the trip, debits the cached balance, and marks the debit
// intent settled in one local transaction. The guarded UPDATE keeps a
// double tap-out from charging twice: only the OPEN row transitions.
func (s *Store) Complete(ctx context.Context, p CompleteParams) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE tap_transactions
		SET status = 'COMPLETED', tap_out_lat = $1, tap_out_lng = $2, amount = $3::numeric, updated_at = NOW()
		WHERE id = $4 AND status = 'OPEN'`,
		p.TapOut.Lat, p.TapOut.Lng, p.Amount.Amount.String(), string(p.TransactionID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrInvalidState
	}
	if _, err := tx.Exec(ctx, `
		UPDATE digital_cards
		SET balance = balance - $1::numeric, updated_at = NOW()
		WHERE id = $2`,
		p.Amount.Amount.String(), string(p.CardID),
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE settlement_intents
		SET status = 'SETTLED', resolved_at = NOW()
		WHERE id = $1`,
		string(p.IntentID),
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var t Transaction
	var amount string
	var outLat, outLng *float64
	err := row.Scan(
		&t.ID, &t.CardID, &t.Status, &t.VehicleClass,
		&t.TapIn.Lat, &t.TapIn.Lng, &outLat, &outLng,
		&amount, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if outLat != nil && outLng != nil {
		t.TapOut = &types.Point{Lat: *outLat, Lng: *outLng}
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	t.Amount = types.FromDecimal(d)
	return &t, nil
}
