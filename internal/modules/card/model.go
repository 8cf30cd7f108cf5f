// README: Digital card aggregate: local card mapped to an external ledger
// account, with a display-only cached balance.
package card

import (
	"time"

	"citypass/internal/types"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// Card is a rider's digital card. FinanceCardNumber references the external
// ledger account holding the real balance; Balance is a cached mirror, never
// authoritative. Cards are soft-disabled via Status, never deleted.
type Card struct {
	ID                types.ID
	UserID            types.ID
	FinanceCardNumber string
	Status            Status
	Balance           types.Money
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
