// README: Tap transaction aggregate and status definitions.
package tap

import (
	"time"

	"citypass/internal/modules/fare"
	"citypass/internal/types"
)

type Status string

const (
	// StatusOpen: tap-in recorded, trip in progress. Amount holds the
	// reservation estimate (the class maximum), not a ledger hold.
	StatusOpen Status = "OPEN"
	// StatusCompleted: tap-out settled. Amount holds the actual fare.
	// Terminal; the row is never updated again.
	StatusCompleted Status = "COMPLETED"
)

// Transaction is one physical trip bounded by a tap-in and a tap-out.
// Invariant: at most one OPEN transaction per card at any time.
type Transaction struct {
	ID           types.ID
	CardID       types.ID
	Status       Status
	VehicleClass fare.Class
	TapIn        types.Point
	TapOut       *types.Point
	Amount       types.Money
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// TapResult reports which way a tap resolved. Amount is the reservation
// estimate for IN and the actual charge for OUT.
type TapResult struct {
	Direction     Direction
	TransactionID types.ID
	Amount        types.Money
}
