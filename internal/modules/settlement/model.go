// README: Settlement intent journal: records every planned ledger movement
// and its outcome so local state and ledger state can be reconciled.
package settlement

import (
	"time"

	"citypass/internal/types"
)

type Kind string

const (
	KindDebit  Kind = "debit"
	KindCredit Kind = "credit"
)

type Status string

const (
	// StatusPending: intent recorded, ledger call in flight or interrupted.
	StatusPending Status = "PENDING"
	// StatusSettled: ledger confirmed and the local commit landed.
	StatusSettled Status = "SETTLED"
	// StatusFailed: ledger rejected or the call errored; no money moved.
	StatusFailed Status = "FAILED"
)

// Intent is one planned movement of money against the external ledger. It is
// written before the ledger call and resolved after, so a crash between the
// two leaves a PENDING row instead of silent divergence.
type Intent struct {
	ID             types.ID
	Kind           Kind
	CardID         types.ID
	AccountRef     string
	Amount         types.Money
	IdempotencyKey string
	Status         Status
	Message        string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}
