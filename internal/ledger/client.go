// README: HTTP client for the external finance ledger. The ledger is a black
// box: this client only knows how to create accounts and move money.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"citypass/internal/types"
)

// ErrSettlementFailed marks any ledger call that did not confirm the
// requested movement: non-2xx, success=false, network error, or timeout. A
// timeout is a failure, never "probably fine".
var ErrSettlementFailed = errors.New("settlement failed")

type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// SettleRequest asks the ledger to move money on an account. The idempotency
// key lets the ledger deduplicate a retried call after a timeout.
type SettleRequest struct {
	AccountRef     string
	Amount         types.Money
	Direction      Direction
	IdempotencyKey string
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type settleBody struct {
	AccountRef     string `json:"account_ref"`
	Amount         string `json:"amount"`
	Direction      string `json:"direction"`
	IdempotencyKey string `json:"idempotency_key"`
}

type createAccountBody struct {
	UserID string `json:"user_id"`
	CardNo string `json:"card_no"`
}

type ledgerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateAccount registers a new ledger account for the given finance card
// number before the local card row is created.
func (c *Client) CreateAccount(ctx context.Context, userID types.ID, cardNo string) error {
	return c.post(ctx, "/accounts", createAccountBody{UserID: string(userID), CardNo: cardNo})
}

// Settle moves money on the ledger account in the requested direction.
func (c *Client) Settle(ctx context.Context, req SettleRequest) error {
	err := c.post(ctx, "/settle", settleBody{
		AccountRef:     req.AccountRef,
		Amount:         req.Amount.Amount.String(),
		Direction:      string(req.Direction),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"account_ref":     req.AccountRef,
			"direction":       req.Direction,
			"amount":          req.Amount.String(),
			"idempotency_key": req.IdempotencyKey,
			"error":           err.Error(),
		}).Warn("ledger settlement call failed")
	}
	return err
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrSettlementFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	defer resp.Body.Close()

	var out ledgerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("%w: decode response: %v", ErrSettlementFailed, err)
	}
	if resp.StatusCode >= 300 || !out.Success {
		msg := out.Message
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%w: %s", ErrSettlementFailed, msg)
	}
	return nil
}
