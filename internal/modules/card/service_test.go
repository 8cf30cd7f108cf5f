// README: Card registry tests (registration flow, top-up saga).
package card

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"citypass/internal/modules/settlement"
	"citypass/internal/types"
)

// memRegistry is an in-memory Registry.
type memRegistry struct {
	mu    sync.Mutex
	cards map[types.ID]*Card

	applyErr error
}

func newMemRegistry() *memRegistry {
	return &memRegistry{cards: map[types.ID]*Card{}}
}

func (m *memRegistry) Insert(_ context.Context, c *Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.cards {
		if existing.FinanceCardNumber == c.FinanceCardNumber {
			return ErrCardNumberTaken
		}
	}
	cp := *c
	m.cards[c.ID] = &cp
	return nil
}

func (m *memRegistry) Get(_ context.Context, id types.ID) (*Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRegistry) ByFinanceCardNumber(_ context.Context, cardNo string) (*Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.FinanceCardNumber == cardNo {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRegistry) ListByUser(_ context.Context, userID types.ID) ([]Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Card
	for _, c := range m.cards {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRegistry) ApplyTopUp(_ context.Context, cardID types.ID, amount types.Money, _ types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	c, ok := m.cards[cardID]
	if !ok {
		return ErrNotFound
	}
	c.Balance = c.Balance.Add(amount)
	return nil
}

// fakeLedger counts account creations and fails on demand.
type fakeLedger struct {
	createErr error
	created   int
}

func (f *fakeLedger) CreateAccount(_ context.Context, _ types.ID, _ string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created++
	return nil
}

type fakeSettler struct {
	execErr  error
	executed int
}

func (f *fakeSettler) Begin(_ context.Context, kind settlement.Kind, cardID types.ID, accountRef string, amount types.Money) (*settlement.Intent, error) {
	return &settlement.Intent{
		ID:         types.NewID(),
		Kind:       kind,
		CardID:     cardID,
		AccountRef: accountRef,
		Amount:     amount,
		Status:     settlement.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (f *fakeSettler) Execute(_ context.Context, _ *settlement.Intent) error {
	if f.execErr != nil {
		return f.execErr
	}
	f.executed++
	return nil
}

func setupCardService(t *testing.T) (*Service, *memRegistry, *fakeLedger, *fakeSettler) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := newMemRegistry()
	ledger := &fakeLedger{}
	settler := &fakeSettler{}
	return NewService(store, ledger, settler, log), store, ledger, settler
}

func TestRegister(t *testing.T) {
	svc, _, ledger, _ := setupCardService(t)

	c, err := svc.Register(context.Background(), RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.Status != StatusActive {
		t.Errorf("new card must be active, got %s", c.Status)
	}
	if !c.Balance.Equal(types.Baht(0)) {
		t.Errorf("new card must start at zero balance, got %s", c.Balance)
	}
	if ledger.created != 1 {
		t.Errorf("expected one ledger account, got %d", ledger.created)
	}
}

func TestRegisterDuplicateCardNumber(t *testing.T) {
	svc, _, ledger, _ := setupCardService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-1"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterCommand{UserID: "u2", FinanceCardNumber: "4000-1"})
	if !errors.Is(err, ErrCardNumberTaken) {
		t.Fatalf("expected ErrCardNumberTaken, got %v", err)
	}
	if ledger.created != 1 {
		t.Errorf("duplicate registration must not create a second ledger account")
	}
}

func TestRegisterLedgerFailure(t *testing.T) {
	svc, store, ledger, _ := setupCardService(t)
	ledger.createErr = errors.New("ledger down")

	_, err := svc.Register(context.Background(), RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-1"})
	if err == nil {
		t.Fatal("expected registration to fail when the ledger is down")
	}
	if len(store.cards) != 0 {
		t.Errorf("no local card may exist without a ledger account")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := setupCardService(t)
	cases := []RegisterCommand{
		{},
		{UserID: "u1"},
		{FinanceCardNumber: "4000-1"},
	}
	for _, cmd := range cases {
		if _, err := svc.Register(context.Background(), cmd); !errors.Is(err, ErrBadRequest) {
			t.Errorf("Register(%+v): expected ErrBadRequest, got %v", cmd, err)
		}
	}
}

func TestTopUp(t *testing.T) {
	svc, _, _, settler := setupCardService(t)
	ctx := context.Background()

	c, err := svc.Register(ctx, RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := svc.TopUp(ctx, TopUpCommand{CardID: c.ID, Amount: types.Baht(200)})
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}
	if !got.Balance.Equal(types.Baht(200)) {
		t.Errorf("expected balance 200, got %s", got.Balance)
	}
	if settler.executed != 1 {
		t.Errorf("expected one ledger credit, got %d", settler.executed)
	}
}

func TestTopUpRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _, _ := setupCardService(t)
	ctx := context.Background()

	c, _ := svc.Register(ctx, RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-1"})
	for _, amount := range []types.Money{types.Baht(0), types.Baht(-50)} {
		if _, err := svc.TopUp(ctx, TopUpCommand{CardID: c.ID, Amount: amount}); !errors.Is(err, ErrBadRequest) {
			t.Errorf("TopUp(%s): expected ErrBadRequest, got %v", amount, err)
		}
	}
}

func TestTopUpBlockedCard(t *testing.T) {
	svc, store, _, _ := setupCardService(t)
	ctx := context.Background()

	c, _ := svc.Register(ctx, RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-1"})
	store.cards[c.ID].Status = StatusBlocked

	if _, err := svc.TopUp(ctx, TopUpCommand{CardID: c.ID, Amount: types.Baht(100)}); !errors.Is(err, ErrCardBlocked) {
		t.Fatalf("expected ErrCardBlocked, got %v", err)
	}
}

func TestTopUpCreditFailureLeavesBalanceUntouched(t *testing.T) {
	svc, store, _, settler := setupCardService(t)
	ctx := context.Background()

	c, _ := svc.Register(ctx, RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-1"})
	settler.execErr = errors.New("ledger rejected the credit")

	if _, err := svc.TopUp(ctx, TopUpCommand{CardID: c.ID, Amount: types.Baht(100)}); err == nil {
		t.Fatal("expected top-up to fail")
	}
	got, _ := store.Get(ctx, c.ID)
	if !got.Balance.Equal(types.Baht(0)) {
		t.Errorf("balance must not change on a failed credit, got %s", got.Balance)
	}
}

func TestTopUpUnknownCard(t *testing.T) {
	svc, _, _, _ := setupCardService(t)
	if _, err := svc.TopUp(context.Background(), TopUpCommand{CardID: "missing", Amount: types.Baht(100)}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByUser(t *testing.T) {
	svc, _, _, _ := setupCardService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterCommand{UserID: "u1", FinanceCardNumber: "4000-2"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterCommand{UserID: "u2", FinanceCardNumber: "4000-3"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cards, err := svc.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != 2 {
		t.Errorf("expected 2 cards for u1, got %d", len(cards))
	}
}
