package jobs_test

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"swap-route.backend/internal/domain/entities"
	"swap-route.backend/internal/infrastructure/blockchain"
	"swap-route.backend/internal/infrastructure/swapnet"
	"swap-route.backend/pkg/keyvault"
)

// passLocker grants every lock inline; keys in skip report contention.
type passLocker struct {
	skip map[string]bool
	held []string
}

func (l *passLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	if l.skip[key] {
		return false, nil
	}
	l.held = append(l.held, key)
	return true, fn(ctx)
}

type MockPaymentIntentRepository struct {
	mock.Mock
}

func (m *MockPaymentIntentRepository) Create(ctx context.Context, intent *entities.PaymentIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockPaymentIntentRepository) Update(ctx context.Context, intent *entities.PaymentIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockPaymentIntentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) GetByDepositAddress(ctx context.Context, depositAddress string) (*entities.PaymentIntent, error) {
	args := m.Called(ctx, depositAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) ListPending(ctx context.Context, retention time.Duration, limit int) ([]*entities.PaymentIntent, error) {
	args := m.Called(ctx, retention, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PaymentIntent), args.Error(1)
}

func (m *MockPaymentIntentRepository) List(ctx context.Context, limit, offset int) ([]*entities.PaymentIntent, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.PaymentIntent), args.Get(1).(int64), args.Error(2)
}

type MockIntentEventRepository struct {
	mock.Mock
}

func (m *MockIntentEventRepository) Create(ctx context.Context, event *entities.IntentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockIntentEventRepository) GetByIntentID(ctx context.Context, intentID uuid.UUID) ([]*entities.IntentEvent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.IntentEvent), args.Error(1)
}

type MockCompanionPlanRepository struct {
	mock.Mock
}

func (m *MockCompanionPlanRepository) Create(ctx context.Context, plan *entities.CompanionPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockCompanionPlanRepository) Update(ctx context.Context, plan *entities.CompanionPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockCompanionPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.CompanionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CompanionPlan), args.Error(1)
}

func (m *MockCompanionPlanRepository) GetByClaimID(ctx context.Context, claimID uuid.UUID) (*entities.CompanionPlan, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CompanionPlan), args.Error(1)
}

func (m *MockCompanionPlanRepository) ListPending(ctx context.Context, retention time.Duration, limit int) ([]*entities.CompanionPlan, error) {
	args := m.Called(ctx, retention, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CompanionPlan), args.Error(1)
}

type MockSwapGateway struct {
	mock.Mock
}

func (m *MockSwapGateway) DryQuote(ctx context.Context, req swapnet.QuoteRequest) (*swapnet.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*swapnet.Quote), args.Error(1)
}

func (m *MockSwapGateway) LiveQuote(ctx context.Context, req swapnet.QuoteRequest) (*swapnet.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*swapnet.Quote), args.Error(1)
}

func (m *MockSwapGateway) GetStatus(ctx context.Context, depositAddress string) (*swapnet.StatusResult, error) {
	args := m.Called(ctx, depositAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*swapnet.StatusResult), args.Error(1)
}

type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainClient) SendNative(ctx context.Context, signer blockchain.TxSigner, to string, amountWei *big.Int) (string, error) {
	args := m.Called(ctx, signer, to, amountWei)
	return args.String(0), args.Error(1)
}

type MockKeyStore struct {
	mock.Mock
}

func (m *MockKeyStore) Signer(ctx context.Context, id string) (keyvault.Signer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(keyvault.Signer), args.Error(1)
}

func (m *MockKeyStore) Discard(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeSigner stands in for a vault-held ephemeral key.
type fakeSigner struct {
	address string
}

func (s *fakeSigner) Address() string {
	return s.address
}

func (s *fakeSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return tx, nil
}
