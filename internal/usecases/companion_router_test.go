package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"swap-route.backend/internal/domain/entities"
	domainerrors "swap-route.backend/internal/domain/errors"
	"swap-route.backend/internal/infrastructure/swapnet"
	"swap-route.backend/internal/usecases"
	"swap-route.backend/pkg/keyvault"
	"swap-route.backend/pkg/redis"
	"swap-route.backend/pkg/utils"
)

const testVaultKey = "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"

func setupCompanionRouter(t *testing.T, pr *MockCompanionPlanRepository, er *MockIntentEventRepository, gw *MockSwapGateway) *usecases.CompanionRouter {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	redis.SetClient(cli)
	t.Cleanup(func() { cli.Close() })

	vault, err := keyvault.NewVault(testVaultKey)
	require.NoError(t, err)

	return usecases.NewCompanionRouter(pr, er, gw, vault, "eth:1:native", 1.05, 24*time.Hour, 100)
}

func companionIntent() *entities.PaymentIntent {
	return &entities.PaymentIntent{
		ID:               utils.GenerateUUIDv7(),
		OriginAsset:      "btc:mainnet:native",
		DestinationAsset: "obscure:chain:token",
		RecipientAddress: "final-recipient",
		RefundAddress:    "bc1refund",
		Status:           entities.IntentStatusOpen,
	}
}

func TestCompanionRoute_Success(t *testing.T) {
	pr := new(MockCompanionPlanRepository)
	er := new(MockIntentEventRepository)
	gw := new(MockSwapGateway)
	router := setupCompanionRouter(t, pr, er, gw)

	intent := companionIntent()
	deadline := time.Now().Add(time.Hour)

	// Second leg probe: intermediate -> final destination.
	gw.On("DryQuote", mock.Anything, mock.MatchedBy(func(req swapnet.QuoteRequest) bool {
		return req.OriginAsset == "eth:1:native" &&
			req.DestinationAsset == "obscure:chain:token" &&
			req.Amount == "1000000"
	})).Return(&swapnet.Quote{MinAmountIn: "2000000000000000000"}, nil).Once()

	var ephemeralRecipient string
	gw.On("LiveQuote", mock.Anything, mock.MatchedBy(func(req swapnet.QuoteRequest) bool {
		ephemeralRecipient = req.Recipient
		// First hop lands on the ephemeral wallet and carries the buffered
		// second-hop requirement: 2e18 * 1.05.
		return req.OriginAsset == "btc:mainnet:native" &&
			req.DestinationAsset == "eth:1:native" &&
			req.Amount == "2100000000000000000" &&
			req.RefundTo == "bc1refund" &&
			req.Recipient != ""
	})).Return(&swapnet.Quote{
		QuoteID:        "q-first",
		DepositAddress: "bc1deposit",
		MinAmountIn:    "5000000",
		Deadline:       deadline,
	}, nil).Once()

	pr.On("Create", mock.Anything, mock.MatchedBy(func(plan *entities.CompanionPlan) bool {
		return plan.ClaimID == intent.ID &&
			plan.Status == entities.CompanionStatusPendingFirstDeposit &&
			plan.SecondHopAmountIn == "2100000000000000000" &&
			plan.FirstHopDepositAddress == "bc1deposit" &&
			plan.EphemeralAddress == ephemeralRecipient
	})).Return(nil).Once()
	er.On("Create", mock.Anything, mock.MatchedBy(func(event *entities.IntentEvent) bool {
		return event.EventType == entities.IntentEventTypeCompanionPlanned
	})).Return(nil).Once()

	plan, quote, err := router.Route(context.Background(), intent, "1000000")
	require.NoError(t, err)
	assert.Equal(t, "bc1deposit", quote.DepositAddress)
	assert.Equal(t, "final-recipient", plan.FinalRecipient)
	assert.NotEmpty(t, plan.EphemeralAddress)

	pr.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestCompanionRoute_NoIntermediateRoute(t *testing.T) {
	pr := new(MockCompanionPlanRepository)
	er := new(MockIntentEventRepository)
	gw := new(MockSwapGateway)
	router := setupCompanionRouter(t, pr, er, gw)

	gw.On("DryQuote", mock.Anything, mock.Anything).Return(nil, domainerrors.ErrNoRouteAvailable).Once()

	_, _, err := router.Route(context.Background(), companionIntent(), "1000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrNoRouteAvailable)
	pr.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCompanionRoute_FirstHopRejected(t *testing.T) {
	pr := new(MockCompanionPlanRepository)
	er := new(MockIntentEventRepository)
	gw := new(MockSwapGateway)
	router := setupCompanionRouter(t, pr, er, gw)

	gw.On("DryQuote", mock.Anything, mock.Anything).Return(&swapnet.Quote{MinAmountIn: "1000"}, nil).Once()
	gw.On("LiveQuote", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	_, _, err := router.Route(context.Background(), companionIntent(), "1000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrFirstHopFailed)
	// No plan persisted when the payer-facing hop cannot be quoted.
	pr.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestDeposit_FallsBackToCompanion(t *testing.T) {
	ir := new(MockPaymentIntentRepository)
	er := new(MockIntentEventRepository)
	pr := new(MockCompanionPlanRepository)
	gw := new(MockSwapGateway)
	router := setupCompanionRouter(t, pr, er, gw)
	uc := usecases.NewDepositUsecase(ir, er, gw, router, time.Hour, 100)

	deadline := time.Now().Add(time.Hour)

	ir.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	er.On("Create", mock.Anything, mock.Anything).Return(nil)

	input := validInput()
	input.Amount = "1"
	input.DestinationTokenPrice = "1"

	// Direct route has no liquidity.
	gw.On("DryQuote", mock.Anything, mock.MatchedBy(func(req swapnet.QuoteRequest) bool {
		return req.OriginAsset == input.OriginAsset && req.DestinationAsset == input.DestinationAsset
	})).Return(nil, domainerrors.ErrNoRouteAvailable).Once()

	// Second-leg probe through the intermediate asset succeeds.
	gw.On("DryQuote", mock.Anything, mock.MatchedBy(func(req swapnet.QuoteRequest) bool {
		return req.OriginAsset == "eth:1:native"
	})).Return(&swapnet.Quote{MinAmountIn: "1000000"}, nil).Once()

	gw.On("LiveQuote", mock.Anything, mock.Anything).Return(&swapnet.Quote{
		QuoteID:              "q-first",
		DepositAddress:       "0xFirstHop",
		MinAmountIn:          "2000000",
		MinAmountInFormatted: "0.000000000002",
		Deadline:             deadline,
	}, nil).Once()

	pr.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	ir.On("Update", mock.Anything, mock.MatchedBy(func(intent *entities.PaymentIntent) bool {
		return intent.Status == entities.IntentStatusPendingDeposit &&
			intent.DepositAddress.String == "0xFirstHop"
	})).Return(nil).Once()

	out, err := uc.RequestDeposit(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, out.Companion)
	assert.Equal(t, "0xFirstHop", out.DepositAddress)

	gw.AssertExpectations(t)
	pr.AssertExpectations(t)
}
