package usecases

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"swap-route.backend/internal/domain/entities"
	"swap-route.backend/internal/domain/errors"
	domainRepos "swap-route.backend/internal/domain/repositories"
	"swap-route.backend/internal/infrastructure/swapnet"
	"swap-route.backend/pkg/keyvault"
	"swap-route.backend/pkg/logger"
	"swap-route.backend/pkg/utils"
)

// CompanionRouter synthesizes a two-hop route through an intermediate asset
// and an ephemeral wallet when the network has no direct liquidity between
// the origin and final destination assets. The payer funds hop one (origin ->
// intermediate, landing on the ephemeral wallet); the companion reconciler
// executes hop two once the wallet is funded.
type CompanionRouter struct {
	planRepo          domainRepos.CompanionPlanRepository
	eventRepo         domainRepos.IntentEventRepository
	gateway           SwapGateway
	vault             *keyvault.Vault
	intermediateAsset string
	feeMultiplier     float64
	keyTTL            time.Duration
	slippageBps       int
}

func NewCompanionRouter(
	planRepo domainRepos.CompanionPlanRepository,
	eventRepo domainRepos.IntentEventRepository,
	gateway SwapGateway,
	vault *keyvault.Vault,
	intermediateAsset string,
	feeMultiplier float64,
	keyTTL time.Duration,
	slippageBps int,
) *CompanionRouter {
	return &CompanionRouter{
		planRepo:          planRepo,
		eventRepo:         eventRepo,
		gateway:           gateway,
		vault:             vault,
		intermediateAsset: intermediateAsset,
		feeMultiplier:     feeMultiplier,
		keyTTL:            keyTTL,
		slippageBps:       slippageBps,
	}
}

// Route builds a companion plan for an intent whose direct route failed.
// It returns the plan plus the first-hop quote the payer must fund. The plan
// is created only when the intermediate asset verifiably routes to the final
// destination; otherwise the whole route is unsupported.
func (r *CompanionRouter) Route(ctx context.Context, intent *entities.PaymentIntent, finalDestinationAmount string) (*entities.CompanionPlan, *swapnet.Quote, error) {
	// Verify the second leg before committing anything.
	secondDry, err := r.gateway.DryQuote(ctx, swapnet.QuoteRequest{
		SwapType:         swapnet.SwapTypeExactOutput,
		OriginAsset:      r.intermediateAsset,
		DestinationAsset: intent.DestinationAsset,
		Amount:           finalDestinationAmount,
		DepositType:      swapnet.DepositTypeOriginChain,
		RefundType:       swapnet.RefundTypeOriginChain,
		RecipientType:    swapnet.RecipientTypeDestination,
		SlippageBps:      r.slippageBps,
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrNoRouteAvailable) {
			return nil, nil, errors.UnprocessableEntity("no route available, direct or via intermediate asset", errors.ErrNoRouteAvailable)
		}
		return nil, nil, errors.InternalError(err)
	}

	// Buffer the second hop's requirement so both hops' fees and slippage
	// never leave the wallet short.
	secondHopAmountIn, err := ApplyFeeBuffer(secondDry.MinAmountIn, r.feeMultiplier)
	if err != nil {
		return nil, nil, errors.InternalError(err)
	}

	planID := utils.GenerateUUIDv7()
	ephemeralAddress, err := r.vault.Generate(ctx, planID.String(), r.keyTTL)
	if err != nil {
		return nil, nil, errors.InternalError(err)
	}

	firstHop, err := r.gateway.LiveQuote(ctx, swapnet.QuoteRequest{
		SwapType:         swapnet.SwapTypeExactOutput,
		OriginAsset:      intent.OriginAsset,
		DestinationAsset: r.intermediateAsset,
		Amount:           secondHopAmountIn,
		DepositType:      swapnet.DepositTypeOriginChain,
		RefundType:       swapnet.RefundTypeOriginChain,
		RecipientType:    swapnet.RecipientTypeDestination,
		RefundTo:         intent.RefundAddress,
		Recipient:        ephemeralAddress,
		SlippageBps:      r.slippageBps,
	})
	if err != nil {
		// The key is useless without a plan; reap it now rather than
		// waiting out the TTL.
		if derr := r.vault.Discard(ctx, planID.String()); derr != nil {
			logger.Warn(ctx, "failed to discard orphaned ephemeral key", zap.String("planId", planID.String()), zap.Error(derr))
		}
		return nil, nil, errors.UnprocessableEntity("first hop quote rejected", errors.ErrFirstHopFailed)
	}

	plan := &entities.CompanionPlan{
		ID:                     planID,
		ClaimID:                intent.ID,
		FinalRecipient:         intent.RecipientAddress,
		FinalDestinationAsset:  intent.DestinationAsset,
		FinalDestinationAmount: finalDestinationAmount,
		IntermediateAsset:      r.intermediateAsset,
		SecondHopAmountIn:      secondHopAmountIn,
		RefundAddress:          intent.RefundAddress,
		EphemeralAddress:       ephemeralAddress,
		FirstHopDepositAddress: firstHop.DepositAddress,
		FirstHopQuoteID:        firstHop.QuoteID,
		FirstHopDeadline:       firstHop.Deadline,
		Status:                 entities.CompanionStatusPendingFirstDeposit,
	}
	if err := r.planRepo.Create(ctx, plan); err != nil {
		return nil, nil, errors.InternalError(err)
	}

	event := &entities.IntentEvent{
		ID:        utils.GenerateUUIDv7(),
		IntentID:  intent.ID,
		EventType: entities.IntentEventTypeCompanionPlanned,
		Metadata:  `{"planId":"` + planID.String() + `"}`,
		CreatedAt: time.Now(),
	}
	if err := r.eventRepo.Create(ctx, event); err != nil {
		logger.Warn(ctx, "failed to record companion event", zap.String("planId", planID.String()), zap.Error(err))
	}

	return plan, firstHop, nil
}
