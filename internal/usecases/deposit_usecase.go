package usecases

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"swap-route.backend/internal/domain/entities"
	"swap-route.backend/internal/domain/errors"
	domainRepos "swap-route.backend/internal/domain/repositories"
	"swap-route.backend/internal/infrastructure/swapnet"
	"swap-route.backend/pkg/logger"
	"swap-route.backend/pkg/utils"
)

// SwapGateway is the slice of the swap network client the usecases consume
type SwapGateway interface {
	DryQuote(ctx context.Context, req swapnet.QuoteRequest) (*swapnet.Quote, error)
	LiveQuote(ctx context.Context, req swapnet.QuoteRequest) (*swapnet.Quote, error)
	GetStatus(ctx context.Context, depositAddress string) (*swapnet.StatusResult, error)
}

type DepositUsecase struct {
	intentRepo      domainRepos.PaymentIntentRepository
	eventRepo       domainRepos.IntentEventRepository
	gateway         SwapGateway
	companionRouter *CompanionRouter
	depositDeadline time.Duration
	slippageBps     int
}

func NewDepositUsecase(
	intentRepo domainRepos.PaymentIntentRepository,
	eventRepo domainRepos.IntentEventRepository,
	gateway SwapGateway,
	companionRouter *CompanionRouter,
	depositDeadline time.Duration,
	slippageBps int,
) *DepositUsecase {
	return &DepositUsecase{
		intentRepo:      intentRepo,
		eventRepo:       eventRepo,
		gateway:         gateway,
		companionRouter: companionRouter,
		depositDeadline: depositDeadline,
		slippageBps:     slippageBps,
	}
}

type RequestDepositInput struct {
	OriginAsset           string
	OriginDecimals        int
	DestinationAsset      string
	DestinationDecimals   int
	DestinationTokenPrice string // Fiat per unit
	Amount                string // Fiat/human units
	RecipientAddress      string
	RefundAddress         string
}

type RequestDepositOutput struct {
	IntentID             uuid.UUID  `json:"intentId"`
	Status               string     `json:"status"`
	DepositAddress       string     `json:"depositAddress"`
	Memo                 string     `json:"memo,omitempty"`
	MinAmountInFormatted string     `json:"minAmountInFormatted"`
	Deadline             time.Time  `json:"deadline"`
	TimeEstimate         int        `json:"timeEstimateSeconds,omitempty"`
	Companion            bool       `json:"companionRoute"`
}

// RequestDeposit converts the requested fiat amount into atomic destination
// units, probes the direct route with a dry quote, and either issues a direct
// deposit address or falls back to the two-hop companion router. Validation
// and route failures surface synchronously; nothing here is retried.
func (uc *DepositUsecase) RequestDeposit(ctx context.Context, input RequestDepositInput) (*RequestDepositOutput, error) {
	if input.RefundAddress == "" {
		return nil, errors.BadRequest(errors.ErrMissingRefundAddress.Error())
	}
	if input.RecipientAddress == "" {
		return nil, errors.BadRequest("recipient address is required")
	}

	// Round the requested amount up at the destination token's precision
	// before converting, so the recipient never receives less than asked.
	rounded, err := RoundUpToDecimals(input.Amount, input.DestinationDecimals)
	if err != nil {
		return nil, errors.NewAppError(http.StatusBadRequest, err.Error(), err)
	}
	destAtomic, err := FiatToTokenAtomic(rounded, input.DestinationTokenPrice, input.DestinationDecimals)
	if err != nil {
		return nil, errors.NewAppError(http.StatusBadRequest, err.Error(), err)
	}

	intent := &entities.PaymentIntent{
		ID:                utils.GenerateUUIDv7(),
		OriginAsset:       input.OriginAsset,
		DestinationAsset:  input.DestinationAsset,
		RequestedAmount:   input.Amount,
		DestinationAmount: destAtomic,
		RecipientAddress:  input.RecipientAddress,
		RefundAddress:     input.RefundAddress,
		Status:            entities.IntentStatusOpen,
	}
	if err := uc.intentRepo.Create(ctx, intent); err != nil {
		return nil, errors.InternalError(err)
	}
	uc.recordEvent(ctx, intent.ID, entities.IntentEventTypeCreated, "")

	deadline := time.Now().Add(uc.depositDeadline)

	_, dryErr := uc.gateway.DryQuote(ctx, swapnet.QuoteRequest{
		SwapType:         swapnet.SwapTypeExactOutput,
		OriginAsset:      input.OriginAsset,
		DestinationAsset: input.DestinationAsset,
		Amount:           destAtomic,
		DepositType:      swapnet.DepositTypeOriginChain,
		RefundType:       swapnet.RefundTypeOriginChain,
		RecipientType:    swapnet.RecipientTypeDestination,
		SlippageBps:      uc.slippageBps,
	})
	if dryErr != nil {
		if stderrors.Is(dryErr, errors.ErrNoRouteAvailable) {
			return uc.routeViaCompanion(ctx, intent, destAtomic, input)
		}
		return nil, errors.InternalError(dryErr)
	}

	quote, err := uc.gateway.LiveQuote(ctx, swapnet.QuoteRequest{
		SwapType:         swapnet.SwapTypeExactOutput,
		OriginAsset:      input.OriginAsset,
		DestinationAsset: input.DestinationAsset,
		Amount:           destAtomic,
		DepositType:      swapnet.DepositTypeOriginChain,
		RefundType:       swapnet.RefundTypeOriginChain,
		RecipientType:    swapnet.RecipientTypeDestination,
		RefundTo:         input.RefundAddress,
		Recipient:        input.RecipientAddress,
		SlippageBps:      uc.slippageBps,
		Deadline:         deadline.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, errors.UnprocessableEntity("swap network rejected the quote", err)
	}

	if err := uc.issueDeposit(ctx, intent, quote, input.OriginDecimals); err != nil {
		return nil, err
	}

	return &RequestDepositOutput{
		IntentID:             intent.ID,
		Status:               string(intent.Status),
		DepositAddress:       intent.DepositAddress.String,
		Memo:                 intent.Memo.String,
		MinAmountInFormatted: intent.MinAmountInFormatted.String,
		Deadline:             *intent.Deadline,
		TimeEstimate:         quote.TimeEstimate,
	}, nil
}

// issueDeposit moves an OPEN intent to PENDING_DEPOSIT with the live quote's
// deposit fields. The surfaced amount is rounded up: the network needs at
// least its minimum input, and a short deposit stalls.
func (uc *DepositUsecase) issueDeposit(ctx context.Context, intent *entities.PaymentIntent, quote *swapnet.Quote, originDecimals int) error {
	formatted := quote.MinAmountInFormatted
	if formatted == "" {
		var err error
		formatted, err = FromAtomicUnits(quote.MinAmountIn, originDecimals)
		if err != nil {
			return errors.InternalError(err)
		}
	}
	rounded, err := RoundUpToDecimals(formatted, originDecimals)
	if err != nil {
		return errors.InternalError(err)
	}

	deadline := quote.Deadline
	intent.Status = entities.IntentStatusPendingDeposit
	intent.DepositAddress = null.StringFrom(quote.DepositAddress)
	intent.QuoteID = null.StringFrom(quote.QuoteID)
	intent.Deadline = &deadline
	intent.MinAmountIn = null.StringFrom(quote.MinAmountIn)
	intent.MinAmountInFormatted = null.StringFrom(rounded)
	if quote.Memo != "" {
		intent.Memo = null.StringFrom(quote.Memo)
	}

	if err := uc.intentRepo.Update(ctx, intent); err != nil {
		return errors.InternalError(err)
	}
	uc.recordEvent(ctx, intent.ID, entities.IntentEventTypeDepositIssued, `{"depositAddress":"`+quote.DepositAddress+`"}`)
	return nil
}

func (uc *DepositUsecase) routeViaCompanion(ctx context.Context, intent *entities.PaymentIntent, destAtomic string, input RequestDepositInput) (*RequestDepositOutput, error) {
	plan, quote, err := uc.companionRouter.Route(ctx, intent, destAtomic)
	if err != nil {
		return nil, err
	}

	if err := uc.issueDeposit(ctx, intent, quote, input.OriginDecimals); err != nil {
		return nil, err
	}

	logger.Info(ctx, "companion route planned",
		zap.String("intentId", intent.ID.String()),
		zap.String("planId", plan.ID.String()),
	)

	return &RequestDepositOutput{
		IntentID:             intent.ID,
		Status:               string(intent.Status),
		DepositAddress:       intent.DepositAddress.String,
		Memo:                 intent.Memo.String,
		MinAmountInFormatted: intent.MinAmountInFormatted.String,
		Deadline:             *intent.Deadline,
		TimeEstimate:         quote.TimeEstimate,
		Companion:            true,
	}, nil
}

// GetDeposit returns the intent and its current status. Callers polling an
// intent that the network has not yet seen get PENDING_DEPOSIT back, never an
// error.
func (uc *DepositUsecase) GetDeposit(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
	intent, err := uc.intentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NotFound("deposit intent not found")
	}
	return intent, nil
}

// GetDepositEvents returns the transition log for an intent
func (uc *DepositUsecase) GetDepositEvents(ctx context.Context, id uuid.UUID) ([]*entities.IntentEvent, error) {
	if _, err := uc.intentRepo.GetByID(ctx, id); err != nil {
		return nil, errors.NotFound("deposit intent not found")
	}
	events, err := uc.eventRepo.GetByIntentID(ctx, id)
	if err != nil {
		return nil, errors.InternalError(err)
	}
	return events, nil
}

// ListDeposits returns intents for the admin/collaborator surface
func (uc *DepositUsecase) ListDeposits(ctx context.Context, limit, offset int) ([]*entities.PaymentIntent, int64, error) {
	return uc.intentRepo.List(ctx, limit, offset)
}

// CancelDeposit cancels an intent that has not been quoted yet. Once a
// deposit address exists the swap network owns execution and there is nothing
// to cancel.
func (uc *DepositUsecase) CancelDeposit(ctx context.Context, id uuid.UUID) (*entities.PaymentIntent, error) {
	intent, err := uc.intentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NotFound("deposit intent not found")
	}
	if intent.Status != entities.IntentStatusOpen {
		return nil, errors.BadRequest("only open intents can be cancelled")
	}

	intent.Status = entities.IntentStatusCancelled
	if err := uc.intentRepo.Update(ctx, intent); err != nil {
		return nil, errors.InternalError(err)
	}
	uc.recordEvent(ctx, intent.ID, entities.IntentEventTypeCancelled, "")
	return intent, nil
}

func (uc *DepositUsecase) recordEvent(ctx context.Context, intentID uuid.UUID, eventType entities.IntentEventType, metadata string) {
	event := &entities.IntentEvent{
		ID:        utils.GenerateUUIDv7(),
		IntentID:  intentID,
		EventType: eventType,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := uc.eventRepo.Create(ctx, event); err != nil {
		logger.Warn(ctx, "failed to record intent event",
			zap.String("intentId", intentID.String()),
			zap.String("eventType", string(eventType)),
			zap.Error(err),
		)
	}
}
