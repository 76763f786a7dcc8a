package jobs

import (
	"context"
	"math/big"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"swap-route.backend/internal/domain/entities"
	domainRepos "swap-route.backend/internal/domain/repositories"
	"swap-route.backend/internal/infrastructure/blockchain"
	"swap-route.backend/internal/infrastructure/swapnet"
	"swap-route.backend/internal/usecases"
	"swap-route.backend/pkg/keyvault"
	"swap-route.backend/pkg/logger"
	"swap-route.backend/pkg/metrics"
	"swap-route.backend/pkg/utils"
)

// ChainClient is the slice of the EVM client the companion reconciler consumes
type ChainClient interface {
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendNative(ctx context.Context, signer blockchain.TxSigner, to string, amountWei *big.Int) (string, error)
}

// KeyStore is the slice of the keyvault the companion reconciler consumes
type KeyStore interface {
	Signer(ctx context.Context, id string) (keyvault.Signer, error)
	Discard(ctx context.Context, id string) error
}

// CompanionReconciler drives two-hop companion plans to completion. It watches
// each plan's ephemeral wallet on chain: once hop one lands enough of the
// intermediate asset, it requests a live quote for hop two and forwards the
// funds; once hop two completes it discards the ephemeral key. Shortfalls past
// the first-hop deadline are refunded to the payer minus one transfer's gas.
type CompanionReconciler struct {
	planRepo   domainRepos.CompanionPlanRepository
	eventRepo  domainRepos.IntentEventRepository
	gateway    usecases.SwapGateway
	chain      ChainClient
	vault      KeyStore
	locks      Locker
	interval   time.Duration
	lockTTL    time.Duration
	retention  time.Duration
	batchLimit int
	slippage   int
	dustWei    *big.Int
	stop       chan struct{}
}

func NewCompanionReconciler(
	planRepo domainRepos.CompanionPlanRepository,
	eventRepo domainRepos.IntentEventRepository,
	gateway usecases.SwapGateway,
	chain ChainClient,
	vault KeyStore,
	locks Locker,
	interval, lockTTL, retention time.Duration,
	batchLimit, slippageBps int,
	dustWei string,
) *CompanionReconciler {
	dust, ok := new(big.Int).SetString(dustWei, 10)
	if !ok {
		dust = big.NewInt(0)
	}
	return &CompanionReconciler{
		planRepo:   planRepo,
		eventRepo:  eventRepo,
		gateway:    gateway,
		chain:      chain,
		vault:      vault,
		locks:      locks,
		interval:   interval,
		lockTTL:    lockTTL,
		retention:  retention,
		batchLimit: batchLimit,
		slippage:   slippageBps,
		dustWei:    dust,
		stop:       make(chan struct{}),
	}
}

func (r *CompanionReconciler) Start(ctx context.Context) {
	logger.Info(ctx, "starting companion reconciler", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "companion reconciler stopped (context cancelled)")
			return
		case <-r.stop:
			logger.Info(ctx, "companion reconciler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *CompanionReconciler) Stop() {
	close(r.stop)
}

// Sweep runs one pass over all non-terminal companion plans
func (r *CompanionReconciler) Sweep(ctx context.Context) {
	metrics.ReconcilePasses.WithLabelValues("companion").Inc()

	pending, err := r.planRepo.ListPending(ctx, r.retention, r.batchLimit)
	if err != nil {
		logger.Error(ctx, "failed to load pending companion plans", zap.Error(err))
		return
	}

	for _, plan := range pending {
		ran, err := r.locks.WithLock(ctx, "companion:"+plan.ID.String(), r.lockTTL, func(ctx context.Context) error {
			return r.reconcilePlan(ctx, plan)
		})
		if err != nil {
			logger.Warn(ctx, "companion reconciliation failed",
				zap.String("planId", plan.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !ran {
			metrics.LockContentionSkips.Inc()
		}
	}
}

func (r *CompanionReconciler) reconcilePlan(ctx context.Context, plan *entities.CompanionPlan) error {
	current, err := r.planRepo.GetByID(ctx, plan.ID)
	if err != nil {
		return err
	}
	if current.Status.IsTerminal() {
		return nil
	}

	switch current.Status {
	case entities.CompanionStatusPendingFirstDeposit:
		return r.handlePendingFirstDeposit(ctx, current)
	case entities.CompanionStatusFirstReceived:
		return r.executeSecondHop(ctx, current)
	case entities.CompanionStatusSecondSent:
		return r.handleSecondSent(ctx, current)
	}
	return nil
}

// handlePendingFirstDeposit watches the ephemeral wallet for hop-one funds.
// Anything below the dust floor counts as "nothing arrived"; a partial balance
// past the deadline is refunded rather than stranded.
func (r *CompanionReconciler) handlePendingFirstDeposit(ctx context.Context, plan *entities.CompanionPlan) error {
	balance, err := r.chain.GetBalance(ctx, plan.EphemeralAddress)
	if err != nil {
		return err
	}

	required, ok := new(big.Int).SetString(plan.SecondHopAmountIn, 10)
	if !ok {
		return r.failPlan(ctx, plan, "invalid second hop amount: "+plan.SecondHopAmountIn)
	}

	if balance.Cmp(required) >= 0 {
		plan.Status = entities.CompanionStatusFirstReceived
		if err := r.planRepo.Update(ctx, plan); err != nil {
			return err
		}
		metrics.CompanionTransitions.WithLabelValues(string(plan.Status)).Inc()
		r.recordEvent(ctx, plan, entities.IntentEventTypeCompanionFirstReceived, `{"balance":"`+balance.String()+`"}`)
		return r.executeSecondHop(ctx, plan)
	}

	if time.Now().Before(plan.FirstHopDeadline) {
		return nil // Still inside the deposit window
	}

	if balance.Cmp(r.dustWei) <= 0 {
		// Deadline passed and nothing meaningful ever arrived.
		return r.failPlan(ctx, plan, "first hop deposit never arrived")
	}

	return r.refundShortfall(ctx, plan, balance)
}

// executeSecondHop quotes intermediate -> final destination and forwards the
// quote's minimum input from the ephemeral wallet to its deposit address,
// holding back one native transfer's gas from the wallet balance.
// Safe to re-enter: a plan that already holds a second-hop quote reuses it.
func (r *CompanionReconciler) executeSecondHop(ctx context.Context, plan *entities.CompanionPlan) error {
	if !plan.SecondHopDepositAddr.Valid {
		quote, err := r.gateway.LiveQuote(ctx, swapnet.QuoteRequest{
			SwapType:         swapnet.SwapTypeExactOutput,
			OriginAsset:      plan.IntermediateAsset,
			DestinationAsset: plan.FinalDestinationAsset,
			Amount:           plan.FinalDestinationAmount,
			DepositType:      swapnet.DepositTypeOriginChain,
			RefundType:       swapnet.RefundTypeOriginChain,
			RecipientType:    swapnet.RecipientTypeDestination,
			RefundTo:         plan.RefundAddress,
			Recipient:        plan.FinalRecipient,
			SlippageBps:      r.slippage,
		})
		if err != nil {
			return err
		}
		deadline := quote.Deadline
		plan.SecondHopDepositAddr = null.StringFrom(quote.DepositAddress)
		plan.SecondHopQuoteID = null.StringFrom(quote.QuoteID)
		plan.SecondHopMinAmountIn = null.StringFrom(quote.MinAmountIn)
		plan.SecondHopDeadline = &deadline
		if err := r.planRepo.Update(ctx, plan); err != nil {
			return err
		}
	}

	amount, ok := new(big.Int).SetString(plan.SecondHopMinAmountIn.String, 10)
	if !ok {
		return r.failPlan(ctx, plan, "invalid second hop quote amount: "+plan.SecondHopMinAmountIn.String)
	}

	balance, err := r.chain.GetBalance(ctx, plan.EphemeralAddress)
	if err != nil {
		return err
	}
	gasPrice, err := r.chain.SuggestGasPrice(ctx)
	if err != nil {
		return err
	}
	gasCost := new(big.Int).Mul(gasPrice, big.NewInt(blockchain.NativeTransferGas))
	maxSpend := new(big.Int).Sub(balance, gasCost)
	if maxSpend.Sign() <= 0 {
		// Gas eats the whole balance right now; retry on the next pass.
		logger.Warn(ctx, "second hop deferred, balance cannot cover gas",
			zap.String("planId", plan.ID.String()),
			zap.String("balanceWei", balance.String()),
			zap.String("gasCostWei", gasCost.String()),
		)
		return nil
	}
	if amount.Cmp(maxSpend) > 0 {
		amount = maxSpend
	}

	signer, err := r.vault.Signer(ctx, plan.ID.String())
	if err != nil {
		// Key expired before the wallet was funded; the refund path cannot
		// run either, so the plan is unrecoverable.
		return r.failPlan(ctx, plan, "ephemeral key unavailable: "+err.Error())
	}

	txHash, err := r.chain.SendNative(ctx, signer, plan.SecondHopDepositAddr.String, amount)
	if err != nil {
		return err
	}

	plan.Status = entities.CompanionStatusSecondSent
	plan.SecondHopTxHash = null.StringFrom(txHash)
	if err := r.planRepo.Update(ctx, plan); err != nil {
		return err
	}
	metrics.CompanionTransitions.WithLabelValues(string(plan.Status)).Inc()
	r.recordEvent(ctx, plan, entities.IntentEventTypeCompanionSecondSent, `{"txHash":"`+txHash+`"}`)

	logger.Info(ctx, "companion second hop sent",
		zap.String("planId", plan.ID.String()),
		zap.String("txHash", txHash),
	)
	return nil
}

// handleSecondSent polls the second hop's deposit address until the network
// settles it one way or the other.
func (r *CompanionReconciler) handleSecondSent(ctx context.Context, plan *entities.CompanionPlan) error {
	st, err := r.gateway.GetStatus(ctx, plan.SecondHopDepositAddr.String)
	if err != nil {
		return err
	}

	switch st.Status {
	case swapnet.StatusCompleted:
		plan.Status = entities.CompanionStatusCompleted
		if err := r.planRepo.Update(ctx, plan); err != nil {
			return err
		}
		metrics.CompanionTransitions.WithLabelValues(string(plan.Status)).Inc()
		r.recordEvent(ctx, plan, entities.IntentEventTypeCompanionCompleted, "")
		if err := r.vault.Discard(ctx, plan.ID.String()); err != nil {
			logger.Warn(ctx, "failed to discard ephemeral key", zap.String("planId", plan.ID.String()), zap.Error(err))
		}
		logger.Info(ctx, "companion plan completed", zap.String("planId", plan.ID.String()))
		return nil
	case swapnet.StatusFailed:
		reason := "second hop failed: " + st.Raw
		if st.Refunded {
			// The network refunded hop two back to the payer's refund
			// address, so the plan ends here without a local refund.
			reason = "second hop refunded by network"
		}
		return r.failPlan(ctx, plan, reason)
	}
	return nil
}

// refundShortfall returns a partial first-hop balance to the payer, net of one
// native transfer's gas. A balance that cannot cover its own gas is written
// off.
func (r *CompanionReconciler) refundShortfall(ctx context.Context, plan *entities.CompanionPlan, balance *big.Int) error {
	gasPrice, err := r.chain.SuggestGasPrice(ctx)
	if err != nil {
		return err
	}

	gasCost := new(big.Int).Mul(gasPrice, big.NewInt(blockchain.NativeTransferGas))
	refund := new(big.Int).Sub(balance, gasCost)
	if refund.Sign() <= 0 {
		return r.failPlan(ctx, plan, "balance below gas cost, refund impossible")
	}

	signer, err := r.vault.Signer(ctx, plan.ID.String())
	if err != nil {
		return r.failPlan(ctx, plan, "ephemeral key unavailable: "+err.Error())
	}

	txHash, err := r.chain.SendNative(ctx, signer, plan.RefundAddress, refund)
	if err != nil {
		return err
	}

	plan.RefundTxHash = null.StringFrom(txHash)
	logger.Info(ctx, "companion shortfall refunded",
		zap.String("planId", plan.ID.String()),
		zap.String("txHash", txHash),
		zap.String("amountWei", refund.String()),
	)
	return r.failPlan(ctx, plan, "first hop shortfall refunded")
}

func (r *CompanionReconciler) failPlan(ctx context.Context, plan *entities.CompanionPlan, reason string) error {
	plan.Status = entities.CompanionStatusFailed
	plan.FailureReason = null.StringFrom(reason)
	if err := r.planRepo.Update(ctx, plan); err != nil {
		return err
	}
	metrics.CompanionTransitions.WithLabelValues(string(plan.Status)).Inc()
	r.recordEvent(ctx, plan, entities.IntentEventTypeCompanionFailed, `{"reason":"`+reason+`"}`)
	if err := r.vault.Discard(ctx, plan.ID.String()); err != nil {
		logger.Warn(ctx, "failed to discard ephemeral key", zap.String("planId", plan.ID.String()), zap.Error(err))
	}
	logger.Warn(ctx, "companion plan failed",
		zap.String("planId", plan.ID.String()),
		zap.String("reason", reason),
	)
	return nil
}

func (r *CompanionReconciler) recordEvent(ctx context.Context, plan *entities.CompanionPlan, eventType entities.IntentEventType, metadata string) {
	event := &entities.IntentEvent{
		ID:        utils.GenerateUUIDv7(),
		IntentID:  plan.ClaimID,
		EventType: eventType,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := r.eventRepo.Create(ctx, event); err != nil {
		logger.Warn(ctx, "failed to record companion event", zap.String("planId", plan.ID.String()), zap.Error(err))
	}
}
