package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"swap-route.backend/internal/domain/entities"
	domainRepos "swap-route.backend/internal/domain/repositories"
	"swap-route.backend/internal/usecases"
	"swap-route.backend/pkg/logger"
	"swap-route.backend/pkg/metrics"
	"swap-route.backend/pkg/utils"
)

// Locker is the distributed mutual-exclusion slice the reconcilers consume
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error)
}

// IntentReconciler periodically polls the swap network for every pending
// intent and advances its state. The upstream network has no webhooks, so
// polling with idempotent transitions is the design, not a workaround. Each
// intent is processed under a per-entity distributed lock; a pass that cannot
// take a lock skips that intent for the tick. The per-process run token only
// tags log lines — the lock is the mutual-exclusion guarantee, since a
// process-wide flag would not protect against multiple service instances.
type IntentReconciler struct {
	intentRepo domainRepos.PaymentIntentRepository
	eventRepo  domainRepos.IntentEventRepository
	gateway    usecases.SwapGateway
	locks      Locker
	interval   time.Duration
	lockTTL    time.Duration
	retention  time.Duration
	batchLimit int
	stop       chan struct{}
}

func NewIntentReconciler(
	intentRepo domainRepos.PaymentIntentRepository,
	eventRepo domainRepos.IntentEventRepository,
	gateway usecases.SwapGateway,
	locks Locker,
	interval, lockTTL, retention time.Duration,
	batchLimit int,
) *IntentReconciler {
	return &IntentReconciler{
		intentRepo: intentRepo,
		eventRepo:  eventRepo,
		gateway:    gateway,
		locks:      locks,
		interval:   interval,
		lockTTL:    lockTTL,
		retention:  retention,
		batchLimit: batchLimit,
		stop:       make(chan struct{}),
	}
}

func (r *IntentReconciler) Start(ctx context.Context) {
	logger.Info(ctx, "starting intent reconciler", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "intent reconciler stopped (context cancelled)")
			return
		case <-r.stop:
			logger.Info(ctx, "intent reconciler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *IntentReconciler) Stop() {
	close(r.stop)
}

// Sweep runs one reconciliation pass. Per-intent failures are contained:
// a network error or lock contention on one intent never aborts the rest.
func (r *IntentReconciler) Sweep(ctx context.Context) {
	runToken := utils.ShortID(8)
	metrics.ReconcilePasses.WithLabelValues("intent").Inc()

	pending, err := r.intentRepo.ListPending(ctx, r.retention, r.batchLimit)
	if err != nil {
		logger.Error(ctx, "failed to load pending intents", zap.String("run", runToken), zap.Error(err))
		return
	}
	metrics.PendingIntents.Set(float64(len(pending)))
	if len(pending) == 0 {
		return
	}

	for _, intent := range pending {
		ran, err := r.locks.WithLock(ctx, "intent:"+intent.ID.String(), r.lockTTL, func(ctx context.Context) error {
			return r.reconcileIntent(ctx, intent)
		})
		if err != nil {
			// Retried next tick; only this intent is affected.
			logger.Warn(ctx, "intent reconciliation failed",
				zap.String("run", runToken),
				zap.String("intentId", intent.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !ran {
			metrics.LockContentionSkips.Inc()
		}
	}
}

func (r *IntentReconciler) reconcileIntent(ctx context.Context, intent *entities.PaymentIntent) error {
	if !intent.DepositAddress.Valid {
		return nil
	}

	// Re-read under the lock: the listing snapshot may be stale.
	current, err := r.intentRepo.GetByID(ctx, intent.ID)
	if err != nil {
		return err
	}
	if current.Status.IsTerminal() {
		logger.Debug(ctx, "skipping terminal intent", zap.String("intentId", current.ID.String()))
		return nil
	}

	st, err := r.gateway.GetStatus(ctx, current.DepositAddress.String)
	if err != nil {
		return err
	}

	before := current.LastStatusPayload
	result := usecases.AdvanceIntent(current, st, time.Now())
	if !result.Changed {
		if current.LastStatusPayload != before {
			return r.intentRepo.Update(ctx, current)
		}
		return nil
	}

	if err := r.intentRepo.Update(ctx, current); err != nil {
		return err
	}

	metrics.IntentTransitions.WithLabelValues(string(current.Status)).Inc()
	logger.Info(ctx, "intent transitioned",
		zap.String("intentId", current.ID.String()),
		zap.String("status", string(current.Status)),
		zap.String("providerStatus", st.Raw),
	)

	event := &entities.IntentEvent{
		ID:        utils.GenerateUUIDv7(),
		IntentID:  current.ID,
		EventType: result.EventType,
		Metadata:  `{"providerStatus":"` + st.Raw + `"}`,
		CreatedAt: time.Now(),
	}
	if err := r.eventRepo.Create(ctx, event); err != nil {
		logger.Warn(ctx, "failed to record intent event", zap.String("intentId", current.ID.String()), zap.Error(err))
	}
	return nil
}
