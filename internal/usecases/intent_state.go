package usecases

import (
	"time"

	"github.com/volatiletech/null/v8"
	"swap-route.backend/internal/domain/entities"
	"swap-route.backend/internal/infrastructure/swapnet"
)

// TransitionResult describes the outcome of applying a polled status to an
// intent.
type TransitionResult struct {
	Changed   bool
	EventType entities.IntentEventType
}

// AdvanceIntent applies a freshly polled status to the intent in place and
// returns what changed. Rules:
//   - terminal intents absorb any payload silently (idempotent no-op);
//   - a network-confirmed terminal outcome (completed/refunded) always wins;
//   - a failure without a refund signal keeps polling, since the network
//     reports the refund on a later status;
//   - otherwise a past deadline expires the intent locally, because the
//     network never proactively reports expiry;
//   - re-applying an identical payload to an unchanged state mutates nothing.
func AdvanceIntent(intent *entities.PaymentIntent, st *swapnet.StatusResult, now time.Time) TransitionResult {
	if intent.Status.IsTerminal() {
		return TransitionResult{}
	}

	next := intent.Status
	var eventType entities.IntentEventType

	switch st.Status {
	case swapnet.StatusCompleted:
		next = entities.IntentStatusSuccess
		eventType = entities.IntentEventTypeCompleted
	case swapnet.StatusFailed:
		if st.Refunded {
			next = entities.IntentStatusRefunded
			eventType = entities.IntentEventTypeRefunded
		}
	case swapnet.StatusProcessing:
		if deadlinePassed(intent, now) {
			next = entities.IntentStatusExpired
			eventType = entities.IntentEventTypeExpired
		} else if intent.Status == entities.IntentStatusPendingDeposit {
			next = entities.IntentStatusInFlight
			eventType = entities.IntentEventTypeInFlight
		}
	case swapnet.StatusPending:
		if deadlinePassed(intent, now) {
			next = entities.IntentStatusExpired
			eventType = entities.IntentEventTypeExpired
		}
	}

	changed := next != intent.Status
	if changed {
		intent.Status = next
		if next == entities.IntentStatusSuccess {
			paidAt := now
			intent.PaidAt = &paidAt
		}
	}

	// Keep the raw snapshot for debugging and idempotent comparison, but
	// only when it actually moved.
	if changed || intent.LastStatusPayload.String != st.Raw {
		intent.LastStatusPayload = null.StringFrom(st.Raw)
	}

	if !changed {
		return TransitionResult{}
	}
	return TransitionResult{Changed: true, EventType: eventType}
}

func deadlinePassed(intent *entities.PaymentIntent, now time.Time) bool {
	return intent.Deadline != nil && intent.Deadline.Before(now)
}
