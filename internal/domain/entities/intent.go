package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// IntentStatus represents the lifecycle state of a payment intent
type IntentStatus string

const (
	IntentStatusOpen           IntentStatus = "OPEN"
	IntentStatusPendingDeposit IntentStatus = "PENDING_DEPOSIT"
	IntentStatusInFlight       IntentStatus = "IN_FLIGHT"
	IntentStatusSuccess        IntentStatus = "SUCCESS"
	IntentStatusRefunded       IntentStatus = "REFUNDED"
	IntentStatusExpired        IntentStatus = "EXPIRED"
	IntentStatusCancelled      IntentStatus = "CANCELLED"
)

// IsTerminal reports whether the status accepts no further transitions.
func (s IntentStatus) IsTerminal() bool {
	switch s {
	case IntentStatusSuccess, IntentStatusRefunded, IntentStatusExpired, IntentStatusCancelled:
		return true
	}
	return false
}

// IntentEventType represents intent event type
type IntentEventType string

const (
	IntentEventTypeCreated                IntentEventType = "CREATED"
	IntentEventTypeDepositIssued          IntentEventType = "DEPOSIT_ISSUED"
	IntentEventTypeInFlight               IntentEventType = "IN_FLIGHT"
	IntentEventTypeCompleted              IntentEventType = "COMPLETED"
	IntentEventTypeRefunded               IntentEventType = "REFUNDED"
	IntentEventTypeExpired                IntentEventType = "EXPIRED"
	IntentEventTypeCancelled              IntentEventType = "CANCELLED"
	IntentEventTypeCompanionPlanned       IntentEventType = "COMPANION_PLANNED"
	IntentEventTypeCompanionFirstReceived IntentEventType = "COMPANION_FIRST_RECEIVED"
	IntentEventTypeCompanionSecondSent    IntentEventType = "COMPANION_SECOND_SENT"
	IntentEventTypeCompanionCompleted     IntentEventType = "COMPANION_COMPLETED"
	IntentEventTypeCompanionFailed        IntentEventType = "COMPANION_FAILED"
)

// PaymentIntent represents one request to move value between assets/chains.
// The deposit address is the sole correlation key with the swap network, so
// it is unique across all intents. Deadline is immutable once set.
type PaymentIntent struct {
	ID                   uuid.UUID    `json:"id"`
	OriginAsset          string       `json:"originAsset"`
	DestinationAsset     string       `json:"destinationAsset"`
	RequestedAmount      string       `json:"requestedAmount"` // Human/fiat units
	DestinationAmount    string       `json:"destinationAmount,omitempty"` // Atomic units
	RecipientAddress     string       `json:"recipientAddress"`
	RefundAddress        string       `json:"refundAddress"`
	Status               IntentStatus `json:"status"`
	DepositAddress       null.String  `json:"depositAddress,omitempty"`
	Memo                 null.String  `json:"memo,omitempty"`
	QuoteID              null.String  `json:"quoteId,omitempty"`
	Deadline             *time.Time   `json:"deadline,omitempty"`
	MinAmountIn          null.String  `json:"minAmountIn,omitempty"`          // Atomic units
	MinAmountInFormatted null.String  `json:"minAmountInFormatted,omitempty"` // Rounded up, shown to the payer
	LastStatusPayload    null.String  `json:"-"`
	PaidAt               *time.Time   `json:"paidAt,omitempty"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
	DeletedAt            *time.Time   `json:"-"`
}

// IntentEvent represents a state-transition event on an intent. External
// collaborators (notifications, attestation posting, UI polling) consume these.
type IntentEvent struct {
	ID        uuid.UUID       `json:"id"`
	IntentID  uuid.UUID       `json:"intentId"`
	EventType IntentEventType `json:"eventType"`
	Metadata  string          `json:"metadata,omitempty"` // JSON
	CreatedAt time.Time       `json:"createdAt"`
}
