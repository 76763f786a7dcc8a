package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// CompanionStatus represents the status of a two-hop companion plan
type CompanionStatus string

const (
	CompanionStatusPendingFirstDeposit CompanionStatus = "PENDING_FIRST_DEPOSIT"
	CompanionStatusFirstReceived       CompanionStatus = "FIRST_RECEIVED"
	CompanionStatusSecondSent          CompanionStatus = "SECOND_SENT"
	CompanionStatusCompleted           CompanionStatus = "COMPLETED"
	CompanionStatusFailed              CompanionStatus = "FAILED"
)

// IsTerminal reports whether the plan accepts no further transitions.
func (s CompanionStatus) IsTerminal() bool {
	return s == CompanionStatusCompleted || s == CompanionStatusFailed
}

// CompanionPlan describes a two-hop route through an ephemeral wallet, used
// when the swap network has no direct liquidity between origin and final
// destination assets. The first hop lands the payer's funds on the ephemeral
// wallet in the intermediate asset; the second hop moves them on to the final
// recipient. The ephemeral private key lives in the keyvault under the plan
// ID, never on this record.
type CompanionPlan struct {
	ID                     uuid.UUID       `json:"id"`
	ClaimID                uuid.UUID       `json:"claimId"` // Owning PaymentIntent
	FinalRecipient         string          `json:"finalRecipient"`
	FinalDestinationAsset  string          `json:"finalDestinationAsset"`
	FinalDestinationAmount string          `json:"finalDestinationAmount"` // Atomic units
	IntermediateAsset      string          `json:"intermediateAsset"`
	SecondHopAmountIn      string          `json:"secondHopAmountIn"` // Atomic units, fee-buffered
	RefundAddress          string          `json:"refundAddress"`
	EphemeralAddress       string          `json:"ephemeralAddress"`
	FirstHopDepositAddress string          `json:"firstHopDepositAddress"`
	FirstHopQuoteID        string          `json:"firstHopQuoteId"`
	FirstHopDeadline       time.Time       `json:"firstHopDeadline"`
	SecondHopDepositAddr   null.String     `json:"secondHopDepositAddress,omitempty"`
	SecondHopQuoteID       null.String     `json:"secondHopQuoteId,omitempty"`
	SecondHopMinAmountIn   null.String     `json:"secondHopMinAmountIn,omitempty"` // Atomic units, live quote's floor
	SecondHopDeadline      *time.Time      `json:"secondHopDeadline,omitempty"`
	SecondHopTxHash        null.String     `json:"secondHopTxHash,omitempty"`
	RefundTxHash           null.String     `json:"refundTxHash,omitempty"`
	FailureReason          null.String     `json:"failureReason,omitempty"`
	Status                 CompanionStatus `json:"status"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
	DeletedAt              *time.Time      `json:"-"`
}
