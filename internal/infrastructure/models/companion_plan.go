package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanionPlan struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ClaimID                uuid.UUID `gorm:"type:uuid;not null;index"`
	FinalRecipient         string    `gorm:"type:varchar(255);not null"`
	FinalDestinationAsset  string    `gorm:"type:varchar(100);not null"`
	FinalDestinationAmount string    `gorm:"type:varchar(100);not null"` // BigInt
	IntermediateAsset      string    `gorm:"type:varchar(100);not null"`
	SecondHopAmountIn      string    `gorm:"type:varchar(100);not null"` // BigInt
	RefundAddress          string    `gorm:"type:varchar(255);not null"`
	EphemeralAddress       string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstHopDepositAddress string    `gorm:"type:varchar(255);not null"`
	FirstHopQuoteID        string    `gorm:"type:varchar(255)"`
	FirstHopDeadline       time.Time `gorm:"not null"`
	SecondHopDepositAddr   *string   `gorm:"type:varchar(255)"`
	SecondHopQuoteID       *string   `gorm:"type:varchar(255)"`
	SecondHopMinAmountIn   *string   `gorm:"type:varchar(100)"` // BigInt
	SecondHopDeadline      *time.Time
	SecondHopTxHash        *string `gorm:"type:varchar(255)"`
	RefundTxHash           *string `gorm:"type:varchar(255)"`
	FailureReason          *string `gorm:"type:text"`
	Status                 string  `gorm:"type:varchar(50);not null;index"`
	CreatedAt              time.Time `gorm:"index"`
	UpdatedAt              time.Time
	DeletedAt              gorm.DeletedAt `gorm:"index"`

	Claim PaymentIntent `gorm:"foreignKey:ClaimID"`
}

func (CompanionPlan) TableName() string {
	return "companion_plans"
}
